package fs_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/foliotools/folio"
	"github.com/foliotools/folio/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Ensure Writer implements folio.BundleWriter at compile time.
var _ folio.BundleWriter = (*fs.Writer)(nil)

func testBundle() *folio.Bundle {
	return &folio.Bundle{
		UID:       "b-1",
		Title:     "A Long Read",
		Author:    "Jo Writer",
		SourceURL: "https://www.example.com/articles/long-read",
		Chapters: []*folio.Chapter{
			{UID: "c-1", Title: "A Long Read", Filename: "article.html", HTML: "<p>Body.</p>", IsArticle: true},
			{UID: "c-2", Title: "Comments", Filename: "comments.html", HTML: "<p>First!</p>", IsComments: true},
		},
		Assets: []*folio.Asset{
			{ID: "a-1", Filename: "images/photo.jpg", MediaType: "image/jpeg", Content: []byte("jpegdata"), OriginURL: "https://img.example.com/photo.jpg", ContentHash: "abc"},
		},
		Markdown: "# A Long Read\n\nBody.\n",
	}
}

func TestWriter_Write(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	w := fs.NewWriter(dir)

	path, err := w.Write(context.Background(), testBundle())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "A_Long_Read"), path)

	article, err := os.ReadFile(filepath.Join(path, "article.html"))
	require.NoError(t, err)
	assert.Contains(t, string(article), "<p>Body.</p>")
	assert.Contains(t, string(article), "<title>A Long Read</title>")

	img, err := os.ReadFile(filepath.Join(path, "images", "photo.jpg"))
	require.NoError(t, err)
	assert.Equal(t, []byte("jpegdata"), img)

	md, err := os.ReadFile(filepath.Join(path, "bundle.md"))
	require.NoError(t, err)
	assert.Contains(t, string(md), "# A Long Read")

	manifest, err := os.ReadFile(filepath.Join(path, "bundle.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(manifest), "title: A Long Read")
	assert.Contains(t, string(manifest), "filename: images/photo.jpg")

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp dir removed after commit")
}

func TestWriter_WriteReplacesExisting(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	w := fs.NewWriter(dir)

	_, err := w.Write(context.Background(), testBundle())
	require.NoError(t, err)

	updated := testBundle()
	updated.Chapters[0].HTML = "<p>Updated body.</p>"
	path, err := w.Write(context.Background(), updated)
	require.NoError(t, err)

	article, err := os.ReadFile(filepath.Join(path, "article.html"))
	require.NoError(t, err)
	assert.Contains(t, string(article), "Updated body.")
}

func TestWriter_WriteRequiresTitle(t *testing.T) {
	t.Parallel()

	w := fs.NewWriter(t.TempDir())
	_, err := w.Write(context.Background(), &folio.Bundle{})
	require.Error(t, err)
	assert.Equal(t, folio.EINVALID, folio.ErrorCode(err))
}
