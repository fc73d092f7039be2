package htmltomarkdown_test

import (
	"testing"

	"github.com/foliotools/folio"
	"github.com/foliotools/folio/htmltomarkdown"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Ensure Converter implements folio.Converter at compile time.
var _ folio.Converter = (*htmltomarkdown.Converter)(nil)

func TestConverter_Convert(t *testing.T) {
	t.Parallel()

	t.Run("converts basic paragraph", func(t *testing.T) {
		t.Parallel()

		conv := htmltomarkdown.NewConverter()
		md, err := conv.Convert(`<p>Hello, world!</p>`)

		require.NoError(t, err)
		assert.Contains(t, md, "Hello, world!")
	})

	t.Run("converts headings", func(t *testing.T) {
		t.Parallel()

		conv := htmltomarkdown.NewConverter()
		md, err := conv.Convert(`<h1>Title</h1><h2>Subtitle</h2><h3>Section</h3>`)

		require.NoError(t, err)
		assert.Contains(t, md, "# Title")
		assert.Contains(t, md, "## Subtitle")
		assert.Contains(t, md, "### Section")
	})

	t.Run("converts links and emphasis", func(t *testing.T) {
		t.Parallel()

		conv := htmltomarkdown.NewConverter()
		md, err := conv.Convert(`<p>Visit <a href="https://example.com">Example</a> for <em>more</em> info.</p>`)

		require.NoError(t, err)
		assert.Contains(t, md, "[Example](https://example.com)")
		assert.Contains(t, md, "*more*")
	})

	t.Run("converts tables", func(t *testing.T) {
		t.Parallel()

		conv := htmltomarkdown.NewConverter()
		md, err := conv.Convert(`<table><tr><th>Name</th><th>Count</th></tr><tr><td>a</td><td>1</td></tr></table>`)

		require.NoError(t, err)
		assert.Contains(t, md, "| Name | Count |")
	})

	t.Run("rejects empty input", func(t *testing.T) {
		t.Parallel()

		conv := htmltomarkdown.NewConverter()
		_, err := conv.Convert("   ")
		require.Error(t, err)
		assert.Equal(t, folio.EINVALID, folio.ErrorCode(err))
	})
}

func TestConverter_ConvertBundle(t *testing.T) {
	t.Parallel()

	bundle := &folio.Bundle{
		Title:     "A Long Read",
		Author:    "Jo Writer",
		SourceURL: "https://www.example.com/articles/long-read",
		Chapters: []*folio.Chapter{
			{Title: "A Long Read", HTML: "<p>Article body.</p>", IsArticle: true},
			{Title: "Comments", HTML: "<p>First comment.</p>", IsComments: true},
		},
	}

	conv := htmltomarkdown.NewConverter()
	md, err := conv.ConvertBundle(bundle)

	require.NoError(t, err)
	assert.Contains(t, md, "# A Long Read")
	assert.Contains(t, md, "Author: Jo Writer")
	assert.Contains(t, md, "Source: https://www.example.com/articles/long-read")
	assert.Contains(t, md, "Article body.")
	assert.Contains(t, md, "## Comments")
	assert.Contains(t, md, "First comment.")
}
