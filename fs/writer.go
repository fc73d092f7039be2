// Package fs persists finished bundles to a directory tree.
package fs

import (
	"context"
	"os"
	"path/filepath"

	"github.com/foliotools/folio"
	"gopkg.in/yaml.v3"
)

// Ensure Writer implements folio.BundleWriter at compile time.
var _ folio.BundleWriter = (*Writer)(nil)

// Writer writes bundles with atomic update semantics: everything lands in a
// temporary directory that is renamed into place at the end, so a crashed run
// never leaves a half-written bundle under the final name.
type Writer struct {
	baseDir string
}

// NewWriter creates a Writer rooted at baseDir.
func NewWriter(baseDir string) *Writer {
	return &Writer{baseDir: baseDir}
}

// manifest is the bundle.yaml document written alongside the chapters.
type manifest struct {
	UID         string            `yaml:"uid"`
	Title       string            `yaml:"title"`
	Author      string            `yaml:"author,omitempty"`
	Language    string            `yaml:"language,omitempty"`
	Description string            `yaml:"description,omitempty"`
	SourceURL   string            `yaml:"source_url"`
	Chapters    []manifestChapter `yaml:"chapters"`
	Assets      []manifestAsset   `yaml:"assets,omitempty"`
}

type manifestChapter struct {
	UID      string `yaml:"uid"`
	Title    string `yaml:"title"`
	Filename string `yaml:"filename"`
	Article  bool   `yaml:"article,omitempty"`
	Comments bool   `yaml:"comments,omitempty"`
}

type manifestAsset struct {
	ID          string `yaml:"id"`
	Filename    string `yaml:"filename"`
	MediaType   string `yaml:"media_type"`
	OriginURL   string `yaml:"origin_url"`
	ContentHash string `yaml:"content_hash"`
}

// Write persists the bundle and returns the final directory path.
func (w *Writer) Write(ctx context.Context, bundle *folio.Bundle) (string, error) {
	if bundle.Title == "" {
		return "", folio.Errorf(folio.EINVALID, "bundle title required")
	}

	name := folio.SanitizeFilename(bundle.Title)
	tmpDir := filepath.Join(w.baseDir, name+".tmp")
	finalDir := filepath.Join(w.baseDir, name)

	if err := os.RemoveAll(tmpDir); err != nil {
		return "", err
	}
	if err := os.MkdirAll(tmpDir, 0755); err != nil {
		return "", err
	}

	for _, ch := range bundle.Chapters {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if err := writeFile(filepath.Join(tmpDir, ch.Filename), []byte(chapterDocument(ch))); err != nil {
			return "", err
		}
	}

	for _, asset := range bundle.Assets {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if err := writeFile(filepath.Join(tmpDir, filepath.FromSlash(asset.Filename)), asset.Content); err != nil {
			return "", err
		}
	}

	if bundle.Markdown != "" {
		if err := writeFile(filepath.Join(tmpDir, "bundle.md"), []byte(bundle.Markdown)); err != nil {
			return "", err
		}
	}

	data, err := yaml.Marshal(buildManifest(bundle))
	if err != nil {
		return "", err
	}
	if err := writeFile(filepath.Join(tmpDir, "bundle.yaml"), data); err != nil {
		return "", err
	}

	if err := os.RemoveAll(finalDir); err != nil {
		return "", err
	}
	if err := os.Rename(tmpDir, finalDir); err != nil {
		return "", err
	}
	return finalDir, nil
}

func buildManifest(bundle *folio.Bundle) manifest {
	m := manifest{
		UID:         bundle.UID,
		Title:       bundle.Title,
		Author:      bundle.Author,
		Language:    bundle.Language,
		Description: bundle.Description,
		SourceURL:   bundle.SourceURL,
	}
	for _, ch := range bundle.Chapters {
		m.Chapters = append(m.Chapters, manifestChapter{
			UID:      ch.UID,
			Title:    ch.Title,
			Filename: ch.Filename,
			Article:  ch.IsArticle,
			Comments: ch.IsComments,
		})
	}
	for _, asset := range bundle.Assets {
		m.Assets = append(m.Assets, manifestAsset{
			ID:          asset.ID,
			Filename:    asset.Filename,
			MediaType:   asset.MediaType,
			OriginURL:   asset.OriginURL,
			ContentHash: asset.ContentHash,
		})
	}
	return m
}

// chapterDocument wraps chapter markup in a minimal standalone HTML document.
func chapterDocument(ch *folio.Chapter) string {
	return "<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>" +
		ch.Title + "</title>\n</head>\n<body>\n" + ch.HTML + "\n</body>\n</html>\n"
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
