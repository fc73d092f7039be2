// Package htmltomarkdown produces the optional LLM-friendly markdown export
// of a bundle.
package htmltomarkdown

import (
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/foliotools/folio"
)

// Ensure Converter implements folio.Converter at compile time.
var _ folio.Converter = (*Converter)(nil)

// Converter wraps html-to-markdown to convert HTML to Markdown.
type Converter struct {
	conv *converter.Converter
}

// NewConverter creates a new Converter.
func NewConverter() *Converter {
	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(),
		),
	)
	return &Converter{conv: conv}
}

// Convert transforms HTML content into Markdown.
func (c *Converter) Convert(html string) (string, error) {
	if strings.TrimSpace(html) == "" {
		return "", folio.Errorf(folio.EINVALID, "empty HTML input")
	}

	result, err := c.conv.ConvertString(html)
	if err != nil {
		return "", err
	}

	return result, nil
}

// ConvertBundle renders a whole bundle as one markdown document: a metadata
// header followed by each chapter under its own heading. Chapters that fail
// to convert are skipped so one malformed chapter cannot sink the export.
func (c *Converter) ConvertBundle(bundle *folio.Bundle) (string, error) {
	var b strings.Builder
	b.WriteString("# " + bundle.Title + "\n\n")
	if bundle.Author != "" {
		b.WriteString("Author: " + bundle.Author + "\n")
	}
	if bundle.SourceURL != "" {
		b.WriteString("Source: " + bundle.SourceURL + "\n")
	}
	b.WriteString("\n")

	for _, ch := range bundle.Chapters {
		md, err := c.Convert(ch.HTML)
		if err != nil {
			continue
		}
		if ch.Title != "" && ch.Title != bundle.Title {
			b.WriteString("## " + ch.Title + "\n\n")
		}
		b.WriteString(strings.TrimSpace(md))
		b.WriteString("\n\n")
	}

	return strings.TrimRight(b.String(), "\n") + "\n", nil
}
