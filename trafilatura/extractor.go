package trafilatura

import (
	"bytes"
	"errors"
	"strings"

	"github.com/foliotools/folio"
	"github.com/markusmobius/go-trafilatura"
	"golang.org/x/net/html"
)

// Ensure Extractor implements folio.Extractor at compile time.
var _ folio.Extractor = (*Extractor)(nil)

// Extractor wraps go-trafilatura to extract main article content from HTML.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract processes raw HTML and returns the main content with metadata.
func (e *Extractor) Extract(rawHTML string) (*folio.ExtractResult, error) {
	if rawHTML == "" {
		return nil, errors.New("empty HTML input")
	}

	opts := trafilatura.Options{
		EnableFallback: true,
		IncludeImages:  true,
		IncludeLinks:   true,
	}

	result, err := trafilatura.Extract(strings.NewReader(rawHTML), opts)
	if err != nil {
		return nil, err
	}

	var contentHTML string
	if result.ContentNode != nil {
		contentHTML, err = renderNode(result.ContentNode)
		if err != nil {
			return nil, err
		}
	}

	date := ""
	if !result.Metadata.Date.IsZero() {
		date = result.Metadata.Date.Format("2006-01-02")
	}

	return &folio.ExtractResult{
		Title:       result.Metadata.Title,
		Author:      result.Metadata.Author,
		Date:        date,
		SiteName:    result.Metadata.Sitename,
		ContentHTML: contentHTML,
	}, nil
}

// renderNode converts an html.Node to a string.
func renderNode(n *html.Node) (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}
