package goquery

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/foliotools/folio"
)

// ExtractWithProfile extracts article content using a site profile's
// selectors: the content selector scopes the result and the remove selectors
// strip boilerplate inside it. Returns ENOTFOUND when the content selector
// matches nothing, which callers treat as a signal to fall back to generic
// extraction.
func ExtractWithProfile(html string, profile *folio.SiteProfile) (*folio.ExtractResult, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, folio.Errorf(folio.EINVALID, "failed to parse HTML: %v", err)
	}

	content := doc.Selection
	if profile.ContentSelector != "" {
		content = doc.Find(profile.ContentSelector).First()
		if content.Length() == 0 {
			return nil, folio.Errorf(folio.ENOTFOUND, "content selector %q matched nothing", profile.ContentSelector)
		}
	}
	for _, sel := range profile.RemoveSelectors {
		content.Find(sel).Remove()
	}

	contentHTML, err := goquery.OuterHtml(content)
	if err != nil {
		return nil, folio.Errorf(folio.EINTERNAL, "failed to render content: %v", err)
	}

	return &folio.ExtractResult{
		Title:       Title(doc),
		Author:      metaContent(doc, `meta[name="author"]`, `meta[property="article:author"]`),
		Date:        metaContent(doc, `meta[property="article:published_time"]`, `meta[name="date"]`),
		SiteName:    metaContent(doc, `meta[property="og:site_name"]`),
		ContentHTML: contentHTML,
	}, nil
}

// ExtractTitle returns the page title from html, preferring og:title over the
// title element over the first h1.
func ExtractTitle(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	return Title(doc)
}

// Title returns the page title from a parsed document.
func Title(doc *goquery.Document) string {
	if t := metaContent(doc, `meta[property="og:title"]`); t != "" {
		return t
	}
	if t := strings.TrimSpace(doc.Find("title").First().Text()); t != "" {
		return t
	}
	return strings.TrimSpace(doc.Find("h1").First().Text())
}

func metaContent(doc *goquery.Document, selectors ...string) string {
	for _, sel := range selectors {
		if v := strings.TrimSpace(doc.Find(sel).First().AttrOr("content", "")); v != "" {
			return v
		}
	}
	return ""
}
