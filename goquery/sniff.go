package goquery

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ForumSniffer reports "forum" for markup that carries the structural markers
// of a threaded discussion board (XenForo and similar), or "" otherwise.
// Wired into the driver registry as a folio.Sniffer.
func ForumSniffer(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	markers := []string{
		"html#XF",
		"[data-template]",
		".p-body-pageContent .block--messages",
		".message-threadStarterPost",
		"article.message",
		".structItem--thread",
	}
	for _, sel := range markers {
		if doc.Find(sel).Length() > 0 {
			return "forum"
		}
	}
	return ""
}
