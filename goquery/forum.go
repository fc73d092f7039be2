package goquery

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/foliotools/folio"
)

// ForumPost is one message parsed out of a thread page.
type ForumPost struct {
	ID            string
	Author        string
	BodyHTML      string
	TimestampUnix int64
}

// ForumPage is the parsed form of one thread page.
type ForumPage struct {
	Title   string
	Posts   []ForumPost
	NextURL string
}

// ParseForumPage parses a XenForo thread page into its posts and the
// absolute URL of the next page, if any. Returns ENOTFOUND when the page
// contains no recognizable posts.
func ParseForumPage(html, baseURL string) (*ForumPage, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, folio.Errorf(folio.EINVALID, "failed to parse HTML: %v", err)
	}

	page := &ForumPage{
		Title: strings.TrimSpace(doc.Find("h1.p-title-value").First().Text()),
	}
	if page.Title == "" {
		page.Title = Title(doc)
	}

	doc.Find("article.message").Each(func(_ int, sel *goquery.Selection) {
		post := ForumPost{
			ID:     postID(sel),
			Author: postAuthor(sel),
		}
		body := sel.Find(".message-body .bbWrapper").First()
		if body.Length() == 0 {
			return
		}
		if raw, err := body.Html(); err == nil {
			post.BodyHTML = raw
		}
		if ts, ok := sel.Find("time.u-dt[data-time]").First().Attr("data-time"); ok {
			if unix, err := strconv.ParseInt(ts, 10, 64); err == nil {
				post.TimestampUnix = unix
			}
		}
		page.Posts = append(page.Posts, post)
	})
	if len(page.Posts) == 0 {
		return nil, folio.Errorf(folio.ENOTFOUND, "no posts found in page")
	}

	if href, ok := doc.Find("a.pageNav-jump--next").First().Attr("href"); ok {
		page.NextURL = absoluteURL(baseURL, href)
	}
	return page, nil
}

// postID prefers the stable post-NNN content id over the element id.
func postID(sel *goquery.Selection) string {
	if id, ok := sel.Attr("data-content"); ok && id != "" {
		return id
	}
	if id, ok := sel.Attr("id"); ok {
		return strings.TrimPrefix(id, "js-")
	}
	return ""
}

func postAuthor(sel *goquery.Selection) string {
	if author, ok := sel.Attr("data-author"); ok && author != "" {
		return author
	}
	return strings.TrimSpace(sel.Find(".message-name").First().Text())
}

func absoluteURL(baseURL, href string) string {
	base, err := url.Parse(baseURL)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
