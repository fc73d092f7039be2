package drivers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/foliotools/folio"
	foliobundle "github.com/foliotools/folio/bundle"
	"golang.org/x/sync/errgroup"
)

const (
	hnItemURL = "https://hacker-news.firebaseio.com/v0/item/%d.json"

	// hnFetchConcurrency bounds parallel comment-tree fetches against the
	// Firebase API.
	hnFetchConcurrency = 8
)

// hnItem is the Firebase API's item shape, shared by stories and comments.
type hnItem struct {
	ID      int    `json:"id"`
	Type    string `json:"type"`
	By      string `json:"by"`
	Time    int64  `json:"time"`
	Text    string `json:"text"`
	Dead    bool   `json:"dead"`
	Deleted bool   `json:"deleted"`
	Kids    []int  `json:"kids"`
	URL     string `json:"url"`
	Title   string `json:"title"`
	Score   int    `json:"score"`
}

// HackerNews builds a bundle from a Hacker News discussion: the linked
// article (delegated to the article driver) plus the full comment tree
// fetched from the Firebase API.
type HackerNews struct {
	Engine *Engine

	// Article builds the linked-article chapter for story items that point
	// at an external page.
	Article folio.Driver
}

var _ folio.Driver = (*HackerNews)(nil)

func (d *HackerNews) Name() string { return "hackernews" }

func (d *HackerNews) Build(ctx context.Context, src *folio.Source, opts folio.Options) (*folio.Bundle, error) {
	id, err := hnItemID(src.URL)
	if err != nil {
		return nil, err
	}

	story, err := d.fetchItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if story.Deleted || story.Dead {
		return nil, folio.Errorf(folio.ENOTFOUND, "item %d is deleted", id)
	}

	bundle := newBundle(story.Title, src.URL)
	bundle.Author = story.By
	bundle.Description = fmt.Sprintf("Hacker News discussion, %d points", story.Score)

	if !opts.NoArticle {
		d.appendArticle(ctx, bundle, story, opts)
	}

	if !opts.NoComments && len(story.Kids) > 0 {
		roots, err := d.fetchComments(ctx, story.Kids, 1, opts.MaxDepth)
		if err != nil {
			return nil, err
		}
		if len(roots) > 0 {
			comments := newChapter("Comments", "comments.xhtml", foliobundle.RenderComments(roots, d.Engine.Sanitizer, opts.MaxDepth))
			comments.IsComments = true
			bundle.Chapters = append(bundle.Chapters, comments)
		}
	}

	if len(bundle.Chapters) == 0 {
		return nil, folio.Errorf(folio.ENOTFOUND, "item %d has no content", id)
	}
	return bundle, nil
}

// appendArticle delegates the linked page to the article driver. A failed
// article fetch degrades to a link-only chapter rather than failing the
// discussion bundle.
func (d *HackerNews) appendArticle(ctx context.Context, bundle *folio.Bundle, story *hnItem, opts folio.Options) {
	switch {
	case story.URL != "" && d.Article != nil:
		articleOpts := opts
		articleOpts.NoComments = true
		sub, err := d.Article.Build(ctx, &folio.Source{URL: story.URL}, articleOpts)
		if err != nil {
			d.Engine.logger().Warn("linked article failed", "url", story.URL, "error", err)
			bundle.Chapters = append(bundle.Chapters, linkOnlyChapter(story))
			return
		}
		for _, ch := range sub.Chapters {
			ch.IsArticle = true
			bundle.Chapters = append(bundle.Chapters, ch)
		}
		bundle.Assets = append(bundle.Assets, sub.Assets...)
		if bundle.Author == "" {
			bundle.Author = sub.Author
		}
	case story.Text != "":
		// Ask HN and similar self posts carry their body inline.
		body := d.Engine.Sanitizer.Sanitize(story.Text)
		ch := newChapter(story.Title, "article.xhtml", "<h1>"+story.Title+"</h1>"+body)
		ch.IsArticle = true
		bundle.Chapters = append(bundle.Chapters, ch)
	case story.URL != "":
		bundle.Chapters = append(bundle.Chapters, linkOnlyChapter(story))
	}
}

func linkOnlyChapter(story *hnItem) *folio.Chapter {
	html := fmt.Sprintf(`<h1>%s</h1><p><a href="%s">%s</a></p>`, story.Title, story.URL, story.URL)
	ch := newChapter(story.Title, "article.xhtml", html)
	ch.IsArticle = true
	return ch
}

// fetchComments fetches the subtrees rooted at ids in parallel, preserving
// the API's ordering. Deleted and dead comments are dropped along with their
// descendants, matching what the site itself shows.
func (d *HackerNews) fetchComments(ctx context.Context, ids []int, depth, maxDepth int) ([]*folio.CommentNode, error) {
	if maxDepth > 0 && depth > maxDepth {
		return nil, nil
	}

	nodes := make([]*folio.CommentNode, len(ids))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(hnFetchConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			item, err := d.fetchItem(ctx, id)
			if err != nil {
				if folio.ErrorCode(err) == folio.ENOTFOUND {
					return nil
				}
				return err
			}
			if item.Deleted || item.Dead || item.Type != "comment" {
				return nil
			}
			children, err := d.fetchComments(ctx, item.Kids, depth+1, maxDepth)
			if err != nil {
				return err
			}
			nodes[i] = &folio.CommentNode{
				ID:            fmt.Sprintf("%d", item.ID),
				Author:        item.By,
				BodyHTML:      item.Text,
				TimestampUnix: item.Time,
				Children:      children,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	kept := nodes[:0]
	for _, n := range nodes {
		if n != nil {
			kept = append(kept, n)
		}
	}
	return kept, nil
}

func (d *HackerNews) fetchItem(ctx context.Context, id int) (*hnItem, error) {
	res, err := d.Engine.Fetcher.Fetch(ctx, fmt.Sprintf(hnItemURL, id), folio.FetchOptions{Kind: folio.PayloadBytes})
	if err != nil {
		return nil, err
	}
	body := strings.TrimSpace(string(res.Body))
	if body == "" || body == "null" {
		return nil, folio.Errorf(folio.ENOTFOUND, "item %d not found", id)
	}
	var item hnItem
	if err := json.Unmarshal([]byte(body), &item); err != nil {
		return nil, folio.Errorf(folio.EINTERNAL, "decode item %d: %v", id, err)
	}
	return &item, nil
}

// hnItemID extracts the numeric item id from an item page URL.
func hnItemID(rawURL string) (int, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return 0, folio.Errorf(folio.EINVALID, "invalid url %q", rawURL)
	}
	raw := u.Query().Get("id")
	if raw == "" {
		return 0, folio.Errorf(folio.EINVALID, "no item id in %q", rawURL)
	}
	var id int
	if _, err := fmt.Sscanf(raw, "%d", &id); err != nil || id <= 0 {
		return 0, folio.Errorf(folio.EINVALID, "invalid item id %q", raw)
	}
	return id, nil
}
