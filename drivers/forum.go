package drivers

import (
	"context"

	"github.com/foliotools/folio"
	"github.com/foliotools/folio/bloom"
	foliobundle "github.com/foliotools/folio/bundle"
	foliogoquery "github.com/foliotools/folio/goquery"
)

// forumFilterCapacity sizes the pagination dedup filter. Threads are at most
// a few thousand pages; the filter is rebuilt per thread.
const forumFilterCapacity = 10_000

// Forum builds a bundle from a paginated forum thread. The thread starter
// becomes the article chapter and the remaining posts become a flat comment
// chapter, page after page until the last page, a repeat page or the
// configured page cap.
type Forum struct {
	Engine *Engine
}

var _ folio.Driver = (*Forum)(nil)

func (d *Forum) Name() string { return "forum" }

func (d *Forum) Build(ctx context.Context, src *folio.Source, opts folio.Options) (*folio.Bundle, error) {
	profile := d.Engine.profileFor(src)
	resolver := d.Engine.newResolver(src, profile)
	assets := folio.NewAssetSet()

	seen := bloom.NewSeenFilter(forumFilterCapacity, 0.001)
	seen.Visit(src.URL)

	// Each post keeps the URL of the page it came from so relative image
	// references resolve against the right base.
	type pagedPost struct {
		foliogoquery.ForumPost
		base string
	}
	var (
		title string
		posts []pagedPost
	)

	pageURL := src.URL
	pageHTML := src.HTML
	for pages := 0; pageURL != ""; pages++ {
		if opts.MaxPages > 0 && pages >= opts.MaxPages {
			break
		}

		if pageHTML == "" {
			fetchOpts := profileOptions(profile)
			fetchOpts.Kind = folio.PayloadHTML
			res, err := d.Engine.Fetcher.Fetch(ctx, pageURL, fetchOpts)
			if err != nil {
				if pages == 0 {
					return nil, err
				}
				d.Engine.logger().Warn("thread page failed, stopping pagination", "url", pageURL, "error", err)
				break
			}
			pageHTML = string(res.Body)
		}

		page, err := foliogoquery.ParseForumPage(pageHTML, pageURL)
		if err != nil {
			if pages == 0 {
				return nil, err
			}
			break
		}
		if title == "" {
			title = page.Title
		}
		for _, post := range page.Posts {
			posts = append(posts, pagedPost{ForumPost: post, base: pageURL})
		}

		pageHTML = ""
		pageURL = page.NextURL
		// A next link pointing at an already visited page means the
		// site's pagination loops; stop rather than spin.
		if pageURL != "" && seen.Visit(pageURL) {
			d.Engine.logger().Warn("pagination loop detected", "url", pageURL)
			break
		}
	}
	if len(posts) == 0 {
		return nil, folio.Errorf(folio.ENOTFOUND, "thread has no posts")
	}

	bundle := newBundle(title, src.URL)
	bundle.Author = posts[0].Author

	starterHTML := posts[0].BodyHTML
	if !opts.NoImages {
		resolved, err := foliogoquery.ResolveImagesConcurrent(ctx, starterHTML, posts[0].base, resolver, assets)
		if err == nil {
			starterHTML = resolved
		}
	}
	article := newChapter(title, "article.xhtml", "<h1>"+title+"</h1>"+starterHTML)
	article.IsArticle = true
	bundle.Chapters = append(bundle.Chapters, article)

	if !opts.NoComments && len(posts) > 1 {
		roots := make([]*folio.CommentNode, 0, len(posts)-1)
		for _, post := range posts[1:] {
			body := post.BodyHTML
			if !opts.NoImages {
				if resolved, err := foliogoquery.ResolveImagesConcurrent(ctx, body, post.base, resolver, assets); err == nil {
					body = resolved
				}
			}
			roots = append(roots, &folio.CommentNode{
				ID:            post.ID,
				Author:        post.Author,
				BodyHTML:      body,
				TimestampUnix: post.TimestampUnix,
			})
		}
		comments := newChapter("Replies", "comments.xhtml", foliobundle.RenderComments(roots, d.Engine.Sanitizer, 0))
		comments.IsComments = true
		bundle.Chapters = append(bundle.Chapters, comments)
	}

	if opts.Summary {
		if summary := d.Engine.summarize(ctx, htmlToText(starterHTML)); summary != "" {
			article.HTML = summary + article.HTML
		}
	}

	bundle.Assets = assets.Assets()
	return bundle, nil
}
