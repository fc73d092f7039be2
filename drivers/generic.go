package drivers

import (
	"context"
	"strings"

	"github.com/foliotools/folio"
	foliogoquery "github.com/foliotools/folio/goquery"
)

// blockStatuses are failed fast so the driver can fall back to an archived
// snapshot instead of burning the retry budget against a site that has
// already decided to refuse us.
var blockStatuses = []int{401, 403, 451}

// Generic builds a single-article bundle from any page: readability-style
// content extraction, image embedding and an optional generated summary.
type Generic struct {
	Engine *Engine
}

var _ folio.Driver = (*Generic)(nil)

func (d *Generic) Name() string { return "generic" }

func (d *Generic) Build(ctx context.Context, src *folio.Source, opts folio.Options) (*folio.Bundle, error) {
	profile := d.Engine.profileFor(src)

	rawHTML, finalURL, err := d.fetchPage(ctx, src, profile, opts)
	if err != nil {
		return nil, err
	}

	extracted, err := d.extract(rawHTML, profile)
	if err != nil {
		return nil, err
	}

	bundle := newBundle(extracted.Title, finalURL)
	bundle.Author = extracted.Author
	if extracted.SiteName != "" {
		bundle.Description = extracted.SiteName
	}

	content := extracted.ContentHTML
	assets := folio.NewAssetSet()
	if !opts.NoImages {
		resolver := d.Engine.newResolver(src, profile)
		resolved, err := foliogoquery.ResolveImagesConcurrent(ctx, content, finalURL, resolver, assets)
		if err != nil {
			return nil, err
		}
		content = resolved
	}

	if opts.Summary {
		if summary := d.Engine.summarize(ctx, htmlToText(content)); summary != "" {
			content = summary + content
		}
	}

	article := newChapter(extracted.Title, "article.xhtml", content)
	article.IsArticle = true
	bundle.Chapters = append(bundle.Chapters, article)
	bundle.Assets = assets.Assets()
	return bundle, nil
}

// fetchPage fetches the source page, falling back to the most recent
// archive.org snapshot when the origin blocks us or the caller forces the
// archive path.
func (d *Generic) fetchPage(ctx context.Context, src *folio.Source, profile *folio.SiteProfile, opts folio.Options) (string, string, error) {
	fetchOpts := profileOptions(profile)
	if opts.Archive {
		return d.fetchArchived(ctx, src.URL, fetchOpts)
	}
	fetchOpts.NonRetryStatuses = blockStatuses
	html, finalURL, err := d.Engine.page(ctx, src, fetchOpts)
	if err == nil {
		return html, finalURL, nil
	}
	if folio.ErrorCode(err) != folio.EBLOCKED {
		return "", "", err
	}
	d.Engine.logger().Info("origin blocked, trying archived snapshot", "url", src.URL)
	return d.fetchArchived(ctx, src.URL, fetchOpts)
}

func (d *Generic) fetchArchived(ctx context.Context, rawURL string, fetchOpts folio.FetchOptions) (string, string, error) {
	fetchOpts.Kind = folio.PayloadHTML
	res, err := d.Engine.Fetcher.Fetch(ctx, archiveSnapshotURL(rawURL), fetchOpts)
	if err != nil {
		return "", "", err
	}
	finalURL := res.FinalURL
	if finalURL == "" {
		finalURL = rawURL
	}
	return string(res.Body), finalURL, nil
}

// archiveSnapshotURL addresses the latest Wayback Machine capture of a page.
// The "2" timestamp makes the service redirect to the most recent snapshot.
func archiveSnapshotURL(rawURL string) string {
	return "https://web.archive.org/web/2/" + rawURL
}

func (d *Generic) extract(rawHTML string, profile *folio.SiteProfile) (*folio.ExtractResult, error) {
	if profile != nil && profile.ContentSelector != "" {
		return foliogoquery.ExtractWithProfile(rawHTML, profile)
	}
	return d.Engine.Extractor.Extract(rawHTML)
}

// htmlToText strips tags well enough for token counting and summarization
// input. Layout fidelity does not matter here.
func htmlToText(html string) string {
	var b strings.Builder
	inTag := false
	for _, r := range html {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
			b.WriteRune(' ')
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
