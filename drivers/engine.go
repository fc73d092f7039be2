// Package drivers implements the closed set of source drivers: generic
// articles, Hacker News discussions, forum threads and YouTube transcripts.
// Every driver calls into the same acquisition engine; none reimplements
// fetching, image resolution or comment enrichment.
package drivers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/foliotools/folio"
	"github.com/foliotools/folio/resolve"
	folioslog "github.com/foliotools/folio/slog"
	"github.com/google/uuid"
)

// Engine bundles the services shared by all drivers.
type Engine struct {
	Fetcher    folio.Fetcher
	Extractor  folio.Extractor
	Sanitizer  folio.Sanitizer
	Summarizer folio.Summarizer
	Cache      folio.AssetCache
	Profiles   *folio.ProfileSet
	Logger     *slog.Logger
}

func (e *Engine) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

// page returns the source markup, fetching it when the caller did not supply
// pre-fetched HTML. The returned URL is the final URL after redirects.
func (e *Engine) page(ctx context.Context, src *folio.Source, opts folio.FetchOptions) (string, string, error) {
	if src.HTML != "" {
		return src.HTML, src.URL, nil
	}
	opts.Kind = folio.PayloadHTML
	res, err := e.Fetcher.Fetch(ctx, src.URL, opts)
	if err != nil {
		return "", "", err
	}
	finalURL := res.FinalURL
	if finalURL == "" {
		finalURL = src.URL
	}
	return string(res.Body), finalURL, nil
}

// newResolver builds the per-source asset resolver: caller-supplied hints,
// the persistent cache and the site profile's proxy pattern all flow in here.
func (e *Engine) newResolver(src *folio.Source, profile *folio.SiteProfile) folio.AssetResolver {
	opts := []resolve.Option{
		resolve.WithHints(src.Hints),
		resolve.WithLogger(e.logger()),
	}
	if e.Cache != nil {
		opts = append(opts, resolve.WithCache(e.Cache))
	}
	if profile != nil && profile.ImageProxyPattern != "" {
		opts = append(opts, resolve.WithProxyPattern(profile.ImageProxyPattern))
	}
	return folioslog.NewLoggingAssetResolver(resolve.NewResolver(e.Fetcher, opts...), e.logger())
}

// profileOptions seeds fetch options with the profile's extra headers.
func profileOptions(profile *folio.SiteProfile) folio.FetchOptions {
	var opts folio.FetchOptions
	if profile == nil || len(profile.Header) == 0 {
		return opts
	}
	opts.Header = make(http.Header, len(profile.Header))
	for name, value := range profile.Header {
		opts.Header.Set(name, value)
	}
	return opts
}

// profileFor returns the site profile matching the source, or nil.
func (e *Engine) profileFor(src *folio.Source) *folio.SiteProfile {
	return e.Profiles.Match(src.URL)
}

// summarize produces the optional summary chapter markup, or "" when
// summarization is unavailable or fails. A summary failure never fails the
// bundle.
func (e *Engine) summarize(ctx context.Context, text string) string {
	if e.Summarizer == nil || strings.TrimSpace(text) == "" {
		return ""
	}
	summary, err := e.Summarizer.Summarize(ctx, text)
	if err != nil {
		e.logger().Warn("summary failed", "error", err)
		return ""
	}
	var b strings.Builder
	b.WriteString(`<div class="summary"><h2>Summary</h2>`)
	for _, para := range strings.Split(summary, "\n\n") {
		para = strings.TrimSpace(para)
		if para != "" {
			b.WriteString("<p>" + para + "</p>")
		}
	}
	b.WriteString("</div>")
	return b.String()
}

func newBundle(title, sourceURL string) *folio.Bundle {
	return &folio.Bundle{
		UID:       uuid.New().String(),
		Title:     title,
		Language:  "en",
		SourceURL: sourceURL,
	}
}

func newChapter(title, filename, html string) *folio.Chapter {
	return &folio.Chapter{
		UID:      uuid.New().String(),
		Title:    title,
		Filename: filename,
		HTML:     html,
	}
}
