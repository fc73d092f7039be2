// Package bundle orchestrates the conversion of sources into persisted
// bundles: driver dispatch, bounded source concurrency, rate limiting and
// the optional markdown export.
package bundle

import (
	"context"
	"log/slog"

	"github.com/foliotools/folio"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentSources bounds how many sources build at once. Per-image work
// inside each source fans out further; this gate keeps whole-document
// pipelines from piling up.
const maxConcurrentSources = 2

// MarkdownExporter renders a whole bundle as one markdown document.
type MarkdownExporter interface {
	ConvertBundle(bundle *folio.Bundle) (string, error)
}

// Builder converts sources into bundles and persists them.
type Builder struct {
	Registry *folio.Registry
	Profiles *folio.ProfileSet
	Writer   folio.BundleWriter
	Markdown MarkdownExporter

	// Cookies receives each source's session cookies before its driver
	// runs, so the fetch path carries them.
	Cookies folio.CookieSetter

	Logger *slog.Logger
}

// SourceResult is the outcome of building one source. A failed source has
// Err set and no bundle; siblings are unaffected.
type SourceResult struct {
	Source *folio.Source
	Bundle *folio.Bundle
	Path   string
	Err    error
}

// Build converts the sources under the concurrency gate and returns one
// result per source, in input order. A source failure is captured in its
// result; only context cancellation stops the whole run early.
func (b *Builder) Build(ctx context.Context, sources []*folio.Source, opts folio.Options) []SourceResult {
	results := make([]SourceResult, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentSources)
	for i, src := range sources {
		g.Go(func() error {
			results[i] = b.buildOne(gctx, src, opts)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (b *Builder) buildOne(ctx context.Context, src *folio.Source, opts folio.Options) SourceResult {
	result := SourceResult{Source: src}

	if len(src.Cookies) > 0 && b.Cookies != nil {
		if err := b.Cookies.SetCookies(src.URL, src.Cookies); err != nil {
			result.Err = err
			return result
		}
	}

	profile := b.Profiles.Match(src.URL)
	driver := b.Registry.Resolve(src, profile)
	if driver == nil {
		result.Err = folio.Errorf(folio.EINTERNAL, "no driver available for %s", src.URL)
		return result
	}

	bundle, err := driver.Build(ctx, src, opts)
	if err != nil {
		b.logger().Error("source failed", "url", src.URL, "driver", driver.Name(), "error", err)
		result.Err = err
		return result
	}
	result.Bundle = bundle

	if opts.Markdown && b.Markdown != nil {
		md, err := b.Markdown.ConvertBundle(bundle)
		if err != nil {
			b.logger().Warn("markdown export failed", "url", src.URL, "error", err)
		} else {
			bundle.Markdown = md
		}
	}

	if b.Writer != nil {
		path, err := b.Writer.Write(ctx, bundle)
		if err != nil {
			result.Err = err
			return result
		}
		result.Path = path
	}
	return result
}

func (b *Builder) logger() *slog.Logger {
	if b.Logger != nil {
		return b.Logger
	}
	return slog.Default()
}
