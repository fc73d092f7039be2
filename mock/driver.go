package mock

import (
	"context"

	"github.com/foliotools/folio"
)

var _ folio.Driver = (*Driver)(nil)

// Driver is a mock implementation of folio.Driver.
type Driver struct {
	NameFn  func() string
	BuildFn func(ctx context.Context, src *folio.Source, opts folio.Options) (*folio.Bundle, error)
}

func (d *Driver) Name() string {
	if d.NameFn == nil {
		return "mock"
	}
	return d.NameFn()
}

func (d *Driver) Build(ctx context.Context, src *folio.Source, opts folio.Options) (*folio.Bundle, error) {
	return d.BuildFn(ctx, src, opts)
}

var _ folio.Extractor = (*Extractor)(nil)

// Extractor is a mock implementation of folio.Extractor.
type Extractor struct {
	ExtractFn func(html string) (*folio.ExtractResult, error)
}

func (e *Extractor) Extract(html string) (*folio.ExtractResult, error) {
	return e.ExtractFn(html)
}

var _ folio.Converter = (*Converter)(nil)

// Converter is a mock implementation of folio.Converter.
type Converter struct {
	ConvertFn func(html string) (string, error)
}

func (c *Converter) Convert(html string) (string, error) {
	return c.ConvertFn(html)
}

var _ folio.Sanitizer = (*Sanitizer)(nil)

// Sanitizer is a mock implementation of folio.Sanitizer.
// The zero value passes HTML through unchanged.
type Sanitizer struct {
	SanitizeFn func(html string) string
}

func (s *Sanitizer) Sanitize(html string) string {
	if s.SanitizeFn == nil {
		return html
	}
	return s.SanitizeFn(html)
}

var _ folio.Summarizer = (*Summarizer)(nil)

// Summarizer is a mock implementation of folio.Summarizer.
type Summarizer struct {
	SummarizeFn func(ctx context.Context, text string) (string, error)
}

func (s *Summarizer) Summarize(ctx context.Context, text string) (string, error) {
	return s.SummarizeFn(ctx, text)
}

var _ folio.BundleWriter = (*BundleWriter)(nil)

// BundleWriter is a mock implementation of folio.BundleWriter.
type BundleWriter struct {
	WriteFn func(ctx context.Context, bundle *folio.Bundle) (string, error)
}

func (w *BundleWriter) Write(ctx context.Context, bundle *folio.Bundle) (string, error) {
	return w.WriteFn(ctx, bundle)
}

var _ folio.DomainLimiter = (*DomainLimiter)(nil)

// DomainLimiter is a mock implementation of folio.DomainLimiter.
// The zero value never blocks.
type DomainLimiter struct {
	WaitFn func(ctx context.Context, domain string) error
}

func (l *DomainLimiter) Wait(ctx context.Context, domain string) error {
	if l.WaitFn == nil {
		return nil
	}
	return l.WaitFn(ctx, domain)
}
