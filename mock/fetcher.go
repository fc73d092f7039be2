// Package mock provides mock implementations of folio interfaces for testing.
package mock

import (
	"context"

	"github.com/foliotools/folio"
)

var _ folio.Fetcher = (*Fetcher)(nil)

// Fetcher is a mock implementation of folio.Fetcher.
type Fetcher struct {
	FetchFn func(ctx context.Context, url string, opts folio.FetchOptions) (*folio.FetchResult, error)
	CloseFn func() error
}

func (f *Fetcher) Fetch(ctx context.Context, url string, opts folio.FetchOptions) (*folio.FetchResult, error) {
	return f.FetchFn(ctx, url, opts)
}

func (f *Fetcher) Close() error {
	if f.CloseFn == nil {
		return nil
	}
	return f.CloseFn()
}

var _ folio.Transport = (*Transport)(nil)

// Transport is a mock implementation of folio.Transport.
type Transport struct {
	NameFn  func() string
	DoFn    func(ctx context.Context, url string, opts folio.FetchOptions) (*folio.FetchResult, error)
	KindsFn func() []folio.PayloadKind
	CloseFn func() error
}

func (t *Transport) Name() string {
	if t.NameFn == nil {
		return "mock"
	}
	return t.NameFn()
}

func (t *Transport) Do(ctx context.Context, url string, opts folio.FetchOptions) (*folio.FetchResult, error) {
	return t.DoFn(ctx, url, opts)
}

func (t *Transport) Kinds() []folio.PayloadKind {
	if t.KindsFn == nil {
		return []folio.PayloadKind{folio.PayloadBytes, folio.PayloadHTML}
	}
	return t.KindsFn()
}

func (t *Transport) Close() error {
	if t.CloseFn == nil {
		return nil
	}
	return t.CloseFn()
}

var _ folio.CookieSetter = (*CookieSetter)(nil)

// CookieSetter is a mock implementation of folio.CookieSetter.
// The zero value accepts cookies silently.
type CookieSetter struct {
	SetCookiesFn func(rawURL string, cookies map[string]string) error
}

func (c *CookieSetter) SetCookies(rawURL string, cookies map[string]string) error {
	if c.SetCookiesFn == nil {
		return nil
	}
	return c.SetCookiesFn(rawURL, cookies)
}
