package mock

import (
	"context"

	"github.com/foliotools/folio"
)

var _ folio.AssetResolver = (*AssetResolver)(nil)

// AssetResolver is a mock implementation of folio.AssetResolver.
type AssetResolver struct {
	ResolveFn func(ctx context.Context, ref folio.ImageRef, baseURL string, assets *folio.AssetSet) (*folio.Asset, error)
}

func (r *AssetResolver) Resolve(ctx context.Context, ref folio.ImageRef, baseURL string, assets *folio.AssetSet) (*folio.Asset, error) {
	return r.ResolveFn(ctx, ref, baseURL, assets)
}

var _ folio.AssetCache = (*AssetCache)(nil)

// AssetCache is a mock implementation of folio.AssetCache.
type AssetCache struct {
	LookupFn func(ctx context.Context, urls []string) (*folio.Asset, error)
	StoreFn  func(ctx context.Context, asset *folio.Asset) error
	CloseFn  func() error
}

func (c *AssetCache) Lookup(ctx context.Context, urls []string) (*folio.Asset, error) {
	return c.LookupFn(ctx, urls)
}

func (c *AssetCache) Store(ctx context.Context, asset *folio.Asset) error {
	if c.StoreFn == nil {
		return nil
	}
	return c.StoreFn(ctx, asset)
}

func (c *AssetCache) Close() error {
	if c.CloseFn == nil {
		return nil
	}
	return c.CloseFn()
}
