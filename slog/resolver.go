package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/foliotools/folio"
)

// Ensure LoggingAssetResolver implements folio.AssetResolver.
var _ folio.AssetResolver = (*LoggingAssetResolver)(nil)

// LoggingAssetResolver wraps an AssetResolver with per-image logging.
type LoggingAssetResolver struct {
	next   folio.AssetResolver
	logger *slog.Logger
}

// NewLoggingAssetResolver creates a new LoggingAssetResolver.
func NewLoggingAssetResolver(next folio.AssetResolver, logger *slog.Logger) *LoggingAssetResolver {
	return &LoggingAssetResolver{next: next, logger: logger}
}

// Resolve delegates to the wrapped resolver and logs the outcome.
func (r *LoggingAssetResolver) Resolve(ctx context.Context, ref folio.ImageRef, baseURL string, assets *folio.AssetSet) (asset *folio.Asset, err error) {
	defer func(begin time.Time) {
		attrs := []any{
			"src", ref.Src,
			"duration", time.Since(begin),
			"err", err,
		}
		if asset != nil {
			attrs = append(attrs, "filename", asset.Filename, "bytes", len(asset.Content))
		}
		r.logger.Debug("resolve image", attrs...)
	}(time.Now())
	return r.next.Resolve(ctx, ref, baseURL, assets)
}
