// Package slog provides logging decorators for folio interfaces.
package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/foliotools/folio"
)

// Ensure LoggingFetcher implements folio.Fetcher.
var _ folio.Fetcher = (*LoggingFetcher)(nil)

// LoggingFetcher wraps a Fetcher with per-request logging.
type LoggingFetcher struct {
	next   folio.Fetcher
	logger *slog.Logger
}

// NewLoggingFetcher creates a new LoggingFetcher.
func NewLoggingFetcher(next folio.Fetcher, logger *slog.Logger) *LoggingFetcher {
	return &LoggingFetcher{next: next, logger: logger}
}

// Fetch delegates to the wrapped fetcher and logs the outcome.
func (f *LoggingFetcher) Fetch(ctx context.Context, url string, opts folio.FetchOptions) (res *folio.FetchResult, err error) {
	defer func(begin time.Time) {
		attrs := []any{
			"url", url,
			"duration", time.Since(begin),
			"err", err,
		}
		if res != nil {
			attrs = append(attrs, "status", res.StatusCode, "bytes", len(res.Body))
			if res.FinalURL != "" && res.FinalURL != url {
				attrs = append(attrs, "final_url", res.FinalURL)
			}
		}
		f.logger.Info("fetch", attrs...)
	}(time.Now())
	return f.next.Fetch(ctx, url, opts)
}

// Close delegates to the wrapped fetcher.
func (f *LoggingFetcher) Close() error {
	return f.next.Close()
}
