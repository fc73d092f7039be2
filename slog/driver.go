package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/foliotools/folio"
)

// Ensure LoggingDriver implements folio.Driver.
var _ folio.Driver = (*LoggingDriver)(nil)

// LoggingDriver wraps a Driver with per-source logging.
type LoggingDriver struct {
	next   folio.Driver
	logger *slog.Logger
}

// NewLoggingDriver creates a new LoggingDriver.
func NewLoggingDriver(next folio.Driver, logger *slog.Logger) *LoggingDriver {
	return &LoggingDriver{next: next, logger: logger}
}

// Name delegates to the wrapped driver.
func (d *LoggingDriver) Name() string {
	return d.next.Name()
}

// Build delegates to the wrapped driver and logs the outcome.
func (d *LoggingDriver) Build(ctx context.Context, src *folio.Source, opts folio.Options) (bundle *folio.Bundle, err error) {
	defer func(begin time.Time) {
		attrs := []any{
			"driver", d.next.Name(),
			"url", src.URL,
			"duration", time.Since(begin),
			"err", err,
		}
		if bundle != nil {
			attrs = append(attrs, "chapters", len(bundle.Chapters), "assets", len(bundle.Assets))
		}
		d.logger.Info("build bundle", attrs...)
	}(time.Now())
	return d.next.Build(ctx, src, opts)
}
