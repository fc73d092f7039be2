package bundle

import (
	"context"
	"net/url"
	"sync"

	"github.com/foliotools/folio"
	"golang.org/x/time/rate"
)

var _ folio.DomainLimiter = (*DomainLimiter)(nil)

// DomainLimiter provides per-domain rate limiting using token buckets.
// Each domain gets its own limiter, so concurrent sources on different hosts
// do not slow each other down while requests within one host stay paced.
type DomainLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      float64
}

// NewDomainLimiter creates a DomainLimiter with the given requests-per-second
// limit per domain. Burst is 1; no bursting allowed.
func NewDomainLimiter(rps float64) *DomainLimiter {
	return &DomainLimiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rps,
	}
}

// Wait blocks until the rate limit allows a request to the domain.
// Returns an error if the context is canceled before the wait completes.
func (d *DomainLimiter) Wait(ctx context.Context, domain string) error {
	d.mu.Lock()
	limiter, ok := d.limiters[domain]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(d.rps), 1)
		d.limiters[domain] = limiter
	}
	d.mu.Unlock()

	return limiter.Wait(ctx)
}

var _ folio.Fetcher = (*LimitedFetcher)(nil)

// LimitedFetcher wraps a Fetcher with per-domain rate limiting, so every
// driver and the asset resolver share one pacing policy without knowing
// about it.
type LimitedFetcher struct {
	next    folio.Fetcher
	limiter folio.DomainLimiter
}

// NewLimitedFetcher creates a LimitedFetcher.
func NewLimitedFetcher(next folio.Fetcher, limiter folio.DomainLimiter) *LimitedFetcher {
	return &LimitedFetcher{next: next, limiter: limiter}
}

// Fetch waits for the URL's domain slot, then delegates.
func (f *LimitedFetcher) Fetch(ctx context.Context, rawURL string, opts folio.FetchOptions) (*folio.FetchResult, error) {
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		if err := f.limiter.Wait(ctx, u.Host); err != nil {
			return nil, err
		}
	}
	return f.next.Fetch(ctx, rawURL, opts)
}

// Close delegates to the wrapped fetcher.
func (f *LimitedFetcher) Close() error {
	return f.next.Close()
}
