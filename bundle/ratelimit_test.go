package bundle_test

import (
	"context"
	"testing"
	"time"

	"github.com/foliotools/folio"
	"github.com/foliotools/folio/bundle"
	"github.com/foliotools/folio/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainLimiter(t *testing.T) {
	t.Parallel()

	t.Run("implements folio.DomainLimiter interface", func(t *testing.T) {
		t.Parallel()
		var _ folio.DomainLimiter = bundle.NewDomainLimiter(1)
	})

	t.Run("allows immediate request when under limit", func(t *testing.T) {
		t.Parallel()

		limiter := bundle.NewDomainLimiter(10)

		start := time.Now()
		err := limiter.Wait(context.Background(), "example.com")
		elapsed := time.Since(start)

		require.NoError(t, err)
		assert.Less(t, elapsed, 50*time.Millisecond, "first request should be immediate")
	})

	t.Run("rate limits requests to same domain", func(t *testing.T) {
		t.Parallel()

		limiter := bundle.NewDomainLimiter(10) // 100ms between requests

		err := limiter.Wait(context.Background(), "example.com")
		require.NoError(t, err)

		start := time.Now()
		err = limiter.Wait(context.Background(), "example.com")
		elapsed := time.Since(start)

		require.NoError(t, err)
		assert.GreaterOrEqual(t, elapsed, 80*time.Millisecond, "should wait for rate limit")
	})

	t.Run("different domains have independent limits", func(t *testing.T) {
		t.Parallel()

		limiter := bundle.NewDomainLimiter(10)

		err := limiter.Wait(context.Background(), "example.com")
		require.NoError(t, err)

		start := time.Now()
		err = limiter.Wait(context.Background(), "other.com")
		elapsed := time.Since(start)

		require.NoError(t, err)
		assert.Less(t, elapsed, 50*time.Millisecond, "different domain should not wait")
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		t.Parallel()

		limiter := bundle.NewDomainLimiter(1)

		err := limiter.Wait(context.Background(), "example.com")
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		err = limiter.Wait(ctx, "example.com")
		require.Error(t, err)
	})
}

func TestLimitedFetcher(t *testing.T) {
	t.Parallel()

	t.Run("waits per request domain then delegates", func(t *testing.T) {
		t.Parallel()

		var domains []string
		limiter := &mock.DomainLimiter{
			WaitFn: func(ctx context.Context, domain string) error {
				domains = append(domains, domain)
				return nil
			},
		}
		inner := &mock.Fetcher{
			FetchFn: func(ctx context.Context, url string, opts folio.FetchOptions) (*folio.FetchResult, error) {
				return &folio.FetchResult{StatusCode: 200}, nil
			},
		}

		f := bundle.NewLimitedFetcher(inner, limiter)
		_, err := f.Fetch(context.Background(), "https://example.com/a", folio.FetchOptions{})
		require.NoError(t, err)
		_, err = f.Fetch(context.Background(), "https://img.example.net/b.jpg", folio.FetchOptions{})
		require.NoError(t, err)

		assert.Equal(t, []string{"example.com", "img.example.net"}, domains)
	})

	t.Run("limiter error stops the fetch", func(t *testing.T) {
		t.Parallel()

		limiter := &mock.DomainLimiter{
			WaitFn: func(ctx context.Context, domain string) error {
				return context.Canceled
			},
		}
		var fetched bool
		inner := &mock.Fetcher{
			FetchFn: func(ctx context.Context, url string, opts folio.FetchOptions) (*folio.FetchResult, error) {
				fetched = true
				return nil, nil
			},
		}

		f := bundle.NewLimitedFetcher(inner, limiter)
		_, err := f.Fetch(context.Background(), "https://example.com/a", folio.FetchOptions{})
		require.Error(t, err)
		assert.False(t, fetched)
	})
}
