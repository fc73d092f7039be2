package http_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/foliotools/folio"
	foliohttp "github.com/foliotools/folio/http"
	"github.com/foliotools/folio/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sleepRecorder collects backoff delays instead of sleeping.
type sleepRecorder struct {
	delays []time.Duration
}

func (r *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return nil
}

func newGateway(t *testing.T, opts ...foliohttp.Option) *foliohttp.Gateway {
	t.Helper()
	g, err := foliohttp.NewGateway(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = g.Close() })
	return g
}

func TestGateway_Fetch(t *testing.T) {
	t.Parallel()

	t.Run("returns body, status and final URL after redirect", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("/start", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/end", http.StatusFound)
		})
		mux.HandleFunc("/end", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("payload"))
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		g := newGateway(t)
		res, err := g.Fetch(context.Background(), server.URL+"/start", folio.FetchOptions{})
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, res.StatusCode)
		assert.Equal(t, []byte("payload"), res.Body)
		assert.Equal(t, server.URL+"/end", res.FinalURL)
	})

	t.Run("sends baseline headers with caller overrides and referer", func(t *testing.T) {
		t.Parallel()

		var got http.Header
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = r.Header.Clone()
		}))
		defer server.Close()

		g := newGateway(t)
		extra := make(http.Header)
		extra.Set("Accept", "image/avif,image/webp,image/*,*/*;q=0.8")
		_, err := g.Fetch(context.Background(), server.URL, folio.FetchOptions{
			Referer: "https://example.com/page",
			Header:  extra,
		})
		require.NoError(t, err)

		assert.Contains(t, got.Get("User-Agent"), "Mozilla/5.0")
		assert.Equal(t, "image/avif,image/webp,image/*,*/*;q=0.8", got.Get("Accept"))
		assert.Equal(t, "https://example.com/page", got.Get("Referer"))
		assert.Equal(t, "en-US,en;q=0.5", got.Get("Accept-Language"))
	})

	t.Run("429 waits at least the Retry-After and exhausts retries", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			attempts.Add(1)
			w.Header().Set("Retry-After", "5")
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		rec := &sleepRecorder{}
		g := newGateway(t, foliohttp.WithSleep(rec.sleep))
		_, err := g.Fetch(context.Background(), server.URL, folio.FetchOptions{
			MaxRetries: 3,
			Backoff:    100 * time.Millisecond,
		})

		require.Error(t, err)
		assert.Equal(t, folio.ERATELIMITED, folio.ErrorCode(err))
		// Full budget on the primary plus the single fallback attempt.
		assert.Equal(t, int32(4), attempts.Load())
		// No cooldown after the last attempt of either transport: the
		// primary's 3 attempts sleep twice, the fallback's single
		// attempt not at all.
		require.Len(t, rec.delays, 2)
		for _, d := range rec.delays {
			assert.GreaterOrEqual(t, d, 5*time.Second)
		}
	})

	t.Run("non-retryable status fails after exactly one attempt with no sleep", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			attempts.Add(1)
			w.WriteHeader(http.StatusForbidden)
		}))
		defer server.Close()

		rec := &sleepRecorder{}
		g := newGateway(t, foliohttp.WithSleep(rec.sleep))
		_, err := g.Fetch(context.Background(), server.URL, folio.FetchOptions{
			NonRetryStatuses: []int{http.StatusForbidden},
			MaxRetries:       5,
		})

		require.Error(t, err)
		assert.Equal(t, folio.EBLOCKED, folio.ErrorCode(err))
		assert.Equal(t, int32(1), attempts.Load())
		assert.Empty(t, rec.delays)
	})

	t.Run("404 is terminal and never retried", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			attempts.Add(1)
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		g := newGateway(t, foliohttp.WithSleep((&sleepRecorder{}).sleep))
		_, err := g.Fetch(context.Background(), server.URL, folio.FetchOptions{MaxRetries: 5})

		require.Error(t, err)
		assert.Equal(t, folio.ENOTFOUND, folio.ErrorCode(err))
		assert.Equal(t, int32(1), attempts.Load())
	})

	t.Run("5xx retries with exponential backoff then gives up", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			attempts.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		rec := &sleepRecorder{}
		g := newGateway(t, foliohttp.WithSleep(rec.sleep))
		_, err := g.Fetch(context.Background(), server.URL, folio.FetchOptions{
			MaxRetries: 3,
			Backoff:    time.Second,
		})

		require.Error(t, err)
		assert.Equal(t, folio.EUNAVAILABLE, folio.ErrorCode(err))
		assert.Equal(t, int32(4), attempts.Load(), "3 primary attempts + 1 fallback")
		require.Len(t, rec.delays, 2, "no sleep after the final attempt")
		assert.Equal(t, time.Second, rec.delays[0])
		assert.Equal(t, 2*time.Second, rec.delays[1])
	})

	t.Run("retries on mid-flight server recovery", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if attempts.Add(1) < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			_, _ = w.Write([]byte("recovered"))
		}))
		defer server.Close()

		g := newGateway(t, foliohttp.WithSleep((&sleepRecorder{}).sleep))
		res, err := g.Fetch(context.Background(), server.URL, folio.FetchOptions{MaxRetries: 5})
		require.NoError(t, err)
		assert.Equal(t, []byte("recovered"), res.Body)
	})

	t.Run("falls back to the next transport exactly once", func(t *testing.T) {
		t.Parallel()

		var primaryAttempts, secondaryAttempts atomic.Int32
		primary := &mock.Transport{
			NameFn:  func() string { return "primary" },
			KindsFn: func() []folio.PayloadKind { return []folio.PayloadKind{folio.PayloadBytes, folio.PayloadHTML} },
			DoFn: func(ctx context.Context, url string, opts folio.FetchOptions) (*folio.FetchResult, error) {
				primaryAttempts.Add(1)
				return &folio.FetchResult{StatusCode: http.StatusBadGateway, FinalURL: url}, nil
			},
		}
		secondary := &mock.Transport{
			NameFn:  func() string { return "secondary" },
			KindsFn: func() []folio.PayloadKind { return []folio.PayloadKind{folio.PayloadBytes, folio.PayloadHTML} },
			DoFn: func(ctx context.Context, url string, opts folio.FetchOptions) (*folio.FetchResult, error) {
				secondaryAttempts.Add(1)
				return &folio.FetchResult{StatusCode: http.StatusOK, Body: []byte("ok"), FinalURL: url}, nil
			},
		}

		g := newGateway(t,
			foliohttp.WithTransports(primary, secondary),
			foliohttp.WithSleep((&sleepRecorder{}).sleep))

		res, err := g.Fetch(context.Background(), "https://blocked.example/", folio.FetchOptions{MaxRetries: 2})
		require.NoError(t, err)
		assert.Equal(t, []byte("ok"), res.Body)
		assert.Equal(t, int32(2), primaryAttempts.Load())
		assert.Equal(t, int32(1), secondaryAttempts.Load())
	})

	t.Run("skips transports that cannot produce the payload kind", func(t *testing.T) {
		t.Parallel()

		htmlOnly := &mock.Transport{
			NameFn:  func() string { return "browser" },
			KindsFn: func() []folio.PayloadKind { return []folio.PayloadKind{folio.PayloadHTML} },
			DoFn: func(ctx context.Context, url string, opts folio.FetchOptions) (*folio.FetchResult, error) {
				t.Fatal("browser transport must not be used for bytes")
				return nil, nil
			},
		}

		g := newGateway(t, foliohttp.WithTransports(htmlOnly))
		_, err := g.Fetch(context.Background(), "https://example.com/x.jpg", folio.FetchOptions{Kind: folio.PayloadBytes})
		require.Error(t, err)
		assert.Equal(t, folio.EUNAVAILABLE, folio.ErrorCode(err))
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(100 * time.Millisecond)
		}))
		defer server.Close()

		g := newGateway(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := g.Fetch(ctx, server.URL, folio.FetchOptions{})
		require.Error(t, err)
	})
}

func TestGateway_SetCookies(t *testing.T) {
	t.Parallel()

	t.Run("writes into the jar shared with caller-built transports", func(t *testing.T) {
		t.Parallel()

		var got string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if c, err := r.Cookie("session"); err == nil {
				got = c.Value
			}
		}))
		defer server.Close()

		jar, err := foliohttp.NewJar()
		require.NoError(t, err)

		g := newGateway(t,
			foliohttp.WithTransports(foliohttp.NewPrimaryTransport(jar)),
			foliohttp.WithJar(jar),
		)
		require.NoError(t, g.SetCookies(server.URL, map[string]string{"session": "s3cr3t"}))

		_, err = g.Fetch(context.Background(), server.URL, folio.FetchOptions{})
		require.NoError(t, err)
		assert.Equal(t, "s3cr3t", got)
	})

	t.Run("rejects an unparseable url", func(t *testing.T) {
		t.Parallel()

		g := newGateway(t)
		err := g.SetCookies("://not-a-url", map[string]string{"k": "v"})
		require.Error(t, err)
		assert.Equal(t, folio.EINVALID, folio.ErrorCode(err))
	})
}

func TestLoadCookieFile(t *testing.T) {
	t.Parallel()

	t.Run("parses Netscape format and serves cookies to requests", func(t *testing.T) {
		t.Parallel()

		var got string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if c, err := r.Cookie("session"); err == nil {
				got = c.Value
			}
		}))
		defer server.Close()

		serverURL := server.URL
		host := serverURL[len("http://"):]
		content := "# Netscape HTTP Cookie File\n" +
			host + "\tFALSE\t/\tFALSE\t0\tsession\tabc123\n" +
			"malformed line\n"
		path := filepath.Join(t.TempDir(), "cookies.txt")
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		jar, err := foliohttp.NewJar()
		require.NoError(t, err)
		require.NoError(t, foliohttp.LoadCookieFile(jar, path))

		g := newGateway(t, foliohttp.WithTransports(foliohttp.NewPrimaryTransport(jar)))
		_, err = g.Fetch(context.Background(), serverURL, folio.FetchOptions{})
		require.NoError(t, err)
		assert.Equal(t, "abc123", got)
	})

	t.Run("missing file is not an error", func(t *testing.T) {
		t.Parallel()

		jar, err := foliohttp.NewJar()
		require.NoError(t, err)
		assert.NoError(t, foliohttp.LoadCookieFile(jar, filepath.Join(t.TempDir(), "absent.txt")))
	})
}
