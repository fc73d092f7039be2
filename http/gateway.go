package http

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/foliotools/folio"
)

// Default retry behavior, overridable per call via folio.FetchOptions.
const (
	DefaultMaxRetries = 5
	DefaultBackoff    = 2 * time.Second
)

// Ensure Gateway implements folio.Fetcher at compile time.
var _ folio.Fetcher = (*Gateway)(nil)

// Gateway executes one logical GET across an ordered list of transport
// strategies. The first transport gets the full retry budget; each further
// transport gets exactly one attempt, to recover from sites that reject the
// primary client's fingerprint without multiplying load on sites that are
// simply down.
type Gateway struct {
	transports []folio.Transport
	jar        http.CookieJar
	maxRetries int
	backoff    time.Duration
	timeout    time.Duration
	logger     *slog.Logger
	sleep      func(ctx context.Context, d time.Duration) error
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithTransports replaces the default primary/secondary transport pair.
// Pair it with WithJar when the transports share a cookie jar, so SetCookies
// keeps working.
func WithTransports(transports ...folio.Transport) Option {
	return func(g *Gateway) { g.transports = transports }
}

// WithJar sets the cookie jar SetCookies writes into. Unnecessary when the
// gateway builds its own transports.
func WithJar(jar http.CookieJar) Option {
	return func(g *Gateway) { g.jar = jar }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) { g.logger = logger }
}

// WithMaxRetries sets the default per-transport retry ceiling.
func WithMaxRetries(n int) Option {
	return func(g *Gateway) { g.maxRetries = n }
}

// WithBackoff sets the default base backoff delay.
func WithBackoff(d time.Duration) Option {
	return func(g *Gateway) { g.backoff = d }
}

// WithTimeout sets the default per-attempt timeout.
func WithTimeout(d time.Duration) Option {
	return func(g *Gateway) { g.timeout = d }
}

// WithSleep replaces the backoff sleeper. Tests inject a recorder here so
// retry behavior is observable without real delays.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(g *Gateway) { g.sleep = sleep }
}

// NewGateway creates a Gateway. Unless WithTransports is given, it builds the
// primary/secondary client pair over a shared public-suffix cookie jar.
func NewGateway(opts ...Option) (*Gateway, error) {
	g := &Gateway{
		maxRetries: DefaultMaxRetries,
		backoff:    DefaultBackoff,
		timeout:    DefaultTimeout,
		logger:     slog.Default(),
		sleep:      sleepCtx,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.transports == nil {
		if g.jar == nil {
			jar, err := NewJar()
			if err != nil {
				return nil, err
			}
			g.jar = jar
		}
		g.transports = []folio.Transport{NewPrimaryTransport(g.jar), NewSecondaryTransport(g.jar)}
	}
	return g, nil
}

// SetCookies installs session cookies for the given URL's domain into the
// shared jar, so every transport carries them.
func (g *Gateway) SetCookies(rawURL string, cookies map[string]string) error {
	if g.jar == nil || len(cookies) == 0 {
		return nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return folio.Errorf(folio.EINVALID, "invalid cookie URL %q: %v", rawURL, err)
	}
	hc := make([]*http.Cookie, 0, len(cookies))
	for name, value := range cookies {
		hc = append(hc, &http.Cookie{Name: name, Value: value})
	}
	g.jar.SetCookies(u, hc)
	return nil
}

// Fetch runs the retry loop over each eligible transport in order.
// All expected network failures collapse to a coded error plus a diagnostic
// log; callers branch on folio.ErrorCode.
func (g *Gateway) Fetch(ctx context.Context, fetchURL string, opts folio.FetchOptions) (*folio.FetchResult, error) {
	var lastErr error
	tried := 0
	for _, transport := range g.transports {
		if !supportsKind(transport, opts.Kind) {
			continue
		}
		budget := opts.MaxRetries
		if budget <= 0 {
			budget = g.maxRetries
		}
		if tried > 0 {
			// Fallback transports get exactly one attempt.
			budget = 1
			g.logger.Debug("falling back to alternate transport",
				"transport", transport.Name(), "url", fetchURL)
		}
		tried++

		res, err := g.fetchWithRetry(ctx, transport, fetchURL, opts, budget)
		if err == nil {
			return res, nil
		}
		// Terminal statuses are not recoverable by switching fingerprints.
		switch folio.ErrorCode(err) {
		case folio.ENOTFOUND, folio.EBLOCKED:
			return nil, err
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = folio.Errorf(folio.EUNAVAILABLE, "no transport can fetch %s", fetchURL)
	}
	return nil, lastErr
}

func (g *Gateway) fetchWithRetry(ctx context.Context, transport folio.Transport, fetchURL string, opts folio.FetchOptions, maxRetries int) (*folio.FetchResult, error) {
	backoff := opts.Backoff
	if backoff <= 0 {
		backoff = g.backoff
	}
	if opts.Timeout <= 0 {
		opts.Timeout = g.timeout
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		res, err := transport.Do(ctx, fetchURL, opts)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = folio.Errorf(folio.EUNAVAILABLE, "fetch %s: %v", fetchURL, err)
			g.logger.Warn("fetch attempt failed",
				"transport", transport.Name(), "url", fetchURL,
				"attempt", attempt+1, "max", maxRetries, "err", err)
			if attempt+1 < maxRetries {
				if err := g.sleep(ctx, backoffDelay(backoff, attempt)); err != nil {
					return nil, err
				}
			}
			continue
		}

		switch {
		case res.StatusCode == http.StatusTooManyRequests:
			wait := backoffDelay(backoff, attempt)
			if ra := retryAfter(res.Header); ra > wait {
				wait = ra
			}
			lastErr = folio.Errorf(folio.ERATELIMITED, "HTTP 429 for %s", fetchURL)
			if attempt+1 < maxRetries {
				g.logger.Warn("rate limit hit, cooling down",
					"url", fetchURL, "wait", wait)
				if err := g.sleep(ctx, wait); err != nil {
					return nil, err
				}
			}
			continue

		case containsStatus(opts.NonRetryStatuses, res.StatusCode):
			g.logger.Warn("non-retryable status", "url", fetchURL, "status", res.StatusCode)
			return nil, folio.Errorf(folio.EBLOCKED, "HTTP %d for %s", res.StatusCode, fetchURL)

		case res.StatusCode == http.StatusNotFound:
			return nil, folio.Errorf(folio.ENOTFOUND, "HTTP 404 for %s", fetchURL)

		case res.StatusCode >= 400:
			g.logger.Warn("fetch returned error status",
				"url", fetchURL, "status", res.StatusCode,
				"attempt", attempt+1, "max", maxRetries)
			lastErr = folio.Errorf(folio.EUNAVAILABLE, "HTTP %d for %s", res.StatusCode, fetchURL)
			if attempt+1 < maxRetries {
				if err := g.sleep(ctx, backoffDelay(backoff, attempt)); err != nil {
					return nil, err
				}
			}
			continue
		}

		return res, nil
	}
	if lastErr == nil {
		lastErr = folio.Errorf(folio.EUNAVAILABLE, "retries exhausted for %s", fetchURL)
	}
	return nil, lastErr
}

// Close releases every transport.
func (g *Gateway) Close() error {
	var firstErr error
	for _, t := range g.transports {
		if err := t.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func supportsKind(t folio.Transport, kind folio.PayloadKind) bool {
	for _, k := range t.Kinds() {
		if k == kind {
			return true
		}
	}
	return false
}

func backoffDelay(base time.Duration, attempt int) time.Duration {
	return base * (1 << attempt)
}

// retryAfter parses a delay-seconds Retry-After header. HTTP-date values and
// garbage yield zero, falling back to exponential backoff.
func retryAfter(h http.Header) time.Duration {
	v := h.Get("Retry-After")
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func containsStatus(statuses []int, status int) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
