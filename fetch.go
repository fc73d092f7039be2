package folio

import (
	"context"
	"net/http"
	"time"
)

// PayloadKind tells the fetch gateway what the caller intends to do with the
// response body. Transports that cannot produce a given kind (a browser
// transport only yields rendered HTML) are skipped for that request.
type PayloadKind int

const (
	// PayloadBytes requests the raw response body (images, JSON APIs).
	PayloadBytes PayloadKind = iota
	// PayloadHTML requests page markup and permits rendering transports.
	PayloadHTML
)

// FetchOptions control retry, backoff and header behavior for one logical GET.
type FetchOptions struct {
	Kind    PayloadKind
	Referer string

	// Header entries are merged over the gateway's baseline header set.
	Header http.Header

	// NonRetryStatuses fail immediately without consuming retry budget.
	// Used by callers that want to fast-fail into an alternate strategy
	// (e.g. an archived snapshot) instead of hammering a blocking site.
	NonRetryStatuses []int

	// MaxRetries bounds attempts per transport; zero means the gateway default.
	MaxRetries int

	// Backoff is the base delay; attempt n sleeps Backoff * 2^n.
	Backoff time.Duration

	// Timeout bounds a single attempt; zero means the gateway default.
	Timeout time.Duration
}

// FetchResult is the ephemeral outcome of one successful logical GET.
type FetchResult struct {
	StatusCode int
	Header     http.Header
	Body       []byte

	// FinalURL is the resolved URL after redirects.
	FinalURL string
}

// Fetcher executes one logical HTTP GET with timeout, retry, rate-limit
// cooldown and transport fallback. It is opaque to HTML, image and comment
// semantics and is reused unmodified by every caller.
//
// Expected network failures (timeouts, 4xx/5xx, exhausted retries) are
// returned as coded errors (ENOTFOUND, EBLOCKED, ERATELIMITED, EUNAVAILABLE);
// the Fetcher never panics for network conditions.
type Fetcher interface {
	Fetch(ctx context.Context, url string, opts FetchOptions) (*FetchResult, error)

	// Close releases transport resources.
	Close() error
}

// CookieSetter installs session cookies for a URL's domain so subsequent
// fetches carry them. Implemented by fetch gateways whose transports share a
// cookie jar.
type CookieSetter interface {
	SetCookies(rawURL string, cookies map[string]string) error
}

// Transport is one strategy for executing a single GET attempt. The gateway
// tries an ordered list of transports, each implementing the same contract,
// to recover from sites that reject a particular client fingerprint.
type Transport interface {
	// Name identifies the transport in logs.
	Name() string

	// Do executes one attempt. It returns the response regardless of status
	// code; status handling is the gateway's concern.
	Do(ctx context.Context, url string, opts FetchOptions) (*FetchResult, error)

	// Kinds reports which payload kinds this transport can produce.
	Kinds() []PayloadKind

	// Close releases transport resources.
	Close() error
}
