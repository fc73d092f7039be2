// Package http provides the HTTP fetch gateway: one logical GET with
// retry/backoff, rate-limit cooldown and an ordered list of transport
// strategies tried in sequence.
package http

import (
	"context"
	"crypto/tls"
	"io"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/foliotools/folio"
	"golang.org/x/net/publicsuffix"
)

// DefaultTimeout bounds a single fetch attempt.
const DefaultTimeout = 45 * time.Second

// Ensure ClientTransport implements folio.Transport at compile time.
var _ folio.Transport = (*ClientTransport)(nil)

// ClientTransport executes single GET attempts through an *http.Client with a
// fixed header fingerprint. Two differently-fingerprinted instances (HTTP/2
// primary, HTTP/1.1 secondary) share one cookie jar so the fallback carries
// the same session.
type ClientTransport struct {
	name   string
	client *http.Client
	header http.Header
}

// NewJar creates a cookie jar with public-suffix-aware domain handling,
// shared across all transports of one gateway.
func NewJar() (http.CookieJar, error) {
	return cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
}

// NewPrimaryTransport creates the default HTTP/2-capable transport carrying a
// desktop browser fingerprint.
func NewPrimaryTransport(jar http.CookieJar) *ClientTransport {
	return &ClientTransport{
		name: "primary",
		client: &http.Client{
			Jar: jar,
			Transport: &http.Transport{
				ForceAttemptHTTP2:   true,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		header: browserHeader(),
	}
}

// NewSecondaryTransport creates the fallback transport with a distinct
// TLS/HTTP signature: HTTP/2 disabled so the wire fingerprint differs from
// the primary client, for sites that reject the primary's signature.
func NewSecondaryTransport(jar http.CookieJar) *ClientTransport {
	return &ClientTransport{
		name: "secondary",
		client: &http.Client{
			Jar: jar,
			Transport: &http.Transport{
				TLSNextProto:      map[string]func(string, *tls.Conn) http.RoundTripper{},
				ForceAttemptHTTP2: false,
			},
		},
		header: browserHeader(),
	}
}

func browserHeader() http.Header {
	h := make(http.Header)
	h.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	h.Set("Accept-Language", "en-US,en;q=0.5")
	return h
}

// Name identifies the transport in logs.
func (t *ClientTransport) Name() string { return t.name }

// Kinds reports that an HTTP client can produce any payload kind.
func (t *ClientTransport) Kinds() []folio.PayloadKind {
	return []folio.PayloadKind{folio.PayloadBytes, folio.PayloadHTML}
}

// Do executes one GET attempt. Responses are returned regardless of status
// code; status handling is the gateway's concern.
func (t *ClientTransport) Do(ctx context.Context, url string, opts folio.FetchOptions) (*folio.FetchResult, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	// Baseline fingerprint first, then caller overrides.
	for k, vs := range t.header {
		req.Header[k] = vs
	}
	for k, vs := range opts.Header {
		req.Header[k] = vs
	}
	if opts.Referer != "" {
		req.Header.Set("Referer", opts.Referer)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	finalURL := url
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	return &folio.FetchResult{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
		FinalURL:   finalURL,
	}, nil
}

// Close releases idle connections.
func (t *ClientTransport) Close() error {
	t.client.CloseIdleConnections()
	return nil
}
