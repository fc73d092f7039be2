package rod

import (
	"context"
	"sync"

	"github.com/foliotools/folio"
	"github.com/go-rod/rod/lib/proto"
)

// Ensure Transport implements folio.Transport at compile time.
var _ folio.Transport = (*Transport)(nil)

// Transport fetches rendered page markup through a headless browser. It only
// produces HTML payloads, so the gateway skips it for binary requests. The
// browser is launched lazily on first use; sources that never need rendering
// pay nothing.
type Transport struct {
	mu      sync.Mutex
	manager *BrowserManager
	opts    []ManagerOption
}

// NewTransport creates a browser transport. The browser itself is not
// launched until the first Do call.
func NewTransport(opts ...ManagerOption) *Transport {
	return &Transport{opts: opts}
}

// Name identifies the transport in logs.
func (t *Transport) Name() string { return "browser" }

// Kinds reports that this transport only yields rendered HTML.
func (t *Transport) Kinds() []folio.PayloadKind {
	return []folio.PayloadKind{folio.PayloadHTML}
}

// Do navigates to the URL and returns the rendered markup. A page that loads
// is reported as status 200; navigation and rendering failures come back as
// EUNAVAILABLE.
func (t *Transport) Do(ctx context.Context, url string, opts folio.FetchOptions) (*folio.FetchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	manager, err := t.browserManager()
	if err != nil {
		return nil, folio.Errorf(folio.EUNAVAILABLE, "browser unavailable: %v", err)
	}

	page, err := manager.Browser().Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, folio.Errorf(folio.EUNAVAILABLE, "browser page: %v", err)
	}
	defer page.Close()

	page = page.Context(ctx)

	if err := page.Navigate(url); err != nil {
		return nil, folio.Errorf(folio.EUNAVAILABLE, "navigate %s: %v", url, err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, folio.Errorf(folio.EUNAVAILABLE, "waiting for %s: %v", url, err)
	}

	html, err := page.HTML()
	if err != nil {
		return nil, folio.Errorf(folio.EUNAVAILABLE, "rendering %s: %v", url, err)
	}
	manager.IncrementPageCount()

	finalURL := url
	if info, err := page.Info(); err == nil && info.URL != "" {
		finalURL = info.URL
	}

	return &folio.FetchResult{
		StatusCode: 200,
		Body:       []byte(html),
		FinalURL:   finalURL,
	}, nil
}

// Close shuts down the browser if it was ever launched.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.manager == nil {
		return nil
	}
	return t.manager.Close()
}

func (t *Transport) browserManager() (*BrowserManager, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.manager != nil {
		return t.manager, nil
	}
	manager, err := NewBrowserManager(t.opts...)
	if err != nil {
		return nil, err
	}
	t.manager = manager
	return manager, nil
}
