package drivers_test

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"strings"
	"sync"
	"testing"

	"github.com/foliotools/folio"
	"github.com/foliotools/folio/drivers"
	"github.com/foliotools/folio/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := img.PixOffset(x, y)
			img.Pix[i] = uint8(x * 255 / w)
			img.Pix[i+1] = uint8(y * 255 / h)
			img.Pix[i+2] = 128
			img.Pix[i+3] = 255
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

// recordingFetcher wraps a response map and records every requested URL.
type recordingFetcher struct {
	mu   sync.Mutex
	urls []string
	opts []folio.FetchOptions

	respond func(url string) (*folio.FetchResult, error)
}

func (f *recordingFetcher) fetcher() *mock.Fetcher {
	return &mock.Fetcher{
		FetchFn: func(_ context.Context, url string, opts folio.FetchOptions) (*folio.FetchResult, error) {
			f.mu.Lock()
			f.urls = append(f.urls, url)
			f.opts = append(f.opts, opts)
			f.mu.Unlock()
			return f.respond(url)
		},
	}
}

func (f *recordingFetcher) requested() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.urls...)
}

func htmlPage(body string) *folio.FetchResult {
	return &folio.FetchResult{StatusCode: 200, Body: []byte(body)}
}

func TestGeneric_Build(t *testing.T) {
	t.Parallel()

	extractor := &mock.Extractor{
		ExtractFn: func(html string) (*folio.ExtractResult, error) {
			return &folio.ExtractResult{
				Title:       "On Testing",
				Author:      "Ada",
				ContentHTML: "<p>Body text.</p>",
			}, nil
		},
	}

	t.Run("builds article bundle", func(t *testing.T) {
		t.Parallel()
		rf := &recordingFetcher{respond: func(url string) (*folio.FetchResult, error) {
			return htmlPage("<html><body><p>raw</p></body></html>"), nil
		}}
		d := &drivers.Generic{Engine: &drivers.Engine{Fetcher: rf.fetcher(), Extractor: extractor}}

		bundle, err := d.Build(context.Background(), &folio.Source{URL: "https://example.com/post"}, folio.Options{})
		require.NoError(t, err)
		assert.Equal(t, "On Testing", bundle.Title)
		assert.Equal(t, "Ada", bundle.Author)
		require.Len(t, bundle.Chapters, 1)
		assert.True(t, bundle.Chapters[0].IsArticle)
		assert.Contains(t, bundle.Chapters[0].HTML, "Body text.")
		assert.NotEmpty(t, bundle.UID)
	})

	t.Run("embeds images from the content", func(t *testing.T) {
		t.Parallel()
		jpegData := testJPEG(t, 64, 64)
		rf := &recordingFetcher{respond: func(url string) (*folio.FetchResult, error) {
			if strings.HasSuffix(url, ".jpg") {
				return &folio.FetchResult{StatusCode: 200, Body: jpegData}, nil
			}
			return htmlPage("<html></html>"), nil
		}}
		withImage := &mock.Extractor{
			ExtractFn: func(string) (*folio.ExtractResult, error) {
				return &folio.ExtractResult{
					Title:       "Pics",
					ContentHTML: `<p>look</p><img src="/photo.jpg">`,
				}, nil
			},
		}
		d := &drivers.Generic{Engine: &drivers.Engine{Fetcher: rf.fetcher(), Extractor: withImage}}

		bundle, err := d.Build(context.Background(), &folio.Source{URL: "https://example.com/post"}, folio.Options{})
		require.NoError(t, err)
		require.Len(t, bundle.Assets, 1)
		assert.Contains(t, bundle.Chapters[0].HTML, bundle.Assets[0].Filename)
		assert.Contains(t, rf.requested(), "https://example.com/photo.jpg")
	})

	t.Run("no-images skips image fetches", func(t *testing.T) {
		t.Parallel()
		rf := &recordingFetcher{respond: func(url string) (*folio.FetchResult, error) {
			return htmlPage("<html></html>"), nil
		}}
		withImage := &mock.Extractor{
			ExtractFn: func(string) (*folio.ExtractResult, error) {
				return &folio.ExtractResult{Title: "Pics", ContentHTML: `<img src="/photo.jpg">`}, nil
			},
		}
		d := &drivers.Generic{Engine: &drivers.Engine{Fetcher: rf.fetcher(), Extractor: withImage}}

		bundle, err := d.Build(context.Background(), &folio.Source{URL: "https://example.com/post"}, folio.Options{NoImages: true})
		require.NoError(t, err)
		assert.Empty(t, bundle.Assets)
		assert.Equal(t, []string{"https://example.com/post"}, rf.requested())
	})

	t.Run("falls back to archived snapshot when blocked", func(t *testing.T) {
		t.Parallel()
		rf := &recordingFetcher{respond: func(url string) (*folio.FetchResult, error) {
			if strings.HasPrefix(url, "https://web.archive.org/") {
				return htmlPage("<html>archived</html>"), nil
			}
			return nil, folio.Errorf(folio.EBLOCKED, "403")
		}}
		d := &drivers.Generic{Engine: &drivers.Engine{Fetcher: rf.fetcher(), Extractor: extractor}}

		_, err := d.Build(context.Background(), &folio.Source{URL: "https://example.com/post"}, folio.Options{})
		require.NoError(t, err)
		require.Len(t, rf.requested(), 2)
		assert.Equal(t, "https://web.archive.org/web/2/https://example.com/post", rf.requested()[1])
		// block statuses fail fast on the origin attempt only
		assert.Contains(t, rf.opts[0].NonRetryStatuses, 403)
		assert.Empty(t, rf.opts[1].NonRetryStatuses)
	})

	t.Run("archive option skips the origin entirely", func(t *testing.T) {
		t.Parallel()
		rf := &recordingFetcher{respond: func(url string) (*folio.FetchResult, error) {
			return htmlPage("<html>archived</html>"), nil
		}}
		d := &drivers.Generic{Engine: &drivers.Engine{Fetcher: rf.fetcher(), Extractor: extractor}}

		_, err := d.Build(context.Background(), &folio.Source{URL: "https://example.com/post"}, folio.Options{Archive: true})
		require.NoError(t, err)
		assert.Equal(t, []string{"https://web.archive.org/web/2/https://example.com/post"}, rf.requested())
	})

	t.Run("profile selector takes precedence over extraction", func(t *testing.T) {
		t.Parallel()
		rf := &recordingFetcher{respond: func(url string) (*folio.FetchResult, error) {
			return htmlPage(`<html><head><title>Profiled</title></head><body>` +
				`<div class="entry"><p>keep</p><div class="ads">drop</div></div></body></html>`), nil
		}}
		profiles, err := folio.NewProfileSet(&folio.SiteProfile{
			Name:            "example",
			DomainPatterns:  []string{`example\.com`},
			ContentSelector: "div.entry",
			RemoveSelectors: []string{"div.ads"},
		})
		require.NoError(t, err)
		failing := &mock.Extractor{ExtractFn: func(string) (*folio.ExtractResult, error) {
			t.Error("generic extraction should not run")
			return nil, folio.Errorf(folio.EINTERNAL, "unexpected")
		}}
		d := &drivers.Generic{Engine: &drivers.Engine{Fetcher: rf.fetcher(), Extractor: failing, Profiles: profiles}}

		bundle, err := d.Build(context.Background(), &folio.Source{URL: "https://example.com/post"}, folio.Options{})
		require.NoError(t, err)
		assert.Contains(t, bundle.Chapters[0].HTML, "keep")
		assert.NotContains(t, bundle.Chapters[0].HTML, "drop")
	})

	t.Run("summary is prepended to the article", func(t *testing.T) {
		t.Parallel()
		rf := &recordingFetcher{respond: func(url string) (*folio.FetchResult, error) {
			return htmlPage("<html></html>"), nil
		}}
		summarizer := &mock.Summarizer{
			SummarizeFn: func(_ context.Context, text string) (string, error) {
				assert.Contains(t, text, "Body text.")
				return "Short version.", nil
			},
		}
		d := &drivers.Generic{Engine: &drivers.Engine{Fetcher: rf.fetcher(), Extractor: extractor, Summarizer: summarizer}}

		bundle, err := d.Build(context.Background(), &folio.Source{URL: "https://example.com/post"}, folio.Options{Summary: true})
		require.NoError(t, err)
		html := bundle.Chapters[0].HTML
		assert.Contains(t, html, "Short version.")
		assert.Less(t, strings.Index(html, "Short version."), strings.Index(html, "Body text."))
	})

	t.Run("summary failure does not fail the bundle", func(t *testing.T) {
		t.Parallel()
		rf := &recordingFetcher{respond: func(url string) (*folio.FetchResult, error) {
			return htmlPage("<html></html>"), nil
		}}
		summarizer := &mock.Summarizer{
			SummarizeFn: func(context.Context, string) (string, error) {
				return "", folio.Errorf(folio.EUNAVAILABLE, "model down")
			},
		}
		d := &drivers.Generic{Engine: &drivers.Engine{Fetcher: rf.fetcher(), Extractor: extractor, Summarizer: summarizer}}

		bundle, err := d.Build(context.Background(), &folio.Source{URL: "https://example.com/post"}, folio.Options{Summary: true})
		require.NoError(t, err)
		assert.Contains(t, bundle.Chapters[0].HTML, "Body text.")
	})
}
