// Package resolve turns raw image references discovered in page markup into
// deduplicated, size-bounded bundle assets.
package resolve

import (
	"context"
	"log/slog"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/foliotools/folio"
	"github.com/google/uuid"
)

// Per-reference fetch bounds. A bundle can reference hundreds of images, so a
// single stubborn host must not dominate the build.
const (
	maxCandidates  = 2
	perImageBudget = 6 * time.Second

	imageRetries = 1
	imageBackoff = 1500 * time.Millisecond
	imageTimeout = 2 * time.Second
)

// imageNonRetryStatuses fail a candidate immediately; the next candidate or
// referer variant is a better use of the budget than retrying.
var imageNonRetryStatuses = []int{400, 401, 403, 404, 451}

// Resolver resolves image references into assets. It is safe for concurrent
// use; deduplication is serialized inside the AssetSet.
type Resolver struct {
	fetcher      folio.Fetcher
	cache        folio.AssetCache
	hints        []folio.AssetHint
	proxyPattern string
	logger       *slog.Logger
}

var _ folio.AssetResolver = (*Resolver)(nil)

// Option configures a Resolver.
type Option func(*Resolver)

// WithCache consults a persistent asset cache before fetching and stores
// newly resolved assets into it.
func WithCache(cache folio.AssetCache) Option {
	return func(r *Resolver) { r.cache = cache }
}

// WithHints seeds the resolver with pre-fetched content supplied alongside
// the source. Hints are consulted before any network fetch.
func WithHints(hints []folio.AssetHint) Option {
	return func(r *Resolver) { r.hints = hints }
}

// WithProxyPattern registers a site-specific image proxy path fragment whose
// wrapped origin URL should be preferred.
func WithProxyPattern(pattern string) Option {
	return func(r *Resolver) { r.proxyPattern = pattern }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) { r.logger = logger }
}

// NewResolver creates a Resolver fetching through the given fetcher.
func NewResolver(fetcher folio.Fetcher, opts ...Option) *Resolver {
	r := &Resolver{
		fetcher: fetcher,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve turns one image reference into an asset, reusing a previously
// resolved asset when the reference denotes content already in the set.
// Lookup order is: the in-bundle set, caller-supplied hints, the persistent
// cache, then the network. Candidate URLs are tried best-first within a fixed
// time budget.
func (r *Resolver) Resolve(ctx context.Context, ref folio.ImageRef, baseURL string, assets *folio.AssetSet) (*folio.Asset, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, folio.Errorf(folio.EINVALID, "invalid base url %q: %v", baseURL, err)
	}

	candidates := BuildCandidates(ref, base, r.proxyPattern)
	if len(candidates) == 0 {
		return nil, folio.Errorf(folio.EINVALID, "no usable image reference")
	}

	if a := assets.FindByURL(candidates...); a != nil {
		assets.AddAltURLs(a, candidates...)
		return a, nil
	}

	if a := r.fromHints(candidates, assets); a != nil {
		return a, nil
	}

	if a := r.fromCache(ctx, candidates, assets); a != nil {
		return a, nil
	}

	ctx, cancel := context.WithTimeout(ctx, perImageBudget)
	defer cancel()

	limit := min(len(candidates), maxCandidates)
	var lastErr error
	for _, cand := range candidates[:limit] {
		opt, err := r.fetchCandidate(ctx, cand, baseURL)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				break
			}
			continue
		}
		asset := r.mint(cand, candidates, opt)
		asset = assets.Insert(asset)
		if r.cache != nil {
			if err := r.cache.Store(ctx, asset); err != nil {
				r.logger.Debug("asset cache store failed", "url", cand, "error", err)
			}
		}
		return asset, nil
	}
	if lastErr == nil {
		lastErr = folio.Errorf(folio.EUNAVAILABLE, "no candidate produced a usable image")
	}
	return nil, lastErr
}

// fetchCandidate fetches one candidate URL and validates the payload,
// rotating the referer on block responses: the page URL first, then the
// image's own origin, then none. Some CDNs require a matching referer and
// some reject any referer at all.
func (r *Resolver) fetchCandidate(ctx context.Context, cand, pageURL string) (*optimized, error) {
	var lastErr error
	for _, referer := range refererVariants(cand, pageURL) {
		res, err := r.fetcher.Fetch(ctx, cand, folio.FetchOptions{
			Kind:             folio.PayloadBytes,
			Referer:          referer,
			MaxRetries:       imageRetries,
			Backoff:          imageBackoff,
			Timeout:          imageTimeout,
			NonRetryStatuses: imageNonRetryStatuses,
		})
		if err != nil {
			lastErr = err
			r.logger.Debug("image fetch failed", "url", cand, "referer", referer, "error", err)
			if folio.ErrorCode(err) == folio.EBLOCKED && ctx.Err() == nil {
				continue
			}
			return nil, lastErr
		}
		opt, err := optimizeImage(res.Body)
		if err != nil {
			// The payload is not a usable image; another referer will
			// not change that.
			return nil, err
		}
		return opt, nil
	}
	return nil, lastErr
}

// refererVariants returns the referer values to try for a candidate, in
// order, with duplicates removed.
func refererVariants(cand, pageURL string) []string {
	variants := []string{pageURL}
	if u, err := url.Parse(cand); err == nil && u.Host != "" {
		origin := u.Scheme + "://" + u.Host + "/"
		if origin != pageURL {
			variants = append(variants, origin)
		}
	}
	return append(variants, "")
}

func (r *Resolver) fromHints(candidates []string, assets *folio.AssetSet) *folio.Asset {
	for _, hint := range r.hints {
		if !hintMatches(hint, candidates) {
			continue
		}
		opt, err := optimizeImage(hint.Content)
		if err != nil {
			r.logger.Debug("asset hint unusable", "urls", hint.URLs, "error", err)
			continue
		}
		asset := r.mint(candidates[0], candidates, opt)
		asset.AltURLs = appendMissing(asset.AltURLs, hint.URLs, asset.OriginURL)
		return assets.Insert(asset)
	}
	return nil
}

func hintMatches(hint folio.AssetHint, candidates []string) bool {
	for _, hu := range hint.URLs {
		for _, cand := range candidates {
			if hu == cand || folio.URLsMatch(hu, cand) {
				return true
			}
		}
	}
	return false
}

func (r *Resolver) fromCache(ctx context.Context, candidates []string, assets *folio.AssetSet) *folio.Asset {
	if r.cache == nil {
		return nil
	}
	cached, err := r.cache.Lookup(ctx, candidates)
	if err != nil {
		if folio.ErrorCode(err) != folio.ENOTFOUND {
			r.logger.Debug("asset cache lookup failed", "error", err)
		}
		return nil
	}
	asset := &folio.Asset{
		ID:          uuid.New().String(),
		Filename:    cached.Filename,
		MediaType:   cached.MediaType,
		Content:     cached.Content,
		OriginURL:   cached.OriginURL,
		AltURLs:     appendMissing(nil, candidates, cached.OriginURL),
		ContentHash: cached.ContentHash,
	}
	if asset.ContentHash == "" {
		asset.ContentHash = hashContent(asset.Content)
	}
	if asset.Filename == "" {
		asset.Filename = mintFilename(asset.OriginURL, asset.ContentHash, path.Ext(cached.Filename))
	}
	return assets.Insert(asset)
}

// mint builds a new asset from a fetched and optimized payload. The filename
// derives from the URL path basename, falling back to the content hash when
// the basename carries no information.
func (r *Resolver) mint(originURL string, candidates []string, opt *optimized) *folio.Asset {
	hash := hashContent(opt.data)
	return &folio.Asset{
		ID:          uuid.New().String(),
		Filename:    mintFilename(originURL, hash, opt.ext),
		MediaType:   opt.mediaType,
		Content:     opt.data,
		OriginURL:   originURL,
		AltURLs:     appendMissing(nil, candidates, originURL),
		ContentHash: hash,
	}
}

func hashContent(data []byte) string {
	return strconv.FormatUint(xxhash.Sum64(data), 16)
}

func mintFilename(rawURL, hash, ext string) string {
	base := ""
	if u, err := url.Parse(rawURL); err == nil {
		base = path.Base(u.Path)
		base = strings.TrimSuffix(base, path.Ext(base))
	}
	base = folio.SanitizeFilename(base)
	if len(base) < 3 || base == "untitled" {
		base = hash
	}
	return "images/" + base + ext
}

func appendMissing(dst, urls []string, skip string) []string {
	for _, u := range urls {
		if u == "" || u == skip {
			continue
		}
		dup := false
		for _, v := range dst {
			if v == u {
				dup = true
				break
			}
		}
		if !dup {
			dst = append(dst, u)
		}
	}
	return dst
}
