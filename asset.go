package folio

import (
	"context"
	"fmt"
	"path"
	"regexp"
	"strings"
	"sync"
)

// Asset is a binary resource (typically an image) embedded in the output
// bundle with a unique identity and content hash.
//
// Within one bundle no two Assets share a ContentHash, Filename is unique in
// the asset namespace, and AltURLs only grows. Assets are immutable once
// created except for one-time filename-collision renaming at insert time.
type Asset struct {
	ID          string
	Filename    string
	MediaType   string
	Content     []byte
	OriginURL   string
	AltURLs     []string
	ContentHash string
}

// ImageRef is a raw image reference discovered by a driver while walking
// extracted markup. All fields are optional except that at least one URL
// source must be present for resolution to do anything.
type ImageRef struct {
	Src        string
	Srcset     string
	DataSrc    string
	DataSrcset string
	DataURL    string
	DataLazy   string

	// LinkHref is the href of an enclosing anchor, used by forum drivers
	// where the inline image is a thumbnail linking to the full attachment.
	LinkHref string
}

// AssetResolver resolves a raw image reference against a base URL into an
// Asset, deduplicating against previously resolved assets in the set.
// A failed resolution is reported as a coded error and is never fatal to the
// enclosing document; the caller simply drops the reference.
type AssetResolver interface {
	Resolve(ctx context.Context, ref ImageRef, baseURL string, assets *AssetSet) (*Asset, error)
}

// AssetCache is an optional persistent store of previously resolved assets,
// consulted as pre-seeded hints before any network fetch.
type AssetCache interface {
	// Lookup returns a cached asset matching any of the URLs (exact or
	// normalized form). Returns ENOTFOUND if no entry matches.
	Lookup(ctx context.Context, urls []string) (*Asset, error)

	// Store records a resolved asset for future runs.
	Store(ctx context.Context, asset *Asset) error

	Close() error
}

// AssetSet is the per-bundle asset collection. Lookups and inserts form a
// single serialized critical section so that concurrent resolutions of
// identical content cannot race into duplicate Assets; the fetch and
// optimization work preceding an insert stays concurrent.
type AssetSet struct {
	mu     sync.Mutex
	assets []*Asset
	byHash map[string]*Asset
	byURL  map[string]*Asset
	byName map[string]struct{}
}

// NewAssetSet creates an empty AssetSet.
func NewAssetSet() *AssetSet {
	return &AssetSet{
		byHash: make(map[string]*Asset),
		byURL:  make(map[string]*Asset),
		byName: make(map[string]struct{}),
	}
}

// FindByURL returns the asset known under any of the given URLs, either
// exactly or in normalized form. Returns nil if none match.
func (s *AssetSet) FindByURL(urls ...string) *Asset {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findByURL(urls)
}

func (s *AssetSet) findByURL(urls []string) *Asset {
	for _, u := range urls {
		if u == "" {
			continue
		}
		if a, ok := s.byURL[u]; ok {
			return a
		}
		if norm := NormalizeURL(u); norm != "" {
			if a, ok := s.byURL[norm]; ok {
				return a
			}
		}
	}
	return nil
}

// FindByHash returns the asset with the given content hash, or nil.
func (s *AssetSet) FindByHash(hash string) *Asset {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byHash[hash]
}

// Insert adds an asset to the set, deduplicating by content hash. If an
// asset with the same hash already exists, the new asset's URLs are appended
// to the existing asset's alternates and the existing asset is returned.
// Otherwise the asset is inserted; a filename collision is resolved by
// appending an incrementing counter before the extension.
func (s *AssetSet) Insert(asset *Asset) *Asset {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.byHash[asset.ContentHash]; ok && asset.ContentHash != "" {
		s.recordURLs(existing, asset.OriginURL)
		s.recordURLs(existing, asset.AltURLs...)
		return existing
	}

	asset.Filename = s.uniqueFilename(asset.Filename)
	s.assets = append(s.assets, asset)
	if asset.ContentHash != "" {
		s.byHash[asset.ContentHash] = asset
	}
	s.byName[asset.Filename] = struct{}{}
	s.recordURLs(asset, asset.OriginURL)
	s.recordURLs(asset, asset.AltURLs...)
	return asset
}

// AddAltURLs records additional URLs known to denote an asset already in the
// set, so future unrelated-looking references are caught before fetching.
func (s *AssetSet) AddAltURLs(asset *Asset, urls ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recordURLs(asset, urls...)
}

// recordURLs indexes URLs (exact and normalized) and appends any that are new
// to the asset's alternate list. Caller must hold mu.
func (s *AssetSet) recordURLs(asset *Asset, urls ...string) {
	for _, u := range urls {
		if u == "" {
			continue
		}
		if _, ok := s.byURL[u]; !ok {
			s.byURL[u] = asset
			if u != asset.OriginURL && !containsString(asset.AltURLs, u) {
				asset.AltURLs = append(asset.AltURLs, u)
			}
		}
		if norm := NormalizeURL(u); norm != "" {
			if _, ok := s.byURL[norm]; !ok {
				s.byURL[norm] = asset
			}
		}
	}
}

func (s *AssetSet) uniqueFilename(name string) string {
	if _, taken := s.byName[name]; !taken {
		return name
	}
	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s_%d%s", base, i, ext)
		if _, taken := s.byName[candidate]; !taken {
			return candidate
		}
	}
}

// Assets returns the assets in insertion order. Consumers address assets by
// filename or id, never by position.
func (s *AssetSet) Assets() []*Asset {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Asset, len(s.assets))
	copy(out, s.assets)
	return out
}

// Len returns the number of distinct assets in the set.
func (s *AssetSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.assets)
}

// NormalizeURL produces a canonical form for URL matching: scheme, leading
// www., query string, fragment and trailing slash stripped, lowercased.
func NormalizeURL(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	cleaned := strings.TrimPrefix(rawURL, "https://")
	cleaned = strings.TrimPrefix(cleaned, "http://")
	cleaned = strings.TrimPrefix(cleaned, "www.")
	if i := strings.IndexByte(cleaned, '?'); i >= 0 {
		cleaned = cleaned[:i]
	}
	if i := strings.IndexByte(cleaned, '#'); i >= 0 {
		cleaned = cleaned[:i]
	}
	cleaned = strings.TrimRight(cleaned, "/")
	return strings.ToLower(cleaned)
}

// URLsMatch reports whether two URLs denote the same resource after
// normalization.
func URLsMatch(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return NormalizeURL(a) == NormalizeURL(b)
}

var (
	controlRe    = regexp.MustCompile(`[\x00-\x1f]`)
	unsafeRe     = regexp.MustCompile(`[<>:"/\\|?*]`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// SanitizeFilename strips control and filesystem-unsafe characters and
// collapses whitespace to underscores. The result is capped at 150 runes.
func SanitizeFilename(name string) string {
	if name == "" {
		return "untitled"
	}
	out := controlRe.ReplaceAllString(name, "")
	out = unsafeRe.ReplaceAllString(out, "")
	out = whitespaceRe.ReplaceAllString(out, "_")
	out = strings.Trim(out, "_")
	if runes := []rune(out); len(runes) > 150 {
		out = string(runes[:150])
	}
	return out
}

func containsString(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
