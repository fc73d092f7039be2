// Package bloom tracks already-visited thread pages during forum pagination.
package bloom

import (
	"strings"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

// SeenFilter records visited page URLs so pagination loops terminate even
// when a thread's navigation links cycle. URLs are normalized before hashing,
// so scheme, www prefix and trailing-slash variants count as one page. The
// query string is part of the key because many forums paginate through it
// (?page=2 and ?page=3 are different pages).
// False positives are possible (a page wrongly treated as visited); false
// negatives are not, which is the safe direction for loop termination.
type SeenFilter struct {
	mu sync.Mutex
	f  *bloom.BloomFilter
}

// NewSeenFilter creates a filter sized for n expected pages with the given
// false positive rate.
func NewSeenFilter(n uint, fpRate float64) *SeenFilter {
	return &SeenFilter{
		f: bloom.NewWithEstimates(n, fpRate),
	}
}

// Visit records the URL and reports whether it had already been visited.
func (s *SeenFilter) Visit(url string) bool {
	key := pageKey(url)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.f.TestAndAddString(key)
}

// Seen reports whether the URL might have been visited, without recording it.
func (s *SeenFilter) Seen(url string) bool {
	key := pageKey(url)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.f.TestString(key)
}

// pageKey collapses scheme, www prefix, fragment and trailing-slash variants
// while keeping the query string, which often carries the page number.
func pageKey(rawURL string) string {
	cleaned := strings.TrimPrefix(rawURL, "https://")
	cleaned = strings.TrimPrefix(cleaned, "http://")
	cleaned = strings.TrimPrefix(cleaned, "www.")
	if i := strings.IndexByte(cleaned, '#'); i >= 0 {
		cleaned = cleaned[:i]
	}
	path, query, hasQuery := strings.Cut(cleaned, "?")
	path = strings.TrimRight(path, "/")
	if hasQuery {
		return strings.ToLower(path) + "?" + query
	}
	return strings.ToLower(path)
}

// EstimatedCount returns the approximate number of visited pages.
func (s *SeenFilter) EstimatedCount() uint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return uint(s.f.ApproximatedSize())
}
