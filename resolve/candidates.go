package resolve

import (
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/foliotools/folio"
)

// junkKeywords mark tracking pixels, spacers, placeholders and byline avatars
// that are never worth a network call.
var junkKeywords = []string{
	"spacer", "1x1", "transparent", "gray.gif", "pixel.gif",
	"placeholder", "loader", "blank.gif", "grey-placeholder", "gray-placeholder",
	"arc-authors", "author-bio", "avatar",
}

// IsJunk reports whether an image URL is a known placeholder, tracking pixel
// or otherwise unembeddable reference.
func IsJunk(rawURL string) bool {
	if rawURL == "" {
		return true
	}
	lower := strings.ToLower(rawURL)
	if strings.HasPrefix(lower, "data:") ||
		strings.HasPrefix(lower, "mailto:") ||
		strings.HasPrefix(lower, "javascript:") {
		return true
	}
	for _, k := range junkKeywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

var imagePathRe = regexp.MustCompile(`(?i)\.(jpe?g|png|webp|gif|svg)$`)

// resizerParams are query keys used by on-the-fly image resizers. A URL whose
// path already names an image file but carries these params is served through
// a quality-degrading proxy; the bare path is the origin.
var resizerParams = []string{"w", "q", "fit", "h", "fm"}

// UnwrapProxy recovers the origin URL from common image-proxy/resizer
// patterns. Proxies degrade quality and may block hot-linking, so the
// unwrapped origin ranks above the proxied reference. Returns "" when the URL
// does not look proxied.
func UnwrapProxy(rawURL, proxyPattern string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	q := u.Query()

	wrapped := func() string {
		for _, key := range []string{"src", "url", "original"} {
			if v := q.Get(key); v != "" {
				return v
			}
		}
		return ""
	}

	if proxyPattern != "" && strings.Contains(u.Path, proxyPattern) {
		return wrapped()
	}
	if strings.Contains(u.Path, "imrs.php") ||
		strings.Contains(u.Path, "resizer") || strings.Contains(u.Host, "resizer") ||
		strings.Contains(u.Path, "proxy") || strings.Contains(u.Host, "proxy") {
		return wrapped()
	}
	if u.Host != "" && imagePathRe.MatchString(u.Path) {
		for _, key := range resizerParams {
			if q.Has(key) {
				stripped := *u
				stripped.RawQuery = ""
				return stripped.String()
			}
		}
	}
	return ""
}

type srcsetEntry struct {
	width int
	url   string
}

// parseSrcset splits a srcset attribute into entries sorted by descending
// declared width. Entries without a width descriptor sort last.
func parseSrcset(srcset string) []srcsetEntry {
	if srcset == "" {
		return nil
	}
	var entries []srcsetEntry
	for _, part := range strings.Split(srcset, ",") {
		fields := strings.Fields(strings.TrimSpace(part))
		if len(fields) == 0 {
			continue
		}
		e := srcsetEntry{url: fields[0]}
		if len(fields) > 1 && strings.HasSuffix(fields[1], "w") {
			if w, err := strconv.Atoi(strings.TrimSuffix(fields[1], "w")); err == nil {
				e.width = w
			}
		}
		entries = append(entries, e)
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].width > entries[j].width })
	return entries
}

// stripQuery returns the URL without its query string, or "" if there was
// no query to strip.
func stripQuery(rawURL string) string {
	if i := strings.IndexByte(rawURL, '?'); i >= 0 {
		return rawURL[:i]
	}
	return ""
}

// candidateList accumulates candidate URLs preserving priority order and
// rejecting junk and duplicates.
type candidateList struct {
	urls []string
	seen map[string]struct{}
}

func newCandidateList() *candidateList {
	return &candidateList{seen: make(map[string]struct{})}
}

func (l *candidateList) add(u string) {
	if u == "" || IsJunk(u) {
		return
	}
	if _, dup := l.seen[u]; dup {
		return
	}
	l.seen[u] = struct{}{}
	l.urls = append(l.urls, u)
}

// BuildCandidates produces the ordered candidate URL list for one image
// reference: unwrapped proxy origin first, then the direct reference, then
// srcset entries by descending declared width (each also in query-stripped
// form), then the query-stripped direct reference. All URLs are resolved
// against base. The order is a priority list, not a set.
func BuildCandidates(ref folio.ImageRef, base *url.URL, proxyPattern string) []string {
	resolve := func(raw string) string {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return ""
		}
		u, err := url.Parse(raw)
		if err != nil {
			return ""
		}
		return base.ResolveReference(u).String()
	}

	direct := ""
	for _, raw := range []string{ref.Src, ref.DataSrc, ref.DataURL, ref.DataLazy} {
		if raw != "" && !IsJunk(raw) {
			direct = resolve(raw)
			break
		}
	}

	l := newCandidateList()
	if direct != "" {
		if origin := UnwrapProxy(direct, proxyPattern); origin != "" {
			l.add(origin)
		}
		l.add(direct)
	}

	for _, srcset := range []string{ref.DataSrcset, ref.Srcset} {
		for _, e := range parseSrcset(srcset) {
			cand := resolve(e.url)
			if cand == "" {
				continue
			}
			if origin := UnwrapProxy(cand, proxyPattern); origin != "" {
				l.add(origin)
			}
			l.add(cand)
			l.add(stripQuery(cand))
		}
	}

	if ref.LinkHref != "" {
		l.add(resolve(ref.LinkHref))
	}
	if direct != "" {
		l.add(stripQuery(direct))
	}
	return l.urls
}
