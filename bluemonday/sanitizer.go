// Package bluemonday sanitizes untrusted comment HTML before it is embedded
// in the output bundle.
package bluemonday

import (
	"github.com/foliotools/folio"
	"github.com/microcosm-cc/bluemonday"
)

// Ensure Sanitizer implements folio.Sanitizer at compile time.
var _ folio.Sanitizer = (*Sanitizer)(nil)

// Sanitizer strips scripts, event handlers and other active content from
// comment bodies, keeping the formatting tags discussion sites emit.
type Sanitizer struct {
	policy *bluemonday.Policy
}

// NewSanitizer creates a Sanitizer with a UGC policy extended for the markup
// found in threaded discussions: quote blocks, code, spoilers and inline
// images already rewritten to bundle assets.
func NewSanitizer() *Sanitizer {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").OnElements("blockquote", "div", "span", "pre", "code")
	p.AllowAttrs("id").OnElements("div", "span", "a")
	p.AllowAttrs("alt", "title").OnElements("img")
	p.RequireNoFollowOnLinks(false)
	p.AllowRelativeURLs(true)
	return &Sanitizer{policy: p}
}

// Sanitize returns html with unsafe markup removed.
func (s *Sanitizer) Sanitize(html string) string {
	return s.policy.Sanitize(html)
}
