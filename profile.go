package folio

import "regexp"

// SiteProfile carries per-site scraping configuration: which driver to use,
// which selectors extract or remove content, extra request headers, and the
// path marker of the site's image proxy if it has one.
type SiteProfile struct {
	Name              string
	DomainPatterns    []string
	DriverAlias       string
	ContentSelector   string
	RemoveSelectors   []string
	Header            map[string]string
	ImageProxyPattern string
}

// ProfileSet is an explicit, immutable collection of site profiles matched by
// URL. It is constructed once during initialization and passed by reference
// into dispatch; there is no global profile cache.
type ProfileSet struct {
	profiles []*SiteProfile
	patterns [][]*regexp.Regexp
}

// NewProfileSet compiles the domain patterns of the given profiles.
// Returns EINVALID if any pattern does not compile.
func NewProfileSet(profiles ...*SiteProfile) (*ProfileSet, error) {
	ps := &ProfileSet{profiles: profiles}
	for _, p := range profiles {
		var compiled []*regexp.Regexp
		for _, pattern := range p.DomainPatterns {
			re, err := regexp.Compile(pattern)
			if err != nil {
				return nil, Errorf(EINVALID, "profile %q: invalid domain pattern %q: %v", p.Name, pattern, err)
			}
			compiled = append(compiled, re)
		}
		ps.patterns = append(ps.patterns, compiled)
	}
	return ps, nil
}

// Match returns the first profile whose domain patterns match the URL, or nil.
func (ps *ProfileSet) Match(url string) *SiteProfile {
	if ps == nil {
		return nil
	}
	for i, p := range ps.profiles {
		for _, re := range ps.patterns[i] {
			if re.MatchString(url) {
				return p
			}
		}
	}
	return nil
}

// Len returns the number of profiles in the set.
func (ps *ProfileSet) Len() int {
	if ps == nil {
		return 0
	}
	return len(ps.profiles)
}

// All returns the profiles in registration order.
func (ps *ProfileSet) All() []*SiteProfile {
	if ps == nil {
		return nil
	}
	return ps.profiles
}
