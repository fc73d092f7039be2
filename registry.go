package folio

import "strings"

// Sniffer inspects fetched page markup and returns the name of the driver
// that should handle it, or "" if it cannot tell.
type Sniffer func(html string) string

type hostRule struct {
	substr string
	driver string
}

// Registry maps a source descriptor to the driver that should handle it.
// It is an explicit value constructed once during initialization and passed
// by reference into dispatch calls; there are no global driver singletons.
//
// Dispatch order: site-profile alias, explicit forum flag, host match,
// content sniffing, fallback.
type Registry struct {
	drivers  map[string]Driver
	hosts    []hostRule
	sniffers []Sniffer
	fallback Driver
}

// NewRegistry creates a Registry that dispatches to fallback when nothing
// more specific matches.
func NewRegistry(fallback Driver) *Registry {
	return &Registry{
		drivers:  make(map[string]Driver),
		fallback: fallback,
	}
}

// Register adds a driver under its name plus any aliases.
// Registering an existing name replaces the previous driver.
func (r *Registry) Register(d Driver, aliases ...string) {
	r.drivers[strings.ToLower(d.Name())] = d
	for _, alias := range aliases {
		r.drivers[strings.ToLower(alias)] = d
	}
}

// RegisterHost routes URLs whose host contains substr to the named driver.
// Rules are evaluated in registration order.
func (r *Registry) RegisterHost(substr, driver string) {
	r.hosts = append(r.hosts, hostRule{substr: strings.ToLower(substr), driver: strings.ToLower(driver)})
}

// RegisterSniffer adds a content sniffer consulted when no host rule matches
// and the source carries pre-fetched markup.
func (r *Registry) RegisterSniffer(s Sniffer) {
	r.sniffers = append(r.sniffers, s)
}

// Get returns the driver registered under name, or nil.
func (r *Registry) Get(name string) Driver {
	return r.drivers[strings.ToLower(name)]
}

// Resolve picks the driver for a source. A profile's driver alias wins;
// unknown aliases fall through to host matching and sniffing.
func (r *Registry) Resolve(src *Source, profile *SiteProfile) Driver {
	if profile != nil && profile.DriverAlias != "" {
		if d := r.Get(profile.DriverAlias); d != nil {
			return d
		}
	}

	if src.IsForum {
		if d := r.Get("forum"); d != nil {
			return d
		}
	}

	host := hostOf(src.URL)
	for _, rule := range r.hosts {
		if strings.Contains(host, rule.substr) {
			if d := r.drivers[rule.driver]; d != nil {
				return d
			}
		}
	}

	if src.HTML != "" {
		for _, sniff := range r.sniffers {
			if name := sniff(src.HTML); name != "" {
				if d := r.Get(name); d != nil {
					return d
				}
			}
		}
	}

	return r.fallback
}

func hostOf(rawURL string) string {
	u := strings.ToLower(rawURL)
	u = strings.TrimPrefix(u, "https://")
	u = strings.TrimPrefix(u, "http://")
	if i := strings.IndexByte(u, '/'); i >= 0 {
		u = u[:i]
	}
	return u
}
