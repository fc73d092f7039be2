// Package yaml loads site-profile configuration files.
package yaml

import (
	"os"

	"github.com/foliotools/folio"
	"gopkg.in/yaml.v3"
)

type profileFile struct {
	Profiles []profileEntry `yaml:"profiles"`
}

type profileEntry struct {
	Name              string            `yaml:"name"`
	DomainPatterns    []string          `yaml:"domain_patterns"`
	Driver            string            `yaml:"driver"`
	ContentSelector   string            `yaml:"content_selector"`
	RemoveSelectors   []string          `yaml:"remove_selectors"`
	Headers           map[string]string `yaml:"headers"`
	ImageProxyPattern string            `yaml:"image_proxy_pattern"`
}

// LoadProfiles reads a profile configuration file and compiles it into a
// ProfileSet. A missing file yields an empty set, so running without
// site-specific configuration needs no flag.
func LoadProfiles(path string) (*folio.ProfileSet, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return folio.NewProfileSet()
	}
	if err != nil {
		return nil, err
	}
	return ParseProfiles(data)
}

// ParseProfiles parses profile configuration YAML into a compiled ProfileSet.
func ParseProfiles(data []byte) (*folio.ProfileSet, error) {
	var file profileFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, folio.Errorf(folio.EINVALID, "invalid profile config: %v", err)
	}

	profiles := make([]*folio.SiteProfile, 0, len(file.Profiles))
	for _, e := range file.Profiles {
		if e.Name == "" {
			return nil, folio.Errorf(folio.EINVALID, "profile missing name")
		}
		if len(e.DomainPatterns) == 0 {
			return nil, folio.Errorf(folio.EINVALID, "profile %q has no domain patterns", e.Name)
		}
		profiles = append(profiles, &folio.SiteProfile{
			Name:              e.Name,
			DomainPatterns:    e.DomainPatterns,
			DriverAlias:       e.Driver,
			ContentSelector:   e.ContentSelector,
			RemoveSelectors:   e.RemoveSelectors,
			Header:            e.Headers,
			ImageProxyPattern: e.ImageProxyPattern,
		})
	}
	return folio.NewProfileSet(profiles...)
}
