package main

import (
	"fmt"
	"strings"
)

// Run executes the profiles command.
func (c *ProfilesCmd) Run(deps *Dependencies) error {
	if deps.Profiles.Len() == 0 {
		fmt.Fprintln(deps.Stdout, "no profiles configured")
		return nil
	}
	for _, p := range deps.Profiles.All() {
		driver := p.DriverAlias
		if driver == "" {
			driver = "auto"
		}
		fmt.Fprintf(deps.Stdout, "%s\t%s\t%s\n", p.Name, driver, strings.Join(p.DomainPatterns, ", "))
	}
	return nil
}
