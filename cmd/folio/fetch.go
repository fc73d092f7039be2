package main

import (
	"fmt"

	"github.com/foliotools/folio"
)

// Run executes the fetch command.
func (c *FetchCmd) Run(deps *Dependencies) error {
	sources := make([]*folio.Source, 0, len(c.URLs))
	for _, u := range c.URLs {
		sources = append(sources, &folio.Source{URL: u})
	}

	opts := folio.Options{
		NoArticle:  c.NoArticle,
		NoComments: c.NoComments,
		NoImages:   c.NoImages,
		Archive:    c.Archive,
		MaxDepth:   c.MaxDepth,
		MaxPages:   c.MaxPages,
		Markdown:   c.Markdown,
		Summary:    c.Summary,
	}

	results := deps.Builder.Build(deps.Ctx, sources, opts)

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
			fmt.Fprintf(deps.Stderr, "error: %s: %s\n", res.Source.URL, folio.ErrorMessage(res.Err))
			continue
		}
		fmt.Fprintf(deps.Stdout, "%s -> %s (%d chapters, %d assets)\n",
			res.Source.URL, res.Path, len(res.Bundle.Chapters), len(res.Bundle.Assets))
	}

	if failed == len(results) && failed > 0 {
		return fmt.Errorf("all %d sources failed", failed)
	}
	if failed > 0 {
		fmt.Fprintf(deps.Stderr, "%d of %d sources failed\n", failed, len(results))
	}
	return nil
}
