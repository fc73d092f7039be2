package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/foliotools/folio"
	"github.com/foliotools/folio/bundle"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx     context.Context
	Stdout  io.Writer
	Stderr  io.Writer
	Logger  *slog.Logger
	Builder *bundle.Builder

	// Profiles is available to commands that inspect configuration without
	// building anything.
	Profiles *folio.ProfileSet
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Fetch    FetchCmd    `cmd:"" default:"withargs" help:"Fetch sources and write bundles"`
	Profiles ProfilesCmd `cmd:"" help:"List configured site profiles"`
}

// FetchCmd is the "fetch" subcommand.
type FetchCmd struct {
	URLs []string `arg:"" help:"Source URLs to convert"`

	Output   string `short:"o" default:"." help:"Output directory"`
	Driver   string `short:"d" help:"Force a driver (generic, forum, hackernews, youtube)"`
	Markdown bool   `short:"m" help:"Also produce a markdown export"`
	Summary  bool   `short:"s" help:"Prepend a generated summary (requires GEMINI_API_KEY)"`
	Archive  bool   `help:"Fetch through the most recent archive.org snapshot"`
	Browser  bool   `help:"Enable the headless-browser transport for JS-heavy pages"`

	NoArticle  bool `help:"Skip the linked article on discussion sources"`
	NoComments bool `help:"Skip comment chapters"`
	NoImages   bool `help:"Skip image embedding"`

	MaxDepth int `help:"Cap comment nesting depth (0 = unlimited)"`
	MaxPages int `help:"Cap forum thread pages (0 = all)"`

	Cookies  string  `type:"path" help:"Netscape-format cookie file"`
	RPS      float64 `default:"1.0" help:"Max requests per second per domain"`
	Verbose  bool    `short:"v" help:"Debug logging"`
}

// ProfilesCmd is the "profiles" subcommand.
type ProfilesCmd struct{}
