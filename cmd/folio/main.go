package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"
	"github.com/foliotools/folio"
	"github.com/foliotools/folio/bluemonday"
	"github.com/foliotools/folio/bundle"
	"github.com/foliotools/folio/drivers"
	"github.com/foliotools/folio/fs"
	"github.com/foliotools/folio/gemini"
	foliogoquery "github.com/foliotools/folio/goquery"
	"github.com/foliotools/folio/htmltomarkdown"
	foliohttp "github.com/foliotools/folio/http"
	"github.com/foliotools/folio/rod"
	folioslog "github.com/foliotools/folio/slog"
	foliosqlite "github.com/foliotools/folio/sqlite"
	"github.com/foliotools/folio/trafilatura"
	folioyaml "github.com/foliotools/folio/yaml"
	"google.golang.org/genai"
)

// tokenizerModel is used for local token counting before summarization.
const tokenizerModel = "gemini-2.5-flash"

func main() {
	ctx := context.Background()

	m := NewMain()
	defer m.Close()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// CachePath is the asset cache database path. Set before calling Run().
	CachePath string

	// ProfilesPath is the site profiles file path. Set before calling Run().
	ProfilesPath string

	// DB backs the persistent asset cache.
	DB *foliosqlite.DB

	// Fetcher is closed with the program; it owns the browser process when
	// the rendering transport is enabled.
	Fetcher folio.Fetcher
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		CachePath:    defaultCachePath(),
		ProfilesPath: defaultProfilesPath(),
	}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	if m.Fetcher != nil {
		if err := m.Fetcher.Close(); err != nil {
			return err
		}
	}
	if m.DB != nil {
		return m.DB.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("folio"),
		kong.Description("Convert articles, discussions, forum threads and video transcripts into portable document bundles."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}),
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no URLs specified. Run 'folio --help' for usage")
	}
	if args[0] == "help" || args[0] == "--help" || args[0] == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if cli.Fetch.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	deps.Logger = logger

	profiles, err := folioyaml.LoadProfiles(m.ProfilesPath)
	if err != nil {
		return fmt.Errorf("failed to load profiles from %q: %w", m.ProfilesPath, err)
	}
	deps.Profiles = profiles

	if kongCtx.Command() != "profiles" {
		if err := m.wireBuilder(ctx, deps, &cli.Fetch, profiles, logger, stderr); err != nil {
			return err
		}
	}

	return kongCtx.Run(deps)
}

// wireBuilder assembles the full pipeline behind the fetch command: the
// transport stack, per-domain pacing, the asset cache, the driver set and the
// bundle writer.
func (m *Main) wireBuilder(ctx context.Context, deps *Dependencies, cmd *FetchCmd, profiles *folio.ProfileSet, logger *slog.Logger, stderr io.Writer) error {
	jar, err := foliohttp.NewJar()
	if err != nil {
		return fmt.Errorf("failed to create cookie jar: %w", err)
	}
	if cmd.Cookies != "" {
		if err := foliohttp.LoadCookieFile(jar, cmd.Cookies); err != nil {
			return fmt.Errorf("failed to load cookies from %q: %w", cmd.Cookies, err)
		}
	}

	transports := []folio.Transport{
		foliohttp.NewPrimaryTransport(jar),
		foliohttp.NewSecondaryTransport(jar),
	}
	if cmd.Browser {
		transports = append(transports, rod.NewTransport())
	}

	gateway, err := foliohttp.NewGateway(
		foliohttp.WithTransports(transports...),
		foliohttp.WithJar(jar),
		foliohttp.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("failed to create fetch gateway: %w", err)
	}

	var fetcher folio.Fetcher = bundle.NewLimitedFetcher(gateway, bundle.NewDomainLimiter(cmd.RPS))
	fetcher = folioslog.NewLoggingFetcher(fetcher, logger)
	m.Fetcher = fetcher

	engine := &drivers.Engine{
		Fetcher:   fetcher,
		Extractor: trafilatura.NewExtractor(),
		Sanitizer: bluemonday.NewSanitizer(),
		Profiles:  profiles,
		Logger:    logger,
	}

	m.DB = foliosqlite.NewDB(m.CachePath)
	if err := m.DB.Open(); err != nil {
		// The cache is an optimization; run without it rather than fail.
		fmt.Fprintf(stderr, "asset cache unavailable at %q: %v\n", m.CachePath, err)
		m.DB = nil
	} else {
		engine.Cache = foliosqlite.NewAssetCache(m.DB)
	}

	if cmd.Summary {
		summarizer, err := newSummarizer(ctx)
		if err != nil {
			return err
		}
		engine.Summarizer = summarizer
	}

	generic := &drivers.Generic{Engine: engine}
	loggedGeneric := folioslog.NewLoggingDriver(generic, logger)
	registry := folio.NewRegistry(loggedGeneric)
	registry.Register(loggedGeneric)
	registry.Register(folioslog.NewLoggingDriver(&drivers.Forum{Engine: engine}, logger), "forum")
	registry.Register(folioslog.NewLoggingDriver(&drivers.HackerNews{Engine: engine, Article: generic}, logger), "hackernews")
	registry.Register(folioslog.NewLoggingDriver(&drivers.YouTube{Engine: engine}, logger), "youtube")
	registry.RegisterHost("news.ycombinator.com", "hackernews")
	registry.RegisterHost("youtube.com", "youtube")
	registry.RegisterHost("youtu.be", "youtube")
	registry.RegisterSniffer(foliogoquery.ForumSniffer)

	if cmd.Driver != "" {
		forced := registry.Get(cmd.Driver)
		if forced == nil {
			return fmt.Errorf("unknown driver %q", cmd.Driver)
		}
		// A forced driver bypasses all dispatch rules.
		registry = folio.NewRegistry(forced)
	}

	deps.Builder = &bundle.Builder{
		Registry: registry,
		Profiles: profiles,
		Writer:   fs.NewWriter(cmd.Output),
		Cookies:  gateway,
		Logger:   logger,
	}
	if cmd.Markdown {
		deps.Builder.Markdown = htmltomarkdown.NewConverter()
	}
	return nil
}

func newSummarizer(ctx context.Context) (folio.Summarizer, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY not set. Get a key at https://aistudio.google.com/apikey")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Gemini API: %w", err)
	}
	counter, err := gemini.NewTokenCounter(tokenizerModel)
	if err != nil {
		return nil, fmt.Errorf("failed to create token counter: %w", err)
	}
	return gemini.NewSummarizer(client, counter), nil
}

func defaultCachePath() string {
	if path := os.Getenv("FOLIO_CACHE"); path != "" {
		return path
	}
	dir, err := configDir()
	if err != nil {
		return "folio-cache.db"
	}
	return filepath.Join(dir, "cache.db")
}

func defaultProfilesPath() string {
	if path := os.Getenv("FOLIO_PROFILES"); path != "" {
		return path
	}
	dir, err := configDir()
	if err != nil {
		return "profiles.yaml"
	}
	return filepath.Join(dir, "profiles.yaml")
}

func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, ".folio")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}
