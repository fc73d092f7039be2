package folio

import "context"

// Source is one input to the engine: a URL plus optional pre-fetched markup,
// session cookies and pre-seeded asset hints supplied through another channel.
type Source struct {
	URL     string
	HTML    string
	Cookies map[string]string
	Hints   []AssetHint
	IsForum bool
}

// AssetHint is already-fetched binary content handed in by a caller, consulted
// before any new network fetch for a matching reference.
type AssetHint struct {
	URLs      []string
	MediaType string
	Content   []byte
}

// Options is the per-conversion configuration passed from the CLI into
// drivers. The zero value enables everything.
type Options struct {
	NoArticle  bool
	NoComments bool
	NoImages   bool

	// Archive forces fetching through an archived snapshot.
	Archive bool

	// MaxDepth caps comment recursion; zero means unlimited.
	MaxDepth int

	// MaxPages caps forum thread pagination; zero means all pages.
	MaxPages int

	// Markdown additionally produces an LLM-friendly markdown export.
	Markdown bool

	// Summary prepends a generated summary to the article chapter.
	Summary bool
}

// Chapter is one HTML chunk of the produced bundle.
type Chapter struct {
	UID        string
	Title      string
	Filename   string
	HTML       string
	IsArticle  bool
	IsComments bool
}

// Bundle is the portable document produced from one source: chapters,
// embedded assets, and metadata. The final container serialization (EPUB or
// otherwise) happens downstream.
type Bundle struct {
	UID         string
	Title       string
	Author      string
	Language    string
	Description string
	SourceURL   string
	Chapters    []*Chapter
	Assets      []*Asset

	// Markdown holds the optional LLM-friendly export of all chapters.
	Markdown string
}

// Driver converts a raw source into a bundle, calling into the acquisition
// engine for fetching, image resolution and comment enrichment. Drivers form
// a closed set of variants behind this one interface; the engine is a library
// each variant calls, not a base class it inherits.
type Driver interface {
	// Name identifies the driver in logs and registry lookups.
	Name() string

	Build(ctx context.Context, src *Source, opts Options) (*Bundle, error)
}

// ExtractResult is the outcome of article content extraction.
type ExtractResult struct {
	Title       string
	Author      string
	Date        string
	SiteName    string
	ContentHTML string
}

// Extractor extracts the main article content from raw page markup.
type Extractor interface {
	Extract(html string) (*ExtractResult, error)
}

// Converter transforms HTML content into Markdown.
type Converter interface {
	Convert(html string) (string, error)
}

// Sanitizer strips unsafe markup from untrusted comment HTML before it is
// embedded in the output document.
type Sanitizer interface {
	Sanitize(html string) string
}

// Summarizer produces a short prose summary of article or transcript text.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// BundleWriter persists a finished bundle.
type BundleWriter interface {
	Write(ctx context.Context, bundle *Bundle) (string, error)
}

// DomainLimiter provides per-domain rate limiting.
type DomainLimiter interface {
	// Wait blocks until the rate limit allows a request to the domain.
	// Returns an error if the context is canceled.
	Wait(ctx context.Context, domain string) error
}
