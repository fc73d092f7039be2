// Package gemini implements article and transcript summarization using
// Google Gemini.
package gemini

import (
	"context"
	"strings"

	"github.com/foliotools/folio"
	"google.golang.org/genai"
)

const model = "gemini-2.5-flash"

// maxInputTokens bounds the text sent for summarization. Longer inputs are
// truncated at a paragraph boundary near the limit.
const maxInputTokens = 100_000

// Ensure Summarizer implements folio.Summarizer at compile time.
var _ folio.Summarizer = (*Summarizer)(nil)

// Summarizer implements folio.Summarizer using Google Gemini.
type Summarizer struct {
	client  *genai.Client
	counter *TokenCounter
}

// NewSummarizer creates a new Summarizer. The token counter is optional;
// without it inputs are truncated by a conservative byte estimate instead.
func NewSummarizer(client *genai.Client, counter *TokenCounter) *Summarizer {
	return &Summarizer{client: client, counter: counter}
}

// Summarize produces a short prose summary of article or transcript text.
func (s *Summarizer) Summarize(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", folio.Errorf(folio.EINVALID, "text required")
	}

	text, err := s.truncate(ctx, text)
	if err != nil {
		return "", err
	}

	result, err := s.client.Models.GenerateContent(ctx, model,
		[]*genai.Content{{
			Parts: []*genai.Part{{Text: BuildUserPrompt(text)}},
		}},
		BuildConfig(),
	)
	if err != nil {
		return "", err
	}
	if result == nil {
		return "", folio.Errorf(folio.EINTERNAL, "gemini returned nil result")
	}

	return strings.TrimSpace(result.Text()), nil
}

// truncate cuts text down to the input token budget at a paragraph boundary.
func (s *Summarizer) truncate(ctx context.Context, text string) (string, error) {
	within, err := s.withinBudget(ctx, text)
	if err != nil {
		return "", err
	}
	for !within {
		cut := strings.LastIndex(text[:len(text)*3/4], "\n\n")
		if cut <= 0 {
			cut = len(text) * 3 / 4
		}
		text = text[:cut]
		if within, err = s.withinBudget(ctx, text); err != nil {
			return "", err
		}
	}
	return text, nil
}

func (s *Summarizer) withinBudget(ctx context.Context, text string) (bool, error) {
	return s.counter.WithinBudget(ctx, text, maxInputTokens)
}

// BuildConfig returns the GenerateContentConfig for Gemini API calls.
func BuildConfig() *genai.GenerateContentConfig {
	temp := float32(0.3)
	return &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{
				Text: "You are a careful editor. Summarize the provided article or transcript in two to four short paragraphs of plain prose. State only what the text says; do not add opinions or outside facts.",
			}},
		},
		Temperature: &temp,
	}
}

// BuildUserPrompt builds the user prompt containing the text to summarize.
func BuildUserPrompt(text string) string {
	var sb strings.Builder
	sb.WriteString("<text>\n")
	sb.WriteString(text)
	sb.WriteString("\n</text>\n\n")
	sb.WriteString("Summarize the text above.")
	return sb.String()
}
