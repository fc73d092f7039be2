package gemini

import (
	"context"

	"google.golang.org/genai"
	"google.golang.org/genai/tokenizer"
)

// TokenCounter checks summarization inputs against a token budget using the
// local Gemini tokenizer, keeping budget checks off the network.
type TokenCounter struct {
	tok *tokenizer.LocalTokenizer
}

// NewTokenCounter creates a new TokenCounter for the given model.
func NewTokenCounter(model string) (*TokenCounter, error) {
	tok, err := tokenizer.NewLocalTokenizer(model)
	if err != nil {
		return nil, err
	}
	return &TokenCounter{tok: tok}, nil
}

// CountTokens counts the number of tokens in the given text.
func (tc *TokenCounter) CountTokens(ctx context.Context, text string) (int, error) {
	if text == "" {
		return 0, nil
	}
	result, err := tc.tok.CountTokens([]*genai.Content{
		genai.NewContentFromText(text, "user"),
	}, nil)
	if err != nil {
		return 0, err
	}
	return int(result.TotalTokens), nil
}

// WithinBudget reports whether text fits in budget tokens. A nil counter
// falls back to a conservative four-bytes-per-token estimate.
func (tc *TokenCounter) WithinBudget(ctx context.Context, text string, budget int) (bool, error) {
	if tc == nil {
		return len(text) <= budget*4, nil
	}
	n, err := tc.CountTokens(ctx, text)
	if err != nil {
		return false, err
	}
	return n <= budget, nil
}
