package gemini_test

import (
	"testing"

	"github.com/foliotools/folio/gemini"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildUserPrompt(t *testing.T) {
	t.Parallel()

	prompt := gemini.BuildUserPrompt("Article body here.")
	assert.Contains(t, prompt, "<text>\nArticle body here.\n</text>")
	assert.Contains(t, prompt, "Summarize the text above.")
}

func TestBuildConfig(t *testing.T) {
	t.Parallel()

	config := gemini.BuildConfig()
	require.NotNil(t, config.SystemInstruction)
	require.Len(t, config.SystemInstruction.Parts, 1)
	assert.Contains(t, config.SystemInstruction.Parts[0].Text, "Summarize")
	require.NotNil(t, config.Temperature)
	assert.InDelta(t, 0.3, float64(*config.Temperature), 0.001)
}

func TestTokenCounter_WithinBudget(t *testing.T) {
	t.Parallel()

	// a nil counter estimates by byte length instead of tokenizing
	var tc *gemini.TokenCounter

	within, err := tc.WithinBudget(t.Context(), "short", 10)
	require.NoError(t, err)
	assert.True(t, within)

	within, err = tc.WithinBudget(t.Context(), "0123456789", 2)
	require.NoError(t, err)
	assert.False(t, within)
}
