package etree_test

import (
	"testing"
	"time"

	"github.com/foliotools/folio"
	"github.com/foliotools/folio/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTranscript(t *testing.T) {
	t.Parallel()

	t.Run("legacy transcript format", func(t *testing.T) {
		t.Parallel()
		xml := `<?xml version="1.0" encoding="utf-8"?>
<transcript>
  <text start="0.5" dur="2.1">hello and welcome</text>
  <text start="2.6" dur="1.9">to the show &amp; more</text>
  <text start="4.5" dur="1.0"> </text>
</transcript>`

		cues, err := etree.ParseTranscript(xml)
		require.NoError(t, err)
		require.Len(t, cues, 2)
		assert.Equal(t, 500*time.Millisecond, cues[0].Start)
		assert.Equal(t, "hello and welcome", cues[0].Text)
		assert.Equal(t, "to the show & more", cues[1].Text)
	})

	t.Run("srv3 format with millisecond attrs", func(t *testing.T) {
		t.Parallel()
		xml := `<timedtext format="3">
  <body>
    <p t="1000" d="2000"><s>hello</s><s> there</s></p>
    <p t="3200" d="1500">second line</p>
  </body>
</timedtext>`

		cues, err := etree.ParseTranscript(xml)
		require.NoError(t, err)
		require.Len(t, cues, 2)
		assert.Equal(t, time.Second, cues[0].Start)
		assert.Equal(t, 2*time.Second, cues[0].Dur)
		assert.Equal(t, "hello there", cues[0].Text)
	})

	t.Run("no cues reports not found", func(t *testing.T) {
		t.Parallel()
		_, err := etree.ParseTranscript(`<transcript></transcript>`)
		require.Error(t, err)
		assert.Equal(t, folio.ENOTFOUND, folio.ErrorCode(err))
	})

	t.Run("malformed xml reports invalid", func(t *testing.T) {
		t.Parallel()
		_, err := etree.ParseTranscript(`<transcript><text`)
		require.Error(t, err)
		assert.Equal(t, folio.EINVALID, folio.ErrorCode(err))
	})
}

func TestTranscriptText(t *testing.T) {
	t.Parallel()

	cues := []etree.Cue{
		{Start: 0, Dur: time.Second, Text: "first"},
		{Start: time.Second, Dur: time.Second, Text: "second"},
		{Start: 10 * time.Second, Dur: time.Second, Text: "new paragraph"},
	}
	got := etree.TranscriptText(cues)
	assert.Equal(t, "first second\n\nnew paragraph", got)
}

func TestTranscriptHTML(t *testing.T) {
	t.Parallel()

	cues := []etree.Cue{
		{Start: 65 * time.Second, Dur: time.Second, Text: "a <b> c"},
		{Start: 90 * time.Second, Dur: time.Second, Text: "later"},
	}
	got := etree.TranscriptHTML(cues)
	assert.Contains(t, got, "[1:05]")
	assert.Contains(t, got, "a &lt;b&gt; c")
	assert.Contains(t, got, "[1:30]")
}
