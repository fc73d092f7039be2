package bluemonday_test

import (
	"testing"

	"github.com/foliotools/folio"
	"github.com/foliotools/folio/bluemonday"
	"github.com/stretchr/testify/assert"
)

// Ensure Sanitizer implements folio.Sanitizer at compile time.
var _ folio.Sanitizer = (*bluemonday.Sanitizer)(nil)

func TestSanitizer_Sanitize(t *testing.T) {
	t.Parallel()

	s := bluemonday.NewSanitizer()

	t.Run("strips scripts and event handlers", func(t *testing.T) {
		t.Parallel()
		got := s.Sanitize(`<p onclick="evil()">hi</p><script>alert(1)</script>`)
		assert.Equal(t, "<p>hi</p>", got)
	})

	t.Run("keeps discussion formatting", func(t *testing.T) {
		t.Parallel()
		in := `<blockquote class="quote"><p>quoted</p></blockquote><pre><code>x := 1</code></pre>`
		got := s.Sanitize(in)
		assert.Contains(t, got, `<blockquote class="quote">`)
		assert.Contains(t, got, "<code>x := 1</code>")
	})

	t.Run("keeps relative asset references", func(t *testing.T) {
		t.Parallel()
		got := s.Sanitize(`<img src="images/photo.jpg" alt="a photo">`)
		assert.Contains(t, got, `src="images/photo.jpg"`)
		assert.Contains(t, got, `alt="a photo"`)
	})

	t.Run("neutralizes javascript urls", func(t *testing.T) {
		t.Parallel()
		got := s.Sanitize(`<a href="javascript:alert(1)">click</a>`)
		assert.NotContains(t, got, "javascript:")
	})
}
