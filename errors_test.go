package folio_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/foliotools/folio"
	"github.com/stretchr/testify/assert"
)

func TestErrorCode(t *testing.T) {
	t.Parallel()

	t.Run("returns code for application error", func(t *testing.T) {
		t.Parallel()
		err := folio.Errorf(folio.ENOTFOUND, "no such item")
		assert.Equal(t, folio.ENOTFOUND, folio.ErrorCode(err))
	})

	t.Run("unwraps wrapped application error", func(t *testing.T) {
		t.Parallel()
		err := fmt.Errorf("resolving image: %w", folio.Errorf(folio.EBLOCKED, "HTTP 403"))
		assert.Equal(t, folio.EBLOCKED, folio.ErrorCode(err))
	})

	t.Run("returns EINTERNAL for plain error", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, folio.EINTERNAL, folio.ErrorCode(errors.New("boom")))
	})

	t.Run("returns empty string for nil", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "", folio.ErrorCode(nil))
	})
}

func TestErrorMessage(t *testing.T) {
	t.Parallel()

	err := folio.Errorf(folio.EINVALID, "image below %dpx", 20)
	assert.Equal(t, "image below 20px", folio.ErrorMessage(err))
	assert.Equal(t, "Internal error", folio.ErrorMessage(errors.New("boom")))
}
