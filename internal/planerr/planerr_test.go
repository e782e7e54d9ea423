// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package planerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIs(t *testing.T) {
	base := Configuration("extraction rate must be positive, got %g", -1.0)
	wrapped := fmt.Errorf("computing floor value: %w", base)

	assert.True(t, Is(base, CodeConfiguration))
	assert.True(t, Is(wrapped, CodeConfiguration))
	assert.False(t, Is(wrapped, CodeInvalidInput))
	assert.False(t, Is(errors.New("plain"), CodeConfiguration))
	assert.False(t, Is(nil, CodeConfiguration))
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, CodeNotFound, GetCode(fmt.Errorf("x: %w", New(CodeNotFound, "run %s", "abc"))))
	assert.Equal(t, Code(""), GetCode(errors.New("plain")))
}

func TestErrorString(t *testing.T) {
	cause := errors.New("bad float")
	err := Wrap(CodeInvalidInput, cause, "row %d column %q", 3, "cu")

	assert.Equal(t, `INVALID_INPUT: row 3 column "cu": bad float`, err.Error())
	assert.Equal(t, `row 3 column "cu": bad float`, UserMessage(err))
	assert.ErrorIs(t, err, cause)
}

func TestUserMessagePlainError(t *testing.T) {
	assert.Equal(t, "plain", UserMessage(errors.New("plain")))
	assert.Equal(t, "axes not bound", UserMessage(Configuration("axes not bound")))
}
