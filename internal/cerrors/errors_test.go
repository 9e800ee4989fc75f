package cerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsNotFound(t *testing.T) {
	err := NotFoundf("Head", "bucket/key", nil)
	assert.True(t, IsNotFound(err))
	assert.False(t, IsTimedOut(err))

	wrapped := fmt.Errorf("while doing X: %w", err)
	assert.True(t, IsNotFound(wrapped))

	assert.False(t, IsNotFound(errors.New("plain")))
}

func TestErrorString(t *testing.T) {
	err := IOErrorf("Put", "b/k", errors.New("boom"))
	assert.Contains(t, err.Error(), "Put")
	assert.Contains(t, err.Error(), "boom")
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("cause")
	err := InvalidArgumentf("Validate", "", cause)
	assert.Equal(t, cause, errors.Unwrap(err))
}
