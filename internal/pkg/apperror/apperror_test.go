package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesOnCode(t *testing.T) {
	assert.ErrorIs(t, SessionNotFound(), ErrNotFound)
	assert.ErrorIs(t, UserNotFound(), ErrNotFound)
	assert.ErrorIs(t, fmt.Errorf("wrapped: %w", ErrInsufficientCredits), ErrInsufficientCredits)
	assert.NotErrorIs(t, ErrConflict, ErrNotFound)
}

func TestWithDataCopies(t *testing.T) {
	withData := ErrConflict.WithData("payload")

	assert.Equal(t, "payload", withData.Data)
	assert.Nil(t, ErrConflict.Data)
	assert.ErrorIs(t, withData, ErrConflict)
}

func TestGenerationErrors(t *testing.T) {
	cause := errors.New("connection refused")

	upstream := UpstreamUnavailable(cause)
	assert.Equal(t, http.StatusServiceUnavailable, upstream.Status)
	assert.ErrorIs(t, upstream, cause)

	failed := GenerationFailed("", nil)
	assert.Equal(t, ErrGenerationFailed.Message, failed.Message)
	assert.Equal(t, "bad code", GenerationFailed("bad code", nil).Message)

	assert.True(t, IsGenerationError(upstream))
	assert.True(t, IsGenerationError(failed))
	assert.True(t, IsGenerationError(NoArtifact()))
	assert.False(t, IsGenerationError(ErrInsufficientCredits))
	assert.False(t, IsGenerationError(cause))
}

func TestAs(t *testing.T) {
	appErr, ok := As(fmt.Errorf("ctx: %w", Validation("bad")))
	assert.True(t, ok)
	assert.Equal(t, "bad", appErr.Message)

	_, ok = As(errors.New("plain"))
	assert.False(t, ok)
}

func TestInternalWrapsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Internal(cause)

	assert.Equal(t, CodeInternal, err.Code)
	assert.Equal(t, http.StatusInternalServerError, err.Status)
	assert.Equal(t, "Internal server error", err.Message)
	assert.ErrorIs(t, err, cause)
	assert.NotContains(t, err.Message, "connection reset")
}
