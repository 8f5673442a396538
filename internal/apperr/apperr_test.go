package apperr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"storybook/backend/internal/apperr"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", apperr.NotFound("Guide not found"), http.StatusNotFound},
		{"forbidden", apperr.Forbidden("Not a guide"), http.StatusForbidden},
		{"conflict", apperr.Conflict("already requested"), http.StatusConflict},
		{"invalid state", apperr.InvalidState("not pending"), http.StatusBadRequest},
		{"validation", apperr.Validation("bad input", map[string]string{"status": "oneof"}), http.StatusUnprocessableEntity},
		{"unauthorized", apperr.Unauthorized("Invalid token"), http.StatusUnauthorized},
		{"wrapped", fmt.Errorf("load: %w", apperr.NotFound("Chat room not found")), http.StatusNotFound},
		{"plain", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, apperr.HTTPStatus(tt.err))
		})
	}
}

func TestErrorIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("create: %w", apperr.Conflict("An active request already exists"))

	assert.True(t, errors.Is(err, apperr.ErrConflict))
	assert.False(t, errors.Is(err, apperr.ErrNotFound))
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := apperr.Wrap(apperr.KindUnauthorized, "Invalid Kakao token", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "Invalid Kakao token")
	assert.Contains(t, err.Error(), "refused")
}
