package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"storybook/backend/internal/apperr"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := &Handler{}

	tests := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"not found", apperr.NotFound("Story not found"), http.StatusNotFound, "Story not found"},
		{"forbidden", apperr.Forbidden("nope"), http.StatusForbidden, "nope"},
		{"conflict", apperr.Conflict("dup"), http.StatusConflict, "dup"},
		{"invalid state", apperr.InvalidState("late"), http.StatusBadRequest, "late"},
		{"plain error", errors.New("db down"), http.StatusInternalServerError, "Internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			h.respondError(c, tt.err)

			assert.Equal(t, tt.status, w.Code)
			var body errorBody
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.status, body.Code)
			assert.Equal(t, tt.msg, body.Msg)
		})
	}
}

func TestRespondError_HidesDetailsInRelease(t *testing.T) {
	gin.SetMode(gin.ReleaseMode)
	defer gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	(&Handler{}).respondError(c, errors.New("pq: connection refused"))

	var body errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Empty(t, body.Error)
}

func TestBindError(t *testing.T) {
	err := bindError(errors.New("unexpected EOF"))
	assert.ErrorIs(t, err, apperr.ErrValidation)

	var typeErr = &json.UnmarshalTypeError{Field: "limit", Value: "string"}
	err = bindError(typeErr)
	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "type", ae.Fields["limit"])
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc", "abc"},
		{"bearer  abc ", "abc"},
		{"Basic abc", ""},
		{"Bearer", ""},
		{"", ""},
	}
	for _, tt := range tests {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		c.Request.Header.Set("Authorization", tt.header)
		assert.Equal(t, tt.want, bearerToken(c), tt.header)
	}
}
