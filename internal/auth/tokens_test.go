package auth

import (
	"testing"
	"time"

	"storybook/backend/internal/config"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokens() *Tokens {
	return NewTokens(config.JWTConfig{Secret: "test-secret", AccessTTL: 30 * time.Minute, RefreshTTL: 7 * 24 * time.Hour})
}

func TestTokens_RoundTrip(t *testing.T) {
	tk := newTestTokens()

	access, err := tk.Access("u1")
	require.NoError(t, err)
	sub, err := tk.Parse(access, config.AccessTokenType)
	require.NoError(t, err)
	assert.Equal(t, "u1", sub)

	refresh, exp, err := tk.Refresh("u1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), exp, time.Minute)

	_, err = tk.Parse(refresh, config.AccessTokenType)
	assert.ErrorIs(t, err, ErrInvalidToken, "refresh tokens are not access tokens")

	again, _, err := tk.Refresh("u1")
	require.NoError(t, err)
	assert.NotEqual(t, refresh, again, "jti makes every token unique")
}

func TestTokens_Rejects(t *testing.T) {
	tk := newTestTokens()
	access, err := tk.Access("u1")
	require.NoError(t, err)

	other := NewTokens(config.JWTConfig{Secret: "other", AccessTTL: time.Minute})
	forged, err := other.Access("u1")
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Type: config.AccessTokenType}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	expired := newTestTokens()
	expired.now = func() time.Time { return time.Now().Add(-time.Hour) }
	old, err := expired.Access("u1")
	require.NoError(t, err)

	tests := []struct {
		name string
		raw  string
	}{
		{"garbage", "not-a-jwt"},
		{"tampered", access + "x"},
		{"wrong secret", forged},
		{"alg none", none},
		{"expired", old},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tk.Parse(tt.raw, config.AccessTokenType)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
