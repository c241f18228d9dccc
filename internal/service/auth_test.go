package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/templui/goalkeep/internal/model"
)

// TestJWT_RoundTrip verifies a generated token yields the same identity.
func TestJWT_RoundTrip(t *testing.T) {
	auth := NewAuthService("test-secret", time.Hour)

	token, err := auth.GenerateJWT("alice")
	require.NoError(t, err)

	identity, err := auth.VerifyJWT(token)
	require.NoError(t, err)
	assert.Equal(t, model.Identity("alice"), identity)
}

// TestJWT_Rejects covers tokens that must not authenticate anyone.
func TestJWT_Rejects(t *testing.T) {
	auth := NewAuthService("test-secret", time.Hour)

	otherKey, err := NewAuthService("other-secret", time.Hour).GenerateJWT("alice")
	require.NoError(t, err)

	expired, err := NewAuthService("test-secret", -time.Minute).GenerateJWT("alice")
	require.NoError(t, err)

	noIdentity, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{"garbage", "not-a-jwt", ErrInvalidToken},
		{"wrong key", otherKey, ErrInvalidToken},
		{"expired", expired, ErrInvalidToken},
		{"no identity claim", noIdentity, ErrMissingIdentity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := auth.VerifyJWT(tt.token)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

// TestGenerateJWT_EmptyIdentity verifies tokens are never minted for nobody.
func TestGenerateJWT_EmptyIdentity(t *testing.T) {
	_, err := NewAuthService("test-secret", time.Hour).GenerateJWT("")
	assert.ErrorIs(t, err, ErrMissingIdentity)
}
