package utils

import (
	"testing"

	"github.com/skillvest/referral-backend/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	cfg := &config.Config{JWT: config.JWTConfig{Secret: "test-secret", ExpiresIn: 3600}}

	token, err := GenerateJWT("64f1c0ffee0000000000aaaa", "member", cfg)
	require.NoError(t, err)

	claims, err := ValidateJWT(token, cfg)
	require.NoError(t, err)
	assert.Equal(t, "64f1c0ffee0000000000aaaa", claims["user_id"])
	assert.Equal(t, "member", claims["role"])
}

func TestValidateJWT_RejectsWrongSecret(t *testing.T) {
	cfg := &config.Config{JWT: config.JWTConfig{Secret: "test-secret", ExpiresIn: 3600}}
	token, err := GenerateJWT("64f1c0ffee0000000000aaaa", "member", cfg)
	require.NoError(t, err)

	other := &config.Config{JWT: config.JWTConfig{Secret: "different", ExpiresIn: 3600}}
	_, err = ValidateJWT(token, other)
	assert.Error(t, err)
}

func TestValidateJWT_RejectsExpired(t *testing.T) {
	cfg := &config.Config{JWT: config.JWTConfig{Secret: "test-secret", ExpiresIn: -60}}
	token, err := GenerateJWT("64f1c0ffee0000000000aaaa", "member", cfg)
	require.NoError(t, err)

	_, err = ValidateJWT(token, cfg)
	assert.Error(t, err)
}
