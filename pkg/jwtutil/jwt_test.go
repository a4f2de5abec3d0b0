package jwtutil

import (
	"strings"
	"testing"

	"github.com/alemhar/fielder/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testJWTConfig() *config.JWTConfig {
	return &config.JWTConfig{
		SigningKey:      "test-signing-key",
		ExpirationHours: 24,
	}
}

func TestGenerateAndValidateToken(t *testing.T) {
	Initialize(testJWTConfig())

	token, err := GenerateToken("user@example.com", 7, 3, "tenant-a")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", claims.Email)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, uint(3), claims.TenantID)
	assert.Equal(t, "tenant-a", claims.TenantSlug)
}

func TestValidateTokenRejectsTampering(t *testing.T) {
	Initialize(testJWTConfig())

	token, err := GenerateToken("user@example.com", 7, 3, "tenant-a")
	require.NoError(t, err)

	// Flip a character in the signature segment
	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	_, err = ValidateToken(tampered)
	assert.Error(t, err)
}

func TestValidateTokenRejectsWrongKey(t *testing.T) {
	Initialize(testJWTConfig())
	token, err := GenerateToken("user@example.com", 7, 3, "tenant-a")
	require.NoError(t, err)

	Initialize(&config.JWTConfig{SigningKey: "different-key", ExpirationHours: 24})
	defer Initialize(testJWTConfig())

	_, err = ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	Initialize(testJWTConfig())

	_, err := ValidateToken("not-a-token")
	assert.Error(t, err)
}
