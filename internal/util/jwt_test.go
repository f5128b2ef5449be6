package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-unit-tests-only"

func TestJWTRoundTrip(t *testing.T) {
	token, err := GenerateJWT("5f0c1d6e-9f2a-4b7c-8d3e-1a2b3c4d5e6f", "student@example.com", testSecret, time.Hour)
	require.NoError(t, err)

	claims, err := ParseJWT(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "5f0c1d6e-9f2a-4b7c-8d3e-1a2b3c4d5e6f", claims.UserID)
	assert.Equal(t, "student@example.com", claims.Email)
}

func TestParseJWTRejectsWrongSecret(t *testing.T) {
	token, err := GenerateJWT("user-id", "student@example.com", testSecret, time.Hour)
	require.NoError(t, err)

	_, err = ParseJWT(token, "a-different-secret")
	assert.Error(t, err)
}

func TestParseJWTRejectsExpiredToken(t *testing.T) {
	token, err := GenerateJWT("user-id", "student@example.com", testSecret, -time.Minute)
	require.NoError(t, err)

	_, err = ParseJWT(token, testSecret)
	assert.Error(t, err)
}

func TestParseJWTRejectsGarbage(t *testing.T) {
	_, err := ParseJWT("not-a-token", testSecret)
	assert.Error(t, err)
}
