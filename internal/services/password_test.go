package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("Secret123!")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=65536,t=1,p=4$"))
	assert.NotContains(t, hash, "Secret123!")

	other, err := HashPassword("Secret123!")
	require.NoError(t, err)
	assert.NotEqual(t, hash, other, "salts must differ")
}

func TestVerifyPassword(t *testing.T) {
	hash, err := HashPassword("Secret123!")
	require.NoError(t, err)

	tests := []struct {
		name          string
		encoded       string
		password      string
		expected      bool
		expectedError bool
	}{
		{name: "match", encoded: hash, password: "Secret123!", expected: true},
		{name: "wrong password", encoded: hash, password: "secret123!", expected: false},
		{name: "empty password", encoded: hash, password: "", expected: false},
		{name: "empty hash", encoded: "", password: "Secret123!", expectedError: true},
		{name: "plaintext stored value", encoded: "Secret123!", password: "Secret123!", expectedError: true},
		{name: "other algorithm", encoded: "$argon2i$v=19$m=65536,t=1,p=4$c2FsdA$a2V5", password: "x", expectedError: true},
		{name: "bad version", encoded: "$argon2id$v=16$m=65536,t=1,p=4$c2FsdA$a2V5", password: "x", expectedError: true},
		{name: "bad parameters", encoded: "$argon2id$v=19$m=0,t=1,p=4$c2FsdA$a2V5", password: "x", expectedError: true},
		{name: "bad salt", encoded: "$argon2id$v=19$m=65536,t=1,p=4$!!!$a2V5", password: "x", expectedError: true},
		{name: "empty key", encoded: "$argon2id$v=19$m=65536,t=1,p=4$c2FsdA$", password: "x", expectedError: true},
		{name: "zero rounds", encoded: "$argon2id$v=19$m=65536,t=0,p=4$c2FsdA$a2V5", password: "x", expectedError: true},
		{name: "zero lanes", encoded: "$argon2id$v=19$m=65536,t=1,p=0$c2FsdA$a2V5", password: "x", expectedError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := VerifyPassword(tt.encoded, tt.password)

			if tt.expectedError {
				assert.ErrorIs(t, err, errMalformedHash)
				assert.False(t, ok)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, ok)
		})
	}
}
