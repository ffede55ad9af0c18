package util

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-jwt-testing"

func TestValidateToken(t *testing.T) {
	valid, err := GenerateToken("user-123", "thandi@example.com", "", testSecret, "", 15*time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{name: "Valid token", token: valid, wantErr: nil},
		{name: "Empty token", token: "", wantErr: ErrInvalidToken},
		{name: "Malformed token", token: "not.a.jwt", wantErr: ErrInvalidToken},
		{name: "Tampered token", token: valid + "x", wantErr: ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := ValidateToken(tt.token, testSecret, "")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, claims)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "user-123", claims.UserID())
			assert.Equal(t, "thandi@example.com", claims.Email)
		})
	}
}

func TestExpiredToken(t *testing.T) {
	token, err := GenerateToken("user-1", "a@example.com", "", testSecret, "", -time.Minute)
	require.NoError(t, err)

	_, err = ValidateToken(token, testSecret, "")
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestDifferentSecrets(t *testing.T) {
	token, err := GenerateToken("user-1", "a@example.com", "", testSecret, "", time.Minute)
	require.NoError(t, err)

	_, err = ValidateToken(token, "other-secret", "")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssuerCheck(t *testing.T) {
	token, err := GenerateToken("user-1", "a@example.com", "", testSecret, "https://auth.example/v1", time.Minute)
	require.NoError(t, err)

	_, err = ValidateToken(token, testSecret, "https://auth.example/v1")
	assert.NoError(t, err)

	_, err = ValidateToken(token, testSecret, "https://elsewhere")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRejectsNoneAlgorithm(t *testing.T) {
	claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = ValidateToken(token, testSecret, "")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestEffectiveRole(t *testing.T) {
	token, err := GenerateToken("user-1", "a@example.com", "admin", testSecret, "", time.Minute)
	require.NoError(t, err)

	claims, err := ValidateToken(token, testSecret, "")
	require.NoError(t, err)
	assert.Equal(t, "authenticated", claims.Role)
	assert.Equal(t, "admin", claims.EffectiveRole())

	plain := &Claims{Role: "authenticated"}
	assert.Equal(t, "authenticated", plain.EffectiveRole())
}
