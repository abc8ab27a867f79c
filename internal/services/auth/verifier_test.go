package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "super-secret-jwt-token-with-at-least-32-characters"

func signToken(t *testing.T, method jwt.SigningMethod, key interface{}, claims SupabaseClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func validClaims() SupabaseClaims {
	return SupabaseClaims{
		Email: "user@example.com",
		Role:  "authenticated",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "7c9e6679-7425-40de-944b-e07fc1f90ae7",
			Audience:  jwt.ClaimStrings{"authenticated"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
}

func TestVerifyValidToken(t *testing.T) {
	v := NewJWTVerifier(testSecret, "authenticated")
	token := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), validClaims())

	user, err := v.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "7c9e6679-7425-40de-944b-e07fc1f90ae7", user.ID)
	assert.Equal(t, "user@example.com", user.Email)
	assert.Equal(t, "authenticated", user.Role)
}

func TestVerifyRejects(t *testing.T) {
	expired := validClaims()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	noExpiry := validClaims()
	noExpiry.ExpiresAt = nil

	wrongAudience := validClaims()
	wrongAudience.Audience = jwt.ClaimStrings{"anon-service"}

	noSubject := validClaims()
	noSubject.Subject = ""

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-jwt"},
		{"wrong secret", signToken(t, jwt.SigningMethodHS256, []byte("another-secret"), validClaims())},
		{"expired", signToken(t, jwt.SigningMethodHS256, []byte(testSecret), expired)},
		{"missing expiry", signToken(t, jwt.SigningMethodHS256, []byte(testSecret), noExpiry)},
		{"wrong audience", signToken(t, jwt.SigningMethodHS256, []byte(testSecret), wrongAudience)},
		{"missing subject", signToken(t, jwt.SigningMethodHS256, []byte(testSecret), noSubject)},
		{"hs512 not allowed", signToken(t, jwt.SigningMethodHS512, []byte(testSecret), validClaims())},
	}

	v := NewJWTVerifier(testSecret, "authenticated")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Verify(context.Background(), tt.token)
			assert.ErrorIs(t, err, ErrUnauthorized)
		})
	}
}

func TestVerifyWithoutSecret(t *testing.T) {
	v := NewJWTVerifier("", "authenticated")
	token := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), validClaims())

	_, err := v.Verify(context.Background(), token)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestBearerToken(t *testing.T) {
	token, err := BearerToken("Bearer abc.def.ghi")
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", token)

	for _, header := range []string{"", "Basic abc", "bearer abc", "Bearer ", "Bearer    "} {
		_, err := BearerToken(header)
		assert.ErrorIs(t, err, ErrMissingToken, header)
	}
}
