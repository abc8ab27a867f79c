// Package auth verifies Supabase-issued access tokens.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrUnauthorized  = errors.New("invalid or expired authentication token")
	ErrMissingToken  = errors.New("missing or invalid authorization header")
	errInvalidClaims = errors.New("invalid claims")
	errNoSecret      = errors.New("jwt secret not configured")
)

// User is the authenticated caller.
type User struct {
	ID    string
	Email string
	Role  string
}

// SupabaseClaims are the claims Supabase puts in its access tokens.
type SupabaseClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// TokenVerifier resolves a bearer token to a user.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*User, error)
}

// JWTVerifier checks HS256 tokens signed with the project's JWT secret.
type JWTVerifier struct {
	secret   []byte
	audience string
	parser   *jwt.Parser
}

func NewJWTVerifier(secret, audience string) *JWTVerifier {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if audience != "" {
		opts = append(opts, jwt.WithAudience(audience))
	}

	return &JWTVerifier{
		secret:   []byte(secret),
		audience: audience,
		parser:   jwt.NewParser(opts...),
	}
}

// Verify returns ErrUnauthorized for any token that does not check out.
func (v *JWTVerifier) Verify(_ context.Context, token string) (*User, error) {
	if len(v.secret) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrUnauthorized, errNoSecret)
	}

	claims := &SupabaseClaims{}
	parsed, err := v.parser.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	if !parsed.Valid || strings.TrimSpace(claims.Subject) == "" {
		return nil, fmt.Errorf("%w: %w", ErrUnauthorized, errInvalidClaims)
	}

	return &User{
		ID:    claims.Subject,
		Email: claims.Email,
		Role:  claims.Role,
	}, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", ErrMissingToken
	}
	token := strings.TrimSpace(header[len(prefix):])
	if token == "" {
		return "", ErrMissingToken
	}
	return token, nil
}
