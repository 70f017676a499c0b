package auth

import (
	"context"
	"strings"
)

const bearerScheme = "Bearer "

type ctxKey int

const claimsKey ctxKey = 1

// WithClaims returns a copy of ctx carrying c.
func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, claimsKey, c)
}

// ClaimsFromContext returns the identity attached by Authenticate.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*Claims)
	return c, ok && c != nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	if !strings.HasPrefix(header, bearerScheme) {
		return "", ErrNoToken
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, bearerScheme))
	if token == "" {
		return "", ErrNoToken
	}
	return token, nil
}

// Authenticate is the request gate stage: it either returns ctx populated
// with the verified claims or an error (ErrNoToken, ErrMalformedToken,
// ErrInvalidSignature or ErrTokenExpired) that must terminate the request.
func Authenticate(ctx context.Context, header string, verifier TokenVerifier) (context.Context, error) {
	token, err := BearerToken(header)
	if err != nil {
		return nil, err
	}
	claims, err := verifier.Verify(token)
	if err != nil {
		return nil, err
	}
	return WithClaims(ctx, claims), nil
}
