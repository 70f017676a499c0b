package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"student-records/internal/domain"
)

// DefaultTokenTTL is the lifetime of a login session token.
const DefaultTokenTTL = time.Hour

var (
	// ErrMalformedToken is returned for anything that is not a well-formed token.
	ErrMalformedToken = errors.New("malformed token")
	// ErrNoToken is returned when the carrier holds no bearer token at all.
	ErrNoToken = fmt.Errorf("%w: no bearer token", ErrMalformedToken)
	// ErrInvalidSignature is returned when the signature does not verify.
	ErrInvalidSignature = errors.New("invalid token signature")
	// ErrTokenExpired is returned when a correctly signed token is past its expiry.
	ErrTokenExpired = errors.New("token expired")
)

// Claims is the identity carried by a session token.
type Claims struct {
	ID       int64       `json:"id"`
	Username string      `json:"username"`
	Role     domain.Role `json:"role"`
}

// TokenIssuer mints signed session tokens.
type TokenIssuer interface {
	Issue(claims Claims, ttl time.Duration) (token string, expiresAt time.Time, err error)
}

// TokenVerifier checks a token and returns the claims it carries.
type TokenVerifier interface {
	Verify(token string) (*Claims, error)
}

// TokenService issues and verifies session tokens.
type TokenService interface {
	TokenIssuer
	TokenVerifier
}

type sessionClaims struct {
	UserID   int64       `json:"id"`
	Username string      `json:"username"`
	Role     domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// JWTService signs HS256 JWTs with a process-wide secret.
type JWTService struct {
	secret []byte
	now    func() time.Time
}

// NewJWTService returns a JWTService using secret. now may be nil.
func NewJWTService(secret []byte, now func() time.Time) (*JWTService, error) {
	if len(secret) == 0 {
		return nil, errors.New("jwt secret is required")
	}
	if now == nil {
		now = time.Now
	}
	key := make([]byte, len(secret))
	copy(key, secret)
	return &JWTService{secret: key, now: now}, nil
}

func (s *JWTService) Issue(claims Claims, ttl time.Duration) (string, time.Time, error) {
	issuedAt := s.now()
	expiresAt := issuedAt.Add(ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		UserID:   claims.ID,
		Username: claims.Username,
		Role:     claims.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(claims.ID, 10),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify checks the signature before the expiry; claims are returned only
// when both pass.
func (s *JWTService) Verify(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrNoToken
	}

	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	switch {
	case err == nil && token.Valid:
		return &Claims{ID: claims.UserID, Username: claims.Username, Role: claims.Role}, nil
	case err == nil:
		return nil, ErrMalformedToken
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return nil, ErrInvalidSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrTokenExpired
	default:
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
}

var _ TokenService = (*JWTService)(nil)
