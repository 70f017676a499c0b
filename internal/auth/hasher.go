// Package auth holds the credential primitives: password hashing, signed
// session tokens and the bearer-token request gate.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/samber/oops"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrEmptyPassword is returned when attempting to hash an empty password.
	ErrEmptyPassword = errors.New("password cannot be empty")
	// ErrPasswordTooLong is returned for passwords bcrypt cannot represent.
	ErrPasswordTooLong = errors.New("password is too long")
	// ErrInvalidHash is returned when a stored hash cannot be parsed.
	ErrInvalidHash = errors.New("invalid password hash")
)

const (
	AlgorithmBcrypt   = "bcrypt"
	AlgorithmArgon2id = "argon2id"
)

// PasswordHasher provides password hashing and verification.
type PasswordHasher interface {
	// Hash produces a salted one-way hash of the password.
	Hash(password string) (string, error)
	// Verify reports whether password produced hash.
	// Returns (false, nil) on mismatch and an error only for unparsable hashes.
	Verify(password, hash string) (bool, error)
}

// NewPasswordHasher returns the hasher for the configured algorithm. The
// returned hasher verifies both bcrypt and argon2id hashes so stored
// credentials survive a change of algorithm.
func NewPasswordHasher(algorithm string, bcryptCost int) (PasswordHasher, error) {
	bc := NewBcryptHasher(bcryptCost)
	ar := NewArgon2idHasher()
	switch strings.ToLower(strings.TrimSpace(algorithm)) {
	case "", AlgorithmBcrypt:
		return &dispatchHasher{primary: bc, bcrypt: bc, argon: ar}, nil
	case AlgorithmArgon2id:
		return &dispatchHasher{primary: ar, bcrypt: bc, argon: ar}, nil
	default:
		return nil, fmt.Errorf("unknown password hasher %q", algorithm)
	}
}

type dispatchHasher struct {
	primary PasswordHasher
	bcrypt  *BcryptHasher
	argon   *Argon2idHasher
}

func (h *dispatchHasher) Hash(password string) (string, error) {
	return h.primary.Hash(password)
}

func (h *dispatchHasher) Verify(password, hash string) (bool, error) {
	if strings.HasPrefix(hash, "$argon2id$") {
		return h.argon.Verify(password, hash)
	}
	return h.bcrypt.Verify(password, hash)
}

// BcryptHasher implements PasswordHasher with bcrypt.
type BcryptHasher struct {
	cost int
}

func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", ErrPasswordTooLong
		}
		return "", oops.Code("AUTH_HASH_FAILED").Wrapf(err, "hash password")
	}
	return string(hash), nil
}

func (h *BcryptHasher) Verify(password, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, oops.Code("AUTH_INVALID_HASH").Wrap(errors.Join(ErrInvalidHash, err))
	}
}

// argon2id parameters as recommended by OWASP.
const (
	argon2Time    = 1
	argon2Memory  = 64 * 1024
	argon2Threads = 4
	argon2SaltLen = 16
	argon2KeyLen  = 32
)

// Argon2idHasher implements PasswordHasher using argon2id, encoded in PHC
// string format: $argon2id$v=19$m=65536,t=1,p=4$<salt>$<hash>
type Argon2idHasher struct{}

func NewArgon2idHasher() *Argon2idHasher {
	return &Argon2idHasher{}
}

func (h *Argon2idHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	salt := make([]byte, argon2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", oops.Code("AUTH_SALT_FAILED").Wrap(err)
	}

	key := argon2.IDKey([]byte(password), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)
	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		argon2Memory,
		argon2Time,
		argon2Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

func (h *Argon2idHasher) Verify(password, encoded string) (bool, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false, ErrInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false, ErrInvalidHash
	}

	var memory, iterations, threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &threads); err != nil {
		return false, ErrInvalidHash
	}
	if threads == 0 || threads > 255 {
		return false, ErrInvalidHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, ErrInvalidHash
	}
	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(expected) == 0 || len(expected) > 1024 {
		return false, ErrInvalidHash
	}

	computed := argon2.IDKey([]byte(password), salt, iterations, memory, uint8(threads), uint32(len(expected)))
	return subtle.ConstantTimeCompare(computed, expected) == 1, nil
}
