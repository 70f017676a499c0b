package auth_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"student-records/internal/auth"
)

func hashers() map[string]auth.PasswordHasher {
	return map[string]auth.PasswordHasher{
		"bcrypt":   auth.NewBcryptHasher(bcrypt.MinCost),
		"argon2id": auth.NewArgon2idHasher(),
	}
}

func TestHashers(t *testing.T) {
	for name, hasher := range hashers() {
		t.Run(name, func(t *testing.T) {
			t.Run("hash differs from plaintext", func(t *testing.T) {
				hash, err := hasher.Hash("secret123")
				require.NoError(t, err)
				assert.NotEqual(t, "secret123", hash)
				assert.NotContains(t, hash, "secret123")
			})

			t.Run("same password produces different hashes", func(t *testing.T) {
				hash1, err := hasher.Hash("samepassword")
				require.NoError(t, err)
				hash2, err := hasher.Hash("samepassword")
				require.NoError(t, err)
				assert.NotEqual(t, hash1, hash2)
			})

			t.Run("correct password verifies", func(t *testing.T) {
				hash, err := hasher.Hash("correct horse")
				require.NoError(t, err)
				ok, err := hasher.Verify("correct horse", hash)
				require.NoError(t, err)
				assert.True(t, ok)
			})

			t.Run("wrong password fails", func(t *testing.T) {
				hash, err := hasher.Hash("correct horse")
				require.NoError(t, err)
				ok, err := hasher.Verify("correct horse ", hash)
				require.NoError(t, err)
				assert.False(t, ok)
			})

			t.Run("rejects empty password", func(t *testing.T) {
				_, err := hasher.Hash("")
				assert.ErrorIs(t, err, auth.ErrEmptyPassword)
			})

			t.Run("garbage hash", func(t *testing.T) {
				ok, err := hasher.Verify("password", "not-a-valid-hash")
				assert.False(t, ok)
				assert.ErrorIs(t, err, auth.ErrInvalidHash)
			})
		})
	}
}

func TestBcryptHasher_TooLong(t *testing.T) {
	_, err := auth.NewBcryptHasher(bcrypt.MinCost).Hash(strings.Repeat("a", 73))
	assert.ErrorIs(t, err, auth.ErrPasswordTooLong)
}

func TestNewPasswordHasher(t *testing.T) {
	t.Run("unknown algorithm", func(t *testing.T) {
		_, err := auth.NewPasswordHasher("md5", 0)
		assert.Error(t, err)
	})

	t.Run("verifies hashes of either algorithm", func(t *testing.T) {
		bcryptHash, err := auth.NewBcryptHasher(bcrypt.MinCost).Hash("pw")
		require.NoError(t, err)
		argonHash, err := auth.NewArgon2idHasher().Hash("pw")
		require.NoError(t, err)

		for _, algorithm := range []string{auth.AlgorithmBcrypt, auth.AlgorithmArgon2id} {
			hasher, err := auth.NewPasswordHasher(algorithm, bcrypt.MinCost)
			require.NoError(t, err)

			for _, hash := range []string{bcryptHash, argonHash} {
				ok, err := hasher.Verify("pw", hash)
				require.NoError(t, err)
				assert.True(t, ok, "%s hasher verifying %s", algorithm, hash[:8])
			}
		}
	})

	t.Run("argon2id output format", func(t *testing.T) {
		hasher, err := auth.NewPasswordHasher(auth.AlgorithmArgon2id, 0)
		require.NoError(t, err)
		hash, err := hasher.Hash("pw")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$"))
	})
}
