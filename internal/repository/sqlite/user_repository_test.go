package sqlite_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"student-records/internal/domain"
	"student-records/internal/repository"
	"student-records/internal/repository/sqlite"
)

func newUserRepo(t *testing.T) repository.UserRepository {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "nested", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := sqlite.NewUserRepository(db)
	require.NoError(t, repo.Init(context.Background()))
	// Init is idempotent
	require.NoError(t, repo.Init(context.Background()))
	return repo
}

func newUser(username, email string, role domain.Role) *domain.User {
	return &domain.User{
		Username:     username,
		Name:         "Name " + username,
		Email:        email,
		PasswordHash: "$2a$10$hash",
		Role:         role,
	}
}

func TestUserRepository_CreateAndGet(t *testing.T) {
	repo := newUserRepo(t)
	ctx := context.Background()

	user := newUser("alice", "a@x.com", domain.RoleUser)
	id, err := repo.Create(ctx, user)
	require.NoError(t, err)
	assert.Positive(t, id)
	assert.Equal(t, id, user.ID)
	assert.False(t, user.CreatedAt.IsZero())

	byEmail, err := repo.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "alice", byEmail.Username)
	assert.Equal(t, domain.RoleUser, byEmail.Role)
	assert.Equal(t, "$2a$10$hash", byEmail.PasswordHash)

	byID, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", byID.Email)

	_, err = repo.GetByEmail(ctx, "missing@x.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = repo.GetByID(ctx, id+100)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUserRepository_UniqueConstraints(t *testing.T) {
	repo := newUserRepo(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, newUser("alice", "a@x.com", domain.RoleUser))
	require.NoError(t, err)

	t.Run("duplicate username", func(t *testing.T) {
		_, err := repo.Create(ctx, newUser("alice", "other@x.com", domain.RoleUser))
		assert.ErrorIs(t, err, repository.ErrDuplicate)
	})

	t.Run("duplicate email ignores case", func(t *testing.T) {
		_, err := repo.Create(ctx, newUser("bob", "A@X.COM", domain.RoleUser))
		assert.ErrorIs(t, err, repository.ErrDuplicate)
	})

	t.Run("second admin", func(t *testing.T) {
		_, err := repo.Create(ctx, newUser("root", "root@x.com", domain.RoleAdmin))
		require.NoError(t, err)
		_, err = repo.Create(ctx, newUser("root2", "root2@x.com", domain.RoleAdmin))
		assert.ErrorIs(t, err, repository.ErrAdminExists)
		assert.NotErrorIs(t, err, repository.ErrDuplicate)
	})

	t.Run("many non admin roles", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			_, err := repo.Create(ctx, newUser(fmt.Sprintf("other%d", i), fmt.Sprintf("o%d@x.com", i), domain.RoleOther))
			require.NoError(t, err)
		}
	})
}

func TestUserRepository_Exists(t *testing.T) {
	repo := newUserRepo(t)
	ctx := context.Background()

	exists, err := repo.ExistsByRole(ctx, domain.RoleAdmin)
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = repo.Create(ctx, newUser("root", "root@x.com", domain.RoleAdmin))
	require.NoError(t, err)

	exists, err = repo.ExistsByRole(ctx, domain.RoleAdmin)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByUsernameOrEmail(ctx, "root", "nobody@x.com")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByUsernameOrEmail(ctx, "nobody", "root@x.com")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByUsernameOrEmail(ctx, "nobody", "nobody@x.com")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestUserRepository_ConcurrentAdminInserts(t *testing.T) {
	repo := newUserRepo(t)
	ctx := context.Background()

	const n = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := repo.Create(ctx, newUser(fmt.Sprintf("admin%d", i), fmt.Sprintf("admin%d@x.com", i), domain.RoleAdmin))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, repository.ErrAdminExists):
				rejected++
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, n-1, rejected)
}
