package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"student-records/internal/domain"
	"student-records/internal/repository"
	"student-records/internal/repository/postgres"
)

var userColumns = []string{"id", "username", "name", "email", "password_hash", "role", "created_at", "updated_at"}

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err, "failed to create mock")
	t.Cleanup(mock.Close)
	return mock
}

func TestUserRepository_Create(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		wantID    int64
		wantErr   error
	}{
		{
			name: "inserted",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`INSERT INTO users`).
					WithArgs("alice", "Alice", "a@x.com", "hash", "USER", pgxmock.AnyArg(), pgxmock.AnyArg()).
					WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(7)))
			},
			wantID: 7,
		},
		{
			name: "duplicate email",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`INSERT INTO users`).
					WithArgs("alice", "Alice", "a@x.com", "hash", "USER", pgxmock.AnyArg(), pgxmock.AnyArg()).
					WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "users_email_lower_key"})
			},
			wantErr: repository.ErrDuplicate,
		},
		{
			name: "second admin",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`INSERT INTO users`).
					WithArgs("alice", "Alice", "a@x.com", "hash", "USER", pgxmock.AnyArg(), pgxmock.AnyArg()).
					WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "users_single_admin_key"})
			},
			wantErr: repository.ErrAdminExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMock(t)
			tt.setupMock(mock)

			repo := postgres.NewUserRepository(mock)
			user := &domain.User{Username: "alice", Name: "Alice", Email: "a@x.com", PasswordHash: "hash", Role: domain.RoleUser}
			id, err := repo.Create(context.Background(), user)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantID, id)
				assert.Equal(t, tt.wantID, user.ID)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_CreateDatabaseError(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`INSERT INTO users`).WillReturnError(errors.New("connection refused"))

	repo := postgres.NewUserRepository(mock)
	_, err := repo.Create(context.Background(), &domain.User{Username: "bob", Role: domain.RoleUser})
	require.Error(t, err)
	assert.NotErrorIs(t, err, repository.ErrDuplicate)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestUserRepository_GetByEmail(t *testing.T) {
	now := time.Now().UTC()

	t.Run("found", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(`FROM users WHERE LOWER\(email\)`).
			WithArgs("a@x.com").
			WillReturnRows(pgxmock.NewRows(userColumns).
				AddRow(int64(1), "alice", "Alice", "a@x.com", "hash", "ADMIN", now, now))

		user, err := postgres.NewUserRepository(mock).GetByEmail(context.Background(), "a@x.com")
		require.NoError(t, err)
		assert.Equal(t, int64(1), user.ID)
		assert.Equal(t, domain.RoleAdmin, user.Role)
		assert.Equal(t, "hash", user.PasswordHash)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(`FROM users WHERE LOWER\(email\)`).
			WithArgs("missing@x.com").
			WillReturnError(pgx.ErrNoRows)

		_, err := postgres.NewUserRepository(mock).GetByEmail(context.Background(), "missing@x.com")
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}

func TestUserRepository_Exists(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("alice", "a@x.com").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("ADMIN").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

	repo := postgres.NewUserRepository(mock)
	exists, err := repo.ExistsByUsernameOrEmail(context.Background(), "alice", "a@x.com")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByRole(context.Background(), domain.RoleAdmin)
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}
