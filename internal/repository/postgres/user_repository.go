package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"student-records/internal/domain"
	"student-records/internal/repository"
)

const adminIndexName = "users_single_admin_key"

const selectUserColumns = `SELECT id, username, name, email, password_hash, role, created_at, updated_at FROM users`

// UserRepository implements repository.UserRepository using PostgreSQL.
type UserRepository struct {
	db DBTX
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// Init is a no-op; the schema is owned by the goose migrations.
func (r *UserRepository) Init(context.Context) error {
	return nil
}

// Create stores a new user. Unique index violations on username/email map to
// repository.ErrDuplicate, the partial admin index to repository.ErrAdminExists.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) (int64, error) {
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	err := r.db.QueryRow(ctx, `
		INSERT INTO users (username, name, email, password_hash, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`,
		user.Username,
		user.Name,
		user.Email,
		user.PasswordHash,
		string(user.Role),
		user.CreatedAt,
		user.UpdatedAt,
	).Scan(&user.ID)
	if err != nil {
		if constraint, ok := uniqueViolation(err); ok {
			sentinel := repository.ErrDuplicate
			if constraint == adminIndexName {
				sentinel = repository.ErrAdminExists
			}
			return 0, oops.Code("USER_CREATE_CONFLICT").
				With("username", user.Username).
				With("constraint", constraint).
				Wrap(sentinel)
		}
		return 0, oops.Code("USER_CREATE_FAILED").
			With("operation", "insert user").
			With("username", user.Username).
			Wrap(err)
	}
	return user.ID, nil
}

// GetByEmail retrieves a user by email (case-insensitive).
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.db.QueryRow(ctx, selectUserColumns+` WHERE LOWER(email) = LOWER($1)`, email)
	return scanUser(row)
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	row := r.db.QueryRow(ctx, selectUserColumns+` WHERE id = $1`, id)
	return scanUser(row)
}

func (r *UserRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE username = $1 OR LOWER(email) = LOWER($2))`,
		username, email,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check user exists: %w", err)
	}
	return exists, nil
}

func (r *UserRepository) ExistsByRole(ctx context.Context, role domain.Role) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE role = $1)`,
		string(role),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check role exists: %w", err)
	}
	return exists, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		user domain.User
		role string
	)
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&role,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	user.Role = domain.Role(role)
	return &user, nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
