package repository

import (
	"context"
	"errors"

	"student-records/internal/domain"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a write collides with a unique username,
	// email or phone.
	ErrDuplicate = errors.New("record already exists")
	// ErrAdminExists is returned when a write would create a second ADMIN.
	ErrAdminExists = errors.New("admin account already exists")
)

// UserRepository defines persistence operations for User entities.
//
// Create must enforce username/email uniqueness and the single ADMIN rule
// atomically, reporting violations as ErrDuplicate or ErrAdminExists.
type UserRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, user *domain.User) (int64, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	ExistsByRole(ctx context.Context, role domain.Role) (bool, error)
}
