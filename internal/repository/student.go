package repository

import (
	"context"

	"student-records/internal/domain"
)

// StudentRepository exposes persistence operations for Student records.
type StudentRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, student *domain.Student) (int64, error)
	Update(ctx context.Context, student *domain.Student) error
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (*domain.Student, error)
	List(ctx context.Context) ([]domain.Student, error)
	// ExistsByEmailOrPhone ignores the record with excludeID (0 matches none).
	ExistsByEmailOrPhone(ctx context.Context, email, phone string, excludeID int64) (bool, error)
}
