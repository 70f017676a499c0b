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

const selectStudentColumns = `SELECT id, first_name, last_name, email, phone, gender, profile_pic, created_at, updated_at FROM students`

// StudentRepository implements repository.StudentRepository using PostgreSQL.
type StudentRepository struct {
	db DBTX
}

func NewStudentRepository(db DBTX) *StudentRepository {
	return &StudentRepository{db: db}
}

func (r *StudentRepository) Init(context.Context) error {
	return nil
}

func (r *StudentRepository) Create(ctx context.Context, student *domain.Student) (int64, error) {
	now := time.Now().UTC()
	student.CreatedAt = now
	student.UpdatedAt = now

	err := r.db.QueryRow(ctx, `
		INSERT INTO students (first_name, last_name, email, phone, gender, profile_pic, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`,
		student.FirstName,
		student.LastName,
		student.Email,
		student.Phone,
		string(student.Gender),
		student.ProfilePic,
		student.CreatedAt,
		student.UpdatedAt,
	).Scan(&student.ID)
	if err != nil {
		if _, ok := uniqueViolation(err); ok {
			return 0, oops.Code("STUDENT_CREATE_CONFLICT").With("email", student.Email).Wrap(repository.ErrDuplicate)
		}
		return 0, fmt.Errorf("insert student: %w", err)
	}
	return student.ID, nil
}

func (r *StudentRepository) Update(ctx context.Context, student *domain.Student) error {
	student.UpdatedAt = time.Now().UTC()
	tag, err := r.db.Exec(ctx, `
		UPDATE students
		SET first_name = $1, last_name = $2, email = $3, phone = $4, gender = $5, profile_pic = $6, updated_at = $7
		WHERE id = $8
	`,
		student.FirstName,
		student.LastName,
		student.Email,
		student.Phone,
		string(student.Gender),
		student.ProfilePic,
		student.UpdatedAt,
		student.ID,
	)
	if err != nil {
		if _, ok := uniqueViolation(err); ok {
			return oops.Code("STUDENT_UPDATE_CONFLICT").With("id", student.ID).Wrap(repository.ErrDuplicate)
		}
		return fmt.Errorf("update student: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *StudentRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *StudentRepository) Get(ctx context.Context, id int64) (*domain.Student, error) {
	student, err := scanStudent(r.db.QueryRow(ctx, selectStudentColumns+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return student, nil
}

func (r *StudentRepository) List(ctx context.Context) ([]domain.Student, error) {
	rows, err := r.db.Query(ctx, selectStudentColumns+` ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query students: %w", err)
	}
	defer rows.Close()

	var students []domain.Student
	for rows.Next() {
		student, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		students = append(students, *student)
	}
	return students, rows.Err()
}

func (r *StudentRepository) ExistsByEmailOrPhone(ctx context.Context, email, phone string, excludeID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM students WHERE (LOWER(email) = LOWER($1) OR phone = $2) AND id <> $3)`,
		email, phone, excludeID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check student exists: %w", err)
	}
	return exists, nil
}

func scanStudent(row pgx.Row) (*domain.Student, error) {
	var (
		student domain.Student
		gender  string
	)
	err := row.Scan(
		&student.ID,
		&student.FirstName,
		&student.LastName,
		&student.Email,
		&student.Phone,
		&gender,
		&student.ProfilePic,
		&student.CreatedAt,
		&student.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan student: %w", err)
	}
	student.Gender = domain.Gender(gender)
	return &student, nil
}

var _ repository.StudentRepository = (*StudentRepository)(nil)
