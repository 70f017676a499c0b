package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/samber/oops"

	"student-records/internal/domain"
	"student-records/internal/repository"
)

const createStudentsTable = `
CREATE TABLE IF NOT EXISTS students (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	first_name TEXT NOT NULL,
	last_name TEXT NOT NULL,
	email TEXT NOT NULL UNIQUE COLLATE NOCASE,
	phone TEXT NOT NULL,
	gender TEXT NOT NULL CHECK (gender IN ('Male', 'Female', 'Other')),
	profile_pic TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_students_phone ON students(phone);
`

const selectStudentColumns = `SELECT id, first_name, last_name, email, phone, gender, profile_pic, created_at, updated_at FROM students`

type StudentRepository struct {
	db *sql.DB
}

func NewStudentRepository(db *sql.DB) repository.StudentRepository {
	return &StudentRepository{db: db}
}

func (r *StudentRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createStudentsTable); err != nil {
		return fmt.Errorf("create students table: %w", err)
	}
	return nil
}

func (r *StudentRepository) Create(ctx context.Context, student *domain.Student) (int64, error) {
	now := time.Now().UTC()
	student.CreatedAt = now
	student.UpdatedAt = now

	res, err := r.db.ExecContext(ctx, `
INSERT INTO students (first_name, last_name, email, phone, gender, profile_pic, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		student.FirstName,
		student.LastName,
		student.Email,
		student.Phone,
		string(student.Gender),
		student.ProfilePic,
		student.CreatedAt,
		student.UpdatedAt,
	)
	if err != nil {
		if _, ok := uniqueViolation(err); ok {
			return 0, oops.Code("STUDENT_CREATE_CONFLICT").With("email", student.Email).Wrap(repository.ErrDuplicate)
		}
		return 0, fmt.Errorf("insert student: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get last insert id: %w", err)
	}
	student.ID = id
	return id, nil
}

func (r *StudentRepository) Update(ctx context.Context, student *domain.Student) error {
	student.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
UPDATE students
SET first_name=?, last_name=?, email=?, phone=?, gender=?, profile_pic=?, updated_at=?
WHERE id=?`,
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
	return requireAffected(res)
}

func (r *StudentRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM students WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	return requireAffected(res)
}

func (r *StudentRepository) Get(ctx context.Context, id int64) (*domain.Student, error) {
	row := r.db.QueryRowContext(ctx, selectStudentColumns+` WHERE id=?`, id)
	student, err := scanStudent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return student, nil
}

func (r *StudentRepository) List(ctx context.Context) ([]domain.Student, error) {
	rows, err := r.db.QueryContext(ctx, selectStudentColumns+` ORDER BY id ASC`)
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
	err := r.db.QueryRowContext(ctx, `
SELECT EXISTS(SELECT 1 FROM students WHERE (email = ? OR phone = ?) AND id <> ?)`,
		email,
		phone,
		excludeID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check student exists: %w", err)
	}
	return exists, nil
}

func scanStudent(row interface {
	Scan(dest ...any) error
}) (*domain.Student, error) {
	var (
		student domain.Student
		gender  string
	)
	if err := row.Scan(
		&student.ID,
		&student.FirstName,
		&student.LastName,
		&student.Email,
		&student.Phone,
		&gender,
		&student.ProfilePic,
		&student.CreatedAt,
		&student.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan student: %w", err)
	}
	student.Gender = domain.Gender(gender)
	return &student, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}
