package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"student-records/internal/domain"
	"student-records/internal/repository"
	"student-records/internal/storage"
)

// MaxPictureSize is the largest accepted profile picture.
const MaxPictureSize = 3 << 20

const (
	msgStudentFields   = "All fields (first name, last name, email, phone, gender) are required."
	msgInvalidGender   = "Gender must be one of Male, Female or Other."
	msgStudentExists   = "Student with this email or phone already exists."
	msgStudentConflict = "Another student with the same email or phone already exists."
	msgStudentNotFound = "Student not found."
	msgFileTooLarge    = "File too large. Maximum size allowed is 3MB."
	msgNotAnImage      = "Only image files are allowed!"
)

// Picture is an uploaded profile picture.
type Picture struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// StudentInput carries create/update fields. On update, empty fields keep
// their stored value.
type StudentInput struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Gender    string
	Picture   *Picture
}

// StudentService manages student records behind the request gate.
type StudentService interface {
	List(ctx context.Context) ([]domain.Student, error)
	Get(ctx context.Context, id int64) (*domain.Student, error)
	Create(ctx context.Context, in StudentInput) (*domain.Student, error)
	Update(ctx context.Context, id int64, in StudentInput) (*domain.Student, error)
	Delete(ctx context.Context, id int64) (*domain.Student, error)
	PictureURL(ctx context.Context, key string) (string, error)
}

type studentService struct {
	students repository.StudentRepository
	pictures storage.Service
	logger   logrus.FieldLogger
}

func NewStudentService(students repository.StudentRepository, pictures storage.Service, logger logrus.FieldLogger) StudentService {
	return &studentService{
		students: students,
		pictures: pictures,
		logger:   logger.WithField("component", "student_service"),
	}
}

func (s *studentService) List(ctx context.Context) ([]domain.Student, error) {
	students, err := s.students.List(ctx)
	if err != nil {
		return nil, internalError("list students", err)
	}
	return students, nil
}

func (s *studentService) Get(ctx context.Context, id int64) (*domain.Student, error) {
	student, err := s.students.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(ErrNotFound, msgStudentNotFound)
		}
		return nil, internalError("get student", err)
	}
	return student, nil
}

func (s *studentService) Create(ctx context.Context, in StudentInput) (*domain.Student, error) {
	student := &domain.Student{
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Email:     normalizeEmail(in.Email),
		Phone:     strings.TrimSpace(in.Phone),
		Gender:    domain.Gender(strings.TrimSpace(in.Gender)),
	}
	if student.FirstName == "" || student.LastName == "" || student.Email == "" || student.Phone == "" || student.Gender == "" {
		return nil, newError(ErrValidation, msgStudentFields)
	}
	if !student.Gender.Valid() {
		return nil, newError(ErrValidation, msgInvalidGender)
	}
	if err := validatePicture(in.Picture); err != nil {
		return nil, err
	}

	exists, err := s.students.ExistsByEmailOrPhone(ctx, student.Email, student.Phone, 0)
	if err != nil {
		return nil, internalError("check existing student", err)
	}
	if exists {
		return nil, newError(ErrConflict, msgStudentExists)
	}

	if in.Picture != nil {
		key, err := s.storePicture(ctx, in.Picture)
		if err != nil {
			return nil, err
		}
		student.ProfilePic = key
	}

	if _, err := s.students.Create(ctx, student); err != nil {
		s.discardPicture(ctx, student.ProfilePic)
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, newError(ErrConflict, msgStudentExists)
		}
		return nil, internalError("create student", err)
	}
	return student, nil
}

func (s *studentService) Update(ctx context.Context, id int64, in StudentInput) (*domain.Student, error) {
	student, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := validatePicture(in.Picture); err != nil {
		return nil, err
	}

	email := normalizeEmail(in.Email)
	phone := strings.TrimSpace(in.Phone)
	if email != "" || phone != "" {
		exists, err := s.students.ExistsByEmailOrPhone(ctx, email, phone, id)
		if err != nil {
			return nil, internalError("check existing student", err)
		}
		if exists {
			return nil, newError(ErrConflict, msgStudentConflict)
		}
	}

	if v := strings.TrimSpace(in.FirstName); v != "" {
		student.FirstName = v
	}
	if v := strings.TrimSpace(in.LastName); v != "" {
		student.LastName = v
	}
	if email != "" {
		student.Email = email
	}
	if phone != "" {
		student.Phone = phone
	}
	if v := strings.TrimSpace(in.Gender); v != "" {
		student.Gender = domain.Gender(v)
		if !student.Gender.Valid() {
			return nil, newError(ErrValidation, msgInvalidGender)
		}
	}

	oldPicture := student.ProfilePic
	if in.Picture != nil {
		key, err := s.storePicture(ctx, in.Picture)
		if err != nil {
			return nil, err
		}
		student.ProfilePic = key
	}

	if err := s.students.Update(ctx, student); err != nil {
		if student.ProfilePic != oldPicture {
			s.discardPicture(ctx, student.ProfilePic)
		}
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, newError(ErrNotFound, msgStudentNotFound)
		case errors.Is(err, repository.ErrDuplicate):
			return nil, newError(ErrConflict, msgStudentConflict)
		}
		return nil, internalError("update student", err)
	}

	if student.ProfilePic != oldPicture {
		s.discardPicture(ctx, oldPicture)
	}
	return student, nil
}

func (s *studentService) Delete(ctx context.Context, id int64) (*domain.Student, error) {
	student, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.students.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(ErrNotFound, msgStudentNotFound)
		}
		return nil, internalError("delete student", err)
	}
	s.discardPicture(ctx, student.ProfilePic)
	return student, nil
}

func (s *studentService) PictureURL(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", nil
	}
	url, err := s.pictures.URL(ctx, key, time.Hour)
	if err != nil {
		return "", internalError("picture url", err)
	}
	return url, nil
}

func (s *studentService) storePicture(ctx context.Context, pic *Picture) (string, error) {
	key := uuid.NewString() + strings.ToLower(filepath.Ext(pic.Filename))
	if err := s.pictures.Put(ctx, storage.Object{
		Key:         key,
		ContentType: pic.ContentType,
		Size:        pic.Size,
		Body:        pic.Body,
	}); err != nil {
		return "", internalError("store picture", err)
	}
	return key, nil
}

// discardPicture removes an object that is no longer referenced. Failures
// leave an orphan behind and are only logged.
func (s *studentService) discardPicture(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.pictures.Delete(ctx, key); err != nil {
		s.logger.WithField("key", key).Warnf("delete picture: %v", err)
	}
}

func validatePicture(pic *Picture) error {
	if pic == nil {
		return nil
	}
	if pic.Size > MaxPictureSize {
		return newError(ErrValidation, msgFileTooLarge)
	}
	if !strings.HasPrefix(strings.ToLower(pic.ContentType), "image/") {
		return newError(ErrValidation, msgNotAnImage)
	}
	if pic.Body == nil {
		return newError(ErrValidation, fmt.Sprintf("Picture %q has no content.", pic.Filename))
	}
	return nil
}
