package service_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"student-records/internal/domain"
	"student-records/internal/repository"
	"student-records/internal/storage"
)

// memUsers enforces the same uniqueness rules as the SQL stores, atomically.
type memUsers struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]domain.User
	err    error
}

func newMemUsers() *memUsers {
	return &memUsers{users: make(map[int64]domain.User)}
}

func (r *memUsers) Init(context.Context) error { return nil }

func (r *memUsers) Create(_ context.Context, u *domain.User) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return 0, r.err
	}
	for _, existing := range r.users {
		if existing.Username == u.Username || strings.EqualFold(existing.Email, u.Email) {
			return 0, repository.ErrDuplicate
		}
		if u.Role == domain.RoleAdmin && existing.Role == domain.RoleAdmin {
			return 0, repository.ErrAdminExists
		}
	}
	r.nextID++
	u.ID = r.nextID
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	r.users[u.ID] = *u
	return u.ID, nil
}

func (r *memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memUsers) GetByID(_ context.Context, id int64) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *memUsers) ExistsByUsernameOrEmail(_ context.Context, username, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username || strings.EqualFold(u.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (r *memUsers) ExistsByRole(_ context.Context, role domain.Role) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Role == role {
			return true, nil
		}
	}
	return false, nil
}

func (r *memUsers) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}

type memStudents struct {
	mu       sync.Mutex
	nextID   int64
	students map[int64]domain.Student
}

func newMemStudents() *memStudents {
	return &memStudents{students: make(map[int64]domain.Student)}
}

func (r *memStudents) Init(context.Context) error { return nil }

func (r *memStudents) conflict(email, phone string, excludeID int64) bool {
	for id, s := range r.students {
		if id == excludeID {
			continue
		}
		if (email != "" && s.Email == email) || (phone != "" && s.Phone == phone) {
			return true
		}
	}
	return false
}

func (r *memStudents) Create(_ context.Context, s *domain.Student) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conflict(s.Email, s.Phone, 0) {
		return 0, repository.ErrDuplicate
	}
	r.nextID++
	s.ID = r.nextID
	r.students[s.ID] = *s
	return s.ID, nil
}

func (r *memStudents) Update(_ context.Context, s *domain.Student) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.students[s.ID]; !ok {
		return repository.ErrNotFound
	}
	if r.conflict(s.Email, s.Phone, s.ID) {
		return repository.ErrDuplicate
	}
	r.students[s.ID] = *s
	return nil
}

func (r *memStudents) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.students[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.students, id)
	return nil
}

func (r *memStudents) Get(_ context.Context, id int64) (*domain.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.students[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &s, nil
}

func (r *memStudents) List(context.Context) ([]domain.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Student, 0, len(r.students))
	for id := int64(1); id <= r.nextID; id++ {
		if s, ok := r.students[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *memStudents) ExistsByEmailOrPhone(_ context.Context, email, phone string, excludeID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.conflict(email, phone, excludeID), nil
}

type memStorage struct {
	mu        sync.Mutex
	objects   map[string][]byte
	deleteErr error
}

func newMemStorage() *memStorage {
	return &memStorage{objects: make(map[string][]byte)}
}

func (s *memStorage) Put(_ context.Context, obj storage.Object) error {
	data, err := io.ReadAll(obj.Body)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[obj.Key] = data
	return nil
}

func (s *memStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteErr != nil {
		return s.deleteErr
	}
	delete(s.objects, key)
	return nil
}

func (s *memStorage) URL(_ context.Context, key string, _ time.Duration) (string, error) {
	if key == "" {
		return "", errors.New("empty key")
	}
	return "/uploads/" + key, nil
}

func (s *memStorage) has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok
}

func (s *memStorage) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

func png(size int) *bytes.Reader {
	return bytes.NewReader(bytes.Repeat([]byte{0x89}, size))
}
