package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"student-records/internal/auth"
	"student-records/internal/domain"
	"student-records/internal/repository"
)

const (
	msgMissingFields   = "All required fields must be filled."
	msgUserExists      = "User with this email or username already exists."
	msgAdminExists     = "An ADMIN user already exists. Only one ADMIN is allowed."
	msgInvalidRole     = "Role must be one of ADMIN, USER or OTHER."
	msgPasswordTooLong = "Password must be at most 72 bytes."
	msgLoginMissing    = "Email and password are required."
	msgInvalidLogin    = "Invalid credentials."
)

// RegisterInput is the payload of an account registration.
type RegisterInput struct {
	Username string
	Name     string
	Email    string
	Password string
	Role     string
}

// LoginResult is a freshly issued session.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *domain.User
}

// UserService describes user lifecycle operations.
type UserService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

type userService struct {
	users    repository.UserRepository
	hasher   auth.PasswordHasher
	tokens   auth.TokenIssuer
	tokenTTL time.Duration
	logger   logrus.FieldLogger

	dummyOnce sync.Once
	dummyHash string
}

func NewUserService(users repository.UserRepository, hasher auth.PasswordHasher, tokens auth.TokenIssuer, tokenTTL time.Duration, logger logrus.FieldLogger) UserService {
	if tokenTTL <= 0 {
		tokenTTL = auth.DefaultTokenTTL
	}
	return &userService{
		users:    users,
		hasher:   hasher,
		tokens:   tokens,
		tokenTTL: tokenTTL,
		logger:   logger.WithField("component", "user_service"),
	}
}

// Register creates an account. The uniqueness and single-ADMIN pre-checks
// only produce friendlier early failures; the store's unique indexes are
// authoritative and their violations are reported the same way.
func (s *userService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	username := strings.TrimSpace(in.Username)
	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)

	if username == "" || name == "" || email == "" || in.Password == "" {
		return nil, newError(ErrValidation, msgMissingFields)
	}

	role := domain.RoleUser
	if r := strings.TrimSpace(in.Role); r != "" {
		role = domain.Role(strings.ToUpper(r))
		if !role.Valid() {
			return nil, newError(ErrValidation, msgInvalidRole)
		}
	}

	exists, err := s.users.ExistsByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return nil, internalError("check existing user", err)
	}
	if exists {
		return nil, newError(ErrConflict, msgUserExists)
	}

	if role == domain.RoleAdmin {
		adminExists, err := s.users.ExistsByRole(ctx, domain.RoleAdmin)
		if err != nil {
			return nil, internalError("check existing admin", err)
		}
		if adminExists {
			return nil, newError(ErrForbidden, msgAdminExists)
		}
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return nil, newError(ErrValidation, msgPasswordTooLong)
		}
		return nil, internalError("hash password", err)
	}

	user := &domain.User{
		Username:     username,
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}

	if _, err := s.users.Create(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrAdminExists):
			return nil, newError(ErrForbidden, msgAdminExists)
		case errors.Is(err, repository.ErrDuplicate):
			return nil, newError(ErrConflict, msgUserExists)
		}
		return nil, internalError("create user", err)
	}

	s.logger.WithFields(logrus.Fields{"user_id": user.ID, "role": user.Role}).Info("user registered")
	return sanitizeUser(user), nil
}

// Login verifies credentials and issues a session token. Unknown emails and
// wrong passwords produce the same error; the reason is only logged.
func (s *userService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, newError(ErrValidation, msgLoginMissing)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.burnVerify(password)
			s.logger.WithField("reason", "email_not_found").Info("login failed")
			return nil, newError(ErrInvalidCredentials, msgInvalidLogin)
		}
		return nil, internalError("lookup user", err)
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return nil, internalError("verify password", err)
	}
	if !ok {
		s.logger.WithFields(logrus.Fields{"reason": "password_mismatch", "user_id": user.ID}).Info("login failed")
		return nil, newError(ErrInvalidCredentials, msgInvalidLogin)
	}

	token, expiresAt, err := s.tokens.Issue(auth.Claims{
		ID:       user.ID,
		Username: user.Username,
		Role:     user.Role,
	}, s.tokenTTL)
	if err != nil {
		return nil, internalError("issue token", err)
	}

	s.logger.WithField("user_id", user.ID).Info("user logged in")
	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: sanitizeUser(user)}, nil
}

func (s *userService) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(ErrNotFound, "User not found.")
		}
		return nil, internalError("get user", err)
	}
	return sanitizeUser(user), nil
}

// burnVerify spends roughly the time of a real verification so response
// latency does not reveal whether an email is registered.
func (s *userService) burnVerify(password string) {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Hash("dummy-password-for-timing")
	})
	if s.dummyHash != "" {
		_, _ = s.hasher.Verify(password, s.dummyHash)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func sanitizeUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}
	return &domain.User{
		ID:        user.ID,
		Username:  user.Username,
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}
