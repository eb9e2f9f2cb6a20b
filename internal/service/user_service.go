package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"lead-radar/internal/auth"
	"lead-radar/internal/domain"
	"lead-radar/internal/repository"
)

const (
	msgEmailTaken         = "email already registered"
	msgInvalidCredentials = "incorrect email or password"
	minPasswordLength     = 8
)

// ErrUserNotFound is returned by GetByID when the subject no longer exists.
var ErrUserNotFound = errors.New("user not found")

// UserService describes user lifecycle operations.
type UserService interface {
	Register(ctx context.Context, email, password, name string) (*domain.User, error)
	Authenticate(ctx context.Context, email, password string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

type userService struct {
	users  repository.UserRepository
	hasher auth.PasswordHasher
	logger *logrus.Logger

	decoyOnce sync.Once
	decoy     string
}

func NewUserService(users repository.UserRepository, hasher auth.PasswordHasher, logger *logrus.Logger) UserService {
	if logger == nil {
		logger = logrus.New()
	}
	return &userService{
		users:  users,
		hasher: hasher,
		logger: logger,
	}
}

func (s *userService) Register(ctx context.Context, email, password, name string) (*domain.User, error) {
	email = strings.TrimSpace(email)
	name = strings.TrimSpace(name)

	fields := map[string]string{}
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		fields["email"] = "must be a valid email address"
	}
	if len(password) < minPasswordLength {
		fields["password"] = fmt.Sprintf("must be at least %d characters", minPasswordLength)
	}
	if name == "" {
		fields["name"] = "is required"
	}
	if len(fields) > 0 {
		return nil, domain.NewValidation("invalid registration", fields)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// The UNIQUE constraint on users.email decides races between concurrent registrations.
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, domain.NewConflict(msgEmailTaken)
		}
		return nil, err
	}

	return sanitizeUser(user), nil
}

func (s *userService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, domain.NewUnauthorized(msgInvalidCredentials)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Unknown emails pay the same hashing cost as wrong passwords.
			s.hasher.Verify(password, s.decoyHash())
			return nil, domain.NewUnauthorized(msgInvalidCredentials)
		}
		return nil, err
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, domain.NewUnauthorized(msgInvalidCredentials)
	}

	if s.hasher.NeedsRehash(user.PasswordHash) {
		s.rehash(ctx, user, password)
	}

	return sanitizeUser(user), nil
}

// fallbackDecoyHash is a well-formed cost 10 bcrypt hash; only its verification cost matters.
const fallbackDecoyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

func (s *userService) decoyHash() string {
	s.decoyOnce.Do(func() {
		hash, err := s.hasher.Hash(uuid.NewString())
		if err != nil {
			s.logger.Warnf("build decoy hash, using fallback: %v", err)
			hash = fallbackDecoyHash
		}
		s.decoy = hash
	})
	return s.decoy
}

// rehash upgrades a hash produced by a deprecated scheme. Failures only cost
// another attempt on the next login.
func (s *userService) rehash(ctx context.Context, user *domain.User, password string) {
	logger := s.logger.WithField("user_id", user.ID)
	hash, err := s.hasher.Hash(password)
	if err != nil {
		logger.Warnf("rehash password: %v", err)
		return
	}
	if err := s.users.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		logger.Warnf("store rehashed password: %v", err)
		return
	}
	user.PasswordHash = hash
	logger.Info("password hash upgraded")
}

func (s *userService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return sanitizeUser(user), nil
}

func sanitizeUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}
	return &domain.User{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}
