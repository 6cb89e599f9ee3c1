// Package accounts registers and authenticates users.
package accounts

import (
	"context"
	"errors"
	"strings"

	"finance-tracker/internal/auth"
	"finance-tracker/internal/models"
	"finance-tracker/internal/storage"

	"github.com/rs/zerolog"
)

// ErrInvalidCredentials is returned for an unknown username or a wrong
// password. Both cases yield the same error.
var ErrInvalidCredentials = errors.New("invalid username or password")

// UserRepo is the persistence the store needs.
type UserRepo interface {
	CreateUser(ctx context.Context, username, passwordHash string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	UpdatePasswordHash(ctx context.Context, id int64, passwordHash string) error
}

// Store handles user registration and credential checks.
type Store struct {
	repo UserRepo
}

// NewStore returns a new Store.
func NewStore(repo UserRepo) *Store {
	return &Store{repo: repo}
}

// Register creates a user. It returns false without changing anything when
// the username is already taken; errors are reserved for storage failures.
func (s *Store) Register(ctx context.Context, username, password string) (bool, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return false, err
	}
	if _, err := s.repo.CreateUser(ctx, strings.TrimSpace(username), hash); err != nil {
		if errors.Is(err, storage.ErrUsernameTaken) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Authenticate returns the user matching username and password, or
// ErrInvalidCredentials. A matching unsalted digest from an older database is
// replaced by a bcrypt hash.
func (s *Store) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.repo.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !auth.CheckPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	if auth.IsLegacyHash(user.PasswordHash) {
		if hash, err := auth.HashPassword(password); err == nil {
			if err := s.repo.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
				zerolog.Ctx(ctx).Warn().Err(err).Int64("user_id", user.ID).Msg("Failed to upgrade legacy password hash")
			} else {
				user.PasswordHash = hash
			}
		}
	}
	return user, nil
}
