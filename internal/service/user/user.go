package user

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/avolkov/authd/internal/models"
	"github.com/avolkov/authd/internal/repository"
	"github.com/avolkov/authd/internal/service/auth"
)

type Service struct {
	hasher   auth.PasswordHasher
	userRepo repository.UserRepo
}

func NewService(hasher auth.PasswordHasher, userRepo repository.UserRepo) *Service {
	if hasher == nil {
		hasher = auth.DefaultHasher
	}

	return &Service{
		hasher:   hasher,
		userRepo: userRepo,
	}
}

// Register creates a user with a freshly hashed password. New accounts are
// active from the start. Duplicate usernames surface as
// apperrors.ErrUserAlreadyExists, password policy violations as
// apperrors.ErrInvalidSecret.
func (s *Service) Register(ctx context.Context, username string, displayName string, password string) (models.User, error) {
	var user models.User

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return user, fmt.Errorf("can't use this as password. Err: %w", err)
	}

	if displayName == "" {
		displayName = username
	}

	user, err = s.userRepo.CreateUser(ctx, username, displayName, hash)
	if err != nil {
		return user, fmt.Errorf("can't create user. Err: %w", err)
	}

	return user, nil
}

func (s *Service) GetByID(ctx context.Context, userID uuid.UUID) (models.User, error) {
	return s.userRepo.GetUserByID(ctx, userID)
}

// SetActive switches the account on or off. Deactivated users keep their
// record and password, they just can't authenticate anymore.
func (s *Service) SetActive(ctx context.Context, userID uuid.UUID, active bool) (models.User, error) {
	return s.userRepo.SetUserActive(ctx, userID, active)
}

// LookupUser makes the service usable as the auth coordinator's UserLookup
// capability. Identifier is the username.
func (s *Service) LookupUser(ctx context.Context, identifier string) (models.User, error) {
	return s.userRepo.GetUserByUsername(ctx, identifier)
}
