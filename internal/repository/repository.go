package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/avolkov/authd/internal/models"
)

// User repository interface
type UserRepo interface {
	// Create user
	// If user with username exists already has to return apperrors.ErrUserAlreadyExists
	CreateUser(ctx context.Context, username string, displayName string, hashedPassword string) (models.User, error)

	// Get user by it's id or username
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
	GetUserByUsername(ctx context.Context, username string) (models.User, error)

	// Switch the is_active flag
	// If user not found must return apperrors.ErrUserNotFound
	SetUserActive(ctx context.Context, userID uuid.UUID, active bool) (models.User, error)
}
