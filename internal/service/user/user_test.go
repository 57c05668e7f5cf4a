package user

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/avolkov/authd/internal/apperrors"
	"github.com/avolkov/authd/internal/models"
	"github.com/avolkov/authd/internal/repository"
	"github.com/avolkov/authd/internal/service/auth"
)

// fakeRepo records the last create call and serves canned users
type fakeRepo struct {
	repository.UserRepo // panic on anything not overridden

	users          map[string]models.User
	lastCreateHash string
}

func (r *fakeRepo) CreateUser(ctx context.Context, username string, displayName string, hashedPassword string) (models.User, error) {
	if _, ok := r.users[username]; ok {
		return models.User{}, apperrors.ErrUserAlreadyExists
	}

	r.lastCreateHash = hashedPassword
	u := models.User{
		ID:           uuid.New(),
		Username:     username,
		DisplayName:  displayName,
		PasswordHash: hashedPassword,
		IsActive:     true,
	}
	if r.users == nil {
		r.users = make(map[string]models.User)
	}
	r.users[username] = u
	return u, nil
}

func (r *fakeRepo) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	u, ok := r.users[username]
	if !ok {
		return models.User{}, apperrors.ErrUserNotFound
	}
	return u, nil
}

func TestUserService_Register(t *testing.T) {
	t.Parallel()

	hasher := auth.BcryptHasher{Cost: 4}

	t.Run("register ok", func(t *testing.T) {
		t.Parallel()

		repo := &fakeRepo{}
		s := NewService(hasher, repo)

		user, err := s.Register(t.Context(), "nk", "Nick K", "StrongEnoughPassword")

		require.NoError(t, err)
		require.Equal(t, "nk", user.Username)
		require.Equal(t, "Nick K", user.DisplayName)
		require.True(t, user.IsActive, "new users should be active")

		require.NotEqual(t, "StrongEnoughPassword", repo.lastCreateHash, "password must never be stored as plaintext")
		require.True(t, hasher.Check("StrongEnoughPassword", repo.lastCreateHash), "stored hash should verify against the password")
	})

	t.Run("display name defaults to username", func(t *testing.T) {
		t.Parallel()

		s := NewService(hasher, &fakeRepo{})

		user, err := s.Register(t.Context(), "nk", "", "StrongEnoughPassword")

		require.NoError(t, err)
		require.Equal(t, "nk", user.DisplayName)
	})

	t.Run("short password rejected before touching the repo", func(t *testing.T) {
		t.Parallel()

		repo := &fakeRepo{}
		s := NewService(hasher, repo)

		_, err := s.Register(t.Context(), "nk", "", "short")

		require.ErrorIs(t, err, apperrors.ErrInvalidSecret)
		require.Empty(t, repo.lastCreateHash, "repo should not be called for a rejected password")
	})

	t.Run("duplicate username", func(t *testing.T) {
		t.Parallel()

		s := NewService(hasher, &fakeRepo{})

		_, err := s.Register(t.Context(), "nk", "", "StrongEnoughPassword")
		require.NoError(t, err)

		_, err = s.Register(t.Context(), "nk", "", "AnotherPassword")
		require.ErrorIs(t, err, apperrors.ErrUserAlreadyExists)
	})
}

func TestUserService_LookupUser(t *testing.T) {
	t.Parallel()

	s := NewService(auth.BcryptHasher{Cost: 4}, &fakeRepo{})

	registered, err := s.Register(t.Context(), "nk", "", "StrongEnoughPassword")
	require.NoError(t, err)

	t.Run("found", func(t *testing.T) {
		user, err := s.LookupUser(t.Context(), "nk")
		require.NoError(t, err)
		require.Equal(t, registered.ID, user.ID)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := s.LookupUser(t.Context(), "who-is-this")
		require.ErrorIs(t, err, apperrors.ErrUserNotFound)
	})
}
