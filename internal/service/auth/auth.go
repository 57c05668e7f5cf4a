package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/avolkov/authd/internal/apperrors"
	"github.com/avolkov/authd/internal/models"
	"github.com/avolkov/authd/internal/service/auth/tokencodec"
)

// Interface to create or compare user password hashes
type PasswordHasher interface {
	// Generate Hash from password
	Hash(secret string) (string, error)

	// Compare known hash and user provided password
	// Must be protected against timing attacks and never error on garbage
	Check(secret string, hash string) bool
}

// UserLookup is the capability the coordinator uses to find a user record.
// It is injected per call: the coordinator never knows whether it is backed
// by a database, a cache or a test map. "No such user" is signalled with
// apperrors.ErrUserNotFound; any other error is treated as an
// infrastructure failure and propagated unchanged.
type UserLookup interface {
	LookupUser(ctx context.Context, identifier string) (models.User, error)
}

// LookupFunc adapts a plain function to the UserLookup interface
type LookupFunc func(ctx context.Context, identifier string) (models.User, error)

func (f LookupFunc) LookupUser(ctx context.Context, identifier string) (models.User, error) {
	return f(ctx, identifier)
}

type Config struct {
	// Hasher used to verify passwords on login
	// If not set the default bcrypt hasher is used
	Hasher PasswordHasher

	// Header and cookie names used by the transport helpers
	// If not set than default is used
	AccessHeaderName  string
	AccessAuthScheme  string
	RefreshCookieName string
}

// Service composes the password hasher and the token codec into the
// user-facing authenticate/refresh/verify operations. It is stateless and
// holds no repositories: persistence stays behind the injected UserLookup.
type Service struct {
	codec  *tokencodec.Codec
	hasher PasswordHasher

	// Hash of a throwaway secret, compared against on lookup misses so a
	// nonexistent user costs the same wall-clock time as a wrong password
	dummyHash string

	accessHeaderName  string
	accessAuthScheme  string
	refreshCookieName string
}

func NewService(cfg Config, codec *tokencodec.Codec) (*Service, error) {
	if codec == nil {
		return nil, errors.New("token codec must not be nil")
	}

	hasher := cfg.Hasher
	if hasher == nil {
		hasher = DefaultHasher
	}

	dummyHash, err := hasher.Hash(uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("error while preparing dummy hash. Err: %w", err)
	}

	setDefaultString := func(field *string, def string) {
		if *field == "" {
			*field = def
		}
	}
	setDefaultString(&cfg.AccessHeaderName, defaultAccessHeaderName)
	setDefaultString(&cfg.AccessAuthScheme, defaultAccessAuthScheme)
	setDefaultString(&cfg.RefreshCookieName, defaultRefreshCookieName)

	return &Service{
		codec:             codec,
		hasher:            hasher,
		dummyHash:         dummyHash,
		accessHeaderName:  cfg.AccessHeaderName,
		accessAuthScheme:  cfg.AccessAuthScheme,
		refreshCookieName: cfg.RefreshCookieName,
	}, nil
}

// Authenticate verifies identifier/secret against the record returned by
// lookup and mints a token pair for it.
//
// A missing user and a wrong password fail with the same
// apperrors.ErrInvalidCredentials: nothing in the error type, message or
// timing may reveal which one happened. An inactive account is reported
// distinctly, but only after the password has been proven correct.
func (s *Service) Authenticate(ctx context.Context, identifier string, secret string, lookup UserLookup) (models.Principal, error) {
	var principal models.Principal

	user, err := lookup.LookupUser(ctx, identifier)
	switch {
	case errors.Is(err, apperrors.ErrUserNotFound):
		// Burn a comparable amount of time before failing
		s.hasher.Check(secret, s.dummyHash)
		return principal, apperrors.ErrInvalidCredentials
	case err != nil:
		// Infrastructure failure, not a credential failure
		return principal, err
	}

	if !s.hasher.Check(secret, user.PasswordHash) {
		return principal, apperrors.ErrInvalidCredentials
	}

	if !user.IsActive {
		return principal, &apperrors.InactiveAccountError{AccountID: user.ID}
	}

	pair, err := s.IssuePair(user.ID.String(), nil)
	if err != nil {
		return principal, err
	}

	return models.Principal{
		UserID:      user.ID,
		DisplayName: user.DisplayName,
		Tokens:      pair,
	}, nil
}

// Refresh validates a refresh token and mints a brand-new pair for the
// same subject. The old refresh token is not reused: both returned tokens
// are fresh, and any extra claims of the original are carried forward into
// them unchanged.
func (s *Service) Refresh(ctx context.Context, refresh string) (models.TokenPair, error) {
	claims, err := s.codec.Verify(refresh, tokencodec.KindRefresh)
	if err != nil {
		return models.TokenPair{}, err
	}

	return s.IssuePair(claims.Subject, claims.Extra)
}

// VerifyAccess is the single call request-authorization middleware makes
func (s *Service) VerifyAccess(token string) (tokencodec.Claims, error) {
	return s.codec.Verify(token, tokencodec.KindAccess)
}

// IssuePair mints an access and a refresh token bound to subject. Used on
// login, on refresh and right after registration, when the password has
// just been set and needs no re-verification.
func (s *Service) IssuePair(subject string, extra map[string]any) (models.TokenPair, error) {
	var pair models.TokenPair

	access, err := s.codec.Issue(subject, tokencodec.KindAccess, 0, extra)
	if err != nil {
		return pair, fmt.Errorf("error while issuing access token. Err: %w", err)
	}

	refresh, err := s.codec.Issue(subject, tokencodec.KindRefresh, 0, extra)
	if err != nil {
		return pair, fmt.Errorf("error while issuing refresh token. Err: %w", err)
	}

	return models.TokenPair{Access: access, Refresh: refresh}, nil
}
