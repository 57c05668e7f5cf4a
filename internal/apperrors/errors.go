package apperrors

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrUserNotFound      = errors.New("user not found")

	// Returned both when the user does not exist and when the password is
	// wrong. The two cases must stay indistinguishable in type and message.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Password does not satisfy the minimal policy (too short)
	ErrInvalidSecret = errors.New("password does not meet requirements")

	// Token can't be issued without a subject
	ErrEmptySubject = errors.New("token subject must not be empty")

	// Token failed signature or structural validation
	ErrInvalidToken = errors.New("invalid token")

	ErrTokenExpired = errors.New("token is expired")
)

// TokenExpiredError carries the claims that could still be decoded from an
// expired token, so callers can log or audit without a second decode pass.
type TokenExpiredError struct {
	Subject   string
	Kind      string
	ExpiredAt time.Time
}

func (e *TokenExpiredError) Error() string {
	return fmt.Sprintf("token is expired since %s", e.ExpiredAt.Format(time.RFC3339))
}

func (e *TokenExpiredError) Is(target error) bool {
	return target == ErrTokenExpired
}

// WrongTokenKindError is raised when a token of one kind is presented to an
// operation that expects the other (refresh token on an access path or vice
// versa). It matches ErrInvalidToken via errors.Is.
type WrongTokenKindError struct {
	Expected string
	Actual   string
}

func (e *WrongTokenKindError) Error() string {
	return fmt.Sprintf("wrong token kind: expected %q, got %q", e.Expected, e.Actual)
}

func (e *WrongTokenKindError) Is(target error) bool {
	return target == ErrInvalidToken
}

// InactiveAccountError is distinguishable from ErrInvalidCredentials on
// purpose: it is returned only after the password has been proven correct.
type InactiveAccountError struct {
	AccountID uuid.UUID
}

func (e *InactiveAccountError) Error() string {
	return fmt.Sprintf("account %s is inactive", e.AccountID)
}
