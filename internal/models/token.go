package models

import (
	"time"

	"github.com/google/uuid"
)

// IssuedToken is a signed token string together with its expiry instant.
// The token is stateless: nothing about it is persisted server side.
type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}

// TokenPair issued together on login, registration and every refresh.
// Either token may be used independently once issued.
type TokenPair struct {
	Access  IssuedToken
	Refresh IssuedToken
}

// Principal is the result of a successful authentication
type Principal struct {
	UserID      uuid.UUID
	DisplayName string
	Tokens      TokenPair
}
