package auth

import (
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/avolkov/authd/internal/apperrors"
)

const (
	// Minimal password length accepted by Hash
	// Policy choice, deliberately not configurable by callers
	minSecretLen = 6

	// bcrypt silently ignores everything after 72 bytes, so the input is
	// truncated the same way in Hash and Check to keep long passwords
	// verifiable
	maxSecretBytes = 72

	defaultBcryptCost = 12
)

// Known bcrypt version prefixes, used by Supports for hash-migration checks
var knownHashPrefixes = []string{"$2a$", "$2b$", "$2y$"}

// DefaultHasher is a ready to use hasher with the default work factor
var DefaultHasher = BcryptHasher{}

// BcryptHasher is a salted one-way password hasher. Zero value is usable
// and hashes with the default cost.
type BcryptHasher struct {
	// Work factor for new hashes. Zero means defaultBcryptCost.
	Cost int
}

func (h BcryptHasher) cost() int {
	if h.Cost == 0 {
		return defaultBcryptCost
	}
	return h.Cost
}

// Hash generates a fresh salted hash of secret. Same input produces a
// different hash on every call.
func (h BcryptHasher) Hash(secret string) (string, error) {
	if len(secret) < minSecretLen {
		return "", apperrors.ErrInvalidSecret
	}

	hash, err := bcrypt.GenerateFromPassword(truncateSecret(secret), h.cost())
	return string(hash), err
}

// Check reports whether secret matches hash. It never returns an error: a
// malformed or foreign-algorithm hash yields false, the same as a wrong
// password, so the login path can't crash or leak the difference. The
// underlying comparison is constant-time.
func (h BcryptHasher) Check(secret string, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), truncateSecret(secret))
	return err == nil
}

// Supports reports whether hash looks like something this hasher can
// verify. Unknown prefixes (including empty input) yield false.
func (h BcryptHasher) Supports(hash string) bool {
	for _, prefix := range knownHashPrefixes {
		if strings.HasPrefix(hash, prefix) {
			return true
		}
	}
	return false
}

func truncateSecret(secret string) []byte {
	b := []byte(secret)
	if len(b) > maxSecretBytes {
		b = b[:maxSecretBytes]
	}
	return b
}
