package tokencodec

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/avolkov/authd/internal/apperrors"
	"github.com/avolkov/authd/internal/models"
)

const (
	defaultSigningMethod   = "HS256"
	defaultAccessTokenTTL  = 30 * time.Minute
	defaultRefreshTokenTTL = 7 * 24 * time.Hour

	// Minimal secret key length in bytes
	// Shorter HMAC keys are brute-forceable, refuse to start with them
	MinSecretKeyLen = 32
)

// Kind discriminates access tokens from refresh tokens. It is signed into
// the token payload, so a refresh token can never pass where an access
// token is expected even if the wrong verifier is invoked on it.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// Claims is the signed token payload: standard sub/iat/exp/jti plus the
// token kind and an optional open map of caller-defined claims. The
// subject is an opaque string end-to-end; nothing here assumes it parses
// back to a uuid or an integer.
type Claims struct {
	jwt.RegisteredClaims
	Kind  Kind           `json:"type"`
	Extra map[string]any `json:"extra,omitempty"`
}

type Config struct {
	// Secret key to sign token payloads
	// Required, must be at least MinSecretKeyLen bytes
	SecretKey string

	// JWT MAC (Message Authentication Code) algorithm
	// If not set than default is used
	Alg string

	// Access and refresh token lifetimes
	// If not set than default is used
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Codec turns claims into signed compact tokens and back. It holds only
// immutable configuration, so a single instance may be shared between
// goroutines freely.
//
// Timestamps are compared with second granularity and without any
// clock-skew tolerance. If a deployment needs leeway it has to be layered
// by the caller, not silently added here.
type Codec struct {
	key []byte
	alg jwt.SigningMethod

	accessTTL  time.Duration
	refreshTTL time.Duration
}

func New(cfg Config) (*Codec, error) {
	if len(cfg.SecretKey) < MinSecretKeyLen {
		return nil, fmt.Errorf("secret key must be at least %d bytes long", MinSecretKeyLen)
	}

	if cfg.Alg == "" {
		cfg.Alg = defaultSigningMethod
	}
	alg := jwt.GetSigningMethod(cfg.Alg)
	if alg == nil {
		return nil, fmt.Errorf("unknown signing method %q", cfg.Alg)
	}

	setDefaultDuration := func(field *time.Duration, def time.Duration) {
		if *field == 0 {
			*field = def
		}
	}
	setDefaultDuration(&cfg.AccessTTL, defaultAccessTokenTTL)
	setDefaultDuration(&cfg.RefreshTTL, defaultRefreshTokenTTL)

	return &Codec{
		key:        []byte(cfg.SecretKey),
		alg:        alg,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
	}, nil
}

// Issue signs a new token of the given kind for subject.
// Zero ttl means the configured lifetime for that kind. Extra claims are
// carried opaque: the codec neither reads nor validates them.
func (c *Codec) Issue(subject string, kind Kind, ttl time.Duration, extra map[string]any) (models.IssuedToken, error) {
	var issued models.IssuedToken

	if subject == "" {
		return issued, apperrors.ErrEmptySubject
	}

	switch kind {
	case KindAccess:
		if ttl == 0 {
			ttl = c.accessTTL
		}
	case KindRefresh:
		if ttl == 0 {
			ttl = c.refreshTTL
		}
	default:
		return issued, fmt.Errorf("unknown token kind %q", kind)
	}
	if ttl < 0 {
		return issued, fmt.Errorf("token ttl must be positive, got %s", ttl)
	}

	now := time.Now().Truncate(time.Second)
	expiresAt := now.Add(ttl)

	token := jwt.NewWithClaims(c.alg, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Kind:  kind,
		Extra: extra,
	})

	value, err := token.SignedString(c.key)
	if err != nil {
		return issued, fmt.Errorf("error while signing %s token. Err: %w", kind, err)
	}

	return models.IssuedToken{Value: value, ExpiresAt: expiresAt}, nil
}

// Decode checks the signature and structure only: the token kind is not
// enforced here. An expired token fails with *apperrors.TokenExpiredError
// which still carries the decoded subject, kind and expiry instant.
func (c *Codec) Decode(tokenString string) (Claims, error) {
	var claims Claims

	_, err := jwt.ParseWithClaims(
		tokenString,
		&claims,
		c.keyFunc,
		jwt.WithValidMethods([]string{c.alg.Alg()}),
	)

	switch {
	case err == nil:
		return claims, nil
	case errors.Is(err, jwt.ErrTokenExpired):
		// Claims are decoded before validation, so subject and kind
		// survived the failure and may be surfaced for audit
		expErr := &apperrors.TokenExpiredError{
			Subject: claims.Subject,
			Kind:    string(claims.Kind),
		}
		if claims.ExpiresAt != nil {
			expErr.ExpiredAt = claims.ExpiresAt.Time
		}
		return Claims{}, expErr
	default:
		return Claims{}, fmt.Errorf("%w: %v", apperrors.ErrInvalidToken, err)
	}
}

// Verify is Decode plus kind enforcement
func (c *Codec) Verify(tokenString string, expect Kind) (Claims, error) {
	claims, err := c.Decode(tokenString)
	if err != nil {
		return Claims{}, err
	}

	if claims.Kind != expect {
		return Claims{}, &apperrors.WrongTokenKindError{
			Expected: string(expect),
			Actual:   string(claims.Kind),
		}
	}

	return claims, nil
}

// ExtractSubject returns the subject claim without enforcing expiry. The
// signature is still verified: a forged token must not be trusted even for
// logging. A validly signed token that was issued without a subject yields
// an empty string, not an error.
func (c *Codec) ExtractSubject(tokenString string) (string, error) {
	var claims Claims

	_, err := jwt.ParseWithClaims(
		tokenString,
		&claims,
		c.keyFunc,
		jwt.WithValidMethods([]string{c.alg.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrInvalidToken, err)
	}

	return claims.Subject, nil
}

func (c *Codec) keyFunc(t *jwt.Token) (any, error) {
	return c.key, nil
}
