package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/avolkov/authd/internal/models"
)

const (
	defaultAccessHeaderName  = "Authorization"
	defaultAccessAuthScheme  = "Bearer"
	defaultRefreshCookieName = "refreshtoken"
)

var (
	ErrNoAccessToken  = errors.New("no access token in request")
	ErrNoRefreshToken = errors.New("no refresh token in request")
)

// SetTokenPairToResponse writes the pair to an http response: access token
// as a bearer Authorization header, refresh token as a HttpOnly strict
// same-site cookie so browser scripts never see it.
func (s *Service) SetTokenPairToResponse(w http.ResponseWriter, pair models.TokenPair) {
	w.Header().Set(s.accessHeaderName, s.accessAuthScheme+" "+pair.Access.Value)
	http.SetCookie(w, s.refreshCookie(pair.Refresh))
}

// SetTokenPairToRequest mirrors SetTokenPairToResponse for outgoing
// requests. Mostly useful in tests and client code.
func (s *Service) SetTokenPairToRequest(r *http.Request, pair models.TokenPair) {
	r.Header.Set(s.accessHeaderName, s.accessAuthScheme+" "+pair.Access.Value)
	r.AddCookie(s.refreshCookie(pair.Refresh))
}

// GetAccessString extracts the bearer access token from request headers
func (s *Service) GetAccessString(r *http.Request) (string, error) {
	header := r.Header.Get(s.accessHeaderName)
	if header == "" {
		return "", ErrNoAccessToken
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, s.accessAuthScheme) || token == "" {
		return "", fmt.Errorf("%w: malformed %s header", ErrNoAccessToken, s.accessHeaderName)
	}

	return token, nil
}

// GetRefreshString extracts the refresh token from the request cookie
func (s *Service) GetRefreshString(r *http.Request) (string, error) {
	cookie, err := r.Cookie(s.refreshCookieName)
	if err != nil {
		return "", ErrNoRefreshToken
	}

	return cookie.Value, nil
}

func (s *Service) refreshCookie(refresh models.IssuedToken) *http.Cookie {
	return &http.Cookie{
		Name:     s.refreshCookieName,
		Value:    refresh.Value,
		Path:     "/",
		MaxAge:   int(time.Until(refresh.ExpiresAt).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	}
}
