package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/avolkov/authd/internal/apperrors"
	"github.com/avolkov/authd/internal/handlers/render"
	"github.com/avolkov/authd/internal/models"
	"github.com/avolkov/authd/internal/service/auth"
)

// Slice of the auth coordinator the handlers need
type authService interface {
	Authenticate(ctx context.Context, identifier string, secret string, lookup auth.UserLookup) (models.Principal, error)
	Refresh(ctx context.Context, refresh string) (models.TokenPair, error)
	IssuePair(subject string, extra map[string]any) (models.TokenPair, error)

	SetTokenPairToResponse(w http.ResponseWriter, pair models.TokenPair)
	GetRefreshString(r *http.Request) (string, error)
}

// Slice of the user service the handlers need. LookupUser doubles as the
// lookup capability injected into Authenticate.
type userService interface {
	Register(ctx context.Context, username string, displayName string, password string) (models.User, error)
	LookupUser(ctx context.Context, identifier string) (models.User, error)
}

type AuthHandler struct {
	auth  authService
	users userService
}

func NewAuth(auth authService, users userService) *AuthHandler {
	return &AuthHandler{auth: auth, users: users}
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	type RegisterRequest struct {
		Login       string `json:"login" validate:"required,min=2,max=50"`
		DisplayName string `json:"display_name" validate:"max=100"`
		Password    string `json:"password" validate:"required,min=6"`
	}
	type RegisterSuccessResponse struct {
		Message string `json:"message"`
	}

	data, err := render.BindAndValidate[RegisterRequest](w, r)
	if err != nil {
		return
	}

	user, err := h.users.Register(r.Context(), data.Login, data.DisplayName, data.Password)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrUserAlreadyExists):
			render.ServiceError(w, "User already exists", http.StatusConflict)
		case errors.Is(err, apperrors.ErrInvalidSecret):
			render.ServiceError(w, "Password does not meet requirements", http.StatusBadRequest)
		default:
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	pair, err := h.auth.IssuePair(user.ID.String(), nil)
	if err != nil {
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.auth.SetTokenPairToResponse(w, pair)
	render.JSON(w, RegisterSuccessResponse{Message: "User registered successfully"})
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	type LoginRequest struct {
		Login    string `json:"login" validate:"required"`
		Password string `json:"password" validate:"required"`
	}
	type LoginSuccessResponse struct {
		Message string `json:"message"`
	}

	data, err := render.BindAndValidate[LoginRequest](w, r)
	if err != nil {
		return
	}

	principal, err := h.auth.Authenticate(r.Context(), data.Login, data.Password, auth.LookupFunc(h.users.LookupUser))
	if err != nil {
		var inactiveErr *apperrors.InactiveAccountError
		switch {
		case errors.Is(err, apperrors.ErrInvalidCredentials):
			render.ServiceError(w, "Invalid credentials", http.StatusUnauthorized)
		case errors.As(err, &inactiveErr):
			render.ServiceError(w, "Account is inactive", http.StatusForbidden)
		default:
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	h.auth.SetTokenPairToResponse(w, principal.Tokens)
	render.JSON(w, LoginSuccessResponse{Message: "User logged in successfully"})
}

func (h *AuthHandler) refresh(w http.ResponseWriter, r *http.Request) {
	type RefreshSuccessResponse struct {
		Message string `json:"message"`
	}

	refresh, err := h.auth.GetRefreshString(r)
	if err != nil {
		render.ServiceError(w, "Refresh token not found", http.StatusUnauthorized)
		return
	}

	pair, err := h.auth.Refresh(r.Context(), refresh)
	if err != nil {
		var expErr *apperrors.TokenExpiredError
		switch {
		case errors.As(err, &expErr):
			render.ServiceErrorFields(w, "Refresh token expired", http.StatusUnauthorized, map[string]string{
				"expired_at": expErr.ExpiredAt.Format(time.RFC3339),
			})
		case errors.Is(err, apperrors.ErrInvalidToken):
			render.ServiceError(w, "Invalid refresh token", http.StatusUnauthorized)
		default:
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	h.auth.SetTokenPairToResponse(w, pair)
	render.JSON(w, RefreshSuccessResponse{Message: "Tokens refreshed successfully"})
}
