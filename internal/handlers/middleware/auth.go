package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/avolkov/authd/internal/handlers/render"
	"github.com/avolkov/authd/internal/handlers/userctx"
	"github.com/avolkov/authd/internal/models"
	"github.com/avolkov/authd/internal/service/auth/tokencodec"
)

// tokenVerifier is the slice of the auth service the middleware needs
type tokenVerifier interface {
	GetAccessString(r *http.Request) (string, error)
	VerifyAccess(token string) (tokencodec.Claims, error)
}

// userGetter resolves a verified subject into a user record
type userGetter interface {
	GetByID(ctx context.Context, userID uuid.UUID) (models.User, error)
}

// AuthMiddleware verifies the bearer access token, loads the user it is
// bound to and puts it into the request context. Everything that can go
// wrong maps to a single opaque 401: the reason is not the client's
// business.
func AuthMiddleware(verifier tokenVerifier, users userGetter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := verifier.GetAccessString(r)
			if err != nil {
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			claims, err := verifier.VerifyAccess(token)
			if err != nil {
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			// Subject is opaque to the token layer, only here it becomes a uuid again
			userID, err := uuid.Parse(claims.Subject)
			if err != nil {
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			user, err := users.GetByID(r.Context(), userID)
			if err != nil {
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			if !user.IsActive {
				render.ServiceError(w, "Account is inactive", http.StatusForbidden)
				return
			}

			ctx := userctx.New(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
