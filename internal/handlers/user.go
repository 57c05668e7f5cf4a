package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/avolkov/authd/internal/handlers/render"
	"github.com/avolkov/authd/internal/handlers/userctx"
)

// Who am i: return the authenticated user set by the auth middleware
func handleUserMe() http.Handler {
	type response struct {
		ID          uuid.UUID `json:"id"`
		Login       string    `json:"login"`
		DisplayName string    `json:"display_name"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		render.JSON(w, response{
			ID:          user.ID,
			Login:       user.Username,
			DisplayName: user.DisplayName,
		})
	})
}
