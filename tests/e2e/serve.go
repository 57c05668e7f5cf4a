package e2e

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stretchr/testify/require"

	"github.com/avolkov/authd/internal/handlers"
	"github.com/avolkov/authd/internal/handlers/middleware"
	"github.com/avolkov/authd/internal/repository/postgres"
	"github.com/avolkov/authd/internal/service/auth"
	"github.com/avolkov/authd/internal/service/auth/tokencodec"
	"github.com/avolkov/authd/internal/service/user"
	"github.com/avolkov/authd/internal/testutil"
)

type Services struct {
	AuthService *auth.Service
	UserService *user.Service
}

// Create db transaction and run server with that connection (one connection cause one transaction)
// The created transaction passed to inner function: so, you can safely use testutil.WithTx with it
func ServeWithTx(dbpool *pgxpool.Pool, t *testing.T, fn func(tx pgx.Tx, srvURL string, services Services)) {
	testutil.WithTx(dbpool, t, func(tx pgx.Tx) {
		// Initialize repositories
		userRepo := &postgres.UserRepo{DB: tx}

		// Initialize services. Low bcrypt cost to keep the suite fast
		codec, err := tokencodec.New(tokencodec.Config{
			SecretKey:  "test-secret-key-at-least-32-bytes-long",
			RefreshTTL: 24 * time.Hour,
		})
		require.NoError(t, err, "token codec should be created without errors")

		hasher := auth.BcryptHasher{Cost: 4}
		as, err := auth.NewService(auth.Config{Hasher: hasher}, codec)
		require.NoError(t, err, "auth service starting error", err)

		us := user.NewService(hasher, userRepo)

		// Initialize handlers
		authHandler := handlers.NewAuth(as, us)
		authMiddleware := middleware.AuthMiddleware(as, us)
		rateLimiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
			RequestsPerWindow: 1000,
			Window:            time.Minute,
			Burst:             1000,
		})

		// Complete all together as router
		router := handlers.NewRouter(
			authHandler,
			authMiddleware,
			rateLimiter.Middleware,
		)

		// Run http server with the router in transaction
		srv := httptest.NewServer(router)
		defer srv.Close()

		fn(tx, srv.URL, Services{
			AuthService: as,
			UserService: us,
		})
	})
}
