package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/avolkov/authd/internal/db"
	"github.com/avolkov/authd/internal/handlers"
	"github.com/avolkov/authd/internal/handlers/middleware"
	"github.com/avolkov/authd/internal/logger"
	"github.com/avolkov/authd/internal/repository/postgres"
	"github.com/avolkov/authd/internal/service/auth"
	"github.com/avolkov/authd/internal/service/auth/tokencodec"
	"github.com/avolkov/authd/internal/service/user"
)

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	// Initialize logger
	log, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	secretKey, err := resolveSecretKey(c, log)
	if err != nil {
		return nil, err
	}

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}

	// Initialize repositories
	userRepo := &postgres.UserRepo{DB: pool}

	// Initialize services
	codec, err := tokencodec.New(tokencodec.Config{
		SecretKey:  secretKey,
		AccessTTL:  c.AccessTokenTTL,
		RefreshTTL: c.RefreshTokenTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("error while creating token codec. Err: %w", err)
	}

	hasher := auth.BcryptHasher{Cost: c.BcryptCost}
	authService, err := auth.NewService(auth.Config{Hasher: hasher}, codec)
	if err != nil {
		return nil, fmt.Errorf("error while creating auth service. Err: %w", err)
	}
	userService := user.NewService(hasher, userRepo)

	// Initialize handlers and middlewares
	authHandler := handlers.NewAuth(authService, userService)
	authMiddleware := middleware.AuthMiddleware(authService, userService)
	rateLimiter := middleware.NewRateLimiter(middleware.CredentialLimit)

	mux := handlers.NewRouter(
		authHandler,
		authMiddleware,
		rateLimiter.Middleware,
		middleware.LoggerMiddleware(log),
	)

	return &ServerApp{
		ListenAddr: c.ListenAddr,
		Handler:    mux,
	}, nil
}

// resolveSecretKey enforces the signing key policy: production requires an
// explicit key, dev may fall back to a throwaway one so the service is
// runnable without setup. Tokens signed with a throwaway key die with the
// process.
func resolveSecretKey(c *Config, log logger.Logger) (string, error) {
	if c.SecretKey != "" {
		return c.SecretKey, nil
	}

	if c.Environment != logger.EnvDev {
		return "", fmt.Errorf("SECRET_KEY is required, generate one with 'gensecret' and keep it out of the repo")
	}

	b := make([]byte, tokencodec.MinSecretKeyLen)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("error while generating throwaway secret key. Err: %w", err)
	}

	log.Warn("SECRET_KEY not set, using a throwaway key; issued tokens will not survive a restart")
	return hex.EncodeToString(b), nil
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.ListenAddr,
		Handler: s.Handler,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); err == context.DeadlineExceeded {
			slog.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		slog.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	slog.Info("Starting server", "addr", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed

	return err
}
