package handlers

import (
	"net/http"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

// NewRouter mounts the auth API. The rate limiter guards the credential
// endpoints only; /me is behind the auth middleware instead.
func NewRouter(
	authHandler *AuthHandler,
	authMiddleware func(next http.Handler) http.Handler,
	rateLimit func(next http.Handler) http.Handler,
	mds ...func(next http.Handler) http.Handler,
) http.Handler {
	apiauth := http.NewServeMux()

	apiauth.Handle("POST /register", rateLimit(http.HandlerFunc(authHandler.register)))
	apiauth.Handle("POST /login", rateLimit(http.HandlerFunc(authHandler.login)))
	apiauth.Handle("POST /refresh", rateLimit(http.HandlerFunc(authHandler.refresh)))
	apiauth.Handle("GET /me", authMiddleware(handleUserMe()))

	root := http.NewServeMux()
	root.Handle("/api/auth/", http.StripPrefix("/api/auth", apiauth))

	return chain(root, mds...)
}
