package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/avolkov/authd/internal/handlers/render"
)

// RateLimitConfig defines the token bucket guarding an endpoint group
type RateLimitConfig struct {
	// RequestsPerWindow requests are allowed per Window
	RequestsPerWindow int
	Window            time.Duration

	// Burst allows short spikes above the sustained rate
	Burst int
}

// CredentialLimit is the default profile for login/register/refresh:
// strict, these endpoints are the brute force target.
var CredentialLimit = RateLimitConfig{
	RequestsPerWindow: 10,
	Window:            time.Minute,
	Burst:             10,
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps a per-client token bucket keyed by remote IP. Entries
// idle longer than staleAfter are dropped on the next sweep so the map
// does not grow without bound.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientLimiter

	limit      rate.Limit
	burst      int
	staleAfter time.Duration
	lastSweep  time.Time
}

func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		clients:    make(map[string]*clientLimiter),
		limit:      rate.Limit(float64(cfg.RequestsPerWindow) / cfg.Window.Seconds()),
		burst:      cfg.Burst,
		staleAfter: 10 * time.Minute,
	}
}

// Allow reports whether the client identified by key may proceed
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	rl.sweepLocked(now)

	client, ok := rl.clients[key]
	if !ok {
		client = &clientLimiter{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[key] = client
	}
	client.lastSeen = now

	return client.limiter.Allow()
}

// sweepLocked drops idle clients, at most once per staleAfter interval
func (rl *RateLimiter) sweepLocked(now time.Time) {
	if now.Sub(rl.lastSweep) < rl.staleAfter {
		return
	}
	rl.lastSweep = now

	for key, client := range rl.clients {
		if now.Sub(client.lastSeen) > rl.staleAfter {
			delete(rl.clients, key)
		}
	}
}

// Middleware applies the limiter keyed by the request's remote IP
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(clientIP(r)) {
			render.ServiceError(w, "Too many requests", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
