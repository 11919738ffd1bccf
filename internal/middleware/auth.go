package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/bishop254/vts-backend/internal/auth"
	"github.com/bishop254/vts-backend/internal/models"
	log "github.com/sirupsen/logrus"
)

type contextKey string

const (
	UserContextKey contextKey = "user"
)

// publicPaths are served without a bearer token.
var publicPaths = map[string]struct{}{
	"/user/login":  {},
	"/user/signup": {},
	"/vehicle/get": {},
	"/health":      {},
}

// AuthMiddleware provides JWT authentication middleware
type AuthMiddleware struct {
	authService *auth.Service
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(authService *auth.Service) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
	}
}

// Authenticate validates JWT tokens and adds the claims to the request context
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if shouldSkipAuth(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header required", http.StatusUnauthorized)
			return
		}

		token, err := m.authService.ExtractTokenFromHeader(authHeader)
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		claims, err := m.authService.ValidateToken(token)
		if err != nil {
			log.WithError(err).WithField("path", r.URL.Path).Debug("rejected token")
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole checks that the caller has the required role. Admins pass every check.
func (m *AuthMiddleware) RequireRole(requiredRole models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := GetUserFromContext(r.Context())
			if !ok {
				http.Error(w, "User context not found", http.StatusUnauthorized)
				return
			}

			if claims.Role != requiredRole && claims.Role != models.RoleAdmin {
				http.Error(w, "Insufficient permissions", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GetUserFromContext extracts user claims from request context
func GetUserFromContext(ctx context.Context) (*models.Claims, bool) {
	claims, ok := ctx.Value(UserContextKey).(*models.Claims)
	return claims, ok
}

func shouldSkipAuth(path string) bool {
	_, ok := publicPaths[strings.TrimSuffix(path, "/")]
	return ok
}

// RateLimitMiddleware provides basic per-client rate limiting
type RateLimitMiddleware struct {
	requests   map[string][]int64 // IP -> timestamps
	mu         sync.Mutex
	now        func() time.Time
	trustProxy bool
	lastSweep  int64
}

// NewRateLimitMiddleware creates a new rate limiting middleware. Forwarding
// headers identify the client only when trustProxy is set, that is when the
// service runs behind a proxy that overwrites them.
func NewRateLimitMiddleware(trustProxy bool) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		requests:   make(map[string][]int64),
		now:        time.Now,
		trustProxy: trustProxy,
	}
}

// RateLimit allows at most maxRequests per client IP inside a sliding window.
func (m *RateLimitMiddleware) RateLimit(maxRequests int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !m.allow(getClientIP(r, m.trustProxy), maxRequests, window) {
				http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m *RateLimitMiddleware) allow(clientIP string, maxRequests int, window time.Duration) bool {
	now := m.now().UnixNano()
	windowStart := now - window.Nanoseconds()

	m.mu.Lock()
	defer m.mu.Unlock()

	if now-m.lastSweep >= window.Nanoseconds() {
		m.sweep(windowStart)
		m.lastSweep = now
	}

	kept := pruneBefore(m.requests[clientIP], windowStart)
	if len(kept) >= maxRequests {
		m.requests[clientIP] = kept
		return false
	}

	m.requests[clientIP] = append(kept, now)
	return true
}

// sweep drops clients with no request inside the window. Callers hold mu.
func (m *RateLimitMiddleware) sweep(windowStart int64) {
	for ip, stamps := range m.requests {
		kept := pruneBefore(stamps, windowStart)
		if len(kept) == 0 {
			delete(m.requests, ip)
			continue
		}
		m.requests[ip] = kept
	}
}

func pruneBefore(stamps []int64, windowStart int64) []int64 {
	kept := stamps[:0]
	for _, ts := range stamps {
		if ts > windowStart {
			kept = append(kept, ts)
		}
	}
	return kept
}

// getClientIP returns the peer address of the request. X-Forwarded-For and
// X-Real-IP are honoured only when trustProxy is set.
func getClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
			return strings.TrimSpace(strings.Split(ip, ",")[0])
		}
		if ip := r.Header.Get("X-Real-IP"); ip != "" {
			return strings.TrimSpace(ip)
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
