package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	corsAllowMethods = "GET, HEAD, PUT, PATCH, POST, DELETE"
	corsAllowHeaders = "Content-Type, Authorization"
	corsMaxAge       = 10 * time.Minute
)

// CORSMiddleware answers preflight requests and marks responses readable by
// the allowed browser origins.
type CORSMiddleware struct {
	origins   map[string]struct{}
	anyOrigin bool
}

// NewCORSMiddleware creates the middleware. "*" allows every origin.
func NewCORSMiddleware(allowedOrigins []string) *CORSMiddleware {
	m := &CORSMiddleware{origins: make(map[string]struct{})}
	for _, origin := range allowedOrigins {
		origin = strings.TrimSuffix(strings.TrimSpace(origin), "/")
		switch origin {
		case "":
		case "*":
			m.anyOrigin = true
		default:
			m.origins[strings.ToLower(origin)] = struct{}{}
		}
	}
	return m
}

// Handler must wrap Authenticate so preflights never need a token.
func (m *CORSMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" {
			next.ServeHTTP(w, r)
			return
		}

		preflight := r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != ""
		w.Header().Add("Vary", "Origin")

		if !m.allowed(origin) {
			if preflight {
				http.Error(w, "Origin not allowed", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		if m.anyOrigin {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		} else {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		}

		if !preflight {
			w.Header().Set("Access-Control-Expose-Headers", RequestIDHeader)
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Add("Vary", "Access-Control-Request-Method")
		w.Header().Add("Vary", "Access-Control-Request-Headers")
		w.Header().Set("Access-Control-Allow-Methods", corsAllowMethods)
		if requested := r.Header.Get("Access-Control-Request-Headers"); requested != "" {
			w.Header().Set("Access-Control-Allow-Headers", requested)
		} else {
			w.Header().Set("Access-Control-Allow-Headers", corsAllowHeaders)
		}
		w.Header().Set("Access-Control-Max-Age", strconv.Itoa(int(corsMaxAge.Seconds())))
		w.WriteHeader(http.StatusNoContent)
	})
}

func (m *CORSMiddleware) allowed(origin string) bool {
	if m.anyOrigin {
		return true
	}
	_, ok := m.origins[strings.ToLower(strings.TrimSuffix(origin, "/"))]
	return ok
}
