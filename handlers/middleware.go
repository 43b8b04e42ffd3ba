package handlers

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/capactiyvirus/carebook-backend/models"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

type contextKey string

const (
	UserIDKey   contextKey = "user_id"
	UserRoleKey contextKey = "user_role"
)

// UserID returns the authenticated user id stored by Authenticate
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(UserIDKey).(string)
	return id
}

// UserRole returns the role claim stored by Authenticate
func UserRole(ctx context.Context) models.Role {
	role, _ := ctx.Value(UserRoleKey).(models.Role)
	return role
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

// Authenticate requires a valid bearer token. Unauthenticated requests are
// told to go to loginPath.
func (h *Handlers) Authenticate(loginPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				respondWithRedirect(w, http.StatusUnauthorized, "Authentication required", loginPath)
				return
			}

			claims, err := h.svc.Auth.ParseToken(token)
			if err != nil {
				respondWithRedirect(w, http.StatusUnauthorized, "Authentication required", loginPath)
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, claims.Subject)
			ctx = context.WithValue(ctx, UserRoleKey, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin checks the stored profile's role, not the token claim
func (h *Handlers) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := h.svc.Access.RequireRole(r.Context(), UserID(r.Context()), models.RoleAdmin); err != nil {
			h.handleError(w, r, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter holds the per-IP rate limiting state
type RateLimiter struct {
	visitors map[string]*visitor
	mtx      sync.RWMutex

	limit  rate.Limit
	burst  int
	logger zerolog.Logger
}

// NewRateLimiter creates a rate limiter allowing rps requests per second per IP.
// A non-positive rps disables limiting.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	rl := &RateLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Limit(rps),
		burst:    burst,
		logger:   zerolog.Nop(),
	}
	if rps > 0 {
		go rl.cleanupVisitors()
	}
	return rl
}

// WithLogger sets where rejected requests are logged
func (rl *RateLimiter) WithLogger(logger zerolog.Logger) *RateLimiter {
	rl.logger = logger
	return rl
}

func (rl *RateLimiter) addVisitor(identifier string) *rate.Limiter {
	limiter := rate.NewLimiter(rl.limit, rl.burst)

	rl.mtx.Lock()
	defer rl.mtx.Unlock()
	if v, exists := rl.visitors[identifier]; exists {
		return v.limiter
	}
	rl.visitors[identifier] = &visitor{
		limiter:  limiter,
		lastSeen: time.Now(),
	}
	return limiter
}

// getVisitor returns the limiter for identifier, adding it if not seen before
func (rl *RateLimiter) getVisitor(identifier string) *rate.Limiter {
	rl.mtx.Lock()
	v, exists := rl.visitors[identifier]
	if !exists {
		rl.mtx.Unlock()
		return rl.addVisitor(identifier)
	}
	v.lastSeen = time.Now()
	rl.mtx.Unlock()

	return v.limiter
}

// cleanupVisitors drops visitors not seen in the last three minutes
func (rl *RateLimiter) cleanupVisitors() {
	for {
		time.Sleep(time.Minute)
		rl.mtx.Lock()

		for identifier, v := range rl.visitors {
			if time.Since(v.lastSeen) > 3*time.Minute {
				delete(rl.visitors, identifier)
			}
		}

		rl.mtx.Unlock()
	}
}

// lookupIP returns the host part of the request's remote address. Proxy headers
// are only honoured through middleware.RealIP, which rewrites RemoteAddr.
func lookupIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Limit is a middleware to rate limit the handler
func (rl *RateLimiter) Limit(next http.Handler) http.Handler {
	if rl.limit <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identifier := lookupIP(r)
		if !rl.getVisitor(identifier).Allow() {
			rl.logger.Warn().Str("ip", identifier).Str("path", r.URL.Path).Msg("too many requests")
			respondWithError(w, http.StatusTooManyRequests, "Too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// CORS allows the configured origins. A "*" entry allows any origin.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			allowed := false
			for _, allowedOrigin := range allowedOrigins {
				if allowedOrigin == "*" || allowedOrigin == origin {
					allowed = true
					break
				}
			}

			if allowed && origin != "" {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}

			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-CSRF-Token, X-Requested-With, Stripe-Signature")
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Max-Age", "86400")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// SecurityHeaders sets the standard response hardening headers
func SecurityHeaders(production bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("X-XSS-Protection", "1; mode=block")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

			if production {
				w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}

			next.ServeHTTP(w, r)
		})
	}
}
