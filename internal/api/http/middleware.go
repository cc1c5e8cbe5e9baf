package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"amicale-intake-backend/internal/config"
	"amicale-intake-backend/internal/logger"
	"amicale-intake-backend/internal/service"

	"github.com/go-chi/httprate"
	"github.com/gorilla/mux"
)

const sessionCookieName = "admin_session"

type contextKey string

const adminKey contextKey = "admin"

// WithAdmin stores the authenticated admin username in ctx
func WithAdmin(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, adminKey, username)
}

// AdminFromContext returns the admin username placed by the auth middleware
func AdminFromContext(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(adminKey).(string)
	return username, ok && username != ""
}

// AuthMiddleware enforces the security level registered for the matched route
type AuthMiddleware struct {
	auth service.AuthService
}

func NewAuthMiddleware(auth service.AuthService) *AuthMiddleware {
	return &AuthMiddleware{auth: auth}
}

func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		routeName := ""
		if route := mux.CurrentRoute(r); route != nil {
			routeName = route.GetName()
		}

		if config.GetSecurityLevel(routeName) == config.SecurityPublic {
			next.ServeHTTP(w, r)
			return
		}

		username, err := m.auth.Authenticate(r.Context(), extractToken(r))
		if err != nil {
			logger.Debug("Admin authentication failed", "route", routeName, "error", err)
			writeError(w, http.StatusUnauthorized, "Non autorisé")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithAdmin(r.Context(), username)))
	})
}

// extractToken reads the session token from the cookie, then the Authorization header
func extractToken(r *http.Request) string {
	if c, err := r.Cookie(sessionCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	token := r.Header.Get("Authorization")
	if len(token) > 7 && strings.ToUpper(token[0:7]) == "BEARER " {
		return token[7:]
	}
	return ""
}

// RateLimit creates an IP-based limiter that answers 429 with a JSON body
func RateLimit(requests int, window time.Duration) func(http.Handler) http.Handler {
	log := logger.WithComponent("ratelimit")
	return httprate.Limit(
		requests,
		window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			log.Warn("rate limit exceeded",
				"ip", r.RemoteAddr,
				"path", r.URL.Path,
				"method", r.Method,
				"user_agent", r.UserAgent(),
			)
			writeError(w, http.StatusTooManyRequests, "Trop de requêtes. Veuillez réessayer plus tard.")
		}),
	)
}

// NoRateLimit returns a no-op middleware when rate limiting is disabled
func NoRateLimit() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return next
	}
}

func rateLimiters(cfg config.RateLimitConfig) (intake, login func(http.Handler) http.Handler) {
	if !cfg.Enabled {
		return NoRateLimit(), NoRateLimit()
	}
	return RateLimit(cfg.IntakeRequestsPerMinute, time.Minute), RateLimit(cfg.LoginRequestsPerMinute, time.Minute)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// LoggingMiddleware logs one line per request
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		logger.Info("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
			"remote", r.RemoteAddr)
	})
}
