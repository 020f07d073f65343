package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"doorman/internal/auth"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func newSlogMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(recorder, r)
			duration := time.Since(start)
			logger.Info("http request", "method", r.Method, "path", r.URL.Path, "status", recorder.status, "duration", duration.String())
		})
	}
}

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const identityContextKey contextKey = "identity"

// IdentityFromContext extracts the authenticated user from the request context.
// Returns nil if the identity middleware hasn't populated the context.
func IdentityFromContext(ctx context.Context) *auth.AuthUser {
	user, _ := ctx.Value(identityContextKey).(*auth.AuthUser)
	return user
}

type authenticator interface {
	Authenticate(token string) (*auth.AuthUser, error)
}

// newIdentityMiddleware rejects requests without a valid session cookie before
// the protected handler runs.
func newIdentityMiddleware(authn authenticator, cookieName string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := identityFromRequest(authn, cookieName, r)
			if err != nil {
				logger.Debug("identity rejected", "path", r.URL.Path, "error", err)
				unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), identityContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func identityFromRequest(authn authenticator, cookieName string, r *http.Request) (*auth.AuthUser, error) {
	cookie, err := r.Cookie(cookieName)
	if err != nil {
		return nil, auth.ErrUnauthorized
	}
	return authn.Authenticate(cookie.Value)
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Cookie")
	writeError(w, http.StatusUnauthorized, "authentication required")
}

func newSecurityHeadersMiddleware(environment string) func(http.Handler) http.Handler {
	isDev := strings.EqualFold(environment, "development")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("X-XSS-Protection", "1; mode=block")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			w.Header().Set("Permissions-Policy", "geolocation=(), camera=(), microphone=()")

			if !isDev {
				w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}

			next.ServeHTTP(w, r)
		})
	}
}
