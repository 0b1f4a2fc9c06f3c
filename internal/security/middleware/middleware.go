package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"

	"github.com/yourorg/todoapi/internal/domain"
	"github.com/yourorg/todoapi/internal/observability/metrics"
	"github.com/yourorg/todoapi/internal/security/audit"
	"github.com/yourorg/todoapi/internal/security/ratelimit"
	"github.com/yourorg/todoapi/internal/service"
)

type UserContextKey struct{}

// AuthGuard wraps a handler and short-circuits with 401 unless the request
// carries valid credentials. Both forms ride in the HTTP Basic header: either
// a real username/password pair, or an auth token in the username slot (the
// password slot is then ignored). The token form is tried first.
func AuthGuard(authService *service.AuthService, auditLog *audit.Logger, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			username, password, ok := r.BasicAuth()
			if !ok {
				deny(w, r, auditLog, "missing credentials")
				return
			}

			user, err := authService.VerifyAuthToken(r.Context(), username)
			if err != nil && !errors.Is(err, domain.ErrNotFound) {
				log.Error("token verification failed", slog.String("error", err.Error()))
				http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
				return
			}

			if user == nil {
				// Not a valid token; fall back to username/password.
				user, err = authService.Authenticate(r.Context(), username, password)
				if err != nil {
					if errors.Is(err, service.ErrInvalidCredentials) {
						deny(w, r, auditLog, "invalid credentials")
						return
					}
					log.Error("authentication failed", slog.String("error", err.Error()))
					http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
					return
				}
			}

			ctx := context.WithValue(r.Context(), UserContextKey{}, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func deny(w http.ResponseWriter, r *http.Request, auditLog *audit.Logger, reason string) {
	metrics.ObserveAuthFailure()
	if auditLog != nil {
		auditLog.LogDenied(r.Context(), remoteHost(r), reason)
	}
	w.Header().Set("WWW-Authenticate", `Basic realm="todoapi"`)
	http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
}

// RateLimitMiddleware limits requests per remote host on the API surface.
// Health, metrics, and the static page are never limited.
func RateLimitMiddleware(limiter *ratelimit.Limiter, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/" || r.URL.Path == "/healthz" || r.URL.Path == "/readyz" || r.URL.Path == "/metrics" {
				next.ServeHTTP(w, r)
				return
			}

			if !limiter.Allow(remoteHost(r)) {
				log.Warn("rate limit exceeded",
					slog.String("remote_addr", r.RemoteAddr),
					slog.String("path", r.URL.Path),
				)
				http.Error(w, `{"error":"rate limit exceeded"}`, http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GetUserFromContext returns the authenticated user, or nil on an
// unauthenticated request.
func GetUserFromContext(ctx context.Context) *domain.User {
	if u := ctx.Value(UserContextKey{}); u != nil {
		return u.(*domain.User)
	}
	return nil
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
