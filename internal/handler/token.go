package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/yourorg/todoapi/internal/observability/metrics"
	"github.com/yourorg/todoapi/internal/security/middleware"
	"github.com/yourorg/todoapi/internal/security/ratelimit"
	"github.com/yourorg/todoapi/internal/service"
)

// TokenResponse carries a freshly issued auth token
type TokenResponse struct {
	Token string `json:"token"`
}

// TokenHandler issues signed auth tokens to authenticated callers
type TokenHandler struct {
	authService *service.AuthService
	limiter     *ratelimit.Limiter
	logger      *slog.Logger
}

// NewTokenHandler creates a new token handler. The limiter is optional; when
// present, token issuance gets a tighter per-user limit than the general API.
func NewTokenHandler(authService *service.AuthService, limiter *ratelimit.Limiter, logger *slog.Logger) *TokenHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &TokenHandler{
		authService: authService,
		limiter:     limiter,
		logger:      logger,
	}
}

// ServeHTTP handles GET /api/v1/users/token
func (h *TokenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	if h.limiter != nil && !h.limiter.AllowStrict(user.Username, 10, time.Minute) {
		writeJSON(w, http.StatusTooManyRequests, ErrorResponse{Error: "rate limit exceeded"})
		return
	}

	token, err := h.authService.GenerateAuthToken(user)
	if err != nil {
		h.logger.Error("failed to issue token",
			slog.Int64("user_id", user.ID),
			slog.String("error", err.Error()),
		)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "token generation failed"})
		return
	}

	metrics.ObserveTokenIssued()
	h.logger.Info("token issued",
		slog.Int64("user_id", user.ID),
		slog.Duration("ttl", h.authService.TokenTTL()),
	)

	writeJSON(w, http.StatusOK, TokenResponse{Token: token})
}
