package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/mindmesh/auth-service/app/observability/metrics"
	"github.com/mindmesh/auth-service/internal/api"
)

type AuthHandler struct {
	service AuthService
	logger  *slog.Logger
}

func NewAuthHandler(service AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		logger:  logger,
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req RegisterRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if req.Email == "" || req.Password == "" || req.DisplayName == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Missing required fields")
		return
	}

	user, err := h.service.Register(ctx, req.Email, req.Password, req.DisplayName)
	if err != nil {
		if errors.Is(err, ErrConflict) {
			countOutcome(ctx, metrics.Get().RegisterRequestsTotal, "conflict")
			api.ErrorResponse(w, r, http.StatusConflict, "Email already exists")
			return
		}
		h.logger.ErrorContext(ctx, "Register failed", slog.Any("error", err))
		countOutcome(ctx, metrics.Get().RegisterRequestsTotal, "error")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Internal server error")
		return
	}

	countOutcome(ctx, metrics.Get().RegisterRequestsTotal, "success")
	api.WriteJSONResponse(w, r, http.StatusCreated, RegisterResponse{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req LoginRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if req.Email == "" || req.Password == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Missing required fields")
		return
	}

	token, user, err := h.service.Login(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrUnauthenticated) {
			countOutcome(ctx, metrics.Get().AuthFailuresTotal, "bad_credentials")
			countOutcome(ctx, metrics.Get().LoginRequestsTotal, "unauthorized")
			api.ErrorResponse(w, r, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		h.logger.ErrorContext(ctx, "Login failed", slog.Any("error", err))
		countOutcome(ctx, metrics.Get().LoginRequestsTotal, "error")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Internal server error")
		return
	}

	countOutcome(ctx, metrics.Get().LoginRequestsTotal, "success")
	api.WriteJSONResponse(w, r, http.StatusOK, LoginResponse{
		Token: token,
		User:  user.Profile(),
	})
}

func countOutcome(ctx context.Context, counter metric.Int64Counter, outcome string) {
	counter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
