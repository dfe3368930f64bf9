package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mindmesh/auth-service/internal/api"
)

// Typed context keys for verified claims.
type contextKey string

const UserIDKey contextKey = "userID"
const UserEmailKey contextKey = "userEmail"

// Authenticate is middleware that validates a bearer token on every request.
// It fails closed: unless the verifier accepts the token, the request is
// rejected and never reaches the next handler.
func Authenticate(logger *slog.Logger, verifier TokenVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			l := logger.With(slog.String("middleware", "Authenticate"))

			authHeader := r.Header.Get("Authorization")
			var tokenString string
			if strings.HasPrefix(authHeader, "Bearer ") {
				tokenString = strings.TrimPrefix(authHeader, "Bearer ")
			}
			if tokenString == "" {
				l.WarnContext(ctx, "Missing or malformed Authorization header")
				api.ErrorResponse(w, r, http.StatusUnauthorized, "Access token required")
				return
			}

			claims, err := verifier.Verify(tokenString)
			if err != nil {
				switch {
				case errors.Is(err, ErrTokenExpired):
					l.WarnContext(ctx, "Token expired")
					api.ErrorResponse(w, r, http.StatusUnauthorized, "Token expired")
				case errors.Is(err, ErrTokenInvalid):
					l.WarnContext(ctx, "Token validation failed", slog.Any("error", err))
					api.ErrorResponse(w, r, http.StatusUnauthorized, "Invalid token")
				default:
					l.ErrorContext(ctx, "Unexpected token verification failure", slog.Any("error", err))
					api.ErrorResponse(w, r, http.StatusInternalServerError, "Internal server error")
				}
				return
			}

			ctx = context.WithValue(ctx, UserIDKey, claims.UserID)
			ctx = context.WithValue(ctx, UserEmailKey, claims.Email)
			l.DebugContext(ctx, "Authentication successful", slog.Int64("user_id", claims.UserID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Helper functions to get claims from context
func GetUserIDFromContext(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(UserIDKey).(int64)
	return userID, ok
}

func GetUserEmailFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(UserEmailKey).(string)
	return email, ok
}
