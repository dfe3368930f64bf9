package auth

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingVerifier struct {
	err error
}

func (v *failingVerifier) Verify(string) (*Claims, error) {
	return nil, v.err
}

func serveProtected(verifier TokenVerifier, authHeader string) (*httptest.ResponseRecorder, *http.Request) {
	var captured *http.Request
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r
		w.WriteHeader(http.StatusOK)
	})

	handler := Authenticate(slog.Default(), verifier)(next)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/resource", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w, captured
}

func TestAuthenticateMissingToken(t *testing.T) {
	svc := NewTokenService("test-secret", time.Hour, "auth-service")

	for name, header := range map[string]string{
		"NoHeader":     "",
		"NotBearer":    "Basic dXNlcjpwYXNz",
		"EmptyBearer":  "Bearer ",
		"MissingSpace": "Bearertoken",
	} {
		t.Run(name, func(t *testing.T) {
			w, next := serveProtected(svc, header)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.JSONEq(t, `{"error":"Access token required"}`, w.Body.String())
			assert.Nil(t, next)
		})
	}
}

func TestAuthenticateExpiredToken(t *testing.T) {
	issued := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := issued
	svc := NewTokenService("test-secret", time.Hour, "auth-service").
		WithClock(func() time.Time { return now })

	token, err := svc.Issue(1, "a@x.com")
	require.NoError(t, err)

	now = issued.Add(2 * time.Hour)
	w, next := serveProtected(svc, "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Token expired"}`, w.Body.String())
	assert.Nil(t, next)
}

func TestAuthenticateInvalidToken(t *testing.T) {
	svc := NewTokenService("test-secret", time.Hour, "auth-service")

	w, next := serveProtected(svc, "Bearer garbage.token.value")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Invalid token"}`, w.Body.String())
	assert.Nil(t, next)
}

func TestAuthenticateUnexpectedFailure(t *testing.T) {
	// Anything other than expired/invalid must fail closed as a server error.
	w, next := serveProtected(&failingVerifier{err: assert.AnError}, "Bearer some-token")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, w.Body.String())
	assert.Nil(t, next)
}

func TestAuthenticateSuccessAttachesClaims(t *testing.T) {
	svc := NewTokenService("test-secret", time.Hour, "auth-service")
	token, err := svc.Issue(42, "a@x.com")
	require.NoError(t, err)

	w, next := serveProtected(svc, "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, next)

	userID, ok := GetUserIDFromContext(next.Context())
	assert.True(t, ok)
	assert.Equal(t, int64(42), userID)

	email, ok := GetUserEmailFromContext(next.Context())
	assert.True(t, ok)
	assert.Equal(t, "a@x.com", email)
}
