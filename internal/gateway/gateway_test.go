package gateway

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindmesh/auth-service/internal/api/auth"
)

type countingVerifier struct {
	calls  int
	claims *auth.Claims
	err    error
}

func (v *countingVerifier) Verify(string) (*auth.Claims, error) {
	v.calls++
	if v.err != nil {
		return nil, v.err
	}
	return v.claims, nil
}

func claimsExpiringAt(userID int64, email string, exp time.Time) *auth.Claims {
	return &auth.Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
}

func TestCachedVerifierMemoizes(t *testing.T) {
	inner := &countingVerifier{claims: claimsExpiringAt(1, "a@x.com", time.Now().Add(time.Hour))}
	verifier := NewCachedVerifier(inner)

	first, err := verifier.Verify("token-1")
	require.NoError(t, err)
	second, err := verifier.Verify("token-1")
	require.NoError(t, err)

	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, first, second)
}

func TestCachedVerifierDoesNotCacheFailures(t *testing.T) {
	inner := &countingVerifier{err: auth.ErrTokenInvalid}
	verifier := NewCachedVerifier(inner)

	_, err := verifier.Verify("bad-token")
	assert.ErrorIs(t, err, auth.ErrTokenInvalid)
	_, err = verifier.Verify("bad-token")
	assert.ErrorIs(t, err, auth.ErrTokenInvalid)

	assert.Equal(t, 2, inner.calls)
}

func TestCachedVerifierNeverOutlivesExpiry(t *testing.T) {
	// Once the token's embedded expiry has passed there is nothing left to
	// cache; every lookup goes back to the verifier.
	exp := time.Now().Add(time.Second)
	inner := &countingVerifier{claims: claimsExpiringAt(1, "a@x.com", exp)}
	verifier := NewCachedVerifier(inner)
	verifier.now = func() time.Time { return exp.Add(time.Millisecond) }

	_, err := verifier.Verify("short-lived")
	require.NoError(t, err)
	_, err = verifier.Verify("short-lived")
	require.NoError(t, err)

	assert.Equal(t, 2, inner.calls)
}

func newTestRouter(t *testing.T, verifier auth.TokenVerifier) http.Handler {
	t.Helper()
	r, err := SetupRouter(&Config{
		Logger:         slog.Default(),
		Verifier:       verifier,
		AuthServiceURL: "http://localhost:3001",
		ServiceName:    "api-gateway",
		Version:        "1.0.0",
		Mode:           "development",
		StartedAt:      time.Now(),
	})
	require.NoError(t, err)
	return r
}

func TestGatewayHealth(t *testing.T) {
	router := newTestRouter(t, &countingVerifier{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
	assert.Contains(t, w.Body.String(), `"service":"api-gateway"`)
}

func TestGatewayProtectedRoutes(t *testing.T) {
	tokens := auth.NewTokenService("test-secret", time.Hour, "auth-service")
	router := newTestRouter(t, NewCachedVerifier(tokens))

	t.Run("MissingToken", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"error":"Access token required"}`, w.Body.String())
	})

	t.Run("ValidToken", func(t *testing.T) {
		token, err := tokens.Issue(42, "a@x.com")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"userId":42,"email":"a@x.com"}`, w.Body.String())
	})
}

func TestIdentityHeaders(t *testing.T) {
	tokens := auth.NewTokenService("test-secret", time.Hour, "auth-service")
	token, err := tokens.Issue(7, "b@x.com")
	require.NoError(t, err)

	var forwarded http.Header
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		forwarded = r.Header.Clone()
	})
	handler := auth.Authenticate(slog.Default(), tokens)(identityHeaders(next))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/resource", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	require.NotNil(t, forwarded)
	assert.Equal(t, "7", forwarded.Get("X-User-Id"))
	assert.Equal(t, "b@x.com", forwarded.Get("X-User-Email"))
}
