package gateway

import (
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	gocache "github.com/patrickmn/go-cache"

	"github.com/mindmesh/auth-service/internal/api"
	"github.com/mindmesh/auth-service/internal/api/auth"
)

// Verified claims are memoized briefly to skip repeated signature checks on
// hot tokens. Entries never outlive the token's embedded expiry, so validity
// is still decided solely by signature and expiry.
const maxClaimsCacheTTL = 30 * time.Second

var _ auth.TokenVerifier = (*CachedVerifier)(nil)

type CachedVerifier struct {
	inner auth.TokenVerifier
	cache *gocache.Cache
	now   func() time.Time
}

func NewCachedVerifier(inner auth.TokenVerifier) *CachedVerifier {
	return &CachedVerifier{
		inner: inner,
		cache: gocache.New(maxClaimsCacheTTL, time.Minute),
		now:   time.Now,
	}
}

func (v *CachedVerifier) Verify(tokenString string) (*auth.Claims, error) {
	if cached, ok := v.cache.Get(tokenString); ok {
		return cached.(*auth.Claims), nil
	}

	claims, err := v.inner.Verify(tokenString)
	if err != nil {
		return nil, err
	}

	ttl := maxClaimsCacheTTL
	if claims.ExpiresAt != nil {
		if remaining := claims.ExpiresAt.Sub(v.now()); remaining < ttl {
			ttl = remaining
		}
	}
	if ttl > 0 {
		v.cache.Set(tokenString, claims, ttl)
	}
	return claims, nil
}

// Config contains dependencies needed for the gateway router setup
type Config struct {
	Logger         *slog.Logger
	Verifier       auth.TokenVerifier
	AuthServiceURL string
	FrontendURL    string
	ServiceName    string
	Version        string
	Mode           string
	StartedAt      time.Time
}

// SetupRouter wires the edge router: public auth routes are proxied through
// to the auth service, everything under /api/v1 requires a valid bearer token.
func SetupRouter(cfg *Config) (chi.Router, error) {
	authURL, err := url.Parse(cfg.AuthServiceURL)
	if err != nil {
		return nil, err
	}
	authProxy := httputil.NewSingleHostReverseProxy(authURL)

	r := chi.NewRouter()

	allowedOrigins := []string{"http://localhost:5173"}
	if cfg.FrontendURL != "" {
		allowedOrigins = append(allowedOrigins, cfg.FrontendURL)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		api.WriteJSONResponse(w, req, http.StatusOK, map[string]interface{}{
			"status":    "ok",
			"service":   cfg.ServiceName,
			"version":   cfg.Version,
			"uptime":    int(time.Since(cfg.StartedAt).Seconds()),
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"env":       cfg.Mode,
		})
	})

	// Registration and login need no token; the auth service owns them.
	r.Handle("/auth/*", authProxy)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(auth.Authenticate(cfg.Logger, cfg.Verifier))
		r.Use(identityHeaders)

		r.Get("/me", meHandler)
	})

	return r, nil
}

// identityHeaders stamps the verified identity onto the request so upstream
// services behind the gateway can trust it without re-verifying the token.
func identityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if userID, ok := auth.GetUserIDFromContext(r.Context()); ok {
			r.Header.Set("X-User-Id", strconv.FormatInt(userID, 10))
		}
		if email, ok := auth.GetUserEmailFromContext(r.Context()); ok {
			r.Header.Set("X-User-Email", email)
		}
		next.ServeHTTP(w, r)
	})
}

func meHandler(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.GetUserIDFromContext(r.Context())
	email, _ := auth.GetUserEmailFromContext(r.Context())
	api.WriteJSONResponse(w, r, http.StatusOK, map[string]interface{}{
		"userId": userID,
		"email":  email,
	})
}
