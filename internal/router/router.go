package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/mindmesh/auth-service/internal/api"
	"github.com/mindmesh/auth-service/internal/api/auth"
)

// Config contains dependencies needed for the router setup
type Config struct {
	AuthHandler *auth.AuthHandler
	ServiceName string
	Version     string
	Mode        string
	FrontendURL string
	StartedAt   time.Time
}

// SetupRouter initializes and configures the auth service router.
// Server-wide middleware (request ID, logger, recoverer) are applied before
// mounting this router in main.go.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	allowedOrigins := []string{"http://localhost:5173", "http://localhost:3000"}
	if cfg.FrontendURL != "" {
		allowedOrigins = append(allowedOrigins, cfg.FrontendURL)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", healthHandler(cfg))

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", cfg.AuthHandler.Register)
		r.Post("/login", cfg.AuthHandler.Login)
	})

	return r
}

func healthHandler(cfg *Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		api.WriteJSONResponse(w, r, http.StatusOK, map[string]interface{}{
			"status":    "ok",
			"service":   cfg.ServiceName,
			"version":   cfg.Version,
			"uptime":    int(time.Since(cfg.StartedAt).Seconds()),
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"env":       cfg.Mode,
		})
	}
}
