package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	appLogger "github.com/mindmesh/auth-service/app/logger"
	"github.com/mindmesh/auth-service/config"
	"github.com/mindmesh/auth-service/internal/api/auth"
	"github.com/mindmesh/auth-service/internal/gateway"
)

const serviceName = "api-gateway"
const version = "1.0.0"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found or error loading:", err)
	}

	cfg, err := config.InitConfig()
	if err != nil {
		log.Fatalf("FATAL: Error initializing config: %v", err)
	}
	// The gateway shares the signing secret with the auth service, so the
	// production placeholder guard applies here too.
	if err := cfg.Validate(); err != nil {
		log.Fatalf("FATAL: Invalid configuration: %v", err)
	}

	logger := appLogger.Setup(cfg.Mode)
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	tokens := auth.NewTokenService(cfg.JWT.SecretKey, cfg.JWT.TokenTTL, cfg.JWT.Issuer)
	verifier := gateway.NewCachedVerifier(tokens)

	gatewayRouter, err := gateway.SetupRouter(&gateway.Config{
		Logger:         logger,
		Verifier:       verifier,
		AuthServiceURL: cfg.Gateway.AuthServiceURL,
		FrontendURL:    cfg.Gateway.FrontendURL,
		ServiceName:    serviceName,
		Version:        version,
		Mode:           cfg.Mode,
		StartedAt:      time.Now(),
	})
	if err != nil {
		logger.Error("Failed to set up gateway router", slog.Any("error", err))
		os.Exit(1)
	}

	r := chi.NewMux()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(appLogger.StructuredLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Mount("/", gatewayRouter)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Gateway.HTTPPort),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	go func() {
		logger.Info("Starting gateway server",
			slog.String("address", srv.Addr),
			slog.String("auth_service", cfg.Gateway.AuthServiceURL),
			slog.String("env", cfg.Mode),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Gateway ListenAndServe error", slog.Any("error", err))
			cancel()
		}
	}()

	<-ctx.Done()

	logger.Info("Shutdown signal received, starting graceful shutdown...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Gateway graceful shutdown failed", slog.Any("error", err))
	} else {
		logger.Info("Gateway gracefully stopped")
	}
}
