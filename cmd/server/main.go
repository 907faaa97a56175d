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

	"github.com/questgearhub/medialib/pkg/medialib/api"
	"github.com/questgearhub/medialib/pkg/medialib/config"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration from environment
	serverConfig, err := config.Load(config.WithEnv())
	if err != nil {
		log.Fatalf("Failed to load server configuration: %v", err)
	}

	ctx := context.Background()

	// Build service from configuration
	svc, closeStores, err := serverConfig.BuildService(ctx)
	if err != nil {
		log.Fatalf("Failed to build service: %v", err)
	}

	handler := api.NewMediaHandler(svc, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(api.LoggingMiddleware(logger))
	r.Use(api.RecoveryMiddleware(logger))
	r.Use(api.CORSMiddleware(serverConfig.CORSOrigins, nil, nil))
	r.Use(middleware.Timeout(serverConfig.RequestTimeout))
	r.NotFound(api.NotFound)

	r.Get("/health", api.Health)
	r.Mount("/api", handler.Routes())

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%s", serverConfig.Port),
		Handler: r,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Media library server starting",
			"port", serverConfig.Port,
			"environment", serverConfig.Environment,
			"database", serverConfig.DatabaseType,
			"storage", serverConfig.StorageBackend,
		)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	if err := closeStores(shutdownCtx); err != nil {
		logger.Error("Failed to close stores", "error", err)
	}

	logger.Info("Server exiting")
}
