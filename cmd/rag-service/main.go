// Package main provides the regulations retrieval API server entrypoint.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/recyclens/rag-service/internal/bootstrap"
	"github.com/recyclens/rag-service/internal/config"
)

func main() {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if len(os.Args) > 2 && os.Args[1] == "--config" {
		cfgPath = os.Args[2]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	app, err := bootstrap.New(context.Background(), cfg, bootstrap.Options{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialise service: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	logger := app.Logger
	status := app.Engine.Status()
	logger.Info().
		Str("addr", cfg.Addr()).
		Str("index_path", status.IndexPath).
		Bool("index_exists", status.IndexExists).
		Bool("credential_set", status.CredentialSet).
		Str("cache_driver", cfg.Cache.Driver).
		Bool("cache_enabled", cfg.Cache.Enabled).
		Msg("Starting regulations service")
	if !status.IndexExists {
		logger.Warn().Str("index_path", status.IndexPath).Msg("Index directory not found, queries will return empty results")
	}

	router := NewRouter(app, RouterConfig{
		RequestTimeout: cfg.Server.RequestTimeout,
		CORSOrigins:    cfg.Server.CORSOrigins,
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("HTTP server listening")
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("Server error")
		}
	case sig := <-shutdown:
		logger.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdown)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Graceful shutdown failed")
		if err := srv.Close(); err != nil {
			logger.Error().Err(err).Msg("Forced shutdown failed")
		}
	}

	logger.Info().Msg("Server stopped")
}
