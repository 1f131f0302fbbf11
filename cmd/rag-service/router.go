package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/recyclens/rag-service/cmd/rag-service/handlers"
	"github.com/recyclens/rag-service/cmd/rag-service/middleware"
	"github.com/recyclens/rag-service/internal/bootstrap"
)

// RouterConfig holds the HTTP settings the router needs.
type RouterConfig struct {
	RequestTimeout time.Duration
	CORSOrigins    []string
}

// NewRouter creates the API router with all routes configured.
func NewRouter(app *bootstrap.App, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(app.Logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))
	if cfg.RequestTimeout > 0 {
		r.Use(chimiddleware.Timeout(cfg.RequestTimeout))
	}

	h := handlers.NewRegulationsHandler(app.Logger, app.Service, app.Engine, app.Config.Embedding.Model)

	r.Get("/health", h.Health)
	r.Get("/debug", h.Debug)
	r.Post("/query", h.Query)
	r.Method(http.MethodGet, "/metrics", app.Metrics.Handler())

	return r
}
