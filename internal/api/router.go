// Pagecrow - Collaborative Filtering Book Recommendations
// Copyright 2026 The Pagecrow Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pagecrow/pagecrow

// Package api provides the HTTP boundary: Chi routing, the standard
// response envelope, request validation and Prometheus instrumentation.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pagecrow/pagecrow/internal/config"
)

// Router assembles the HTTP handler tree.
type Router struct {
	handler *Handler
	cfg     *config.APIConfig
}

// NewRouter creates a router over the given handler set.
func NewRouter(handler *Handler, cfg *config.APIConfig) *Router {
	return &Router{handler: handler, cfg: cfg}
}

// Setup configures all routes and the global middleware stack.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to all routes in order.
	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: router.cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
		MaxAge:         86400,
	}))

	rateLimit := router.rateLimit()

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rateLimit)
		r.Use(PrometheusMetrics)
		r.Use(AccessLog)

		r.Post("/recommend", router.handler.Recommend)
		r.Get("/autocomplete", router.handler.Autocomplete)

		r.Route("/health", func(r chi.Router) {
			r.Get("/", router.handler.Health)
			r.Get("/live", router.handler.HealthLive)
			r.Get("/ready", router.handler.HealthReady)
		})
	})

	r.Handle("/metrics", promhttp.Handler())

	// Static frontend. Served last so API routes take precedence.
	if router.cfg.StaticDir != "" {
		fileServer := http.FileServer(http.Dir(router.cfg.StaticDir))
		r.Handle("/*", fileServer)
	}

	return r
}

// rateLimit builds the per-IP rate limiter. A non-positive request count
// disables limiting, used by tests and internal deployments.
func (router *Router) rateLimit() func(http.Handler) http.Handler {
	if router.cfg.RateLimitReqs <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	window := router.cfg.RateLimitWindow
	if window <= 0 {
		window = time.Minute
	}
	return httprate.LimitByIP(router.cfg.RateLimitReqs, window)
}
