// Pagecrow - Collaborative Filtering Book Recommendations
// Copyright 2026 The Pagecrow Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pagecrow/pagecrow

package api

import (
	"context"
	"errors"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/goccy/go-json"

	"github.com/pagecrow/pagecrow/internal/logging"
	"github.com/pagecrow/pagecrow/internal/metrics"
	"github.com/pagecrow/pagecrow/internal/models"
	"github.com/pagecrow/pagecrow/internal/recommend"
)

// maxRequestBody caps POST payloads. Recommendation requests are tiny;
// anything larger is abuse.
const maxRequestBody = 1 << 20

// handlerTimeout bounds a single request's database work.
const handlerTimeout = 10 * time.Second

// Recommender is the engine surface the handlers invoke.
type Recommender interface {
	Recommend(ctx context.Context, req recommend.Request) (*recommend.Result, error)
}

// Suggester provides autocomplete lookups.
type Suggester interface {
	TitleSuggestions(ctx context.Context, query string, limit int) ([]string, error)
}

// HealthStore is the storage surface the health endpoints probe.
type HealthStore interface {
	Ping(ctx context.Context) error
	Counts(ctx context.Context) (books, ratings int64, err error)
}

// HandlerConfig tunes the request handlers.
type HandlerConfig struct {
	// MaxTopN caps the top_n a client may request.
	MaxTopN int

	// AutocompleteLimit caps the number of suggestions returned.
	AutocompleteLimit int

	// AutocompleteMinLen is the minimum query length in runes, measured
	// after normalization.
	AutocompleteMinLen int
}

// Handler holds the HTTP request handlers and their dependencies.
type Handler struct {
	engine    Recommender
	suggester Suggester
	store     HealthStore
	cfg       HandlerConfig
}

// NewHandler creates the handler set.
func NewHandler(engine Recommender, suggester Suggester, store HealthStore, cfg HandlerConfig) *Handler {
	if cfg.MaxTopN < 1 {
		cfg.MaxTopN = 100
	}
	if cfg.AutocompleteLimit < 1 {
		cfg.AutocompleteLimit = 20
	}
	if cfg.AutocompleteMinLen < 1 {
		cfg.AutocompleteMinLen = 3
	}
	return &Handler{engine: engine, suggester: suggester, store: store, cfg: cfg}
}

// Recommend handles POST /api/v1/recommend.
func (h *Handler) Recommend(w http.ResponseWriter, r *http.Request) {
	var req models.RecommendRequest

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		metrics.RecommendRequests.WithLabelValues("error").Inc()
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Request body must be valid JSON", err)
		return
	}

	if apiErr := validateRequest(&req); apiErr != nil {
		metrics.RecommendRequests.WithLabelValues("error").Inc()
		respondJSON(w, http.StatusBadRequest, &models.APIResponse{
			Status:   "error",
			Metadata: models.Metadata{Timestamp: time.Now()},
			Error:    apiErr,
		})
		return
	}

	topN := req.TopN
	if topN > h.cfg.MaxTopN {
		topN = h.cfg.MaxTopN
	}

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	start := time.Now()
	result, err := h.engine.Recommend(ctx, recommend.Request{
		BookTitle: req.BookTitle,
		TopN:      topN,
	})
	elapsed := time.Since(start)

	switch {
	case errors.Is(err, recommend.ErrBookNotFound):
		metrics.RecommendRequests.WithLabelValues("book_not_found").Inc()
		respondError(w, http.StatusNotFound, "BOOK_NOT_FOUND",
			"No book with that title exists in the catalog", nil)
		return
	case errors.Is(err, recommend.ErrNotEnoughRatings):
		metrics.RecommendRequests.WithLabelValues("not_enough_ratings").Inc()
		respondError(w, http.StatusUnprocessableEntity, "NOT_ENOUGH_RATINGS",
			"Not enough ratings to compute recommendations for that title", nil)
		return
	case err != nil:
		metrics.RecommendRequests.WithLabelValues("error").Inc()
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR",
			"Failed to compute recommendations", err)
		return
	}

	metrics.RecommendRequests.WithLabelValues("ok").Inc()

	logging.Ctx(r.Context()).Info().
		Str("book_title", sanitizeLogValue(req.BookTitle)).
		Int("top_n", topN).
		Int("returned", len(result.Books)).
		Dur("elapsed", elapsed).
		Msg("Recommendation request served")

	respondSuccess(w, models.RecommendResponse{
		BookTitle:        result.Target.Title,
		TopN:             topN,
		RecommendedBooks: result.Books,
	}, elapsed)
}

// Autocomplete handles GET /api/v1/autocomplete?q=<query>. Queries
// shorter than the configured minimum return an empty suggestion list
// rather than an error, so typing in the frontend degrades gracefully.
func (h *Handler) Autocomplete(w http.ResponseWriter, r *http.Request) {
	query := recommend.NormalizeTitle(r.URL.Query().Get("q"))

	start := time.Now()
	if utf8.RuneCountInString(query) < h.cfg.AutocompleteMinLen {
		respondSuccess(w, models.AutocompleteResponse{Suggestions: []string{}}, time.Since(start))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	suggestions, err := h.suggester.TitleSuggestions(ctx, query, h.cfg.AutocompleteLimit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR",
			"Failed to load title suggestions", err)
		return
	}
	if suggestions == nil {
		suggestions = []string{}
	}

	respondSuccess(w, models.AutocompleteResponse{Suggestions: suggestions}, time.Since(start))
}

// HealthLive handles GET /api/v1/health/live: process is up.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, map[string]string{"state": "alive"}, 0)
}

// HealthReady handles GET /api/v1/health/ready: the database answers and
// the dataset is loaded.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		respondError(w, http.StatusServiceUnavailable, "INTERNAL_ERROR", "Database unavailable", err)
		return
	}

	books, ratings, err := h.store.Counts(ctx)
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, "INTERNAL_ERROR", "Database unavailable", err)
		return
	}
	if ratings == 0 {
		respondError(w, http.StatusServiceUnavailable, "INTERNAL_ERROR", "Dataset not loaded", nil)
		return
	}

	respondSuccess(w, map[string]interface{}{
		"state":   "ready",
		"books":   books,
		"ratings": ratings,
	}, 0)
}

// Health handles GET /api/v1/health: combined liveness and readiness
// summary for human inspection.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.HealthReady(w, r)
}
