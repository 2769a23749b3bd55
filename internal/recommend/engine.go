// Pagecrow - Collaborative Filtering Book Recommendations
// Copyright 2026 The Pagecrow Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pagecrow/pagecrow

package recommend

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/pagecrow/pagecrow/internal/logging"
	"github.com/pagecrow/pagecrow/internal/metrics"
	"github.com/pagecrow/pagecrow/internal/models"
)

// Config tunes the engine thresholds.
type Config struct {
	// MinSupport is the minimum co-rater intersection size for a Pearson
	// correlation to be defined. Minimum (and default) is 2; configuring
	// 3-5 avoids spurious correlations from tiny samples.
	MinSupport int

	// MinCoRaterRatings is the minimum number of ratings a candidate
	// title must have received from the target's readers to enter
	// correlation at all.
	MinCoRaterRatings int
}

// DefaultConfig returns the default engine configuration. The co-rater
// ratings floor of 8 matches the source dataset's sparsity.
func DefaultConfig() Config {
	return Config{
		MinSupport:        2,
		MinCoRaterRatings: 8,
	}
}

// Engine computes recommendations against a read-only rating store.
// It holds no mutable state and is safe for concurrent use.
type Engine struct {
	store Store
	cfg   Config
}

// NewEngine creates an engine over the given store.
func NewEngine(store Store, cfg Config) *Engine {
	if cfg.MinSupport < 2 {
		cfg.MinSupport = 2
	}
	if cfg.MinCoRaterRatings < 1 {
		cfg.MinCoRaterRatings = 1
	}
	return &Engine{store: store, cfg: cfg}
}

// NormalizeTitle derives the title key from a raw title: trim, fold
// internal whitespace to single spaces, lowercase. It must match the
// normalization applied when title_key was populated at load time, since
// matching is by equality.
func NormalizeTitle(raw string) string {
	return strings.ToLower(strings.Join(strings.Fields(raw), " "))
}

// Recommend runs the full pipeline: title resolution, co-rating set
// construction, similarity scoring, ranking, and metadata attachment.
//
// Domain conditions are returned as typed errors: ErrBookNotFound when
// the title is absent from the catalog, ErrNotEnoughRatings when the
// target has no ratings or no candidate clears the thresholds.
func (e *Engine) Recommend(ctx context.Context, req Request) (*Result, error) {
	titleKey := NormalizeTitle(req.BookTitle)
	if titleKey == "" {
		return nil, ErrBookNotFound
	}

	target, found, err := e.store.ResolveTitle(ctx, titleKey)
	if err != nil {
		return nil, fmt.Errorf("resolving title %q: %w", titleKey, err)
	}
	if !found {
		return nil, ErrBookNotFound
	}

	targetRatings, err := e.store.TargetRatings(ctx, titleKey)
	if err != nil {
		return nil, fmt.Errorf("loading target ratings: %w", err)
	}
	if len(targetRatings) == 0 {
		return nil, ErrNotEnoughRatings
	}

	candidates, err := e.store.CandidateRatings(ctx, titleKey, e.cfg.MinCoRaterRatings)
	if err != nil {
		return nil, fmt.Errorf("loading candidate ratings: %w", err)
	}

	scores := e.rank(targetRatings, candidates, req.TopN)
	metrics.RecommendCandidates.Observe(float64(len(scores)))
	if len(scores) == 0 {
		return nil, ErrNotEnoughRatings
	}

	books, err := e.attachMetadata(ctx, scores)
	if err != nil {
		return nil, err
	}
	if len(books) == 0 {
		// Every ranked candidate was dropped during metadata attachment.
		return nil, ErrNotEnoughRatings
	}

	logging.Ctx(ctx).Debug().
		Str("title_key", titleKey).
		Int("raters", len(targetRatings)).
		Int("candidates", len(candidates)).
		Int("returned", len(books)).
		Msg("Recommendation computed")

	return &Result{Target: target, Books: books}, nil
}

// rank scores every candidate against the target ratings and returns the
// qualifying candidates ordered by correlation descending, ties broken by
// sample size descending and then title key ascending, truncated to topN.
// The result may be empty; the target itself never appears (the store
// excludes it from the candidate set).
func (e *Engine) rank(targetRatings map[int]float64, candidates map[string]map[int]float64, topN int) []CandidateScore {
	scores := make([]CandidateScore, 0, len(candidates))

	for titleKey, ratings := range candidates {
		corr, sampleSize, ok := Pearson(targetRatings, ratings, e.cfg.MinSupport)
		if !ok {
			continue
		}
		scores = append(scores, CandidateScore{
			TitleKey:      titleKey,
			Correlation:   corr,
			AverageRating: mean(ratings),
			SampleSize:    sampleSize,
		})
	}

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Correlation != scores[j].Correlation {
			return scores[i].Correlation > scores[j].Correlation
		}
		if scores[i].SampleSize != scores[j].SampleSize {
			return scores[i].SampleSize > scores[j].SampleSize
		}
		return scores[i].TitleKey < scores[j].TitleKey
	})

	if len(scores) > topN {
		scores = scores[:topN]
	}
	return scores
}

// attachMetadata joins the ranked scores with their representative
// catalog records. Scores whose title key has no resolvable catalog
// record (e.g. every edition lacks a publication year) are dropped.
func (e *Engine) attachMetadata(ctx context.Context, scores []CandidateScore) ([]models.RecommendedBook, error) {
	titleKeys := make([]string, len(scores))
	for i, s := range scores {
		titleKeys[i] = s.TitleKey
	}

	catalog, err := e.store.BooksByTitleKeys(ctx, titleKeys)
	if err != nil {
		return nil, fmt.Errorf("loading catalog metadata: %w", err)
	}

	books := make([]models.RecommendedBook, 0, len(scores))
	for _, s := range scores {
		book, ok := catalog[s.TitleKey]
		if !ok {
			logging.Ctx(ctx).Warn().Str("title_key", s.TitleKey).Msg("Ranked candidate has no catalog record, dropping")
			continue
		}
		books = append(books, models.RecommendedBook{
			ISBN:                        book.ISBN,
			Title:                       book.Title,
			Author:                      book.Author,
			Publisher:                   book.Publisher,
			PublicationYear:             book.PublicationYear,
			CoverURL:                    book.CoverURL,
			CorrelationWithSelectedBook: s.Correlation,
			AverageRating:               s.AverageRating,
			SampleSize:                  s.SampleSize,
		})
	}
	return books, nil
}
