// Pagecrow - Collaborative Filtering Book Recommendations
// Copyright 2026 The Pagecrow Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pagecrow/pagecrow

package recommend

import (
	"context"

	"github.com/pagecrow/pagecrow/internal/models"
)

// Request carries the parameters of one recommendation call. The HTTP
// layer validates the raw payload before constructing a Request, so
// TopN >= 1 and BookTitle non-empty are preconditions here.
type Request struct {
	// BookTitle is the raw user-supplied title.
	BookTitle string

	// TopN is the maximum number of recommendations to return.
	TopN int
}

// CandidateScore is the ephemeral scoring record for one candidate title.
// Instances live only for the duration of a single recommendation call.
type CandidateScore struct {
	// TitleKey identifies the candidate title group.
	TitleKey string

	// Correlation is the Pearson correlation with the target book,
	// in [-1, 1]. Candidates with an undefined correlation never
	// appear as a CandidateScore.
	Correlation float64

	// AverageRating is the mean of the candidate's full rating vector,
	// a descriptive statistic independent of the correlation.
	AverageRating float64

	// SampleSize is the number of co-raters behind Correlation.
	SampleSize int
}

// Result is the outcome of a successful recommendation call.
type Result struct {
	// Target is the resolved canonical catalog record.
	Target models.Book

	// Books are the ranked recommendations, at most TopN of them.
	Books []models.RecommendedBook
}

// Store is the read-only rating store accessor the engine runs against.
// Implementations must be safe for concurrent readers; the engine issues
// no writes.
type Store interface {
	// ResolveTitle returns the canonical catalog record for a normalized
	// title key, choosing the edition with the lexicographically smallest
	// ISBN among rows with a known publication year. found is false when
	// no such row exists.
	ResolveTitle(ctx context.Context, titleKey string) (book models.Book, found bool, err error)

	// TargetRatings returns the target title's rating vector: one entry
	// per user who rated any edition of the title. A user who rated
	// multiple editions contributes their highest rating.
	TargetRatings(ctx context.Context, titleKey string) (map[int]float64, error)

	// CandidateRatings returns, for every other title rated by the given
	// title's readers, that title's rating vector restricted to those
	// readers. Titles with fewer than minRatings such ratings are
	// filtered out server-side. The result never contains titleKey itself.
	CandidateRatings(ctx context.Context, titleKey string, minRatings int) (map[string]map[int]float64, error)

	// BooksByTitleKeys returns one representative catalog record per
	// requested title key, chosen the same way as ResolveTitle.
	BooksByTitleKeys(ctx context.Context, titleKeys []string) (map[string]models.Book, error)
}
