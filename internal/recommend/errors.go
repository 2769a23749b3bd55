// Pagecrow - Collaborative Filtering Book Recommendations
// Copyright 2026 The Pagecrow Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pagecrow/pagecrow

package recommend

import "errors"

// Domain conditions surfaced to the HTTP boundary. These are expected
// outcomes of valid input against the dataset, not infrastructure
// failures, and the API layer maps them to stable user-facing codes.
var (
	// ErrBookNotFound indicates the requested title is absent from the catalog.
	ErrBookNotFound = errors.New("book not found in catalog")

	// ErrNotEnoughRatings indicates the target book has no ratings, or no
	// candidate cleared the minimum-support and variance thresholds.
	ErrNotEnoughRatings = errors.New("not enough ratings to compute recommendations")
)
