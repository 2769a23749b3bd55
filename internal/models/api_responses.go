// Pagecrow - Collaborative Filtering Book Recommendations
// Copyright 2026 The Pagecrow Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pagecrow/pagecrow

package models

import (
	"time"
)

// APIResponse is the standardized response envelope used by all HTTP
// endpoints.
//
// Status field values:
//   - "success": request completed, see Data
//   - "error": request failed, see Error
//
// Example error response:
//
//	{
//	  "status": "error",
//	  "error": {"code": "BOOK_NOT_FOUND", "message": "..."},
//	  "metadata": {"timestamp": "2026-08-31T12:00:00Z"}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata contains response metadata for observability.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
}

// APIError is a structured error payload with a machine-readable code.
//
// Codes used by this service:
//   - VALIDATION_ERROR: invalid request input
//   - BOOK_NOT_FOUND: requested title absent from the catalog
//   - NOT_ENOUGH_RATINGS: no candidate cleared the support thresholds
//   - INTERNAL_ERROR: unexpected infrastructure failure
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// RecommendRequest is the payload of POST /api/v1/recommend.
type RecommendRequest struct {
	// BookTitle is the title to base recommendations on. Matching is
	// case-insensitive and whitespace-normalization-insensitive.
	BookTitle string `json:"book_title" validate:"required"`

	// TopN is the maximum number of recommendations to return.
	TopN int `json:"top_n" validate:"required,gte=1"`
}

// RecommendedBook is a single entry of a recommendation response.
type RecommendedBook struct {
	ISBN                        string  `json:"isbn"`
	Title                       string  `json:"title"`
	Author                      string  `json:"author"`
	Publisher                   string  `json:"publisher"`
	PublicationYear             int     `json:"publication_year"`
	CoverURL                    string  `json:"cover_url,omitempty"`
	CorrelationWithSelectedBook float64 `json:"correlation_with_selected_book"`
	AverageRating               float64 `json:"average_rating"`
	SampleSize                  int     `json:"sample_size"`
}

// RecommendResponse is the data payload of a successful recommendation.
type RecommendResponse struct {
	BookTitle        string            `json:"book_title"`
	TopN             int               `json:"top_n"`
	RecommendedBooks []RecommendedBook `json:"recommended_books"`
}

// AutocompleteResponse is the data payload of GET /api/v1/autocomplete.
type AutocompleteResponse struct {
	Suggestions []string `json:"suggestions"`
}
