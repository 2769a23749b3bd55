// Pagecrow - Collaborative Filtering Book Recommendations
// Copyright 2026 The Pagecrow Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pagecrow/pagecrow

// Package models defines the data types shared between the storage layer,
// the recommendation engine, and the HTTP API.
package models

// Book is a catalog record for a single edition, identified by ISBN.
// Multiple editions of the same work share a TitleKey.
type Book struct {
	// ISBN is the unique edition identifier.
	ISBN string `json:"isbn"`

	// Title is the display title as it appears in the source catalog.
	Title string `json:"title"`

	// TitleKey is the normalized title (trimmed, lower-cased, internal
	// whitespace folded) used as the grouping and matching key across
	// editions. It is derived deterministically from Title at load time.
	TitleKey string `json:"title_key"`

	// Author is the primary author name.
	Author string `json:"author"`

	// Publisher is the publisher name.
	Publisher string `json:"publisher"`

	// PublicationYear is the year of publication. Zero means unknown;
	// records without a known year are excluded from title resolution.
	PublicationYear int `json:"publication_year,omitempty"`

	// CoverURL points at the cover image.
	CoverURL string `json:"cover_url,omitempty"`
}

// Rating is a single explicit rating of an edition by a user.
// (UserID, ISBN) is unique: one rating per user per edition.
type Rating struct {
	UserID int    `json:"user_id"`
	ISBN   string `json:"isbn"`
	Value  int    `json:"rating_value"`
}

// RatedBook is a row of the materialized join between ratings and books,
// carrying the title key so that per-title grouping needs no join at
// query time. It is rebuilt during the bulk load and read-only afterwards.
type RatedBook struct {
	UserID   int    `json:"user_id"`
	ISBN     string `json:"isbn"`
	Value    int    `json:"rating_value"`
	TitleKey string `json:"title_key"`
}
