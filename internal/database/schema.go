// Pagecrow - Collaborative Filtering Book Recommendations
// Copyright 2026 The Pagecrow Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pagecrow/pagecrow

package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext returns a context with timeout for schema operations.
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createSchema creates the core tables and indexes. All statements are
// idempotent so reopening an already-loaded database file is a no-op.
func (db *DB) createSchema() error {
	ctx, cancel := schemaContext()
	defer cancel()

	queries := []string{
		// Catalog of editions. title_key is the normalized title
		// (trimmed, lower-cased, internal whitespace folded) shared by
		// all editions of the same work. publication_year is NULL when
		// the source catalog has no usable year.
		`CREATE TABLE IF NOT EXISTS books (
			isbn TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			title_key TEXT NOT NULL,
			author TEXT,
			publisher TEXT,
			publication_year INTEGER,
			cover_url TEXT
		)`,

		// Explicit ratings, one row per (user, edition). Implicit
		// zero ratings from the source data are dropped at load time.
		`CREATE TABLE IF NOT EXISTS ratings (
			user_id INTEGER NOT NULL,
			isbn TEXT NOT NULL,
			rating_value INTEGER NOT NULL,
			PRIMARY KEY (user_id, isbn)
		)`,

		// Materialized join of ratings and books carrying the title
		// key, so per-title grouping at query time needs no join.
		// Rebuilt by the bulk load, read-only afterwards.
		`CREATE TABLE IF NOT EXISTS rated_books (
			user_id INTEGER NOT NULL,
			isbn TEXT NOT NULL,
			rating_value INTEGER NOT NULL,
			title_key TEXT NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_books_title_key ON books (title_key)`,
		`CREATE INDEX IF NOT EXISTS idx_rated_books_title_key ON rated_books (title_key)`,
		`CREATE INDEX IF NOT EXISTS idx_rated_books_user ON rated_books (user_id)`,
	}

	for _, query := range queries {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}

	return nil
}
