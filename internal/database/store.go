// Pagecrow - Collaborative Filtering Book Recommendations
// Copyright 2026 The Pagecrow Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pagecrow/pagecrow

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pagecrow/pagecrow/internal/metrics"
	"github.com/pagecrow/pagecrow/internal/models"
)

// ResolveTitle returns the canonical catalog record for a title key:
// among editions with a known publication year, the one with the
// lexicographically smallest ISBN. found is false when no edition
// qualifies.
func (db *DB) ResolveTitle(ctx context.Context, titleKey string) (models.Book, bool, error) {
	const query = `
		SELECT isbn, title, title_key,
		       coalesce(author, ''), coalesce(publisher, ''),
		       publication_year, coalesce(cover_url, '')
		FROM books
		WHERE title_key = ? AND publication_year IS NOT NULL
		ORDER BY isbn
		LIMIT 1`

	start := time.Now()
	row := db.conn.QueryRowContext(ctx, query, titleKey)
	book, err := scanBook(row)
	metrics.ObserveDBQuery("resolve_title", time.Since(start))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Book{}, false, nil
	}
	if err != nil {
		return models.Book{}, false, fmt.Errorf("resolving title: %w", err)
	}
	return book, true, nil
}

// TargetRatings returns the rating vector of a title: one entry per user,
// a user who rated multiple editions contributing their highest rating.
func (db *DB) TargetRatings(ctx context.Context, titleKey string) (map[int]float64, error) {
	const query = `
		SELECT user_id, max(rating_value)
		FROM rated_books
		WHERE title_key = ?
		GROUP BY user_id`

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query, titleKey)
	metrics.ObserveDBQuery("target_ratings", time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("querying target ratings: %w", err)
	}
	defer closeWithLog(rows, "target ratings rows")

	ratings := make(map[int]float64)
	for rows.Next() {
		var userID int
		var value float64
		if err := rows.Scan(&userID, &value); err != nil {
			return nil, fmt.Errorf("scanning target rating: %w", err)
		}
		ratings[userID] = value
	}
	return ratings, rows.Err()
}

// CandidateRatings returns the rating vectors of every other title rated
// by the given title's readers, restricted to those readers, keyed by
// title key. Titles with fewer than minRatings such ratings are filtered
// in the database so sparse candidates never cross the wire.
func (db *DB) CandidateRatings(ctx context.Context, titleKey string, minRatings int) (map[string]map[int]float64, error) {
	const query = `
		WITH readers AS (
			SELECT DISTINCT user_id FROM rated_books WHERE title_key = ?
		),
		cand AS (
			SELECT rb.title_key, rb.user_id, max(rb.rating_value) AS rating
			FROM rated_books rb
			JOIN readers r ON rb.user_id = r.user_id
			WHERE rb.title_key <> ?
			GROUP BY rb.title_key, rb.user_id
		)
		SELECT title_key, user_id, rating
		FROM cand
		QUALIFY count(*) OVER (PARTITION BY title_key) >= ?`

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query, titleKey, titleKey, minRatings)
	metrics.ObserveDBQuery("candidate_ratings", time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("querying candidate ratings: %w", err)
	}
	defer closeWithLog(rows, "candidate ratings rows")

	candidates := make(map[string]map[int]float64)
	for rows.Next() {
		var key string
		var userID int
		var value float64
		if err := rows.Scan(&key, &userID, &value); err != nil {
			return nil, fmt.Errorf("scanning candidate rating: %w", err)
		}
		vector, ok := candidates[key]
		if !ok {
			vector = make(map[int]float64)
			candidates[key] = vector
		}
		vector[userID] = value
	}
	return candidates, rows.Err()
}

// BooksByTitleKeys returns one representative catalog record per
// requested title key, chosen the same way as ResolveTitle. Keys without
// a qualifying edition are absent from the result.
func (db *DB) BooksByTitleKeys(ctx context.Context, titleKeys []string) (map[string]models.Book, error) {
	if len(titleKeys) == 0 {
		return map[string]models.Book{}, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(titleKeys)), ",")
	query := fmt.Sprintf(`
		SELECT isbn, title, title_key,
		       coalesce(author, ''), coalesce(publisher, ''),
		       publication_year, coalesce(cover_url, '')
		FROM books
		WHERE title_key IN (%s) AND publication_year IS NOT NULL
		QUALIFY row_number() OVER (PARTITION BY title_key ORDER BY isbn) = 1`, placeholders)

	args := make([]any, len(titleKeys))
	for i, key := range titleKeys {
		args[i] = key
	}

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query, args...)
	metrics.ObserveDBQuery("books_by_title_keys", time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("querying catalog records: %w", err)
	}
	defer closeWithLog(rows, "catalog rows")

	books := make(map[string]models.Book, len(titleKeys))
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning catalog record: %w", err)
		}
		books[book.TitleKey] = book
	}
	return books, rows.Err()
}

// TitleSuggestions returns up to limit display titles whose title key
// contains the normalized query, one representative per title group,
// ordered by title key. Used by the autocomplete endpoint.
func (db *DB) TitleSuggestions(ctx context.Context, query string, limit int) ([]string, error) {
	const stmt = `
		SELECT arg_min(title, isbn)
		FROM books
		WHERE title_key LIKE ? ESCAPE '\'
		GROUP BY title_key
		ORDER BY title_key
		LIMIT ?`

	pattern := "%" + escapeLike(query) + "%"

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, stmt, pattern, limit)
	metrics.ObserveDBQuery("title_suggestions", time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("querying title suggestions: %w", err)
	}
	defer closeWithLog(rows, "suggestion rows")

	suggestions := make([]string, 0, limit)
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, fmt.Errorf("scanning suggestion: %w", err)
		}
		suggestions = append(suggestions, title)
	}
	return suggestions, rows.Err()
}

// Counts returns the row counts of the core tables, used by the
// readiness endpoint to report dataset health.
func (db *DB) Counts(ctx context.Context) (books, ratings int64, err error) {
	start := time.Now()
	defer func() { metrics.ObserveDBQuery("counts", time.Since(start)) }()

	if err = db.conn.QueryRowContext(ctx, "SELECT count(*) FROM books").Scan(&books); err != nil {
		return 0, 0, fmt.Errorf("counting books: %w", err)
	}
	if err = db.conn.QueryRowContext(ctx, "SELECT count(*) FROM rated_books").Scan(&ratings); err != nil {
		return 0, 0, fmt.Errorf("counting rated_books: %w", err)
	}
	return books, ratings, nil
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanBook(row rowScanner) (models.Book, error) {
	var book models.Book
	var year sql.NullInt64
	if err := row.Scan(&book.ISBN, &book.Title, &book.TitleKey,
		&book.Author, &book.Publisher, &year, &book.CoverURL); err != nil {
		return models.Book{}, err
	}
	if year.Valid {
		book.PublicationYear = int(year.Int64)
	}
	return book, nil
}

// escapeLike escapes LIKE metacharacters in a user-supplied prefix.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
