// Pagecrow - Collaborative Filtering Book Recommendations
// Copyright 2026 The Pagecrow Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pagecrow/pagecrow

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/pagecrow/pagecrow/internal/logging"
	"github.com/pagecrow/pagecrow/internal/metrics"
)

// Load runs the bulk ingest: books and ratings CSVs into their tables,
// then the rated_books materialization. It is the startup barrier - the
// HTTP service must not start until Load has returned.
//
// When the database file already holds data from a previous run the load
// is skipped unless forceReload is set. Malformed CSV rows are skipped
// by the reader; rows that survive parsing but fail the domain rules
// (empty ISBN, zero rating) are filtered by the INSERT queries.
func (db *DB) Load(ctx context.Context, booksCSV, ratingsCSV string, forceReload bool) error {
	loaded, err := db.isLoaded(ctx)
	if err != nil {
		return err
	}
	if loaded && !forceReload {
		logging.Info().Msg("Dataset already loaded, skipping ingest")
		return db.publishRowMetrics(ctx)
	}

	start := time.Now()

	if err := db.truncateAll(ctx); err != nil {
		return err
	}
	if err := db.loadBooks(ctx, booksCSV); err != nil {
		return fmt.Errorf("loading books from %s: %w", booksCSV, err)
	}
	if err := db.loadRatings(ctx, ratingsCSV); err != nil {
		return fmt.Errorf("loading ratings from %s: %w", ratingsCSV, err)
	}
	if err := db.materializeRatedBooks(ctx); err != nil {
		return fmt.Errorf("materializing rated_books: %w", err)
	}

	if err := db.publishRowMetrics(ctx); err != nil {
		return err
	}

	logging.Info().
		Str("books_csv", booksCSV).
		Str("ratings_csv", ratingsCSV).
		Dur("elapsed", time.Since(start)).
		Msg("Dataset load complete")

	return nil
}

// isLoaded reports whether the materialized rating table has rows.
func (db *DB) isLoaded(ctx context.Context) (bool, error) {
	var count int64
	if err := db.conn.QueryRowContext(ctx, "SELECT count(*) FROM rated_books").Scan(&count); err != nil {
		return false, fmt.Errorf("checking rated_books: %w", err)
	}
	return count > 0, nil
}

func (db *DB) truncateAll(ctx context.Context) error {
	for _, table := range []string{"rated_books", "ratings", "books"} {
		if _, err := db.conn.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("truncating %s: %w", table, err)
		}
	}
	return nil
}

// loadBooks ingests the catalog CSV. The source carries the Book-Crossing
// column headers; everything is read as text and cast defensively:
// unparseable or zero publication years become NULL, the title key is
// derived in the same normalization the engine applies to queries, and
// duplicate ISBN rows collapse to one deterministically.
func (db *DB) loadBooks(ctx context.Context, path string) error {
	const query = `
		INSERT INTO books (isbn, title, title_key, author, publisher, publication_year, cover_url)
		SELECT
			trim("ISBN"),
			trim("Book-Title"),
			lower(trim(regexp_replace("Book-Title", '\s+', ' ', 'g'))),
			trim("Book-Author"),
			trim("Publisher"),
			nullif(try_cast("Year-Of-Publication" AS INTEGER), 0),
			trim("Image-URL-S")
		FROM read_csv(?, header = true, all_varchar = true, ignore_errors = true)
		WHERE trim("ISBN") <> '' AND trim("Book-Title") <> ''
		QUALIFY row_number() OVER (PARTITION BY trim("ISBN") ORDER BY trim("Book-Title")) = 1`

	inserted, err := db.execLoad(ctx, "load_books", query, path)
	if err != nil {
		return err
	}
	db.logSkipped(ctx, "load_books", path, inserted)
	return nil
}

// loadRatings ingests the ratings CSV, dropping the implicit zero
// ratings the source uses for "interacted but did not rate" and keeping
// one row per (user, edition).
func (db *DB) loadRatings(ctx context.Context, path string) error {
	const query = `
		INSERT INTO ratings (user_id, isbn, rating_value)
		SELECT
			try_cast("User-ID" AS INTEGER),
			trim("ISBN"),
			max(try_cast("Book-Rating" AS INTEGER))
		FROM read_csv(?, header = true, all_varchar = true, ignore_errors = true)
		WHERE try_cast("User-ID" AS INTEGER) IS NOT NULL
		  AND trim("ISBN") <> ''
		  AND try_cast("Book-Rating" AS INTEGER) > 0
		GROUP BY 1, 2`

	inserted, err := db.execLoad(ctx, "load_ratings", query, path)
	if err != nil {
		return err
	}
	db.logSkipped(ctx, "load_ratings", path, inserted)
	return nil
}

// materializeRatedBooks rebuilds the denormalized rating table. Ratings
// whose ISBN has no catalog row are dropped here, mirroring the inner
// join of the source pipeline.
func (db *DB) materializeRatedBooks(ctx context.Context) error {
	const query = `
		INSERT INTO rated_books (user_id, isbn, rating_value, title_key)
		SELECT r.user_id, r.isbn, r.rating_value, b.title_key
		FROM ratings r
		JOIN books b USING (isbn)`

	_, err := db.execLoad(ctx, "materialize_rated_books", query)
	return err
}

func (db *DB) execLoad(ctx context.Context, name, query string, args ...any) (int64, error) {
	start := time.Now()
	result, err := db.conn.ExecContext(ctx, query, args...)
	metrics.ObserveDBQuery(name, time.Since(start))
	if err != nil {
		return 0, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		logging.Warn().Err(err).Str("step", name).Msg("Inserted row count unavailable")
		return unknownRowCount, nil
	}
	logging.Info().Str("step", name).Int64("rows", rows).Msg("Load step complete")
	return rows, nil
}

// unknownRowCount marks a load step whose inserted row count could not
// be determined. Skipped-row accounting is suppressed for such steps.
const unknownRowCount int64 = -1

// logSkipped reports how many readable source rows the domain filters
// rejected (zero ratings, blank keys, duplicates). Rows the CSV reader
// could not parse are dropped before either count and not included.
// Per-row failures are never fatal, only accounted for.
func (db *DB) logSkipped(ctx context.Context, step, path string, inserted int64) {
	if inserted == unknownRowCount {
		return
	}
	var raw int64
	err := db.conn.QueryRowContext(ctx,
		"SELECT count(*) FROM read_csv(?, header = true, all_varchar = true, ignore_errors = true)",
		path).Scan(&raw)
	if err != nil {
		logging.Warn().Err(err).Str("step", step).Msg("Could not count source rows")
		return
	}
	if skipped := raw - inserted; skipped > 0 {
		logging.Warn().
			Str("step", step).
			Int64("source_rows", raw).
			Int64("skipped", skipped).
			Msg("Source rows dropped during ingest")
	}
}

// publishRowMetrics refreshes the per-table row count gauges.
func (db *DB) publishRowMetrics(ctx context.Context) error {
	for _, table := range []string{"books", "ratings", "rated_books"} {
		var count int64
		if err := db.conn.QueryRowContext(ctx, "SELECT count(*) FROM "+table).Scan(&count); err != nil {
			return fmt.Errorf("counting %s: %w", table, err)
		}
		metrics.DatasetRows.WithLabelValues(table).Set(float64(count))
	}
	return nil
}
