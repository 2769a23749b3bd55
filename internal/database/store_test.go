// Pagecrow - Collaborative Filtering Book Recommendations
// Copyright 2026 The Pagecrow Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pagecrow/pagecrow

package database

import (
	"context"
	"testing"

	"github.com/pagecrow/pagecrow/internal/config"
)

// testDBSemaphore serializes DuckDB setup across parallel tests. Many
// concurrent CGO connections can hang under CI resource pressure.
var testDBSemaphore = make(chan struct{}, 1)

// setupTestDB creates an in-memory database and registers cleanup.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	testDBSemaphore <- struct{}{}
	t.Cleanup(func() { <-testDBSemaphore })

	cfg := &config.DatabaseConfig{
		Path:      ":memory:",
		MaxMemory: "1GB",
		Threads:   2,
	}
	db, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return db
}

type bookRow struct {
	isbn, title, titleKey, author string
	year                          any // int or nil
}

type ratingRow struct {
	userID int
	isbn   string
	value  int
}

func seed(t *testing.T, db *DB, books []bookRow, ratings []ratingRow) {
	t.Helper()
	ctx := context.Background()

	for _, b := range books {
		_, err := db.conn.ExecContext(ctx,
			`INSERT INTO books (isbn, title, title_key, author, publisher, publication_year, cover_url)
			 VALUES (?, ?, ?, ?, '', ?, '')`,
			b.isbn, b.title, b.titleKey, b.author, b.year)
		if err != nil {
			t.Fatalf("seeding book %s: %v", b.isbn, err)
		}
	}
	for _, r := range ratings {
		_, err := db.conn.ExecContext(ctx,
			`INSERT INTO ratings (user_id, isbn, rating_value) VALUES (?, ?, ?)`,
			r.userID, r.isbn, r.value)
		if err != nil {
			t.Fatalf("seeding rating (%d, %s): %v", r.userID, r.isbn, err)
		}
	}
	if err := db.materializeRatedBooks(ctx); err != nil {
		t.Fatalf("materializeRatedBooks() error = %v", err)
	}
}

func TestResolveTitle(t *testing.T) {
	db := setupTestDB(t)
	seed(t, db, []bookRow{
		// Three editions of the same work: the yearless one must never
		// win, and among the dated ones the smallest ISBN does.
		{isbn: "B200", title: "Dune", titleKey: "dune", author: "Frank Herbert", year: 1990},
		{isbn: "B100", title: "DUNE", titleKey: "dune", author: "Frank Herbert", year: 1965},
		{isbn: "A050", title: "Dune ", titleKey: "dune", author: "Frank Herbert", year: nil},
		{isbn: "C001", title: "Neuromancer", titleKey: "neuromancer", author: "William Gibson", year: 1984},
	}, nil)

	ctx := context.Background()

	book, found, err := db.ResolveTitle(ctx, "dune")
	if err != nil {
		t.Fatalf("ResolveTitle() error = %v", err)
	}
	if !found {
		t.Fatal("ResolveTitle() found = false, want true")
	}
	if book.ISBN != "B100" {
		t.Errorf("canonical ISBN = %s, want B100 (smallest dated edition)", book.ISBN)
	}
	if book.PublicationYear != 1965 {
		t.Errorf("publication year = %d, want 1965", book.PublicationYear)
	}

	if _, found, err = db.ResolveTitle(ctx, "no such title"); err != nil || found {
		t.Errorf("ResolveTitle(unknown) = (found=%v, err=%v), want (false, nil)", found, err)
	}
}

func TestResolveTitleAllEditionsYearless(t *testing.T) {
	db := setupTestDB(t)
	seed(t, db, []bookRow{
		{isbn: "X001", title: "Mystery", titleKey: "mystery", year: nil},
	}, nil)

	_, found, err := db.ResolveTitle(context.Background(), "mystery")
	if err != nil {
		t.Fatalf("ResolveTitle() error = %v", err)
	}
	if found {
		t.Error("ResolveTitle() found = true for title with no dated edition")
	}
}

func TestTargetRatingsMergesEditions(t *testing.T) {
	db := setupTestDB(t)
	seed(t, db, []bookRow{
		{isbn: "D1", title: "Dune", titleKey: "dune", year: 1965},
		{isbn: "D2", title: "Dune", titleKey: "dune", year: 1990},
	}, []ratingRow{
		// User 1 rated both editions: the higher rating wins.
		{userID: 1, isbn: "D1", value: 6},
		{userID: 1, isbn: "D2", value: 9},
		{userID: 2, isbn: "D2", value: 7},
	})

	ratings, err := db.TargetRatings(context.Background(), "dune")
	if err != nil {
		t.Fatalf("TargetRatings() error = %v", err)
	}
	if len(ratings) != 2 {
		t.Fatalf("got %d raters, want 2", len(ratings))
	}
	if ratings[1] != 9 {
		t.Errorf("user 1 rating = %v, want 9 (max across editions)", ratings[1])
	}
	if ratings[2] != 7 {
		t.Errorf("user 2 rating = %v, want 7", ratings[2])
	}
}

func TestCandidateRatings(t *testing.T) {
	db := setupTestDB(t)
	seed(t, db, []bookRow{
		{isbn: "T1", title: "Target", titleKey: "target", year: 2000},
		{isbn: "P1", title: "Popular", titleKey: "popular", year: 2001},
		{isbn: "S1", title: "Sparse", titleKey: "sparse", year: 2002},
		{isbn: "O1", title: "Outsider", titleKey: "outsider", year: 2003},
	}, []ratingRow{
		{userID: 1, isbn: "T1", value: 8},
		{userID: 2, isbn: "T1", value: 6},
		// Popular: rated by both readers of the target.
		{userID: 1, isbn: "P1", value: 9},
		{userID: 2, isbn: "P1", value: 5},
		// Sparse: only one reader of the target rated it.
		{userID: 1, isbn: "S1", value: 4},
		// Outsider: rated only by a non-reader, must not appear at all.
		{userID: 3, isbn: "O1", value: 10},
	})

	candidates, err := db.CandidateRatings(context.Background(), "target", 2)
	if err != nil {
		t.Fatalf("CandidateRatings() error = %v", err)
	}

	if _, ok := candidates["target"]; ok {
		t.Error("target title appeared in its own candidate set")
	}
	if _, ok := candidates["sparse"]; ok {
		t.Error("candidate below the co-rater ratings floor was returned")
	}
	if _, ok := candidates["outsider"]; ok {
		t.Error("candidate with no co-raters was returned")
	}

	popular, ok := candidates["popular"]
	if !ok {
		t.Fatal("qualifying candidate missing from result")
	}
	if popular[1] != 9 || popular[2] != 5 {
		t.Errorf("popular vector = %v, want map[1:9 2:5]", popular)
	}
}

func TestCandidateRatingsRestrictedToReaders(t *testing.T) {
	db := setupTestDB(t)
	seed(t, db, []bookRow{
		{isbn: "T1", title: "Target", titleKey: "target", year: 2000},
		{isbn: "P1", title: "Popular", titleKey: "popular", year: 2001},
	}, []ratingRow{
		{userID: 1, isbn: "T1", value: 8},
		{userID: 1, isbn: "P1", value: 9},
		// User 9 never rated the target: their rating of Popular is
		// outside the co-rating set.
		{userID: 9, isbn: "P1", value: 2},
	})

	candidates, err := db.CandidateRatings(context.Background(), "target", 1)
	if err != nil {
		t.Fatalf("CandidateRatings() error = %v", err)
	}
	popular := candidates["popular"]
	if _, ok := popular[9]; ok {
		t.Error("candidate vector contains a user who never rated the target")
	}
	if popular[1] != 9 {
		t.Errorf("popular vector = %v, want only user 1 with 9", popular)
	}
}

func TestBooksByTitleKeys(t *testing.T) {
	db := setupTestDB(t)
	seed(t, db, []bookRow{
		{isbn: "B2", title: "Dune", titleKey: "dune", year: 1990},
		{isbn: "B1", title: "Dune", titleKey: "dune", year: 1965},
		{isbn: "C1", title: "Neuromancer", titleKey: "neuromancer", year: 1984},
		{isbn: "X1", title: "Undated", titleKey: "undated", year: nil},
	}, nil)

	books, err := db.BooksByTitleKeys(context.Background(), []string{"dune", "neuromancer", "undated", "missing"})
	if err != nil {
		t.Fatalf("BooksByTitleKeys() error = %v", err)
	}
	if len(books) != 2 {
		t.Fatalf("got %d records, want 2", len(books))
	}
	if books["dune"].ISBN != "B1" {
		t.Errorf("dune representative = %s, want B1", books["dune"].ISBN)
	}
	if _, ok := books["undated"]; ok {
		t.Error("title with no dated edition returned a record")
	}

	empty, err := db.BooksByTitleKeys(context.Background(), nil)
	if err != nil {
		t.Fatalf("BooksByTitleKeys(nil) error = %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("BooksByTitleKeys(nil) returned %d records, want 0", len(empty))
	}
}

func TestTitleSuggestions(t *testing.T) {
	db := setupTestDB(t)
	seed(t, db, []bookRow{
		{isbn: "B2", title: "The Hobbit", titleKey: "the hobbit", year: 1937},
		{isbn: "B1", title: "THE HOBBIT", titleKey: "the hobbit", year: 1951},
		{isbn: "B3", title: "The Hours", titleKey: "the hours", year: 1998},
		{isbn: "B4", title: "Dune", titleKey: "dune", year: 1965},
	}, nil)

	ctx := context.Background()

	suggestions, err := db.TitleSuggestions(ctx, "the ho", 10)
	if err != nil {
		t.Fatalf("TitleSuggestions() error = %v", err)
	}
	// One suggestion per title group, ordered by title key; the display
	// title comes from the smallest-ISBN edition.
	want := []string{"THE HOBBIT", "The Hours"}
	if len(suggestions) != len(want) {
		t.Fatalf("got %d suggestions %v, want %d", len(suggestions), suggestions, len(want))
	}
	for i, title := range want {
		if suggestions[i] != title {
			t.Errorf("suggestion %d = %q, want %q", i, suggestions[i], title)
		}
	}

	// Matching is substring, not prefix.
	inner, err := db.TitleSuggestions(ctx, "obbit", 10)
	if err != nil {
		t.Fatalf("TitleSuggestions() error = %v", err)
	}
	if len(inner) != 1 || inner[0] != "THE HOBBIT" {
		t.Errorf("substring match = %v, want [THE HOBBIT]", inner)
	}

	limited, err := db.TitleSuggestions(ctx, "the ho", 1)
	if err != nil {
		t.Fatalf("TitleSuggestions() error = %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("limit 1 returned %d suggestions", len(limited))
	}

	// LIKE metacharacters in the prefix must match literally.
	if got, err := db.TitleSuggestions(ctx, "100%", 10); err != nil || len(got) != 0 {
		t.Errorf("TitleSuggestions(%q) = (%v, %v), want no matches", "100%", got, err)
	}
}

func TestCounts(t *testing.T) {
	db := setupTestDB(t)
	seed(t, db, []bookRow{
		{isbn: "B1", title: "Dune", titleKey: "dune", year: 1965},
	}, []ratingRow{
		{userID: 1, isbn: "B1", value: 8},
		{userID: 2, isbn: "B1", value: 6},
	})

	books, ratings, err := db.Counts(context.Background())
	if err != nil {
		t.Fatalf("Counts() error = %v", err)
	}
	if books != 1 || ratings != 2 {
		t.Errorf("Counts() = (%d, %d), want (1, 2)", books, ratings)
	}
}

func TestEscapeLike(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"100%", `100\%`},
		{"under_score", `under\_score`},
		{`back\slash`, `back\\slash`},
	}
	for _, tt := range tests {
		if got := escapeLike(tt.in); got != tt.want {
			t.Errorf("escapeLike(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
