// Pagecrow - Collaborative Filtering Book Recommendations
// Copyright 2026 The Pagecrow Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pagecrow/pagecrow

// Package recommend implements the collaborative-filtering recommendation
// engine.
//
// Given a target book title, the engine:
//
//  1. Resolves the title to a canonical catalog record (case-insensitive,
//     whitespace-insensitive, one representative edition per title).
//  2. Collects the ratings of the target's readers, and the rating vectors
//     of every other title those readers rated (one batched query).
//  3. Scores each candidate with the Pearson correlation between the
//     target's and the candidate's rating vectors over their co-rater
//     intersection. Candidates below the minimum support, or with zero
//     variance over the intersection, are excluded rather than scored 0.
//  4. Ranks by correlation descending (ties: sample size descending, then
//     title key ascending), truncates to top-N, and attaches catalog
//     metadata and the candidate's average rating.
//
// The engine is a pure reader: the catalog and rating tables are loaded
// once at startup and never mutated afterwards, so concurrent requests
// need no synchronization.
package recommend
