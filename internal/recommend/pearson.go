// Pagecrow - Collaborative Filtering Book Recommendations
// Copyright 2026 The Pagecrow Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pagecrow/pagecrow

package recommend

import "math"

// Pearson computes the Pearson correlation coefficient between two rating
// vectors over the intersection of their user keys.
//
// The returned sample size is the number of co-raters used. ok is false
// when the correlation is undefined: fewer than minSupport co-raters, or
// zero variance in either vector over the intersection (every co-rater
// gave the same score). An undefined correlation is never reported as 0;
// the candidate is excluded by the caller instead.
func Pearson(a, b map[int]float64, minSupport int) (corr float64, sampleSize int, ok bool) {
	if minSupport < 2 {
		// Below two paired samples the coefficient is meaningless.
		minSupport = 2
	}

	// Iterate over the smaller map to find the intersection.
	small, large := a, b
	if len(b) < len(a) {
		small, large = b, a
	}

	common := make([]int, 0, len(small))
	for user := range small {
		if _, shared := large[user]; shared {
			common = append(common, user)
		}
	}

	n := len(common)
	if n < minSupport {
		return 0, n, false
	}

	var sumA, sumB float64
	for _, user := range common {
		sumA += a[user]
		sumB += b[user]
	}
	meanA := sumA / float64(n)
	meanB := sumB / float64(n)

	var num, denA, denB float64
	for _, user := range common {
		diffA := a[user] - meanA
		diffB := b[user] - meanB
		num += diffA * diffB
		denA += diffA * diffA
		denB += diffB * diffB
	}

	if denA == 0 || denB == 0 {
		return 0, n, false
	}

	corr = num / (math.Sqrt(denA) * math.Sqrt(denB))

	// Floating point rounding can push the ratio marginally outside [-1, 1].
	if corr > 1 {
		corr = 1
	} else if corr < -1 {
		corr = -1
	}

	return corr, n, true
}

// mean returns the arithmetic mean of a rating vector's values.
// Returns 0 for an empty vector.
func mean(ratings map[int]float64) float64 {
	if len(ratings) == 0 {
		return 0
	}
	var sum float64
	for _, v := range ratings {
		sum += v
	}
	return sum / float64(len(ratings))
}
