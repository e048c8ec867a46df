// Copyright 2026 The CrossCheck Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package similarity provides cheap lexical similarity between two texts.
// It is used where no embedding model is available: consensus analysis
// compares independently generated answers with it.
package similarity

import "strings"

// Jaccard computes the Jaccard index between the unique lowercase
// whitespace-delimited token sets of a and b: |A ∩ B| / |A ∪ B|.
//
// The result is symmetric and order-independent. If either text is empty or
// whitespace-only, the result is 0.0 by contract (including both empty).
func Jaccard(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)

	if len(setA) == 0 || len(setB) == 0 {
		return 0.0
	}

	intersection := 0
	for tok := range setA {
		if _, ok := setB[tok]; ok {
			intersection++
		}
	}

	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0.0
	}

	return float64(intersection) / float64(union)
}

// tokenSet lowercases the text and collects its unique whitespace tokens.
func tokenSet(text string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(text))
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}
