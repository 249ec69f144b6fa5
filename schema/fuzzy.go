package schema

import "github.com/agext/levenshtein"

// Distance returns the Levenshtein edit distance between two strings.
// Comparison is exact; callers should normalize case and whitespace first
// (see Normalize).
func Distance(a, b string) int {
	return levenshtein.Distance(a, b, levenshtein.NewParams())
}

// WithinTolerance reports whether two strings are within maxDist edits of
// each other. A tolerance of 0 demands equality.
func WithinTolerance(a, b string, maxDist int) bool {
	if maxDist == 0 {
		return a == b
	}
	// Cheap length gate before computing the full distance.
	if la, lb := len(a), len(b); la-lb > maxDist || lb-la > maxDist {
		return false
	}
	return Distance(a, b) <= maxDist
}
