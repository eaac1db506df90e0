// Package facematch compares a query face embedding against the stored
// embeddings of a pair and picks the best-scoring person.
//
// The search is exhaustive: every stored vector is scored. Per-pair sets are
// small (a household's familiar people), so no index is kept.
package facematch

import "github.com/kozaktomas/face-recall/internal/database"

// Result is the outcome of a scan
type Result struct {
	Matched bool
	Score   float64
	Person  *database.PersonWithEmbeddings
	// Skipped counts stored vectors not compared because of a length mismatch
	Skipped int
}
