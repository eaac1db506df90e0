package facematch

import (
	"errors"
	"fmt"
	"math"

	"github.com/kozaktomas/face-recall/internal/database"
)

// BestMatch scores query against every embedding of every person and
// returns the single best pair. Ties keep the first one seen because only a
// strictly greater score replaces the current best. A best score below
// threshold is reported as no match.
//
// Stored vectors whose length differs from the query are skipped and
// counted in Result.Skipped; vectors are never padded or truncated. When
// every stored vector was skipped the query itself is the odd one out and
// the scan fails with database.ErrDimensionMismatch.
func BestMatch(query []float32, people []database.PersonWithEmbeddings, threshold float64) (Result, error) {
	bestScore := math.Inf(-1)
	bestIdx := -1
	compared, skipped := 0, 0
	var firstErr error

	for i := range people {
		for _, fe := range people[i].FaceEmbeddings {
			score, err := database.CosineSimilarity(query, fe.Embedding)
			if errors.Is(err, database.ErrDimensionMismatch) {
				if firstErr == nil {
					firstErr = fmt.Errorf("person %s: %w", people[i].ID, err)
				}
				skipped++
				continue
			}
			if err != nil {
				return Result{}, fmt.Errorf("person %s: %w", people[i].ID, err)
			}
			compared++
			if score > bestScore {
				bestScore = score
				bestIdx = i
			}
		}
	}

	if compared == 0 && firstErr != nil {
		return Result{Skipped: skipped}, firstErr
	}
	if bestIdx < 0 || bestScore < threshold {
		return Result{Matched: false, Skipped: skipped}, nil
	}
	return Result{Matched: true, Score: bestScore, Person: &people[bestIdx], Skipped: skipped}, nil
}
