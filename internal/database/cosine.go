package database

import (
	"errors"
	"fmt"
	"math"

	"github.com/kozaktomas/face-recall/internal/constants"
)

// ErrDimensionMismatch is returned when two vectors have different lengths
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// CosineSimilarity computes dot(a,b) / (|a|*|b| + epsilon).
// A zero vector scores 0 against anything. Vectors must have equal length.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	return dotProduct / (math.Sqrt(normA)*math.Sqrt(normB) + constants.CosineEpsilon), nil
}
