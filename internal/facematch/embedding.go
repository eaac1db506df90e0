package facematch

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	// ErrEmptyEmbedding is returned for a missing or zero-length vector
	ErrEmptyEmbedding = errors.New("embedding is required")
	// ErrNonFinite is returned when a vector contains NaN or Inf
	ErrNonFinite = errors.New("embedding contains non-finite values")
)

// ParseEmbedding decodes a JSON array of numbers, as sent in multipart forms.
func ParseEmbedding(raw string) ([]float32, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrEmptyEmbedding
	}

	var values []float64
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, fmt.Errorf("embedding must be a JSON array of numbers: %w", err)
	}
	return ToFloat32(values)
}

// ToFloat32 converts a decoded vector, rejecting values float32 cannot hold.
func ToFloat32(values []float64) ([]float32, error) {
	if len(values) == 0 {
		return nil, ErrEmptyEmbedding
	}
	out := make([]float32, len(values))
	for i, v := range values {
		f := float32(v)
		if math.IsNaN(v) || math.IsInf(float64(f), 0) {
			return nil, fmt.Errorf("%w (index %d)", ErrNonFinite, i)
		}
		out[i] = f
	}
	return out, nil
}

// ValidateEmbedding checks a vector is non-empty, finite and, when dim > 0,
// exactly dim long.
func ValidateEmbedding(vec []float32, dim int) error {
	if len(vec) == 0 {
		return ErrEmptyEmbedding
	}
	for i, v := range vec {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return fmt.Errorf("%w (index %d)", ErrNonFinite, i)
		}
	}
	if dim > 0 && len(vec) != dim {
		return fmt.Errorf("embedding must have %d dimensions, got %d", dim, len(vec))
	}
	return nil
}
