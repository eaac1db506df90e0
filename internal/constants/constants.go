// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

import "time"

// Face matching constants
const (
	// DefaultMatchThreshold is the minimum cosine similarity for a scan to
	// report a positive identification
	DefaultMatchThreshold = 0.6

	// CosineEpsilon is added to the norm product so a zero vector scores 0
	// instead of dividing by zero
	CosineEpsilon = 1e-9
)

// Person constants
const (
	// MaxAge is the largest accepted age; people.age is a PostgreSQL INTEGER
	MaxAge = 150
)

// Storage constants
const (
	// DefaultImageBucket is the bucket holding profile images
	DefaultImageBucket = "face-images"

	// DefaultStorageDir is the directory used by the local blob backend
	DefaultStorageDir = "./data/images"

	// LocalImagesRoute is where the local blob backend is served from
	LocalImagesRoute = "/images"
)

// CLI constants
const (
	// SeedWorkerPoolSize is the default number of parallel uploads during seeding
	SeedWorkerPoolSize = 4

	// ShutdownTimeout bounds graceful server shutdown
	ShutdownTimeout = 30 * time.Second
)
