package database

import (
	"context"
	"errors"
)

// ErrPersonNotFound is returned when a person ID does not resolve
var ErrPersonNotFound = errors.New("person not found")

// PeopleReader provides read-only access to people and their embeddings
type PeopleReader interface {
	// GetPairID returns the pair a person belongs to, or ErrPersonNotFound
	GetPairID(ctx context.Context, personID string) (string, error)
	// ListPeople returns every person of a pair with their embeddings
	ListPeople(ctx context.Context, pairID string) ([]PersonWithEmbeddings, error)
}

// PeopleWriter provides write access to people and their embeddings
type PeopleWriter interface {
	PeopleReader

	// CreatePerson inserts a person and returns the stored row
	CreatePerson(ctx context.Context, p NewPerson) (*Person, error)

	// AddEmbedding links a face vector to an existing person
	AddEmbedding(ctx context.Context, personID string, embedding []float32) (*FaceEmbedding, error)

	// UpdatePerson applies the non-nil fields of u.
	// Returns ErrPersonNotFound when no row matches.
	UpdatePerson(ctx context.Context, personID string, u PersonUpdate) error

	// DeleteEmbeddings removes every embedding owned by a person
	DeleteEmbeddings(ctx context.Context, personID string) (int64, error)

	// DeletePerson removes the person row only. Callers delete embeddings first.
	DeletePerson(ctx context.Context, personID string) (int64, error)
}
