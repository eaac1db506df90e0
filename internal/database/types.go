package database

import (
	"time"
)

// Person is a familiar person registered under a pair
type Person struct {
	ID           string    `json:"id"`
	PairID       string    `json:"pair_id"`
	Name         string    `json:"name"`
	Relationship string    `json:"relationship"`
	Occupation   string    `json:"occupation"`
	Age          *int      `json:"age"`
	Notes        string    `json:"notes"`
	ImageURL     string    `json:"image_url"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// FaceEmbedding is one face vector owned by a person
type FaceEmbedding struct {
	ID        string    `json:"id"`
	PersonID  string    `json:"-"`
	Embedding []float32 `json:"embedding"`
	CreatedAt time.Time `json:"-"`
}

// PersonWithEmbeddings is a person together with all of its face vectors.
// FaceEmbeddings is never nil so it always encodes as an array.
type PersonWithEmbeddings struct {
	Person
	FaceEmbeddings []FaceEmbedding `json:"face_embeddings"`
}

// NewPerson is the data needed to insert a person
type NewPerson struct {
	PairID       string
	Name         string
	Relationship string
	Occupation   string
	Age          *int
	Notes        string
	ImageURL     string
}

// PersonUpdate holds the fields to change on a person. Nil fields are left
// untouched; ClearAge sets age to NULL.
type PersonUpdate struct {
	Name         *string
	Relationship *string
	Occupation   *string
	Age          *int
	ClearAge     bool
	Notes        *string
	ImageURL     *string
}
