package people

import (
	"io"
	"strconv"
	"strings"

	"github.com/kozaktomas/face-recall/internal/apperr"
	"github.com/kozaktomas/face-recall/internal/constants"
	"github.com/kozaktomas/face-recall/internal/database"
	"github.com/kozaktomas/face-recall/internal/facematch"
)

// ImageFile is an uploaded profile image
type ImageFile struct {
	Filename string
	Size     int64
	Content  io.ReadSeeker
}

// AddPersonRequest is the input of AddPerson. Age and Embedding arrive as
// form strings and are parsed during validation.
type AddPersonRequest struct {
	PairID       string
	Name         string
	Relationship string
	Occupation   string
	Age          string // optional, non-negative integer
	Notes        string
	Embedding    string // optional, JSON array of numbers
	Image        *ImageFile
}

// UpdatePersonRequest is the input of UpdatePerson. Nil fields were not sent
// and are left unchanged.
type UpdatePersonRequest struct {
	PersonID     string
	Name         *string
	Relationship *string
	Occupation   *string
	Age          *string // "" clears the age
	Notes        *string
	Image        *ImageFile
}

// ScanRequest is the input of Scan
type ScanRequest struct {
	PairID    string    `json:"pair_id"`
	Embedding []float64 `json:"embedding"`
}

// DeletePersonRequest is the input of DeletePerson
type DeletePersonRequest struct {
	PersonID string `json:"person_id"`
}

// parseAge returns nil for an empty value.
func parseAge(raw string) (*int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	age, err := strconv.Atoi(raw)
	if err != nil {
		return nil, apperr.Validationf("age must be a whole number, got %q", raw)
	}
	if age < 0 {
		return nil, apperr.Validationf("age must not be negative, got %d", age)
	}
	if age > constants.MaxAge {
		return nil, apperr.Validationf("age must be at most %d, got %d", constants.MaxAge, age)
	}
	return &age, nil
}

func (r *AddPersonRequest) validate(dim int) (database.NewPerson, []float32, error) {
	if r.Image == nil || r.Image.Content == nil {
		return database.NewPerson{}, nil, apperr.Validation("Image file is required")
	}
	if strings.TrimSpace(r.PairID) == "" {
		return database.NewPerson{}, nil, apperr.Validation("pair_id is required")
	}

	age, err := parseAge(r.Age)
	if err != nil {
		return database.NewPerson{}, nil, err
	}

	var embedding []float32
	if strings.TrimSpace(r.Embedding) != "" {
		embedding, err = facematch.ParseEmbedding(r.Embedding)
		if err == nil {
			err = facematch.ValidateEmbedding(embedding, dim)
		}
		if err != nil {
			return database.NewPerson{}, nil, apperr.Validation(err.Error())
		}
	}

	return database.NewPerson{
		PairID:       r.PairID,
		Name:         r.Name,
		Relationship: r.Relationship,
		Occupation:   r.Occupation,
		Age:          age,
		Notes:        r.Notes,
	}, embedding, nil
}

func (r *UpdatePersonRequest) validate() (database.PersonUpdate, error) {
	if strings.TrimSpace(r.PersonID) == "" {
		return database.PersonUpdate{}, apperr.Validation("person_id is required")
	}

	u := database.PersonUpdate{
		Name:         r.Name,
		Relationship: r.Relationship,
		Occupation:   r.Occupation,
		Notes:        r.Notes,
	}
	if r.Age != nil {
		age, err := parseAge(*r.Age)
		if err != nil {
			return database.PersonUpdate{}, err
		}
		u.Age = age
		u.ClearAge = age == nil
	}
	return u, nil
}

func (r *ScanRequest) validate(dim int) ([]float32, error) {
	if strings.TrimSpace(r.PairID) == "" {
		return nil, apperr.Validation("pair_id is required")
	}
	embedding, err := facematch.ToFloat32(r.Embedding)
	if err == nil {
		err = facematch.ValidateEmbedding(embedding, dim)
	}
	if err != nil {
		return nil, apperr.Validation(err.Error())
	}
	return embedding, nil
}
