// Package mock provides mock implementations of database interfaces for testing.
package mock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kozaktomas/face-recall/internal/database"
)

// MockPeopleStore is an in-memory implementation of database.PeopleWriter.
// People are kept in insertion order like the PostgreSQL repository returns them.
type MockPeopleStore struct {
	mu         sync.RWMutex
	people     []database.Person
	embeddings []database.FaceEmbedding
	nextID     int

	// Call counters
	Writes int

	// Error injection
	GetPairIDError        error
	ListPeopleError       error
	CreatePersonError     error
	AddEmbeddingError     error
	UpdatePersonError     error
	DeleteEmbeddingsError error
	DeletePersonError     error
}

// NewMockPeopleStore creates a new empty mock store
func NewMockPeopleStore() *MockPeopleStore {
	return &MockPeopleStore{}
}

func (m *MockPeopleStore) newID(prefix string) string {
	m.nextID++
	return fmt.Sprintf("%s-%d", prefix, m.nextID)
}

// AddPerson seeds a person with optional embeddings and returns its ID
func (m *MockPeopleStore) AddPerson(p database.Person, embeddings ...[]float32) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p.ID == "" {
		p.ID = m.newID("person")
	}
	m.people = append(m.people, p)
	for _, e := range embeddings {
		m.embeddings = append(m.embeddings, database.FaceEmbedding{
			ID:        m.newID("emb"),
			PersonID:  p.ID,
			Embedding: e,
		})
	}
	return p.ID
}

// Person returns a copy of a stored person, or nil
func (m *MockPeopleStore) Person(personID string) *database.Person {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.people {
		if p.ID == personID {
			return &p
		}
	}
	return nil
}

// PeopleCount returns the number of stored people
func (m *MockPeopleStore) PeopleCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.people)
}

// EmbeddingCount returns the number of embeddings owned by a person
func (m *MockPeopleStore) EmbeddingCount(personID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, e := range m.embeddings {
		if e.PersonID == personID {
			count++
		}
	}
	return count
}

// GetPairID returns the pair of a person
func (m *MockPeopleStore) GetPairID(ctx context.Context, personID string) (string, error) {
	if m.GetPairIDError != nil {
		return "", m.GetPairIDError
	}
	p := m.Person(personID)
	if p == nil {
		return "", database.ErrPersonNotFound
	}
	return p.PairID, nil
}

// ListPeople returns people of a pair with their embeddings
func (m *MockPeopleStore) ListPeople(ctx context.Context, pairID string) ([]database.PersonWithEmbeddings, error) {
	if m.ListPeopleError != nil {
		return nil, m.ListPeopleError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := []database.PersonWithEmbeddings{}
	for _, p := range m.people {
		if p.PairID != pairID {
			continue
		}
		pwe := database.PersonWithEmbeddings{Person: p, FaceEmbeddings: []database.FaceEmbedding{}}
		for _, e := range m.embeddings {
			if e.PersonID == p.ID {
				pwe.FaceEmbeddings = append(pwe.FaceEmbeddings, e)
			}
		}
		result = append(result, pwe)
	}
	return result, nil
}

// CreatePerson inserts a person
func (m *MockPeopleStore) CreatePerson(ctx context.Context, np database.NewPerson) (*database.Person, error) {
	if m.CreatePersonError != nil {
		return nil, m.CreatePersonError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Writes++
	now := time.Now()
	p := database.Person{
		ID:           m.newID("person"),
		PairID:       np.PairID,
		Name:         np.Name,
		Relationship: np.Relationship,
		Occupation:   np.Occupation,
		Age:          np.Age,
		Notes:        np.Notes,
		ImageURL:     np.ImageURL,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	m.people = append(m.people, p)
	return &p, nil
}

// AddEmbedding links an embedding to a person
func (m *MockPeopleStore) AddEmbedding(ctx context.Context, personID string, embedding []float32) (*database.FaceEmbedding, error) {
	if m.AddEmbeddingError != nil {
		return nil, m.AddEmbeddingError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Writes++
	fe := database.FaceEmbedding{
		ID:        m.newID("emb"),
		PersonID:  personID,
		Embedding: embedding,
		CreatedAt: time.Now(),
	}
	m.embeddings = append(m.embeddings, fe)
	return &fe, nil
}

// UpdatePerson applies the set fields of u
func (m *MockPeopleStore) UpdatePerson(ctx context.Context, personID string, u database.PersonUpdate) error {
	if m.UpdatePersonError != nil {
		return m.UpdatePersonError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.people {
		p := &m.people[i]
		if p.ID != personID {
			continue
		}
		m.Writes++
		if u.Name != nil {
			p.Name = *u.Name
		}
		if u.Relationship != nil {
			p.Relationship = *u.Relationship
		}
		if u.Occupation != nil {
			p.Occupation = *u.Occupation
		}
		switch {
		case u.ClearAge:
			p.Age = nil
		case u.Age != nil:
			age := *u.Age
			p.Age = &age
		}
		if u.Notes != nil {
			p.Notes = *u.Notes
		}
		if u.ImageURL != nil {
			p.ImageURL = *u.ImageURL
		}
		p.UpdatedAt = time.Now()
		return nil
	}
	return database.ErrPersonNotFound
}

// DeleteEmbeddings removes embeddings of a person
func (m *MockPeopleStore) DeleteEmbeddings(ctx context.Context, personID string) (int64, error) {
	if m.DeleteEmbeddingsError != nil {
		return 0, m.DeleteEmbeddingsError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.embeddings[:0]
	var removed int64
	for _, e := range m.embeddings {
		if e.PersonID == personID {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	m.embeddings = kept
	m.Writes++
	return removed, nil
}

// DeletePerson removes a person row
func (m *MockPeopleStore) DeletePerson(ctx context.Context, personID string) (int64, error) {
	if m.DeletePersonError != nil {
		return 0, m.DeletePersonError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, p := range m.people {
		if p.ID == personID {
			m.people = append(m.people[:i], m.people[i+1:]...)
			m.Writes++
			return 1, nil
		}
	}
	return 0, nil
}

var _ database.PeopleWriter = (*MockPeopleStore)(nil)
