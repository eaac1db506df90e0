package blob

import (
	"context"
	"io"
	"sync"
)

// Object is a stored blob kept by Memory.
type Object struct {
	ContentType string
	Data        []byte
}

// Memory is an in-memory Store, used in tests and dry runs.
type Memory struct {
	mu        sync.Mutex
	objects   map[string]Object
	publicURL string

	// PutError, when set, is returned by every Put.
	PutError error
}

// NewMemory creates an empty in-memory store.
func NewMemory(publicURL string) *Memory {
	return &Memory{objects: make(map[string]Object), publicURL: publicURL}
}

func (m *Memory) Put(_ context.Context, key, contentType string, body io.Reader, _ int64) error {
	if m.PutError != nil {
		return m.PutError
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = Object{ContentType: contentType, Data: data}
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *Memory) PublicURL(key string) string {
	return joinURL(m.publicURL, key)
}

// Get returns a stored object.
func (m *Memory) Get(key string) (Object, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[key]
	return obj, ok
}

// Len returns the number of stored objects.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

var _ Store = (*Memory)(nil)
