package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/schematiq/schematiq/pkg/errors"
)

// MemoryStore keeps diagrams in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	diagrams map[string]*Diagram
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{diagrams: make(map[string]*Diagram)}
}

// Save inserts or replaces a diagram by ID.
func (s *MemoryStore) Save(ctx context.Context, d *Diagram) error {
	if d.ID == "" {
		return errors.New(errors.ErrCodeInvalidInput, "diagram ID is empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *d
	now := time.Now().UTC()
	if existing, ok := s.diagrams[d.ID]; ok {
		cp.CreatedAt = existing.CreatedAt
	} else if cp.CreatedAt.IsZero() {
		cp.CreatedAt = now
	}
	cp.UpdatedAt = now
	s.diagrams[d.ID] = &cp
	d.CreatedAt = cp.CreatedAt
	d.UpdatedAt = cp.UpdatedAt
	return nil
}

// Load retrieves a diagram by ID.
func (s *MemoryStore) Load(ctx context.Context, id string) (*Diagram, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.diagrams[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeDiagramNotFound, "diagram %q not found", id)
	}
	cp := *d
	return &cp, nil
}

// List returns all diagrams, newest first, without positions.
func (s *MemoryStore) List(ctx context.Context) ([]*Diagram, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Diagram, 0, len(s.diagrams))
	for _, d := range s.diagrams {
		cp := *d
		cp.Positions = nil
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

// Delete removes a diagram by ID.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.diagrams[id]; !ok {
		return errors.New(errors.ErrCodeDiagramNotFound, "diagram %q not found", id)
	}
	delete(s.diagrams, id)
	return nil
}

// Close does nothing for the memory store.
func (s *MemoryStore) Close(ctx context.Context) error { return nil }

// Ensure MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)
