// Package memory provides an in-process collection store for tests and throwaway sessions.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/jaakkos/brainstorm/internal/domain"
)

type record struct {
	collection domain.Collection
	name       string
}

// Store keeps documents in a map keyed by id.
type Store struct {
	mu    sync.RWMutex
	docs  map[string]record
	newID func() string
}

// New returns an empty store.
func New() *Store {
	return &Store{docs: make(map[string]record), newID: uuid.NewString}
}

// List returns the items of c sorted by name.
func (s *Store) List(ctx context.Context, c domain.Collection) ([]domain.ReferenceItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := []domain.ReferenceItem{}
	for id, r := range s.docs {
		if r.collection == c {
			items = append(items, domain.ReferenceItem{ID: id, Name: r.name})
		}
	}
	domain.SortItems(items)
	return items, nil
}

// Add implements app.CollectionStore.
func (s *Store) Add(ctx context.Context, c domain.Collection, name string) (domain.ReferenceItem, error) {
	if err := ctx.Err(); err != nil {
		return domain.ReferenceItem{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.newID()
	s.docs[id] = record{collection: c, name: name}
	return domain.ReferenceItem{ID: id, Name: name}, nil
}

// Rename implements app.CollectionStore.
func (s *Store) Rename(ctx context.Context, c domain.Collection, id, newName string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.docs[id]
	if !ok || r.collection != c {
		return domain.ErrNotFound
	}
	r.name = newName
	s.docs[id] = r
	return nil
}

// Remove implements app.CollectionStore.
func (s *Store) Remove(ctx context.Context, c domain.Collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.docs[id]; ok && r.collection == c {
		delete(s.docs, id)
	}
	return nil
}
