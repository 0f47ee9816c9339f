// Package app implements the catalog use cases and defines ports (store interfaces).
package app

import (
	"context"

	"github.com/jaakkos/brainstorm/internal/domain"
)

// CollectionStore is the remote collection client.
// Implementations: internal/repository/{sqlite,postgres,memory}.
//
// List returns items sorted by name ascending. Rename and Remove only touch a
// document of the given collection. Rename of an id unknown to c fails with
// domain.ErrNotFound; Remove of such an id succeeds and changes nothing.
// Nothing is retried.
type CollectionStore interface {
	List(ctx context.Context, c domain.Collection) ([]domain.ReferenceItem, error)
	Add(ctx context.Context, c domain.Collection, name string) (domain.ReferenceItem, error)
	Rename(ctx context.Context, c domain.Collection, id, newName string) error
	Remove(ctx context.Context, c domain.Collection, id string) error
}
