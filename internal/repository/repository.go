// Package repository selects the collection store backend from policy.
package repository

import (
	"context"
	"fmt"
	"io"

	"github.com/jaakkos/brainstorm/internal/app"
	"github.com/jaakkos/brainstorm/internal/policy"
	"github.com/jaakkos/brainstorm/internal/repository/memory"
	"github.com/jaakkos/brainstorm/internal/repository/postgres"
	"github.com/jaakkos/brainstorm/internal/repository/sqlite"
)

// NewCollectionStore opens the store named by pol.StoreDriver(). The returned
// closer releases the backend and is never nil.
func NewCollectionStore(ctx context.Context, pol *policy.Policy) (app.CollectionStore, io.Closer, error) {
	switch pol.StoreDriver() {
	case policy.DriverSQLite:
		s, err := sqlite.New(pol.StorePath())
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	case policy.DriverPostgres:
		s, err := postgres.New(ctx, pol.StoreDSN())
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	case policy.DriverMemory:
		return memory.New(), nopCloser{}, nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown store driver %q", policy.ErrInvalidConfig, pol.StoreDriver())
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
