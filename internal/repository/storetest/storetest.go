// Package storetest is a conformance suite run against every app.CollectionStore.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaakkos/brainstorm/internal/app"
	"github.com/jaakkos/brainstorm/internal/domain"
)

// Run exercises newStore; every call must return an empty store.
func Run(t *testing.T, newStore func(t *testing.T) app.CollectionStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("EmptyListIsNotNil", func(t *testing.T) {
		s := newStore(t)
		items, err := s.List(ctx, domain.CollectionTechnologies)
		require.NoError(t, err)
		assert.NotNil(t, items)
		assert.Empty(t, items)
	})

	t.Run("AddThenList", func(t *testing.T) {
		s := newStore(t)
		item, err := s.Add(ctx, domain.CollectionTechnologies, "Ansible")
		require.NoError(t, err)
		assert.NotEmpty(t, item.ID)
		assert.Equal(t, "Ansible", item.Name)

		items, err := s.List(ctx, domain.CollectionTechnologies)
		require.NoError(t, err)
		assert.Contains(t, items, item)
	})

	t.Run("CollectionsAreIsolated", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Add(ctx, domain.CollectionTechnologies, "Linux")
		require.NoError(t, err)
		_, err = s.Add(ctx, domain.CollectionTeamFunctions, "Monitoring")
		require.NoError(t, err)

		items, err := s.List(ctx, domain.CollectionTeamFunctions)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "Monitoring", items[0].Name)
	})

	t.Run("IDsAreUnique", func(t *testing.T) {
		s := newStore(t)
		a, err := s.Add(ctx, domain.CollectionTechnologies, "Linux")
		require.NoError(t, err)
		b, err := s.Add(ctx, domain.CollectionTechnologies, "Linux")
		require.NoError(t, err)
		assert.NotEqual(t, a.ID, b.ID)
	})

	t.Run("RenameThenList", func(t *testing.T) {
		s := newStore(t)
		item, err := s.Add(ctx, domain.CollectionTechnologies, "Windows Server")
		require.NoError(t, err)
		require.NoError(t, s.Rename(ctx, domain.CollectionTechnologies, item.ID, "Windows Server 2022"))

		items, err := s.List(ctx, domain.CollectionTechnologies)
		require.NoError(t, err)
		assert.Equal(t, []domain.ReferenceItem{{ID: item.ID, Name: "Windows Server 2022"}}, items)
	})

	t.Run("RenameUnknownID", func(t *testing.T) {
		s := newStore(t)
		err := s.Rename(ctx, domain.CollectionTechnologies, "does-not-exist", "x")
		assert.True(t, errors.Is(err, domain.ErrNotFound), "got %v", err)
	})

	t.Run("RemoveThenList", func(t *testing.T) {
		s := newStore(t)
		keep, err := s.Add(ctx, domain.CollectionTechnologies, "Ansible")
		require.NoError(t, err)
		gone, err := s.Add(ctx, domain.CollectionTechnologies, "Puppet")
		require.NoError(t, err)
		require.NoError(t, s.Remove(ctx, domain.CollectionTechnologies, gone.ID))

		items, err := s.List(ctx, domain.CollectionTechnologies)
		require.NoError(t, err)
		for _, it := range items {
			assert.NotEqual(t, gone.ID, it.ID)
		}
		assert.Contains(t, items, keep)
	})

	t.Run("RemoveUnknownID", func(t *testing.T) {
		s := newStore(t)
		assert.NoError(t, s.Remove(ctx, domain.CollectionTechnologies, "does-not-exist"))
	})

	t.Run("RenameAndRemoveStayInCollection", func(t *testing.T) {
		s := newStore(t)
		item, err := s.Add(ctx, domain.CollectionTeamFunctions, "Networking")
		require.NoError(t, err)

		err = s.Rename(ctx, domain.CollectionTechnologies, item.ID, "Renamed")
		assert.True(t, errors.Is(err, domain.ErrNotFound), "got %v", err)
		require.NoError(t, s.Remove(ctx, domain.CollectionTechnologies, item.ID))

		items, err := s.List(ctx, domain.CollectionTeamFunctions)
		require.NoError(t, err)
		assert.Equal(t, []domain.ReferenceItem{item}, items)
	})

	t.Run("ListIsSortedForAnyInsertionOrder", func(t *testing.T) {
		names := []string{"VMware vSphere", "Ansible", "Linux", "Active Directory", "PostgreSQL", "Kubernetes"}
		rng := rand.New(rand.NewSource(7))
		for round := 0; round < 3; round++ {
			t.Run(fmt.Sprintf("round%d", round), func(t *testing.T) {
				s := newStore(t)
				perm := append([]string(nil), names...)
				rng.Shuffle(len(perm), func(i, j int) { perm[i], perm[j] = perm[j], perm[i] })
				for _, n := range perm {
					_, err := s.Add(ctx, domain.CollectionTechnologies, n)
					require.NoError(t, err)
				}
				items, err := s.List(ctx, domain.CollectionTechnologies)
				require.NoError(t, err)
				got := make([]string, len(items))
				for i, it := range items {
					got[i] = it.Name
				}
				want := append([]string(nil), names...)
				sort.Strings(want)
				assert.Equal(t, want, got)
			})
		}
	})

	t.Run("EndToEndWindowsServer", func(t *testing.T) {
		s := newStore(t)
		item, err := s.Add(ctx, domain.CollectionTechnologies, "Windows Server")
		require.NoError(t, err)
		items, err := s.List(ctx, domain.CollectionTechnologies)
		require.NoError(t, err)
		assert.Contains(t, items, domain.ReferenceItem{ID: item.ID, Name: "Windows Server"})

		require.NoError(t, s.Rename(ctx, domain.CollectionTechnologies, item.ID, "Windows Server 2022"))
		items, err = s.List(ctx, domain.CollectionTechnologies)
		require.NoError(t, err)
		for _, it := range items {
			assert.NotEqual(t, "Windows Server", it.Name)
		}
		assert.Contains(t, items, domain.ReferenceItem{ID: item.ID, Name: "Windows Server 2022"})

		require.NoError(t, s.Remove(ctx, domain.CollectionTechnologies, item.ID))
		items, err = s.List(ctx, domain.CollectionTechnologies)
		require.NoError(t, err)
		for _, it := range items {
			assert.NotEqual(t, item.ID, it.ID)
		}
	})
}
