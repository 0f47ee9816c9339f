// Package domain holds reference-list entities and the in-memory mirror state.
// It has no dependencies on other packages.
package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

var (
	// ErrEmptyName is returned when an item name is blank after trimming.
	ErrEmptyName = errors.New("name must not be empty")
	// ErrUnknownCollection is returned for a collection identifier other than the two known ones.
	ErrUnknownCollection = errors.New("unknown collection")
	// ErrNotFound is returned when a document id does not exist in the store.
	ErrNotFound = errors.New("item not found")
)

// Collection identifies a named bucket of reference items.
type Collection string

const (
	CollectionTechnologies  Collection = "technologies"
	CollectionTeamFunctions Collection = "team-functions"
)

// Collections returns every known collection in display order.
func Collections() []Collection {
	return []Collection{CollectionTechnologies, CollectionTeamFunctions}
}

// ParseCollection maps an identifier to a Collection.
func ParseCollection(s string) (Collection, error) {
	switch c := Collection(strings.TrimSpace(s)); c {
	case CollectionTechnologies, CollectionTeamFunctions:
		return c, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownCollection, s)
	}
}

// Label is the human-readable collection name used by list headers.
func (c Collection) Label() string {
	switch c {
	case CollectionTechnologies:
		return "Technologies"
	case CollectionTeamFunctions:
		return "Team functions"
	default:
		return string(c)
	}
}

// ReferenceItem is a single entry of a collection. ID is assigned by the store and never reused.
type ReferenceItem struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ValidateName trims name and rejects blank values.
func ValidateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyName
	}
	return name, nil
}

// SortItems orders items by name ascending. Ties are broken by ID so the order is total.
func SortItems(items []ReferenceItem) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Name != items[j].Name {
			return items[i].Name < items[j].Name
		}
		return items[i].ID < items[j].ID
	})
}

// MirrorStatus is the load state of a collection mirror.
type MirrorStatus string

const (
	MirrorEmpty     MirrorStatus = "empty"
	MirrorLoading   MirrorStatus = "loading"
	MirrorPopulated MirrorStatus = "populated"
	MirrorError     MirrorStatus = "error"
)

// Mirror is the cached result of the latest successful read of one collection.
type Mirror struct {
	Collection Collection      `json:"collection"`
	Status     MirrorStatus    `json:"status"`
	Items      []ReferenceItem `json:"items"`
	Err        string          `json:"error,omitempty"`
	LoadedAt   time.Time       `json:"loaded_at"`
	Seq        uint64          `json:"seq"` // sequence number of the read reflected in Items
}

// AppState is the aggregate session state: one mirror per collection.
type AppState struct {
	Mirrors map[Collection]*Mirror `json:"mirrors"`
}

// NewAppState returns a state with an empty mirror for every collection.
func NewAppState() *AppState {
	s := &AppState{Mirrors: make(map[Collection]*Mirror)}
	for _, c := range Collections() {
		s.Mirrors[c] = &Mirror{Collection: c, Status: MirrorEmpty, Items: []ReferenceItem{}}
	}
	return s
}

// Clone returns a deep copy safe to hand to readers.
func (s *AppState) Clone() *AppState {
	out := &AppState{Mirrors: make(map[Collection]*Mirror, len(s.Mirrors))}
	for c, m := range s.Mirrors {
		if m == nil {
			continue
		}
		cp := *m
		cp.Items = append([]ReferenceItem(nil), m.Items...)
		if cp.Items == nil {
			cp.Items = []ReferenceItem{}
		}
		out.Mirrors[c] = &cp
	}
	return out
}

// Mirror returns the mirror for c, creating an empty one if missing.
func (s *AppState) Mirror(c Collection) *Mirror {
	m, ok := s.Mirrors[c]
	if !ok || m == nil {
		m = &Mirror{Collection: c, Status: MirrorEmpty, Items: []ReferenceItem{}}
		s.Mirrors[c] = m
	}
	return m
}
