package app

import (
	"time"

	"github.com/jaakkos/brainstorm/internal/domain"
)

// Option is one entry of a selection widget.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Row is one line of a CRUD list view.
type Row struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Position int    `json:"position"`
}

// CollectionView is everything the UI renders for one collection.
type CollectionView struct {
	Collection domain.Collection   `json:"collection"`
	Label      string              `json:"label"`
	Status     domain.MirrorStatus `json:"status"`
	Error      string              `json:"error,omitempty"`
	Options    []Option            `json:"options"`
	Rows       []Row               `json:"rows"`
	LoadedAt   string              `json:"loaded_at,omitempty"`
}

// View is the full UI projection of the session state. Revision increases with
// every render so consumers can drop out-of-order deliveries.
type View struct {
	Revision    uint64           `json:"revision"`
	Collections []CollectionView `json:"collections"`
}

// Collection returns the view for c.
func (v View) Collection(c domain.Collection) (CollectionView, bool) {
	for _, cv := range v.Collections {
		if cv.Collection == c {
			return cv, true
		}
	}
	return CollectionView{}, false
}

// Project renders state into a View. The result shares no memory with state.
func Project(state *domain.AppState, revision uint64) View {
	v := View{Revision: revision}
	for _, c := range domain.Collections() {
		m := state.Mirror(c)
		cv := CollectionView{
			Collection: c,
			Label:      c.Label(),
			Status:     m.Status,
			Error:      m.Err,
			Options:    make([]Option, 0, len(m.Items)),
			Rows:       make([]Row, 0, len(m.Items)),
		}
		if !m.LoadedAt.IsZero() {
			cv.LoadedAt = m.LoadedAt.Format(time.RFC3339)
		}
		for i, it := range m.Items {
			cv.Options = append(cv.Options, Option{Value: it.Name, Label: it.Name})
			cv.Rows = append(cv.Rows, Row{ID: it.ID, Name: it.Name, Position: i + 1})
		}
		v.Collections = append(v.Collections, cv)
	}
	return v
}
