package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jaakkos/brainstorm/internal/domain"
)

var (
	// ErrStore wraps every failure reported by the collection store.
	ErrStore = errors.New("store operation failed")
	// ErrMissingID is returned when a rename or remove names no item.
	ErrMissingID = errors.New("item id is required")
)

// Projector is re-rendered from the mirror after every mirror change.
type Projector interface {
	Render(View)
}

// ProjectorFunc adapts a function to Projector.
type ProjectorFunc func(View)

// Render implements Projector.
func (f ProjectorFunc) Render(v View) { f(v) }

// CatalogService is the reconciliation driver: the only writer of the session
// AppState. Every successful mutation is followed by a full re-read of the owning
// collection; the mirror is replaced wholesale, never patched.
//
// Mutations on one collection are serialised, so mutate+relist is atomic with
// respect to other mutations from this process. Reads are sequenced and a read
// result is dropped if a newer read has already been applied.
type CatalogService struct {
	store      CollectionStore
	logger     *zap.SugaredLogger
	signalPath string
	now        func() time.Time

	mu         sync.Mutex // guards everything below up to colMu
	state      *domain.AppState
	seq        uint64
	rev        uint64
	inflight   map[domain.Collection]int
	errSeq     map[domain.Collection]uint64
	lastSignal string

	colMu map[domain.Collection]*sync.Mutex

	projMu     sync.Mutex
	projectors []Projector
}

// ServiceOption configures a CatalogService.
type ServiceOption func(*CatalogService)

// WithSignalFile makes every successful mutation touch path so other processes reconcile.
func WithSignalFile(path string) ServiceOption {
	return func(s *CatalogService) { s.signalPath = path }
}

// WithClock overrides time.Now for LoadedAt stamps.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *CatalogService) { s.now = now }
}

// NewCatalogService returns a service with empty mirrors.
func NewCatalogService(store CollectionStore, logger *zap.SugaredLogger, opts ...ServiceOption) *CatalogService {
	s := &CatalogService{
		store:    store,
		logger:   logger,
		now:      time.Now,
		state:    domain.NewAppState(),
		inflight: make(map[domain.Collection]int),
		errSeq:   make(map[domain.Collection]uint64),
		colMu:    make(map[domain.Collection]*sync.Mutex),
	}
	for _, c := range domain.Collections() {
		s.colMu[c] = &sync.Mutex{}
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Subscribe registers a projector. It is rendered immediately with the current view.
func (s *CatalogService) Subscribe(p Projector) {
	s.projMu.Lock()
	s.projectors = append(s.projectors, p)
	s.projMu.Unlock()
	p.Render(s.View())
}

// Snapshot returns a deep copy of the session state.
func (s *CatalogService) Snapshot() *domain.AppState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Mirror returns a copy of one collection's mirror.
func (s *CatalogService) Mirror(c domain.Collection) domain.Mirror {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := s.state.Clone()
	return *cp.Mirror(c)
}

// View projects the current state.
func (s *CatalogService) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Project(s.state, s.rev)
}

// LastSignal returns the revision this process last wrote to the signal file.
func (s *CatalogService) LastSignal() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSignal
}

// Refresh reads collection c and replaces its mirror. On failure the mirror keeps
// its previous items and moves to the error state.
func (s *CatalogService) Refresh(ctx context.Context, c domain.Collection) ([]domain.ReferenceItem, error) {
	if _, err := domain.ParseCollection(string(c)); err != nil {
		return nil, err
	}
	seq := s.beginLoad(c)
	s.render()

	items, err := s.store.List(ctx, c)
	if err != nil {
		s.failLoad(c, seq, err)
		s.render()
		s.logger.Warnf("Refresh %s failed: %v", c, err)
		return nil, fmt.Errorf("%w: list %s: %w", ErrStore, c, err)
	}
	items = append([]domain.ReferenceItem{}, items...)
	domain.SortItems(items)
	if !s.applyLoad(c, seq, items) {
		s.logger.Debugf("Refresh %s: dropped stale read seq=%d", c, seq)
	}
	s.render()
	return append([]domain.ReferenceItem{}, items...), nil
}

// RefreshAll refreshes every collection and joins the failures.
func (s *CatalogService) RefreshAll(ctx context.Context) error {
	var errs []error
	for _, c := range domain.Collections() {
		if _, err := s.Refresh(ctx, c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Add creates an item named name in c, then reconciles c.
func (s *CatalogService) Add(ctx context.Context, c domain.Collection, name string) (domain.ReferenceItem, error) {
	if _, err := domain.ParseCollection(string(c)); err != nil {
		return domain.ReferenceItem{}, err
	}
	name, err := domain.ValidateName(name)
	if err != nil {
		return domain.ReferenceItem{}, err
	}
	unlock := s.lockCollection(c)
	defer unlock()

	item, err := s.store.Add(ctx, c, name)
	if err != nil {
		s.logger.Errorf("Add %q to %s failed: %v", name, c, err)
		return domain.ReferenceItem{}, fmt.Errorf("%w: add to %s: %w", ErrStore, c, err)
	}
	s.logger.Infof("Added %q to %s (id=%s)", name, c, item.ID)
	if err := s.reconcile(ctx, c); err != nil {
		return item, fmt.Errorf("%q was stored as %s but %w", name, item.ID, err)
	}
	return item, nil
}

// Rename renames item id of c to newName, then reconciles c.
func (s *CatalogService) Rename(ctx context.Context, c domain.Collection, id, newName string) error {
	if _, err := domain.ParseCollection(string(c)); err != nil {
		return err
	}
	if id == "" {
		return ErrMissingID
	}
	newName, err := domain.ValidateName(newName)
	if err != nil {
		return err
	}
	unlock := s.lockCollection(c)
	defer unlock()

	if err := s.store.Rename(ctx, c, id, newName); err != nil {
		s.logger.Errorf("Rename %s in %s failed: %v", id, c, err)
		return fmt.Errorf("%w: rename %s: %w", ErrStore, id, err)
	}
	s.logger.Infof("Renamed %s in %s to %q", id, c, newName)
	return s.reconcile(ctx, c)
}

// Remove deletes item id from c, then reconciles c.
func (s *CatalogService) Remove(ctx context.Context, c domain.Collection, id string) error {
	if _, err := domain.ParseCollection(string(c)); err != nil {
		return err
	}
	if id == "" {
		return ErrMissingID
	}
	unlock := s.lockCollection(c)
	defer unlock()

	if err := s.store.Remove(ctx, c, id); err != nil {
		s.logger.Errorf("Remove %s from %s failed: %v", id, c, err)
		return fmt.Errorf("%w: remove %s: %w", ErrStore, id, err)
	}
	s.logger.Infof("Removed %s from %s", id, c)
	return s.reconcile(ctx, c)
}

// reconcile signals the mutation and re-reads c. The signal file only holds the
// latest revision, so a foreign revision about to be overwritten means another
// process wrote since our last touch; its collections are re-read here because
// the watcher will only see our own revision.
func (s *CatalogService) reconcile(ctx context.Context, c domain.Collection) error {
	prev := ReadNotifySignal(s.signalPath)
	rev, err := TouchNotifySignal(s.signalPath)
	if err != nil {
		s.logger.Warnf("Touch signal file: %v", err)
	}
	s.mu.Lock()
	foreign := prev != "" && prev != s.lastSignal
	if rev != "" {
		s.lastSignal = rev
	}
	s.mu.Unlock()

	if foreign {
		s.logger.Infof("Store changed by another session (rev %s), reconciling all collections", prev)
		for _, other := range domain.Collections() {
			if other == c {
				continue
			}
			if _, err := s.Refresh(ctx, other); err != nil {
				s.logger.Warnf("Reconcile %s: %v", other, err)
			}
		}
	}
	_, err = s.Refresh(ctx, c)
	return err
}

func (s *CatalogService) lockCollection(c domain.Collection) func() {
	m := s.colMu[c]
	m.Lock()
	return m.Unlock
}

func (s *CatalogService) beginLoad(c domain.Collection) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.inflight[c]++
	s.state.Mirror(c).Status = domain.MirrorLoading
	return s.seq
}

func (s *CatalogService) applyLoad(c domain.Collection, seq uint64, items []domain.ReferenceItem) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight[c]--
	m := s.state.Mirror(c)
	applied := seq > m.Seq
	if applied {
		m.Items = items
		m.Seq = seq
		m.LoadedAt = s.now()
		if seq > s.errSeq[c] {
			m.Err = ""
		}
	}
	s.settle(m)
	return applied
}

func (s *CatalogService) failLoad(c domain.Collection, seq uint64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight[c]--
	m := s.state.Mirror(c)
	if seq > m.Seq && seq > s.errSeq[c] {
		s.errSeq[c] = seq
		m.Err = err.Error()
	}
	s.settle(m)
}

// settle derives the mirror status. Caller holds s.mu.
func (s *CatalogService) settle(m *domain.Mirror) {
	switch {
	case s.inflight[m.Collection] > 0:
		m.Status = domain.MirrorLoading
	case m.Err != "":
		m.Status = domain.MirrorError
	case m.Seq > 0:
		m.Status = domain.MirrorPopulated
	default:
		m.Status = domain.MirrorEmpty
	}
}

func (s *CatalogService) render() {
	s.mu.Lock()
	s.rev++
	v := Project(s.state, s.rev)
	s.mu.Unlock()

	s.projMu.Lock()
	ps := append([]Projector(nil), s.projectors...)
	s.projMu.Unlock()
	for _, p := range ps {
		p.Render(v)
	}
}
