// Package metrics records collection store traffic in Prometheus and serves /metrics.
package metrics

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jaakkos/brainstorm/internal/app"
	"github.com/jaakkos/brainstorm/internal/domain"
)

const namespace = "brainstorm"

// Recorder observes store operations.
type Recorder struct {
	ops      *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewRecorder registers the store collectors on reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		ops: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "operations_total",
			Help:      "Collection store operations by operation, collection and result.",
		}, []string{"op", "collection", "result"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "operation_duration_seconds",
			Help:      "Collection store operation latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
	}
}

// Observe records one operation.
func (r *Recorder) Observe(op string, c domain.Collection, err error, elapsed time.Duration) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	col := string(c)
	if col == "" {
		col = "unknown"
	}
	r.ops.WithLabelValues(op, col, result).Inc()
	r.duration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// InstrumentStore wraps inner so every call is recorded on r.
func InstrumentStore(inner app.CollectionStore, r *Recorder) app.CollectionStore {
	return &instrumentedStore{inner: inner, rec: r, now: time.Now}
}

type instrumentedStore struct {
	inner app.CollectionStore
	rec   *Recorder
	now   func() time.Time
}

func (s *instrumentedStore) List(ctx context.Context, c domain.Collection) ([]domain.ReferenceItem, error) {
	start := s.now()
	items, err := s.inner.List(ctx, c)
	s.rec.Observe("list", c, err, s.now().Sub(start))
	return items, err
}

func (s *instrumentedStore) Add(ctx context.Context, c domain.Collection, name string) (domain.ReferenceItem, error) {
	start := s.now()
	item, err := s.inner.Add(ctx, c, name)
	s.rec.Observe("add", c, err, s.now().Sub(start))
	return item, err
}

func (s *instrumentedStore) Rename(ctx context.Context, c domain.Collection, id, newName string) error {
	start := s.now()
	err := s.inner.Rename(ctx, c, id, newName)
	s.rec.Observe("rename", c, err, s.now().Sub(start))
	return err
}

func (s *instrumentedStore) Remove(ctx context.Context, c domain.Collection, id string) error {
	start := s.now()
	err := s.inner.Remove(ctx, c, id)
	s.rec.Observe("remove", c, err, s.now().Sub(start))
	return err
}

// Close forwards to the wrapped store when it has one.
func (s *instrumentedStore) Close() error {
	if c, ok := s.inner.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Handler serves the registry in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
