package app

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const (
	defaultDebounce     = 200 * time.Millisecond
	defaultPollInterval = 10 * time.Second
)

// Refresher is implemented by CatalogService.
type Refresher interface {
	RefreshAll(ctx context.Context) error
	LastSignal() string
}

// Watcher reconciles the mirrors when another process mutates the shared store.
// It watches the signal file with fsnotify and polls as a fallback. Revisions
// written by this process are skipped: the mutation already reconciled.
type Watcher struct {
	signalPath   string
	svc          Refresher
	logger       *zap.SugaredLogger
	debounce     time.Duration
	pollInterval time.Duration

	mu            sync.Mutex
	lastSeenRev   string
	debounceTimer *time.Timer
	stopped       bool
	pending       sync.WaitGroup // armed debounce callbacks
	watcher       *fsnotify.Watcher
	useFsnotify   bool
	started       bool
	stopOnce      sync.Once
	stopCh        chan struct{}
	doneCh        chan struct{}
	checkMu       sync.Mutex // serializes checkAndRefresh between debounce timer and poll loop
}

// WatcherOption configures the watcher.
type WatcherOption func(*Watcher)

// WithPollInterval sets the fallback poll interval (default 10s).
func WithPollInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.pollInterval = d
		}
	}
}

// WithDebounce sets how long fsnotify events are coalesced (default 200ms).
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) { w.debounce = d }
}

// NewWatcher creates a watcher for signalPath.
func NewWatcher(signalPath string, svc Refresher, logger *zap.SugaredLogger, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		signalPath:   signalPath,
		svc:          svc,
		logger:       logger,
		debounce:     defaultDebounce,
		pollInterval: defaultPollInterval,
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

// Start watches until ctx is cancelled or Stop is called.
// If fsnotify fails to initialize, falls back to poll-only mode.
func (w *Watcher) Start(ctx context.Context) {
	w.mu.Lock()
	w.started = true
	w.lastSeenRev = ReadNotifySignal(w.signalPath)
	w.mu.Unlock()
	defer close(w.doneCh)

	watchDir := filepath.Dir(w.signalPath)
	signalName := filepath.Base(w.signalPath)

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		w.logger.Warnf("Watcher: fsnotify init failed (%v), using poll-only", err)
	} else if err := fw.Add(watchDir); err != nil {
		w.logger.Warnf("Watcher: fsnotify add %s failed (%v), using poll-only", watchDir, err)
		_ = fw.Close()
	} else {
		w.watcher = fw
		w.useFsnotify = true
	}

	if w.useFsnotify {
		defer w.watcher.Close()
		go w.watchLoop(ctx, signalName)
	}
	w.pollLoop(ctx)

	w.mu.Lock()
	w.stopped = true
	if w.debounceTimer != nil && w.debounceTimer.Stop() {
		w.pending.Done()
	}
	w.mu.Unlock()
	w.pending.Wait()
}

// Stop signals the watcher to stop and waits for Start to return.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	w.mu.Lock()
	started := w.started
	w.mu.Unlock()
	if started {
		<-w.doneCh
	}
}

// CheckOnce runs one check-and-refresh cycle.
func (w *Watcher) CheckOnce(ctx context.Context) {
	w.checkAndRefresh(ctx)
}

func (w *Watcher) watchLoop(ctx context.Context, signalName string) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != signalName {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.triggerDebounced(ctx)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Debugf("Watcher: fsnotify error: %v", err)
		}
	}
}

func (w *Watcher) triggerDebounced(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	select {
	case <-w.stopCh:
		return
	default:
	}
	if w.debounceTimer != nil && w.debounceTimer.Stop() {
		w.pending.Done()
	}
	w.pending.Add(1)
	w.debounceTimer = time.AfterFunc(w.debounce, func() {
		defer w.pending.Done()
		w.checkAndRefresh(ctx)
	})
}

func (w *Watcher) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.checkAndRefresh(ctx)
		}
	}
}

func (w *Watcher) checkAndRefresh(ctx context.Context) {
	w.checkMu.Lock()
	defer w.checkMu.Unlock()
	if ctx.Err() != nil {
		return
	}

	rev := ReadNotifySignal(w.signalPath)
	if rev == "" {
		return
	}
	w.mu.Lock()
	if rev == w.lastSeenRev {
		w.mu.Unlock()
		return
	}
	w.lastSeenRev = rev
	w.mu.Unlock()

	if rev == w.svc.LastSignal() {
		return
	}
	w.logger.Infof("Watcher: store changed by another session (rev %s), reconciling", rev)
	if err := w.svc.RefreshAll(ctx); err != nil {
		w.logger.Warnf("Watcher: reconcile failed: %v", err)
	}
}
