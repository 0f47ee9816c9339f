package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

type fakeRefresher struct {
	mu         sync.Mutex
	calls      int
	lastSignal string
	err        error
}

func (f *fakeRefresher) RefreshAll(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.err
}

func (f *fakeRefresher) LastSignal() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastSignal
}

func (f *fakeRefresher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestWatcher_CheckOnce_NoSignalFile(t *testing.T) {
	ref := &fakeRefresher{}
	w := NewWatcher(filepath.Join(t.TempDir(), ".brainstorm-notify"), ref, zap.NewNop().Sugar())
	w.CheckOnce(context.Background())
	assert.Zero(t, ref.Calls())
}

func TestWatcher_CheckOnce_RefreshesOnForeignRevision(t *testing.T) {
	signal := filepath.Join(t.TempDir(), ".brainstorm-notify")
	require.NoError(t, os.WriteFile(signal, []byte("other-process:1"), 0o644))

	ref := &fakeRefresher{}
	w := NewWatcher(signal, ref, zap.NewNop().Sugar())
	w.CheckOnce(context.Background())
	assert.Equal(t, 1, ref.Calls())

	// Same revision is handled once.
	w.CheckOnce(context.Background())
	assert.Equal(t, 1, ref.Calls())

	require.NoError(t, os.WriteFile(signal, []byte("other-process:2"), 0o644))
	w.CheckOnce(context.Background())
	assert.Equal(t, 2, ref.Calls())
}

func TestWatcher_CheckOnce_SkipsOwnRevision(t *testing.T) {
	signal := filepath.Join(t.TempDir(), ".brainstorm-notify")
	rev, err := TouchNotifySignal(signal)
	require.NoError(t, err)

	ref := &fakeRefresher{lastSignal: rev}
	w := NewWatcher(signal, ref, zap.NewNop().Sugar())
	w.CheckOnce(context.Background())
	assert.Zero(t, ref.Calls())
}

func TestWatcher_CheckOnce_RefreshErrorIsNotRetried(t *testing.T) {
	signal := filepath.Join(t.TempDir(), ".brainstorm-notify")
	require.NoError(t, os.WriteFile(signal, []byte("other-process:1"), 0o644))

	ref := &fakeRefresher{err: errors.New("connection refused")}
	w := NewWatcher(signal, ref, zap.NewNop().Sugar())
	w.CheckOnce(context.Background())
	w.CheckOnce(context.Background())
	assert.Equal(t, 1, ref.Calls())
}

func TestWatcher_StartDetectsForeignWrite(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	dir := t.TempDir()
	signal := filepath.Join(dir, ".brainstorm-notify")
	require.NoError(t, os.WriteFile(signal, []byte("initial"), 0o644))

	ref := &fakeRefresher{}
	w := NewWatcher(signal, ref, zap.NewNop().Sugar(),
		WithDebounce(10*time.Millisecond),
		WithPollInterval(50*time.Millisecond),
	)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	// The revision present at start-up is not a change.
	time.Sleep(120 * time.Millisecond)
	assert.Zero(t, ref.Calls())

	require.NoError(t, os.WriteFile(signal, []byte("other-process:42"), 0o644))
	require.Eventually(t, func() bool { return ref.Calls() == 1 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	w.Stop()
}

func TestWatcher_NoRefreshAfterStop(t *testing.T) {
	signal := filepath.Join(t.TempDir(), ".brainstorm-notify")
	require.NoError(t, os.WriteFile(signal, []byte("initial"), 0o644))

	ref := &fakeRefresher{}
	w := NewWatcher(signal, ref, zap.NewNop().Sugar(),
		WithDebounce(10*time.Millisecond),
		WithPollInterval(time.Hour),
	)
	ctx := context.Background()
	go w.Start(ctx)
	require.Eventually(t, func() bool {
		w.mu.Lock()
		defer w.mu.Unlock()
		return w.started
	}, time.Second, 5*time.Millisecond)
	w.Stop()

	// A late fsnotify event must not arm a new check.
	require.NoError(t, os.WriteFile(signal, []byte("other-process:7"), 0o644))
	w.triggerDebounced(ctx)
	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, ref.Calls())
}

func TestWatcher_StopWithoutStart(t *testing.T) {
	w := NewWatcher(filepath.Join(t.TempDir(), "sig"), &fakeRefresher{}, zap.NewNop().Sugar())
	done := make(chan struct{})
	go func() {
		w.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked without Start")
	}
}
