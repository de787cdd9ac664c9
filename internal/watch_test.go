package internal

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isDSL(path string) bool { return strings.HasSuffix(path, ".dsl.js") }

func startWatcher(t *testing.T, debounce time.Duration, match func(string) bool) (*Watcher, <-chan string) {
	t.Helper()
	changes := make(chan string, 16)
	w, err := NewWatcher(nil, debounce, match, func(path string) {
		select {
		case changes <- path:
		default:
		}
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		_ = w.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-stopped
	})
	return w, changes
}

// waitChange rewrites path until the watcher reports it, which tolerates
// the delay before a fresh directory watch becomes active.
func waitChange(t *testing.T, changes <-chan string, path string) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		require.NoError(t, os.WriteFile(path, []byte("GREET x\n"), 0o644))
		select {
		case got := <-changes:
			if got == path {
				return
			}
		case <-time.After(300 * time.Millisecond):
		case <-deadline:
			t.Fatalf("no change reported for %s", path)
		}
	}
}

func TestWatcherDirectory(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	w, changes := startWatcher(t, 20*time.Millisecond, isDSL)
	require.NoError(t, w.Add(dir))

	abs, err := filepath.Abs(filepath.Join(dir, "main.dsl.js"))
	require.NoError(t, err)
	waitChange(t, changes, abs)

	sub, err := filepath.Abs(filepath.Join(dir, "nested"))
	require.NoError(t, err)
	require.NoError(t, os.Mkdir(sub, 0o755))
	waitChange(t, changes, filepath.Join(sub, "inner.dsl.js"))
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	w, changes := startWatcher(t, 20*time.Millisecond, isDSL)
	require.NoError(t, w.Add(dir))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	select {
	case got := <-changes:
		t.Fatalf("unexpected change %s", got)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcherSingleFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	target, err := filepath.Abs(filepath.Join(dir, "app.dsl.js"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(target, []byte(""), 0o644))

	w, changes := startWatcher(t, 20*time.Millisecond, func(string) bool { return false })
	require.NoError(t, w.Add(target))
	waitChange(t, changes, target)
}

func TestWatcherDebounce(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	w, err := NewWatcher(nil, 50*time.Millisecond, nil, func(string) { calls.Add(1) })
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	for i := 0; i < 5; i++ {
		w.schedule("/tmp/a.dsl.js")
	}
	assert.Eventually(t, func() bool { return calls.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

func TestWatcherClose(t *testing.T) {
	t.Parallel()
	w, err := NewWatcher(nil, 0, nil, func(string) {})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- w.Run(context.Background()) }()

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Close")
	}
}
