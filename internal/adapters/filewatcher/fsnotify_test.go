package filewatcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/0xcro3dile/docchat-go/internal/domain/ports"
)

func collectEvent(t *testing.T, events <-chan ports.FileEvent, path string) ports.FileEvent {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case event, ok := <-events:
			require.True(t, ok, "event channel closed early")
			if event.Path == path {
				return event
			}
		case <-deadline:
			t.Fatalf("no event for %s", path)
		}
	}
}

func TestWatcher_EmitsCreateForWatchedExtensions(t *testing.T) {
	dir := t.TempDir()
	w, err := New(nil, zap.NewNop())
	require.NoError(t, err)
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, err := w.Watch(ctx, dir)
	require.NoError(t, err)

	path := filepath.Join(dir, "dropped.txt")
	require.NoError(t, os.WriteFile(path, []byte("new document"), 0o644))

	event := collectEvent(t, events, path)
	assert.Contains(t, []ports.FileOperation{ports.FileCreated, ports.FileModified}, event.Operation)
}

func TestWatcher_IgnoresOtherExtensions(t *testing.T) {
	dir := t.TempDir()
	w, err := New([]string{".txt"}, zap.NewNop())
	require.NoError(t, err)
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, err := w.Watch(ctx, dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "skip.tmp"), []byte("x"), 0o644))
	wanted := filepath.Join(dir, "keep.txt")
	require.NoError(t, os.WriteFile(wanted, []byte("y"), 0o644))

	// Only the .txt file surfaces; the .tmp write is filtered out.
	event := collectEvent(t, events, wanted)
	assert.Equal(t, wanted, event.Path)
}

func TestWatcher_MissingDirectory(t *testing.T) {
	w, err := New(nil, zap.NewNop())
	require.NoError(t, err)
	defer w.Stop()

	_, err = w.Watch(context.Background(), filepath.Join(t.TempDir(), "absent"))
	require.Error(t, err)
}
