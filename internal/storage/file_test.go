package storage

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFileSlot(t *testing.T) *FileSlot {
	t.Helper()
	slot, err := NewFileSlot(filepath.Join(t.TempDir(), "cart.json"))
	require.NoError(t, err)
	return slot
}

func TestFileSlot_RoundTrip(t *testing.T) {
	slot := newTestFileSlot(t)
	ctx := context.Background()

	_, err := slot.Get(ctx)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, slot.Set(ctx, []byte(`{"items":[]}`)))

	data, err := slot.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, `{"items":[]}`, string(data))

	require.NoError(t, slot.Remove(ctx))
	_, err = slot.Get(ctx)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestFileSlot_RemoveIsIdempotent(t *testing.T) {
	slot := newTestFileSlot(t)
	require.NoError(t, slot.Remove(context.Background()))
	require.NoError(t, slot.Remove(context.Background()))
}

func TestFileSlot_UnwritableDirectory(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("running as root, directory permissions are not enforced")
	}
	dir := t.TempDir()
	require.NoError(t, os.Chmod(dir, 0o500))
	t.Cleanup(func() { os.Chmod(dir, 0o755) })

	_, err := NewFileSlot(filepath.Join(dir, "cart.json"))
	require.Error(t, err)
}

type changeRecorder struct {
	mu      sync.Mutex
	changes [][]byte
}

func (r *changeRecorder) record(value []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, value)
}

func (r *changeRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.changes)
}

func (r *changeRecorder) last() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.changes) == 0 {
		return nil
	}
	return r.changes[len(r.changes)-1]
}

func TestFileSlot_WatchSeesExternalWrite(t *testing.T) {
	slot := newTestFileSlot(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rec := &changeRecorder{}
	require.NoError(t, slot.Watch(ctx, rec.record))

	// Simulate another process replacing the slot.
	require.NoError(t, os.WriteFile(slot.path, []byte(`{"items":[{"id":"x"}]}`), 0o644))

	require.Eventually(t, func() bool {
		return rec.count() > 0
	}, 2*time.Second, 20*time.Millisecond, "external write was not observed")
	assert.JSONEq(t, `{"items":[{"id":"x"}]}`, string(rec.last()))
}

func TestFileSlot_WatchIgnoresOwnWrites(t *testing.T) {
	slot := newTestFileSlot(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rec := &changeRecorder{}
	require.NoError(t, slot.Watch(ctx, rec.record))

	require.NoError(t, slot.Set(ctx, []byte(`{"items":[]}`)))

	time.Sleep(3 * debounceDelay)
	assert.Zero(t, rec.count(), "own write must not be reported")
}
