package treatments

import (
	"context"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingInvalidator struct {
	calls atomic.Int32
}

func (c *countingInvalidator) Invalidate() {
	c.calls.Add(1)
}

func TestWatcher_InvalidatesOnDatasetChange(t *testing.T) {
	dir := t.TempDir()
	target := &countingInvalidator{}

	watcher, err := NewWatcher(dir, target)
	require.NoError(t, err)
	watcher.Start(context.Background())
	defer func() { require.NoError(t, watcher.Stop()) }()

	writeDataset(t, dir, "notes.txt", "ignored")
	writeDataset(t, dir, "treatments_ms.json", `{}`)

	assert.Eventually(t, func() bool {
		return target.calls.Load() > 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWatcher_CoalescesBurstOfChanges(t *testing.T) {
	dir := t.TempDir()
	target := &countingInvalidator{}

	watcher, err := NewWatcher(dir, target)
	require.NoError(t, err)
	watcher.SetDebounce(150 * time.Millisecond)
	watcher.Start(context.Background())
	defer func() { require.NoError(t, watcher.Stop()) }()

	for i := 0; i < 5; i++ {
		writeDataset(t, dir, "treatments.json", `{"version":`+strconv.Itoa(i)+`}`)
		writeDataset(t, dir, "treatments_ja.json", `{}`)
	}

	assert.Eventually(t, func() bool {
		return target.calls.Load() == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Never(t, func() bool {
		return target.calls.Load() > 1
	}, 400*time.Millisecond, 20*time.Millisecond)

	writeDataset(t, dir, "treatments.json", `{}`)
	assert.Eventually(t, func() bool {
		return target.calls.Load() == 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWatcher_StopsWithPendingChange(t *testing.T) {
	dir := t.TempDir()
	target := &countingInvalidator{}

	watcher, err := NewWatcher(dir, target)
	require.NoError(t, err)
	watcher.SetDebounce(time.Hour)
	watcher.Start(context.Background())

	writeDataset(t, dir, "treatments.json", `{}`)
	require.NoError(t, watcher.Stop())
	assert.Zero(t, target.calls.Load())
}

func TestWatcher_StopsWithContext(t *testing.T) {
	target := &countingInvalidator{}
	watcher, err := NewWatcher(t.TempDir(), target)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	watcher.Start(ctx)
	cancel()

	require.NoError(t, watcher.Stop())
	require.NoError(t, watcher.Stop())
}

func TestNewWatcher_MissingDir(t *testing.T) {
	_, err := NewWatcher(filepath.Join(t.TempDir(), "missing"), &countingInvalidator{})
	assert.Error(t, err)
}
