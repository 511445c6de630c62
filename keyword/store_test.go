package keyword

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreBuildAndReload(t *testing.T) {
	dir := t.TempDir()

	built, err := NewStore(dir, nil).Build("ops", testChunks())
	require.NoError(t, err)
	require.Equal(t, 4, built.Len())

	// A fresh store simulates a new process: results must survive the
	// snapshot round trip.
	reloaded := NewStore(dir, nil).Index("ops")
	assert.Equal(t, 4, reloaded.Len())
	assert.Equal(t,
		built.Search("proxy timeout tuning", 5),
		reloaded.Search("proxy timeout tuning", 5))
}

func TestStoreMissingSnapshotYieldsEmptyIndex(t *testing.T) {
	idx := NewStore(t.TempDir(), nil).Index("never-built")
	require.NotNil(t, idx)
	assert.True(t, idx.Empty())
}

func TestStoreCorruptSnapshotSelfHeals(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, SnapshotName("ops"))
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0644))

	store := NewStore(dir, nil)

	// Corrupt snapshot degrades to empty, never errors.
	idx := store.Index("ops")
	require.NotNil(t, idx)
	assert.True(t, idx.Empty())

	// Rebuild repairs both memory and disk.
	rebuilt, err := store.Build("ops", testChunks())
	require.NoError(t, err)
	assert.Equal(t, 4, rebuilt.Len())
	assert.Equal(t, 4, NewStore(dir, nil).Index("ops").Len())
}

func TestStoreLoadsOnce(t *testing.T) {
	dir := t.TempDir()
	_, err := NewStore(dir, nil).Build("ops", testChunks())
	require.NoError(t, err)

	store := NewStore(dir, nil)

	var wg sync.WaitGroup
	indexes := make([]*Index, 32)
	for i := range indexes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			indexes[i] = store.Index("ops")
		}(i)
	}
	wg.Wait()

	// All goroutines must observe the same loaded instance.
	for _, idx := range indexes {
		require.NotNil(t, idx)
		assert.Same(t, indexes[0], idx)
	}
}
