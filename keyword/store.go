package keyword

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/evidentia/ragline/core"
)

// Store manages one keyword index per collection, backed by snapshot files
// in a single directory. Indexes load lazily on first use; concurrent first
// queries against the same collection coordinate so exactly one disk read
// happens. A missing or corrupt snapshot degrades to an empty index with a
// warning, never an error: keyword search contributes nothing until the
// collection is reindexed.
type Store struct {
	dir    string
	logger *slog.Logger

	mu      sync.Mutex
	entries map[string]*storeEntry
}

type storeEntry struct {
	once sync.Once
	idx  *Index
}

// NewStore creates a snapshot-backed index store rooted at dir.
func NewStore(dir string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		dir:     dir,
		logger:  logger.With("component", "keyword-store"),
		entries: make(map[string]*storeEntry),
	}
}

// Index returns the index for a collection, loading its snapshot on first
// use. The result is never nil.
func (s *Store) Index(collection string) *Index {
	entry := s.entry(collection)
	entry.once.Do(func() {
		entry.idx = s.load(collection)
	})
	return entry.idx
}

// Build replaces the collection's index with one built from chunks and
// persists the snapshot. The in-memory index is swapped before the save,
// so queries see the new data even if persistence fails.
func (s *Store) Build(collection string, chunks []*core.Chunk) (*Index, error) {
	idx := BuildIndex(collection, chunks)
	s.swap(collection, idx)

	if err := SaveSnapshot(s.dir, idx); err != nil {
		return idx, err
	}

	s.logger.Debug("keyword index persisted",
		"collection", collection, "documents", idx.Len())
	return idx, nil
}

// entry returns the load guard for a collection, creating it if needed.
func (s *Store) entry(collection string) *storeEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[collection]
	if !ok {
		entry = &storeEntry{}
		s.entries[collection] = entry
	}
	return entry
}

// swap installs a ready index for a collection, bypassing the lazy load.
func (s *Store) swap(collection string, idx *Index) {
	entry := &storeEntry{idx: idx}
	entry.once.Do(func() {})

	s.mu.Lock()
	s.entries[collection] = entry
	s.mu.Unlock()
}

// load reads a collection snapshot, falling back to an empty index when the
// file is missing, corrupt, or unreadable.
func (s *Store) load(collection string) *Index {
	idx, err := LoadSnapshot(s.dir, collection)
	switch {
	case errors.Is(err, ErrSnapshotCorrupt):
		s.logger.Warn("keyword snapshot corrupt, reindex required",
			"collection", collection, "error", err)
	case err != nil:
		s.logger.Warn("keyword snapshot unreadable, reindex required",
			"collection", collection, "error", err)
	case idx == nil:
		s.logger.Debug("no keyword snapshot", "collection", collection)
	default:
		s.logger.Debug("keyword index loaded",
			"collection", collection, "documents", idx.Len())
		return idx
	}
	return NewIndex(collection)
}
