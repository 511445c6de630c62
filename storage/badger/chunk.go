package badger

import (
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/evidentia/ragline/core"
	"github.com/evidentia/ragline/storage"
)

// ChunkRepository implements storage.ChunkRepository for BadgerDB.
type ChunkRepository struct {
	backend *Backend
}

var _ storage.ChunkRepository = (*ChunkRepository)(nil)

// NewChunkRepository creates a new ChunkRepository.
//
// Returns storage.ChunkRepository interface to enforce abstraction.
func NewChunkRepository(backend *Backend) (storage.ChunkRepository, error) {
	return newChunkRepository(backend)
}

// newChunkRepository is an internal constructor that returns the concrete type.
func newChunkRepository(backend *Backend) (*ChunkRepository, error) {
	if backend == nil {
		return nil, storage.ErrInvalidQuery
	}
	return &ChunkRepository{backend: backend}, nil
}

// Close releases repository resources.
func (r *ChunkRepository) Close() error {
	return nil
}

// AddChunks stores chunks and maintains the collection index.
// Chunks are content-addressed, so re-adding is an idempotent overwrite.
func (r *ChunkRepository) AddChunks(ctx context.Context, chunks ...*core.Chunk) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, chunk := range chunks {
			if err := core.ValidateChunk(chunk); err != nil {
				return err
			}
			if chunk.Id == 0 {
				chunk.Id = core.IDFromContent(chunk.Collection + "\x00" + chunk.Text)
			}

			if err := tx.Set(makeChunkKey(chunk.Id), storage.MarshalChunk(chunk)); err != nil {
				return err
			}

			colKey := makeChunkCollectionKey(chunk.Collection, chunk.Id)
			if err := tx.Set(colKey, storage.MarshalID(chunk.Id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// AddParents stores parent contexts.
func (r *ChunkRepository) AddParents(ctx context.Context, parents ...*core.ParentContext) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, parent := range parents {
			if err := core.ValidateParent(parent); err != nil {
				return err
			}
			if parent.Id == 0 {
				parent.Id = core.IDFromContent(parent.Collection + "\x00" + parent.Text)
			}

			if err := tx.Set(makeParentKey(parent.Id), storage.MarshalParent(parent)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetChunks retrieves chunks by their IDs.
// Missing chunks are skipped without error.
func (r *ChunkRepository) GetChunks(ctx context.Context, ids ...core.ID) ([]*core.Chunk, error) {
	chunks := make([]*core.Chunk, 0, len(ids))

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			item, err := tx.Get(makeChunkKey(id))
			if err == badger.ErrKeyNotFound {
				continue
			}
			if err != nil {
				return err
			}

			var chunk *core.Chunk
			err = item.Value(func(val []byte) error {
				var err error
				chunk, err = storage.UnmarshalChunk(val)
				return err
			})
			if err != nil {
				return err
			}
			chunks = append(chunks, chunk)
		}
		return nil
	}, false)

	if err != nil {
		return nil, err
	}
	return chunks, nil
}

// GetParent retrieves a single parent context by ID.
func (r *ChunkRepository) GetParent(ctx context.Context, id core.ID) (*core.ParentContext, error) {
	var parent *core.ParentContext

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeParentKey(id))
		if err == badger.ErrKeyNotFound {
			return storage.ErrNotFound
		}
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			var err error
			parent, err = storage.UnmarshalParent(val)
			return err
		})
	}, false)

	if err != nil {
		return nil, err
	}
	return parent, nil
}

// GetChunksByCollection retrieves every chunk in a collection via the
// collection index.
func (r *ChunkRepository) GetChunksByCollection(ctx context.Context, collection string) ([]*core.Chunk, error) {
	var ids []core.ID

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePartialChunkCollectionKey(collection)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			err := iter.Item().Value(func(val []byte) error {
				id, err := storage.UnmarshalID(val)
				if err != nil {
					return err
				}
				ids = append(ids, id)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)

	if err != nil {
		return nil, err
	}

	return r.GetChunks(ctx, ids...)
}

// FindSimilar delegates to the backend's brute-force cosine scan.
func (r *ChunkRepository) FindSimilar(ctx context.Context, collection string, vector []float32, minSimilarity float32, limit int) ([]core.SearchHit, error) {
	return r.backend.FindSimilar(ctx, collection, vector, minSimilarity, limit)
}
