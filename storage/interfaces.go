package storage

import (
	"context"

	"github.com/evidentia/ragline/core"
)

// ChunkRepository provides operations for the ingested document corpus.
// Implementations must be thread-safe and support concurrent access.
type ChunkRepository interface {
	// AddChunks stores chunks. Chunks are content-addressed; re-adding an
	// existing chunk overwrites it with identical data.
	AddChunks(ctx context.Context, chunks ...*core.Chunk) error

	// AddParents stores parent contexts.
	AddParents(ctx context.Context, parents ...*core.ParentContext) error

	// GetChunks retrieves chunks by their IDs.
	// Returns only the chunks that exist (no error for missing chunks).
	GetChunks(ctx context.Context, ids ...core.ID) ([]*core.Chunk, error)

	// GetParent retrieves a single parent context by ID.
	// Returns ErrNotFound if the parent doesn't exist.
	GetParent(ctx context.Context, id core.ID) (*core.ParentContext, error)

	// GetChunksByCollection retrieves every chunk in a collection.
	// Used for keyword index rebuilds.
	GetChunksByCollection(ctx context.Context, collection string) ([]*core.Chunk, error)

	// FindSimilar finds chunks in a collection similar to the given vector.
	// Returns hits with similarity >= minSimilarity, up to limit results,
	// ordered by similarity score (highest first).
	FindSimilar(ctx context.Context, collection string, vector []float32, minSimilarity float32, limit int) ([]core.SearchHit, error)

	// Close closes the repository and releases resources.
	Close() error
}

// ConversationRepository provides session-scoped conversation memory.
// Session identifiers isolate query streams; no state is shared between
// sessions. Implementations must be thread-safe.
type ConversationRepository interface {
	// AppendMessages appends messages to a session's conversation in order.
	// Conversations are append-only.
	AppendMessages(ctx context.Context, session string, messages ...*core.Message) error

	// GetRecentMessages retrieves up to limit most recent messages for a
	// session, oldest first.
	GetRecentMessages(ctx context.Context, session string, limit int) ([]*core.Message, error)

	// LastAssistantMessage retrieves the most recent assistant message of
	// a session. Returns ErrNotFound if the session has no assistant
	// message yet.
	LastAssistantMessage(ctx context.Context, session string) (*core.Message, error)

	// Close closes the repository and releases resources.
	Close() error
}
