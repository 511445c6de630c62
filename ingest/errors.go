package ingest

import "errors"

var (
	// ErrChunkRepositoryRequired indicates a nil chunk repository was passed.
	ErrChunkRepositoryRequired = errors.New("chunk repository is required")

	// ErrKeywordStoreRequired indicates a nil keyword store was passed.
	ErrKeywordStoreRequired = errors.New("keyword store is required")

	// ErrEmbedderRequired indicates a nil embedder was passed.
	ErrEmbedderRequired = errors.New("embedder is required")

	// ErrEmptyDocument indicates a document with no usable text.
	ErrEmptyDocument = errors.New("document has no text content")
)
