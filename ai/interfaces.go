package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a
	// batch. The returned slice contains embeddings in the same order as the
	// input texts. Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// TokenFunc receives one streamed token. Implementations of Generator call
// it sequentially from a single goroutine.
type TokenFunc func(token string)

// Generator produces natural-language text from prompts.
// Implementations must be thread-safe for concurrent use.
type Generator interface {
	// Stream generates a response to the prompt, invoking onToken for each
	// token as it arrives, and returns the complete text when generation
	// finishes. onToken may be nil when the caller only wants the full text.
	Stream(ctx context.Context, system, prompt string, onToken TokenFunc) (string, error)

	// Complete generates a response without streaming. Used for internal
	// calls (classification, judging, query rewriting) where tokens are
	// never shown to a user.
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// RerankScorer scores passages for relevance to a query.
// Implementations must be thread-safe for concurrent use.
type RerankScorer interface {
	// ScorePassages returns one relevance score in [0,1] per passage, in
	// input order. Returns an error if scoring fails; callers are expected
	// to fall back to their pre-rerank ordering.
	ScorePassages(ctx context.Context, query string, passages []string) ([]float64, error)
}

// Provider aggregates AI services for convenient initialization and
// lifecycle management. A provider creates and manages Embedder, Generator,
// and RerankScorer instances, ensuring they share configuration.
type Provider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// Generator returns the text generation service.
	// The returned Generator is safe for concurrent use.
	Generator() Generator

	// Reranker returns the passage scoring service.
	// The returned RerankScorer is safe for concurrent use.
	Reranker() RerankScorer

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
