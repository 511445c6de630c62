// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Embedder, ai.Generator,
// ai.RerankScorer, and ai.Provider for use in unit tests. The mocks allow
// tests to run without external AI services and enable controlled,
// deterministic behavior.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	provider := mock.NewProvider()
//	vector, err := provider.Embedder().EmbedText(ctx, "test")
//
//	// Custom behavior injection
//	gen := mock.NewGenerator()
//	gen.CompleteFunc = func(ctx context.Context, system, prompt string) (string, error) {
//	    return `{"grounded": true}`, nil
//	}
//
//	// Check call counts
//	count := gen.CallCount()
//
// # Default Behavior
//
//   - Embedder: returns deterministic vectors based on text hash
//   - Generator: returns a canned response, streamed word by word
//   - Reranker: scores every passage 0.5
package mock
