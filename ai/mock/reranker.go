package mock

import "context"

// Reranker is a test double for ai.RerankScorer.
// It allows custom behavior injection via a function field.
type Reranker struct {
	// ScorePassagesFunc is called by ScorePassages if set.
	// If nil, every passage scores 0.5.
	ScorePassagesFunc func(ctx context.Context, query string, passages []string) ([]float64, error)

	callCount int
}

// NewReranker creates a mock reranker with neutral default scores.
// Note: returns concrete type to allow test assertions.
func NewReranker() *Reranker {
	return &Reranker{}
}

// ScorePassages returns one score per passage.
func (m *Reranker) ScorePassages(ctx context.Context, query string, passages []string) ([]float64, error) {
	m.callCount++

	if m.ScorePassagesFunc != nil {
		return m.ScorePassagesFunc(ctx, query, passages)
	}

	scores := make([]float64, len(passages))
	for i := range scores {
		scores[i] = 0.5
	}
	return scores, nil
}

// CallCount returns the number of times ScorePassages was called.
func (m *Reranker) CallCount() int {
	return m.callCount
}

// Reset clears the call count and injected behavior.
func (m *Reranker) Reset() {
	m.callCount = 0
	m.ScorePassagesFunc = nil
}
