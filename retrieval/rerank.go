package retrieval

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/evidentia/ragline/ai"
	"github.com/evidentia/ragline/core"
)

// rerankTimeout bounds the scoring call. Reranking is an accuracy backstop,
// not a gate: a slow or failing scorer falls back to fusion order.
const rerankTimeout = 15 * time.Second

// Reranker applies precise relevance scoring on top of the coarse fusion
// ordering and truncates to the plan's k.
type Reranker struct {
	scorer ai.RerankScorer
	logger *slog.Logger
}

// NewReranker creates a reranker over the given scorer.
func NewReranker(scorer ai.RerankScorer, logger *slog.Logger) *Reranker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reranker{
		scorer: scorer,
		logger: logger.With("component", "reranker"),
	}
}

// Rerank scores each (query, parent text) pair, sorts descending by score,
// and returns the top k candidates. If scoring fails, the fusion ordering
// is kept and rerank scores stay zero; the output size is
// min(k, len(candidates)) either way.
func (r *Reranker) Rerank(ctx context.Context, query string, candidates []core.RankedCandidate, k int) []core.RankedCandidate {
	if len(candidates) == 0 || k <= 0 {
		return nil
	}

	scored := make([]core.RankedCandidate, len(candidates))
	copy(scored, candidates)

	ctx, cancel := context.WithTimeout(ctx, rerankTimeout)
	defer cancel()

	passages := make([]string, len(scored))
	for i, c := range scored {
		passages[i] = c.Parent.Text
	}

	scores, err := r.scorer.ScorePassages(ctx, query, passages)
	switch {
	case err != nil:
		r.logger.Warn("reranker unavailable, falling back to fusion order", "err", err)
	case len(scores) != len(scored):
		r.logger.Warn("reranker returned wrong score count, falling back to fusion order",
			"want", len(scored), "got", len(scores))
	default:
		for i := range scored {
			scored[i].RerankScore = scores[i]
		}
		sort.SliceStable(scored, func(i, j int) bool {
			return scored[i].RerankScore > scored[j].RerankScore
		})
	}

	if len(scored) > k {
		scored = scored[:k]
	}
	return scored
}
