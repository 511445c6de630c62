package retrieval

import (
	"context"
	"errors"
	"log/slog"
	"sort"

	"github.com/evidentia/ragline/core"
	"github.com/evidentia/ragline/storage"
)

// Expander maps fused child-chunk results up to their parent contexts.
// Children buy retrieval precision; parents hand generation a coherent
// span to work with.
type Expander struct {
	chunks storage.ChunkRepository
	logger *slog.Logger
}

// NewExpander creates a parent expander over the given chunk store.
func NewExpander(chunks storage.ChunkRepository, logger *slog.Logger) *Expander {
	if logger == nil {
		logger = slog.Default()
	}
	return &Expander{
		chunks: chunks,
		logger: logger.With("component", "parent-expander"),
	}
}

// Expand resolves each fused result's parent and deduplicates: a parent
// matched through several children is emitted once, positioned by the best
// fused score among its children. A parent missing from storage drops its
// children from the candidate set with a warning.
func (e *Expander) Expand(ctx context.Context, fused []core.FusedResult) ([]core.RankedCandidate, error) {
	type best struct {
		score float64
		order int
	}

	byParent := make(map[core.ID]*best)
	var parentIds []core.ID

	for _, f := range fused {
		b, seen := byParent[f.ParentId]
		if !seen {
			byParent[f.ParentId] = &best{score: f.Score, order: len(parentIds)}
			parentIds = append(parentIds, f.ParentId)
			continue
		}
		if f.Score > b.score {
			b.score = f.Score
		}
	}

	candidates := make([]core.RankedCandidate, 0, len(parentIds))
	for _, id := range parentIds {
		parent, err := e.chunks.GetParent(ctx, id)
		if errors.Is(err, storage.ErrNotFound) {
			e.logger.Warn("parent missing from storage, dropping candidates", "parent", id)
			continue
		}
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, core.RankedCandidate{
			Parent:     parent,
			FusedScore: byParent[id].score,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].FusedScore > candidates[j].FusedScore
	})
	return candidates, nil
}
