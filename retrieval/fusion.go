package retrieval

import (
	"sort"

	"github.com/evidentia/ragline/core"
)

// rrfRankConstant is the smoothing term in reciprocal rank fusion. Each hit
// contributes 1/(rrfRankConstant + rank) with 1-based ranks; the constant
// keeps single-index top hits from dominating consensus matches.
const rrfRankConstant = 60

// Fuse merges per-index ranked hit lists with reciprocal rank fusion.
// A chunk appearing in several lists accumulates a contribution from each,
// so consensus matches rise naturally. Output is deduplicated by chunk,
// sorted descending by fused score; ties break by the better individual
// rank, then by first-appearance order, making the result deterministic for
// fixed inputs.
func Fuse(legs ...[]core.SearchHit) []core.FusedResult {
	type accum struct {
		result   core.FusedResult
		bestRank int
		order    int
	}

	byChunk := make(map[core.ID]*accum)
	var insertion []core.ID

	for _, leg := range legs {
		for i, hit := range leg {
			rank := i + 1

			acc, seen := byChunk[hit.ChunkId]
			if !seen {
				acc = &accum{
					result:   core.FusedResult{ChunkId: hit.ChunkId},
					bestRank: rank,
					order:    len(insertion),
				}
				byChunk[hit.ChunkId] = acc
				insertion = append(insertion, hit.ChunkId)
			}

			acc.result.Score += 1.0 / float64(rrfRankConstant+rank)
			acc.result.Hits = append(acc.result.Hits, hit)
			if rank < acc.bestRank {
				acc.bestRank = rank
			}
		}
	}

	accums := make([]*accum, 0, len(byChunk))
	for _, id := range insertion {
		accums = append(accums, byChunk[id])
	}

	sort.SliceStable(accums, func(i, j int) bool {
		a, b := accums[i], accums[j]
		if a.result.Score != b.result.Score {
			return a.result.Score > b.result.Score
		}
		if a.bestRank != b.bestRank {
			return a.bestRank < b.bestRank
		}
		return a.order < b.order
	})

	fused := make([]core.FusedResult, len(accums))
	for i, acc := range accums {
		fused[i] = acc.result
	}
	return fused
}
