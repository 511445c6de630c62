package retrieval

import (
	"context"
	"testing"

	"github.com/evidentia/ragline/core"
	badgerstore "github.com/evidentia/ragline/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandDeduplicatesParents(t *testing.T) {
	chunkRepo, convRepo, backend, err := badgerstore.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		chunkRepo.Close()
		convRepo.Close()
		backend.Close()
	})
	ctx := context.Background()

	require.NoError(t, chunkRepo.AddParents(ctx,
		&core.ParentContext{Id: 100, Collection: "ops", Document: "a.pdf", Page: 1, Text: "parent one"},
		&core.ParentContext{Id: 200, Collection: "ops", Document: "b.pdf", Page: 3, Text: "parent two"},
	))

	expander := NewExpander(chunkRepo, nil)

	t.Run("repeated parent keeps max constituent score", func(t *testing.T) {
		fused := []core.FusedResult{
			{ChunkId: 1, ParentId: 100, Score: 0.030},
			{ChunkId: 2, ParentId: 200, Score: 0.028},
			{ChunkId: 3, ParentId: 100, Score: 0.045},
		}
		candidates, err := expander.Expand(ctx, fused)
		require.NoError(t, err)
		require.Len(t, candidates, 2)

		assert.Equal(t, core.ID(100), candidates[0].Parent.Id)
		assert.InDelta(t, 0.045, candidates[0].FusedScore, 1e-12)
		assert.Equal(t, core.ID(200), candidates[1].Parent.Id)
	})

	t.Run("never emits duplicate parent ids", func(t *testing.T) {
		fused := []core.FusedResult{
			{ChunkId: 1, ParentId: 100, Score: 0.03},
			{ChunkId: 2, ParentId: 100, Score: 0.02},
			{ChunkId: 3, ParentId: 100, Score: 0.01},
		}
		candidates, err := expander.Expand(ctx, fused)
		require.NoError(t, err)
		require.Len(t, candidates, 1)
		assert.Equal(t, core.ID(100), candidates[0].Parent.Id)
	})

	t.Run("missing parent drops its candidates", func(t *testing.T) {
		fused := []core.FusedResult{
			{ChunkId: 1, ParentId: 999, Score: 0.09},
			{ChunkId: 2, ParentId: 200, Score: 0.02},
		}
		candidates, err := expander.Expand(ctx, fused)
		require.NoError(t, err)
		require.Len(t, candidates, 1)
		assert.Equal(t, core.ID(200), candidates[0].Parent.Id)
	})
}
