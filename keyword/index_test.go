package keyword

import (
	"testing"

	"github.com/evidentia/ragline/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testChunks() []*core.Chunk {
	return []*core.Chunk{
		{Id: 1, Collection: "ops", Text: "gateway timeout occurs when the upstream server is slow"},
		{Id: 2, Collection: "ops", Text: "connection refused means no server listens on the port"},
		{Id: 3, Collection: "ops", Text: "timeout tuning: raise the proxy timeout for slow upstreams"},
		{Id: 4, Collection: "ops", Text: "certificates expire and must be rotated before expiry"},
	}
}

func TestIndexSearch(t *testing.T) {
	idx := BuildIndex("ops", testChunks())
	require.Equal(t, 4, idx.Len())

	t.Run("ranks by term relevance", func(t *testing.T) {
		hits := idx.Search("proxy timeout tuning", 10)
		require.NotEmpty(t, hits)
		assert.Equal(t, core.ID(3), hits[0].ChunkId)
		for _, h := range hits {
			assert.Equal(t, core.SourceKeyword, h.Source)
		}
	})

	t.Run("respects limit", func(t *testing.T) {
		hits := idx.Search("timeout server", 1)
		assert.Len(t, hits, 1)
	})

	t.Run("no matching terms", func(t *testing.T) {
		assert.Empty(t, idx.Search("zebra quantum", 10))
	})

	t.Run("stop words only", func(t *testing.T) {
		assert.Empty(t, idx.Search("the and of", 10))
	})

	t.Run("deterministic across runs", func(t *testing.T) {
		first := idx.Search("timeout upstream slow", 10)
		for i := 0; i < 20; i++ {
			assert.Equal(t, first, idx.Search("timeout upstream slow", 10))
		}
	})
}

func TestIndexEmpty(t *testing.T) {
	idx := NewIndex("ops")
	assert.True(t, idx.Empty())
	assert.Empty(t, idx.Search("anything", 10))
}

func TestBuildIndexSkipsDuplicateIds(t *testing.T) {
	chunks := []*core.Chunk{
		{Id: 7, Collection: "ops", Text: "alpha beta"},
		{Id: 7, Collection: "ops", Text: "alpha beta"},
	}
	idx := BuildIndex("ops", chunks)
	assert.Equal(t, 1, idx.Len())
}
