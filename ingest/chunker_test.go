package ingest

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func longPage(sentences int) string {
	var b strings.Builder
	for i := 0; i < sentences; i++ {
		fmt.Fprintf(&b, "Sentence number %d explains one more operational detail about gateway timeout behavior in the proxy layer. ", i)
	}
	return b.String()
}

func TestSplitBasic(t *testing.T) {
	pages := []Page{
		{Number: 1, Text: "Error 504 means the upstream timed out. Check the proxy read deadline."},
		{Number: 2, Text: "Certificates must be rotated before expiry."},
	}

	parents, chunks := Split("ops", "errors.pdf", pages)

	require.NotEmpty(t, parents)
	require.NotEmpty(t, chunks)

	parentIds := make(map[uint64]bool)
	for _, p := range parents {
		assert.Equal(t, "ops", p.Collection)
		assert.Equal(t, "errors.pdf", p.Document)
		assert.NotZero(t, p.Id)
		parentIds[uint64(p.Id)] = true
	}
	for _, c := range chunks {
		assert.True(t, parentIds[uint64(c.ParentId)], "every chunk references a produced parent")
		assert.NotZero(t, c.Id)
		assert.NotEmpty(t, c.Text)
	}
}

func TestSplitParentsStayWithinPages(t *testing.T) {
	pages := []Page{
		{Number: 3, Text: longPage(200)},
		{Number: 4, Text: "A short closing page."},
	}

	parents, _ := Split("ops", "big.pdf", pages)

	require.Greater(t, len(parents), 2, "a long page must split into multiple parents")
	for _, p := range parents {
		assert.Contains(t, []int{3, 4}, p.Page)
	}
}

func TestSplitChildrenSmallerThanParents(t *testing.T) {
	parents, chunks := Split("ops", "big.pdf", []Page{{Number: 1, Text: longPage(120)}})

	require.NotEmpty(t, parents)
	assert.Greater(t, len(chunks), len(parents),
		"parents should fan out into multiple smaller children")
	for _, c := range chunks {
		assert.LessOrEqual(t, countTokens(c.Text), parentTokenBudget)
	}
}

func TestSplitDeterministicIds(t *testing.T) {
	pages := []Page{{Number: 1, Text: "Error 504 means the upstream timed out."}}

	parentsA, chunksA := Split("ops", "errors.pdf", pages)
	parentsB, chunksB := Split("ops", "errors.pdf", pages)

	assert.Equal(t, parentsA, parentsB)
	assert.Equal(t, chunksA, chunksB)
}

func TestSplitEmptyDocument(t *testing.T) {
	parents, chunks := Split("ops", "blank.pdf", []Page{{Number: 1, Text: "   \n\n  "}})
	assert.Empty(t, parents)
	assert.Empty(t, chunks)
}
