package keyword

import (
	"math"
	"sort"

	"github.com/evidentia/ragline/core"
)

// Index is an in-memory term-frequency index over one collection's chunks.
// An Index is immutable after construction and safe for concurrent reads;
// Store swaps whole indexes on rebuild.
type Index struct {
	collection string
	terms      map[string][]posting // term -> postings in document order
	docLens    map[core.ID]int      // content-term count per chunk
	docOrder   map[core.ID]int      // insertion ordinal, for stable tie-breaks
	docCount   int
}

// posting records how often a term occurs in one chunk.
type posting struct {
	ChunkId core.ID
	Count   int
}

// NewIndex creates an empty index for a collection.
func NewIndex(collection string) *Index {
	return &Index{
		collection: collection,
		terms:      make(map[string][]posting),
		docLens:    make(map[core.ID]int),
		docOrder:   make(map[core.ID]int),
	}
}

// BuildIndex indexes the given chunks for a collection.
func BuildIndex(collection string, chunks []*core.Chunk) *Index {
	idx := NewIndex(collection)
	for _, chunk := range chunks {
		idx.add(chunk.Id, chunk.Text)
	}
	return idx
}

// add indexes one document's terms. Re-adding an already indexed document
// would double-count; BuildIndex always starts from an empty index.
func (idx *Index) add(id core.ID, text string) {
	if _, seen := idx.docLens[id]; seen {
		return
	}

	terms := Tokenize(text)
	counts := make(map[string]int, len(terms))
	for _, t := range terms {
		counts[t]++
	}

	idx.docOrder[id] = idx.docCount
	idx.docLens[id] = len(terms)
	idx.docCount++

	for t, c := range counts {
		idx.terms[t] = append(idx.terms[t], posting{ChunkId: id, Count: c})
	}
}

// Collection returns the collection this index covers.
func (idx *Index) Collection() string {
	return idx.collection
}

// Empty reports whether the index holds no documents.
func (idx *Index) Empty() bool {
	return idx.docCount == 0
}

// Len returns the number of indexed documents.
func (idx *Index) Len() int {
	return idx.docCount
}

// Search scores chunks against the query terms with TF-IDF and returns up
// to limit keyword hits, highest score first. Ordering is deterministic:
// ties break by document insertion order.
func (idx *Index) Search(query string, limit int) []core.SearchHit {
	if idx.docCount == 0 || limit <= 0 {
		return nil
	}

	terms := Tokenize(query)
	if len(terms) == 0 {
		return nil
	}

	scores := make(map[core.ID]float64)
	for _, t := range terms {
		postings, ok := idx.terms[t]
		if !ok {
			continue
		}

		df := float64(len(postings))
		idf := math.Log(1 + (float64(idx.docCount)-df+0.5)/(df+0.5))

		for _, p := range postings {
			tf := float64(p.Count) / float64(max(idx.docLens[p.ChunkId], 1))
			scores[p.ChunkId] += tf * idf
		}
	}

	hits := make([]core.SearchHit, 0, len(scores))
	for id, score := range scores {
		hits = append(hits, core.SearchHit{
			ChunkId: id,
			Score:   score,
			Source:  core.SourceKeyword,
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return idx.docOrder[hits[i].ChunkId] < idx.docOrder[hits[j].ChunkId]
	})

	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}
