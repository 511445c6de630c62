// Copyright 2025 Evidentia Works
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package retrieval

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/evidentia/ragline/ai"
	"github.com/evidentia/ragline/core"
	"github.com/evidentia/ragline/keyword"
	"github.com/evidentia/ragline/storage"
)

const (
	// candidatePoolSize bounds each index leg, independent of the final k.
	candidatePoolSize = 20

	// minVectorSimilarity filters out semantically unrelated chunks before
	// fusion.
	minVectorSimilarity = 0.25

	// legTimeout bounds each retrieval leg (embedding plus search).
	legTimeout = 10 * time.Second
)

// Retriever runs vector and keyword search in parallel and fuses the two
// rankings. Either leg failing degrades to the other leg's ranking; only a
// storage-level failure on the surviving leg surfaces as an error.
type Retriever struct {
	chunks   storage.ChunkRepository
	embedder ai.Embedder
	keywords *keyword.Store
	logger   *slog.Logger
}

// NewRetriever creates a hybrid retriever over the given chunk store and
// keyword index store.
func NewRetriever(chunks storage.ChunkRepository, embedder ai.Embedder, keywords *keyword.Store, logger *slog.Logger) *Retriever {
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{
		chunks:   chunks,
		embedder: embedder,
		keywords: keywords,
		logger:   logger.With("component", "hybrid-retriever"),
	}
}

// Retrieve returns fused chunk-level results for the query, deduplicated
// and sorted descending by fused score, each annotated with its parent
// reference. ErrNoCandidates signals that both legs came back empty.
func (r *Retriever) Retrieve(ctx context.Context, query, collection string) ([]core.FusedResult, error) {
	var vectorHits, keywordHits []core.SearchHit

	g, legCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		vectorHits = r.vectorLeg(legCtx, query, collection)
		return nil
	})
	g.Go(func() error {
		keywordHits = r.keywordLeg(collection, query)
		return nil
	})
	// Legs report degradation through logs, never through errors.
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fused := Fuse(vectorHits, keywordHits)
	r.logger.Debug("retrieval fused",
		"vector_hits", len(vectorHits),
		"keyword_hits", len(keywordHits),
		"fused", len(fused))
	if len(fused) == 0 {
		return nil, ErrNoCandidates
	}

	return r.resolveParents(ctx, fused)
}

// vectorLeg embeds the query and searches the vector index. Any failure
// degrades to an empty leg.
func (r *Retriever) vectorLeg(ctx context.Context, query, collection string) []core.SearchHit {
	ctx, cancel := context.WithTimeout(ctx, legTimeout)
	defer cancel()

	vector, err := r.embedder.EmbedText(ctx, query)
	if err != nil {
		r.logger.Warn("vector leg degraded: embedding failed", "err", err)
		return nil
	}
	if len(vector) == 0 {
		r.logger.Warn("vector leg degraded: empty embedding")
		return nil
	}

	hits, err := r.chunks.FindSimilar(ctx, collection, vector, minVectorSimilarity, candidatePoolSize)
	if err != nil {
		r.logger.Warn("vector leg degraded: search failed", "err", err)
		return nil
	}
	return hits
}

// keywordLeg searches the persisted term index. A missing or unloaded
// index is an empty leg, not an error.
func (r *Retriever) keywordLeg(collection, query string) []core.SearchHit {
	idx := r.keywords.Index(collection)
	if idx.Empty() {
		r.logger.Debug("keyword leg empty", "collection", collection)
		return nil
	}
	return idx.Search(query, candidatePoolSize)
}

// resolveParents annotates fused results with their parent references,
// dropping results whose chunks have vanished from storage.
func (r *Retriever) resolveParents(ctx context.Context, fused []core.FusedResult) ([]core.FusedResult, error) {
	if len(fused) == 0 {
		return nil, nil
	}

	ids := make([]core.ID, len(fused))
	for i, f := range fused {
		ids[i] = f.ChunkId
	}

	chunks, err := r.chunks.GetChunks(ctx, ids...)
	if err != nil {
		return nil, err
	}

	parentOf := make(map[core.ID]core.ID, len(chunks))
	for _, chunk := range chunks {
		parentOf[chunk.Id] = chunk.ParentId
	}

	resolved := fused[:0]
	for _, f := range fused {
		parentId, ok := parentOf[f.ChunkId]
		if !ok {
			r.logger.Warn("fused chunk missing from storage, dropping", "chunk", f.ChunkId)
			continue
		}
		f.ParentId = parentId
		resolved = append(resolved, f)
	}
	return resolved, nil
}
