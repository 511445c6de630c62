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


package ingest

import (
	"context"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/evidentia/ragline/ai"
	"github.com/evidentia/ragline/core"
	"github.com/evidentia/ragline/keyword"
	"github.com/evidentia/ragline/storage"
)

// embedBatchSize is how many chunk texts go into one embedding request.
const embedBatchSize = 16

// Pipeline ingests documents: chunking, embedding, storage, and keyword
// index maintenance. Embedding batches run on a bounded worker pool.
type Pipeline struct {
	chunks   storage.ChunkRepository
	keywords *keyword.Store
	embedder ai.Embedder
	pool     *ants.Pool
	logger   *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent embedding.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		if p.pool != nil {
			p.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger.With("component", "ingest")
		return nil
	}
}

// NewPipeline creates an ingestion pipeline.
func NewPipeline(
	chunks storage.ChunkRepository,
	keywords *keyword.Store,
	embedder ai.Embedder,
	opts ...Option,
) (*Pipeline, error) {
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if keywords == nil {
		return nil, ErrKeywordStoreRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		chunks:   chunks,
		keywords: keywords,
		embedder: embedder,
		pool:     pool,
		logger:   slog.Default().With("component", "ingest"),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}
	return p, nil
}

// IngestDocument chunks, embeds, and indexes one document into a
// collection, then rebuilds the collection's keyword snapshot. A chunk
// whose embedding fails is stored without a vector and stays reachable
// through keyword search; embedding failures never abort the ingestion.
func (p *Pipeline) IngestDocument(ctx context.Context, collection, document string, pages []Page) error {
	parents, chunks := Split(collection, document, pages)
	if len(chunks) == 0 {
		return ErrEmptyDocument
	}

	p.logger.Info("ingesting document",
		"collection", collection, "document", document,
		"pages", len(pages), "parents", len(parents), "chunks", len(chunks))

	p.embedChunks(ctx, chunks)

	if err := p.chunks.AddParents(ctx, parents...); err != nil {
		return err
	}
	if err := p.chunks.AddChunks(ctx, chunks...); err != nil {
		return err
	}

	return p.rebuildKeywordIndex(ctx, collection)
}

// embedChunks fills in chunk vectors, batching requests across the worker
// pool and waiting for all batches.
func (p *Pipeline) embedChunks(ctx context.Context, chunks []*core.Chunk) {
	var wg sync.WaitGroup

	for start := 0; start < len(chunks); start += embedBatchSize {
		batch := chunks[start:min(start+embedBatchSize, len(chunks))]

		wg.Add(1)
		err := p.pool.Submit(func() {
			defer wg.Done()
			p.embedBatch(ctx, batch)
		})
		if err != nil {
			// Pool saturated or released: embed on the caller's goroutine.
			p.embedBatch(ctx, batch)
			wg.Done()
		}
	}
	wg.Wait()
}

// embedBatch embeds one batch of chunks in a single request.
func (p *Pipeline) embedBatch(ctx context.Context, batch []*core.Chunk) {
	texts := make([]string, len(batch))
	for i, chunk := range batch {
		texts[i] = chunk.Text
	}

	vectors, err := p.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		p.logger.Warn("embedding batch failed, chunks stored without vectors",
			"batch_size", len(batch), "err", err)
		return
	}
	if len(vectors) != len(batch) {
		p.logger.Warn("embedding count mismatch, chunks stored without vectors",
			"want", len(batch), "got", len(vectors))
		return
	}

	for i, chunk := range batch {
		chunk.Vector = vectors[i]
	}
}

// rebuildKeywordIndex rebuilds and persists the collection's keyword
// snapshot from everything now stored in the collection.
func (p *Pipeline) rebuildKeywordIndex(ctx context.Context, collection string) error {
	all, err := p.chunks.GetChunksByCollection(ctx, collection)
	if err != nil {
		return err
	}

	idx, err := p.keywords.Build(collection, all)
	if err != nil {
		// The in-memory index was swapped; only the snapshot write failed.
		p.logger.Warn("keyword snapshot save failed, index is memory-only",
			"collection", collection, "err", err)
		return nil
	}

	p.logger.Info("keyword index rebuilt",
		"collection", collection, "documents", idx.Len())
	return nil
}

// Release releases the worker pool. The pipeline should not be used after
// calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
