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


package ragline

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/evidentia/ragline/ai"
	"github.com/evidentia/ragline/ai/openai"
	"github.com/evidentia/ragline/core"
	"github.com/evidentia/ragline/ingest"
	"github.com/evidentia/ragline/intent"
	"github.com/evidentia/ragline/keyword"
	"github.com/evidentia/ragline/pipeline"
	"github.com/evidentia/ragline/retrieval"
	"github.com/evidentia/ragline/storage"
	"github.com/evidentia/ragline/storage/badger"
	"github.com/evidentia/ragline/verify"
)

// Engine is the top-level entry point: document ingestion on one side,
// question answering on the other, over a shared store at dataDir.
type Engine struct {
	backend      *badger.Backend
	chunkRepo    storage.ChunkRepository
	convRepo     storage.ConversationRepository
	keywords     *keyword.Store
	provider     ai.Provider
	orchestrator *pipeline.Orchestrator
	logger       *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	aiConfig *ai.Config
	provider ai.Provider
	inMemory bool
}

// WithAIConfig sets the AI service configuration.
func WithAIConfig(config *ai.Config) EngineOption {
	return func(o *engineOptions) {
		o.aiConfig = config
	}
}

// WithProvider injects a pre-built AI provider, bypassing the OpenAI
// default. Used by tests to run the engine on mocks.
func WithProvider(provider ai.Provider) EngineOption {
	return func(o *engineOptions) {
		o.provider = provider
	}
}

// WithInMemoryStore keeps all storage in memory. Used by tests.
func WithInMemoryStore() EngineOption {
	return func(o *engineOptions) {
		o.inMemory = true
	}
}

// NewEngine opens (or creates) an engine rooted at dataDir.
func NewEngine(dataDir string, opts ...EngineOption) (*Engine, error) {
	options := &engineOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filepath.Join(dataDir, "store"), options.inMemory)
	if err != nil {
		return nil, err
	}

	chunkRepo, err := badger.NewChunkRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	convRepo, err := badger.NewConversationRepository(backend)
	if err != nil {
		chunkRepo.Close()
		backend.Close()
		return nil, err
	}

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			convRepo.Close()
			chunkRepo.Close()
			backend.Close()
			return nil, err
		}
	}

	logger := slog.Default()
	keywords := keyword.NewStore(filepath.Join(dataDir, "keyword"), logger)

	orchestrator := pipeline.NewOrchestrator(
		intent.NewClassifier(provider.Embedder(), provider.Generator(), logger),
		retrieval.NewRouter(provider.Generator(), logger),
		retrieval.NewRetriever(chunkRepo, provider.Embedder(), keywords, logger),
		retrieval.NewExpander(chunkRepo, logger),
		retrieval.NewReranker(provider.Reranker(), logger),
		verify.NewVerifier(provider.Generator(), logger),
		provider.Generator(),
		convRepo,
		logger,
	)

	return &Engine{
		backend:      backend,
		chunkRepo:    chunkRepo,
		convRepo:     convRepo,
		keywords:     keywords,
		provider:     provider,
		orchestrator: orchestrator,
		logger:       logger,
	}, nil
}

// Ask runs one message through the answer pipeline for a session,
// streaming progress events to sink (which may be nil).
func (e *Engine) Ask(ctx context.Context, session, collection, message string, sink pipeline.EventSink) (*core.Message, error) {
	return e.orchestrator.Process(ctx, session, collection, message, sink)
}

// History returns up to limit most recent messages of a session,
// oldest first.
func (e *Engine) History(ctx context.Context, session string, limit int) ([]*core.Message, error) {
	return e.convRepo.GetRecentMessages(ctx, session, limit)
}

// NewIngestPipeline creates an ingestion pipeline over the engine's store.
func (e *Engine) NewIngestPipeline(opts ...ingest.Option) (*ingest.Pipeline, error) {
	return ingest.NewPipeline(e.chunkRepo, e.keywords, e.provider.Embedder(), opts...)
}

// ChunkRepository exposes the document store.
func (e *Engine) ChunkRepository() storage.ChunkRepository {
	return e.chunkRepo
}

// Close releases the AI provider and storage.
func (e *Engine) Close() error {
	if err := e.provider.Close(); err != nil {
		e.logger.Error("error closing AI provider", "err", err)
	}
	if err := e.convRepo.Close(); err != nil {
		e.logger.Error("error closing conversation repository", "err", err)
		return err
	}
	if err := e.chunkRepo.Close(); err != nil {
		e.logger.Error("error closing chunk repository", "err", err)
		return err
	}
	if err := e.backend.Close(); err != nil {
		e.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}
