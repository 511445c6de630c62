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


// Package ai provides abstractions for the AI services Ragline depends on.
//
// This package defines interfaces for text embedding, answer generation, and
// passage reranking. It follows the dependency inversion principle: the
// retrieval pipeline depends on these abstractions, never on a concrete
// backend.
//
// # Design Principles
//
// The package is designed around four key interfaces:
//
//   - Embedder: generates vector embeddings from text
//   - Generator: produces answers, streamed or complete
//   - RerankScorer: scores passages for relevance to a query
//   - Provider: aggregates the services for convenient initialization
//
// # Implementation Packages
//
//   - ai/openai: production implementation using OpenAI-compatible APIs
//   - ai/mock: test doubles for unit testing without external dependencies
//
// # Constructor Return Type Pattern
//
// Public constructors (openai.NewProvider, openai.NewEmbedder, etc.) return
// INTERFACE types to enforce abstraction and prevent accidental coupling to
// concrete implementations.
//
//	provider, err := openai.NewProvider(config)  // returns ai.Provider
//
// Test utility constructors (mock.NewEmbedder, mock.NewGenerator, etc.)
// return CONCRETE types to enable test assertions and behavior injection via
// the mock's public fields and methods.
//
//	gen := mock.NewGenerator()
//	gen.StreamFunc = func(...) (string, error) { ... }
//	count := gen.CallCount()
package ai
