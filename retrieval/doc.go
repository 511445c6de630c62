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


// Package retrieval implements the document retrieval chain: query routing,
// parallel hybrid search with reciprocal rank fusion, child-to-parent
// expansion, and final reranking.
//
// The chain is built for graceful degradation. Every stage has a defined
// fallback: a failed vector leg degrades to keyword-only ranking and vice
// versa, and a failed reranker keeps the fusion ordering. A request only
// fails on storage-level errors, never on model availability.
package retrieval
