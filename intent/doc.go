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


// Package intent classifies incoming messages into pipeline routing intents.
//
// Classification cascades through three layers, cheapest first:
//
//  1. Hard rules: empty input, non-linguistic input, and a small fixed
//     lexicon of greetings and thanks resolve with no model call.
//  2. Semantic matching: the message embedding is compared against fixed
//     per-intent exemplar embeddings; the best match wins if it clears a
//     confidence threshold.
//  3. Generative fallback: a constrained prompt asks the model for exactly
//     one intent label.
//
// A contextual intent (followup, simplify, deepen) resolved for a
// conversation with no prior assistant answer is downgraded to question,
// so continuation phrasing can never skip retrieval on a fresh session.
package intent
