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


// Package pipeline composes classification, retrieval, generation, and
// verification into the per-message answer pipeline.
//
// The pipeline is an explicit finite state machine:
//
//	Start → Classified → {InstantReply | ContextExpand |
//	        Routed → Retrieved → Expanded → Reranked →
//	        Generated → Verified} → Done
//
// Every legal edge is listed in a transition table; there is no state from
// which the pipeline fails to produce a response. Stage failures degrade
// per their fallback policies; only a generation failure, where no answer
// content exists to fall back to, surfaces to the caller.
//
// Progress streams to an EventSink as ordered events: phase announcements,
// at most one sources batch, answer tokens as they arrive, and exactly one
// closing done event carrying the grounding flag and processing time.
package pipeline
