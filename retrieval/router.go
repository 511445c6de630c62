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
	"strings"

	"github.com/evidentia/ragline/ai"
	"github.com/evidentia/ragline/core"
	"github.com/evidentia/ragline/keyword"
)

const (
	// simpleK and complexK are the number of parent contexts delivered to
	// generation, not the raw candidate pool size.
	simpleK  = 2
	complexK = 5

	// complexTokenThreshold: queries with more content terms than this are
	// treated as multi-part.
	complexTokenThreshold = 12
)

// comparativeMarkers signal multi-entity or comparative queries, which need
// a wider retrieval net than single-concept lookups.
var comparativeMarkers = []string{
	"compare", "comparison", "versus", " vs ", " vs. ",
	"difference between", "differences between", "pros and cons",
	"better than", "worse than", "trade-off", "tradeoff", "whereas",
}

const rewriteSystemPrompt = `Rewrite the user's question as a concise search query for a document retrieval system.

Rules:
- Keep every distinct entity, error code, and technical term from the question.
- Drop filler words, politeness, and meta-requests ("can you tell me").
- Do not answer the question. Do not add information that is not in it.
- Respond with the rewritten query only, one line, no quotes.`

// Router allocates retrieval resources per question: how many parent
// contexts to deliver and whether to spend a rewrite pass on the query
// first. Simple lookups stay cheap; multi-part questions get a wider net.
type Router struct {
	generator ai.Generator
	logger    *slog.Logger
}

// NewRouter creates a query router. The generator is only used for the
// rewrite pass on complex queries.
func NewRouter(generator ai.Generator, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		generator: generator,
		logger:    logger.With("component", "query-router"),
	}
}

// Route classifies the query's complexity and returns the retrieval plan.
func (r *Router) Route(message string, intent core.Intent) core.RetrievalPlan {
	if classifyComplexity(message) == core.ComplexityComplex {
		r.logger.Debug("routed as complex", "k", complexK)
		return core.RetrievalPlan{K: complexK, Rewrite: true, Complexity: core.ComplexityComplex}
	}

	r.logger.Debug("routed as simple", "k", simpleK)
	return core.RetrievalPlan{K: simpleK, Rewrite: false, Complexity: core.ComplexitySimple}
}

// Rewrite runs the query optimization pass for complex queries. Any model
// failure falls back to the original query; rewriting is an optimization,
// never a gate.
func (r *Router) Rewrite(ctx context.Context, query string) string {
	rewritten, err := r.generator.Complete(ctx, rewriteSystemPrompt, query)
	if err != nil {
		r.logger.Warn("query rewrite unavailable, using original", "err", err)
		return query
	}

	rewritten = strings.TrimSpace(strings.Trim(strings.TrimSpace(rewritten), "\"'"))
	if rewritten == "" {
		return query
	}

	r.logger.Debug("query rewritten", "original", query, "rewritten", rewritten)
	return rewritten
}

// classifyComplexity applies the lightweight heuristics: long queries,
// comparative phrasing, or multiple question marks mean complex.
func classifyComplexity(message string) core.Complexity {
	lower := strings.ToLower(message)

	if len(keyword.Tokenize(message)) > complexTokenThreshold {
		return core.ComplexityComplex
	}
	if strings.Count(message, "?") > 1 {
		return core.ComplexityComplex
	}
	for _, marker := range comparativeMarkers {
		if strings.Contains(lower, marker) {
			return core.ComplexityComplex
		}
	}
	return core.ComplexitySimple
}
