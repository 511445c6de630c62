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


package intent

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/evidentia/ragline/ai"
	"github.com/evidentia/ragline/core"
)

const (
	// defaultSemanticThreshold is the minimum cosine similarity for the
	// semantic layer to claim a match.
	defaultSemanticThreshold = 0.78

	// layerTimeout bounds each model-backed cascade layer. A slow layer
	// falls through to the next, it never stalls the whole request.
	layerTimeout = 10 * time.Second
)

const fallbackSystemPrompt = `Classify the user's message into exactly one intent label.

Labels:
- greeting: the message only greets, no information need
- gratitude: the message only thanks, no information need
- garbage: empty, nonsensical, or not language
- followup: asks to continue or expand the previous answer
- simplify: asks to restate the previous answer more simply
- deepen: asks for more technical depth on the previous answer
- question: a standalone information-seeking question

Respond with the single label only, lowercase, no punctuation, no explanation.`

// Classifier resolves the intent of an incoming message through three
// cascading layers: hard rules, semantic exemplar matching, and a
// constrained generative fallback. The first confident layer wins.
type Classifier struct {
	semantic  *semanticMatcher
	generator ai.Generator
	logger    *slog.Logger
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithSemanticThreshold overrides the semantic layer's confidence threshold.
func WithSemanticThreshold(threshold float32) Option {
	return func(c *Classifier) {
		c.semantic.threshold = threshold
	}
}

// NewClassifier creates an intent classifier backed by the given embedder
// and generator.
func NewClassifier(embedder ai.Embedder, generator ai.Generator, logger *slog.Logger, opts ...Option) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "intent-classifier")

	c := &Classifier{
		semantic:  newSemanticMatcher(embedder, defaultSemanticThreshold, logger),
		generator: generator,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify resolves the message's intent. hasHistory reports whether a
// prior assistant answer exists for this conversation; without one,
// contextual intents (followup, simplify, deepen) downgrade to question so
// a standalone query phrased as a continuation still goes through
// retrieval.
func (c *Classifier) Classify(ctx context.Context, message string, hasHistory bool) core.Intent {
	intent := c.cascade(ctx, message)

	if intent.IsContextual() && !hasHistory {
		c.logger.Debug("contextual intent without history, downgrading",
			"from", intent, "to", core.IntentQuestion)
		intent = core.IntentQuestion
	}
	return intent
}

// cascade runs the three layers in order and returns the first confident
// classification. Layer failures fall through; the worst case is the
// default intent, question.
func (c *Classifier) cascade(ctx context.Context, message string) core.Intent {
	if intent, ok := classifyByRules(message); ok {
		c.logger.Debug("rule layer matched", "intent", intent)
		return intent
	}

	semCtx, cancel := context.WithTimeout(ctx, layerTimeout)
	intent, ok, err := c.semantic.match(semCtx, message)
	cancel()
	if err != nil {
		c.logger.Warn("semantic layer unavailable, falling through", "err", err)
	} else if ok {
		return intent
	}

	genCtx, cancel := context.WithTimeout(ctx, layerTimeout)
	intent, err = c.classifyByModel(genCtx, message)
	cancel()
	if err != nil {
		c.logger.Warn("fallback layer unavailable, defaulting to question", "err", err)
		return core.IntentQuestion
	}
	return intent
}

// classifyByModel asks the generative model for a single intent label.
func (c *Classifier) classifyByModel(ctx context.Context, message string) (core.Intent, error) {
	response, err := c.generator.Complete(ctx, fallbackSystemPrompt, message)
	if err != nil {
		return "", err
	}

	label := strings.ToLower(strings.TrimSpace(response))
	label = strings.Trim(label, ".\"'")

	switch intent := core.Intent(label); intent {
	case core.IntentGreeting, core.IntentGratitude, core.IntentGarbage,
		core.IntentFollowup, core.IntentSimplify, core.IntentDeepen,
		core.IntentQuestion:
		c.logger.Debug("fallback layer classified", "intent", intent)
		return intent, nil
	}

	c.logger.Warn("fallback layer returned unknown label, defaulting to question",
		"label", label)
	return core.IntentQuestion, nil
}
