package intent

import (
	"context"
	"log/slog"
	"sync"

	"github.com/evidentia/ragline/ai"
	"github.com/evidentia/ragline/core"
)

// Per-intent exemplar phrases for the semantic layer. The classifier embeds
// these once per process and compares incoming messages against them by
// cosine similarity.
var exemplars = map[core.Intent][]string{
	core.IntentGreeting: {
		"hello, how are you doing today",
		"hi, nice to meet you",
		"good morning to you",
	},
	core.IntentGratitude: {
		"thank you for the detailed explanation",
		"thanks, that was really helpful",
		"i appreciate your help with this",
	},
	core.IntentFollowup: {
		"tell me more about that",
		"can you elaborate on your last answer",
		"what else should i know about this",
		"go on, continue with that topic",
	},
	core.IntentSimplify: {
		"can you explain that in simpler terms",
		"i did not understand, make it easier please",
		"explain it like i am five",
		"that was too complicated, simplify it",
	},
	core.IntentDeepen: {
		"go into more technical detail",
		"give me the in-depth technical explanation",
		"what are the low level details behind that",
	},
	core.IntentQuestion: {
		"what does this error message mean",
		"how do i configure the timeout setting",
		"why does the service return this response",
		"where is this value defined in the documentation",
	},
}

// exemplarVector pairs a precomputed embedding with its intent.
type exemplarVector struct {
	intent core.Intent
	vector []float32
}

// semanticMatcher is the middle cascade layer: it compares the message
// embedding against fixed per-intent exemplar embeddings. Exemplars embed
// lazily on first use; a failed attempt is retried on the next call.
type semanticMatcher struct {
	embedder  ai.Embedder
	threshold float32
	logger    *slog.Logger

	mu      sync.Mutex
	vectors []exemplarVector
}

func newSemanticMatcher(embedder ai.Embedder, threshold float32, logger *slog.Logger) *semanticMatcher {
	return &semanticMatcher{
		embedder:  embedder,
		threshold: threshold,
		logger:    logger,
	}
}

// match embeds the message and returns the intent of the closest exemplar
// when its cosine similarity clears the confidence threshold.
// The boolean reports whether the layer was confident.
func (m *semanticMatcher) match(ctx context.Context, message string) (core.Intent, bool, error) {
	vectors, err := m.exemplarVectors(ctx)
	if err != nil {
		return "", false, err
	}

	queryVec, err := m.embedder.EmbedText(ctx, message)
	if err != nil {
		return "", false, err
	}

	var best core.Intent
	var bestScore float32 = -1
	for _, ev := range vectors {
		score := core.CosineSimilarity(queryVec, ev.vector)
		if score > bestScore {
			bestScore = score
			best = ev.intent
		}
	}

	if bestScore >= m.threshold {
		m.logger.Debug("semantic layer matched", "intent", best, "similarity", bestScore)
		return best, true, nil
	}
	return "", false, nil
}

// exemplarVectors returns the embedded exemplar set, computing it on first
// use. Embeddings are batched in one call; intents iterate in a fixed order
// so the vector list is deterministic.
func (m *semanticMatcher) exemplarVectors(ctx context.Context) ([]exemplarVector, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.vectors != nil {
		return m.vectors, nil
	}

	intents := []core.Intent{
		core.IntentGreeting, core.IntentGratitude,
		core.IntentFollowup, core.IntentSimplify, core.IntentDeepen,
		core.IntentQuestion,
	}

	var texts []string
	var owners []core.Intent
	for _, it := range intents {
		for _, phrase := range exemplars[it] {
			texts = append(texts, phrase)
			owners = append(owners, it)
		}
	}

	embedded, err := m.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(embedded) != len(texts) {
		m.logger.Warn("exemplar embedding count mismatch",
			"want", len(texts), "got", len(embedded))
		return nil, nil
	}

	vectors := make([]exemplarVector, len(embedded))
	for i, vec := range embedded {
		vectors[i] = exemplarVector{intent: owners[i], vector: vec}
	}
	m.vectors = vectors
	m.logger.Debug("exemplar embeddings ready", "count", len(vectors))
	return vectors, nil
}
