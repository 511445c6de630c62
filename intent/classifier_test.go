package intent

import (
	"context"
	"errors"
	"testing"

	"github.com/evidentia/ragline/ai"
	"github.com/evidentia/ragline/ai/mock"
	"github.com/evidentia/ragline/core"
	"github.com/stretchr/testify/assert"
)

// newRuleOnlyClassifier wires mocks so the semantic and fallback layers
// error out, isolating the rule layer.
func newRuleOnlyClassifier() *Classifier {
	embedder := mock.NewEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errors.New("embedder down")
	}
	generator := mock.NewGenerator()
	generator.CompleteFunc = func(ctx context.Context, system, prompt string) (string, error) {
		return "", errors.New("model down")
	}
	return NewClassifier(embedder, generator, nil)
}

func TestRuleLayer(t *testing.T) {
	c := newRuleOnlyClassifier()
	ctx := context.Background()

	cases := []struct {
		message string
		want    core.Intent
	}{
		{"", core.IntentGarbage},
		{"   \t  ", core.IntentGarbage},
		{"12345 !!!", core.IntentGarbage},
		{"asdfgh", core.IntentGarbage},
		{"hello", core.IntentGreeting},
		{"Hey there!", core.IntentGreeting},
		{"Good morning", core.IntentGreeting},
		{"thanks", core.IntentGratitude},
		{"Thank you so much!", core.IntentGratitude},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, c.Classify(ctx, tc.message, false), "message=%q", tc.message)
	}
}

func TestRuleLayerPassesRealQuestionsThrough(t *testing.T) {
	// With both model layers down, anything the rules don't claim defaults
	// to question.
	c := newRuleOnlyClassifier()
	got := c.Classify(context.Background(), "hello, why does the proxy return 504?", true)
	assert.Equal(t, core.IntentQuestion, got)
}

func TestSemanticLayer(t *testing.T) {
	// Exemplars embed to distinct unit axes; the query matches the
	// simplify axis exactly.
	axis := func(i int) []float32 {
		v := make([]float32, 8)
		v[i] = 1
		return v
	}

	embedder := mock.NewEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		vectors := make([][]float32, len(texts))
		for i, text := range texts {
			if text == "can you explain that in simpler terms" {
				vectors[i] = axis(1)
			} else {
				vectors[i] = axis(i%6 + 2)
			}
		}
		return vectors, nil
	}
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return axis(1), nil
	}

	generator := mock.NewGenerator()
	c := NewClassifier(embedder, generator, nil)

	got := c.Classify(context.Background(), "please say that more simply", true)
	assert.Equal(t, core.IntentSimplify, got)
	assert.Zero(t, generator.CallCount(), "confident semantic match must not reach the fallback layer")
}

func TestFallbackLayer(t *testing.T) {
	embedder := mock.NewEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errors.New("embedder down")
	}

	t.Run("uses model label", func(t *testing.T) {
		generator := mock.NewGenerator()
		generator.Response = "deepen"
		c := NewClassifier(embedder, generator, nil)
		assert.Equal(t, core.IntentDeepen,
			c.Classify(context.Background(), "more rigor please", true))
	})

	t.Run("trims decoration from label", func(t *testing.T) {
		generator := mock.NewGenerator()
		generator.Response = " Followup.\n"
		c := NewClassifier(embedder, generator, nil)
		assert.Equal(t, core.IntentFollowup,
			c.Classify(context.Background(), "and then?", true))
	})

	t.Run("unknown label defaults to question", func(t *testing.T) {
		generator := mock.NewGenerator()
		generator.Response = "banana"
		c := NewClassifier(embedder, generator, nil)
		assert.Equal(t, core.IntentQuestion,
			c.Classify(context.Background(), "hmm", true))
	})
}

func TestContextualDowngradeWithoutHistory(t *testing.T) {
	embedder := mock.NewEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errors.New("embedder down")
	}

	for _, label := range []string{"followup", "simplify", "deepen"} {
		generator := mock.NewGenerator()
		generator.Response = label
		c := NewClassifier(embedder, generator, nil)

		assert.Equal(t, core.IntentQuestion,
			c.Classify(context.Background(), "tell me more", false),
			"intent %s without history must downgrade", label)
		assert.Equal(t, core.Intent(label),
			c.Classify(context.Background(), "tell me more", true),
			"intent %s with history must survive", label)
	}
}

func TestExemplarsEmbedOnce(t *testing.T) {
	batchCalls := 0
	embedder := mock.NewEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		batchCalls++
		return mockBatch(texts), nil
	}

	c := NewClassifier(embedder, mock.NewGenerator(), nil,
		WithSemanticThreshold(2)) // unreachable, forces full cascade every time

	for i := 0; i < 5; i++ {
		c.Classify(context.Background(), "what is the retry policy?", true)
	}
	assert.Equal(t, 1, batchCalls, "exemplars must embed exactly once")
}

func mockBatch(texts []string) [][]float32 {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = mock.DeterministicVector(text, 16)
	}
	return vectors
}

var _ ai.Embedder = (*mock.Embedder)(nil)
