package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/evidentia/ragline/ai/mock"
	"github.com/evidentia/ragline/core"
	"github.com/stretchr/testify/assert"
)

func TestRouteSimple(t *testing.T) {
	r := NewRouter(mock.NewGenerator(), nil)

	for _, query := range []string{
		"what is a gateway timeout?",
		"default retry policy",
		"how do I rotate certificates?",
	} {
		plan := r.Route(query, core.IntentQuestion)
		assert.Equal(t, simpleK, plan.K, "query=%q", query)
		assert.False(t, plan.Rewrite, "query=%q", query)
		assert.Equal(t, core.ComplexitySimple, plan.Complexity)
	}
}

func TestRouteComplex(t *testing.T) {
	r := NewRouter(mock.NewGenerator(), nil)

	for _, query := range []string{
		"compare the retry policy with the circuit breaker approach",
		"what is the difference between a 502 and a 504 response?",
		"what causes this? and how do I fix it?",
		"when the upstream proxy terminates the connection during a long streaming response under heavy concurrent load, which timeout settings interact and which one fires first?",
	} {
		plan := r.Route(query, core.IntentQuestion)
		assert.Equal(t, complexK, plan.K, "query=%q", query)
		assert.True(t, plan.Rewrite, "query=%q", query)
		assert.Equal(t, core.ComplexityComplex, plan.Complexity)
	}
}

func TestRewrite(t *testing.T) {
	t.Run("uses model output", func(t *testing.T) {
		gen := mock.NewGenerator()
		gen.Response = "  \"gateway timeout 504 causes\" \n"
		r := NewRouter(gen, nil)

		assert.Equal(t, "gateway timeout 504 causes",
			r.Rewrite(context.Background(), "why 504?"))
	})

	t.Run("falls back to original on error", func(t *testing.T) {
		gen := mock.NewGenerator()
		gen.CompleteFunc = func(ctx context.Context, system, prompt string) (string, error) {
			return "", errors.New("model down")
		}
		r := NewRouter(gen, nil)

		assert.Equal(t, "why 504?", r.Rewrite(context.Background(), "why 504?"))
	})

	t.Run("falls back to original on empty output", func(t *testing.T) {
		gen := mock.NewGenerator()
		gen.Response = "   "
		r := NewRouter(gen, nil)

		assert.Equal(t, "why 504?", r.Rewrite(context.Background(), "why 504?"))
	})
}
