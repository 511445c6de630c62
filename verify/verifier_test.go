package verify

import (
	"context"
	"errors"
	"testing"

	"github.com/evidentia/ragline/ai/mock"
	"github.com/stretchr/testify/assert"
)

const timeoutContext = "Error 504 Gateway Timeout means the server acting as a gateway " +
	"did not receive a timely response from the upstream server."

func TestFastPathGrounded(t *testing.T) {
	gen := mock.NewGenerator()
	v := NewVerifier(gen, nil)

	// The answer reproduces the context almost verbatim.
	answer := "Error 504 Gateway Timeout means the server acting as a gateway " +
		"did not receive a timely response from the upstream server."
	result := v.Verify(context.Background(), answer, []string{timeoutContext})

	assert.True(t, result.Grounded)
	assert.GreaterOrEqual(t, result.Confidence, 0.60)
	assert.Zero(t, gen.CallCount(), "high overlap must not reach the judge")
}

func TestFastPathNotGrounded(t *testing.T) {
	gen := mock.NewGenerator()
	v := NewVerifier(gen, nil)

	answer := "Penguins huddle together in large colonies to conserve warmth during antarctic winters."
	result := v.Verify(context.Background(), answer, []string{timeoutContext})

	assert.False(t, result.Grounded)
	assert.Zero(t, gen.CallCount(), "negligible overlap must not reach the judge")
}

func TestSlowPathJudge(t *testing.T) {
	// An answer that paraphrases: shares vocabulary but not phrasing, so
	// overlap lands in the ambiguous band and the judge decides.
	answer := "The gateway timeout happens when the upstream server fails to send a timely response to the gateway."

	t.Run("judge says yes", func(t *testing.T) {
		gen := mock.NewGenerator()
		gen.Response = "yes"
		v := NewVerifier(gen, nil)

		result := v.Verify(context.Background(), answer, []string{timeoutContext})
		assert.True(t, result.Grounded)
		assert.EqualValues(t, 1, v.JudgeCalls())
	})

	t.Run("judge says no", func(t *testing.T) {
		gen := mock.NewGenerator()
		gen.Response = "No."
		v := NewVerifier(gen, nil)

		result := v.Verify(context.Background(), answer, []string{timeoutContext})
		assert.False(t, result.Grounded)
	})

	t.Run("judge unavailable is inconclusive", func(t *testing.T) {
		gen := mock.NewGenerator()
		gen.CompleteFunc = func(ctx context.Context, system, prompt string) (string, error) {
			return "", errors.New("model down")
		}
		v := NewVerifier(gen, nil)

		result := v.Verify(context.Background(), answer, []string{timeoutContext})
		assert.False(t, result.Grounded, "inconclusive verification counts as not grounded")
	})

	t.Run("rambling verdict is inconclusive", func(t *testing.T) {
		gen := mock.NewGenerator()
		gen.Response = "The answer appears to be partially supported."
		v := NewVerifier(gen, nil)

		result := v.Verify(context.Background(), answer, []string{timeoutContext})
		assert.False(t, result.Grounded)
	})
}

func TestLexicalOverlap(t *testing.T) {
	t.Run("identical text scores high", func(t *testing.T) {
		assert.Greater(t, lexicalOverlap(timeoutContext, []string{timeoutContext}), 0.95)
	})

	t.Run("unrelated text scores low", func(t *testing.T) {
		assert.Less(t, lexicalOverlap("penguins huddle in colonies", []string{timeoutContext}), 0.20)
	})

	t.Run("empty answer scores zero", func(t *testing.T) {
		assert.Zero(t, lexicalOverlap("", []string{timeoutContext}))
		assert.Zero(t, lexicalOverlap("the and of", []string{timeoutContext}))
	})

	t.Run("no contexts scores zero", func(t *testing.T) {
		assert.Zero(t, lexicalOverlap("some answer text", nil))
	})
}
