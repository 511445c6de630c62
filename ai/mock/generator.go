package mock

import (
	"context"
	"strings"

	"github.com/evidentia/ragline/ai"
)

// Generator is a test double for ai.Generator.
// It allows custom behavior injection via function fields.
type Generator struct {
	// StreamFunc is called by Stream if set.
	// If nil, the default behavior streams Response word by word.
	StreamFunc func(ctx context.Context, system, prompt string, onToken ai.TokenFunc) (string, error)

	// CompleteFunc is called by Complete if set.
	// If nil, Complete returns Response verbatim.
	CompleteFunc func(ctx context.Context, system, prompt string) (string, error)

	// Response is the canned answer used by the default behaviors.
	Response string

	// Prompts records every prompt passed to Stream or Complete,
	// for assertions on what the code under test actually asked.
	Prompts []string

	callCount int
}

// NewGenerator creates a mock generator with a generic canned response.
// Note: returns concrete type to allow test assertions.
func NewGenerator() *Generator {
	return &Generator{Response: "mock response"}
}

// Stream returns the canned response, emitting it token by token when
// onToken is set.
func (m *Generator) Stream(ctx context.Context, system, prompt string, onToken ai.TokenFunc) (string, error) {
	m.callCount++
	m.Prompts = append(m.Prompts, prompt)

	if m.StreamFunc != nil {
		return m.StreamFunc(ctx, system, prompt, onToken)
	}

	if onToken != nil {
		for i, word := range strings.Fields(m.Response) {
			if i > 0 {
				onToken(" ")
			}
			onToken(word)
		}
	}
	return m.Response, nil
}

// Complete returns the canned response.
func (m *Generator) Complete(ctx context.Context, system, prompt string) (string, error) {
	m.callCount++
	m.Prompts = append(m.Prompts, prompt)

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, system, prompt)
	}
	return m.Response, nil
}

// CallCount returns the number of times any method was called.
func (m *Generator) CallCount() int {
	return m.callCount
}

// Reset clears the call count, recorded prompts, and injected behavior.
func (m *Generator) Reset() {
	m.callCount = 0
	m.Prompts = nil
	m.StreamFunc = nil
	m.CompleteFunc = nil
}
