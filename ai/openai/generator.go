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


package openai

import (
	"context"
	"errors"
	"log/slog"

	"github.com/evidentia/ragline/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Generator implements ai.Generator using OpenAI-compatible chat APIs.
type Generator struct {
	client      llms.Model
	temperature float64
	logger      *slog.Logger
}

// newGenerator is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newGenerator(config *ai.Config) (*Generator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.GenerationHost),
		openai.WithToken("none"),
		openai.WithModel(config.GenerationModel),
	)
	if err != nil {
		return nil, err
	}

	return &Generator{
		client:      client,
		temperature: config.Temperature,
		logger:      slog.Default().With("component", "openai-generator"),
	}, nil
}

// NewGenerator creates a new generator using the provided configuration.
//
// Returns ai.Generator interface to enforce abstraction.
func NewGenerator(config *ai.Config) (ai.Generator, error) {
	return newGenerator(config)
}

// Stream generates a response, invoking onToken for each token as it
// arrives, and returns the complete text.
func (g *Generator) Stream(ctx context.Context, system, prompt string, onToken ai.TokenFunc) (string, error) {
	g.logger.Debug("streaming generation", "prompt_length", len(prompt))

	opts := []llms.CallOption{llms.WithTemperature(g.temperature)}
	if onToken != nil {
		opts = append(opts, llms.WithStreamingFunc(func(_ context.Context, chunk []byte) error {
			onToken(string(chunk))
			return nil
		}))
	}

	response, err := g.client.GenerateContent(ctx, chatContent(system, prompt), opts...)
	if err != nil {
		g.logger.Error("generation failed", "err", err)
		return "", err
	}
	return firstChoice(response)
}

// Complete generates a response without streaming, at temperature 0.
// Used for internal calls whose output is parsed, never shown to a user.
func (g *Generator) Complete(ctx context.Context, system, prompt string) (string, error) {
	g.logger.Debug("completing generation", "prompt_length", len(prompt))

	response, err := g.client.GenerateContent(ctx, chatContent(system, prompt),
		llms.WithTemperature(0.0))
	if err != nil {
		g.logger.Error("completion failed", "err", err)
		return "", err
	}
	return firstChoice(response)
}

// chatContent builds a system+user message pair.
func chatContent(system, prompt string) []llms.MessageContent {
	content := make([]llms.MessageContent, 0, 2)
	if system != "" {
		content = append(content, llms.MessageContent{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(system)},
		})
	}
	return append(content, llms.MessageContent{
		Role:  llms.ChatMessageTypeHuman,
		Parts: []llms.ContentPart{llms.TextPart(prompt)},
	})
}

// firstChoice extracts the first choice's text from a response.
func firstChoice(response *llms.ContentResponse) (string, error) {
	if response == nil || len(response.Choices) == 0 {
		return "", errors.New("model returned no choices")
	}
	return response.Choices[0].Content, nil
}
