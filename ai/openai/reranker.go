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
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/evidentia/ragline/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Reranker implements ai.RerankScorer by asking an LLM to rate each passage
// for relevance to the query in JSON mode.
type Reranker struct {
	client llms.Model
	logger *slog.Logger
}

// rating is the per-passage element of the model's JSON response.
type rating struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

// ratings is the wrapper structure for the model's JSON response.
type ratings struct {
	Ratings []rating `json:"ratings"`
}

// newReranker is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newReranker(config *ai.Config) (*Reranker, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.GenerationHost),
		openai.WithToken("none"),
		openai.WithModel(config.RerankModel),
	)
	if err != nil {
		return nil, err
	}

	return &Reranker{
		client: client,
		logger: slog.Default().With("component", "openai-reranker"),
	}, nil
}

// NewReranker creates a new reranker using the provided configuration.
//
// Returns ai.RerankScorer interface to enforce abstraction.
func NewReranker(config *ai.Config) (ai.RerankScorer, error) {
	return newReranker(config)
}

// ScorePassages returns one relevance score in [0,1] per passage, in input
// order. Malformed model output is repaired once; if the response still
// fails to parse, an error is returned and the caller falls back to its
// pre-rerank ordering.
func (r *Reranker) ScorePassages(ctx context.Context, query string, passages []string) ([]float64, error) {
	if len(passages) == 0 {
		return nil, nil
	}

	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(rerankSystemPrompt)},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(buildRerankPrompt(query, passages))},
		},
	}

	response, err := r.client.GenerateContent(ctx, content,
		llms.WithTemperature(0.0), llms.WithJSONMode())
	if err != nil {
		r.logger.Error("rerank generation failed", "err", err)
		return nil, err
	}
	if len(response.Choices) == 0 {
		return nil, fmt.Errorf("rerank: model returned no choices")
	}

	responseText := strings.TrimSpace(response.Choices[0].Content)
	responseText = strings.TrimPrefix(responseText, "```json")
	responseText = strings.TrimPrefix(responseText, "```")
	responseText = strings.TrimSuffix(responseText, "```")
	responseText = repairJSON(strings.TrimSpace(responseText))

	var result ratings
	if err := json.Unmarshal([]byte(responseText), &result); err != nil {
		r.logger.Warn("error parsing rerank response", "response", responseText, "err", err)
		return nil, fmt.Errorf("rerank: parse response: %w", err)
	}

	// A partially rated response must not pass: an unrated passage would
	// keep score 0 and sink below passages the model did bother to rate.
	scores := make([]float64, len(passages))
	rated := make([]bool, len(passages))
	for _, rt := range result.Ratings {
		if rt.Index < 0 || rt.Index >= len(passages) {
			continue
		}
		scores[rt.Index] = clamp01(rt.Score)
		rated[rt.Index] = true
	}
	for i, ok := range rated {
		if !ok {
			return nil, fmt.Errorf("rerank: response left passage %d unrated", i)
		}
	}

	r.logger.Debug("passages scored", "passages", len(passages))
	return scores, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
