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


package verify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/evidentia/ragline/ai"
)

// ErrInconclusive reports that the model judge could not produce a usable
// verdict. Verify absorbs it and counts the answer as not grounded.
var ErrInconclusive = errors.New("grounding judgment inconclusive")

const (
	// groundedOverlapThreshold: answers reproducing this much of the cited
	// contexts' language are grounded without a model call.
	groundedOverlapThreshold = 0.60

	// ungroundedOverlapThreshold: answers sharing this little language with
	// the contexts are not grounded, also without a model call.
	ungroundedOverlapThreshold = 0.20

	// judgeTimeout bounds the slow-path model call. An inconclusive judge
	// is treated as not grounded, feeding the caller's bounded retry.
	judgeTimeout = 15 * time.Second
)

const judgeSystemPrompt = `You check whether an answer is supported by source passages.

Respond with exactly one word:
- "yes" if every factual claim in the answer is supported by the passages
- "no" if any claim is absent from or contradicted by the passages

No explanation, no punctuation, one word only.`

// Result is the outcome of a grounding check.
type Result struct {
	Grounded   bool
	Confidence float64
}

// Verifier checks whether a generated answer is grounded in its cited
// contexts. A cheap deterministic lexical check resolves clear cases; only
// ambiguous answers pay for a model judgment.
type Verifier struct {
	generator ai.Generator
	logger    *slog.Logger

	judgeCalls atomic.Int64
}

// NewVerifier creates a grounding verifier backed by the given generator.
func NewVerifier(generator ai.Generator, logger *slog.Logger) *Verifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Verifier{
		generator: generator,
		logger:    logger.With("component", "verifier"),
	}
}

// Verify reports whether the answer is grounded in the contexts.
// High lexical overlap is grounded, very low overlap is not, and the band
// between goes to the model judge. A judge failure is inconclusive and
// counts as not grounded rather than erroring.
func (v *Verifier) Verify(ctx context.Context, answer string, contexts []string) Result {
	overlap := lexicalOverlap(answer, contexts)

	switch {
	case overlap >= groundedOverlapThreshold:
		v.logger.Debug("fast path grounded", "overlap", overlap)
		return Result{Grounded: true, Confidence: overlap}
	case overlap <= ungroundedOverlapThreshold:
		v.logger.Debug("fast path not grounded", "overlap", overlap)
		return Result{Grounded: false, Confidence: 1 - overlap}
	}

	result, err := v.judge(ctx, answer, contexts, overlap)
	if err != nil {
		v.logger.Warn("judge inconclusive, treating as not grounded", "err", err)
		return Result{Grounded: false, Confidence: overlap}
	}
	return result
}

// JudgeCalls returns how many times the slow path was taken.
func (v *Verifier) JudgeCalls() int64 {
	return v.judgeCalls.Load()
}

// judge asks the model for a constrained yes/no support verdict.
func (v *Verifier) judge(ctx context.Context, answer string, contexts []string, overlap float64) (Result, error) {
	v.judgeCalls.Add(1)

	ctx, cancel := context.WithTimeout(ctx, judgeTimeout)
	defer cancel()

	var b strings.Builder
	b.WriteString("Passages:\n")
	for i, c := range contexts {
		fmt.Fprintf(&b, "[%d] %s\n", i+1, c)
	}
	fmt.Fprintf(&b, "\nAnswer:\n%s", answer)

	verdict, err := v.generator.Complete(ctx, judgeSystemPrompt, b.String())
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrInconclusive, err)
	}

	verdict = strings.ToLower(strings.TrimSpace(verdict))
	verdict = strings.Trim(verdict, ".\"'")

	switch {
	case strings.HasPrefix(verdict, "yes"):
		v.logger.Debug("judge grounded", "overlap", overlap)
		return Result{Grounded: true, Confidence: overlap}, nil
	case strings.HasPrefix(verdict, "no"):
		v.logger.Debug("judge not grounded", "overlap", overlap)
		return Result{Grounded: false, Confidence: overlap}, nil
	}

	return Result{}, fmt.Errorf("%w: verdict %q", ErrInconclusive, verdict)
}
