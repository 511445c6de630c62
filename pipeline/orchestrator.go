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


package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/evidentia/ragline/ai"
	"github.com/evidentia/ragline/core"
	"github.com/evidentia/ragline/intent"
	"github.com/evidentia/ragline/retrieval"
	"github.com/evidentia/ragline/storage"
	"github.com/evidentia/ragline/verify"
)

const (
	// generationTimeout bounds the primary generation call. Unlike every
	// other stage, a generation timeout surfaces to the caller: there is no
	// answer to degrade to.
	generationTimeout = 120 * time.Second

	// rewriteTimeout bounds the optional query rewrite pass.
	rewriteTimeout = 10 * time.Second

	// bypassRerankThreshold: simple queries whose top rerank score clears
	// this skip verification entirely.
	bypassRerankThreshold = 0.90
)

// Orchestrator composes classification, retrieval, generation, and
// verification into one state machine per incoming message. Independent
// sessions run fully concurrently; all per-request state lives on the
// stack of Process.
type Orchestrator struct {
	classifier    *intent.Classifier
	router        *retrieval.Router
	retriever     *retrieval.Retriever
	expander      *retrieval.Expander
	reranker      *retrieval.Reranker
	verifier      *verify.Verifier
	generator     ai.Generator
	conversations storage.ConversationRepository
	logger        *slog.Logger
}

// NewOrchestrator wires the pipeline stages together.
func NewOrchestrator(
	classifier *intent.Classifier,
	router *retrieval.Router,
	retriever *retrieval.Retriever,
	expander *retrieval.Expander,
	reranker *retrieval.Reranker,
	verifier *verify.Verifier,
	generator ai.Generator,
	conversations storage.ConversationRepository,
	logger *slog.Logger,
) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		classifier:    classifier,
		router:        router,
		retriever:     retriever,
		expander:      expander,
		reranker:      reranker,
		verifier:      verifier,
		generator:     generator,
		conversations: conversations,
		logger:        logger.With("component", "orchestrator"),
	}
}

// Process runs one message through the pipeline and returns the assistant
// message. Events stream to sink as processing advances; sink may be nil.
// The only terminal error is a generation failure (no answer content was
// produced); every other stage failure degrades per its fallback policy.
func (o *Orchestrator) Process(ctx context.Context, session, collection, text string, sink EventSink) (*core.Message, error) {
	if sink == nil {
		sink = NopSink{}
	}
	start := time.Now()
	m := newMachine()

	prior, err := o.conversations.LastAssistantMessage(ctx, session)
	hasHistory := err == nil

	resolved := o.classifier.Classify(ctx, text, hasHistory)
	o.step(m, StateClassified)
	o.logger.Debug("message classified", "session", session, "intent", resolved)

	var reply *core.Message
	switch {
	case resolved.IsInstant():
		o.step(m, StateInstantReply)
		reply = o.instantReply(resolved, sink)
	case resolved.IsContextual():
		o.step(m, StateContextExpand)
		reply, err = o.contextReply(ctx, resolved, text, prior, sink)
	default:
		reply, err = o.answer(ctx, m, collection, text, sink)
	}
	if err != nil {
		return nil, err
	}

	reply.Elapsed = time.Since(start)
	o.step(m, StateDone)
	sink.Phase(PhaseComplete)
	sink.Done(reply.Grounded != core.GroundingUnsupported, reply.Elapsed)

	o.remember(ctx, session, text, reply)
	return reply, nil
}

// instantReply emits a canned response with no model call.
func (o *Orchestrator) instantReply(resolved core.Intent, sink EventSink) *core.Message {
	reply := cannedReplies[resolved]
	sink.Token(reply)
	return &core.Message{
		Role:      core.RoleAssistant,
		Text:      reply,
		Timestamp: time.Now().UTC(),
	}
}

// contextReply answers followup/simplify/deepen from the prior assistant
// message. Citations carry over unchanged: the source material is the same,
// only the treatment differs, so no retrieval and no new grounding check.
func (o *Orchestrator) contextReply(ctx context.Context, resolved core.Intent, text string, prior *core.Message, sink EventSink) (*core.Message, error) {
	sink.Phase(PhaseGenerating)

	genCtx, cancel := context.WithTimeout(ctx, generationTimeout)
	defer cancel()

	system := fmt.Sprintf(contextSystemPrompt, contextInstructions[resolved])
	answer, err := o.generator.Stream(genCtx, system, buildContextPrompt(text, prior.Text), sink.Token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	return &core.Message{
		Role:      core.RoleAssistant,
		Text:      answer,
		Timestamp: time.Now().UTC(),
		Citations: prior.Citations,
		Grounded:  prior.Grounded,
	}, nil
}

// answer is the full retrieval path: route, retrieve, expand, rerank,
// generate, verify.
func (o *Orchestrator) answer(ctx context.Context, m *machine, collection, text string, sink EventSink) (*core.Message, error) {
	sink.Phase(PhaseSearching)

	plan := o.router.Route(text, core.IntentQuestion)
	o.step(m, StateRouted)

	query := text
	if plan.Rewrite {
		rwCtx, cancel := context.WithTimeout(ctx, rewriteTimeout)
		query = o.router.Rewrite(rwCtx, text)
		cancel()
	}

	fused, err := o.retriever.Retrieve(ctx, query, collection)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, retrieval.ErrNoCandidates) {
			o.logger.Debug("no retrieval candidates", "collection", collection)
		} else {
			o.logger.Warn("retrieval degraded to empty result", "err", err)
		}
		fused = nil
	}
	o.step(m, StateRetrieved)

	candidates, err := o.expander.Expand(ctx, fused)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		o.logger.Warn("parent expansion degraded to empty result", "err", err)
		candidates = nil
	}
	o.step(m, StateExpanded)

	ranked := o.reranker.Rerank(ctx, query, candidates, plan.K)
	o.step(m, StateReranked)

	var citations []core.Citation
	var contexts []string
	if len(ranked) > 0 {
		citations = make([]core.Citation, len(ranked))
		contexts = make([]string, len(ranked))
		for i := range ranked {
			citations[i] = ranked[i].Citation()
			contexts[i] = ranked[i].Parent.Text
		}
		sink.Phase(PhaseFoundSources)
		sink.Sources(citations)
	}

	sink.Phase(PhaseGenerating)
	answer, err := o.generate(ctx, answerSystemPrompt, text, contexts, sink)
	if err != nil {
		return nil, err
	}
	o.step(m, StateGenerated)

	grounding := o.verifyAnswer(ctx, plan, ranked, text, &answer, contexts, sink)
	o.step(m, StateVerified)

	return &core.Message{
		Role:      core.RoleAssistant,
		Text:      answer,
		Timestamp: time.Now().UTC(),
		Citations: citations,
		Grounded:  grounding,
	}, nil
}

// generate streams one answer from the model. This is the only stage whose
// failure is terminal for the request.
func (o *Orchestrator) generate(ctx context.Context, system, question string, contexts []string, sink EventSink) (string, error) {
	genCtx, cancel := context.WithTimeout(ctx, generationTimeout)
	defer cancel()

	if len(contexts) == 0 {
		answer, err := o.generator.Stream(genCtx, noContextSystemPrompt, question, sink.Token)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrGeneration, err)
		}
		return answer, nil
	}

	answer, err := o.generator.Stream(genCtx, system, buildAnswerPrompt(question, contexts), sink.Token)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	return answer, nil
}

// verifyAnswer applies the bypass and bounded-retry rules and returns the
// final grounding flag. On a failed check it regenerates once under the
// strict prompt, replacing *answer; the retried result is accepted
// regardless of its own verification outcome.
func (o *Orchestrator) verifyAnswer(ctx context.Context, plan core.RetrievalPlan, ranked []core.RankedCandidate, question string, answer *string, contexts []string, sink EventSink) core.Grounding {
	if len(contexts) == 0 {
		// Nothing was cited, so there is nothing to verify against.
		return core.GroundingUnknown
	}

	if plan.Complexity == core.ComplexitySimple && ranked[0].RerankScore >= bypassRerankThreshold {
		o.logger.Debug("verification bypassed", "rerank_score", ranked[0].RerankScore)
		return core.GroundingSupported
	}

	result := o.verifier.Verify(ctx, *answer, contexts)
	if result.Grounded {
		return core.GroundingSupported
	}

	o.logger.Debug("answer not grounded, retrying with strict prompt")
	retried, err := o.generate(ctx, strictAnswerSystemPrompt, question, contexts, sink)
	if err != nil {
		// The first answer exists; a failed retry degrades to it.
		o.logger.Warn("strict retry failed, keeping first answer", "err", err)
		return core.GroundingUnsupported
	}
	*answer = retried

	if o.verifier.Verify(ctx, retried, contexts).Grounded {
		return core.GroundingSupported
	}
	return core.GroundingUnsupported
}

// step advances the state machine. The transition table covers every path
// through Process, so a failure here is a programming error; it is logged
// and the pipeline continues rather than dropping the request.
func (o *Orchestrator) step(m *machine, to State) {
	if err := m.advance(to); err != nil {
		o.logger.Error("state machine violation", "err", err)
	}
}

// remember appends the exchange to conversation memory. Memory failures are
// logged, never surfaced: the answer was already produced.
func (o *Orchestrator) remember(ctx context.Context, session, question string, reply *core.Message) {
	user := &core.Message{
		Role:      core.RoleUser,
		Text:      question,
		Timestamp: time.Now().UTC(),
	}
	if err := o.conversations.AppendMessages(ctx, session, user, reply); err != nil {
		o.logger.Warn("failed to persist conversation turn", "session", session, "err", err)
	}
}
