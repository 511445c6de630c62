package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// Chunk and parent IDs are content-addressed so that re-ingesting the same
// document is idempotent.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// Identical content always produces the identical ID.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Role identifies the author of a conversation message.
type Role int

const (
	// RoleUser represents the human asking questions.
	RoleUser Role = iota + 1
	// RoleAssistant represents generated answers.
	RoleAssistant
)

// Intent is the classified purpose of an incoming message. It decides which
// path a message takes through the answer pipeline.
type Intent string

const (
	IntentGreeting  Intent = "greeting"
	IntentGratitude Intent = "gratitude"
	IntentGarbage   Intent = "garbage"
	IntentFollowup  Intent = "followup"
	IntentSimplify  Intent = "simplify"
	IntentDeepen    Intent = "deepen"
	IntentQuestion  Intent = "question"
)

// ContextualIntents are the intents answered from conversation memory
// alone. They require a prior assistant answer in the session.
var ContextualIntents = []Intent{IntentFollowup, IntentSimplify, IntentDeepen}

// IsContextual reports whether the intent is answered from the prior
// assistant message instead of retrieval.
func (i Intent) IsContextual() bool {
	for _, c := range ContextualIntents {
		if i == c {
			return true
		}
	}
	return false
}

// IsInstant reports whether the intent gets a canned reply with no model call.
func (i Intent) IsInstant() bool {
	return i == IntentGreeting || i == IntentGratitude || i == IntentGarbage
}

// Grounding records the outcome of answer verification.
type Grounding int

const (
	// GroundingUnknown means no verification applied to the message.
	GroundingUnknown Grounding = iota
	// GroundingSupported means the answer was verified against its sources.
	GroundingSupported
	// GroundingUnsupported means verification failed; the answer is returned
	// with the flag attached rather than withheld.
	GroundingUnsupported
)

// Message is a single conversation entry. Messages are immutable once
// created and are only ever appended to a session's conversation.
type Message struct {
	Role      Role
	Text      string
	Timestamp time.Time
	Citations []Citation
	Grounded  Grounding
	Elapsed   time.Duration // end-to-end pipeline time, assistant messages only
}

// Citation points an answer at the source material it was generated from.
type Citation struct {
	Document string
	Page     int
	Score    float64
	Preview  string
}

// Chunk is a small indexed text unit. Chunks carry the embedding vector and
// a reference to the larger parent span they were cut from. Many chunks
// share one parent. Chunks are never mutated after ingestion.
type Chunk struct {
	Id         ID
	ParentId   ID
	Collection string
	Document   string
	Page       int
	Text       string
	Vector     []float32
}

// ParentContext is the larger enclosing span returned to generation.
// Small chunks buy retrieval precision; parents buy coherent context.
type ParentContext struct {
	Id         ID
	Collection string
	Document   string
	Page       int
	Text       string
}

// SourceIndex identifies which index produced a search hit.
type SourceIndex int

const (
	// SourceVector marks hits from semantic nearest-neighbor search.
	SourceVector SourceIndex = iota + 1
	// SourceKeyword marks hits from the persisted term-frequency index.
	SourceKeyword
)

// SearchHit is a single per-index retrieval result. Hits are transient per
// query and never persisted.
type SearchHit struct {
	ChunkId ID
	Score   float64
	Source  SourceIndex
}

// FusedResult is a chunk-level result after reciprocal rank fusion.
// A chunk matched by both indexes appears once with accumulated score and
// both constituent hits retained.
type FusedResult struct {
	ChunkId  ID
	ParentId ID
	Score    float64
	Hits     []SearchHit
}

// RankedCandidate is a parent context annotated with its fused score and,
// after reranking, its relevance score. RerankScore ordering is the final
// relevance order.
type RankedCandidate struct {
	Parent      *ParentContext
	FusedScore  float64
	RerankScore float64
}

const previewLength = 160

// Citation derives the citation attached to the final assistant message.
func (c *RankedCandidate) Citation() Citation {
	preview := c.Parent.Text
	if len(preview) > previewLength {
		preview = preview[:previewLength]
	}
	return Citation{
		Document: c.Parent.Document,
		Page:     c.Parent.Page,
		Score:    c.RerankScore,
		Preview:  preview,
	}
}

// Complexity classifies a query for adaptive resource allocation.
type Complexity int

const (
	// ComplexitySimple is a single-concept short query.
	ComplexitySimple Complexity = iota + 1
	// ComplexityComplex is a multi-part or comparative query.
	ComplexityComplex
)

// RetrievalPlan is the router's resource allocation for one question.
// K is the number of parent contexts delivered to generation, not the raw
// candidate pool size.
type RetrievalPlan struct {
	K          int
	Rewrite    bool
	Complexity Complexity
}
