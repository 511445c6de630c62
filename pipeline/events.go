package pipeline

import (
	"time"

	"github.com/evidentia/ragline/core"
)

// Phase names the externally visible stages of request processing.
type Phase string

const (
	PhaseSearching    Phase = "searching"
	PhaseFoundSources Phase = "found_sources"
	PhaseGenerating   Phase = "generating"
	PhaseComplete     Phase = "complete"
)

// EventSink receives the ordered event sequence for one request.
//
// Ordering invariant: Sources is emitted at most once, after retrieval and
// before any Token event when the path involves retrieval; Done is always
// last and exactly once per request. Instant and context-handler paths emit
// Done with zero Sources calls.
//
// Implementations are called from the request's goroutine and need not be
// thread-safe across requests; each request gets its own sink.
type EventSink interface {
	// Phase announces entry into an externally visible stage.
	Phase(phase Phase)

	// Sources delivers the citations backing the upcoming answer.
	Sources(citations []core.Citation)

	// Token delivers one answer fragment as it is generated.
	Token(token string)

	// Done closes the request's event stream with the final grounding flag
	// and end-to-end processing time.
	Done(grounded bool, elapsed time.Duration)
}

// NopSink discards all events. Useful for callers that only want the
// returned Message.
type NopSink struct{}

func (NopSink) Phase(Phase)              {}
func (NopSink) Sources([]core.Citation)  {}
func (NopSink) Token(string)             {}
func (NopSink) Done(bool, time.Duration) {}
