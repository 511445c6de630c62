package main

import (
	"fmt"
	"os"
	"time"

	"github.com/evidentia/ragline/core"
	"github.com/evidentia/ragline/pipeline"
)

// consoleSink renders pipeline events for a terminal: progress and
// sources on stderr, answer tokens on stdout.
type consoleSink struct {
	quiet    bool
	streamed bool
}

func newConsoleSink(quiet bool) *consoleSink {
	return &consoleSink{quiet: quiet}
}

func (s *consoleSink) Phase(phase pipeline.Phase) {
	if s.quiet {
		return
	}
	switch phase {
	case pipeline.PhaseSearching:
		fmt.Fprintln(os.Stderr, "searching...")
	case pipeline.PhaseGenerating:
		fmt.Fprintln(os.Stderr, "generating...")
	}
}

func (s *consoleSink) Sources(citations []core.Citation) {
	if s.quiet {
		return
	}
	for _, c := range citations {
		fmt.Fprintf(os.Stderr, "  source: %s p.%d\n", c.Document, c.Page)
	}
}

func (s *consoleSink) Token(token string) {
	if s.quiet {
		return
	}
	fmt.Print(token)
	s.streamed = true
}

func (s *consoleSink) Done(grounded bool, elapsed time.Duration) {
	if s.quiet {
		return
	}
	if s.streamed {
		fmt.Println()
	}
	if !grounded {
		fmt.Fprintln(os.Stderr, "warning: answer could not be verified against the sources")
	}
	fmt.Fprintf(os.Stderr, "done in %s\n", elapsed.Round(time.Millisecond))
}
