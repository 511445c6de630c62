package pipeline

import "fmt"

// State is a stage of the answer pipeline's finite state machine.
type State int

const (
	StateStart State = iota
	StateClassified
	StateInstantReply
	StateContextExpand
	StateRouted
	StateRetrieved
	StateExpanded
	StateReranked
	StateGenerated
	StateVerified
	StateDone
)

var stateNames = map[State]string{
	StateStart:         "start",
	StateClassified:    "classified",
	StateInstantReply:  "instant_reply",
	StateContextExpand: "context_expand",
	StateRouted:        "routed",
	StateRetrieved:     "retrieved",
	StateExpanded:      "expanded",
	StateReranked:      "reranked",
	StateGenerated:     "generated",
	StateVerified:      "verified",
	StateDone:          "done",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// transitions is the exhaustive transition table. Every legal edge of the
// pipeline is listed; advancing along any other edge is a programming error
// caught at runtime.
var transitions = map[State][]State{
	StateStart:         {StateClassified},
	StateClassified:    {StateInstantReply, StateContextExpand, StateRouted},
	StateInstantReply:  {StateDone},
	StateContextExpand: {StateDone},
	StateRouted:        {StateRetrieved},
	StateRetrieved:     {StateExpanded},
	StateExpanded:      {StateReranked},
	StateReranked:      {StateGenerated},
	StateGenerated:     {StateVerified},
	StateVerified:      {StateDone},
	StateDone:          {},
}

// machine tracks one request's position in the state graph.
type machine struct {
	current State
}

func newMachine() *machine {
	return &machine{current: StateStart}
}

// advance moves to the next state, enforcing the transition table.
func (m *machine) advance(to State) error {
	for _, allowed := range transitions[m.current] {
		if allowed == to {
			m.current = to
			return nil
		}
	}
	return fmt.Errorf("illegal pipeline transition %s -> %s", m.current, to)
}
