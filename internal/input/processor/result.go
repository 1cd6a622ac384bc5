package processor

import (
	"fmt"

	"github.com/dshills/chordpack/internal/input/key"
	"github.com/dshills/chordpack/internal/input/keymap"
)

// Outcome says what Process did with an event.
type Outcome int

const (
	// Propagate means no active map wanted the keystroke; the caller should
	// hand the event to its default handler.
	Propagate Outcome = iota
	// Pending means the keystroke was consumed and more are expected.
	Pending
	// Dispatched means an action ran.
	Dispatched
	// Undefined means a multi-keystroke sequence matched nothing.
	Undefined
	// Aborted means the abort key cancelled the current sequence.
	Aborted
	// Quoted means the event was delivered to a GetNextKeystroke callback.
	Quoted
	// Described means a sequence was reported to a ReportNext callback
	// instead of dispatched.
	Described
)

var outcomeNames = [...]string{
	Propagate:  "propagate",
	Pending:    "pending",
	Dispatched: "dispatched",
	Undefined:  "undefined",
	Aborted:    "aborted",
	Quoted:     "quoted",
	Described:  "described",
}

func (o Outcome) String() string {
	if o >= 0 && int(o) < len(outcomeNames) {
		return outcomeNames[o]
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// State is the processor's position in the resolution state machine.
type State int

const (
	// Idle means every cursor is at its root.
	Idle State = iota
	// PendingPrefix means at least one map is mid-sequence.
	PendingPrefix
	// PendingArgument means a numeric argument is being entered.
	PendingArgument
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case PendingPrefix:
		return "pending-prefix"
	case PendingArgument:
		return "pending-argument"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// UnknownSequenceError reports a sequence no active map defines. It is
// returned in Result.Err, never as a failure of Process itself.
type UnknownSequenceError struct {
	Keys key.Sequence
	Text string
}

func (e *UnknownSequenceError) Error() string {
	return e.Text + " not defined."
}

// Result describes the handling of one event.
type Result struct {
	Outcome Outcome

	// Keys is the sequence the outcome refers to: the sequence so far
	// while pending, the complete sequence once resolved.
	Keys key.Sequence

	// Action is the dispatched or described action, if any.
	Action keymap.Action

	// Count is the numeric argument passed to Action.
	Count int

	// Err is set for Undefined outcomes.
	Err error
}
