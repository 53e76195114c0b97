// Package asyncop tracks long-running RPC operations and runs them with a
// bounded number of workers.
package asyncop

import (
	"strings"

	"github.com/google/uuid"
)

// State is the lifecycle state of an operation.
type State int

// Operation states. An operation moves Pending -> Executing -> terminal, or
// Pending -> Cancelled directly.
const (
	Pending State = iota
	Executing
	Success
	Failed
	Cancelled
)

var allStates = []State{Pending, Executing, Success, Failed, Cancelled}

// String returns the RPC name of the state.
func (s State) String() string {
	switch s {
	case Pending:
		return "queued"
	case Executing:
		return "executing"
	case Success:
		return "success"
	case Failed:
		return "failed"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether no further transition is allowed.
func (s State) IsTerminal() bool {
	return s == Success || s == Failed || s == Cancelled
}

// ParseState maps a status filter onto a state. Matching ignores case and
// surrounding space. ok is false for names that match no state.
func ParseState(s string) (state State, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "queued":
		return Pending, true
	case "executing":
		return Executing, true
	case "success":
		return Success, true
	case "failed":
		return Failed, true
	case "cancelled":
		return Cancelled, true
	}
	return 0, false
}

// ID identifies an operation.
type ID string

// idPrefix is prepended to every operation id.
const idPrefix = "opid-"

// NewID returns a fresh operation id.
func NewID() ID {
	return ID(idPrefix + uuid.NewString())
}
