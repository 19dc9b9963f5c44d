package pipeline

import (
	"errors"
	"fmt"
)

// Error kinds. A *RunError matches exactly one of them with errors.Is.
var (
	// ErrAllocation: sizing failed or the output region is too small.
	ErrAllocation = errors.New("allocation failure")
	// ErrPeerUnresponsive: a barrier wait did not complete, because the
	// peer hung up or the liveness timeout elapsed.
	ErrPeerUnresponsive = errors.New("peer unresponsive")
	// ErrSizingMismatch: the producer emitted a different number of bytes
	// than the sizing prepass planned.
	ErrSizingMismatch = errors.New("sizing mismatch")
	// ErrAborted: the caller's context ended the run.
	ErrAborted = errors.New("run aborted")
)

// RunError describes why a run failed. The output region is undefined
// after any RunError.
type RunError struct {
	Kind  error
	Side  Side
	State State
	Err   error
}

func (e *RunError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("pipeline: %v: %v in %v", e.Kind, e.Side, e.State)
	}
	return fmt.Sprintf("pipeline: %v: %v in %v: %v", e.Kind, e.Side, e.State, e.Err)
}

func (e *RunError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// outcome is the label the run is recorded under.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrAllocation):
		return "allocation_failure"
	case errors.Is(err, ErrPeerUnresponsive):
		return "peer_unresponsive"
	case errors.Is(err, ErrSizingMismatch):
		return "sizing_mismatch"
	case errors.Is(err, ErrAborted):
		return "aborted"
	default:
		return "error"
	}
}
