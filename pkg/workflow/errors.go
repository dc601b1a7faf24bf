package workflow

import "errors"

// Runtime sentinels surfaced by the tracker and orchestrator.
var (
	// ErrWorkflowNotActive is returned when starting a candidate against a
	// workflow that is not in the active state.
	ErrWorkflowNotActive = errors.New("workflow is not active")

	// ErrInstanceFinished is returned when a completion trigger arrives for a
	// candidate workflow that already reached a terminal state. This is an
	// ordering bug upstream, never silently dropped.
	ErrInstanceFinished = errors.New("candidate workflow already finished")

	// ErrExecutionFinished is returned when completing a node execution that
	// is already terminal. Results and execution data are frozen on first
	// completion.
	ErrExecutionFinished = errors.New("node execution already finished")
)

// IsInvalidStateError reports whether err indicates an operation against an
// entity in the wrong lifecycle state: a non-active workflow, a finished
// candidate workflow, or a finished execution.
func IsInvalidStateError(err error) bool {
	return errors.Is(err, ErrWorkflowNotActive) ||
		errors.Is(err, ErrInstanceFinished) ||
		errors.Is(err, ErrExecutionFinished)
}
