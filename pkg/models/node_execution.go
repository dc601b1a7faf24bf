package models

import "time"

// ExecutionStatus is the lifecycle state of one node attempt.
type ExecutionStatus string

const (
	ExecutionStatusPending       ExecutionStatus = "pending"
	ExecutionStatusScheduled     ExecutionStatus = "scheduled"
	ExecutionStatusInProgress    ExecutionStatus = "in_progress"
	ExecutionStatusAwaitingInput ExecutionStatus = "awaiting_input"
	ExecutionStatusCompleted     ExecutionStatus = "completed"
	ExecutionStatusFailed        ExecutionStatus = "failed"
	ExecutionStatusSkipped       ExecutionStatus = "skipped"
)

// ExecutionResult is the outcome reported for a concluded node attempt.
type ExecutionResult string

const (
	ExecutionResultPass          ExecutionResult = "pass"
	ExecutionResultFail          ExecutionResult = "fail"
	ExecutionResultPendingReview ExecutionResult = "pending_review"
	ExecutionResultApproved      ExecutionResult = "approved"
	ExecutionResultRejected      ExecutionResult = "rejected"
	ExecutionResultSkipped       ExecutionResult = "skipped"

	// ExecutionResultCompleted is accepted from callers that report plain
	// completion (for example a finished todo) rather than a pass/fail verdict.
	ExecutionResultCompleted ExecutionResult = "completed"
	// ExecutionResultFailed is the failure-side counterpart.
	ExecutionResultFailed ExecutionResult = "failed"
)

// ScoreKey is the execution_data key conditional edges read a numeric score from.
const ScoreKey = "score"

// NodeExecution is the record of one attempt at one node by one candidate
// workflow. Rows are never deleted; a retried node gets a fresh row.
type NodeExecution struct {
	ID                  string          `json:"id"`
	CandidateWorkflowID string          `json:"candidate_workflow_id" validate:"required"`
	NodeID              string          `json:"node_id"               validate:"required"`
	Status              ExecutionStatus `json:"status"`
	Result              ExecutionResult `json:"result,omitempty"`
	ExecutionData       map[string]any  `json:"execution_data,omitempty"`
	StartedAt           *time.Time      `json:"started_at,omitempty"`
	FinishedAt          *time.Time      `json:"finished_at,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// Terminal reports whether the attempt has concluded. A terminal execution's
// result and execution data are frozen.
func (e *NodeExecution) Terminal() bool {
	switch e.Status {
	case ExecutionStatusCompleted, ExecutionStatusFailed, ExecutionStatusSkipped:
		return true
	default:
		return false
	}
}

// Score extracts the numeric score from the execution data payload. JSON
// decoding yields float64; integer values are accepted for callers that
// construct the map in process.
func (e *NodeExecution) Score() (float64, bool) {
	return ScoreFromData(e.ExecutionData)
}

// ScoreFromData reads the score entry from an execution data payload.
func ScoreFromData(data map[string]any) (float64, bool) {
	if data == nil {
		return 0, false
	}

	switch v := data[ScoreKey].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// SuccessResult reports whether the result counts as a success outcome.
func (r ExecutionResult) SuccessResult() bool {
	return r == ExecutionResultPass || r == ExecutionResultCompleted || r == ExecutionResultApproved
}

// FailureResult reports whether the result counts as a failure outcome.
func (r ExecutionResult) FailureResult() bool {
	return r == ExecutionResultFail || r == ExecutionResultFailed || r == ExecutionResultRejected
}
