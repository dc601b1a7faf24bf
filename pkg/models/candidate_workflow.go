package models

import "time"

// CandidateWorkflowStatus is the state of one candidate's traversal of a workflow.
type CandidateWorkflowStatus string

const (
	CandidateWorkflowStatusNotStarted CandidateWorkflowStatus = "not_started"
	CandidateWorkflowStatusInProgress CandidateWorkflowStatus = "in_progress"
	CandidateWorkflowStatusCompleted  CandidateWorkflowStatus = "completed"
	CandidateWorkflowStatusFailed     CandidateWorkflowStatus = "failed"
	CandidateWorkflowStatusWithdrawn  CandidateWorkflowStatus = "withdrawn"
	CandidateWorkflowStatusOnHold     CandidateWorkflowStatus = "on_hold"
)

// FinalResult is the overall outcome recorded once a candidate workflow
// reaches a terminal state.
type FinalResult string

const (
	FinalResultHired     FinalResult = "hired"
	FinalResultRejected  FinalResult = "rejected"
	FinalResultWithdrawn FinalResult = "withdrawn"
	FinalResultFailed    FinalResult = "failed"
	FinalResultOnHold    FinalResult = "on_hold"
)

// CandidateWorkflow is one candidate's live traversal instance of a workflow.
// At most one instance per (candidate, workflow) pair may be in progress.
//
// LockVersion implements optimistic concurrency: every committed advance of
// the instance increments it, and a stale writer loses.
type CandidateWorkflow struct {
	ID            string                  `json:"id"`
	WorkflowID    string                  `json:"workflow_id"  validate:"required"`
	CandidateID   string                  `json:"candidate_id" validate:"required"`
	Status        CandidateWorkflowStatus `json:"status"`
	FinalResult   *FinalResult            `json:"final_result,omitempty"`
	CurrentNodeID *string                 `json:"current_node_id,omitempty"`
	HoldReason    string                  `json:"hold_reason,omitempty"`
	LockVersion   int64                   `json:"lock_version"`
	StartedAt     *time.Time              `json:"started_at,omitempty"`
	FinishedAt    *time.Time              `json:"finished_at,omitempty"`
	CreatedAt     time.Time               `json:"created_at"`
	UpdatedAt     time.Time               `json:"updated_at"`
}

// Terminal reports whether the instance has reached a final state.
func (cw *CandidateWorkflow) Terminal() bool {
	switch cw.Status {
	case CandidateWorkflowStatusCompleted,
		CandidateWorkflowStatusFailed,
		CandidateWorkflowStatusWithdrawn:
		return true
	default:
		return false
	}
}

// Live reports whether the instance still counts against the one-in-progress
// uniqueness invariant.
func (cw *CandidateWorkflow) Live() bool {
	return cw.Status == CandidateWorkflowStatusNotStarted ||
		cw.Status == CandidateWorkflowStatusInProgress
}
