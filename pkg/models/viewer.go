package models

import "time"

// ProcessViewer grants a user read access to a workflow. Viewers have no
// bearing on execution semantics.
type ProcessViewer struct {
	WorkflowID string    `json:"workflow_id" validate:"required"`
	UserID     string    `json:"user_id"     validate:"required"`
	GrantedBy  string    `json:"granted_by"`
	CreatedAt  time.Time `json:"created_at"`
}
