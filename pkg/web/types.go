// Package web provides HTTP request and response types for the recruitment
// workflow API.
package web

import "github.com/hireflow/hireflow/pkg/models"

// CreateWorkflowRequest represents the request body for creating a new workflow.
type CreateWorkflowRequest struct {
	Name        string  `json:"name"        validate:"required,min=3"`
	Description string  `json:"description"`
	CompanyID   string  `json:"company_id"  validate:"required"`
	PositionID  *string `json:"position_id,omitempty"`
	IsTemplate  bool    `json:"is_template"`
}

// CreateNodeRequest represents the request body for adding a node to a workflow.
type CreateNodeRequest struct {
	ID     string         `json:"id"     validate:"required,min=1"`
	Type   string         `json:"type"   validate:"required,oneof=interview todo assessment decision"`
	Name   string         `json:"name"   validate:"required,min=1"`
	Config map[string]any `json:"config"`
}

// CreateConnectionRequest represents the request body for adding a connection.
type CreateConnectionRequest struct {
	SourceNodeID  string                  `json:"source_node_id" validate:"required"`
	TargetNodeID  string                  `json:"target_node_id" validate:"required"`
	ConditionType string                  `json:"condition_type" validate:"required,oneof=success failure conditional always"`
	Condition     *models.ConditionConfig `json:"condition_config,omitempty"`
}

// GrantViewerRequest represents the request body for granting read access.
type GrantViewerRequest struct {
	UserID    string `json:"user_id"    validate:"required"`
	GrantedBy string `json:"granted_by"`
}

// StartCandidateRequest represents the request body for starting a candidate
// on a workflow.
type StartCandidateRequest struct {
	CandidateID string `json:"candidate_id" validate:"required"`
}

// ReportResultRequest represents the request body for reporting a node outcome.
type ReportResultRequest struct {
	Result        string         `json:"result"         validate:"required,oneof=pass fail pending_review approved rejected skipped completed failed"`
	ExecutionData map[string]any `json:"execution_data,omitempty"`
}
