// Package models defines the core domain models for the recruitment workflow engine.
package models

import "time"

// WorkflowStatus represents the lifecycle state of a workflow definition.
type WorkflowStatus string

const (
	WorkflowStatusDraft    WorkflowStatus = "draft"    // Editable, not executable
	WorkflowStatusActive   WorkflowStatus = "active"   // Structurally frozen, executable
	WorkflowStatusArchived WorkflowStatus = "archived" // Retired, terminal
	WorkflowStatusInactive WorkflowStatus = "inactive" // Deactivated, editable again
)

// Workflow is a versioned recruitment process definition: a directed graph of
// nodes and conditional connections owned by a company.
type Workflow struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"        validate:"required,min=3"`
	Description string          `json:"description"`
	CompanyID   string          `json:"company_id"  validate:"required"`
	PositionID  *string         `json:"position_id,omitempty"`
	Status      WorkflowStatus  `json:"status"      validate:"required"`
	Version     int             `json:"version"`
	IsTemplate  bool            `json:"is_template"`
	Nodes       []*WorkflowNode `json:"nodes"`
	Connections []*Connection   `json:"connections"`
	ActivatedAt *time.Time      `json:"activated_at,omitempty"`
	ArchivedAt  *time.Time      `json:"archived_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	DeletedAt   *time.Time      `json:"deleted_at,omitempty"`
}

// Editable reports whether the workflow's structure (nodes and connections)
// may still be changed. Active and archived workflows are frozen.
func (w *Workflow) Editable() bool {
	return w.Status == WorkflowStatusDraft || w.Status == WorkflowStatusInactive
}

// NodeByID returns the node with the given ID, or nil.
func (w *Workflow) NodeByID(nodeID string) *WorkflowNode {
	for _, node := range w.Nodes {
		if node.ID == nodeID {
			return node
		}
	}

	return nil
}
