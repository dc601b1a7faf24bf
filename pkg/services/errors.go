// Package services provides the management surface over workflow definitions:
// CRUD, structural edits, lifecycle transitions and viewer grants.
package services

import (
	"errors"
	"fmt"

	"github.com/hireflow/hireflow/pkg/persistence"
	"github.com/hireflow/hireflow/pkg/workflow"
)

// Business logic errors. These indicate client errors (4xx responses).
var (
	// Validation errors (400 Bad Request).
	ErrInvalidRequest       = errors.New("invalid request")
	ErrWorkflowNil          = errors.New("workflow cannot be nil")
	ErrWorkflowNameRequired = errors.New("workflow name is required")
	ErrCompanyRequired      = errors.New("owning company is required")
	ErrInvalidStatus        = errors.New("invalid workflow status")
	ErrNodeNotFound         = errors.New("node not found in workflow")
	ErrConnectionNotFound   = errors.New("connection not found in workflow")

	// Business logic conflicts (409 Conflict).
	ErrWorkflowImmutable         = errors.New("workflow is active and structurally frozen")
	ErrInvalidTransition         = errors.New("invalid workflow lifecycle transition")
	ErrWorkflowHasLiveCandidates = errors.New("workflow still has live candidate instances")
)

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
	Code    string // Error code for API responses
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }

func (e *ServiceError) Is(target error) bool { return errors.Is(e.Err, target) }

// NewValidationError creates a new validation error with context.
func NewValidationError(op, code, message string, err error) *ServiceError {
	return &ServiceError{Op: op, Code: code, Message: message, Err: err}
}

// IsValidationError checks if an error is a validation error that should
// return HTTP 400. Graph validation failures surfaced at activation time
// count as validation errors.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrWorkflowNil) ||
		errors.Is(err, ErrWorkflowNameRequired) ||
		errors.Is(err, ErrCompanyRequired) ||
		errors.Is(err, ErrInvalidStatus) ||
		errors.Is(err, ErrNodeNotFound) ||
		errors.Is(err, ErrConnectionNotFound) ||
		workflow.IsGraphValidationError(err)
}

// IsConflictError checks if an error is a business logic conflict that should
// return HTTP 409.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrWorkflowHasLiveCandidates) ||
		persistence.IsDuplicateCandidateWorkflow(err) ||
		persistence.IsDuplicateNodeExecution(err) ||
		persistence.IsStaleCandidateWorkflow(err)
}

// IsImmutableWorkflowError checks for structural edits rejected on a frozen workflow.
func IsImmutableWorkflowError(err error) bool {
	return errors.Is(err, ErrWorkflowImmutable)
}
