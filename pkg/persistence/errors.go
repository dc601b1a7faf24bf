// Package persistence provides standardized error types for storage operations.
package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrWorkflowNotFound indicates a workflow was not found by the given identifier.
	ErrWorkflowNotFound = errors.New("workflow not found")

	// ErrCandidateWorkflowNotFound indicates a candidate workflow instance was not found.
	ErrCandidateWorkflowNotFound = errors.New("candidate workflow not found")

	// ErrNodeExecutionNotFound indicates a node execution was not found.
	ErrNodeExecutionNotFound = errors.New("node execution not found")

	// ErrStaleCandidateWorkflow indicates an optimistic-concurrency version
	// check failed: another writer advanced the instance first. Retryable.
	ErrStaleCandidateWorkflow = errors.New("candidate workflow was modified concurrently")

	// ErrDuplicateCandidateWorkflow indicates a live instance already exists
	// for the (workflow, candidate) pair.
	ErrDuplicateCandidateWorkflow = errors.New("candidate workflow already in progress")

	// ErrDuplicateNodeExecution indicates a live execution already exists for
	// the (instance, node) pair.
	ErrDuplicateNodeExecution = errors.New("node execution already active")

	// ErrNodeExecutionFinished indicates a write was refused because the stored
	// execution is already terminal. Terminal rows are frozen.
	ErrNodeExecutionFinished = errors.New("node execution already finalized")
)

// WorkflowError wraps workflow-related storage errors with operation context.
type WorkflowError struct {
	Op         string // Operation being performed (e.g. "GetByID", "Save", "Delete")
	WorkflowID string
	Err        error
}

func (e *WorkflowError) Error() string {
	return fmt.Sprintf("%s operation failed for workflow %s: %v", e.Op, e.WorkflowID, e.Err)
}

func (e *WorkflowError) Unwrap() error { return e.Err }

func (e *WorkflowError) Is(target error) bool { return errors.Is(e.Err, target) }

// NewWorkflowError creates a new workflow storage error with context.
func NewWorkflowError(op, workflowID string, err error) *WorkflowError {
	return &WorkflowError{Op: op, WorkflowID: workflowID, Err: err}
}

// InstanceError wraps candidate-workflow storage errors with operation context.
type InstanceError struct {
	Op                  string
	CandidateWorkflowID string
	Err                 error
}

func (e *InstanceError) Error() string {
	return fmt.Sprintf("%s operation failed for candidate workflow %s: %v", e.Op, e.CandidateWorkflowID, e.Err)
}

func (e *InstanceError) Unwrap() error { return e.Err }

func (e *InstanceError) Is(target error) bool { return errors.Is(e.Err, target) }

// NewInstanceError creates a new candidate-workflow storage error with context.
func NewInstanceError(op, candidateWorkflowID string, err error) *InstanceError {
	return &InstanceError{Op: op, CandidateWorkflowID: candidateWorkflowID, Err: err}
}

// ExecutionError wraps node-execution storage errors with operation context.
type ExecutionError struct {
	Op          string
	ExecutionID string
	Err         error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s operation failed for node execution %s: %v", e.Op, e.ExecutionID, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

func (e *ExecutionError) Is(target error) bool { return errors.Is(e.Err, target) }

// NewExecutionError creates a new node-execution storage error with context.
func NewExecutionError(op, executionID string, err error) *ExecutionError {
	return &ExecutionError{Op: op, ExecutionID: executionID, Err: err}
}

// IsWorkflowNotFound checks if an error indicates a workflow was not found.
func IsWorkflowNotFound(err error) bool {
	return errors.Is(err, ErrWorkflowNotFound)
}

// IsCandidateWorkflowNotFound checks if an error indicates a candidate workflow was not found.
func IsCandidateWorkflowNotFound(err error) bool {
	return errors.Is(err, ErrCandidateWorkflowNotFound)
}

// IsNodeExecutionNotFound checks if an error indicates a node execution was not found.
func IsNodeExecutionNotFound(err error) bool {
	return errors.Is(err, ErrNodeExecutionNotFound)
}

// IsStaleCandidateWorkflow checks if an error is a retryable optimistic-concurrency conflict.
func IsStaleCandidateWorkflow(err error) bool {
	return errors.Is(err, ErrStaleCandidateWorkflow)
}

// IsDuplicateCandidateWorkflow checks if an error indicates a live instance already exists.
func IsDuplicateCandidateWorkflow(err error) bool {
	return errors.Is(err, ErrDuplicateCandidateWorkflow)
}

// IsDuplicateNodeExecution checks if an error indicates a live execution already exists.
func IsDuplicateNodeExecution(err error) bool {
	return errors.Is(err, ErrDuplicateNodeExecution)
}

// IsNodeExecutionFinished checks if an error indicates a write against a frozen terminal execution.
func IsNodeExecutionFinished(err error) bool {
	return errors.Is(err, ErrNodeExecutionFinished)
}
