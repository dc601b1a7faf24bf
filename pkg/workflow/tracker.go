package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hireflow/hireflow/pkg/models"
	"github.com/hireflow/hireflow/pkg/persistence"
)

// ExecutionTracker records the lifecycle of node attempts. It owns the only
// write path for node executions: Start creates the attempt row, Complete
// freezes its result. Rows are never deleted; retries get fresh rows.
type ExecutionTracker struct {
	executions persistence.NodeExecutionRepository
	logger     *slog.Logger
}

// NewExecutionTracker creates a tracker over the given execution repository.
func NewExecutionTracker(executions persistence.NodeExecutionRepository, logger *slog.Logger) *ExecutionTracker {
	return &ExecutionTracker{
		executions: executions,
		logger:     logger.With("module", "execution_tracker"),
	}
}

// Start creates a pending execution for (candidateWorkflowID, nodeID). It
// fails with persistence.ErrDuplicateNodeExecution if a non-terminal attempt
// already exists for the pair.
func (t *ExecutionTracker) Start(ctx context.Context, candidateWorkflowID, nodeID string) (*models.NodeExecution, error) {
	live, err := t.executions.LiveByInstanceAndNode(ctx, candidateWorkflowID, nodeID)
	if err != nil && !persistence.IsNodeExecutionNotFound(err) {
		return nil, fmt.Errorf("failed to look up live execution: %w", err)
	}

	if live != nil {
		return nil, fmt.Errorf("node %s: %w", nodeID, persistence.ErrDuplicateNodeExecution)
	}

	now := time.Now().UTC()
	execution := &models.NodeExecution{
		ID:                  uuid.New().String(),
		CandidateWorkflowID: candidateWorkflowID,
		NodeID:              nodeID,
		Status:              models.ExecutionStatusPending,
		StartedAt:           &now,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if err := t.executions.Create(ctx, execution); err != nil {
		return nil, fmt.Errorf("failed to create node execution: %w", err)
	}

	t.logger.DebugContext(ctx, "Started node execution",
		"execution_id", execution.ID,
		"candidate_workflow_id", candidateWorkflowID,
		"node_id", nodeID,
	)

	return execution, nil
}

// Complete transitions an execution to its terminal status and freezes the
// result and execution data. It fails with ErrExecutionFinished if the
// execution is already terminal.
func (t *ExecutionTracker) Complete(
	ctx context.Context,
	executionID string,
	result models.ExecutionResult,
	executionData map[string]any,
) (*models.NodeExecution, error) {
	execution, err := t.executions.GetByID(ctx, executionID)
	if err != nil {
		return nil, err
	}

	if execution.Terminal() {
		return nil, fmt.Errorf("execution %s: %w", executionID, ErrExecutionFinished)
	}

	now := time.Now().UTC()
	execution.Status = terminalStatusFor(result)
	execution.Result = result
	execution.ExecutionData = executionData
	execution.FinishedAt = &now
	execution.UpdatedAt = now

	// The repository refuses writes against terminal rows, so a completion
	// racing past the check above still cannot overwrite a frozen result.
	if err := t.executions.Update(ctx, execution); err != nil {
		if persistence.IsNodeExecutionFinished(err) {
			return nil, fmt.Errorf("execution %s: %w", executionID, ErrExecutionFinished)
		}

		return nil, fmt.Errorf("failed to finalize node execution: %w", err)
	}

	t.logger.DebugContext(ctx, "Completed node execution",
		"execution_id", execution.ID,
		"node_id", execution.NodeID,
		"status", execution.Status,
		"result", execution.Result,
	)

	return execution, nil
}

// terminalStatusFor maps a reported result to the attempt's terminal status.
func terminalStatusFor(result models.ExecutionResult) models.ExecutionStatus {
	switch {
	case result == models.ExecutionResultSkipped:
		return models.ExecutionStatusSkipped
	case result.FailureResult():
		return models.ExecutionStatusFailed
	default:
		return models.ExecutionStatusCompleted
	}
}
