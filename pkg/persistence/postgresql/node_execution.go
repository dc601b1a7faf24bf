package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/hireflow/hireflow/pkg/models"
	"github.com/hireflow/hireflow/pkg/persistence"
)

// NodeExecutionRepository stores node attempt rows. The partial unique index
// on live rows backs the one-live-attempt-per-node invariant.
type NodeExecutionRepository struct {
	db *sql.DB
}

const nodeExecutionColumns = `
	id
  , candidate_workflow_id
  , node_id
  , status
  , result
  , execution_data
  , started_at
  , finished_at
  , created_at
  , updated_at
`

const terminalExecutionStatuses = `'completed', 'failed', 'skipped'`

func (r *NodeExecutionRepository) Create(ctx context.Context, execution *models.NodeExecution) error {
	now := time.Now().UTC()

	if execution.CreatedAt.IsZero() {
		execution.CreatedAt = now
	}

	execution.UpdatedAt = now

	dataJSON, err := json.Marshal(execution.ExecutionData)
	if err != nil {
		return persistence.NewExecutionError("Create", execution.ID, fmt.Errorf("failed to marshal execution data: %w", err))
	}

	query := `
		INSERT INTO node_executions (id, candidate_workflow_id, node_id, status, result,
			execution_data, started_at, finished_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8, $9, $10)
	`

	_, err = r.db.ExecContext(ctx, query,
		execution.ID,
		execution.CandidateWorkflowID,
		execution.NodeID,
		execution.Status,
		string(execution.Result),
		dataJSON,
		execution.StartedAt,
		execution.FinishedAt,
		execution.CreatedAt,
		execution.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return persistence.NewExecutionError("Create", execution.ID, persistence.ErrDuplicateNodeExecution)
		}

		return persistence.NewExecutionError("Create", execution.ID, fmt.Errorf("failed to insert node execution: %w", err))
	}

	return nil
}

func (r *NodeExecutionRepository) GetByID(ctx context.Context, id string) (*models.NodeExecution, error) {
	query := `SELECT ` + nodeExecutionColumns + ` FROM node_executions WHERE id = $1`

	execution, err := scanNodeExecution(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewExecutionError("GetByID", id, persistence.ErrNodeExecutionNotFound)
		}

		return nil, persistence.NewExecutionError("GetByID", id, err)
	}

	return execution, nil
}

func (r *NodeExecutionRepository) Update(ctx context.Context, execution *models.NodeExecution) error {
	execution.UpdatedAt = time.Now().UTC()

	dataJSON, err := json.Marshal(execution.ExecutionData)
	if err != nil {
		return persistence.NewExecutionError("Update", execution.ID, fmt.Errorf("failed to marshal execution data: %w", err))
	}

	// The status guard makes the write atomic with the terminal check: a
	// terminal row is frozen and stays untouched even when two completions
	// race past the tracker's read.
	query := `
		UPDATE node_executions SET
			status = $2,
			result = NULLIF($3, ''),
			execution_data = $4,
			started_at = $5,
			finished_at = $6,
			updated_at = $7
		WHERE id = $1 AND status NOT IN (` + terminalExecutionStatuses + `)
	`

	result, err := r.db.ExecContext(ctx, query,
		execution.ID,
		execution.Status,
		string(execution.Result),
		dataJSON,
		execution.StartedAt,
		execution.FinishedAt,
		execution.UpdatedAt,
	)
	if err != nil {
		return persistence.NewExecutionError("Update", execution.ID, fmt.Errorf("failed to update node execution: %w", err))
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewExecutionError("Update", execution.ID, fmt.Errorf("failed to get rows affected: %w", err))
	}

	if rowsAffected == 0 {
		var exists bool

		err := r.db.QueryRowContext(ctx, "SELECT EXISTS (SELECT 1 FROM node_executions WHERE id = $1)", execution.ID).Scan(&exists)
		if err != nil {
			return persistence.NewExecutionError("Update", execution.ID, fmt.Errorf("failed to check node execution: %w", err))
		}

		if exists {
			return persistence.NewExecutionError("Update", execution.ID, persistence.ErrNodeExecutionFinished)
		}

		return persistence.NewExecutionError("Update", execution.ID, persistence.ErrNodeExecutionNotFound)
	}

	return nil
}

func (r *NodeExecutionRepository) LiveByInstanceAndNode(ctx context.Context, candidateWorkflowID, nodeID string) (*models.NodeExecution, error) {
	query := `
		SELECT ` + nodeExecutionColumns + `
		FROM node_executions
		WHERE candidate_workflow_id = $1 AND node_id = $2 AND status NOT IN (` + terminalExecutionStatuses + `)
	`

	execution, err := scanNodeExecution(r.db.QueryRowContext(ctx, query, candidateWorkflowID, nodeID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewExecutionError("LiveByInstanceAndNode", "", persistence.ErrNodeExecutionNotFound)
		}

		return nil, persistence.NewExecutionError("LiveByInstanceAndNode", "", err)
	}

	return execution, nil
}

func (r *NodeExecutionRepository) TerminalExists(ctx context.Context, candidateWorkflowID, nodeID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM node_executions
			WHERE candidate_workflow_id = $1 AND node_id = $2 AND status IN (` + terminalExecutionStatuses + `)
		)
	`

	var exists bool

	err := r.db.QueryRowContext(ctx, query, candidateWorkflowID, nodeID).Scan(&exists)
	if err != nil {
		return false, persistence.NewExecutionError("TerminalExists", "", fmt.Errorf("failed to query terminal executions: %w", err))
	}

	return exists, nil
}

func (r *NodeExecutionRepository) ListByInstance(ctx context.Context, candidateWorkflowID string) ([]*models.NodeExecution, error) {
	query := `
		SELECT ` + nodeExecutionColumns + `
		FROM node_executions
		WHERE candidate_workflow_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.db.QueryContext(ctx, query, candidateWorkflowID)
	if err != nil {
		return nil, persistence.NewExecutionError("ListByInstance", "", fmt.Errorf("failed to query node executions: %w", err))
	}

	defer func() { _ = rows.Close() }()

	var executions []*models.NodeExecution

	for rows.Next() {
		execution, err := scanNodeExecution(rows)
		if err != nil {
			return nil, persistence.NewExecutionError("ListByInstance", "", fmt.Errorf("failed to scan node execution: %w", err))
		}

		executions = append(executions, execution)
	}

	if err := rows.Err(); err != nil {
		return nil, persistence.NewExecutionError("ListByInstance", "", fmt.Errorf("error iterating node executions: %w", err))
	}

	return executions, nil
}

func (r *NodeExecutionRepository) ListStale(ctx context.Context, startedBefore time.Time) ([]*models.NodeExecution, error) {
	query := `
		SELECT ` + nodeExecutionColumns + `
		FROM node_executions
		WHERE status NOT IN (` + terminalExecutionStatuses + `)
		  AND started_at IS NOT NULL
		  AND started_at < $1
		ORDER BY started_at, id
	`

	rows, err := r.db.QueryContext(ctx, query, startedBefore)
	if err != nil {
		return nil, persistence.NewExecutionError("ListStale", "", fmt.Errorf("failed to query stale executions: %w", err))
	}

	defer func() { _ = rows.Close() }()

	var executions []*models.NodeExecution

	for rows.Next() {
		execution, err := scanNodeExecution(rows)
		if err != nil {
			return nil, persistence.NewExecutionError("ListStale", "", fmt.Errorf("failed to scan node execution: %w", err))
		}

		executions = append(executions, execution)
	}

	if err := rows.Err(); err != nil {
		return nil, persistence.NewExecutionError("ListStale", "", fmt.Errorf("error iterating stale executions: %w", err))
	}

	return executions, nil
}

func scanNodeExecution(scanner interface{ Scan(dest ...any) error }) (*models.NodeExecution, error) {
	var (
		execution models.NodeExecution
		result    sql.NullString
		dataJSON  []byte
	)

	err := scanner.Scan(
		&execution.ID,
		&execution.CandidateWorkflowID,
		&execution.NodeID,
		&execution.Status,
		&result,
		&dataJSON,
		&execution.StartedAt,
		&execution.FinishedAt,
		&execution.CreatedAt,
		&execution.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if result.Valid {
		execution.Result = models.ExecutionResult(result.String)
	}

	if dataJSON != nil {
		if err := json.Unmarshal(dataJSON, &execution.ExecutionData); err != nil {
			return nil, fmt.Errorf("failed to unmarshal execution data: %w", err)
		}
	}

	return &execution, nil
}
