package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/hireflow/hireflow/pkg/models"
	"github.com/hireflow/hireflow/pkg/persistence"
)

// CandidateWorkflowRepository stores candidate traversal instances. The
// partial unique index on live instances backs the one-traversal-per-candidate
// invariant; lock_version backs the optimistic concurrency check.
type CandidateWorkflowRepository struct {
	db *sql.DB
}

const uniqueViolation = "23505"

const candidateWorkflowColumns = `
	id
  , workflow_id
  , candidate_id
  , status
  , final_result
  , current_node_id
  , hold_reason
  , lock_version
  , started_at
  , finished_at
  , created_at
  , updated_at
`

func (r *CandidateWorkflowRepository) Create(ctx context.Context, instance *models.CandidateWorkflow) error {
	now := time.Now().UTC()

	if instance.CreatedAt.IsZero() {
		instance.CreatedAt = now
	}

	instance.UpdatedAt = now

	query := `
		INSERT INTO candidate_workflows (id, workflow_id, candidate_id, status, final_result,
			current_node_id, hold_reason, lock_version, started_at, finished_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.ExecContext(ctx, query,
		instance.ID,
		instance.WorkflowID,
		instance.CandidateID,
		instance.Status,
		instance.FinalResult,
		instance.CurrentNodeID,
		instance.HoldReason,
		instance.LockVersion,
		instance.StartedAt,
		instance.FinishedAt,
		instance.CreatedAt,
		instance.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return persistence.NewInstanceError("Create", instance.ID, persistence.ErrDuplicateCandidateWorkflow)
		}

		return persistence.NewInstanceError("Create", instance.ID, fmt.Errorf("failed to insert candidate workflow: %w", err))
	}

	return nil
}

func (r *CandidateWorkflowRepository) GetByID(ctx context.Context, id string) (*models.CandidateWorkflow, error) {
	query := `SELECT ` + candidateWorkflowColumns + ` FROM candidate_workflows WHERE id = $1`

	instance, err := scanCandidateWorkflow(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewInstanceError("GetByID", id, persistence.ErrCandidateWorkflowNotFound)
		}

		return nil, persistence.NewInstanceError("GetByID", id, err)
	}

	return instance, nil
}

func (r *CandidateWorkflowRepository) LiveByWorkflowAndCandidate(ctx context.Context, workflowID, candidateID string) (*models.CandidateWorkflow, error) {
	query := `
		SELECT ` + candidateWorkflowColumns + `
		FROM candidate_workflows
		WHERE workflow_id = $1 AND candidate_id = $2 AND status IN ('not_started', 'in_progress')
	`

	instance, err := scanCandidateWorkflow(r.db.QueryRowContext(ctx, query, workflowID, candidateID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewInstanceError("LiveByWorkflowAndCandidate", "", persistence.ErrCandidateWorkflowNotFound)
		}

		return nil, persistence.NewInstanceError("LiveByWorkflowAndCandidate", "", err)
	}

	return instance, nil
}

func (r *CandidateWorkflowRepository) ListByWorkflow(ctx context.Context, workflowID string) ([]*models.CandidateWorkflow, error) {
	query := `
		SELECT ` + candidateWorkflowColumns + `
		FROM candidate_workflows
		WHERE workflow_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.db.QueryContext(ctx, query, workflowID)
	if err != nil {
		return nil, persistence.NewInstanceError("ListByWorkflow", "", fmt.Errorf("failed to query candidate workflows: %w", err))
	}

	defer func() { _ = rows.Close() }()

	var instances []*models.CandidateWorkflow

	for rows.Next() {
		instance, err := scanCandidateWorkflow(rows)
		if err != nil {
			return nil, persistence.NewInstanceError("ListByWorkflow", "", fmt.Errorf("failed to scan candidate workflow: %w", err))
		}

		instances = append(instances, instance)
	}

	if err := rows.Err(); err != nil {
		return nil, persistence.NewInstanceError("ListByWorkflow", "", fmt.Errorf("error iterating candidate workflows: %w", err))
	}

	return instances, nil
}

func (r *CandidateWorkflowRepository) HasLiveByWorkflow(ctx context.Context, workflowID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM candidate_workflows
			WHERE workflow_id = $1 AND status IN ('not_started', 'in_progress')
		)
	`

	var exists bool

	err := r.db.QueryRowContext(ctx, query, workflowID).Scan(&exists)
	if err != nil {
		return false, persistence.NewInstanceError("HasLiveByWorkflow", "", fmt.Errorf("failed to query live candidate workflows: %w", err))
	}

	return exists, nil
}

// UpdateVersioned commits the instance iff the stored lock_version still
// matches, incrementing it atomically. Zero rows affected means another
// writer advanced the instance first.
func (r *CandidateWorkflowRepository) UpdateVersioned(ctx context.Context, instance *models.CandidateWorkflow) error {
	instance.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE candidate_workflows SET
			status = $3,
			final_result = $4,
			current_node_id = $5,
			hold_reason = $6,
			lock_version = lock_version + 1,
			started_at = $7,
			finished_at = $8,
			updated_at = $9
		WHERE id = $1 AND lock_version = $2
	`

	result, err := r.db.ExecContext(ctx, query,
		instance.ID,
		instance.LockVersion,
		instance.Status,
		instance.FinalResult,
		instance.CurrentNodeID,
		instance.HoldReason,
		instance.StartedAt,
		instance.FinishedAt,
		instance.UpdatedAt,
	)
	if err != nil {
		return persistence.NewInstanceError("UpdateVersioned", instance.ID, fmt.Errorf("failed to update candidate workflow: %w", err))
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewInstanceError("UpdateVersioned", instance.ID, fmt.Errorf("failed to get rows affected: %w", err))
	}

	if rowsAffected == 0 {
		return persistence.NewInstanceError("UpdateVersioned", instance.ID, persistence.ErrStaleCandidateWorkflow)
	}

	instance.LockVersion++

	return nil
}

func scanCandidateWorkflow(scanner interface{ Scan(dest ...any) error }) (*models.CandidateWorkflow, error) {
	var instance models.CandidateWorkflow

	err := scanner.Scan(
		&instance.ID,
		&instance.WorkflowID,
		&instance.CandidateID,
		&instance.Status,
		&instance.FinalResult,
		&instance.CurrentNodeID,
		&instance.HoldReason,
		&instance.LockVersion,
		&instance.StartedAt,
		&instance.FinishedAt,
		&instance.CreatedAt,
		&instance.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &instance, nil
}
