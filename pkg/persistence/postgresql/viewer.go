package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hireflow/hireflow/pkg/models"
	"github.com/hireflow/hireflow/pkg/persistence"
)

// ViewerRepository stores read-access grants on workflows.
type ViewerRepository struct {
	db *sql.DB
}

func (r *ViewerRepository) Grant(ctx context.Context, viewer *models.ProcessViewer) error {
	if viewer.CreatedAt.IsZero() {
		viewer.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO workflow_viewers (workflow_id, user_id, granted_by, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (workflow_id, user_id) DO NOTHING
	`

	_, err := r.db.ExecContext(ctx, query, viewer.WorkflowID, viewer.UserID, viewer.GrantedBy, viewer.CreatedAt)
	if err != nil {
		return persistence.NewWorkflowError("Grant", viewer.WorkflowID, fmt.Errorf("failed to grant viewer: %w", err))
	}

	return nil
}

func (r *ViewerRepository) Revoke(ctx context.Context, workflowID, userID string) error {
	query := `DELETE FROM workflow_viewers WHERE workflow_id = $1 AND user_id = $2`

	_, err := r.db.ExecContext(ctx, query, workflowID, userID)
	if err != nil {
		return persistence.NewWorkflowError("Revoke", workflowID, fmt.Errorf("failed to revoke viewer: %w", err))
	}

	return nil
}

func (r *ViewerRepository) ListByWorkflow(ctx context.Context, workflowID string) ([]*models.ProcessViewer, error) {
	query := `
		SELECT workflow_id, user_id, granted_by, created_at
		FROM workflow_viewers
		WHERE workflow_id = $1
		ORDER BY user_id
	`

	rows, err := r.db.QueryContext(ctx, query, workflowID)
	if err != nil {
		return nil, persistence.NewWorkflowError("ListByWorkflow", workflowID, fmt.Errorf("failed to query viewers: %w", err))
	}

	defer func() { _ = rows.Close() }()

	var viewers []*models.ProcessViewer

	for rows.Next() {
		var viewer models.ProcessViewer

		err := rows.Scan(&viewer.WorkflowID, &viewer.UserID, &viewer.GrantedBy, &viewer.CreatedAt)
		if err != nil {
			return nil, persistence.NewWorkflowError("ListByWorkflow", workflowID, fmt.Errorf("failed to scan viewer: %w", err))
		}

		viewers = append(viewers, &viewer)
	}

	if err := rows.Err(); err != nil {
		return nil, persistence.NewWorkflowError("ListByWorkflow", workflowID, fmt.Errorf("error iterating viewers: %w", err))
	}

	return viewers, nil
}
