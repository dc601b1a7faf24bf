package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hireflow/hireflow/pkg/models"
	"github.com/hireflow/hireflow/pkg/persistence"
)

// WorkflowRepository handles workflow definition storage. Nodes and
// connections are replaced wholesale on every save inside one transaction.
type WorkflowRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

const workflowColumns = `
	id
  , name
  , description
  , company_id
  , position_id
  , status
  , version
  , is_template
  , activated_at
  , archived_at
  , created_at
  , updated_at
  , deleted_at
`

func (r *WorkflowRepository) Save(ctx context.Context, workflow *models.Workflow) error {
	now := time.Now().UTC()

	if workflow.CreatedAt.IsZero() {
		workflow.CreatedAt = now
	}

	workflow.UpdatedAt = now

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return persistence.NewWorkflowError("Save", workflow.ID, fmt.Errorf("failed to begin transaction: %w", err))
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	workflowQuery := `
		INSERT INTO workflows (id, name, description, company_id, position_id, status,
			version, is_template, activated_at, archived_at, created_at, updated_at, deleted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			company_id = EXCLUDED.company_id,
			position_id = EXCLUDED.position_id,
			status = EXCLUDED.status,
			version = EXCLUDED.version,
			is_template = EXCLUDED.is_template,
			activated_at = EXCLUDED.activated_at,
			archived_at = EXCLUDED.archived_at,
			updated_at = EXCLUDED.updated_at,
			deleted_at = EXCLUDED.deleted_at
	`

	_, err = tx.ExecContext(ctx, workflowQuery,
		workflow.ID,
		workflow.Name,
		workflow.Description,
		workflow.CompanyID,
		workflow.PositionID,
		workflow.Status,
		workflow.Version,
		workflow.IsTemplate,
		workflow.ActivatedAt,
		workflow.ArchivedAt,
		workflow.CreatedAt,
		workflow.UpdatedAt,
		workflow.DeletedAt,
	)
	if err != nil {
		return persistence.NewWorkflowError("Save", workflow.ID, fmt.Errorf("failed to save workflow base: %w", err))
	}

	_, err = tx.ExecContext(ctx, "DELETE FROM workflow_connections WHERE workflow_id = $1", workflow.ID)
	if err != nil {
		return persistence.NewWorkflowError("Save", workflow.ID, fmt.Errorf("failed to delete existing connections: %w", err))
	}

	_, err = tx.ExecContext(ctx, "DELETE FROM workflow_nodes WHERE workflow_id = $1", workflow.ID)
	if err != nil {
		return persistence.NewWorkflowError("Save", workflow.ID, fmt.Errorf("failed to delete existing nodes: %w", err))
	}

	if err = r.saveNodes(ctx, tx, workflow); err != nil {
		return persistence.NewWorkflowError("Save", workflow.ID, err)
	}

	if err = r.saveConnections(ctx, tx, workflow); err != nil {
		return persistence.NewWorkflowError("Save", workflow.ID, err)
	}

	if err = tx.Commit(); err != nil {
		return persistence.NewWorkflowError("Save", workflow.ID, fmt.Errorf("failed to commit transaction: %w", err))
	}

	return nil
}

func (r *WorkflowRepository) GetByID(ctx context.Context, id string) (*models.Workflow, error) {
	query := `SELECT ` + workflowColumns + ` FROM workflows WHERE id = $1 AND deleted_at IS NULL`

	row := r.db.QueryRowContext(ctx, query, id)

	workflow, err := scanWorkflow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewWorkflowError("GetByID", id, persistence.ErrWorkflowNotFound)
		}

		return nil, persistence.NewWorkflowError("GetByID", id, err)
	}

	if err := r.loadGraph(ctx, workflow); err != nil {
		return nil, persistence.NewWorkflowError("GetByID", id, err)
	}

	return workflow, nil
}

func (r *WorkflowRepository) List(ctx context.Context, opts persistence.ListWorkflowsOptions) (*persistence.ListWorkflowsResult, error) {
	where := "WHERE deleted_at IS NULL"
	args := []any{}

	if opts.CompanyID != "" {
		args = append(args, opts.CompanyID)
		where += fmt.Sprintf(" AND company_id = $%d", len(args))
	}

	if opts.Status != nil {
		args = append(args, *opts.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}

	var total int64

	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM workflows "+where, args...).Scan(&total)
	if err != nil {
		return nil, persistence.NewWorkflowError("List", "", fmt.Errorf("failed to count workflows: %w", err))
	}

	args = append(args, opts.Limit+1, opts.Offset)
	query := fmt.Sprintf(
		"SELECT %s FROM workflows %s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d",
		workflowColumns, where, len(args)-1, len(args),
	)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, persistence.NewWorkflowError("List", "", fmt.Errorf("failed to query workflows: %w", err))
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	workflows := make([]*models.Workflow, 0)

	for rows.Next() {
		workflow, err := scanWorkflow(rows)
		if err != nil {
			return nil, persistence.NewWorkflowError("List", "", fmt.Errorf("failed to scan workflow: %w", err))
		}

		workflows = append(workflows, workflow)
	}

	if err := rows.Err(); err != nil {
		return nil, persistence.NewWorkflowError("List", "", fmt.Errorf("error iterating workflows: %w", err))
	}

	hasNext := false
	if opts.Limit > 0 && len(workflows) > opts.Limit {
		workflows = workflows[:opts.Limit]
		hasNext = true
	}

	for _, workflow := range workflows {
		if err := r.loadGraph(ctx, workflow); err != nil {
			return nil, persistence.NewWorkflowError("List", workflow.ID, err)
		}
	}

	return &persistence.ListWorkflowsResult{
		Workflows:   workflows,
		TotalCount:  total,
		HasNextPage: hasNext,
	}, nil
}

// Delete soft deletes a workflow by setting the deleted_at timestamp.
func (r *WorkflowRepository) Delete(ctx context.Context, id string) error {
	query := `UPDATE workflows SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return persistence.NewWorkflowError("Delete", id, fmt.Errorf("failed to delete workflow: %w", err))
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewWorkflowError("Delete", id, fmt.Errorf("failed to get rows affected: %w", err))
	}

	if rowsAffected == 0 {
		return persistence.NewWorkflowError("Delete", id, persistence.ErrWorkflowNotFound)
	}

	return nil
}

func (r *WorkflowRepository) loadGraph(ctx context.Context, workflow *models.Workflow) error {
	nodesQuery := `
		SELECT id, node_type, node_status, name, config
		FROM workflow_nodes
		WHERE workflow_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.db.QueryContext(ctx, nodesQuery, workflow.ID)
	if err != nil {
		return fmt.Errorf("failed to query workflow nodes: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	var nodes []*models.WorkflowNode

	for rows.Next() {
		var (
			node       models.WorkflowNode
			configJSON []byte
		)

		err := rows.Scan(&node.ID, &node.Type, &node.Status, &node.Name, &configJSON)
		if err != nil {
			return fmt.Errorf("failed to scan node: %w", err)
		}

		if configJSON != nil {
			if err := json.Unmarshal(configJSON, &node.Config); err != nil {
				return fmt.Errorf("failed to unmarshal node configuration: %w", err)
			}
		}

		nodes = append(nodes, &node)
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating nodes: %w", err)
	}

	workflow.Nodes = nodes

	connectionsQuery := `
		SELECT id, seq, source_node_id, target_node_id, condition_type, condition_config
		FROM workflow_connections
		WHERE workflow_id = $1
		ORDER BY seq
	`

	rows, err = r.db.QueryContext(ctx, connectionsQuery, workflow.ID)
	if err != nil {
		return fmt.Errorf("failed to query workflow connections: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	var connections []*models.Connection

	for rows.Next() {
		var (
			connection models.Connection
			configJSON []byte
		)

		err := rows.Scan(
			&connection.ID,
			&connection.Seq,
			&connection.SourceNodeID,
			&connection.TargetNodeID,
			&connection.ConditionType,
			&configJSON,
		)
		if err != nil {
			return fmt.Errorf("failed to scan connection: %w", err)
		}

		if configJSON != nil {
			if err := json.Unmarshal(configJSON, &connection.Condition); err != nil {
				return fmt.Errorf("failed to unmarshal condition config: %w", err)
			}
		}

		connections = append(connections, &connection)
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating connections: %w", err)
	}

	workflow.Connections = connections

	return nil
}

func (r *WorkflowRepository) saveNodes(ctx context.Context, tx *sql.Tx, workflow *models.Workflow) error {
	query := `
		INSERT INTO workflow_nodes (workflow_id, id, node_type, node_status, name, config)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	for _, node := range workflow.Nodes {
		configJSON, err := json.Marshal(node.Config)
		if err != nil {
			return fmt.Errorf("failed to marshal node configuration: %w", err)
		}

		_, err = tx.ExecContext(ctx, query,
			workflow.ID,
			node.ID,
			node.Type,
			node.Status,
			node.Name,
			configJSON,
		)
		if err != nil {
			return fmt.Errorf("failed to save node %s: %w", node.ID, err)
		}
	}

	return nil
}

func (r *WorkflowRepository) saveConnections(ctx context.Context, tx *sql.Tx, workflow *models.Workflow) error {
	query := `
		INSERT INTO workflow_connections (workflow_id, id, seq, source_node_id, target_node_id, condition_type, condition_config)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	for _, connection := range workflow.Connections {
		var configJSON []byte

		if connection.Condition != nil {
			data, err := json.Marshal(connection.Condition)
			if err != nil {
				return fmt.Errorf("failed to marshal condition config: %w", err)
			}

			configJSON = data
		}

		_, err := tx.ExecContext(ctx, query,
			workflow.ID,
			connection.ID,
			connection.Seq,
			connection.SourceNodeID,
			connection.TargetNodeID,
			connection.ConditionType,
			configJSON,
		)
		if err != nil {
			return fmt.Errorf("failed to save connection %s: %w", connection.ID, err)
		}
	}

	return nil
}

func scanWorkflow(scanner interface{ Scan(dest ...any) error }) (*models.Workflow, error) {
	var workflow models.Workflow

	err := scanner.Scan(
		&workflow.ID,
		&workflow.Name,
		&workflow.Description,
		&workflow.CompanyID,
		&workflow.PositionID,
		&workflow.Status,
		&workflow.Version,
		&workflow.IsTemplate,
		&workflow.ActivatedAt,
		&workflow.ArchivedAt,
		&workflow.CreatedAt,
		&workflow.UpdatedAt,
		&workflow.DeletedAt,
	)
	if err != nil {
		return nil, err
	}

	return &workflow, nil
}
