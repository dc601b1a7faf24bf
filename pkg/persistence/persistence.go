// Package persistence provides the data storage abstraction layer for the
// workflow engine.
package persistence

import (
	"context"
	"time"

	"github.com/hireflow/hireflow/pkg/models"
)

// Persistence is the storage entry point handed to services and the
// orchestrator. Implementations: postgresql, file.
type Persistence interface {
	WorkflowRepository() WorkflowRepository
	CandidateWorkflowRepository() CandidateWorkflowRepository
	NodeExecutionRepository() NodeExecutionRepository
	ViewerRepository() ViewerRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// ListWorkflowsOptions filters and pages workflow listings.
type ListWorkflowsOptions struct {
	Limit     int
	Offset    int
	CompanyID string
	Status    *models.WorkflowStatus
}

// ListWorkflowsResult is one page of workflows.
type ListWorkflowsResult struct {
	Workflows   []*models.Workflow
	TotalCount  int64
	HasNextPage bool
}

// WorkflowRepository stores workflow definitions with their nodes and
// connections. Deleting a workflow cascades to nodes, connections and viewers.
type WorkflowRepository interface {
	Save(ctx context.Context, workflow *models.Workflow) error
	GetByID(ctx context.Context, id string) (*models.Workflow, error)
	List(ctx context.Context, opts ListWorkflowsOptions) (*ListWorkflowsResult, error)
	Delete(ctx context.Context, id string) error
}

// CandidateWorkflowRepository stores candidate traversal instances.
//
// UpdateVersioned is the orchestrator's only write path: it commits the given
// instance iff the stored LockVersion still equals instance.LockVersion, and
// increments it. A lost race returns ErrStaleCandidateWorkflow.
type CandidateWorkflowRepository interface {
	Create(ctx context.Context, instance *models.CandidateWorkflow) error
	GetByID(ctx context.Context, id string) (*models.CandidateWorkflow, error)
	LiveByWorkflowAndCandidate(ctx context.Context, workflowID, candidateID string) (*models.CandidateWorkflow, error)
	ListByWorkflow(ctx context.Context, workflowID string) ([]*models.CandidateWorkflow, error)
	HasLiveByWorkflow(ctx context.Context, workflowID string) (bool, error)
	UpdateVersioned(ctx context.Context, instance *models.CandidateWorkflow) error
}

// NodeExecutionRepository stores node attempt rows. Rows are never deleted;
// retried nodes get fresh rows.
//
// Update writes only while the stored row is non-terminal; the check and the
// write are one atomic operation. A terminal row is frozen and Update returns
// ErrNodeExecutionFinished.
type NodeExecutionRepository interface {
	Create(ctx context.Context, execution *models.NodeExecution) error
	GetByID(ctx context.Context, id string) (*models.NodeExecution, error)
	Update(ctx context.Context, execution *models.NodeExecution) error
	LiveByInstanceAndNode(ctx context.Context, candidateWorkflowID, nodeID string) (*models.NodeExecution, error)
	TerminalExists(ctx context.Context, candidateWorkflowID, nodeID string) (bool, error)
	ListByInstance(ctx context.Context, candidateWorkflowID string) ([]*models.NodeExecution, error)

	// ListStale returns live executions started before the cutoff. Used by
	// the reminder sweep; it never mutates anything.
	ListStale(ctx context.Context, startedBefore time.Time) ([]*models.NodeExecution, error)
}

// ViewerRepository stores read-access grants on workflows.
type ViewerRepository interface {
	Grant(ctx context.Context, viewer *models.ProcessViewer) error
	Revoke(ctx context.Context, workflowID, userID string) error
	ListByWorkflow(ctx context.Context, workflowID string) ([]*models.ProcessViewer, error)
}
