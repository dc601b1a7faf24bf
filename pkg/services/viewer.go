package services

import (
	"context"
	"time"

	"github.com/hireflow/hireflow/pkg/models"
	"github.com/hireflow/hireflow/pkg/persistence"
)

// Viewers manages read-access grants on workflows. Grants have no bearing on
// execution semantics.
type Viewers struct {
	persistence persistence.Persistence
}

// NewViewers creates a viewer grant service.
func NewViewers(persistence persistence.Persistence) *Viewers {
	return &Viewers{persistence: persistence}
}

// Grant gives a user read access to a workflow. Granting twice is a no-op.
func (s *Viewers) Grant(ctx context.Context, workflowID, userID, grantedBy string) (*models.ProcessViewer, error) {
	if _, err := s.persistence.WorkflowRepository().GetByID(ctx, workflowID); err != nil {
		return nil, err
	}

	viewer := &models.ProcessViewer{
		WorkflowID: workflowID,
		UserID:     userID,
		GrantedBy:  grantedBy,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.persistence.ViewerRepository().Grant(ctx, viewer); err != nil {
		return nil, err
	}

	return viewer, nil
}

// Revoke removes a user's read access.
func (s *Viewers) Revoke(ctx context.Context, workflowID, userID string) error {
	return s.persistence.ViewerRepository().Revoke(ctx, workflowID, userID)
}

// List returns every grant on a workflow.
func (s *Viewers) List(ctx context.Context, workflowID string) ([]*models.ProcessViewer, error) {
	return s.persistence.ViewerRepository().ListByWorkflow(ctx, workflowID)
}
