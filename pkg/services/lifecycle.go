package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hireflow/hireflow/pkg/events"
	"github.com/hireflow/hireflow/pkg/eventbus"
	"github.com/hireflow/hireflow/pkg/models"
	"github.com/hireflow/hireflow/pkg/persistence"
	"github.com/hireflow/hireflow/pkg/registry"
	"github.com/hireflow/hireflow/pkg/workflow"
)

// Lifecycle governs the workflow definition's own state machine,
// independent of any candidate's progress:
//
//	draft → active (Activate, only from draft)
//	active → inactive (Deactivate)
//	any → archived (Archive)
//
// Activation validates the graph and fails fast rather than producing a
// runtime dead end later.
type Lifecycle struct {
	persistence persistence.Persistence
	kinds       *registry.Registry
	publisher   eventbus.EventPublisher
	logger      *slog.Logger
}

// NewLifecycle creates a workflow lifecycle manager.
func NewLifecycle(
	p persistence.Persistence,
	kinds *registry.Registry,
	publisher eventbus.EventPublisher,
	logger *slog.Logger,
) *Lifecycle {
	return &Lifecycle{
		persistence: p,
		kinds:       kinds,
		publisher:   publisher,
		logger:      logger.With("module", "workflow_lifecycle"),
	}
}

// Activate transitions a draft workflow to active and freezes its structure.
// The graph is validated first: at least one entry node, every node reachable,
// every node config satisfying its kind schema, no conditional edge with an
// empty config. A failed validation leaves the workflow in draft.
func (s *Lifecycle) Activate(ctx context.Context, workflowID string) (*models.Workflow, error) {
	w, err := s.persistence.WorkflowRepository().GetByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	if w.Status != models.WorkflowStatusDraft {
		return nil, fmt.Errorf("cannot activate workflow in status %s: %w", w.Status, ErrInvalidTransition)
	}

	if err := workflow.ValidateForActivation(w, s.kinds); err != nil {
		return nil, fmt.Errorf("workflow validation failed: %w", err)
	}

	now := time.Now().UTC()
	w.Status = models.WorkflowStatusActive
	w.ActivatedAt = &now
	w.UpdatedAt = now

	for _, node := range w.Nodes {
		node.Status = models.NodeStatusActive
	}

	if err := s.persistence.WorkflowRepository().Save(ctx, w); err != nil {
		return nil, fmt.Errorf("failed to save activated workflow: %w", err)
	}

	s.logger.InfoContext(ctx, "Activated workflow", "workflow_id", w.ID, "version", w.Version)

	s.publish(ctx, w.ID, events.WorkflowActivated{
		BaseEvent: s.baseEvent(events.WorkflowActivatedEvent, w.ID),
		Version:   w.Version,
	})

	return w, nil
}

// Deactivate moves an active workflow to inactive, making it editable again
// and no longer startable.
func (s *Lifecycle) Deactivate(ctx context.Context, workflowID string) (*models.Workflow, error) {
	w, err := s.persistence.WorkflowRepository().GetByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	if w.Status != models.WorkflowStatusActive {
		return nil, fmt.Errorf("cannot deactivate workflow in status %s: %w", w.Status, ErrInvalidTransition)
	}

	w.Status = models.WorkflowStatusInactive
	w.UpdatedAt = time.Now().UTC()

	if err := s.persistence.WorkflowRepository().Save(ctx, w); err != nil {
		return nil, fmt.Errorf("failed to save deactivated workflow: %w", err)
	}

	s.logger.InfoContext(ctx, "Deactivated workflow", "workflow_id", w.ID)

	s.publish(ctx, w.ID, events.WorkflowDeactivated{
		BaseEvent: s.baseEvent(events.WorkflowDeactivatedEvent, w.ID),
	})

	return w, nil
}

// Archive retires a workflow. Legal from every state.
func (s *Lifecycle) Archive(ctx context.Context, workflowID string) (*models.Workflow, error) {
	w, err := s.persistence.WorkflowRepository().GetByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	w.Status = models.WorkflowStatusArchived
	w.ArchivedAt = &now
	w.UpdatedAt = now

	if err := s.persistence.WorkflowRepository().Save(ctx, w); err != nil {
		return nil, fmt.Errorf("failed to save archived workflow: %w", err)
	}

	s.logger.InfoContext(ctx, "Archived workflow", "workflow_id", w.ID)

	s.publish(ctx, w.ID, events.WorkflowArchived{
		BaseEvent: s.baseEvent(events.WorkflowArchivedEvent, w.ID),
	})

	return w, nil
}

func (s *Lifecycle) baseEvent(eventType events.EventType, workflowID string) events.BaseEvent {
	return events.BaseEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		WorkflowID: workflowID,
	}
}

func (s *Lifecycle) publish(ctx context.Context, key string, event eventbus.Event) {
	if s.publisher == nil {
		return
	}

	if err := s.publisher.Publish(ctx, key, event); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish event", "event_type", event.GetType(), "error", err)
	}
}
