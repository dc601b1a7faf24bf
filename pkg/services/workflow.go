package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hireflow/hireflow/pkg/models"
	"github.com/hireflow/hireflow/pkg/persistence"
)

// ErrWorkflowNotFound is returned when a workflow is not found.
var ErrWorkflowNotFound = persistence.ErrWorkflowNotFound

// Workflow is the definition management service: CRUD plus structural edits.
// Structural edits are permitted only while the definition is editable
// (draft or inactive); edits on an active workflow fail with
// ErrWorkflowImmutable.
type Workflow struct {
	persistence persistence.Persistence
}

// NewWorkflow creates a new workflow service.
func NewWorkflow(persistence persistence.Persistence) *Workflow {
	return &Workflow{persistence: persistence}
}

// HealthCheck checks the health of the persistence layer.
func (s *Workflow) HealthCheck(ctx context.Context) (string, bool) {
	if s.persistence == nil {
		return "Persistence layer not initialized", false
	}

	if err := s.persistence.HealthCheck(ctx); err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// ListWorkflowsRequest contains options for listing workflows.
type ListWorkflowsRequest struct {
	Limit     int
	Offset    int
	CompanyID string
	Status    *models.WorkflowStatus
}

// ListWorkflows retrieves workflows with filtering and pagination.
func (s *Workflow) ListWorkflows(ctx context.Context, req ListWorkflowsRequest) (*persistence.ListWorkflowsResult, error) {
	if req.Limit <= 0 {
		req.Limit = 20
	}

	if req.Limit > 100 {
		req.Limit = 100
	}

	if req.Offset < 0 {
		req.Offset = 0
	}

	if req.Status != nil && !validWorkflowStatus(*req.Status) {
		return nil, NewValidationError("ListWorkflows", "INVALID_STATUS",
			fmt.Sprintf("invalid status %q", *req.Status), ErrInvalidStatus)
	}

	result, err := s.persistence.WorkflowRepository().List(ctx, persistence.ListWorkflowsOptions{
		Limit:     req.Limit,
		Offset:    req.Offset,
		CompanyID: req.CompanyID,
		Status:    req.Status,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}

	return result, nil
}

func validWorkflowStatus(status models.WorkflowStatus) bool {
	switch status {
	case models.WorkflowStatusDraft,
		models.WorkflowStatusActive,
		models.WorkflowStatusArchived,
		models.WorkflowStatusInactive:
		return true
	default:
		return false
	}
}

// FetchByID retrieves a workflow by its ID.
func (s *Workflow) FetchByID(ctx context.Context, id string) (*models.Workflow, error) {
	return s.persistence.WorkflowRepository().GetByID(ctx, id)
}

// Create adds a new workflow definition in draft state.
func (s *Workflow) Create(ctx context.Context, w *models.Workflow) (*models.Workflow, error) {
	if w == nil {
		return nil, ErrWorkflowNil
	}

	if strings.TrimSpace(w.Name) == "" {
		return nil, ErrWorkflowNameRequired
	}

	if strings.TrimSpace(w.CompanyID) == "" {
		return nil, ErrCompanyRequired
	}

	now := time.Now().UTC()
	w.ID = uuid.New().String()
	w.Status = models.WorkflowStatusDraft
	w.CreatedAt = now
	w.UpdatedAt = now

	if w.Version == 0 {
		w.Version = 1
	}

	if err := s.persistence.WorkflowRepository().Save(ctx, w); err != nil {
		return nil, fmt.Errorf("failed to create workflow: %w", err)
	}

	return w, nil
}

// Delete removes a workflow. Nodes, connections and viewers cascade with it;
// candidate instances are independent records, so deletion is refused while
// any live instance still references the workflow.
func (s *Workflow) Delete(ctx context.Context, workflowID string) error {
	if _, err := s.persistence.WorkflowRepository().GetByID(ctx, workflowID); err != nil {
		return err
	}

	live, err := s.persistence.CandidateWorkflowRepository().HasLiveByWorkflow(ctx, workflowID)
	if err != nil {
		return err
	}

	if live {
		return fmt.Errorf("workflow %s: %w", workflowID, ErrWorkflowHasLiveCandidates)
	}

	if err := s.persistence.WorkflowRepository().Delete(ctx, workflowID); err != nil {
		return fmt.Errorf("failed to delete workflow: %w", err)
	}

	return nil
}

// AddNode appends a node to an editable workflow.
func (s *Workflow) AddNode(ctx context.Context, workflowID string, node *models.WorkflowNode) (*models.WorkflowNode, error) {
	w, err := s.editable(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	if !models.IsKnownNodeType(node.Type) {
		return nil, NewValidationError("AddNode", "UNKNOWN_NODE_TYPE",
			fmt.Sprintf("unknown node type %q", node.Type), ErrInvalidRequest)
	}

	if node.ID == "" {
		node.ID = uuid.New().String()
	}

	if node.Status == "" {
		node.Status = models.NodeStatusDraft
	}

	w.Nodes = append(w.Nodes, node)

	if err := s.save(ctx, w); err != nil {
		return nil, err
	}

	return node, nil
}

// RemoveNode deletes a node and every connection touching it.
func (s *Workflow) RemoveNode(ctx context.Context, workflowID, nodeID string) error {
	w, err := s.editable(ctx, workflowID)
	if err != nil {
		return err
	}

	if w.NodeByID(nodeID) == nil {
		return fmt.Errorf("node %s: %w", nodeID, ErrNodeNotFound)
	}

	nodes := w.Nodes[:0]

	for _, node := range w.Nodes {
		if node.ID != nodeID {
			nodes = append(nodes, node)
		}
	}

	w.Nodes = nodes

	conns := w.Connections[:0]

	for _, conn := range w.Connections {
		if conn.SourceNodeID != nodeID && conn.TargetNodeID != nodeID {
			conns = append(conns, conn)
		}
	}

	w.Connections = conns

	return s.save(ctx, w)
}

// AddConnection appends a directed edge to an editable workflow. Unknown
// condition types and conditional edges with an empty config are rejected
// here, not at runtime.
func (s *Workflow) AddConnection(ctx context.Context, workflowID string, conn *models.Connection) (*models.Connection, error) {
	w, err := s.editable(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	if w.NodeByID(conn.SourceNodeID) == nil {
		return nil, fmt.Errorf("source node %s: %w", conn.SourceNodeID, ErrNodeNotFound)
	}

	if w.NodeByID(conn.TargetNodeID) == nil {
		return nil, fmt.Errorf("target node %s: %w", conn.TargetNodeID, ErrNodeNotFound)
	}

	if !models.IsKnownConditionType(conn.ConditionType) {
		return nil, NewValidationError("AddConnection", "UNKNOWN_CONDITION_TYPE",
			fmt.Sprintf("unknown condition type %q", conn.ConditionType), ErrInvalidRequest)
	}

	if conn.ConditionType == models.ConditionTypeConditional && conn.Condition.Empty() {
		return nil, NewValidationError("AddConnection", "EMPTY_CONDITIONAL_CONFIG",
			"conditional connection requires a required_result or min_score", ErrInvalidRequest)
	}

	if conn.ID == "" {
		conn.ID = uuid.New().String()
	}

	conn.Seq = nextConnectionSeq(w)
	w.Connections = append(w.Connections, conn)

	if err := s.save(ctx, w); err != nil {
		return nil, err
	}

	return conn, nil
}

// RemoveConnection deletes an edge from an editable workflow.
func (s *Workflow) RemoveConnection(ctx context.Context, workflowID, connectionID string) error {
	w, err := s.editable(ctx, workflowID)
	if err != nil {
		return err
	}

	found := false
	conns := w.Connections[:0]

	for _, conn := range w.Connections {
		if conn.ID == connectionID {
			found = true

			continue
		}

		conns = append(conns, conn)
	}

	if !found {
		return fmt.Errorf("connection %s: %w", connectionID, ErrConnectionNotFound)
	}

	w.Connections = conns

	return s.save(ctx, w)
}

// NewVersion clones a workflow into a fresh draft with the version bumped.
// This is how an active (frozen) definition gets edited.
func (s *Workflow) NewVersion(ctx context.Context, workflowID string) (*models.Workflow, error) {
	original, err := s.persistence.WorkflowRepository().GetByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	draft := &models.Workflow{
		ID:          uuid.New().String(),
		Name:        original.Name,
		Description: original.Description,
		CompanyID:   original.CompanyID,
		PositionID:  copyStringPointer(original.PositionID),
		Status:      models.WorkflowStatusDraft,
		Version:     original.Version + 1,
		IsTemplate:  original.IsTemplate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	draft.Nodes = make([]*models.WorkflowNode, len(original.Nodes))
	for i, node := range original.Nodes {
		draft.Nodes[i] = &models.WorkflowNode{
			ID:     node.ID, // node IDs are stable across versions
			Type:   node.Type,
			Status: node.Status,
			Name:   node.Name,
			Config: copyMap(node.Config),
		}
	}

	draft.Connections = make([]*models.Connection, len(original.Connections))
	for i, conn := range original.Connections {
		draft.Connections[i] = &models.Connection{
			ID:            uuid.New().String(),
			Seq:           conn.Seq,
			SourceNodeID:  conn.SourceNodeID,
			TargetNodeID:  conn.TargetNodeID,
			ConditionType: conn.ConditionType,
			Condition:     copyConditionConfig(conn.Condition),
		}
	}

	if err := s.persistence.WorkflowRepository().Save(ctx, draft); err != nil {
		return nil, fmt.Errorf("failed to save new workflow version: %w", err)
	}

	return draft, nil
}

// editable loads a workflow and rejects structural edits on frozen definitions.
func (s *Workflow) editable(ctx context.Context, workflowID string) (*models.Workflow, error) {
	w, err := s.persistence.WorkflowRepository().GetByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	if !w.Editable() {
		return nil, fmt.Errorf("workflow %s is %s: %w", workflowID, w.Status, ErrWorkflowImmutable)
	}

	return w, nil
}

func (s *Workflow) save(ctx context.Context, w *models.Workflow) error {
	w.UpdatedAt = time.Now().UTC()

	if err := s.persistence.WorkflowRepository().Save(ctx, w); err != nil {
		return fmt.Errorf("failed to save workflow: %w", err)
	}

	return nil
}

func nextConnectionSeq(w *models.Workflow) int64 {
	var max int64

	for _, conn := range w.Connections {
		if conn.Seq > max {
			max = conn.Seq
		}
	}

	return max + 1
}

func copyMap(original map[string]any) map[string]any {
	if original == nil {
		return nil
	}

	result := make(map[string]any, len(original))
	for k, v := range original {
		result[k] = v // shallow copy of values
	}

	return result
}

func copyStringPointer(original *string) *string {
	if original == nil {
		return nil
	}

	value := *original

	return &value
}

func copyConditionConfig(original *models.ConditionConfig) *models.ConditionConfig {
	if original == nil {
		return nil
	}

	clone := &models.ConditionConfig{}

	if original.RequiredResult != nil {
		required := *original.RequiredResult
		clone.RequiredResult = &required
	}

	if original.MinScore != nil {
		score := *original.MinScore
		clone.MinScore = &score
	}

	return clone
}
