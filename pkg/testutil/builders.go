// Package testutil provides test data builders and utilities for testing.
package testutil

import (
	"github.com/google/uuid"

	"github.com/hireflow/hireflow/pkg/models"
)

// CreateTestNode creates a test WorkflowNode with default values that can be overridden.
func CreateTestNode(overrides ...func(*models.WorkflowNode)) *models.WorkflowNode {
	node := &models.WorkflowNode{
		ID:     uuid.New().String(),
		Type:   models.NodeTypeTodo,
		Status: models.NodeStatusDraft,
		Name:   "Test Node",
		Config: map[string]any{"title": "test task"},
	}

	for _, override := range overrides {
		override(node)
	}

	return node
}

// WithID sets the node ID.
func WithID(id string) func(*models.WorkflowNode) {
	return func(n *models.WorkflowNode) {
		n.ID = id
	}
}

// WithType sets the node type.
func WithType(nodeType models.NodeType) func(*models.WorkflowNode) {
	return func(n *models.WorkflowNode) {
		n.Type = nodeType
	}
}

// WithName sets the node name.
func WithName(name string) func(*models.WorkflowNode) {
	return func(n *models.WorkflowNode) {
		n.Name = name
	}
}

// WithConfig sets the node configuration.
func WithConfig(config map[string]any) func(*models.WorkflowNode) {
	return func(n *models.WorkflowNode) {
		n.Config = config
	}
}

// InterviewNode builds an interview node with a valid config.
func InterviewNode(id string) *models.WorkflowNode {
	return CreateTestNode(
		WithID(id),
		WithType(models.NodeTypeInterview),
		WithName("Interview "+id),
		WithConfig(map[string]any{"interview_template_id": "tpl-" + id}),
	)
}

// AssessmentNode builds an assessment node with a valid config.
func AssessmentNode(id string) *models.WorkflowNode {
	return CreateTestNode(
		WithID(id),
		WithType(models.NodeTypeAssessment),
		WithName("Assessment "+id),
		WithConfig(map[string]any{"assessment_id": "asmt-" + id, "passing_score": 70}),
	)
}

// DecisionNode builds a decision node of the given kind (hire, reject, review).
func DecisionNode(id, kind string) *models.WorkflowNode {
	return CreateTestNode(
		WithID(id),
		WithType(models.NodeTypeDecision),
		WithName("Decision "+id),
		WithConfig(map[string]any{"decision_kind": kind}),
	)
}

// CreateTestWorkflow creates an empty draft workflow.
func CreateTestWorkflow() *models.Workflow {
	return &models.Workflow{
		ID:          uuid.New().String(),
		Name:        "Test Workflow",
		Description: "A workflow for testing",
		CompanyID:   "company-1",
		Status:      models.WorkflowStatusDraft,
		Version:     1,
		Nodes:       []*models.WorkflowNode{},
		Connections: []*models.Connection{},
	}
}

// CreateTestConnection creates a connection between two nodes.
func CreateTestConnection(seq int64, sourceNodeID, targetNodeID string, conditionType models.ConditionType) *models.Connection {
	return &models.Connection{
		ID:            uuid.New().String(),
		Seq:           seq,
		SourceNodeID:  sourceNodeID,
		TargetNodeID:  targetNodeID,
		ConditionType: conditionType,
	}
}

// ConditionalConnection creates a conditional connection with the given config.
func ConditionalConnection(seq int64, sourceNodeID, targetNodeID string, condition *models.ConditionConfig) *models.Connection {
	conn := CreateTestConnection(seq, sourceNodeID, targetNodeID, models.ConditionTypeConditional)
	conn.Condition = condition

	return conn
}

// RequiredResult builds a ConditionConfig matching on an exact result.
func RequiredResult(result models.ExecutionResult) *models.ConditionConfig {
	return &models.ConditionConfig{RequiredResult: &result}
}

// MinScore builds a ConditionConfig matching on a score threshold.
func MinScore(score float64) *models.ConditionConfig {
	return &models.ConditionConfig{MinScore: &score}
}

// LinearHiringWorkflow builds the classic three step pipeline: phone screen
// interview into assessment into a hire decision, success edges throughout,
// plus a failure edge from each step into a reject decision.
func LinearHiringWorkflow() *models.Workflow {
	w := CreateTestWorkflow()

	screen := InterviewNode("screen")
	assessment := AssessmentNode("assessment")
	hire := DecisionNode("hire", "hire")
	reject := DecisionNode("reject", "reject")

	w.Nodes = []*models.WorkflowNode{screen, assessment, hire, reject}
	w.Connections = []*models.Connection{
		CreateTestConnection(1, "screen", "assessment", models.ConditionTypeSuccess),
		CreateTestConnection(2, "screen", "reject", models.ConditionTypeFailure),
		CreateTestConnection(3, "assessment", "hire", models.ConditionTypeSuccess),
		CreateTestConnection(4, "assessment", "reject", models.ConditionTypeFailure),
	}

	return w
}
