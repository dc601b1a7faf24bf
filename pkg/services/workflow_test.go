package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hireflow/hireflow/pkg/models"
	"github.com/hireflow/hireflow/pkg/persistence"
	"github.com/hireflow/hireflow/pkg/persistence/file"
	"github.com/hireflow/hireflow/pkg/testutil"
)

func newWorkflowService(t *testing.T) (*Workflow, persistence.Persistence) {
	t.Helper()

	p := file.NewPersistence(t.TempDir())

	return NewWorkflow(p), p
}

func createDraft(t *testing.T, service *Workflow) *models.Workflow {
	t.Helper()

	w, err := service.Create(t.Context(), &models.Workflow{
		Name:      "Backend Engineer Hiring",
		CompanyID: "company-1",
	})
	require.NoError(t, err)

	return w
}

func TestWorkflowCreate(t *testing.T) {
	service, _ := newWorkflowService(t)

	w := createDraft(t, service)

	assert.NotEmpty(t, w.ID)
	assert.Equal(t, models.WorkflowStatusDraft, w.Status)
	assert.Equal(t, 1, w.Version)
	assert.False(t, w.CreatedAt.IsZero())
}

func TestWorkflowCreate_Validation(t *testing.T) {
	service, _ := newWorkflowService(t)
	ctx := t.Context()

	_, err := service.Create(ctx, nil)
	require.ErrorIs(t, err, ErrWorkflowNil)

	_, err = service.Create(ctx, &models.Workflow{Name: "  ", CompanyID: "company-1"})
	require.ErrorIs(t, err, ErrWorkflowNameRequired)

	_, err = service.Create(ctx, &models.Workflow{Name: "Hiring", CompanyID: ""})
	require.ErrorIs(t, err, ErrCompanyRequired)
}

func TestWorkflowFetchByID(t *testing.T) {
	service, _ := newWorkflowService(t)
	w := createDraft(t, service)

	fetched, err := service.FetchByID(t.Context(), w.ID)
	require.NoError(t, err)
	assert.Equal(t, w.Name, fetched.Name)

	_, err = service.FetchByID(t.Context(), "missing")
	require.ErrorIs(t, err, ErrWorkflowNotFound)
}

func TestListWorkflows(t *testing.T) {
	service, _ := newWorkflowService(t)
	ctx := t.Context()

	for range 3 {
		createDraft(t, service)
	}

	result, err := service.ListWorkflows(ctx, ListWorkflowsRequest{})
	require.NoError(t, err)
	assert.Len(t, result.Workflows, 3)
	assert.EqualValues(t, 3, result.TotalCount)
	assert.False(t, result.HasNextPage)
}

func TestListWorkflows_Pagination(t *testing.T) {
	service, _ := newWorkflowService(t)
	ctx := t.Context()

	for range 5 {
		createDraft(t, service)
	}

	result, err := service.ListWorkflows(ctx, ListWorkflowsRequest{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, result.Workflows, 2)
	assert.True(t, result.HasNextPage)

	result, err = service.ListWorkflows(ctx, ListWorkflowsRequest{Limit: 2, Offset: 4})
	require.NoError(t, err)
	assert.Len(t, result.Workflows, 1)
	assert.False(t, result.HasNextPage)
}

func TestListWorkflows_StatusFilter(t *testing.T) {
	service, p := newWorkflowService(t)
	ctx := t.Context()

	createDraft(t, service)

	active := testutil.LinearHiringWorkflow()
	active.Status = models.WorkflowStatusActive
	require.NoError(t, p.WorkflowRepository().Save(ctx, active))

	status := models.WorkflowStatusActive
	result, err := service.ListWorkflows(ctx, ListWorkflowsRequest{Status: &status})
	require.NoError(t, err)
	require.Len(t, result.Workflows, 1)
	assert.Equal(t, active.ID, result.Workflows[0].ID)

	invalid := models.WorkflowStatus("published")
	_, err = service.ListWorkflows(ctx, ListWorkflowsRequest{Status: &invalid})
	require.ErrorIs(t, err, ErrInvalidStatus)
	assert.True(t, IsValidationError(err))
}

func TestAddNode(t *testing.T) {
	service, _ := newWorkflowService(t)
	w := createDraft(t, service)

	node, err := service.AddNode(t.Context(), w.ID, testutil.InterviewNode("screen"))
	require.NoError(t, err)
	assert.Equal(t, "screen", node.ID)

	fetched, err := service.FetchByID(t.Context(), w.ID)
	require.NoError(t, err)
	require.Len(t, fetched.Nodes, 1)
	assert.Equal(t, models.NodeTypeInterview, fetched.Nodes[0].Type)
}

func TestAddNode_GeneratesIDAndDefaults(t *testing.T) {
	service, _ := newWorkflowService(t)
	w := createDraft(t, service)

	node, err := service.AddNode(t.Context(), w.ID, &models.WorkflowNode{
		Type: models.NodeTypeTodo,
		Name: "Send offer",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, node.ID)
	assert.Equal(t, models.NodeStatusDraft, node.Status)
}

func TestAddNode_UnknownType(t *testing.T) {
	service, _ := newWorkflowService(t)
	w := createDraft(t, service)

	_, err := service.AddNode(t.Context(), w.ID, &models.WorkflowNode{
		Type: models.NodeType("coffee-chat"),
		Name: "Chat",
	})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestAddNode_ImmutableWhenActive(t *testing.T) {
	service, p := newWorkflowService(t)
	ctx := t.Context()

	w := testutil.LinearHiringWorkflow()
	w.Status = models.WorkflowStatusActive
	require.NoError(t, p.WorkflowRepository().Save(ctx, w))

	_, err := service.AddNode(ctx, w.ID, testutil.CreateTestNode())
	require.ErrorIs(t, err, ErrWorkflowImmutable)
	assert.True(t, IsImmutableWorkflowError(err))
}

func TestAddNode_EditableAgainWhenInactive(t *testing.T) {
	service, p := newWorkflowService(t)
	ctx := t.Context()

	w := testutil.LinearHiringWorkflow()
	w.Status = models.WorkflowStatusInactive
	require.NoError(t, p.WorkflowRepository().Save(ctx, w))

	_, err := service.AddNode(ctx, w.ID, testutil.CreateTestNode(testutil.WithID("extra")))
	require.NoError(t, err)
}

func TestRemoveNode_CascadesConnections(t *testing.T) {
	service, p := newWorkflowService(t)
	ctx := t.Context()

	w := testutil.LinearHiringWorkflow()
	require.NoError(t, p.WorkflowRepository().Save(ctx, w))

	require.NoError(t, service.RemoveNode(ctx, w.ID, "assessment"))

	fetched, err := service.FetchByID(ctx, w.ID)
	require.NoError(t, err)
	assert.Nil(t, fetched.NodeByID("assessment"))

	// Every connection touching the removed node goes with it.
	for _, conn := range fetched.Connections {
		assert.NotEqual(t, "assessment", conn.SourceNodeID)
		assert.NotEqual(t, "assessment", conn.TargetNodeID)
	}

	require.Len(t, fetched.Connections, 1)
	assert.Equal(t, "reject", fetched.Connections[0].TargetNodeID)
}

func TestRemoveNode_NotFound(t *testing.T) {
	service, _ := newWorkflowService(t)
	w := createDraft(t, service)

	err := service.RemoveNode(t.Context(), w.ID, "missing")
	require.ErrorIs(t, err, ErrNodeNotFound)
}

func TestAddConnection_AssignsMonotonicSeq(t *testing.T) {
	service, _ := newWorkflowService(t)
	ctx := t.Context()
	w := createDraft(t, service)

	_, err := service.AddNode(ctx, w.ID, testutil.CreateTestNode(testutil.WithID("a")))
	require.NoError(t, err)
	_, err = service.AddNode(ctx, w.ID, testutil.CreateTestNode(testutil.WithID("b")))
	require.NoError(t, err)

	first, err := service.AddConnection(ctx, w.ID, &models.Connection{
		SourceNodeID:  "a",
		TargetNodeID:  "b",
		ConditionType: models.ConditionTypeSuccess,
	})
	require.NoError(t, err)

	second, err := service.AddConnection(ctx, w.ID, &models.Connection{
		SourceNodeID:  "a",
		TargetNodeID:  "b",
		ConditionType: models.ConditionTypeFailure,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, first.ID)
	assert.Greater(t, second.Seq, first.Seq)
}

func TestAddConnection_Validation(t *testing.T) {
	service, _ := newWorkflowService(t)
	ctx := t.Context()
	w := createDraft(t, service)

	_, err := service.AddNode(ctx, w.ID, testutil.CreateTestNode(testutil.WithID("a")))
	require.NoError(t, err)

	_, err = service.AddConnection(ctx, w.ID, &models.Connection{
		SourceNodeID:  "ghost",
		TargetNodeID:  "a",
		ConditionType: models.ConditionTypeSuccess,
	})
	require.ErrorIs(t, err, ErrNodeNotFound)

	_, err = service.AddConnection(ctx, w.ID, &models.Connection{
		SourceNodeID:  "a",
		TargetNodeID:  "a",
		ConditionType: models.ConditionType("maybe"),
	})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))

	_, err = service.AddConnection(ctx, w.ID, &models.Connection{
		SourceNodeID:  "a",
		TargetNodeID:  "a",
		ConditionType: models.ConditionTypeConditional,
	})
	require.Error(t, err, "conditional edge needs a non-empty config")
	assert.True(t, IsValidationError(err))
}

func TestRemoveConnection(t *testing.T) {
	service, p := newWorkflowService(t)
	ctx := t.Context()

	w := testutil.LinearHiringWorkflow()
	require.NoError(t, p.WorkflowRepository().Save(ctx, w))

	connID := w.Connections[0].ID
	require.NoError(t, service.RemoveConnection(ctx, w.ID, connID))

	fetched, err := service.FetchByID(ctx, w.ID)
	require.NoError(t, err)
	assert.Len(t, fetched.Connections, 3)

	err = service.RemoveConnection(ctx, w.ID, connID)
	require.ErrorIs(t, err, ErrConnectionNotFound)
}

func TestNewVersion_ClonesIntoFreshDraft(t *testing.T) {
	service, p := newWorkflowService(t)
	ctx := t.Context()

	original := testutil.LinearHiringWorkflow()
	original.Status = models.WorkflowStatusActive
	require.NoError(t, p.WorkflowRepository().Save(ctx, original))

	draft, err := service.NewVersion(ctx, original.ID)
	require.NoError(t, err)

	assert.NotEqual(t, original.ID, draft.ID)
	assert.Equal(t, models.WorkflowStatusDraft, draft.Status)
	assert.Equal(t, original.Version+1, draft.Version)
	assert.Len(t, draft.Nodes, len(original.Nodes))
	assert.Len(t, draft.Connections, len(original.Connections))

	// Node IDs are stable across versions; connection IDs are not.
	assert.NotNil(t, draft.NodeByID("screen"))
	assert.NotEqual(t, original.Connections[0].ID, draft.Connections[0].ID)
	assert.Equal(t, original.Connections[0].Seq, draft.Connections[0].Seq)

	// The clone is deep: editing it leaves the original untouched.
	draft.Nodes[0].Config["interview_template_id"] = "tpl-changed"
	fetched, err := service.FetchByID(ctx, original.ID)
	require.NoError(t, err)
	assert.Equal(t, "tpl-screen", fetched.Nodes[0].Config["interview_template_id"])
}

func TestWorkflowDelete(t *testing.T) {
	service, _ := newWorkflowService(t)
	w := createDraft(t, service)

	require.NoError(t, service.Delete(t.Context(), w.ID))

	_, err := service.FetchByID(t.Context(), w.ID)
	require.ErrorIs(t, err, ErrWorkflowNotFound)
}

func TestWorkflowDelete_RefusedWithLiveCandidates(t *testing.T) {
	service, p := newWorkflowService(t)
	ctx := t.Context()

	w := testutil.LinearHiringWorkflow()
	require.NoError(t, p.WorkflowRepository().Save(ctx, w))

	now := time.Now().UTC()
	instance := &models.CandidateWorkflow{
		ID:          uuid.New().String(),
		WorkflowID:  w.ID,
		CandidateID: "candidate-1",
		Status:      models.CandidateWorkflowStatusInProgress,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, p.CandidateWorkflowRepository().Create(ctx, instance))

	err := service.Delete(ctx, w.ID)
	require.ErrorIs(t, err, ErrWorkflowHasLiveCandidates)
	assert.True(t, IsConflictError(err))
}

func TestWorkflowDelete_NotFound(t *testing.T) {
	service, _ := newWorkflowService(t)

	err := service.Delete(t.Context(), "missing")
	require.ErrorIs(t, err, ErrWorkflowNotFound)
}
