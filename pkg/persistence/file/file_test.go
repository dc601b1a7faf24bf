package file

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hireflow/hireflow/pkg/models"
	"github.com/hireflow/hireflow/pkg/persistence"
	"github.com/hireflow/hireflow/pkg/testutil"
)

func testInstance(workflowID, candidateID string) *models.CandidateWorkflow {
	now := time.Now().UTC()

	return &models.CandidateWorkflow{
		ID:          uuid.New().String(),
		WorkflowID:  workflowID,
		CandidateID: candidateID,
		Status:      models.CandidateWorkflowStatusInProgress,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func testExecution(instanceID, nodeID string, startedAt time.Time) *models.NodeExecution {
	return &models.NodeExecution{
		ID:                  uuid.New().String(),
		CandidateWorkflowID: instanceID,
		NodeID:              nodeID,
		Status:              models.ExecutionStatusPending,
		StartedAt:           &startedAt,
		CreatedAt:           startedAt,
		UpdatedAt:           startedAt,
	}
}

func TestWorkflowRepository_SaveAndGet(t *testing.T) {
	ctx := t.Context()
	repo := NewPersistence(t.TempDir()).WorkflowRepository()

	w := testutil.LinearHiringWorkflow()
	require.NoError(t, repo.Save(ctx, w))

	fetched, err := repo.GetByID(ctx, w.ID)
	require.NoError(t, err)

	assert.Equal(t, w.Name, fetched.Name)
	assert.Len(t, fetched.Nodes, 4)
	assert.Len(t, fetched.Connections, 4)
	require.NotNil(t, fetched.NodeByID("screen"))
	assert.Equal(t, models.NodeTypeInterview, fetched.NodeByID("screen").Type)
}

func TestWorkflowRepository_GetMissing(t *testing.T) {
	repo := NewPersistence(t.TempDir()).WorkflowRepository()

	_, err := repo.GetByID(t.Context(), "missing")
	require.ErrorIs(t, err, persistence.ErrWorkflowNotFound)
	assert.True(t, persistence.IsWorkflowNotFound(err))
}

func TestWorkflowRepository_List(t *testing.T) {
	ctx := t.Context()
	repo := NewPersistence(t.TempDir()).WorkflowRepository()

	for i := range 3 {
		w := testutil.CreateTestWorkflow()
		w.CreatedAt = time.Now().UTC().Add(time.Duration(i) * time.Minute)
		require.NoError(t, repo.Save(ctx, w))
	}

	result, err := repo.List(ctx, persistence.ListWorkflowsOptions{Limit: 10})
	require.NoError(t, err)

	require.Len(t, result.Workflows, 3)
	assert.EqualValues(t, 3, result.TotalCount)
	assert.False(t, result.HasNextPage)

	// Newest first.
	assert.True(t, result.Workflows[0].CreatedAt.After(result.Workflows[2].CreatedAt))
}

func TestWorkflowRepository_ListFilters(t *testing.T) {
	ctx := t.Context()
	repo := NewPersistence(t.TempDir()).WorkflowRepository()

	mine := testutil.CreateTestWorkflow()
	mine.CompanyID = "company-mine"
	require.NoError(t, repo.Save(ctx, mine))

	other := testutil.CreateTestWorkflow()
	other.CompanyID = "company-other"
	other.Status = models.WorkflowStatusActive
	require.NoError(t, repo.Save(ctx, other))

	result, err := repo.List(ctx, persistence.ListWorkflowsOptions{Limit: 10, CompanyID: "company-mine"})
	require.NoError(t, err)
	require.Len(t, result.Workflows, 1)
	assert.Equal(t, mine.ID, result.Workflows[0].ID)

	active := models.WorkflowStatusActive
	result, err = repo.List(ctx, persistence.ListWorkflowsOptions{Limit: 10, Status: &active})
	require.NoError(t, err)
	require.Len(t, result.Workflows, 1)
	assert.Equal(t, other.ID, result.Workflows[0].ID)
}

func TestWorkflowRepository_Delete(t *testing.T) {
	ctx := t.Context()
	repo := NewPersistence(t.TempDir()).WorkflowRepository()

	w := testutil.CreateTestWorkflow()
	require.NoError(t, repo.Save(ctx, w))

	require.NoError(t, repo.Delete(ctx, w.ID))

	_, err := repo.GetByID(ctx, w.ID)
	require.ErrorIs(t, err, persistence.ErrWorkflowNotFound)

	err = repo.Delete(ctx, w.ID)
	require.ErrorIs(t, err, persistence.ErrWorkflowNotFound)
}

func TestCandidateWorkflowRepository_CreateAndGet(t *testing.T) {
	ctx := t.Context()
	repo := NewPersistence(t.TempDir()).CandidateWorkflowRepository()

	instance := testInstance("wf-1", "candidate-1")
	require.NoError(t, repo.Create(ctx, instance))

	fetched, err := repo.GetByID(ctx, instance.ID)
	require.NoError(t, err)
	assert.Equal(t, instance.CandidateID, fetched.CandidateID)
	assert.EqualValues(t, 0, fetched.LockVersion)
}

func TestCandidateWorkflowRepository_RejectsSecondLiveInstance(t *testing.T) {
	ctx := t.Context()
	repo := NewPersistence(t.TempDir()).CandidateWorkflowRepository()

	require.NoError(t, repo.Create(ctx, testInstance("wf-1", "candidate-1")))

	err := repo.Create(ctx, testInstance("wf-1", "candidate-1"))
	require.ErrorIs(t, err, persistence.ErrDuplicateCandidateWorkflow)

	// Same candidate on another workflow is fine.
	require.NoError(t, repo.Create(ctx, testInstance("wf-2", "candidate-1")))
}

func TestCandidateWorkflowRepository_AllowsNewInstanceAfterTerminal(t *testing.T) {
	ctx := t.Context()
	repo := NewPersistence(t.TempDir()).CandidateWorkflowRepository()

	finished := testInstance("wf-1", "candidate-1")
	finished.Status = models.CandidateWorkflowStatusWithdrawn
	require.NoError(t, repo.Create(ctx, finished))

	require.NoError(t, repo.Create(ctx, testInstance("wf-1", "candidate-1")))
}

func TestCandidateWorkflowRepository_LiveByWorkflowAndCandidate(t *testing.T) {
	ctx := t.Context()
	repo := NewPersistence(t.TempDir()).CandidateWorkflowRepository()

	instance := testInstance("wf-1", "candidate-1")
	require.NoError(t, repo.Create(ctx, instance))

	live, err := repo.LiveByWorkflowAndCandidate(ctx, "wf-1", "candidate-1")
	require.NoError(t, err)
	assert.Equal(t, instance.ID, live.ID)

	_, err = repo.LiveByWorkflowAndCandidate(ctx, "wf-1", "candidate-2")
	require.ErrorIs(t, err, persistence.ErrCandidateWorkflowNotFound)
}

func TestCandidateWorkflowRepository_UpdateVersioned(t *testing.T) {
	ctx := t.Context()
	repo := NewPersistence(t.TempDir()).CandidateWorkflowRepository()

	instance := testInstance("wf-1", "candidate-1")
	require.NoError(t, repo.Create(ctx, instance))

	instance.Status = models.CandidateWorkflowStatusOnHold
	require.NoError(t, repo.UpdateVersioned(ctx, instance))
	assert.EqualValues(t, 1, instance.LockVersion)

	fetched, err := repo.GetByID(ctx, instance.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CandidateWorkflowStatusOnHold, fetched.Status)
	assert.EqualValues(t, 1, fetched.LockVersion)
}

func TestCandidateWorkflowRepository_UpdateVersionedConflict(t *testing.T) {
	ctx := t.Context()
	repo := NewPersistence(t.TempDir()).CandidateWorkflowRepository()

	instance := testInstance("wf-1", "candidate-1")
	require.NoError(t, repo.Create(ctx, instance))

	// Two copies of the same row; the second commit must lose.
	stale, err := repo.GetByID(ctx, instance.ID)
	require.NoError(t, err)

	instance.Status = models.CandidateWorkflowStatusOnHold
	require.NoError(t, repo.UpdateVersioned(ctx, instance))

	stale.Status = models.CandidateWorkflowStatusCompleted
	err = repo.UpdateVersioned(ctx, stale)
	require.ErrorIs(t, err, persistence.ErrStaleCandidateWorkflow)
	assert.True(t, persistence.IsStaleCandidateWorkflow(err))

	fetched, err := repo.GetByID(ctx, instance.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CandidateWorkflowStatusOnHold, fetched.Status)
}

func TestCandidateWorkflowRepository_HasLiveByWorkflow(t *testing.T) {
	ctx := t.Context()
	repo := NewPersistence(t.TempDir()).CandidateWorkflowRepository()

	live, err := repo.HasLiveByWorkflow(ctx, "wf-1")
	require.NoError(t, err)
	assert.False(t, live)

	require.NoError(t, repo.Create(ctx, testInstance("wf-1", "candidate-1")))

	live, err = repo.HasLiveByWorkflow(ctx, "wf-1")
	require.NoError(t, err)
	assert.True(t, live)
}

func TestNodeExecutionRepository_RejectsSecondLiveAttempt(t *testing.T) {
	ctx := t.Context()
	repo := NewPersistence(t.TempDir()).NodeExecutionRepository()

	now := time.Now().UTC()
	require.NoError(t, repo.Create(ctx, testExecution("cw-1", "screen", now)))

	err := repo.Create(ctx, testExecution("cw-1", "screen", now))
	require.ErrorIs(t, err, persistence.ErrDuplicateNodeExecution)

	// Other node, other instance: both fine.
	require.NoError(t, repo.Create(ctx, testExecution("cw-1", "assessment", now)))
	require.NoError(t, repo.Create(ctx, testExecution("cw-2", "screen", now)))
}

func TestNodeExecutionRepository_TerminalExists(t *testing.T) {
	ctx := t.Context()
	repo := NewPersistence(t.TempDir()).NodeExecutionRepository()

	execution := testExecution("cw-1", "screen", time.Now().UTC())
	require.NoError(t, repo.Create(ctx, execution))

	exists, err := repo.TerminalExists(ctx, "cw-1", "screen")
	require.NoError(t, err)
	assert.False(t, exists, "a live attempt is not a terminal one")

	execution.Status = models.ExecutionStatusCompleted
	execution.Result = models.ExecutionResultPass
	require.NoError(t, repo.Update(ctx, execution))

	exists, err = repo.TerminalExists(ctx, "cw-1", "screen")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestNodeExecutionRepository_UpdateFreezesTerminalRows(t *testing.T) {
	ctx := t.Context()
	repo := NewPersistence(t.TempDir()).NodeExecutionRepository()

	execution := testExecution("cw-1", "screen", time.Now().UTC())
	require.NoError(t, repo.Create(ctx, execution))

	execution.Status = models.ExecutionStatusCompleted
	execution.Result = models.ExecutionResultPass
	execution.ExecutionData = map[string]any{"score": 91.0}
	require.NoError(t, repo.Update(ctx, execution))

	// A second write against the terminal row is refused and changes nothing.
	overwrite := *execution
	overwrite.Status = models.ExecutionStatusFailed
	overwrite.Result = models.ExecutionResultFail
	overwrite.ExecutionData = map[string]any{"score": 12.0}

	err := repo.Update(ctx, &overwrite)
	require.ErrorIs(t, err, persistence.ErrNodeExecutionFinished)

	stored, err := repo.GetByID(ctx, execution.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusCompleted, stored.Status)
	assert.Equal(t, models.ExecutionResultPass, stored.Result)
	assert.InDelta(t, 91.0, stored.ExecutionData["score"], 0.0001)
}

func TestNodeExecutionRepository_UpdateUnknownExecution(t *testing.T) {
	ctx := t.Context()
	repo := NewPersistence(t.TempDir()).NodeExecutionRepository()

	execution := testExecution("cw-1", "screen", time.Now().UTC())

	err := repo.Update(ctx, execution)
	require.ErrorIs(t, err, persistence.ErrNodeExecutionNotFound)
}

func TestNodeExecutionRepository_ListByInstance(t *testing.T) {
	ctx := t.Context()
	repo := NewPersistence(t.TempDir()).NodeExecutionRepository()

	base := time.Now().UTC()

	second := testExecution("cw-1", "assessment", base.Add(time.Minute))
	first := testExecution("cw-1", "screen", base)
	other := testExecution("cw-2", "screen", base)

	first.Status = models.ExecutionStatusCompleted
	require.NoError(t, repo.Create(ctx, second))
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, other))

	history, err := repo.ListByInstance(ctx, "cw-1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "screen", history[0].NodeID)
	assert.Equal(t, "assessment", history[1].NodeID)
}

func TestNodeExecutionRepository_ListStale(t *testing.T) {
	ctx := t.Context()
	repo := NewPersistence(t.TempDir()).NodeExecutionRepository()

	old := testExecution("cw-1", "screen", time.Now().UTC().Add(-100*time.Hour))
	fresh := testExecution("cw-2", "screen", time.Now().UTC())
	finished := testExecution("cw-3", "screen", time.Now().UTC().Add(-100*time.Hour))
	finished.Status = models.ExecutionStatusCompleted

	require.NoError(t, repo.Create(ctx, old))
	require.NoError(t, repo.Create(ctx, fresh))
	require.NoError(t, repo.Create(ctx, finished))

	stale, err := repo.ListStale(ctx, time.Now().UTC().Add(-72*time.Hour))
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, old.ID, stale[0].ID)
}

func TestViewerRepository(t *testing.T) {
	ctx := t.Context()
	repo := NewPersistence(t.TempDir()).ViewerRepository()

	for _, userID := range []string{"user-b", "user-a"} {
		err := repo.Grant(ctx, &models.ProcessViewer{
			WorkflowID: "wf-1",
			UserID:     userID,
			GrantedBy:  "admin-1",
			CreatedAt:  time.Now().UTC(),
		})
		require.NoError(t, err)
	}

	viewers, err := repo.ListByWorkflow(ctx, "wf-1")
	require.NoError(t, err)
	require.Len(t, viewers, 2)
	assert.Equal(t, "user-a", viewers[0].UserID)

	require.NoError(t, repo.Revoke(ctx, "wf-1", "user-a"))
	require.NoError(t, repo.Revoke(ctx, "wf-1", "user-a"))

	viewers, err = repo.ListByWorkflow(ctx, "wf-1")
	require.NoError(t, err)
	require.Len(t, viewers, 1)
	assert.Equal(t, "user-b", viewers[0].UserID)
}

func TestPersistence_HealthCheckAndClose(t *testing.T) {
	p := NewPersistence(t.TempDir())

	require.NoError(t, p.HealthCheck(t.Context()))
	require.NoError(t, p.Close(t.Context()))
}
