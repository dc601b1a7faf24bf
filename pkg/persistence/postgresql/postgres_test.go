package postgresql_test

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/hireflow/hireflow/pkg/models"
	"github.com/hireflow/hireflow/pkg/persistence"
	"github.com/hireflow/hireflow/pkg/persistence/postgresql"
	"github.com/hireflow/hireflow/pkg/testutil"
)

var postgresContainer *postgres.PostgresContainer

func dropDb(ctx context.Context, t *testing.T, databaseURL string) {
	t.Helper()

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	// Drop tables in reverse dependency order (children first, parents last)
	for _, table := range []string{
		"node_executions",
		"candidate_workflows",
		"workflow_viewers",
		"workflow_connections",
		"workflow_nodes",
		"workflows",
		"schema_migrations",
	} {
		_, err = db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE")
		require.NoError(t, err)
	}

	err = db.Close()
	require.NoError(t, err)
}

func setupTestDB(t *testing.T) (*postgresql.Persistence, context.Context, string) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)

	if postgresContainer == nil || !postgresContainer.IsRunning() {
		var err error

		postgresContainer, err = postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("hireflow_test"),
			postgres.WithUsername("hireflow"),
			postgres.WithPassword("hireflow"),
			postgres.BasicWaitStrategies(),
		)
		require.NoError(t, err)
	}

	databaseURL, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	dropDb(ctx, t, databaseURL)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	p, err := postgresql.NewPersistence(ctx, logger, databaseURL)
	require.NoError(t, err)

	t.Cleanup(func() {
		dropDb(ctx, t, databaseURL)

		err = p.Close(ctx)
		require.NoError(t, err)

		cancel()
	})

	return p, ctx, databaseURL
}

func TestNewPersistence_Migrations(t *testing.T) {
	_, ctx, databaseURL := setupTestDB(t)

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	defer func() {
		err := db.Close()
		require.NoError(t, err)
	}()

	for _, table := range []string{
		"workflows",
		"workflow_nodes",
		"workflow_connections",
		"workflow_viewers",
		"candidate_workflows",
		"node_executions",
		"schema_migrations",
	} {
		var exists bool

		err = db.QueryRowContext(ctx, `SELECT EXISTS (SELECT FROM
information_schema.tables WHERE table_name = $1)`, table).Scan(&exists)
		require.NoError(t, err)
		assert.True(t, exists, "%s table should exist", table)
	}

	var version int

	err = db.QueryRowContext(ctx, "SELECT version FROM schema_migrations WHERE version = 1").Scan(&version)
	require.NoError(t, err)
	assert.Equal(t, 1, version)
}

func TestNewPersistence_HealthCheck(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	err := p.HealthCheck(ctx)
	assert.NoError(t, err)
}

func TestWorkflowRepository_RoundTrip(t *testing.T) {
	p, ctx, _ := setupTestDB(t)
	repo := p.WorkflowRepository()

	w := testutil.LinearHiringWorkflow()
	w.CreatedAt = time.Now().UTC()
	w.UpdatedAt = w.CreatedAt
	require.NoError(t, repo.Save(ctx, w))

	fetched, err := repo.GetByID(ctx, w.ID)
	require.NoError(t, err)

	assert.Equal(t, w.Name, fetched.Name)
	assert.Equal(t, models.WorkflowStatusDraft, fetched.Status)
	require.Len(t, fetched.Nodes, 4)
	require.Len(t, fetched.Connections, 4)

	// Connections come back ordered by creation sequence.
	for i := range 4 {
		assert.EqualValues(t, i+1, fetched.Connections[i].Seq)
	}

	screen := fetched.NodeByID("screen")
	require.NotNil(t, screen)
	assert.Equal(t, models.NodeTypeInterview, screen.Type)
	assert.Equal(t, "tpl-screen", screen.Config["interview_template_id"])

	conditional := fetched.Connections[0]
	assert.Equal(t, models.ConditionTypeSuccess, conditional.ConditionType)
}

func TestWorkflowRepository_SaveReplacesGraph(t *testing.T) {
	p, ctx, _ := setupTestDB(t)
	repo := p.WorkflowRepository()

	w := testutil.LinearHiringWorkflow()
	w.CreatedAt = time.Now().UTC()
	w.UpdatedAt = w.CreatedAt
	require.NoError(t, repo.Save(ctx, w))

	w.Nodes = w.Nodes[:2]
	w.Connections = w.Connections[:1]
	require.NoError(t, repo.Save(ctx, w))

	fetched, err := repo.GetByID(ctx, w.ID)
	require.NoError(t, err)
	assert.Len(t, fetched.Nodes, 2)
	assert.Len(t, fetched.Connections, 1)
}

func TestWorkflowRepository_SoftDelete(t *testing.T) {
	p, ctx, _ := setupTestDB(t)
	repo := p.WorkflowRepository()

	w := testutil.CreateTestWorkflow()
	w.CreatedAt = time.Now().UTC()
	w.UpdatedAt = w.CreatedAt
	require.NoError(t, repo.Save(ctx, w))

	require.NoError(t, repo.Delete(ctx, w.ID))

	_, err := repo.GetByID(ctx, w.ID)
	require.ErrorIs(t, err, persistence.ErrWorkflowNotFound)

	err = repo.Delete(ctx, w.ID)
	require.ErrorIs(t, err, persistence.ErrWorkflowNotFound)
}

func TestWorkflowRepository_ListPagination(t *testing.T) {
	p, ctx, _ := setupTestDB(t)
	repo := p.WorkflowRepository()

	for range 3 {
		w := testutil.CreateTestWorkflow()
		w.CreatedAt = time.Now().UTC()
		w.UpdatedAt = w.CreatedAt
		require.NoError(t, repo.Save(ctx, w))
	}

	result, err := repo.List(ctx, persistence.ListWorkflowsOptions{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, result.Workflows, 2)
	assert.EqualValues(t, 3, result.TotalCount)
	assert.True(t, result.HasNextPage)

	result, err = repo.List(ctx, persistence.ListWorkflowsOptions{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Len(t, result.Workflows, 1)
	assert.False(t, result.HasNextPage)
}

func newInstance(workflowID, candidateID string) *models.CandidateWorkflow {
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

func seedWorkflow(t *testing.T, ctx context.Context, p *postgresql.Persistence) *models.Workflow {
	t.Helper()

	w := testutil.LinearHiringWorkflow()
	w.CreatedAt = time.Now().UTC()
	w.UpdatedAt = w.CreatedAt
	require.NoError(t, p.WorkflowRepository().Save(ctx, w))

	return w
}

func TestCandidateWorkflowRepository_DuplicateLiveInstance(t *testing.T) {
	p, ctx, _ := setupTestDB(t)
	w := seedWorkflow(t, ctx, p)
	repo := p.CandidateWorkflowRepository()

	require.NoError(t, repo.Create(ctx, newInstance(w.ID, "candidate-1")))

	// The partial unique index rejects a second live instance for the pair.
	err := repo.Create(ctx, newInstance(w.ID, "candidate-1"))
	require.ErrorIs(t, err, persistence.ErrDuplicateCandidateWorkflow)

	// A terminal instance does not block a fresh start.
	finished := newInstance(w.ID, "candidate-2")
	finished.Status = models.CandidateWorkflowStatusWithdrawn
	require.NoError(t, repo.Create(ctx, finished))
	require.NoError(t, repo.Create(ctx, newInstance(w.ID, "candidate-2")))
}

func TestCandidateWorkflowRepository_UpdateVersioned(t *testing.T) {
	p, ctx, _ := setupTestDB(t)
	w := seedWorkflow(t, ctx, p)
	repo := p.CandidateWorkflowRepository()

	instance := newInstance(w.ID, "candidate-1")
	require.NoError(t, repo.Create(ctx, instance))

	stale, err := repo.GetByID(ctx, instance.ID)
	require.NoError(t, err)

	instance.Status = models.CandidateWorkflowStatusOnHold
	instance.HoldReason = "waiting on operator"
	require.NoError(t, repo.UpdateVersioned(ctx, instance))
	assert.EqualValues(t, 1, instance.LockVersion)

	// The second writer lost the race and must get a retryable conflict.
	stale.Status = models.CandidateWorkflowStatusCompleted
	err = repo.UpdateVersioned(ctx, stale)
	require.ErrorIs(t, err, persistence.ErrStaleCandidateWorkflow)

	fetched, err := repo.GetByID(ctx, instance.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CandidateWorkflowStatusOnHold, fetched.Status)
	assert.Equal(t, "waiting on operator", fetched.HoldReason)
	assert.EqualValues(t, 1, fetched.LockVersion)
}

func TestCandidateWorkflowRepository_Queries(t *testing.T) {
	p, ctx, _ := setupTestDB(t)
	w := seedWorkflow(t, ctx, p)
	repo := p.CandidateWorkflowRepository()

	first := newInstance(w.ID, "candidate-1")
	require.NoError(t, repo.Create(ctx, first))

	second := newInstance(w.ID, "candidate-2")
	second.CreatedAt = second.CreatedAt.Add(time.Second)
	second.UpdatedAt = second.CreatedAt
	require.NoError(t, repo.Create(ctx, second))

	live, err := repo.LiveByWorkflowAndCandidate(ctx, w.ID, "candidate-1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, live.ID)

	_, err = repo.LiveByWorkflowAndCandidate(ctx, w.ID, "candidate-3")
	require.ErrorIs(t, err, persistence.ErrCandidateWorkflowNotFound)

	instances, err := repo.ListByWorkflow(ctx, w.ID)
	require.NoError(t, err)
	require.Len(t, instances, 2)
	assert.Equal(t, first.ID, instances[0].ID)

	hasLive, err := repo.HasLiveByWorkflow(ctx, w.ID)
	require.NoError(t, err)
	assert.True(t, hasLive)
}

func newExecution(instanceID, nodeID string, startedAt time.Time) *models.NodeExecution {
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

func TestNodeExecutionRepository_RoundTrip(t *testing.T) {
	p, ctx, _ := setupTestDB(t)
	w := seedWorkflow(t, ctx, p)

	instance := newInstance(w.ID, "candidate-1")
	require.NoError(t, p.CandidateWorkflowRepository().Create(ctx, instance))

	repo := p.NodeExecutionRepository()
	execution := newExecution(instance.ID, "screen", time.Now().UTC())
	require.NoError(t, repo.Create(ctx, execution))

	// A second live attempt for the same node is rejected by the index.
	err := repo.Create(ctx, newExecution(instance.ID, "screen", time.Now().UTC()))
	require.ErrorIs(t, err, persistence.ErrDuplicateNodeExecution)

	fetched, err := repo.GetByID(ctx, execution.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusPending, fetched.Status)
	assert.Empty(t, fetched.Result)

	now := time.Now().UTC()
	fetched.Status = models.ExecutionStatusCompleted
	fetched.Result = models.ExecutionResultPass
	fetched.ExecutionData = map[string]any{"score": 88.5}
	fetched.FinishedAt = &now
	fetched.UpdatedAt = now
	require.NoError(t, repo.Update(ctx, fetched))

	// Once terminal, a retry attempt is allowed again.
	require.NoError(t, repo.Create(ctx, newExecution(instance.ID, "screen", time.Now().UTC())))

	terminal, err := repo.TerminalExists(ctx, instance.ID, "screen")
	require.NoError(t, err)
	assert.True(t, terminal)

	history, err := repo.ListByInstance(ctx, instance.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, models.ExecutionResultPass, history[0].Result)
	assert.InDelta(t, 88.5, history[0].ExecutionData["score"], 0.0001)
}

func TestNodeExecutionRepository_UpdateFreezesTerminalRows(t *testing.T) {
	p, ctx, _ := setupTestDB(t)
	w := seedWorkflow(t, ctx, p)

	instance := newInstance(w.ID, "candidate-1")
	require.NoError(t, p.CandidateWorkflowRepository().Create(ctx, instance))

	repo := p.NodeExecutionRepository()
	execution := newExecution(instance.ID, "screen", time.Now().UTC())
	require.NoError(t, repo.Create(ctx, execution))

	now := time.Now().UTC()
	execution.Status = models.ExecutionStatusCompleted
	execution.Result = models.ExecutionResultPass
	execution.ExecutionData = map[string]any{"score": 91.0}
	execution.FinishedAt = &now
	require.NoError(t, repo.Update(ctx, execution))

	// The status guard in the UPDATE refuses a second write: the terminal
	// row stays frozen even when two completions race.
	overwrite := *execution
	overwrite.Status = models.ExecutionStatusFailed
	overwrite.Result = models.ExecutionResultFail
	overwrite.ExecutionData = map[string]any{"score": 12.0}

	err := repo.Update(ctx, &overwrite)
	require.ErrorIs(t, err, persistence.ErrNodeExecutionFinished)

	err = repo.Update(ctx, newExecution(instance.ID, "assessment", time.Now().UTC()))
	require.ErrorIs(t, err, persistence.ErrNodeExecutionNotFound)

	stored, err := repo.GetByID(ctx, execution.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusCompleted, stored.Status)
	assert.Equal(t, models.ExecutionResultPass, stored.Result)
	assert.InDelta(t, 91.0, stored.ExecutionData["score"], 0.0001)
}

func TestNodeExecutionRepository_ListStale(t *testing.T) {
	p, ctx, _ := setupTestDB(t)
	w := seedWorkflow(t, ctx, p)

	instance := newInstance(w.ID, "candidate-1")
	require.NoError(t, p.CandidateWorkflowRepository().Create(ctx, instance))

	repo := p.NodeExecutionRepository()

	overdue := newExecution(instance.ID, "screen", time.Now().UTC().Add(-100*time.Hour))
	require.NoError(t, repo.Create(ctx, overdue))

	fresh := newExecution(instance.ID, "assessment", time.Now().UTC())
	require.NoError(t, repo.Create(ctx, fresh))

	stale, err := repo.ListStale(ctx, time.Now().UTC().Add(-72*time.Hour))
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, overdue.ID, stale[0].ID)
}

func TestViewerRepository_GrantRevokeList(t *testing.T) {
	p, ctx, _ := setupTestDB(t)
	w := seedWorkflow(t, ctx, p)
	repo := p.ViewerRepository()

	viewer := &models.ProcessViewer{
		WorkflowID: w.ID,
		UserID:     "user-1",
		GrantedBy:  "admin-1",
		CreatedAt:  time.Now().UTC(),
	}
	require.NoError(t, repo.Grant(ctx, viewer))
	require.NoError(t, repo.Grant(ctx, viewer), "granting twice is a no-op")

	viewers, err := repo.ListByWorkflow(ctx, w.ID)
	require.NoError(t, err)
	require.Len(t, viewers, 1)
	assert.Equal(t, "user-1", viewers[0].UserID)

	require.NoError(t, repo.Revoke(ctx, w.ID, "user-1"))

	viewers, err = repo.ListByWorkflow(ctx, w.ID)
	require.NoError(t, err)
	assert.Empty(t, viewers)
}
