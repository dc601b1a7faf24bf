package file

import (
	"context"
	"encoding/json"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/hireflow/hireflow/pkg/models"
	"github.com/hireflow/hireflow/pkg/persistence"
)

// NodeExecutionRepository stores one JSON document per execution.
type NodeExecutionRepository struct {
	root string
	mu   *sync.RWMutex
}

func (r *NodeExecutionRepository) Create(_ context.Context, execution *models.NodeExecution) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !execution.Terminal() {
		live, err := r.liveLocked(execution.CandidateWorkflowID, execution.NodeID)
		if err != nil {
			return persistence.NewExecutionError("Create", execution.ID, err)
		}

		if live != nil {
			return persistence.NewExecutionError("Create", execution.ID, persistence.ErrDuplicateNodeExecution)
		}
	}

	if err := writeDocument(r.root, execution.ID, execution); err != nil {
		return persistence.NewExecutionError("Create", execution.ID, err)
	}

	return nil
}

func (r *NodeExecutionRepository) GetByID(_ context.Context, id string) (*models.NodeExecution, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var execution models.NodeExecution
	if err := readDocument(r.root, id, &execution); err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.NewExecutionError("GetByID", id, persistence.ErrNodeExecutionNotFound)
		}

		return nil, persistence.NewExecutionError("GetByID", id, err)
	}

	return &execution, nil
}

func (r *NodeExecutionRepository) Update(_ context.Context, execution *models.NodeExecution) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var stored models.NodeExecution
	if err := readDocument(r.root, execution.ID, &stored); err != nil {
		if os.IsNotExist(err) {
			return persistence.NewExecutionError("Update", execution.ID, persistence.ErrNodeExecutionNotFound)
		}

		return persistence.NewExecutionError("Update", execution.ID, err)
	}

	// Checked under the same lock as the write: terminal rows are frozen.
	if stored.Terminal() {
		return persistence.NewExecutionError("Update", execution.ID, persistence.ErrNodeExecutionFinished)
	}

	if err := writeDocument(r.root, execution.ID, execution); err != nil {
		return persistence.NewExecutionError("Update", execution.ID, err)
	}

	return nil
}

func (r *NodeExecutionRepository) LiveByInstanceAndNode(_ context.Context, candidateWorkflowID, nodeID string) (*models.NodeExecution, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	live, err := r.liveLocked(candidateWorkflowID, nodeID)
	if err != nil {
		return nil, persistence.NewExecutionError("LiveByInstanceAndNode", "", err)
	}

	if live == nil {
		return nil, persistence.NewExecutionError("LiveByInstanceAndNode", "", persistence.ErrNodeExecutionNotFound)
	}

	return live, nil
}

func (r *NodeExecutionRepository) TerminalExists(_ context.Context, candidateWorkflowID, nodeID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	found := false

	err := readAll(r.root, func(data []byte) error {
		var execution models.NodeExecution
		if err := json.Unmarshal(data, &execution); err != nil {
			return err
		}

		if execution.CandidateWorkflowID == candidateWorkflowID && execution.NodeID == nodeID && execution.Terminal() {
			found = true
		}

		return nil
	})
	if err != nil {
		return false, persistence.NewExecutionError("TerminalExists", "", err)
	}

	return found, nil
}

func (r *NodeExecutionRepository) ListByInstance(_ context.Context, candidateWorkflowID string) ([]*models.NodeExecution, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var executions []*models.NodeExecution

	err := readAll(r.root, func(data []byte) error {
		var execution models.NodeExecution
		if err := json.Unmarshal(data, &execution); err != nil {
			return err
		}

		if execution.CandidateWorkflowID == candidateWorkflowID {
			executions = append(executions, &execution)
		}

		return nil
	})
	if err != nil {
		return nil, persistence.NewExecutionError("ListByInstance", "", err)
	}

	sort.Slice(executions, func(i, j int) bool {
		if executions[i].CreatedAt.Equal(executions[j].CreatedAt) {
			return executions[i].ID < executions[j].ID
		}

		return executions[i].CreatedAt.Before(executions[j].CreatedAt)
	})

	return executions, nil
}

func (r *NodeExecutionRepository) ListStale(_ context.Context, startedBefore time.Time) ([]*models.NodeExecution, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var executions []*models.NodeExecution

	err := readAll(r.root, func(data []byte) error {
		var execution models.NodeExecution
		if err := json.Unmarshal(data, &execution); err != nil {
			return err
		}

		if !execution.Terminal() && execution.StartedAt != nil && execution.StartedAt.Before(startedBefore) {
			executions = append(executions, &execution)
		}

		return nil
	})
	if err != nil {
		return nil, persistence.NewExecutionError("ListStale", "", err)
	}

	sort.Slice(executions, func(i, j int) bool {
		if executions[i].CreatedAt.Equal(executions[j].CreatedAt) {
			return executions[i].ID < executions[j].ID
		}

		return executions[i].CreatedAt.Before(executions[j].CreatedAt)
	})

	return executions, nil
}

func (r *NodeExecutionRepository) liveLocked(candidateWorkflowID, nodeID string) (*models.NodeExecution, error) {
	var live *models.NodeExecution

	err := readAll(r.root, func(data []byte) error {
		var execution models.NodeExecution
		if err := json.Unmarshal(data, &execution); err != nil {
			return err
		}

		if execution.CandidateWorkflowID == candidateWorkflowID && execution.NodeID == nodeID && !execution.Terminal() {
			live = &execution
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return live, nil
}
