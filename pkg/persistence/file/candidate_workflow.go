package file

import (
	"context"
	"encoding/json"
	"os"
	"sort"
	"sync"

	"github.com/hireflow/hireflow/pkg/models"
	"github.com/hireflow/hireflow/pkg/persistence"
)

// CandidateWorkflowRepository stores one JSON document per candidate instance.
// UpdateVersioned emulates the SQL backends' optimistic locking under the
// process-wide mutex.
type CandidateWorkflowRepository struct {
	root string
	mu   *sync.RWMutex
}

func (r *CandidateWorkflowRepository) Create(_ context.Context, instance *models.CandidateWorkflow) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if instance.Live() {
		live, err := r.liveLocked(instance.WorkflowID, instance.CandidateID)
		if err != nil {
			return persistence.NewInstanceError("Create", instance.ID, err)
		}

		if live != nil {
			return persistence.NewInstanceError("Create", instance.ID, persistence.ErrDuplicateCandidateWorkflow)
		}
	}

	if err := writeDocument(r.root, instance.ID, instance); err != nil {
		return persistence.NewInstanceError("Create", instance.ID, err)
	}

	return nil
}

func (r *CandidateWorkflowRepository) GetByID(_ context.Context, id string) (*models.CandidateWorkflow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var instance models.CandidateWorkflow
	if err := readDocument(r.root, id, &instance); err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.NewInstanceError("GetByID", id, persistence.ErrCandidateWorkflowNotFound)
		}

		return nil, persistence.NewInstanceError("GetByID", id, err)
	}

	return &instance, nil
}

func (r *CandidateWorkflowRepository) LiveByWorkflowAndCandidate(_ context.Context, workflowID, candidateID string) (*models.CandidateWorkflow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	live, err := r.liveLocked(workflowID, candidateID)
	if err != nil {
		return nil, persistence.NewInstanceError("LiveByWorkflowAndCandidate", "", err)
	}

	if live == nil {
		return nil, persistence.NewInstanceError("LiveByWorkflowAndCandidate", "", persistence.ErrCandidateWorkflowNotFound)
	}

	return live, nil
}

func (r *CandidateWorkflowRepository) ListByWorkflow(_ context.Context, workflowID string) ([]*models.CandidateWorkflow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var instances []*models.CandidateWorkflow

	err := readAll(r.root, func(data []byte) error {
		var instance models.CandidateWorkflow
		if err := json.Unmarshal(data, &instance); err != nil {
			return err
		}

		if instance.WorkflowID == workflowID {
			instances = append(instances, &instance)
		}

		return nil
	})
	if err != nil {
		return nil, persistence.NewInstanceError("ListByWorkflow", "", err)
	}

	sort.Slice(instances, func(i, j int) bool {
		if instances[i].CreatedAt.Equal(instances[j].CreatedAt) {
			return instances[i].ID < instances[j].ID
		}

		return instances[i].CreatedAt.Before(instances[j].CreatedAt)
	})

	return instances, nil
}

func (r *CandidateWorkflowRepository) HasLiveByWorkflow(_ context.Context, workflowID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	found := false

	err := readAll(r.root, func(data []byte) error {
		var instance models.CandidateWorkflow
		if err := json.Unmarshal(data, &instance); err != nil {
			return err
		}

		if instance.WorkflowID == workflowID && instance.Live() {
			found = true
		}

		return nil
	})
	if err != nil {
		return false, persistence.NewInstanceError("HasLiveByWorkflow", "", err)
	}

	return found, nil
}

// UpdateVersioned writes the instance only if the stored lock version still
// matches, then bumps the version on disk and on the passed struct.
func (r *CandidateWorkflowRepository) UpdateVersioned(_ context.Context, instance *models.CandidateWorkflow) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var stored models.CandidateWorkflow
	if err := readDocument(r.root, instance.ID, &stored); err != nil {
		if os.IsNotExist(err) {
			return persistence.NewInstanceError("UpdateVersioned", instance.ID, persistence.ErrCandidateWorkflowNotFound)
		}

		return persistence.NewInstanceError("UpdateVersioned", instance.ID, err)
	}

	if stored.LockVersion != instance.LockVersion {
		return persistence.NewInstanceError("UpdateVersioned", instance.ID, persistence.ErrStaleCandidateWorkflow)
	}

	instance.LockVersion++

	if err := writeDocument(r.root, instance.ID, instance); err != nil {
		instance.LockVersion--

		return persistence.NewInstanceError("UpdateVersioned", instance.ID, err)
	}

	return nil
}

// liveLocked scans for a live instance of the candidate in the workflow.
// Callers must hold the mutex.
func (r *CandidateWorkflowRepository) liveLocked(workflowID, candidateID string) (*models.CandidateWorkflow, error) {
	var live *models.CandidateWorkflow

	err := readAll(r.root, func(data []byte) error {
		var instance models.CandidateWorkflow
		if err := json.Unmarshal(data, &instance); err != nil {
			return err
		}

		if instance.WorkflowID == workflowID && instance.CandidateID == candidateID && instance.Live() {
			live = &instance
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return live, nil
}
