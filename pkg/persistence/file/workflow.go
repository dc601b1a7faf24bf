package file

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/hireflow/hireflow/pkg/models"
	"github.com/hireflow/hireflow/pkg/persistence"
)

// WorkflowRepository stores workflow definitions as one JSON document each,
// nodes and connections embedded.
type WorkflowRepository struct {
	root string
	mu   *sync.RWMutex
}

func (r *WorkflowRepository) Save(_ context.Context, workflow *models.Workflow) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := writeDocument(r.root, workflow.ID, workflow); err != nil {
		return persistence.NewWorkflowError("Save", workflow.ID, err)
	}

	return nil
}

func (r *WorkflowRepository) GetByID(_ context.Context, id string) (*models.Workflow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var workflow models.Workflow
	if err := readDocument(r.root, id, &workflow); err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.NewWorkflowError("GetByID", id, persistence.ErrWorkflowNotFound)
		}

		return nil, persistence.NewWorkflowError("GetByID", id, err)
	}

	if workflow.DeletedAt != nil {
		return nil, persistence.NewWorkflowError("GetByID", id, persistence.ErrWorkflowNotFound)
	}

	return &workflow, nil
}

func (r *WorkflowRepository) List(_ context.Context, opts persistence.ListWorkflowsOptions) (*persistence.ListWorkflowsResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var workflows []*models.Workflow

	err := readAll(r.root, func(data []byte) error {
		var workflow models.Workflow
		if err := json.Unmarshal(data, &workflow); err != nil {
			return err
		}

		if workflow.DeletedAt != nil {
			return nil
		}

		if opts.CompanyID != "" && workflow.CompanyID != opts.CompanyID {
			return nil
		}

		if opts.Status != nil && workflow.Status != *opts.Status {
			return nil
		}

		workflows = append(workflows, &workflow)

		return nil
	})
	if err != nil {
		return nil, persistence.NewWorkflowError("List", "", err)
	}

	sort.Slice(workflows, func(i, j int) bool {
		if workflows[i].CreatedAt.Equal(workflows[j].CreatedAt) {
			return workflows[i].ID < workflows[j].ID
		}

		return workflows[i].CreatedAt.After(workflows[j].CreatedAt)
	})

	total := len(workflows)

	if opts.Offset < len(workflows) {
		workflows = workflows[opts.Offset:]
	} else {
		workflows = nil
	}

	hasNext := false
	if opts.Limit > 0 && len(workflows) > opts.Limit {
		workflows = workflows[:opts.Limit]
		hasNext = true
	}

	return &persistence.ListWorkflowsResult{
		Workflows:   workflows,
		TotalCount:  int64(total),
		HasNextPage: hasNext,
	}, nil
}

func (r *WorkflowRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	path := filepath.Join(r.root, id+".json")
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return persistence.NewWorkflowError("Delete", id, persistence.ErrWorkflowNotFound)
		}

		return persistence.NewWorkflowError("Delete", id, err)
	}

	return nil
}
