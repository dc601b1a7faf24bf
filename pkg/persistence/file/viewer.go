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

// ViewerRepository stores viewer grants per workflow, one document per grant
// under viewers/<workflow-id>/.
type ViewerRepository struct {
	root string
	mu   *sync.RWMutex
}

func (r *ViewerRepository) Grant(_ context.Context, viewer *models.ProcessViewer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	dir := filepath.Join(r.root, viewer.WorkflowID)
	if err := writeDocument(dir, viewer.UserID, viewer); err != nil {
		return persistence.NewWorkflowError("Grant", viewer.WorkflowID, err)
	}

	return nil
}

func (r *ViewerRepository) Revoke(_ context.Context, workflowID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	path := filepath.Join(r.root, workflowID, userID+".json")
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return persistence.NewWorkflowError("Revoke", workflowID, err)
	}

	return nil
}

func (r *ViewerRepository) ListByWorkflow(_ context.Context, workflowID string) ([]*models.ProcessViewer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var viewers []*models.ProcessViewer

	err := readAll(filepath.Join(r.root, workflowID), func(data []byte) error {
		var viewer models.ProcessViewer
		if err := json.Unmarshal(data, &viewer); err != nil {
			return err
		}

		viewers = append(viewers, &viewer)

		return nil
	})
	if err != nil {
		return nil, persistence.NewWorkflowError("ListByWorkflow", workflowID, err)
	}

	sort.Slice(viewers, func(i, j int) bool {
		return viewers[i].UserID < viewers[j].UserID
	})

	return viewers, nil
}
