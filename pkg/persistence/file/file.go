// Package file provides file-based persistence for development and tests.
// Every entity is one JSON document on disk; a process-wide lock stands in
// for the row-level concurrency control of the SQL backends.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/hireflow/hireflow/pkg/persistence"
)

// Persistence implements persistence.Persistence on the local file system.
type Persistence struct {
	root string
	mu   *sync.RWMutex

	workflowRepo  *WorkflowRepository
	candidateRepo *CandidateWorkflowRepository
	executionRepo *NodeExecutionRepository
	viewerRepo    *ViewerRepository
}

// NewPersistence creates a file persistence layer rooted at the given directory.
func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)
	mu := &sync.RWMutex{}

	return &Persistence{
		root:          cleanRoot,
		mu:            mu,
		workflowRepo:  &WorkflowRepository{root: filepath.Join(cleanRoot, "workflows"), mu: mu},
		candidateRepo: &CandidateWorkflowRepository{root: filepath.Join(cleanRoot, "candidate_workflows"), mu: mu},
		executionRepo: &NodeExecutionRepository{root: filepath.Join(cleanRoot, "node_executions"), mu: mu},
		viewerRepo:    &ViewerRepository{root: filepath.Join(cleanRoot, "viewers"), mu: mu},
	}
}

func (p *Persistence) WorkflowRepository() persistence.WorkflowRepository {
	return p.workflowRepo
}

func (p *Persistence) CandidateWorkflowRepository() persistence.CandidateWorkflowRepository {
	return p.candidateRepo
}

func (p *Persistence) NodeExecutionRepository() persistence.NodeExecutionRepository {
	return p.executionRepo
}

func (p *Persistence) ViewerRepository() persistence.ViewerRepository {
	return p.viewerRepo
}

// HealthCheck verifies the root directory is usable.
func (p *Persistence) HealthCheck(_ context.Context) error {
	if err := os.MkdirAll(p.root, 0o755); err != nil {
		return fmt.Errorf("file persistence root unavailable: %w", err)
	}

	return nil
}

// Close is a no-op for file persistence.
func (p *Persistence) Close(_ context.Context) error {
	return nil
}

// writeDocument marshals an entity into <dir>/<id>.json, creating dirs as needed.
func writeDocument(dir, id string, entity any) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(entity, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal document %s: %w", id, err)
	}

	if err := os.WriteFile(filepath.Join(dir, id+".json"), data, 0o644); err != nil {
		return fmt.Errorf("failed to write document %s: %w", id, err)
	}

	return nil
}

// readDocument unmarshals <dir>/<id>.json into entity. Returns os.ErrNotExist
// when the document is missing.
func readDocument(dir, id string, entity any) error {
	data, err := os.ReadFile(filepath.Join(dir, id+".json"))
	if err != nil {
		return err
	}

	return json.Unmarshal(data, entity)
}

// readAll decodes every document in dir via decode(path).
func readAll(dir string, decode func(data []byte) error) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}

		return err
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return err
		}

		if err := decode(data); err != nil {
			return err
		}
	}

	return nil
}
