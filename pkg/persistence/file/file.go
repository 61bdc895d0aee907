// Package file provides file-based persistence for workflows, one JSON
// document per workflow under <root>/workflows.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/troupe-dev/troupe/pkg/models"
	"github.com/troupe-dev/troupe/pkg/persistence"
)

const workflowDirPerm = 0o755
const workflowFilePerm = 0o644

// Persistence implements persistence.Persistence on the local file system.
type Persistence struct {
	root string
}

func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{root: cleanRoot}
}

func (fp *Persistence) workflowsDir() string {
	return path.Join(fp.root, "workflows")
}

func (fp *Persistence) workflowPath(id string) string {
	return path.Join(fp.workflowsDir(), id+".json")
}

func (fp *Persistence) Workflows(ctx context.Context) ([]*models.Workflow, error) {
	root := os.DirFS(fp.workflowsDir())

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list workflow files: %w", err)
	}

	workflows := make([]*models.Workflow, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		workflow, err := fp.WorkflowByID(ctx, strings.TrimSuffix(file, ".json"))
		if err != nil {
			return nil, err
		}

		workflows = append(workflows, workflow)
	}

	return workflows, nil
}

func (fp *Persistence) WorkflowByID(_ context.Context, id string) (*models.Workflow, error) {
	body, err := os.ReadFile(fp.workflowPath(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, persistence.NewWorkflowError("WorkflowByID", id, persistence.ErrWorkflowNotFound)
		}

		return nil, persistence.NewWorkflowError("WorkflowByID", id, err)
	}

	var workflow models.Workflow

	if err := json.Unmarshal(body, &workflow); err != nil {
		return nil, persistence.NewWorkflowError("WorkflowByID", id, err)
	}

	return &workflow, nil
}

func (fp *Persistence) SaveWorkflow(_ context.Context, workflow *models.Workflow) error {
	if err := os.MkdirAll(fp.workflowsDir(), workflowDirPerm); err != nil {
		return persistence.NewWorkflowError("SaveWorkflow", workflow.ID, err)
	}

	body, err := json.MarshalIndent(workflow, "", "  ")
	if err != nil {
		return persistence.NewWorkflowError("SaveWorkflow", workflow.ID, err)
	}

	if err := os.WriteFile(fp.workflowPath(workflow.ID), body, workflowFilePerm); err != nil {
		return persistence.NewWorkflowError("SaveWorkflow", workflow.ID, err)
	}

	return nil
}

func (fp *Persistence) DeleteWorkflow(_ context.Context, id string) error {
	err := os.Remove(fp.workflowPath(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return persistence.NewWorkflowError("DeleteWorkflow", id, persistence.ErrWorkflowNotFound)
		}

		return persistence.NewWorkflowError("DeleteWorkflow", id, err)
	}

	return nil
}

// HealthCheck verifies the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

// Close performs any necessary cleanup. Nothing to clean up for files.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}
