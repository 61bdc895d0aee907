package workflow

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/troupe-dev/troupe/pkg/models"
	"github.com/troupe-dev/troupe/pkg/persistence"
)

// Repository mediates workflow access on top of a persistence backend.
type Repository struct {
	persistence persistence.Persistence
}

func NewRepository(persistence persistence.Persistence) *Repository {
	return &Repository{
		persistence: persistence,
	}
}

func (r *Repository) HealthCheck(ctx context.Context) (string, bool) {
	if r.persistence == nil {
		return "Persistence layer not initialized", false
	}

	if err := r.persistence.HealthCheck(ctx); err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

func (r *Repository) FetchAll(ctx context.Context) ([]*models.Workflow, error) {
	workflows, err := r.persistence.Workflows(ctx)
	if err != nil {
		return make([]*models.Workflow, 0), err
	}

	return workflows, nil
}

func (r *Repository) FetchByID(ctx context.Context, id string) (*models.Workflow, error) {
	return r.persistence.WorkflowByID(ctx, id)
}

func (r *Repository) Create(ctx context.Context, workflow *models.Workflow) (*models.Workflow, error) {
	if workflow.ID == "" {
		workflow.ID = uuid.New().String()
	}

	if workflow.CreatedAt.IsZero() {
		workflow.CreatedAt = time.Now().UTC()
	}

	if workflow.Status == "" {
		workflow.Status = models.WorkflowStatusIdle
	}

	if err := r.persistence.SaveWorkflow(ctx, workflow); err != nil {
		return nil, err
	}

	return workflow, nil
}

func (r *Repository) Update(ctx context.Context, workflow *models.Workflow) (*models.Workflow, error) {
	existing, err := r.persistence.WorkflowByID(ctx, workflow.ID)
	if err != nil {
		return nil, err
	}

	workflow.CreatedAt = existing.CreatedAt

	if err := r.persistence.SaveWorkflow(ctx, workflow); err != nil {
		return nil, err
	}

	return workflow, nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	if _, err := r.persistence.WorkflowByID(ctx, id); err != nil {
		return err
	}

	return r.persistence.DeleteWorkflow(ctx, id)
}

// FetchRunnable returns workflows that have not been executed yet.
func (r *Repository) FetchRunnable(ctx context.Context) ([]*models.Workflow, error) {
	all, err := r.FetchAll(ctx)
	if err != nil {
		return nil, err
	}

	runnable := make([]*models.Workflow, 0)

	for _, workflow := range all {
		if workflow.Status == models.WorkflowStatusIdle {
			runnable = append(runnable, workflow)
		}
	}

	return runnable, nil
}
