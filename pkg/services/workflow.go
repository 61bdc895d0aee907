package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/troupe-dev/troupe/pkg/eventbus"
	"github.com/troupe-dev/troupe/pkg/events"
	"github.com/troupe-dev/troupe/pkg/models"
	"github.com/troupe-dev/troupe/pkg/persistence"
	"github.com/troupe-dev/troupe/pkg/registry"
	"github.com/troupe-dev/troupe/pkg/workflow"
)

// ErrWorkflowNotFound is returned when a workflow is not found.
var ErrWorkflowNotFound = persistence.ErrWorkflowNotFound

// Workflow is the service layer for building and running workflows. Step
// definitions are validated eagerly at AddStep time so a malformed workflow
// is rejected before anything runs; dispatch-time errors remain the backstop
// for conditions only visible during execution.
type Workflow struct {
	repo      *workflow.Repository
	registry  *registry.Registry
	scheduler *workflow.Scheduler
	eventBus  eventbus.EventPublisher
	validator *validator.Validate
	logger    *slog.Logger
}

func NewWorkflow(
	repo *workflow.Repository,
	reg *registry.Registry,
	scheduler *workflow.Scheduler,
	bus eventbus.EventPublisher,
	logger *slog.Logger,
) *Workflow {
	return &Workflow{
		repo:      repo,
		registry:  reg,
		scheduler: scheduler,
		eventBus:  bus,
		validator: validator.New(validator.WithRequiredStructEnabled()),
		logger:    logger.With("module", "workflow_service"),
	}
}

// HealthCheck checks the health of the persistence layer.
func (s *Workflow) HealthCheck(ctx context.Context) (string, bool) {
	return s.repo.HealthCheck(ctx)
}

// CreateWorkflow builds and persists an empty workflow.
func (s *Workflow) CreateWorkflow(ctx context.Context, name, description string) (*models.Workflow, error) {
	w := models.NewWorkflow(name, description)

	if err := s.validator.Struct(w); err != nil {
		return nil, NewValidationError("CreateWorkflow", "INVALID_WORKFLOW", err.Error(), ErrInvalidRequest)
	}

	created, err := s.repo.Create(ctx, w)
	if err != nil {
		return nil, fmt.Errorf("failed to create workflow: %w", err)
	}

	s.logger.InfoContext(ctx, "Workflow created", "workflow_id", created.ID, "name", created.Name)

	return created, nil
}

// AddStepRequest describes a step to append to a workflow.
type AddStepRequest struct {
	ID        string         `validate:"omitempty,min=1"`
	AgentType string         `validate:"required"`
	TaskType  string         `validate:"required"`
	Input     map[string]any `validate:"-"`
	DependsOn []string       `validate:"-"`
}

// AddStep validates and appends a step. It rejects unknown agent types,
// dependencies that do not name existing steps, self-dependencies, duplicate
// ids, and any mutation once the workflow has left the idle status.
func (s *Workflow) AddStep(ctx context.Context, workflowID string, req AddStepRequest) (*models.Step, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, NewValidationError("AddStep", "INVALID_STEP", err.Error(), ErrInvalidRequest)
	}

	w, err := s.repo.FetchByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	if w.Status != models.WorkflowStatusIdle {
		return nil, NewValidationError("AddStep", "WORKFLOW_STARTED",
			fmt.Sprintf("workflow %s is %s and can no longer be modified", workflowID, w.Status),
			ErrWorkflowAlreadyStarted)
	}

	step := models.NewStep(req.AgentType, req.TaskType, req.Input, req.DependsOn)
	if req.ID != "" {
		step.ID = req.ID
	}

	if err := s.validateStep(w, step); err != nil {
		return nil, err
	}

	w.AddStep(step)

	if _, err := s.repo.Update(ctx, w); err != nil {
		return nil, fmt.Errorf("failed to save workflow: %w", err)
	}

	s.logger.InfoContext(ctx, "Step added",
		"workflow_id", workflowID,
		"step_id", step.ID,
		"agent_type", step.AgentType,
	)

	return step, nil
}

func (s *Workflow) validateStep(w *models.Workflow, step *models.Step) error {
	if !s.registry.IsRegistered(step.AgentType) {
		return NewValidationError("AddStep", "UNKNOWN_AGENT_TYPE",
			fmt.Sprintf("agent type %q is not registered", step.AgentType),
			ErrUnknownAgentType)
	}

	if w.StepByID(step.ID) != nil {
		return NewValidationError("AddStep", "DUPLICATE_STEP_ID",
			fmt.Sprintf("step %q already exists", step.ID),
			ErrDuplicateStepID)
	}

	for _, depID := range step.DependsOn {
		if depID == step.ID {
			return NewValidationError("AddStep", "SELF_DEPENDENCY",
				fmt.Sprintf("step %q depends on itself", step.ID),
				ErrSelfDependency)
		}

		if w.StepByID(depID) == nil {
			return NewValidationError("AddStep", "UNKNOWN_DEPENDENCY",
				fmt.Sprintf("dependency %q does not name an existing step", depID),
				ErrUnknownDependency)
		}
	}

	if err := s.registry.ValidateTaskInput(step.AgentType, step.Input); err != nil {
		return NewValidationError("AddStep", "INVALID_TASK_INPUT", err.Error(), ErrInvalidRequest)
	}

	return nil
}

// RunWorkflow executes the workflow synchronously and persists the terminal
// state. Step failures and deadlocks come back in the result status, never as
// an error.
func (s *Workflow) RunWorkflow(ctx context.Context, id string) (*models.WorkflowResult, error) {
	w, err := s.repo.FetchByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if w.Status != models.WorkflowStatusIdle {
		return nil, NewValidationError("RunWorkflow", "NOT_RUNNABLE",
			fmt.Sprintf("workflow %s is %s", id, w.Status),
			ErrWorkflowNotRunnable)
	}

	result := s.scheduler.Run(ctx, w)

	if _, err := s.repo.Update(ctx, w); err != nil {
		s.logger.ErrorContext(ctx, "Failed to persist workflow result", "workflow_id", id, "error", err)
	}

	return result, nil
}

// DispatchWorkflow requests an asynchronous run via the event bus. A worker
// picks up the request and drives the workflow to completion.
func (s *Workflow) DispatchWorkflow(ctx context.Context, id, requestedBy string) error {
	w, err := s.repo.FetchByID(ctx, id)
	if err != nil {
		return err
	}

	if w.Status != models.WorkflowStatusIdle {
		return NewValidationError("DispatchWorkflow", "NOT_RUNNABLE",
			fmt.Sprintf("workflow %s is %s", id, w.Status),
			ErrWorkflowNotRunnable)
	}

	event := events.WorkflowRunRequested{
		BaseEvent:   events.NewBaseEvent(events.WorkflowRunRequestedEvent, id),
		RequestedBy: requestedBy,
	}

	if err := s.eventBus.Publish(ctx, id, event); err != nil {
		return fmt.Errorf("failed to publish run request: %w", err)
	}

	s.logger.InfoContext(ctx, "Workflow run dispatched", "workflow_id", id, "requested_by", requestedBy)

	return nil
}

// GetStatus returns the per-step report for a workflow.
func (s *Workflow) GetStatus(ctx context.Context, id string) (*WorkflowStatus, error) {
	w, err := s.repo.FetchByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return &WorkflowStatus{
		WorkflowID: w.ID,
		Status:     w.Status,
		Steps:      w.Report(),
	}, nil
}

// WorkflowStatus is a read-only snapshot of workflow progress.
type WorkflowStatus struct {
	WorkflowID string                `json:"workflow_id"`
	Status     models.WorkflowStatus `json:"status"`
	Steps      []models.StepReport   `json:"steps"`
}

// ListWorkflows returns all persisted workflows.
func (s *Workflow) ListWorkflows(ctx context.Context) ([]*models.Workflow, error) {
	return s.repo.FetchAll(ctx)
}

// GetWorkflow returns a single workflow by id.
func (s *Workflow) GetWorkflow(ctx context.Context, id string) (*models.Workflow, error) {
	return s.repo.FetchByID(ctx, id)
}

// DeleteWorkflow removes a workflow. Running workflows cannot be deleted.
func (s *Workflow) DeleteWorkflow(ctx context.Context, id string) error {
	w, err := s.repo.FetchByID(ctx, id)
	if err != nil {
		return err
	}

	if w.Status == models.WorkflowStatusRunning {
		return NewValidationError("DeleteWorkflow", "WORKFLOW_RUNNING",
			fmt.Sprintf("workflow %s is running", id),
			ErrWorkflowAlreadyStarted)
	}

	return s.repo.Delete(ctx, id)
}

// AgentTypes returns the registered agent capabilities, sorted.
func (s *Workflow) AgentTypes() []string {
	return s.registry.AgentTypes()
}
