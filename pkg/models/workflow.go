// Package models defines the core domain models for multi-agent workflow orchestration.
package models

import (
	"time"

	"github.com/google/uuid"
)

// WorkflowStatus represents the lifecycle state of a workflow.
type WorkflowStatus string

const (
	WorkflowStatusIdle      WorkflowStatus = "idle"      // Built, not yet executed
	WorkflowStatusRunning   WorkflowStatus = "running"   // Scheduler loop in progress
	WorkflowStatusCompleted WorkflowStatus = "completed" // Every step terminal, none failed
	WorkflowStatusError     WorkflowStatus = "error"     // A step failed or the loop deadlocked
)

// Workflow is an ordered collection of steps plus workflow-level status and
// aggregated results. Insertion order of steps is incidental; only the
// dependency graph governs execution order.
type Workflow struct {
	ID          string                    `json:"id"`
	Name        string                    `json:"name"        validate:"required,min=3"`
	Description string                    `json:"description"`
	Steps       []*Step                   `json:"steps"`
	Status      WorkflowStatus            `json:"status"`
	Results     map[string]map[string]any `json:"results,omitempty"`
	Metadata    map[string]any            `json:"metadata,omitempty"`
	CreatedAt   time.Time                 `json:"created_at"`
	CompletedAt *time.Time                `json:"completed_at,omitempty"`
}

// NewWorkflow creates an empty idle workflow with a fresh id.
func NewWorkflow(name, description string) *Workflow {
	return &Workflow{
		ID:          uuid.New().String(),
		Name:        name,
		Description: description,
		Steps:       make([]*Step, 0),
		Status:      WorkflowStatusIdle,
		Results:     make(map[string]map[string]any),
		CreatedAt:   time.Now().UTC(),
	}
}

// AddStep appends a step to the workflow.
func (w *Workflow) AddStep(step *Step) {
	w.Steps = append(w.Steps, step)
}

// StepByID returns the step with the given id, or nil.
func (w *Workflow) StepByID(id string) *Step {
	for _, step := range w.Steps {
		if step.ID == id {
			return step
		}
	}

	return nil
}

// IsCompleted reports whether every step reached a terminal status. A
// workflow with zero steps is vacuously complete.
func (w *Workflow) IsCompleted() bool {
	for _, step := range w.Steps {
		if !step.IsTerminal() {
			return false
		}
	}

	return true
}

// CollectResults rebuilds the workflow results map from step results. Steps
// that never produced output contribute nothing.
func (w *Workflow) CollectResults() map[string]map[string]any {
	results := make(map[string]map[string]any)

	for _, step := range w.Steps {
		if step.Result != nil {
			results[step.ID] = step.Result
		}
	}

	w.Results = results

	return results
}

// WorkflowResult is the terminal verdict returned by a scheduler run.
type WorkflowResult struct {
	WorkflowID  string                    `json:"workflow_id"`
	Status      WorkflowStatus            `json:"status"`
	Results     map[string]map[string]any `json:"results"`
	CompletedAt *time.Time                `json:"completed_at,omitempty"`
}

// StepReport is the read-only per-step view exposed by status inspection.
type StepReport struct {
	ID        string     `json:"id"`
	AgentType string     `json:"agent_type"`
	TaskType  string     `json:"task_type"`
	Status    StepStatus `json:"status"`
	DependsOn []string   `json:"depends_on,omitempty"`
	Error     string     `json:"error,omitempty"`
}

// Report builds the inspection view of the workflow without mutating it.
func (w *Workflow) Report() []StepReport {
	reports := make([]StepReport, 0, len(w.Steps))

	for _, step := range w.Steps {
		reports = append(reports, StepReport{
			ID:        step.ID,
			AgentType: step.AgentType,
			TaskType:  step.TaskType,
			Status:    step.Status,
			DependsOn: step.DependsOn,
			Error:     step.Error,
		})
	}

	return reports
}
