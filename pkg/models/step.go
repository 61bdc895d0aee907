package models

import (
	"fmt"

	"github.com/google/uuid"
)

// StepStatus represents the lifecycle state of a workflow step.
type StepStatus string

const (
	StepStatusIdle      StepStatus = "idle"      // Not yet dispatched
	StepStatusRunning   StepStatus = "running"   // Dispatched to an agent
	StepStatusCompleted StepStatus = "completed" // Terminal, produced a result
	StepStatusError     StepStatus = "error"     // Terminal, failed
)

// DependencyKeyPrefix namespaces dependency results merged into a step's
// input so they never collide with caller-supplied keys.
const DependencyKeyPrefix = "dependency_"

// DependencyKey returns the merged-input key under which the result of the
// given dependency step is exposed to its dependents.
func DependencyKey(stepID string) string {
	return DependencyKeyPrefix + stepID
}

// Step is a single unit of work inside a workflow. It is bound to an agent
// capability type and may depend on the completion of other steps.
type Step struct {
	ID        string         `json:"id"`
	AgentType string         `json:"agent_type" validate:"required"`
	TaskType  string         `json:"task_type"  validate:"required"`
	Input     map[string]any `json:"input,omitempty"`
	DependsOn []string       `json:"depends_on,omitempty"`
	Status    StepStatus     `json:"status"`
	Result    map[string]any `json:"result,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// NewStep creates an idle step with a fresh id.
func NewStep(agentType, taskType string, input map[string]any, dependsOn []string) *Step {
	if input == nil {
		input = map[string]any{}
	}

	return &Step{
		ID:        uuid.New().String(),
		AgentType: agentType,
		TaskType:  taskType,
		Input:     input,
		DependsOn: dependsOn,
		Status:    StepStatusIdle,
	}
}

// IsTerminal reports whether the step reached a status it never leaves.
func (s *Step) IsTerminal() bool {
	return s.Status == StepStatusCompleted || s.Status == StepStatusError
}

// MarkRunning transitions the step out of idle. Dispatching a step that is
// not idle is a programmer error; the scheduler guards it with the readiness
// check.
func (s *Step) MarkRunning() error {
	if s.Status != StepStatusIdle {
		return fmt.Errorf("step %s: cannot dispatch from status %q", s.ID, s.Status)
	}

	s.Status = StepStatusRunning

	return nil
}

// MarkCompleted records a successful result. Terminal.
func (s *Step) MarkCompleted(result map[string]any) {
	s.Status = StepStatusCompleted
	s.Result = result
}

// MarkFailed records a failure description. Terminal.
func (s *Step) MarkFailed(message string) {
	s.Status = StepStatusError
	s.Error = message
}
