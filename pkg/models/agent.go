package models

// AgentStatus represents the availability of an agent pool entry.
type AgentStatus string

const (
	AgentStatusIdle    AgentStatus = "idle"    // Eligible for assignment
	AgentStatusRunning AgentStatus = "running" // Executing a task
)

// AgentInfo is the pool's view of a registered agent instance. Entries
// persist across workflow executions.
type AgentInfo struct {
	ID     string      `json:"id"`
	Type   string      `json:"type"`
	Status AgentStatus `json:"status"`
}

// AgentTask is the request handed to an agent for a single step execution.
// Input carries the step's caller-supplied keys plus the namespaced
// dependency results.
type AgentTask struct {
	ID         string         `json:"id"`
	WorkflowID string         `json:"workflow_id"`
	StepID     string         `json:"step_id"`
	TaskType   string         `json:"task_type"`
	Input      map[string]any `json:"input,omitempty"`
}
