// Package web provides HTTP request and response types for the workflow API.
package web

// CreateWorkflowRequest represents the request body for creating a new workflow.
type CreateWorkflowRequest struct {
	Name        string `json:"name"        validate:"required,min=3"`
	Description string `json:"description"`
}

// AddStepRequest represents the request body for appending a step to a workflow.
type AddStepRequest struct {
	ID        string         `json:"id,omitempty"         validate:"omitempty,min=1"`
	AgentType string         `json:"agent_type"           validate:"required"`
	TaskType  string         `json:"task_type"            validate:"required"`
	Input     map[string]any `json:"input,omitempty"`
	DependsOn []string       `json:"depends_on,omitempty"`
}

// DispatchWorkflowRequest represents the request body for an async run request.
type DispatchWorkflowRequest struct {
	RequestedBy string `json:"requested_by,omitempty"`
}
