// Package events defines event types and structures for workflow lifecycle notifications.
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/troupe-dev/troupe/pkg/models"
)

type EventType string

// Topic is the single stream all workflow lifecycle events are published to.
const Topic = "troupe.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Workflow lifecycle events.
	WorkflowRunRequestedEvent EventType = "workflow.run.requested"
	WorkflowStartedEvent      EventType = "workflow.started"
	WorkflowCompletedEvent    EventType = "workflow.completed"
	WorkflowFailedEvent       EventType = "workflow.failed"

	// Step lifecycle events.
	StepStartedEvent   EventType = "step.started"
	StepCompletedEvent EventType = "step.completed"
	StepFailedEvent    EventType = "step.failed"

	// Pool events.
	AgentCreatedEvent EventType = "agent.created"
)

type BaseEvent struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	Timestamp  time.Time      `json:"timestamp"`
	WorkflowID string         `json:"workflow_id"`
	WorkerID   string         `json:"worker_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

func NewBaseEvent(eventType EventType, workflowID string) BaseEvent {
	return BaseEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		WorkflowID: workflowID,
	}
}

// WorkflowRunRequested asks a worker to execute a stored workflow.
type WorkflowRunRequested struct {
	BaseEvent

	RequestedBy string `json:"requested_by,omitempty"`
}

func (w WorkflowRunRequested) GetType() EventType {
	return WorkflowRunRequestedEvent
}

type WorkflowStarted struct {
	BaseEvent

	StepCount int `json:"step_count"`
}

func (w WorkflowStarted) GetType() EventType {
	return WorkflowStartedEvent
}

type WorkflowCompleted struct {
	BaseEvent

	Results  map[string]map[string]any `json:"results,omitempty"`
	Duration time.Duration             `json:"duration"`
}

func (w WorkflowCompleted) GetType() EventType {
	return WorkflowCompletedEvent
}

type WorkflowFailed struct {
	BaseEvent

	Deadlocked bool          `json:"deadlocked"`
	Duration   time.Duration `json:"duration"`
}

func (w WorkflowFailed) GetType() EventType {
	return WorkflowFailedEvent
}

type StepStarted struct {
	BaseEvent

	StepID    string `json:"step_id"`
	AgentType string `json:"agent_type"`
	TaskType  string `json:"task_type"`
}

func (s StepStarted) GetType() EventType {
	return StepStartedEvent
}

type StepCompleted struct {
	BaseEvent

	StepID     string         `json:"step_id"`
	AgentID    string         `json:"agent_id"`
	Result     map[string]any `json:"result,omitempty"`
	DurationMs int64          `json:"duration_ms"`
}

func (s StepCompleted) GetType() EventType {
	return StepCompletedEvent
}

type StepFailed struct {
	BaseEvent

	StepID     string `json:"step_id"`
	AgentID    string `json:"agent_id,omitempty"`
	Error      string `json:"error"`
	DurationMs int64  `json:"duration_ms"`
}

func (s StepFailed) GetType() EventType {
	return StepFailedEvent
}

// AgentCreated records that the pool synthesized a new agent instance
// because no idle instance of the requested type existed.
type AgentCreated struct {
	BaseEvent

	Agent models.AgentInfo `json:"agent"`
}

func (a AgentCreated) GetType() EventType {
	return AgentCreatedEvent
}
