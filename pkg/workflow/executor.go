package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/troupe-dev/troupe/pkg/eventbus"
	"github.com/troupe-dev/troupe/pkg/events"
	"github.com/troupe-dev/troupe/pkg/models"
	"github.com/troupe-dev/troupe/pkg/pool"
)

// StepExecutor binds a ready step to an agent, merges dependency outputs into
// the step's input, invokes the agent, and reduces the result back onto the
// step. It performs no retries; a failed invocation is terminal for the step.
type StepExecutor struct {
	pool     *pool.Pool
	eventBus eventbus.EventPublisher
	logger   *slog.Logger
}

func NewStepExecutor(agentPool *pool.Pool, bus eventbus.EventPublisher, logger *slog.Logger) *StepExecutor {
	return &StepExecutor{
		pool:     agentPool,
		eventBus: bus,
		logger:   logger.With("module", "step_executor"),
	}
}

// Execute runs a single step to its terminal status. It must only be invoked
// on steps already marked running. All failure modes, including panics from
// the agent, are reduced to the step's error status; Execute never lets them
// escape to the scheduler loop.
func (e *StepExecutor) Execute(ctx context.Context, w *models.Workflow, step *models.Step) {
	logger := e.logger.With(
		"workflow_id", w.ID,
		"step_id", step.ID,
		"agent_type", step.AgentType,
		"task_type", step.TaskType,
	)

	started := time.Now()

	defer func() {
		if r := recover(); r != nil {
			message := fmt.Sprintf("step executor panic: %v", r)
			logger.ErrorContext(ctx, "Recovered step executor panic", "panic", r)
			step.MarkFailed(message)
			e.publishStepFailed(ctx, w, step, "", started)
		}
	}()

	lease, err := e.pool.Acquire(step.AgentType)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to acquire agent", "error", err)
		step.MarkFailed(err.Error())
		e.publishStepFailed(ctx, w, step, "", started)

		return
	}
	defer lease.Release()

	logger = logger.With("agent_id", lease.AgentID())

	if lease.Created() {
		e.publish(ctx, w.ID, events.AgentCreated{
			BaseEvent: events.NewBaseEvent(events.AgentCreatedEvent, w.ID),
			Agent: models.AgentInfo{
				ID:     lease.AgentID(),
				Type:   step.AgentType,
				Status: models.AgentStatusRunning,
			},
		})
	}

	task := models.AgentTask{
		ID:         uuid.New().String(),
		WorkflowID: w.ID,
		StepID:     step.ID,
		TaskType:   step.TaskType,
		Input:      MergeInput(w, step),
	}

	logger.InfoContext(ctx, "Executing step")

	output, err := lease.Agent().ExecuteTask(ctx, task, logger)
	if err != nil {
		logger.ErrorContext(ctx, "Step execution failed", "error", err)
		step.MarkFailed(err.Error())
		e.publishStepFailed(ctx, w, step, lease.AgentID(), started)

		return
	}

	step.MarkCompleted(output)
	logger.InfoContext(ctx, "Step completed", "duration", time.Since(started))

	e.publish(ctx, w.ID, events.StepCompleted{
		BaseEvent:  events.NewBaseEvent(events.StepCompletedEvent, w.ID),
		StepID:     step.ID,
		AgentID:    lease.AgentID(),
		Result:     output,
		DurationMs: time.Since(started).Milliseconds(),
	})
}

// MergeInput builds the input handed to the agent: a copy of the step's own
// input plus one namespaced dependency_<id> entry per dependency that
// produced a result. Caller-supplied keys are never overwritten, even when
// one collides with a dependency key.
func MergeInput(w *models.Workflow, step *models.Step) map[string]any {
	merged := make(map[string]any, len(step.Input)+len(step.DependsOn))

	for k, v := range step.Input {
		merged[k] = v
	}

	for _, depID := range step.DependsOn {
		key := models.DependencyKey(depID)
		if _, taken := merged[key]; taken {
			continue
		}

		dep := w.StepByID(depID)
		if dep != nil && dep.Result != nil {
			merged[key] = dep.Result
		}
	}

	return merged
}

func (e *StepExecutor) publishStepFailed(ctx context.Context, w *models.Workflow, step *models.Step, agentID string, started time.Time) {
	e.publish(ctx, w.ID, events.StepFailed{
		BaseEvent:  events.NewBaseEvent(events.StepFailedEvent, w.ID),
		StepID:     step.ID,
		AgentID:    agentID,
		Error:      step.Error,
		DurationMs: time.Since(started).Milliseconds(),
	})
}

// publish is best-effort: event delivery problems never affect step outcome.
func (e *StepExecutor) publish(ctx context.Context, key string, event eventbus.Event) {
	if e.eventBus == nil {
		return
	}

	if err := e.eventBus.Publish(ctx, key, event); err != nil {
		e.logger.WarnContext(ctx, "Failed to publish event", "event_type", event.GetType(), "error", err)
	}
}
