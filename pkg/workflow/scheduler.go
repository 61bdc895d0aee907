package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/troupe-dev/troupe/pkg/eventbus"
	"github.com/troupe-dev/troupe/pkg/events"
	"github.com/troupe-dev/troupe/pkg/models"
)

// readinessYield bounds the wait before re-evaluating readiness when the
// ready set is transiently empty. Keeps the loop from busy-spinning.
const readinessYield = 10 * time.Millisecond

// Scheduler drives a workflow's dependency DAG to completion, wave by wave.
// Each wave is the full ready set dispatched concurrently; the control loop
// suspends until the whole wave settles before re-evaluating readiness, so a
// step in wave N+1 never starts before wave N completed, even when the two
// share no dependency.
type Scheduler struct {
	executor *StepExecutor
	eventBus eventbus.EventPublisher
	logger   *slog.Logger
}

func NewScheduler(executor *StepExecutor, bus eventbus.EventPublisher, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		executor: executor,
		eventBus: bus,
		logger:   logger.With("module", "scheduler"),
	}
}

// Run executes the workflow to a terminal status and returns the verdict.
// Step failures and deadlocks are encoded in the returned status; Run never
// propagates them as errors.
func (s *Scheduler) Run(ctx context.Context, w *models.Workflow) *models.WorkflowResult {
	logger := s.logger.With("workflow_id", w.ID, "workflow_name", w.Name)

	started := time.Now()
	deadlocked := false

	w.Status = models.WorkflowStatusRunning
	logger.InfoContext(ctx, "Starting workflow execution", "steps", len(w.Steps))

	s.publish(ctx, w.ID, events.WorkflowStarted{
		BaseEvent: events.NewBaseEvent(events.WorkflowStartedEvent, w.ID),
		StepCount: len(w.Steps),
	})

	for !w.IsCompleted() {
		ready := ReadySteps(w)

		if len(ready) == 0 {
			stuck := StuckSteps(w)
			if len(stuck) > 0 {
				// Every remaining idle step has an unmet or permanently
				// unmeetable dependency. No further wave can make progress.
				logger.ErrorContext(ctx, "Workflow is deadlocked, no ready steps available",
					"stuck_steps", len(stuck))

				deadlocked = true

				break
			}

			// Transient empty-ready state; yield instead of spinning.
			select {
			case <-ctx.Done():
				deadlocked = true
			case <-time.After(readinessYield):
				continue
			}

			break
		}

		s.dispatchWave(ctx, w, ready, logger)
	}

	if deadlocked || s.anyStepFailed(w) {
		w.Status = models.WorkflowStatusError
	} else {
		w.Status = models.WorkflowStatusCompleted
		completedAt := time.Now().UTC()
		w.CompletedAt = &completedAt
	}

	w.CollectResults()

	logger.InfoContext(ctx, "Workflow execution finished",
		"status", w.Status,
		"duration", time.Since(started),
	)

	switch w.Status {
	case models.WorkflowStatusCompleted:
		s.publish(ctx, w.ID, events.WorkflowCompleted{
			BaseEvent: events.NewBaseEvent(events.WorkflowCompletedEvent, w.ID),
			Results:   w.Results,
			Duration:  time.Since(started),
		})
	default:
		s.publish(ctx, w.ID, events.WorkflowFailed{
			BaseEvent:  events.NewBaseEvent(events.WorkflowFailedEvent, w.ID),
			Deadlocked: deadlocked,
			Duration:   time.Since(started),
		})
	}

	return &models.WorkflowResult{
		WorkflowID:  w.ID,
		Status:      w.Status,
		Results:     w.Results,
		CompletedAt: w.CompletedAt,
	}
}

// dispatchWave marks every ready step running, dispatches all of them
// concurrently, and joins the whole batch before returning. Ordering within
// the wave is unspecified.
func (s *Scheduler) dispatchWave(ctx context.Context, w *models.Workflow, ready []*models.Step, logger *slog.Logger) {
	logger.InfoContext(ctx, "Dispatching wave", "wave_size", len(ready))

	var wg sync.WaitGroup

	for _, step := range ready {
		if err := step.MarkRunning(); err != nil {
			// Readiness only selects idle steps; anything else is a defect.
			panic(err)
		}

		s.publish(ctx, w.ID, events.StepStarted{
			BaseEvent: events.NewBaseEvent(events.StepStartedEvent, w.ID),
			StepID:    step.ID,
			AgentType: step.AgentType,
			TaskType:  step.TaskType,
		})
	}

	for _, step := range ready {
		wg.Add(1)

		go func(step *models.Step) {
			defer wg.Done()
			s.executor.Execute(ctx, w, step)
		}(step)
	}

	wg.Wait()
}

func (s *Scheduler) anyStepFailed(w *models.Workflow) bool {
	for _, step := range w.Steps {
		if step.Status == models.StepStatusError {
			return true
		}
	}

	return false
}

func (s *Scheduler) publish(ctx context.Context, key string, event eventbus.Event) {
	if s.eventBus == nil {
		return
	}

	if err := s.eventBus.Publish(ctx, key, event); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish event", "event_type", event.GetType(), "error", err)
	}
}
