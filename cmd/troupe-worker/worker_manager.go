package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/troupe-dev/troupe/pkg/eventbus"
	"github.com/troupe-dev/troupe/pkg/events"
	"github.com/troupe-dev/troupe/pkg/models"
	"github.com/troupe-dev/troupe/pkg/otelhelper"
	"github.com/troupe-dev/troupe/pkg/persistence"
	"github.com/troupe-dev/troupe/pkg/pool"
	"github.com/troupe-dev/troupe/pkg/registry"
	"github.com/troupe-dev/troupe/pkg/triggers/schedule"
	"github.com/troupe-dev/troupe/pkg/workflow"
)

// scheduleMetadataKey is the workflow metadata entry holding a cron
// expression for recurring runs.
const scheduleMetadataKey = "schedule"

// WorkerManager consumes workflow run requests from the event bus and drives
// each workflow to a terminal status. One agent pool is shared across runs so
// idle agents are reused.
type WorkerManager struct {
	id          string
	logger      *slog.Logger
	persistence persistence.Persistence
	registry    *registry.Registry
	eventBus    eventbus.EventBus

	repo      *workflow.Repository
	scheduler *workflow.Scheduler
	tracer    trace.Tracer
	triggers  []*schedule.Trigger
}

func NewWorkerManager(
	id string,
	p persistence.Persistence,
	eventBus eventbus.EventBus,
	logger *slog.Logger,
	reg *registry.Registry,
) *WorkerManager {
	logger = logger.With("module", "troupe-worker", "worker_id", id)

	agentPool := pool.NewPool(reg, logger)
	executor := workflow.NewStepExecutor(agentPool, eventBus, logger)

	return &WorkerManager{
		id:          id,
		logger:      logger,
		persistence: p,
		registry:    reg,
		eventBus:    eventBus,
		repo:        workflow.NewRepository(p),
		scheduler:   workflow.NewScheduler(executor, eventBus, logger),
		tracer:      noop.NewTracerProvider().Tracer("troupe-worker"),
	}
}

func (w *WorkerManager) Start(ctx context.Context) error {
	w.logger.InfoContext(ctx, "Starting worker manager")

	if tracer, err := otelhelper.NewTracer(ctx, "troupe-worker"); err != nil {
		w.logger.WarnContext(ctx, "Tracing disabled", "error", err)
	} else {
		w.tracer = tracer
	}

	err := w.eventBus.Handle(events.WorkflowRunRequestedEvent, w.handleRunRequested)
	if err != nil {
		return err
	}

	err = w.eventBus.Subscribe(ctx)
	if err != nil {
		w.logger.ErrorContext(ctx, "Failed to subscribe to event bus", "error", err)

		return err
	}

	if err := w.startScheduleTriggers(ctx); err != nil {
		w.logger.ErrorContext(ctx, "Failed to start schedule triggers", "error", err)

		return err
	}

	w.logger.InfoContext(ctx, "Worker started successfully")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	w.logger.InfoContext(ctx, "Shutting down worker...")

	for _, trigger := range w.triggers {
		if err := trigger.Stop(ctx); err != nil {
			w.logger.ErrorContext(ctx, "Failed to stop trigger", "error", err)
		}
	}

	return nil
}

func (w *WorkerManager) handleRunRequested(ctx context.Context, event any) error {
	runRequested, ok := event.(*events.WorkflowRunRequested)
	if !ok {
		w.logger.ErrorContext(ctx, "Invalid event type for WorkflowRunRequested")

		return nil
	}

	logger := w.logger.With(
		"workflow_id", runRequested.WorkflowID,
		"requested_by", runRequested.RequestedBy,
		"event_id", runRequested.ID,
	)
	logger.InfoContext(ctx, "Processing workflow run request")

	wf, err := w.repo.FetchByID(ctx, runRequested.WorkflowID)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to fetch workflow", "error", err)

		return err
	}

	if wf.Status != models.WorkflowStatusIdle {
		logger.WarnContext(ctx, "Workflow is not runnable, skipping", "status", wf.Status)

		return nil
	}

	ctx, span := otelhelper.StartSpan(ctx, w.tracer, "workflow.run",
		attribute.String(otelhelper.WorkflowIDKey, wf.ID),
		attribute.String(otelhelper.WorkflowNameKey, wf.Name),
		attribute.String(otelhelper.WorkerIDKey, w.id),
	)
	defer span.End()

	result := w.scheduler.Run(ctx, wf)

	if _, err := w.repo.Update(ctx, wf); err != nil {
		logger.ErrorContext(ctx, "Failed to persist workflow result", "error", err)
		otelhelper.SetError(span, err)

		return err
	}

	logger.InfoContext(ctx, "Workflow run finished", "status", result.Status)

	return nil
}

// startScheduleTriggers creates a cron trigger for every workflow whose
// metadata carries a schedule expression. Each fire dispatches a run request
// through the event bus, the same path the API's dispatch endpoint uses.
func (w *WorkerManager) startScheduleTriggers(ctx context.Context) error {
	workflows, err := w.repo.FetchAll(ctx)
	if err != nil {
		return err
	}

	for _, wf := range workflows {
		cronExpr, ok := wf.Metadata[scheduleMetadataKey].(string)
		if !ok || cronExpr == "" {
			continue
		}

		trigger, err := schedule.NewTrigger(map[string]any{
			"id":          "schedule-" + wf.ID,
			"cron":        cronExpr,
			"workflow_id": wf.ID,
		}, w.logger)
		if err != nil {
			w.logger.ErrorContext(ctx, "Skipping invalid schedule",
				"workflow_id", wf.ID, "cron", cronExpr, "error", err)

			continue
		}

		workflowID := wf.ID

		err = trigger.Start(ctx, func(ctx context.Context, _ map[string]any) error {
			return w.eventBus.Publish(ctx, workflowID, events.WorkflowRunRequested{
				BaseEvent:   events.NewBaseEvent(events.WorkflowRunRequestedEvent, workflowID),
				RequestedBy: "schedule",
			})
		})
		if err != nil {
			return err
		}

		w.triggers = append(w.triggers, trigger)
	}

	return nil
}
