package main

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/troupe-dev/troupe/pkg/channels/gochannel"
	"github.com/troupe-dev/troupe/pkg/cmd"
	"github.com/troupe-dev/troupe/pkg/eventbus"
	"github.com/troupe-dev/troupe/pkg/events"
	"github.com/troupe-dev/troupe/pkg/models"
	"github.com/troupe-dev/troupe/pkg/persistence/file"
	"github.com/troupe-dev/troupe/pkg/workflow"
)

func newTestWorker(t *testing.T) (*WorkerManager, *workflow.Repository) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	pub, sub, err := gochannel.CreateTestChannel(watermill.NewSlogLogger(logger))
	require.NoError(t, err)

	persistence := file.NewPersistence(t.TempDir())
	bus := eventbus.NewWatermillEventBus(pub, sub)

	manager := NewWorkerManager("worker-test", persistence, bus, logger, cmd.NewRegistry(logger))

	return manager, workflow.NewRepository(persistence)
}

func TestWorkerManager_HandleRunRequested(t *testing.T) {
	ctx := context.Background()
	manager, repo := newTestWorker(t)

	w := models.NewWorkflow("scheduled pipeline", "")
	w.AddStep(models.NewStep("echo", "say", map[string]any{"msg": "hi"}, nil))
	_, err := repo.Create(ctx, w)
	require.NoError(t, err)

	event := &events.WorkflowRunRequested{
		BaseEvent:   events.NewBaseEvent(events.WorkflowRunRequestedEvent, w.ID),
		RequestedBy: "test",
	}

	require.NoError(t, manager.handleRunRequested(ctx, event))

	stored, err := repo.FetchByID(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, models.WorkflowStatusCompleted, stored.Status)
	require.Len(t, stored.Steps, 1)
	assert.Equal(t, models.StepStatusCompleted, stored.Steps[0].Status)
}

func TestWorkerManager_HandleRunRequested_SkipsNonIdle(t *testing.T) {
	ctx := context.Background()
	manager, repo := newTestWorker(t)

	w := models.NewWorkflow("done pipeline", "")
	w.Status = models.WorkflowStatusCompleted
	_, err := repo.Create(ctx, w)
	require.NoError(t, err)

	event := &events.WorkflowRunRequested{
		BaseEvent: events.NewBaseEvent(events.WorkflowRunRequestedEvent, w.ID),
	}

	require.NoError(t, manager.handleRunRequested(ctx, event))

	stored, err := repo.FetchByID(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, models.WorkflowStatusCompleted, stored.Status)
}

func TestWorkerManager_HandleRunRequested_InvalidEventType(t *testing.T) {
	manager, _ := newTestWorker(t)

	// Wrong event types are logged and dropped, never returned as errors.
	assert.NoError(t, manager.handleRunRequested(context.Background(), "not an event"))
}

func TestWorkerManager_StartScheduleTriggers(t *testing.T) {
	ctx := context.Background()
	manager, repo := newTestWorker(t)

	scheduled := models.NewWorkflow("nightly", "")
	scheduled.Metadata = map[string]any{"schedule": "0 0 * * *"}
	_, err := repo.Create(ctx, scheduled)
	require.NoError(t, err)

	unscheduled := models.NewWorkflow("manual", "")
	_, err = repo.Create(ctx, unscheduled)
	require.NoError(t, err)

	invalid := models.NewWorkflow("broken", "")
	invalid.Metadata = map[string]any{"schedule": "not a cron"}
	_, err = repo.Create(ctx, invalid)
	require.NoError(t, err)

	require.NoError(t, manager.startScheduleTriggers(ctx))
	assert.Len(t, manager.triggers, 1)

	for _, trigger := range manager.triggers {
		require.NoError(t, trigger.Stop(ctx))
	}
}
