package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/troupe-dev/troupe/pkg/events"
	"github.com/troupe-dev/troupe/pkg/models"
)

func TestStepExecutor_Execute_Success(t *testing.T) {
	var received models.AgentTask

	factory := &fakeFactory{
		id: "echo",
		run: func(_ context.Context, task models.AgentTask) (map[string]any, error) {
			received = task

			return map[string]any{"out": "done"}, nil
		},
	}

	bus := &recordingBus{}
	executor := NewStepExecutor(newTestPool(t, factory), bus, testLogger())

	w := models.NewWorkflow("wf", "")
	step := newStepWithID("a", "echo", nil)
	step.Input = map[string]any{"msg": "hi"}
	step.TaskType = "repeat"
	w.AddStep(step)
	require.NoError(t, step.MarkRunning())

	executor.Execute(context.Background(), w, step)

	assert.Equal(t, models.StepStatusCompleted, step.Status)
	assert.Equal(t, map[string]any{"out": "done"}, step.Result)
	assert.Empty(t, step.Error)

	assert.Equal(t, w.ID, received.WorkflowID)
	assert.Equal(t, "a", received.StepID)
	assert.Equal(t, "repeat", received.TaskType)
	assert.Equal(t, map[string]any{"msg": "hi"}, received.Input)
	assert.NotEmpty(t, received.ID)

	assert.Equal(t, 1, bus.Count(events.StepCompletedEvent))
	assert.Equal(t, 1, bus.Count(events.AgentCreatedEvent))
}

func TestStepExecutor_Execute_AgentError(t *testing.T) {
	factory := &fakeFactory{
		id: "flaky",
		run: func(_ context.Context, _ models.AgentTask) (map[string]any, error) {
			return nil, errors.New("upstream unavailable")
		},
	}

	bus := &recordingBus{}
	executor := NewStepExecutor(newTestPool(t, factory), bus, testLogger())

	w := models.NewWorkflow("wf", "")
	step := newStepWithID("a", "flaky", nil)
	w.AddStep(step)
	require.NoError(t, step.MarkRunning())

	executor.Execute(context.Background(), w, step)

	assert.Equal(t, models.StepStatusError, step.Status)
	assert.Equal(t, "upstream unavailable", step.Error)
	assert.Nil(t, step.Result)
	assert.Equal(t, 1, bus.Count(events.StepFailedEvent))
	assert.Zero(t, bus.Count(events.StepCompletedEvent))
}

func TestStepExecutor_Execute_UnknownAgentType(t *testing.T) {
	bus := &recordingBus{}
	executor := NewStepExecutor(newTestPool(t), bus, testLogger())

	w := models.NewWorkflow("wf", "")
	step := newStepWithID("a", "nonexistent", nil)
	w.AddStep(step)
	require.NoError(t, step.MarkRunning())

	executor.Execute(context.Background(), w, step)

	assert.Equal(t, models.StepStatusError, step.Status)
	assert.Contains(t, step.Error, "nonexistent")
	assert.Equal(t, 1, bus.Count(events.StepFailedEvent))
}

func TestStepExecutor_Execute_PanicConfined(t *testing.T) {
	factory := &fakeFactory{
		id: "panicky",
		run: func(_ context.Context, _ models.AgentTask) (map[string]any, error) {
			panic("boom")
		},
	}

	bus := &recordingBus{}
	executor := NewStepExecutor(newTestPool(t, factory), bus, testLogger())

	w := models.NewWorkflow("wf", "")
	step := newStepWithID("a", "panicky", nil)
	w.AddStep(step)
	require.NoError(t, step.MarkRunning())

	assert.NotPanics(t, func() {
		executor.Execute(context.Background(), w, step)
	})

	assert.Equal(t, models.StepStatusError, step.Status)
	assert.Contains(t, step.Error, "boom")
	assert.Equal(t, 1, bus.Count(events.StepFailedEvent))
}

func TestStepExecutor_Execute_ReleasesAgentAfterFailure(t *testing.T) {
	factory := &fakeFactory{
		id: "flaky",
		run: func(_ context.Context, _ models.AgentTask) (map[string]any, error) {
			return nil, errors.New("nope")
		},
	}

	agentPool := newTestPool(t, factory)
	executor := NewStepExecutor(agentPool, nil, testLogger())

	w := models.NewWorkflow("wf", "")
	step := newStepWithID("a", "flaky", nil)
	w.AddStep(step)
	require.NoError(t, step.MarkRunning())

	executor.Execute(context.Background(), w, step)

	// The leased agent must be idle again despite the failure.
	agents := agentPool.Agents()
	require.Len(t, agents, 1)
	assert.Equal(t, models.AgentStatusIdle, agents[0].Status)
}

func TestMergeInput(t *testing.T) {
	w := models.NewWorkflow("wf", "")

	a := newStepWithID("a", "echo", nil)
	a.MarkCompleted(map[string]any{"value": 1})
	w.AddStep(a)

	b := newStepWithID("b", "echo", nil)
	b.MarkFailed("broken")
	w.AddStep(b)

	c := newStepWithID("c", "echo", []string{"a", "b"})
	c.Input = map[string]any{"own": true}
	w.AddStep(c)

	merged := MergeInput(w, c)

	assert.Equal(t, true, merged["own"])
	assert.Equal(t, map[string]any{"value": 1}, merged["dependency_a"])
	assert.NotContains(t, merged, "dependency_b")

	// The step's own input is never mutated.
	assert.Equal(t, map[string]any{"own": true}, c.Input)
}

func TestMergeInput_CallerKeySurvivesCollision(t *testing.T) {
	w := models.NewWorkflow("wf", "")

	a := newStepWithID("a", "echo", nil)
	a.MarkCompleted(map[string]any{"value": 1})
	w.AddStep(a)

	c := newStepWithID("c", "echo", []string{"a"})
	c.Input = map[string]any{models.DependencyKey("a"): "explicit"}
	w.AddStep(c)

	merged := MergeInput(w, c)
	assert.Equal(t, "explicit", merged[models.DependencyKey("a")])
}
