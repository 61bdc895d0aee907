package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStep(t *testing.T) {
	step := NewStep("echo", "repeat", map[string]any{"msg": "hi"}, []string{"dep-1"})

	assert.NotEmpty(t, step.ID)
	assert.Equal(t, "echo", step.AgentType)
	assert.Equal(t, "repeat", step.TaskType)
	assert.Equal(t, StepStatusIdle, step.Status)
	assert.Equal(t, []string{"dep-1"}, step.DependsOn)
	assert.Nil(t, step.Result)
	assert.Empty(t, step.Error)
}

func TestNewStep_NilInput(t *testing.T) {
	step := NewStep("echo", "repeat", nil, nil)

	assert.NotNil(t, step.Input)
	assert.Empty(t, step.Input)
}

func TestStep_MarkRunning(t *testing.T) {
	step := NewStep("echo", "repeat", nil, nil)

	require.NoError(t, step.MarkRunning())
	assert.Equal(t, StepStatusRunning, step.Status)

	// Running is single-shot: a second dispatch attempt is rejected.
	assert.Error(t, step.MarkRunning())
}

func TestStep_TerminalStatuses(t *testing.T) {
	tests := []struct {
		name     string
		mark     func(*Step)
		status   StepStatus
		terminal bool
	}{
		{
			name:     "completed is terminal",
			mark:     func(s *Step) { s.MarkCompleted(map[string]any{"x": 1}) },
			status:   StepStatusCompleted,
			terminal: true,
		},
		{
			name:     "error is terminal",
			mark:     func(s *Step) { s.MarkFailed("boom") },
			status:   StepStatusError,
			terminal: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			step := NewStep("echo", "repeat", nil, nil)
			require.NoError(t, step.MarkRunning())

			tt.mark(step)

			assert.Equal(t, tt.status, step.Status)
			assert.Equal(t, tt.terminal, step.IsTerminal())
			assert.Error(t, step.MarkRunning())
		})
	}
}

func TestDependencyKey(t *testing.T) {
	assert.Equal(t, "dependency_abc", DependencyKey("abc"))
}

func TestNewWorkflow(t *testing.T) {
	w := NewWorkflow("deploy", "deploy the thing")

	assert.NotEmpty(t, w.ID)
	assert.Equal(t, WorkflowStatusIdle, w.Status)
	assert.Empty(t, w.Steps)
	assert.False(t, w.CreatedAt.IsZero())
	assert.Nil(t, w.CompletedAt)
}

func TestWorkflow_IsCompleted(t *testing.T) {
	w := NewWorkflow("wf", "workflow under test")

	// Zero steps is vacuously complete.
	assert.True(t, w.IsCompleted())

	a := NewStep("echo", "repeat", nil, nil)
	w.AddStep(a)
	assert.False(t, w.IsCompleted())

	require.NoError(t, a.MarkRunning())
	assert.False(t, w.IsCompleted())

	a.MarkCompleted(nil)
	assert.True(t, w.IsCompleted())

	b := NewStep("echo", "repeat", nil, nil)
	w.AddStep(b)
	require.NoError(t, b.MarkRunning())
	b.MarkFailed("boom")

	// Error also counts as terminal.
	assert.True(t, w.IsCompleted())
}

func TestWorkflow_StepByID(t *testing.T) {
	w := NewWorkflow("wf", "workflow under test")
	step := NewStep("echo", "repeat", nil, nil)
	w.AddStep(step)

	assert.Same(t, step, w.StepByID(step.ID))
	assert.Nil(t, w.StepByID("missing"))
}

func TestWorkflow_CollectResults(t *testing.T) {
	w := NewWorkflow("wf", "workflow under test")

	ok := NewStep("echo", "repeat", nil, nil)
	require.NoError(t, ok.MarkRunning())
	ok.MarkCompleted(map[string]any{"out": "value"})

	failed := NewStep("echo", "repeat", nil, nil)
	require.NoError(t, failed.MarkRunning())
	failed.MarkFailed("boom")

	w.AddStep(ok)
	w.AddStep(failed)

	results := w.CollectResults()

	require.Len(t, results, 1)
	assert.Equal(t, map[string]any{"out": "value"}, results[ok.ID])
	assert.NotContains(t, results, failed.ID)
}

func TestWorkflow_Report(t *testing.T) {
	w := NewWorkflow("wf", "workflow under test")

	a := NewStep("echo", "repeat", nil, nil)
	b := NewStep("httpcall", "fetch", nil, []string{a.ID})
	require.NoError(t, a.MarkRunning())
	a.MarkFailed("boom")

	w.AddStep(a)
	w.AddStep(b)

	report := w.Report()

	require.Len(t, report, 2)
	assert.Equal(t, StepStatusError, report[0].Status)
	assert.Equal(t, "boom", report[0].Error)
	assert.Equal(t, StepStatusIdle, report[1].Status)
	assert.Equal(t, []string{a.ID}, report[1].DependsOn)
}
