package file

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/troupe-dev/troupe/pkg/models"
	"github.com/troupe-dev/troupe/pkg/persistence"
)

func TestPersistence_SaveAndFetch(t *testing.T) {
	ctx := context.Background()
	fp := NewPersistence(t.TempDir())

	w := models.NewWorkflow("deploy", "deploy pipeline")
	w.AddStep(models.NewStep("echo", "repeat", map[string]any{"msg": "hi"}, nil))

	require.NoError(t, fp.SaveWorkflow(ctx, w))

	got, err := fp.WorkflowByID(ctx, w.ID)
	require.NoError(t, err)

	assert.Equal(t, w.ID, got.ID)
	assert.Equal(t, "deploy", got.Name)
	require.Len(t, got.Steps, 1)
	assert.Equal(t, "echo", got.Steps[0].AgentType)
	assert.Equal(t, models.StepStatusIdle, got.Steps[0].Status)
}

func TestPersistence_FileURLPrefix(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	fp := NewPersistence("file://" + dir)

	w := models.NewWorkflow("wf", "workflow under test")
	require.NoError(t, fp.SaveWorkflow(ctx, w))
	require.NoError(t, fp.HealthCheck(ctx))
}

func TestPersistence_WorkflowByID_NotFound(t *testing.T) {
	fp := NewPersistence(t.TempDir())

	got, err := fp.WorkflowByID(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, persistence.IsWorkflowNotFound(err))
	assert.Nil(t, got)
}

func TestPersistence_Workflows(t *testing.T) {
	ctx := context.Background()
	fp := NewPersistence(t.TempDir())

	// Empty store lists cleanly.
	workflows, err := fp.Workflows(ctx)
	require.NoError(t, err)
	assert.Empty(t, workflows)

	a := models.NewWorkflow("first", "first workflow")
	b := models.NewWorkflow("second", "second workflow")
	require.NoError(t, fp.SaveWorkflow(ctx, a))
	require.NoError(t, fp.SaveWorkflow(ctx, b))

	workflows, err = fp.Workflows(ctx)
	require.NoError(t, err)
	assert.Len(t, workflows, 2)
}

func TestPersistence_DeleteWorkflow(t *testing.T) {
	ctx := context.Background()
	fp := NewPersistence(t.TempDir())

	w := models.NewWorkflow("wf", "workflow under test")
	require.NoError(t, fp.SaveWorkflow(ctx, w))
	require.NoError(t, fp.DeleteWorkflow(ctx, w.ID))

	_, err := fp.WorkflowByID(ctx, w.ID)
	assert.True(t, persistence.IsWorkflowNotFound(err))

	err = fp.DeleteWorkflow(ctx, w.ID)
	assert.True(t, persistence.IsWorkflowNotFound(err))
}

func TestPersistence_SaveOverwrites(t *testing.T) {
	ctx := context.Background()
	fp := NewPersistence(t.TempDir())

	w := models.NewWorkflow("wf", "workflow under test")
	require.NoError(t, fp.SaveWorkflow(ctx, w))

	w.Status = models.WorkflowStatusCompleted
	require.NoError(t, fp.SaveWorkflow(ctx, w))

	got, err := fp.WorkflowByID(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, models.WorkflowStatusCompleted, got.Status)
}
