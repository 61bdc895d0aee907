package echo

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/troupe-dev/troupe/pkg/models"
)

func TestAgent_ExecuteTask(t *testing.T) {
	agent, err := NewAgent(nil)
	require.NoError(t, err)

	task := models.AgentTask{
		ID:       "task-1",
		TaskType: "repeat",
		Input:    map[string]any{"msg": "hello"},
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	result, err := agent.ExecuteTask(context.Background(), task, logger)
	require.NoError(t, err)

	assert.Equal(t, "repeat", result["task_type"])
	assert.Equal(t, map[string]any{"msg": "hello"}, result["input"])
}

func TestAgentFactory(t *testing.T) {
	factory := NewAgentFactory()

	assert.Equal(t, "echo", factory.ID())

	agent, err := factory.Create(map[string]any{})
	require.NoError(t, err)
	assert.NotNil(t, agent)
}
