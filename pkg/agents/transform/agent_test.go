package transform

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/troupe-dev/troupe/pkg/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAgent_ExecuteTask(t *testing.T) {
	agent, err := NewAgent(nil)
	require.NoError(t, err)

	task := models.AgentTask{
		TaskType: "reshape",
		Input: map[string]any{
			"expression":                   `{"name": "{{ .input.dependency_fetch.user }}"}`,
			models.DependencyKey("fetch"): map[string]any{"user": "alice"},
		},
	}

	result, err := agent.ExecuteTask(context.Background(), task, testLogger())
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"name": "alice"}, result["result"])
}

func TestAgent_ExecuteTask_ScalarResult(t *testing.T) {
	agent, err := NewAgent(nil)
	require.NoError(t, err)

	task := models.AgentTask{
		Input: map[string]any{
			"expression":                  "{{ len .input.dependency_list.items }}",
			models.DependencyKey("list"): map[string]any{"items": []any{1, 2, 3}},
		},
	}

	result, err := agent.ExecuteTask(context.Background(), task, testLogger())
	require.NoError(t, err)

	assert.Equal(t, 3.0, result["result"])
}

func TestAgent_ExecuteTask_MissingExpression(t *testing.T) {
	agent, err := NewAgent(nil)
	require.NoError(t, err)

	_, err = agent.ExecuteTask(context.Background(), models.AgentTask{Input: map[string]any{}}, testLogger())
	assert.ErrorIs(t, err, ErrExpressionRequired)
}

func TestAgentFactory(t *testing.T) {
	factory := NewAgentFactory()

	assert.Equal(t, "transform", factory.ID())

	agent, err := factory.Create(nil)
	require.NoError(t, err)
	assert.NotNil(t, agent)
}
