package registry

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/troupe-dev/troupe/pkg/models"
	"github.com/troupe-dev/troupe/pkg/protocol"
)

type stubAgent struct{}

func (stubAgent) ExecuteTask(_ context.Context, task models.AgentTask, _ *slog.Logger) (map[string]any, error) {
	return map[string]any{"task_type": task.TaskType}, nil
}

type stubFactory struct {
	id     string
	schema map[string]any
}

func (f stubFactory) ID() string { return f.id }

func (f stubFactory) Create(_ map[string]any) (protocol.Agent, error) {
	return stubAgent{}, nil
}

func (f stubFactory) Schema() map[string]any { return f.schema }

func newTestRegistry(factories ...protocol.AgentFactory) *Registry {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	reg := NewRegistry(logger)

	for _, f := range factories {
		reg.RegisterAgent(f)
	}

	return reg
}

func TestRegistry_CreateAgent(t *testing.T) {
	reg := newTestRegistry(stubFactory{id: "echo"})

	agent, err := reg.CreateAgent("echo", nil)
	require.NoError(t, err)
	assert.NotNil(t, agent)
}

func TestRegistry_CreateAgent_Unregistered(t *testing.T) {
	reg := newTestRegistry(stubFactory{id: "echo"})

	agent, err := reg.CreateAgent("unknown", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAgentTypeNotRegistered)
	assert.Nil(t, agent)
}

func TestRegistry_AgentTypes(t *testing.T) {
	reg := newTestRegistry(stubFactory{id: "transform"}, stubFactory{id: "echo"})

	assert.Equal(t, []string{"echo", "transform"}, reg.AgentTypes())
	assert.True(t, reg.IsRegistered("echo"))
	assert.False(t, reg.IsRegistered("missing"))
}

func TestRegistry_ValidateTaskInput(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"message": map[string]any{"type": "string"},
		},
		"required": []string{"message"},
	}

	reg := newTestRegistry(
		stubFactory{id: "echo", schema: schema},
		stubFactory{id: "open"},
	)

	tests := []struct {
		name      string
		agentType string
		input     map[string]any
		wantErr   bool
	}{
		{
			name:      "valid input",
			agentType: "echo",
			input:     map[string]any{"message": "hello"},
		},
		{
			name:      "missing required key",
			agentType: "echo",
			input:     map[string]any{},
			wantErr:   true,
		},
		{
			name:      "wrong type",
			agentType: "echo",
			input:     map[string]any{"message": 42},
			wantErr:   true,
		},
		{
			name:      "empty schema accepts anything",
			agentType: "open",
			input:     map[string]any{"whatever": true},
		},
		{
			name:      "nil input against empty schema",
			agentType: "open",
			input:     nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := reg.ValidateTaskInput(tt.agentType, tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRegistry_ValidateTaskInput_Unregistered(t *testing.T) {
	reg := newTestRegistry()

	err := reg.ValidateTaskInput("ghost", nil)
	assert.ErrorIs(t, err, ErrAgentTypeNotRegistered)
}

func TestRegistry_HealthCheck(t *testing.T) {
	empty := newTestRegistry()
	msg, ok := empty.HealthCheck()
	assert.False(t, ok)
	assert.Contains(t, msg, "No agent factories")

	reg := newTestRegistry(stubFactory{id: "echo"})
	msg, ok = reg.HealthCheck()
	assert.True(t, ok)
	assert.Contains(t, msg, "1 agent factories")
}
