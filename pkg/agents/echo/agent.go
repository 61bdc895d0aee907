// Package echo provides an agent that returns its task input unchanged.
// Useful for wiring tests and for inspecting merged dependency inputs.
package echo

import (
	"context"
	"log/slog"

	"github.com/troupe-dev/troupe/pkg/models"
)

// Agent echoes the task input back as the step result.
type Agent struct{}

func NewAgent(_ map[string]any) (*Agent, error) {
	return &Agent{}, nil
}

func (a *Agent) ExecuteTask(ctx context.Context, task models.AgentTask, logger *slog.Logger) (map[string]any, error) {
	logger.InfoContext(ctx, "Echoing task input", "task_type", task.TaskType, "keys", len(task.Input))

	return map[string]any{
		"task_type": task.TaskType,
		"input":     task.Input,
	}, nil
}
