// Package transform provides an agent that reshapes its merged task input
// with a template expression, so downstream steps receive exactly the
// structure they expect.
package transform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/troupe-dev/troupe/pkg/models"
	"github.com/troupe-dev/troupe/pkg/template"
)

var ErrExpressionRequired = errors.New("transform requires an 'expression' input")

// Agent evaluates a template expression against the task input.
type Agent struct{}

func NewAgent(_ map[string]any) (*Agent, error) {
	return &Agent{}, nil
}

func (a *Agent) ExecuteTask(ctx context.Context, task models.AgentTask, logger *slog.Logger) (map[string]any, error) {
	logger = logger.With("module", "transform_agent")

	expression, _ := task.Input["expression"].(string)
	if expression == "" {
		return nil, ErrExpressionRequired
	}

	logger.InfoContext(ctx, "Executing transform")

	result, err := template.RenderTaskInput(expression, task.Input)
	if err != nil {
		return nil, fmt.Errorf("transformation failed: %w", err)
	}

	logger.InfoContext(ctx, "Transform completed")

	return map[string]any{"result": result}, nil
}
