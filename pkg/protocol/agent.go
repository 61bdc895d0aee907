// Package protocol defines the boundary contracts between the scheduler core
// and the agents that execute tasks.
package protocol

import (
	"context"
	"log/slog"

	"github.com/troupe-dev/troupe/pkg/models"
)

// Agent is a worker capable of executing tasks of a declared capability
// type. Implementations must be safe for concurrent use across distinct
// instances; the pool never hands one instance to two executors at once.
type Agent interface {
	// ExecuteTask performs the requested task and returns its output payload.
	// A non-nil error marks the owning step as failed; the scheduler performs
	// no retries.
	ExecuteTask(ctx context.Context, task models.AgentTask, logger *slog.Logger) (map[string]any, error)
}

// AgentFactory constructs agents of a single capability type. The registry
// maps capability tags to factories; unknown tags are a typed error, never a
// silent default.
type AgentFactory interface {
	// ID returns the capability tag this factory serves.
	ID() string

	// Create builds a new agent instance from configuration.
	Create(config map[string]any) (Agent, error)

	// Schema returns the JSON schema describing valid task input for agents
	// of this type. An empty schema accepts any input.
	Schema() map[string]any
}
