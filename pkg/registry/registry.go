// Package registry provides capability-keyed agent factory registration.
package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/troupe-dev/troupe/pkg/protocol"
)

// ErrAgentTypeNotRegistered indicates a capability tag with no registered
// factory. Unknown types are never defaulted to another implementation.
var ErrAgentTypeNotRegistered = errors.New("agent type not registered")

// Registry maps agent capability tags to their factories.
type Registry struct {
	logger    *slog.Logger
	factories map[string]protocol.AgentFactory
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:    logger,
		factories: make(map[string]protocol.AgentFactory),
	}
}

// RegisterAgent adds a factory under its capability tag, replacing any
// previous registration for the same tag.
func (r *Registry) RegisterAgent(factory protocol.AgentFactory) {
	r.factories[factory.ID()] = factory
}

// IsRegistered reports whether a factory exists for the capability tag.
func (r *Registry) IsRegistered(agentType string) bool {
	_, ok := r.factories[agentType]

	return ok
}

// AgentTypes returns the registered capability tags in sorted order.
func (r *Registry) AgentTypes() []string {
	types := make([]string, 0, len(r.factories))
	for id := range r.factories {
		types = append(types, id)
	}

	sort.Strings(types)

	return types
}

// CreateAgent builds a new agent of the given type.
func (r *Registry) CreateAgent(agentType string, config map[string]any) (protocol.Agent, error) {
	factory, ok := r.factories[agentType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrAgentTypeNotRegistered, agentType)
	}

	return factory.Create(config)
}

// ValidateTaskInput checks task input against the JSON schema published by
// the capability's factory. Factories with an empty schema accept any input.
func (r *Registry) ValidateTaskInput(agentType string, input map[string]any) error {
	factory, ok := r.factories[agentType]
	if !ok {
		return fmt.Errorf("%w: %q", ErrAgentTypeNotRegistered, agentType)
	}

	schema := factory.Schema()
	if len(schema) == 0 {
		return nil
	}

	if input == nil {
		input = map[string]any{}
	}

	schemaLoader := gojsonschema.NewGoLoader(schema)
	dataLoader := gojsonschema.NewGoLoader(input)

	result, err := gojsonschema.Validate(schemaLoader, dataLoader)
	if err != nil {
		return fmt.Errorf("failed to validate task input for %q: %w", agentType, err)
	}

	if !result.Valid() {
		descriptions := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			descriptions = append(descriptions, desc.String())
		}

		return fmt.Errorf("invalid task input for %q: %s", agentType, strings.Join(descriptions, "; "))
	}

	return nil
}

// HealthCheck reports whether the registry is usable.
func (r *Registry) HealthCheck() (string, bool) {
	if len(r.factories) == 0 {
		return "No agent factories registered", false
	}

	return fmt.Sprintf("%d agent factories registered", len(r.factories)), true
}
