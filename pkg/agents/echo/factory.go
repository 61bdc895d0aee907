package echo

import "github.com/troupe-dev/troupe/pkg/protocol"

// AgentFactory creates echo agents.
type AgentFactory struct{}

func NewAgentFactory() *AgentFactory {
	return &AgentFactory{}
}

// ID returns the capability key for this agent type.
func (f *AgentFactory) ID() string {
	return "echo"
}

func (f *AgentFactory) Create(config map[string]any) (protocol.Agent, error) {
	return NewAgent(config)
}

// Schema returns the JSON schema for task input. Echo accepts anything.
func (f *AgentFactory) Schema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": true,
	}
}
