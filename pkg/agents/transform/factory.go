package transform

import "github.com/troupe-dev/troupe/pkg/protocol"

// AgentFactory creates transform agents.
type AgentFactory struct{}

func NewAgentFactory() *AgentFactory {
	return &AgentFactory{}
}

// ID returns the capability key for this agent type.
func (f *AgentFactory) ID() string {
	return "transform"
}

func (f *AgentFactory) Create(config map[string]any) (protocol.Agent, error) {
	return NewAgent(config)
}

// Schema returns the JSON schema for task input.
func (f *AgentFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"expression": map[string]any{
				"type":        "string",
				"format":      "code",
				"description": "Template expression evaluated against the merged task input.",
				"examples": []string{
					"{{ .input.dependency_fetch.body }}",
					`{"count": {{ len .input.dependency_list.items }}}`,
				},
			},
		},
		"required": []string{"expression"},
	}
}
