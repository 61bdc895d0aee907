package httpcall

import "github.com/troupe-dev/troupe/pkg/protocol"

// AgentFactory creates HTTP call agents.
type AgentFactory struct{}

func NewAgentFactory() *AgentFactory {
	return &AgentFactory{}
}

// ID returns the capability key for this agent type.
func (f *AgentFactory) ID() string {
	return "http_call"
}

func (f *AgentFactory) Create(config map[string]any) (protocol.Agent, error) {
	return NewAgent(config)
}

// Schema returns the JSON schema for task input.
func (f *AgentFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"url": map[string]any{
				"type":        "string",
				"description": "The URL to call. Supports templating against the merged task input.",
				"examples": []string{
					"https://api.example.com/users",
					"https://api.example.com/orders/{{ .input.dependency_lookup.order_id }}",
				},
			},
			"method": map[string]any{
				"type":    "string",
				"default": "GET",
				"enum":    []string{"GET", "POST", "PUT", "DELETE", "PATCH", "HEAD", "OPTIONS"},
			},
			"headers": map[string]any{
				"type":        "object",
				"description": "Request headers. Values support templating.",
				"additionalProperties": map[string]any{
					"type": "string",
				},
			},
			"body": map[string]any{
				"type":        "string",
				"description": "Request body. Supports templating for dynamic JSON or text content.",
			},
			"retry": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"attempts": map[string]any{
						"type":    "integer",
						"default": 1,
						"minimum": 1,
					},
					"delay_ms": map[string]any{
						"type":    "integer",
						"default": 0,
						"minimum": 0,
					},
				},
			},
		},
		"required": []string{"url"},
	}
}
