package tooldef

import "caretforge/internal/model"

// schemaMap flattens an mcp.ToolInputSchema into the plain JSON shape every
// wire format expects for a parameters/input_schema object.
func schemaMap(def model.ToolDefinition) map[string]any {
	m := map[string]any{
		"type": def.Schema.Type,
	}
	if len(def.Schema.Properties) > 0 {
		m["properties"] = def.Schema.Properties
	}
	if len(def.Schema.Required) > 0 {
		m["required"] = def.Schema.Required
	}
	return m
}

// OpenAIFunction is the "function" object nested inside an OpenAI-style
// chat-completions tool entry (variant A, spec.md §4.3).
type OpenAIFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// OpenAITool is one entry of the "tools" array sent to variant A; variant
// C uses the flattened ResponsesTool instead.
type OpenAITool struct {
	Type     string         `json:"type"`
	Function OpenAIFunction `json:"function"`
}

// ToOpenAIWire converts the canonical set into variant A's "tools" array.
func ToOpenAIWire(defs []model.ToolDefinition) []OpenAITool {
	out := make([]OpenAITool, 0, len(defs))
	for _, d := range defs {
		out = append(out, OpenAITool{
			Type: "function",
			Function: OpenAIFunction{
				Name:        d.Name,
				Description: d.Description,
				Parameters:  schemaMap(d),
			},
		})
	}
	return out
}

// AnthropicTool is one entry of variant B's top-level "tools" array.
type AnthropicTool struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	InputSchema map[string]any `json:"input_schema"`
}

// ToAnthropicWire converts the canonical set into variant B's tool list.
func ToAnthropicWire(defs []model.ToolDefinition) []AnthropicTool {
	out := make([]AnthropicTool, 0, len(defs))
	for _, d := range defs {
		out = append(out, AnthropicTool{
			Name:        d.Name,
			Description: d.Description,
			InputSchema: schemaMap(d),
		})
	}
	return out
}

// ResponsesTool is one entry of variant C's "tools" array, which flattens
// name/description/parameters to the top level instead of nesting them
// under "function" the way variant A does.
type ResponsesTool struct {
	Type        string         `json:"type"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// ToResponsesWire converts the canonical set into variant C's tool list.
func ToResponsesWire(defs []model.ToolDefinition) []ResponsesTool {
	out := make([]ResponsesTool, 0, len(defs))
	for _, d := range defs {
		out = append(out, ResponsesTool{
			Type:        "function",
			Name:        d.Name,
			Description: d.Description,
			Parameters:  schemaMap(d),
		})
	}
	return out
}
