package cli

import (
	"encoding/json"
	"io"

	"caretforge/internal/agent"
	"caretforge/internal/model"
)

// jsonMessage is the --json mode's wire shape for one conversation entry.
type jsonMessage struct {
	Role       string         `json:"role"`
	Content    string         `json:"content,omitempty"`
	ToolCallID string         `json:"toolCallId,omitempty"`
	ToolCalls  []jsonToolCall `json:"toolCalls,omitempty"`
}

type jsonToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// jsonResult is the single JSON object emitted at turn completion in
// --json mode, per spec.md §6: "{task, model, provider, finalContent,
// toolCallCount, durationMs, messages[]}".
type jsonResult struct {
	Task          string        `json:"task"`
	Model         string        `json:"model"`
	Provider      string        `json:"provider"`
	FinalContent  string        `json:"finalContent"`
	ToolCallCount int           `json:"toolCallCount"`
	DurationMs    int64         `json:"durationMs"`
	Messages      []jsonMessage `json:"messages"`
}

func toJSONMessages(conv model.Conversation) []jsonMessage {
	out := make([]jsonMessage, len(conv))
	for i, m := range conv {
		jm := jsonMessage{Role: string(m.Role), Content: m.Content, ToolCallID: m.ToolCallID}
		for _, tc := range m.ToolCalls {
			jm.ToolCalls = append(jm.ToolCalls, jsonToolCall{ID: tc.ID, Name: tc.Name, Arguments: tc.Arguments})
		}
		out[i] = jm
	}
	return out
}

// writeJSONResult marshals one completed agent.Result to w, per spec.md §6.
func writeJSONResult(w io.Writer, task, modelID, providerName string, result agent.Result) error {
	r := jsonResult{
		Task:          task,
		Model:         modelID,
		Provider:      providerName,
		FinalContent:  result.FinalContent,
		ToolCallCount: result.ToolCallCount,
		DurationMs:    result.DurationMs,
		Messages:      toJSONMessages(result.Conversation),
	}
	enc := json.NewEncoder(w)
	return enc.Encode(r)
}

// jsonError is the --json mode error shape: {"error": "..."}.
type jsonError struct {
	Error string `json:"error"`
}

func writeJSONError(w io.Writer, err error) error {
	return json.NewEncoder(w).Encode(jsonError{Error: err.Error()})
}
