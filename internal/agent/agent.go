// Package agent implements the bounded loop that interleaves streaming
// model responses with tool-call execution and permission checks
// (spec.md §4.1).
package agent

import (
	"context"
	"time"

	"caretforge/internal/errs"
	"caretforge/internal/model"
	"caretforge/internal/permission"
	"caretforge/internal/tooldef"
	"caretforge/internal/tools"
)

// MaxIterations bounds one turn's model/tool round trips. It is a design
// constant, not user-tunable (spec.md §9).
const MaxIterations = 20

// IterationLimitMessage is the fixed final-content string returned when
// the loop exhausts MaxIterations without a terminal assistant message.
const IterationLimitMessage = "[Agent reached maximum iteration limit]"

const systemPrompt = `You are CaretForge, an interactive coding agent. You have access to tools for reading and writing files, running shell commands, and searching the codebase. Use them to accomplish the user's request. Respond with a final textual answer once the task is complete; do not call a tool unless it is necessary.`

// Callbacks let the driver observe loop progress without coupling the
// loop itself to any particular UI.
type Callbacks struct {
	OnToken             func(string)
	OnToolCall          func(model.ToolCall)
	OnToolResult        func(toolCallID, result string)
	OnPermissionRequest func(toolName string, args map[string]any) bool
}

// Result is the outcome of one Run call.
type Result struct {
	Conversation  model.Conversation
	FinalContent  string
	ToolCallCount int
	DurationMs    int64
}

// Run executes the bounded loop over conversationPrefix (which must not
// include the system message — Run prepends it) against prov, until the
// model returns an assistant message with no tool calls or the iteration
// bound is hit.
func Run(ctx context.Context, conversationPrefix model.Conversation, prov model.Provider, modelID string, stream bool, cb Callbacks) (Result, error) {
	start := nowFunc()

	working := make(model.Conversation, 0, len(conversationPrefix)+1)
	working = append(working, model.Message{Role: model.RoleSystem, Content: systemPrompt})
	working = append(working, conversationPrefix...)

	toolCallCount := 0
	opts := model.Options{Model: modelID, Stream: stream, Tools: tooldef.All()}

	for iteration := 0; iteration < MaxIterations; iteration++ {
		assistantMsg, err := callProvider(ctx, prov, working, opts, cb.OnToken)
		if err != nil {
			return Result{}, errs.Wrap(errs.CodeProvider, "provider call failed", err)
		}
		working = append(working, assistantMsg)

		if len(assistantMsg.ToolCalls) == 0 {
			return Result{
				Conversation:  working,
				FinalContent:  assistantMsg.Content,
				ToolCallCount: toolCallCount,
				DurationMs:    elapsedMs(start),
			}, nil
		}

		for _, call := range assistantMsg.ToolCalls {
			toolCallCount++
			args := permission.ParseArgs(call.Arguments)

			if cb.OnToolCall != nil {
				cb.OnToolCall(call)
			}

			if tooldef.Gated[call.Name] {
				allowed := true
				if cb.OnPermissionRequest != nil {
					allowed = cb.OnPermissionRequest(call.Name, args)
				}
				if !allowed {
					working = append(working, toolResultMessage(call.ID, "Permission denied by user."))
					if cb.OnToolResult != nil {
						cb.OnToolResult(call.ID, "Permission denied by user.")
					}
					continue
				}
			}

			result, execErr := tools.Exec(ctx, call.Name, args)
			if execErr != nil {
				result = execErr.Error()
			}
			working = append(working, toolResultMessage(call.ID, result))
			if cb.OnToolResult != nil {
				cb.OnToolResult(call.ID, result)
			}
		}
	}

	return Result{
		Conversation:  working,
		FinalContent:  IterationLimitMessage,
		ToolCallCount: toolCallCount,
		DurationMs:    elapsedMs(start),
	}, nil
}

func toolResultMessage(toolCallID, content string) model.Message {
	return model.Message{Role: model.RoleTool, ToolCallID: toolCallID, Content: content}
}

func callProvider(ctx context.Context, prov model.Provider, messages model.Conversation, opts model.Options, onToken func(string)) (model.Message, error) {
	if !opts.Stream {
		result, err := prov.CreateChatCompletion(ctx, messages, opts)
		if err != nil {
			return model.Message{}, err
		}
		return result.Message, nil
	}

	stream, err := prov.CreateStreamingChatCompletion(ctx, messages, opts)
	if err != nil {
		return model.Message{}, err
	}
	defer stream.Close()

	msg, _, err := AssembleStream(stream, onToken)
	if err != nil {
		return model.Message{}, err
	}
	return msg, nil
}

// nowFunc and elapsedMs are indirected so tests can avoid depending on
// wall-clock timing.
var nowFunc = func() time.Time { return time.Now() }

func elapsedMs(start time.Time) int64 {
	return nowFunc().Sub(start).Milliseconds()
}
