package agent

import "caretforge/internal/model"

// partialToolCall accumulates one tool call's fragments as they arrive,
// in whatever order the adapter yields them.
type partialToolCall struct {
	id        string
	name      string
	arguments string
}

// AssembleStream drains a ChunkStream to completion and returns the fully
// reassembled assistant message plus the terminal finish reason. This is
// the one reassembly implementation every provider adapter's StreamChunk
// output runs through — adapters only normalize their own wire-specific
// key (array index, content-block index, item_id) into
// model.ToolCallDelta.Index in first-seen order; concatenation by field
// happens once, here, per spec.md §4.2's reassembly rule and §9's note
// that adapters normalize at the edge so this code stays identical across
// providers.
func AssembleStream(stream model.ChunkStream, onToken func(string)) (model.Message, string, error) {
	msg := model.Message{Role: model.RoleAssistant}
	var order []int
	partials := map[int]*partialToolCall{}
	finishReason := ""

	for stream.Next() {
		chunk := stream.Current()
		if chunk.Delta.Content != "" {
			msg.Content += chunk.Delta.Content
			if onToken != nil {
				onToken(chunk.Delta.Content)
			}
		}
		for _, d := range chunk.Delta.ToolCalls {
			pc, ok := partials[d.Index]
			if !ok {
				pc = &partialToolCall{}
				partials[d.Index] = pc
				order = append(order, d.Index)
			}
			if pc.id == "" && d.ID != "" {
				pc.id = d.ID
			}
			pc.name += d.Name
			pc.arguments += d.ArgumentsFragment
		}
		if chunk.FinishReason != "" {
			finishReason = chunk.FinishReason
		}
	}
	if err := stream.Err(); err != nil {
		return model.Message{}, "", err
	}

	for _, idx := range order {
		pc := partials[idx]
		msg.ToolCalls = append(msg.ToolCalls, model.ToolCall{
			ID:        pc.id,
			Name:      pc.name,
			Arguments: pc.arguments,
		})
	}
	return msg, finishReason, nil
}
