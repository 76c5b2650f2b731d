package agent

import (
	"testing"

	"caretforge/internal/model"
)

// fakeStream replays a fixed slice of StreamChunks, used to simulate an
// adapter whose wire events were partitioned arbitrarily.
type fakeStream struct {
	chunks []model.StreamChunk
	i      int
}

func (s *fakeStream) Next() bool {
	if s.i >= len(s.chunks) {
		return false
	}
	s.i++
	return true
}
func (s *fakeStream) Current() model.StreamChunk { return s.chunks[s.i-1] }
func (s *fakeStream) Err() error                 { return nil }
func (s *fakeStream) Close() error               { return nil }

func TestAssembleStreamTextOnly(t *testing.T) {
	stream := &fakeStream{chunks: []model.StreamChunk{
		{Delta: model.StreamDelta{Content: "hel"}},
		{Delta: model.StreamDelta{Content: "lo"}},
		{FinishReason: "stop"},
	}}
	msg, reason, err := AssembleStream(stream, nil)
	if err != nil {
		t.Fatalf("AssembleStream: %v", err)
	}
	if msg.Content != "hello" || reason != "stop" {
		t.Fatalf("got content=%q reason=%q", msg.Content, reason)
	}
	if len(msg.ToolCalls) != 0 {
		t.Fatalf("expected no tool calls")
	}
}

func TestAssembleStreamToolCallArbitraryChunking(t *testing.T) {
	// The same two tool calls, partitioned three different ways, must
	// reassemble identically — the round-trip property from spec.md §8.
	full := []model.ToolCallDelta{
		{Index: 0, ID: "call_1", Name: "read_file", ArgumentsFragment: `{"path":"a.go"}`},
		{Index: 1, ID: "call_2", Name: "glob_find", ArgumentsFragment: `{"pattern":"*.go"}`},
	}

	partitions := [][]model.StreamChunk{
		{ // one chunk per delta
			{Delta: model.StreamDelta{ToolCalls: []model.ToolCallDelta{full[0]}}},
			{Delta: model.StreamDelta{ToolCalls: []model.ToolCallDelta{full[1]}}},
		},
		{ // both deltas split into name/id then arguments
			{Delta: model.StreamDelta{ToolCalls: []model.ToolCallDelta{{Index: 0, ID: "call_1", Name: "read_file"}}}},
			{Delta: model.StreamDelta{ToolCalls: []model.ToolCallDelta{{Index: 1, ID: "call_2", Name: "glob_find"}}}},
			{Delta: model.StreamDelta{ToolCalls: []model.ToolCallDelta{{Index: 0, ArgumentsFragment: `{"path":`}}}},
			{Delta: model.StreamDelta{ToolCalls: []model.ToolCallDelta{{Index: 1, ArgumentsFragment: `{"pattern":`}}}},
			{Delta: model.StreamDelta{ToolCalls: []model.ToolCallDelta{{Index: 0, ArgumentsFragment: `"a.go"}`}}}},
			{Delta: model.StreamDelta{ToolCalls: []model.ToolCallDelta{{Index: 1, ArgumentsFragment: `"*.go"}`}}}},
		},
		{ // both complete deltas in a single chunk
			{Delta: model.StreamDelta{ToolCalls: []model.ToolCallDelta{
				{Index: 0, ID: "call_1", Name: "read_file", ArgumentsFragment: `{"path":"a.go"}`},
				{Index: 1, ID: "call_2", Name: "glob_find", ArgumentsFragment: `{"pattern":"*.go"}`},
			}}},
		},
	}

	for i, chunks := range partitions {
		msg, _, err := AssembleStream(&fakeStream{chunks: chunks}, nil)
		if err != nil {
			t.Fatalf("partition %d: AssembleStream: %v", i, err)
		}
		if len(msg.ToolCalls) != 2 {
			t.Fatalf("partition %d: expected 2 tool calls, got %d", i, len(msg.ToolCalls))
		}
		if msg.ToolCalls[0].ID != "call_1" || msg.ToolCalls[0].Name != "read_file" || msg.ToolCalls[0].Arguments != `{"path":"a.go"}` {
			t.Fatalf("partition %d: tool call 0 = %+v", i, msg.ToolCalls[0])
		}
		if msg.ToolCalls[1].ID != "call_2" || msg.ToolCalls[1].Name != "glob_find" || msg.ToolCalls[1].Arguments != `{"pattern":"*.go"}` {
			t.Fatalf("partition %d: tool call 1 = %+v", i, msg.ToolCalls[1])
		}
	}
}

func TestAssembleStreamOnTokenCallback(t *testing.T) {
	var got string
	stream := &fakeStream{chunks: []model.StreamChunk{
		{Delta: model.StreamDelta{Content: "a"}},
		{Delta: model.StreamDelta{Content: "b"}},
	}}
	_, _, err := AssembleStream(stream, func(tok string) { got += tok })
	if err != nil {
		t.Fatalf("AssembleStream: %v", err)
	}
	if got != "ab" {
		t.Fatalf("onToken accumulated %q", got)
	}
}
