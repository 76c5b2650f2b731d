package model

import (
	"context"

	mcp "github.com/mark3labs/mcp-go/mcp"
)

// ToolDefinition is the fixed description of one tool the agent may call.
// Schema follows JSON-schema shape via the mcp-go Tool input-schema type,
// which already models the {type, properties, required, $defs} object the
// spec calls for and is reused, unmodified, by every provider adapter's
// wire-format tool converter.
type ToolDefinition struct {
	Name        string
	Description string
	Schema      mcp.ToolInputSchema
}

// ModelInfo describes one model a provider can serve.
type ModelInfo struct {
	ID          string
	Description string
}

// Options configures one chat completion call.
type Options struct {
	Model       string
	Stream      bool
	Temperature *float64
	MaxTokens   *int
	Tools       []ToolDefinition
}

// Usage reports token accounting, when a provider supplies it.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// ChatCompletionResult is the outcome of a non-streaming call.
type ChatCompletionResult struct {
	Message      Message
	Usage        *Usage
	FinishReason string
}

// ToolCallDelta is a partial tool call fragment as it streams in. Index is
// the partial's position in first-seen order within the current assistant
// turn — providers that key fragments differently on the wire (an explicit
// index, a content-block index, an item_id) are normalized to this single
// index at the edge of their adapter, so the reassembly logic downstream
// is identical for every provider.
type ToolCallDelta struct {
	Index             int
	ID                string
	Name              string
	ArgumentsFragment string
}

// StreamDelta is the incremental content of one stream chunk.
type StreamDelta struct {
	Role      string
	Content   string
	ToolCalls []ToolCallDelta
}

// StreamChunk is one element of a streaming chat completion.
type StreamChunk struct {
	Delta        StreamDelta
	FinishReason string
}

// ChunkStream is a lazy, finite, non-restartable sequence of StreamChunks.
// Callers must drain Next() to false (or observe a non-nil Err) before
// starting another call against the same provider, and must Close it when
// done, mirroring the iterator shape the OpenAI and Anthropic Go SDKs use
// for their own SSE streams.
type ChunkStream interface {
	Next() bool
	Current() StreamChunk
	Err() error
	Close() error
}

// Provider abstracts one remote LLM backend behind a uniform contract. No
// wire-format enum or type from an adapter's implementation leaks through
// this interface — callers only ever see canonical model types.
type Provider interface {
	// Name is a stable identifier for the backend, e.g. "openai", "anthropic".
	Name() string

	// SupportsTools reports whether this backend can receive client-defined
	// tools at all. The async thread/run backend returns false: its tools
	// are configured server-side.
	SupportsTools() bool

	// ListModels returns the models this backend can serve.
	ListModels(ctx context.Context) ([]ModelInfo, error)

	// CreateChatCompletion performs one non-streaming call.
	CreateChatCompletion(ctx context.Context, messages Conversation, opts Options) (ChatCompletionResult, error)

	// CreateStreamingChatCompletion performs one streaming call.
	CreateStreamingChatCompletion(ctx context.Context, messages Conversation, opts Options) (ChunkStream, error)
}
