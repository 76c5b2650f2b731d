package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"caretforge/internal/model"
	"caretforge/internal/tooldef"
)

type anMessage struct {
	Role    string      `json:"role"`
	Content []anContent `json:"content"`
}

// anContent is a union of the text/tool_use/tool_result block shapes
// Anthropic's Messages API nests inside a message's "content" array.
type anContent struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   string          `json:"content,omitempty"`
}

type anRequest struct {
	Model       string                  `json:"model"`
	System      string                  `json:"system,omitempty"`
	Messages    []anMessage             `json:"messages"`
	Tools       []tooldef.AnthropicTool `json:"tools,omitempty"`
	Stream      bool                    `json:"stream,omitempty"`
	Temperature *float64                `json:"temperature,omitempty"`
	MaxTokens   int                     `json:"max_tokens"`
}

type anUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type anResponse struct {
	Content    []anContent `json:"content"`
	StopReason string      `json:"stop_reason"`
	Usage      anUsage     `json:"usage"`
}

// AnthropicProvider speaks variant B: Anthropic Messages, with a top-level
// "system" field instead of a system message, x-api-key/anthropic-version
// headers, and typed SSE events rather than an OpenAI-style "data:" blob.
type AnthropicProvider struct {
	cfg    Config
	client *http.Client
}

func NewAnthropicProvider(cfg Config, client *http.Client) (*AnthropicProvider, error) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "https://api.anthropic.com"
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic: api key is required")
	}
	return &AnthropicProvider{cfg: cfg, client: client}, nil
}

func (p *AnthropicProvider) Name() string        { return "anthropic" }
func (p *AnthropicProvider) SupportsTools() bool { return true }

func (p *AnthropicProvider) headers() map[string]string {
	version := p.cfg.AnthropicVersion
	if version == "" {
		version = "2023-06-01"
	}
	return map[string]string{
		"x-api-key":         p.cfg.APIKey,
		"anthropic-version": version,
	}
}

func (p *AnthropicProvider) url() string {
	return strings.TrimRight(p.cfg.Endpoint, "/") + "/v1/messages"
}

// splitSystem pulls leading system messages out of the conversation since
// Anthropic takes system instructions as a request-level field, not a
// message with role "system".
func splitSystem(msgs model.Conversation) (string, model.Conversation) {
	var sys strings.Builder
	rest := make(model.Conversation, 0, len(msgs))
	for _, m := range msgs {
		if m.Role == model.RoleSystem {
			if sys.Len() > 0 {
				sys.WriteString("\n\n")
			}
			sys.WriteString(m.Content)
			continue
		}
		rest = append(rest, m)
	}
	return sys.String(), rest
}

func toAnMessages(msgs model.Conversation) []anMessage {
	out := make([]anMessage, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case model.RoleTool:
			out = append(out, anMessage{
				Role: "user",
				Content: []anContent{{
					Type:      "tool_result",
					ToolUseID: m.ToolCallID,
					Content:   m.Content,
				}},
			})
		case model.RoleAssistant:
			var blocks []anContent
			if m.Content != "" {
				blocks = append(blocks, anContent{Type: "text", Text: m.Content})
			}
			for _, tc := range m.ToolCalls {
				blocks = append(blocks, anContent{
					Type:  "tool_use",
					ID:    tc.ID,
					Name:  tc.Name,
					Input: json.RawMessage(argsOrEmptyObject(tc.Arguments)),
				})
			}
			out = append(out, anMessage{Role: "assistant", Content: blocks})
		default:
			out = append(out, anMessage{Role: "user", Content: []anContent{{Type: "text", Text: m.Content}}})
		}
	}
	return out
}

func argsOrEmptyObject(args string) string {
	if strings.TrimSpace(args) == "" {
		return "{}"
	}
	return args
}

func anRequestFrom(messages model.Conversation, opts model.Options, stream bool) anRequest {
	system, rest := splitSystem(messages)
	maxTokens := 4096
	if opts.MaxTokens != nil {
		maxTokens = *opts.MaxTokens
	}
	req := anRequest{
		System:      system,
		Messages:    toAnMessages(rest),
		Temperature: opts.Temperature,
		MaxTokens:   maxTokens,
		Stream:      stream,
	}
	if len(opts.Tools) > 0 {
		req.Tools = tooldef.ToAnthropicWire(opts.Tools)
	}
	return req
}

func anContentToModel(blocks []anContent) model.Message {
	out := model.Message{Role: model.RoleAssistant}
	for _, b := range blocks {
		switch b.Type {
		case "text":
			out.Content += b.Text
		case "tool_use":
			out.ToolCalls = append(out.ToolCalls, model.ToolCall{
				ID:        b.ID,
				Name:      b.Name,
				Arguments: string(b.Input),
			})
		}
	}
	return out
}

func (p *AnthropicProvider) CreateChatCompletion(ctx context.Context, messages model.Conversation, opts model.Options) (model.ChatCompletionResult, error) {
	req := anRequestFrom(messages, opts, false)
	req.Model = modelOrDefault(opts.Model, p.cfg.Model)

	resp, err := postJSON(ctx, p.client, p.Name(), p.url(), p.headers(), req)
	if err != nil {
		return model.ChatCompletionResult{}, err
	}
	var wire anResponse
	if err := decodeJSONBody(p.Name(), resp, &wire); err != nil {
		return model.ChatCompletionResult{}, err
	}
	return model.ChatCompletionResult{
		Message:      anContentToModel(wire.Content),
		FinishReason: translateStopReason(wire.StopReason),
		Usage: &model.Usage{
			PromptTokens:     wire.Usage.InputTokens,
			CompletionTokens: wire.Usage.OutputTokens,
			TotalTokens:      wire.Usage.InputTokens + wire.Usage.OutputTokens,
		},
	}, nil
}

func modelOrDefault(opt, cfgModel string) string {
	if opt != "" {
		return opt
	}
	return cfgModel
}

// translateStopReason maps Anthropic's stop_reason vocabulary onto the
// canonical finish-reason values the rest of the system expects, per
// spec.md §4.3 variant B ("tool_use" -> "tool_calls", anything else ->
// "stop").
func translateStopReason(stopReason string) string {
	if stopReason == "tool_use" {
		return "tool_calls"
	}
	return "stop"
}

func (p *AnthropicProvider) CreateStreamingChatCompletion(ctx context.Context, messages model.Conversation, opts model.Options) (model.ChunkStream, error) {
	req := anRequestFrom(messages, opts, true)
	req.Model = modelOrDefault(opts.Model, p.cfg.Model)

	resp, err := postJSON(ctx, p.client, p.Name(), p.url(), p.headers(), req)
	if err != nil {
		return nil, err
	}
	return &anStream{
		providerName: p.Name(),
		body:         resp.Body,
		events:       NewSSEScanner(resp.Body),
		blockIndex:   map[int]int{},
	}, nil
}

// anStream decodes Anthropic's typed SSE event sequence
// (content_block_start / content_block_delta / message_delta / ...) into
// canonical StreamChunks, remapping each block's content_block_index into
// a first-seen-order tool-call index so the agent loop's reassembly code
// never has to know an Anthropic content-block index can include non-tool
// text blocks.
type anStream struct {
	providerName string
	body         interface{ Close() error }
	events       *SSEScanner
	cur          model.StreamChunk
	err          error

	blockIndex map[int]int // Anthropic content_block index -> first-seen tool-call index
	nextIndex  int
}

type anEventContentBlockStart struct {
	Index        int `json:"index"`
	ContentBlock struct {
		Type string `json:"type"`
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"content_block"`
}

type anEventContentBlockDelta struct {
	Index int `json:"index"`
	Delta struct {
		Type        string `json:"type"`
		Text        string `json:"text"`
		PartialJSON string `json:"partial_json"`
	} `json:"delta"`
}

type anEventMessageDelta struct {
	Delta struct {
		StopReason string `json:"stop_reason"`
	} `json:"delta"`
}

func (s *anStream) Next() bool {
	for s.events.Next() {
		ev := s.events.Current()
		switch ev.Event {
		case "content_block_start":
			var e anEventContentBlockStart
			if err := json.Unmarshal([]byte(ev.Data), &e); err != nil {
				s.err = causeError(s.providerName, err)
				return false
			}
			if e.ContentBlock.Type != "tool_use" {
				continue
			}
			idx := s.nextIndex
			s.blockIndex[e.Index] = idx
			s.nextIndex++
			s.cur = model.StreamChunk{Delta: model.StreamDelta{
				ToolCalls: []model.ToolCallDelta{{Index: idx, ID: e.ContentBlock.ID, Name: e.ContentBlock.Name}},
			}}
			return true

		case "content_block_delta":
			var e anEventContentBlockDelta
			if err := json.Unmarshal([]byte(ev.Data), &e); err != nil {
				s.err = causeError(s.providerName, err)
				return false
			}
			switch e.Delta.Type {
			case "text_delta":
				s.cur = model.StreamChunk{Delta: model.StreamDelta{Content: e.Delta.Text}}
				return true
			case "input_json_delta":
				idx, ok := s.blockIndex[e.Index]
				if !ok {
					continue
				}
				s.cur = model.StreamChunk{Delta: model.StreamDelta{
					ToolCalls: []model.ToolCallDelta{{Index: idx, ArgumentsFragment: e.Delta.PartialJSON}},
				}}
				return true
			}
			continue

		case "message_delta":
			var e anEventMessageDelta
			if err := json.Unmarshal([]byte(ev.Data), &e); err != nil {
				s.err = causeError(s.providerName, err)
				return false
			}
			s.cur = model.StreamChunk{FinishReason: translateStopReason(e.Delta.StopReason)}
			return true

		case "message_stop":
			return false

		default:
			continue
		}
	}
	if err := s.events.Err(); err != nil {
		s.err = causeError(s.providerName, err)
	}
	return false
}

func (s *anStream) Current() model.StreamChunk { return s.cur }
func (s *anStream) Err() error                 { return s.err }
func (s *anStream) Close() error               { return s.body.Close() }

func (p *AnthropicProvider) ListModels(ctx context.Context) ([]model.ModelInfo, error) {
	var wire struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	url := strings.TrimRight(p.cfg.Endpoint, "/") + "/v1/models"
	if err := getJSON(ctx, p.client, p.Name(), url, p.headers(), &wire); err != nil {
		return nil, err
	}
	out := make([]model.ModelInfo, 0, len(wire.Data))
	for _, m := range wire.Data {
		out = append(out, model.ModelInfo{ID: m.ID})
	}
	return out, nil
}
