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

// respInputItem is one entry of variant C's heterogeneous "input" array:
// either a plain role/content message, a function_call echoing back a
// prior tool invocation, or a function_call_output carrying its result.
type respInputItem struct {
	Type      string `json:"type,omitempty"`
	Role      string `json:"role,omitempty"`
	Content   string `json:"content,omitempty"`
	CallID    string `json:"call_id,omitempty"`
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
	Output    string `json:"output,omitempty"`
}

type respRequest struct {
	Model       string                 `json:"model"`
	Instructions string                `json:"instructions,omitempty"`
	Input       []respInputItem        `json:"input"`
	Tools       []tooldef.ResponsesTool `json:"tools,omitempty"`
	Stream      bool                   `json:"stream,omitempty"`
	Temperature *float64               `json:"temperature,omitempty"`
	MaxOutputTokens *int               `json:"max_output_tokens,omitempty"`
}

type respOutputItem struct {
	Type      string              `json:"type"`
	ID        string              `json:"id,omitempty"`
	CallID    string              `json:"call_id,omitempty"`
	Name      string              `json:"name,omitempty"`
	Arguments string              `json:"arguments,omitempty"`
	Content   []respOutputContent `json:"content,omitempty"`
}

type respOutputContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type respUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

type respResponse struct {
	Output     []respOutputItem `json:"output"`
	Usage      *respUsage       `json:"usage"`
	Status     string           `json:"status"`
}

// ResponsesProvider speaks variant C: OpenAI's Responses API, with
// top-level "instructions" instead of a system message, a flattened
// heterogeneous "input" array instead of chat messages, and named
// "response.*" SSE events instead of an OpenAI-chat-style delta blob.
type ResponsesProvider struct {
	cfg    Config
	client *http.Client
}

func NewResponsesProvider(cfg Config, client *http.Client) (*ResponsesProvider, error) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "https://api.openai.com/v1"
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai-responses: api key is required")
	}
	return &ResponsesProvider{cfg: cfg, client: client}, nil
}

func (p *ResponsesProvider) Name() string        { return "openai-responses" }
func (p *ResponsesProvider) SupportsTools() bool { return true }

func (p *ResponsesProvider) headers() map[string]string {
	return map[string]string{"Authorization": "Bearer " + p.cfg.APIKey}
}

func (p *ResponsesProvider) url() string {
	return strings.TrimRight(p.cfg.Endpoint, "/") + "/responses"
}

func toRespInput(msgs model.Conversation) (string, []respInputItem) {
	var instructions strings.Builder
	var input []respInputItem
	for _, m := range msgs {
		switch m.Role {
		case model.RoleSystem:
			if instructions.Len() > 0 {
				instructions.WriteString("\n\n")
			}
			instructions.WriteString(m.Content)
		case model.RoleTool:
			input = append(input, respInputItem{Type: "function_call_output", CallID: m.ToolCallID, Output: m.Content})
		case model.RoleAssistant:
			if m.Content != "" {
				input = append(input, respInputItem{Role: "assistant", Content: m.Content})
			}
			for _, tc := range m.ToolCalls {
				input = append(input, respInputItem{
					Type:      "function_call",
					CallID:    tc.ID,
					Name:      tc.Name,
					Arguments: tc.Arguments,
				})
			}
		default:
			input = append(input, respInputItem{Role: "user", Content: m.Content})
		}
	}
	return instructions.String(), input
}

func respRequestFrom(messages model.Conversation, opts model.Options, stream bool) respRequest {
	instructions, input := toRespInput(messages)
	req := respRequest{
		Instructions:    instructions,
		Input:           input,
		Temperature:     opts.Temperature,
		MaxOutputTokens: opts.MaxTokens,
		Stream:          stream,
	}
	if len(opts.Tools) > 0 {
		req.Tools = tooldef.ToResponsesWire(opts.Tools)
	}
	return req
}

func respOutputToModel(items []respOutputItem) model.Message {
	out := model.Message{Role: model.RoleAssistant}
	for _, item := range items {
		switch item.Type {
		case "message":
			for _, c := range item.Content {
				if c.Type == "output_text" {
					out.Content += c.Text
				}
			}
		case "function_call":
			out.ToolCalls = append(out.ToolCalls, model.ToolCall{
				ID:        item.CallID,
				Name:      item.Name,
				Arguments: item.Arguments,
			})
		}
	}
	return out
}

func (p *ResponsesProvider) CreateChatCompletion(ctx context.Context, messages model.Conversation, opts model.Options) (model.ChatCompletionResult, error) {
	req := respRequestFrom(messages, opts, false)
	req.Model = modelOrDefault(opts.Model, p.cfg.Model)

	resp, err := postJSON(ctx, p.client, p.Name(), p.url(), p.headers(), req)
	if err != nil {
		return model.ChatCompletionResult{}, err
	}
	var wire respResponse
	if err := decodeJSONBody(p.Name(), resp, &wire); err != nil {
		return model.ChatCompletionResult{}, err
	}
	result := model.ChatCompletionResult{
		Message:      respOutputToModel(wire.Output),
		FinishReason: wire.Status,
	}
	if wire.Usage != nil {
		result.Usage = &model.Usage{
			PromptTokens:     wire.Usage.InputTokens,
			CompletionTokens: wire.Usage.OutputTokens,
			TotalTokens:      wire.Usage.TotalTokens,
		}
	}
	return result, nil
}

func (p *ResponsesProvider) CreateStreamingChatCompletion(ctx context.Context, messages model.Conversation, opts model.Options) (model.ChunkStream, error) {
	req := respRequestFrom(messages, opts, true)
	req.Model = modelOrDefault(opts.Model, p.cfg.Model)

	resp, err := postJSON(ctx, p.client, p.Name(), p.url(), p.headers(), req)
	if err != nil {
		return nil, err
	}
	return &respStream{
		providerName: p.Name(),
		body:         resp.Body,
		events:       NewSSEScanner(resp.Body),
		itemIndex:    map[string]int{},
	}, nil
}

type respEventTextDelta struct {
	Delta string `json:"delta"`
}

type respEventOutputItemAdded struct {
	Item struct {
		ID     string `json:"id"`
		Type   string `json:"type"`
		CallID string `json:"call_id"`
		Name   string `json:"name"`
	} `json:"item"`
}

type respEventFunctionArgsDelta struct {
	ItemID string `json:"item_id"`
	Delta  string `json:"delta"`
}

type respEventCompleted struct {
	Response struct {
		Status string `json:"status"`
	} `json:"response"`
}

// respStream decodes variant C's named SSE events
// (response.output_text.delta / response.output_item.added /
// response.function_call_arguments.delta / .done / response.completed),
// remapping each event's item_id into a first-seen-order tool-call index.
type respStream struct {
	providerName string
	body         interface{ Close() error }
	events       *SSEScanner
	cur          model.StreamChunk
	err          error

	itemIndex map[string]int // response item_id -> first-seen tool-call index
	nextIndex int
}

func (s *respStream) Next() bool {
	for s.events.Next() {
		ev := s.events.Current()
		switch ev.Event {
		case "response.output_text.delta":
			var e respEventTextDelta
			if err := json.Unmarshal([]byte(ev.Data), &e); err != nil {
				s.err = causeError(s.providerName, err)
				return false
			}
			s.cur = model.StreamChunk{Delta: model.StreamDelta{Content: e.Delta}}
			return true

		case "response.output_item.added":
			var e respEventOutputItemAdded
			if err := json.Unmarshal([]byte(ev.Data), &e); err != nil {
				s.err = causeError(s.providerName, err)
				return false
			}
			if e.Item.Type != "function_call" {
				continue
			}
			idx := s.nextIndex
			s.itemIndex[e.Item.ID] = idx
			s.nextIndex++
			s.cur = model.StreamChunk{Delta: model.StreamDelta{
				ToolCalls: []model.ToolCallDelta{{Index: idx, ID: e.Item.CallID, Name: e.Item.Name}},
			}}
			return true

		case "response.function_call_arguments.delta":
			var e respEventFunctionArgsDelta
			if err := json.Unmarshal([]byte(ev.Data), &e); err != nil {
				s.err = causeError(s.providerName, err)
				return false
			}
			idx, ok := s.itemIndex[e.ItemID]
			if !ok {
				continue
			}
			s.cur = model.StreamChunk{Delta: model.StreamDelta{
				ToolCalls: []model.ToolCallDelta{{Index: idx, ArgumentsFragment: e.Delta}},
			}}
			return true

		case "response.function_call_arguments.done":
			continue

		case "response.completed":
			var e respEventCompleted
			if err := json.Unmarshal([]byte(ev.Data), &e); err != nil {
				s.err = causeError(s.providerName, err)
				return false
			}
			s.cur = model.StreamChunk{FinishReason: e.Response.Status}
			return true

		default:
			continue
		}
	}
	if err := s.events.Err(); err != nil {
		s.err = causeError(s.providerName, err)
	}
	return false
}

func (s *respStream) Current() model.StreamChunk { return s.cur }
func (s *respStream) Err() error                 { return s.err }
func (s *respStream) Close() error               { return s.body.Close() }

func (p *ResponsesProvider) ListModels(ctx context.Context) ([]model.ModelInfo, error) {
	var wire struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	url := strings.TrimRight(p.cfg.Endpoint, "/") + "/models"
	if err := getJSON(ctx, p.client, p.Name(), url, p.headers(), &wire); err != nil {
		return nil, err
	}
	out := make([]model.ModelInfo, 0, len(wire.Data))
	for _, m := range wire.Data {
		out = append(out, model.ModelInfo{ID: m.ID})
	}
	return out, nil
}
