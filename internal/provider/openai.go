package provider

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"caretforge/internal/model"
	"caretforge/internal/tooldef"
)

// oaChatMessage is one entry of variant A's "messages" array.
type oaChatMessage struct {
	Role       string       `json:"role"`
	Content    string       `json:"content,omitempty"`
	ToolCallID string       `json:"tool_call_id,omitempty"`
	ToolCalls  []oaToolCall `json:"tool_calls,omitempty"`
}

type oaToolCall struct {
	ID       string         `json:"id"`
	Type     string         `json:"type"`
	Function oaFunctionCall `json:"function"`
}

type oaFunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type oaChatRequest struct {
	Messages    []oaChatMessage      `json:"messages"`
	Tools       []tooldef.OpenAITool `json:"tools,omitempty"`
	Stream      bool                 `json:"stream,omitempty"`
	Temperature *float64             `json:"temperature,omitempty"`
	MaxTokens   *int                 `json:"max_tokens,omitempty"`
}

type oaChoice struct {
	Message      oaChatMessage `json:"message"`
	Delta        oaDelta       `json:"delta"`
	FinishReason string        `json:"finish_reason"`
}

type oaDelta struct {
	Role      string            `json:"role,omitempty"`
	Content   string            `json:"content,omitempty"`
	ToolCalls []oaDeltaToolCall `json:"tool_calls,omitempty"`
}

type oaDeltaToolCall struct {
	Index    int            `json:"index"`
	ID       string         `json:"id,omitempty"`
	Function oaFunctionCall `json:"function"`
}

type oaUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type oaChatResponse struct {
	Choices []oaChoice `json:"choices"`
	Usage   *oaUsage   `json:"usage"`
}

type oaStreamChunk struct {
	Choices []oaChoice `json:"choices"`
	Usage   *oaUsage   `json:"usage"`
}

type oaModelList struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

// OpenAIChatProvider speaks variant A: OpenAI-style chat completions behind
// an Azure-deployment-shaped URL, authenticated with a static api-key
// header rather than OpenAI's own "Authorization: Bearer" scheme.
type OpenAIChatProvider struct {
	cfg    Config
	client *http.Client
}

func NewOpenAIChatProvider(cfg Config, client *http.Client) (*OpenAIChatProvider, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("openai-chat: endpoint is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai-chat: api key is required")
	}
	return &OpenAIChatProvider{cfg: cfg, client: client}, nil
}

func (p *OpenAIChatProvider) Name() string        { return "openai-chat" }
func (p *OpenAIChatProvider) SupportsTools() bool { return true }

func (p *OpenAIChatProvider) deploymentURL(model string) string {
	path := p.cfg.AzureDeploymentPath
	if path == "" {
		path = "/chat/completions"
	}
	version := p.cfg.AzureAPIVersion
	if version == "" {
		version = "2024-06-01"
	}
	return fmt.Sprintf("%s/openai/deployments/%s%s?api-version=%s", strings.TrimRight(p.cfg.Endpoint, "/"), model, path, version)
}

func (p *OpenAIChatProvider) headers() map[string]string {
	return map[string]string{"api-key": p.cfg.APIKey}
}

func toOAMessages(msgs model.Conversation) []oaChatMessage {
	out := make([]oaChatMessage, 0, len(msgs))
	for _, m := range msgs {
		wm := oaChatMessage{Role: string(m.Role), Content: m.Content, ToolCallID: m.ToolCallID}
		for _, tc := range m.ToolCalls {
			wm.ToolCalls = append(wm.ToolCalls, oaToolCall{
				ID:   tc.ID,
				Type: "function",
				Function: oaFunctionCall{
					Name:      tc.Name,
					Arguments: tc.Arguments,
				},
			})
		}
		out = append(out, wm)
	}
	return out
}

func oaRequestFrom(messages model.Conversation, opts model.Options, stream bool) oaChatRequest {
	req := oaChatRequest{
		Messages:    toOAMessages(messages),
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
		Stream:      stream,
	}
	if len(opts.Tools) > 0 {
		req.Tools = tooldef.ToOpenAIWire(opts.Tools)
	}
	return req
}

func oaMessageToModel(m oaChatMessage) model.Message {
	out := model.Message{Role: model.RoleAssistant, Content: m.Content}
	for _, tc := range m.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, model.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return out
}

func (p *OpenAIChatProvider) CreateChatCompletion(ctx context.Context, messages model.Conversation, opts model.Options) (model.ChatCompletionResult, error) {
	modelName := opts.Model
	if modelName == "" {
		modelName = p.cfg.Model
	}
	req := oaRequestFrom(messages, opts, false)

	resp, err := postJSON(ctx, p.client, p.Name(), p.deploymentURL(modelName), p.headers(), req)
	if err != nil {
		return model.ChatCompletionResult{}, err
	}
	var wire oaChatResponse
	if err := decodeJSONBody(p.Name(), resp, &wire); err != nil {
		return model.ChatCompletionResult{}, err
	}
	if len(wire.Choices) == 0 {
		return model.ChatCompletionResult{}, causeError(p.Name(), fmt.Errorf("empty choices array"))
	}
	result := model.ChatCompletionResult{
		Message:      oaMessageToModel(wire.Choices[0].Message),
		FinishReason: wire.Choices[0].FinishReason,
	}
	if wire.Usage != nil {
		result.Usage = &model.Usage{
			PromptTokens:     wire.Usage.PromptTokens,
			CompletionTokens: wire.Usage.CompletionTokens,
			TotalTokens:      wire.Usage.TotalTokens,
		}
	}
	return result, nil
}

func (p *OpenAIChatProvider) CreateStreamingChatCompletion(ctx context.Context, messages model.Conversation, opts model.Options) (model.ChunkStream, error) {
	modelName := opts.Model
	if modelName == "" {
		modelName = p.cfg.Model
	}
	req := oaRequestFrom(messages, opts, true)

	resp, err := postJSON(ctx, p.client, p.Name(), p.deploymentURL(modelName), p.headers(), req)
	if err != nil {
		return nil, err
	}
	sc := bufio.NewScanner(resp.Body)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	return &oaChatStream{providerName: p.Name(), body: resp.Body, sc: sc}, nil
}

// oaChatStream parses variant A's "data: {json}" / "data: [DONE]" SSE body
// into the canonical StreamChunk shape, normalizing each delta tool call's
// explicit array index into model.ToolCallDelta.Index unchanged (variant A
// already numbers by array position, so no remapping is needed here).
type oaChatStream struct {
	providerName string
	body         interface{ Close() error }
	sc           *bufio.Scanner
	cur          model.StreamChunk
	err          error
	done         bool
}

func (s *oaChatStream) Next() bool {
	if s.done || s.err != nil {
		return false
	}
	for s.sc.Scan() {
		line := s.sc.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "" {
			continue
		}
		if data == "[DONE]" {
			s.done = true
			return false
		}
		var chunk oaStreamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			s.err = causeError(s.providerName, err)
			return false
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		choice := chunk.Choices[0]
		sc := model.StreamChunk{FinishReason: choice.FinishReason}
		sc.Delta.Role = choice.Delta.Role
		sc.Delta.Content = choice.Delta.Content
		for _, tc := range choice.Delta.ToolCalls {
			sc.Delta.ToolCalls = append(sc.Delta.ToolCalls, model.ToolCallDelta{
				Index:             tc.Index,
				ID:                tc.ID,
				Name:              tc.Function.Name,
				ArgumentsFragment: tc.Function.Arguments,
			})
		}
		s.cur = sc
		return true
	}
	if err := s.sc.Err(); err != nil {
		s.err = causeError(s.providerName, err)
	}
	return false
}

func (s *oaChatStream) Current() model.StreamChunk { return s.cur }
func (s *oaChatStream) Err() error                 { return s.err }
func (s *oaChatStream) Close() error { return s.body.Close() }

func (p *OpenAIChatProvider) ListModels(ctx context.Context) ([]model.ModelInfo, error) {
	url := fmt.Sprintf("%s/openai/models?api-version=%s", strings.TrimRight(p.cfg.Endpoint, "/"), p.cfg.AzureAPIVersion)
	var wire oaModelList
	if err := getJSON(ctx, p.client, p.Name(), url, p.headers(), &wire); err != nil {
		return nil, err
	}
	out := make([]model.ModelInfo, 0, len(wire.Data))
	for _, m := range wire.Data {
		out = append(out, model.ModelInfo{ID: m.ID})
	}
	return out, nil
}
