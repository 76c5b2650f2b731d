package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/exec"
	"strings"
	"sync"
	"time"

	"caretforge/internal/model"
)

// ThreadRunProvider speaks variant D: an asynchronous thread/run protocol.
// A turn is POST thread -> POST run -> poll the run status with backoff ->
// GET the resulting messages. It authenticates with either a static
// api-key header or, when UseAzureCLIAuth is set, a bearer token minted by
// the Azure CLI and cached until shortly before it expires. It has no
// tool-calling support (spec.md §4.3 variant D).
type ThreadRunProvider struct {
	cfg    Config
	client *http.Client

	mu          sync.Mutex
	cachedToken string
	tokenExpiry time.Time
}

func NewThreadRunProvider(cfg Config, client *http.Client) (*ThreadRunProvider, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("threadrun: endpoint is required")
	}
	if !cfg.UseAzureCLIAuth && cfg.APIKey == "" {
		return nil, fmt.Errorf("threadrun: api key is required unless Azure CLI auth is enabled")
	}
	return &ThreadRunProvider{cfg: cfg, client: client}, nil
}

func (p *ThreadRunProvider) Name() string        { return "threadrun" }
func (p *ThreadRunProvider) SupportsTools() bool { return false }

func (p *ThreadRunProvider) headers(ctx context.Context) (map[string]string, error) {
	if !p.cfg.UseAzureCLIAuth {
		return map[string]string{"api-key": p.cfg.APIKey}, nil
	}
	token, err := p.azureBearerToken(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]string{"Authorization": "Bearer " + token}, nil
}

// azureCLITokenTTLMargin is how far ahead of the token's real expiry we
// discard the cache and mint a fresh one, so a request never starts with
// a token that expires mid-flight.
const azureCLITokenTTLMargin = 60 * time.Second

type azTokenOutput struct {
	AccessToken string `json:"accessToken"`
	ExpiresOn   string `json:"expiresOn"`
}

func (p *ThreadRunProvider) azureBearerToken(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cachedToken != "" && time.Now().Before(p.tokenExpiry) {
		return p.cachedToken, nil
	}

	cmd := exec.CommandContext(ctx, "az", "account", "get-access-token", "--output", "json")
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return "", causeError(p.Name(), fmt.Errorf("az account get-access-token: %w", err))
	}

	var out azTokenOutput
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		return "", causeError(p.Name(), fmt.Errorf("parsing az token output: %w", err))
	}
	expiry, err := time.ParseInLocation("2006-01-02 15:04:05.999999", out.ExpiresOn, time.Local)
	if err != nil {
		expiry = time.Now().Add(time.Hour)
	}

	p.cachedToken = out.AccessToken
	p.tokenExpiry = expiry.Add(-azureCLITokenTTLMargin)
	return p.cachedToken, nil
}

type trThreadMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type trThread struct {
	ID string `json:"id"`
}

type trRun struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type trMessagesPage struct {
	Data []struct {
		Role    string `json:"role"`
		Content []struct {
			Type string `json:"type"`
			Text struct {
				Value string `json:"value"`
			} `json:"text"`
		} `json:"content"`
	} `json:"data"`
}

func (p *ThreadRunProvider) baseURL() string {
	return strings.TrimRight(p.cfg.Endpoint, "/")
}

func (p *ThreadRunProvider) createThread(ctx context.Context, headers map[string]string, messages model.Conversation) (string, error) {
	body := struct {
		Messages []trThreadMessage `json:"messages"`
	}{}
	for _, m := range messages {
		body.Messages = append(body.Messages, trThreadMessage{Role: string(m.Role), Content: m.Content})
	}
	resp, err := postJSON(ctx, p.client, p.Name(), p.baseURL()+"/threads", headers, body)
	if err != nil {
		return "", err
	}
	var thread trThread
	if err := decodeJSONBody(p.Name(), resp, &thread); err != nil {
		return "", err
	}
	return thread.ID, nil
}

func (p *ThreadRunProvider) createRun(ctx context.Context, headers map[string]string, threadID, modelName string) (string, error) {
	body := struct {
		Model string `json:"model"`
	}{Model: modelName}
	resp, err := postJSON(ctx, p.client, p.Name(), p.baseURL()+"/threads/"+threadID+"/runs", headers, body)
	if err != nil {
		return "", err
	}
	var run trRun
	if err := decodeJSONBody(p.Name(), resp, &run); err != nil {
		return "", err
	}
	return run.ID, nil
}

// pollRunStart, pollRunCap and pollRunTimeout bound the exponential backoff used
// while waiting for a run to leave the queued/in_progress states: starting
// at 500ms, doubling, capped at 5s, for up to 120s total.
const (
	pollRunStart   = 500 * time.Millisecond
	pollRunCap     = 5 * time.Second
	pollRunTimeout = 120 * time.Second
)

func (p *ThreadRunProvider) pollRun(ctx context.Context, headers map[string]string, threadID, runID string) (*trRun, error) {
	deadline := time.Now().Add(pollRunTimeout)
	delay := pollRunStart
	for {
		var run trRun
		if err := getJSON(ctx, p.client, p.Name(), p.baseURL()+"/threads/"+threadID+"/runs/"+runID, headers, &run); err != nil {
			return nil, err
		}
		switch run.Status {
		case "queued", "in_progress":
			if time.Now().After(deadline) {
				return nil, causeError(p.Name(), fmt.Errorf("run %s timed out after %s in status %q", runID, pollRunTimeout, run.Status))
			}
			select {
			case <-ctx.Done():
				return nil, causeError(p.Name(), ctx.Err())
			case <-time.After(delay):
			}
			delay *= 2
			if delay > pollRunCap {
				delay = pollRunCap
			}
			continue
		case "requires_action":
			return nil, causeError(p.Name(), fmt.Errorf("run %s requires client-side function calling, which is unsupported", runID))
		default:
			return &run, nil
		}
	}
}

func (p *ThreadRunProvider) fetchLatestMessage(ctx context.Context, headers map[string]string, threadID string) (model.Message, error) {
	var page trMessagesPage
	if err := getJSON(ctx, p.client, p.Name(), p.baseURL()+"/threads/"+threadID+"/messages", headers, &page); err != nil {
		return model.Message{}, err
	}
	for _, item := range page.Data {
		if item.Role != "assistant" {
			continue
		}
		var text strings.Builder
		for _, c := range item.Content {
			if c.Type == "text" {
				text.WriteString(c.Text.Value)
			}
		}
		return model.Message{Role: model.RoleAssistant, Content: text.String()}, nil
	}
	return model.Message{}, causeError(p.Name(), fmt.Errorf("no assistant message found in thread %s", threadID))
}

func (p *ThreadRunProvider) CreateChatCompletion(ctx context.Context, messages model.Conversation, opts model.Options) (model.ChatCompletionResult, error) {
	headers, err := p.headers(ctx)
	if err != nil {
		return model.ChatCompletionResult{}, err
	}
	modelName := modelOrDefault(opts.Model, p.cfg.Model)

	threadID, err := p.createThread(ctx, headers, messages)
	if err != nil {
		return model.ChatCompletionResult{}, err
	}
	runID, err := p.createRun(ctx, headers, threadID, modelName)
	if err != nil {
		return model.ChatCompletionResult{}, err
	}
	run, err := p.pollRun(ctx, headers, threadID, runID)
	if err != nil {
		return model.ChatCompletionResult{}, err
	}
	if run.Status == "failed" || run.Status == "expired" || run.Status == "cancelled" || run.Status == "incomplete" {
		return model.ChatCompletionResult{}, causeError(p.Name(), fmt.Errorf("run ended in status %q", run.Status))
	}
	msg, err := p.fetchLatestMessage(ctx, headers, threadID)
	if err != nil {
		return model.ChatCompletionResult{}, err
	}
	return model.ChatCompletionResult{Message: msg, FinishReason: run.Status}, nil
}

// createRunStream is createRun's streaming sibling: it requests "stream":
// true and returns the live response so its body can be read as an SSE
// event stream rather than decoded as one JSON object.
func (p *ThreadRunProvider) createRunStream(ctx context.Context, headers map[string]string, threadID, modelName string) (*http.Response, error) {
	body := struct {
		Model  string `json:"model"`
		Stream bool   `json:"stream"`
	}{Model: modelName, Stream: true}
	return postJSON(ctx, p.client, p.Name(), p.baseURL()+"/threads/"+threadID+"/runs", headers, body)
}

// CreateStreamingChatCompletion consumes variant D's typed SSE events
// directly: "thread.message.delta" carries text deltas, "thread.run.completed"
// terminates successfully, and "thread.run.failed"/"thread.run.cancelled"/
// "thread.run.expired"/"thread.run.incomplete" are fatal, per spec.md §4.3
// variant D.
func (p *ThreadRunProvider) CreateStreamingChatCompletion(ctx context.Context, messages model.Conversation, opts model.Options) (model.ChunkStream, error) {
	headers, err := p.headers(ctx)
	if err != nil {
		return nil, err
	}
	modelName := modelOrDefault(opts.Model, p.cfg.Model)

	threadID, err := p.createThread(ctx, headers, messages)
	if err != nil {
		return nil, err
	}
	resp, err := p.createRunStream(ctx, headers, threadID, modelName)
	if err != nil {
		return nil, err
	}
	return &trSSEStream{providerName: p.Name(), body: resp.Body, events: NewSSEScanner(resp.Body)}, nil
}

type trEventMessageDelta struct {
	Delta struct {
		Content []struct {
			Type string `json:"type"`
			Text struct {
				Value string `json:"value"`
			} `json:"text"`
		} `json:"content"`
	} `json:"delta"`
}

type trEventRun struct {
	Status string `json:"status"`
}

// trSSEStream decodes variant D's streaming run events into the canonical
// StreamChunk shape. It never emits a ToolCallDelta: supportsTools is false
// for this variant, so no tool-call reassembly is ever needed here.
type trSSEStream struct {
	providerName string
	body         interface{ Close() error }
	events       *SSEScanner
	cur          model.StreamChunk
	err          error
}

func (s *trSSEStream) Next() bool {
	for s.events.Next() {
		ev := s.events.Current()
		switch ev.Event {
		case "thread.message.delta":
			var e trEventMessageDelta
			if err := json.Unmarshal([]byte(ev.Data), &e); err != nil {
				s.err = causeError(s.providerName, err)
				return false
			}
			var text strings.Builder
			for _, c := range e.Delta.Content {
				if c.Type == "text" {
					text.WriteString(c.Text.Value)
				}
			}
			if text.Len() == 0 {
				continue
			}
			s.cur = model.StreamChunk{Delta: model.StreamDelta{Content: text.String()}}
			return true

		case "thread.run.completed":
			var e trEventRun
			if err := json.Unmarshal([]byte(ev.Data), &e); err != nil {
				s.err = causeError(s.providerName, err)
				return false
			}
			s.cur = model.StreamChunk{FinishReason: e.Status}
			return true

		case "thread.run.requires_action":
			s.err = causeError(s.providerName, fmt.Errorf("run requires client-side function calling, which is unsupported"))
			return false

		case "thread.run.failed", "thread.run.cancelled", "thread.run.expired", "thread.run.incomplete":
			s.err = causeError(s.providerName, fmt.Errorf("run ended in status %q", strings.TrimPrefix(ev.Event, "thread.run.")))
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

func (s *trSSEStream) Current() model.StreamChunk { return s.cur }
func (s *trSSEStream) Err() error                 { return s.err }
func (s *trSSEStream) Close() error               { return s.body.Close() }

func (p *ThreadRunProvider) ListModels(ctx context.Context) ([]model.ModelInfo, error) {
	headers, err := p.headers(ctx)
	if err != nil {
		return nil, err
	}
	var wire struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := getJSON(ctx, p.client, p.Name(), p.baseURL()+"/models", headers, &wire); err != nil {
		return nil, err
	}
	out := make([]model.ModelInfo, 0, len(wire.Data))
	for _, m := range wire.Data {
		out = append(out, model.ModelInfo{ID: m.ID})
	}
	return out, nil
}
