package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"caretforge/internal/model"
)

// Compile-time checks that every adapter satisfies model.Provider, mirroring
// the teacher's own interface-satisfaction tests.
func TestProvidersImplementInterface(t *testing.T) {
	var _ model.Provider = (*OpenAIChatProvider)(nil)
	var _ model.Provider = (*AnthropicProvider)(nil)
	var _ model.Provider = (*ResponsesProvider)(nil)
	var _ model.Provider = (*ThreadRunProvider)(nil)
}

func TestTranslateStopReason(t *testing.T) {
	tests := []struct {
		stopReason string
		want       string
	}{
		{"tool_use", "tool_calls"},
		{"end_turn", "stop"},
		{"max_tokens", "stop"},
		{"stop_sequence", "stop"},
		{"", "stop"},
	}
	for _, tt := range tests {
		t.Run(tt.stopReason, func(t *testing.T) {
			if got := translateStopReason(tt.stopReason); got != tt.want {
				t.Errorf("translateStopReason(%q) = %q, want %q", tt.stopReason, got, tt.want)
			}
		})
	}
}

// threadRunServer stubs the four endpoints ThreadRunProvider's
// non-streaming path calls, with the run's polled status fixed at
// runStatus for every GET to /runs/.
func threadRunServer(t *testing.T, runStatus string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/threads", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"id": "thread-1"})
	})
	mux.HandleFunc("/threads/thread-1/runs", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"id": "run-1", "status": "queued"})
	})
	mux.HandleFunc("/threads/thread-1/runs/run-1", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"id": "run-1", "status": runStatus})
	})
	mux.HandleFunc("/threads/thread-1/messages", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{
					"role": "assistant",
					"content": []map[string]any{
						{"type": "text", "text": map[string]string{"value": "done"}},
					},
				},
			},
		})
	})
	return httptest.NewServer(mux)
}

func TestThreadRunRequiresActionFailsRatherThanSucceeding(t *testing.T) {
	srv := threadRunServer(t, "requires_action")
	defer srv.Close()

	p, err := NewThreadRunProvider(Config{Endpoint: srv.URL, APIKey: "k", Model: "m"}, srv.Client())
	if err != nil {
		t.Fatalf("NewThreadRunProvider: %v", err)
	}

	_, err = p.CreateChatCompletion(context.Background(), model.Conversation{{Role: model.RoleUser, Content: "hi"}}, model.Options{})
	if err == nil {
		t.Fatal("expected an error when the run enters requires_action, got nil")
	}
	if !strings.Contains(err.Error(), "client-side function calling") {
		t.Errorf("error %q does not mention unsupported client-side function calling", err.Error())
	}
}

func TestThreadRunIncompleteIsFatal(t *testing.T) {
	srv := threadRunServer(t, "incomplete")
	defer srv.Close()

	p, err := NewThreadRunProvider(Config{Endpoint: srv.URL, APIKey: "k", Model: "m"}, srv.Client())
	if err != nil {
		t.Fatalf("NewThreadRunProvider: %v", err)
	}

	_, err = p.CreateChatCompletion(context.Background(), model.Conversation{{Role: model.RoleUser, Content: "hi"}}, model.Options{})
	if err == nil {
		t.Fatal("expected an error when the run ends incomplete, got nil")
	}
}

func TestThreadRunCompletedFetchesMessage(t *testing.T) {
	srv := threadRunServer(t, "completed")
	defer srv.Close()

	p, err := NewThreadRunProvider(Config{Endpoint: srv.URL, APIKey: "k", Model: "m"}, srv.Client())
	if err != nil {
		t.Fatalf("NewThreadRunProvider: %v", err)
	}

	result, err := p.CreateChatCompletion(context.Background(), model.Conversation{{Role: model.RoleUser, Content: "hi"}}, model.Options{})
	if err != nil {
		t.Fatalf("CreateChatCompletion: %v", err)
	}
	if result.Message.Content != "done" {
		t.Errorf("Message.Content = %q, want %q", result.Message.Content, "done")
	}
}
