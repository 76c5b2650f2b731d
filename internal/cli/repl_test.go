package cli

import (
	"context"
	"testing"

	"caretforge/internal/config"
	"caretforge/internal/model"
)

// fakeProvider is the minimal model.Provider stub needed to exercise
// switchModel without any network access.
type fakeProvider struct{ name string }

func (f *fakeProvider) Name() string         { return f.name }
func (f *fakeProvider) SupportsTools() bool  { return true }
func (f *fakeProvider) ListModels(ctx context.Context) ([]model.ModelInfo, error) {
	return nil, nil
}
func (f *fakeProvider) CreateChatCompletion(ctx context.Context, messages model.Conversation, opts model.Options) (model.ChatCompletionResult, error) {
	return model.ChatCompletionResult{}, nil
}
func (f *fakeProvider) CreateStreamingChatCompletion(ctx context.Context, messages model.Conversation, opts model.Options) (model.ChunkStream, error) {
	return nil, nil
}

func testApp() *App {
	return &App{
		Config: &config.Config{
			DefaultProvider: "openai",
			Providers: map[string]config.ProviderConfig{
				"openai":    {Type: "openai-chat", Endpoint: "https://api.openai.com", APIKey: "sk-test", Model: "gpt-4o"},
				"anthropic": {Type: "anthropic", Endpoint: "https://api.anthropic.com", APIKey: "sk-ant", Model: "claude-sonnet-4-5", AnthropicVersion: "2023-06-01"},
			},
		},
		Provider:     &fakeProvider{name: "openai"},
		ProviderName: "openai",
		ModelID:      "gpt-4o",
	}
}

func TestHandleSlashCommandClear(t *testing.T) {
	app := testApp()
	conv := model.Conversation{{Role: model.RoleUser, Content: "hi"}}

	handled, exit := handleSlashCommand(context.Background(), app, nil, &conv, "/clear")
	if !handled || exit {
		t.Fatalf("handled=%v exit=%v, want true/false", handled, exit)
	}
	if len(conv) != 0 {
		t.Fatalf("conv len = %d, want 0", len(conv))
	}
}

func TestHandleSlashCommandCompact(t *testing.T) {
	app := testApp()
	conv := model.Conversation{
		{Role: model.RoleUser, Content: "1"},
		{Role: model.RoleAssistant, Content: "2"},
		{Role: model.RoleUser, Content: "3"},
		{Role: model.RoleAssistant, Content: "4"},
		{Role: model.RoleUser, Content: "5"},
		{Role: model.RoleAssistant, Content: "6"},
	}

	handled, exit := handleSlashCommand(context.Background(), app, nil, &conv, "/compact")
	if !handled || exit {
		t.Fatalf("handled=%v exit=%v, want true/false", handled, exit)
	}
	if len(conv) != maxCompactMessages {
		t.Fatalf("conv len = %d, want %d", len(conv), maxCompactMessages)
	}
	if conv[0].Content != "3" {
		t.Fatalf("conv[0].Content = %q, want the first of the trailing four messages", conv[0].Content)
	}
}

func TestHandleSlashCommandExit(t *testing.T) {
	app := testApp()
	var conv model.Conversation

	for _, line := range []string{"exit", "quit", "q", "/exit", "/quit"} {
		handled, exit := handleSlashCommand(context.Background(), app, nil, &conv, line)
		if !handled || !exit {
			t.Errorf("line %q: handled=%v exit=%v, want true/true", line, handled, exit)
		}
	}
}

func TestHandleSlashCommandOrdinaryInputNotHandled(t *testing.T) {
	app := testApp()
	var conv model.Conversation

	handled, _ := handleSlashCommand(context.Background(), app, nil, &conv, "what does this function do?")
	if handled {
		t.Fatal("ordinary chat input should not be treated as a slash command")
	}
}

func TestSwitchModelSameProvider(t *testing.T) {
	app := testApp()
	originalProvider := app.Provider

	if err := switchModel(app, "gpt-4o-mini"); err != nil {
		t.Fatalf("switchModel: %v", err)
	}
	if app.ModelID != "gpt-4o-mini" {
		t.Fatalf("ModelID = %q, want gpt-4o-mini", app.ModelID)
	}
	if app.Provider != originalProvider {
		t.Fatal("switching within the same provider should not reconstruct the provider")
	}
}

func TestSwitchModelUnknownProvider(t *testing.T) {
	app := testApp()

	if err := switchModel(app, "doesnotexist/some-model"); err == nil {
		t.Fatal("expected an error switching to an unconfigured provider")
	}
}
