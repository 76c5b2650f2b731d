package config

import "testing"

func TestRedact(t *testing.T) {
	cases := []struct {
		name  string
		value string
		want  string
	}{
		{"short", "abc123", "******"},
		{"exactly8", "sk-12345", "sk-1****45"},
		{"long", "sk-ant-REDACTED", "sk-a****ED"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := Redact(c.value)
			if got != c.want {
				t.Fatalf("Redact(%q) = %q, want %q", c.value, got, c.want)
			}
			if len(c.value) >= 8 {
				if got[:4] != c.value[:4] || got[len(got)-2:] != c.value[len(c.value)-2:] {
					t.Fatalf("redacted value must agree with original on first 4 and last 2 chars")
				}
			}
		})
	}
}

func TestIsSecretKey(t *testing.T) {
	cases := []struct {
		key  string
		want bool
	}{
		{"apiKey", true},
		{"APIKEY", true},
		{"secret", true},
		{"password", true},
		{"accessToken", true},
		{"credential", true},
		{"azureApiVersion", false},
		{"model", false},
		{"endpoint", false},
	}
	for _, c := range cases {
		t.Run(c.key, func(t *testing.T) {
			if got := IsSecretKey(c.key); got != c.want {
				t.Fatalf("IsSecretKey(%q) = %v, want %v", c.key, got, c.want)
			}
		})
	}
}

func TestProviderConfigToProviderConfigRejectsUnknownType(t *testing.T) {
	pc := ProviderConfig{Type: "not-a-real-type"}
	if _, err := pc.ToProviderConfig(); err == nil {
		t.Fatalf("expected an error for an unknown provider type")
	}
}

func TestProviderConfigToProviderConfigAccepted(t *testing.T) {
	pc := ProviderConfig{Type: "anthropic", Endpoint: "https://api.anthropic.com", APIKey: "x", Model: "claude-sonnet-4-5"}
	rc, err := pc.ToProviderConfig()
	if err != nil {
		t.Fatalf("ToProviderConfig: %v", err)
	}
	if string(rc.Type) != "anthropic" || rc.Model != "claude-sonnet-4-5" {
		t.Fatalf("unexpected runtime config: %+v", rc)
	}
}

func TestResolveUsesDefaultProviderWhenCLIEmpty(t *testing.T) {
	cfg := &Config{
		DefaultProvider: "anthropic",
		Providers: map[string]ProviderConfig{
			"anthropic": {Type: "anthropic", Model: "claude-sonnet-4-5"},
		},
	}
	name, _, err := cfg.Resolve("")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if name != "anthropic" {
		t.Fatalf("expected anthropic, got %q", name)
	}
}

func TestResolveCLIOverridesDefault(t *testing.T) {
	cfg := &Config{
		DefaultProvider: "anthropic",
		Providers: map[string]ProviderConfig{
			"anthropic": {Type: "anthropic"},
			"openai":    {Type: "openai-chat"},
		},
	}
	name, _, err := cfg.Resolve("openai")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if name != "openai" {
		t.Fatalf("expected openai, got %q", name)
	}
}

func TestResolveErrorsWithNoProviderSelected(t *testing.T) {
	cfg := Default()
	if _, _, err := cfg.Resolve(""); err == nil {
		t.Fatalf("expected an error when no provider is selected and no default configured")
	}
}

func TestResolveErrorsOnUnknownProvider(t *testing.T) {
	cfg := Default()
	if _, _, err := cfg.Resolve("does-not-exist"); err == nil {
		t.Fatalf("expected an error for an unknown provider name")
	}
}
