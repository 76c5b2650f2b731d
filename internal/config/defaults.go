package config

// Default returns the zero-state configuration used when no config file
// exists yet: no default provider selected, no providers configured,
// telemetry off.
func Default() *Config {
	return &Config{
		Providers: map[string]ProviderConfig{},
	}
}

// Template returns the JSON document written by "config init": two
// example providers (openai-chat and anthropic), so a new user has
// something to edit instead of an empty map. When withSecrets is true, each example
// provider's apiKey field is filled with a placeholder instead of left
// blank, so "config init --with-secrets" produces a file ready for the
// user to paste real keys into the same slots "config show" will later
// redact.
func Template(withSecrets bool) *Config {
	key := ""
	if withSecrets {
		key = "REPLACE_ME"
	}
	return &Config{
		DefaultProvider: "openai",
		Providers: map[string]ProviderConfig{
			"openai": {
				Type:                "openai-chat",
				Endpoint:            "https://api.openai.com",
				APIKey:              key,
				Model:               "gpt-4o",
				AzureAPIVersion:     "2024-06-01",
				AzureDeploymentPath: "/chat/completions",
			},
			"anthropic": {
				Type:             "anthropic",
				Endpoint:         "https://api.anthropic.com",
				APIKey:           key,
				Model:            "claude-sonnet-4-5",
				AnthropicVersion: "2023-06-01",
			},
		},
		Telemetry: false,
	}
}
