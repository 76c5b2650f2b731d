// Package config loads and saves CaretForge's JSON configuration file,
// resolves the platform-specific config path, and applies the
// defaults → file → environment → flags precedence spec.md §6 requires.
package config

import (
	"fmt"

	"caretforge/internal/provider"
)

// ProviderConfig is the JSON-serializable form of one provider.Config
// entry in the config file's "providers" map.
type ProviderConfig struct {
	Type                string `json:"type"`
	Endpoint            string `json:"endpoint"`
	APIKey              string `json:"apiKey,omitempty"`
	Model               string `json:"model"`
	AzureAPIVersion     string `json:"azureApiVersion,omitempty"`
	AzureDeploymentPath string `json:"azureDeploymentPath,omitempty"`
	AnthropicVersion    string `json:"anthropicVersion,omitempty"`
	UseAzureCLIAuth     bool   `json:"useAzureCliAuth,omitempty"`
}

// Config is the top-level shape of caretforge/config.json, per spec.md §6.
type Config struct {
	DefaultProvider string                    `json:"defaultProvider"`
	Providers       map[string]ProviderConfig `json:"providers"`
	Telemetry       bool                      `json:"telemetry"`
}

// ToProviderConfig converts one entry of the config file into the
// provider package's runtime Config, validating that Type is one of the
// four known wire variants.
func (pc ProviderConfig) ToProviderConfig() (provider.Config, error) {
	t := provider.Type(pc.Type)
	switch t {
	case provider.TypeOpenAIChat, provider.TypeAnthropic, provider.TypeOpenAIResp, provider.TypeThreadRun:
	default:
		return provider.Config{}, fmt.Errorf("config: unknown provider type %q", pc.Type)
	}
	return provider.Config{
		Type:                t,
		Endpoint:            pc.Endpoint,
		APIKey:              pc.APIKey,
		Model:               pc.Model,
		AzureAPIVersion:     pc.AzureAPIVersion,
		AzureDeploymentPath: pc.AzureDeploymentPath,
		AnthropicVersion:    pc.AnthropicVersion,
		UseAzureCLIAuth:     pc.UseAzureCLIAuth,
	}, nil
}

// Resolve finds the named provider in the config (cliProviderName wins if
// non-empty, else cfg.DefaultProvider) and returns its runtime Config
// along with the resolved name, per resolveProvider in spec.md §4.2.
func (cfg *Config) Resolve(cliProviderName string) (string, provider.Config, error) {
	name := cliProviderName
	if name == "" {
		name = cfg.DefaultProvider
	}
	if name == "" {
		return "", provider.Config{}, fmt.Errorf("config: no provider selected and no defaultProvider configured")
	}
	pc, ok := cfg.Providers[name]
	if !ok {
		return "", provider.Config{}, fmt.Errorf("config: unknown provider %q", name)
	}
	runtimeCfg, err := pc.ToProviderConfig()
	if err != nil {
		return "", provider.Config{}, fmt.Errorf("config: provider %q: %w", name, err)
	}
	return name, runtimeCfg, nil
}

// Load resolves the config file path, reads it if present, applies
// environment overrides, and returns the result. A missing file is not
// an error: the zero-value defaults from Default() are used instead.
func Load() (*Config, error) {
	cfg := Default()

	path := FilePath()
	if FileExists(path) {
		loaded, err := loadFromPath(path)
		if err != nil {
			return nil, fmt.Errorf("config: failed to load %s: %w", path, err)
		}
		cfg = loaded
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}
