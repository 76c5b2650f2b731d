package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"caretforge/internal/config"
)

// RunConfigInit writes the default JSON config template to disk, per
// spec.md §6's "config init [--with-secrets]".
func RunConfigInit(withSecrets bool) error {
	if config.Exists() {
		return fmt.Errorf("config already exists at %s", config.FilePath())
	}
	if err := config.Save(config.Template(withSecrets)); err != nil {
		return err
	}
	fmt.Println(successStyle.Render("wrote " + config.FilePath()))
	return nil
}

// RunConfigShow prints the current config as indented JSON, redacting
// secret-shaped keys per spec.md §6 in both modes — --json controls
// format, not secret exposure.
func RunConfigShow(jsonMode bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	redacted := redactConfig(cfg)

	if jsonMode {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(redacted)
	}

	data, err := json.MarshalIndent(redacted, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func redactConfig(cfg *config.Config) *config.Config {
	out := &config.Config{
		DefaultProvider: cfg.DefaultProvider,
		Telemetry:       cfg.Telemetry,
		Providers:       make(map[string]config.ProviderConfig, len(cfg.Providers)),
	}
	for name, pc := range cfg.Providers {
		if pc.APIKey != "" {
			pc.APIKey = config.Redact(pc.APIKey)
		}
		out.Providers[name] = pc
	}
	return out
}
