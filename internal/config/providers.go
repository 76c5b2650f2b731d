package config

import (
	"os"
	"regexp"
)

// applyEnvOverrides maps known environment variables onto cfg, per
// spec.md §6's "CLI flags > environment variables > config file >
// defaults" precedence — this layer sits above the file and below
// flags, which the caller (main's buildApp) applies afterward.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CARETFORGE_DEFAULT_PROVIDER"); v != "" {
		cfg.DefaultProvider = v
	}
	if v := os.Getenv("CARETFORGE_TELEMETRY"); v != "" {
		cfg.Telemetry = v == "true" || v == "1"
	}

	target := cfg.DefaultProvider
	if v := os.Getenv("CARETFORGE_PROVIDER"); v != "" {
		target = v
	}
	if target == "" {
		return
	}
	pc, ok := cfg.Providers[target]
	if !ok {
		pc = ProviderConfig{}
	}
	changed := !ok
	if v := os.Getenv("CARETFORGE_API_KEY"); v != "" {
		pc.APIKey = v
		changed = true
	}
	if v := os.Getenv("CARETFORGE_MODEL"); v != "" {
		pc.Model = v
		changed = true
	}
	if v := os.Getenv("CARETFORGE_ENDPOINT"); v != "" {
		pc.Endpoint = v
		changed = true
	}
	if changed {
		if cfg.Providers == nil {
			cfg.Providers = map[string]ProviderConfig{}
		}
		cfg.Providers[target] = pc
	}
}

// secretKeyPatterns are the six key-name patterns spec.md §6 treats as
// secret-shaped: apiKey/secret/password/token/credential anywhere in the
// key, or any key ending in "key".
var secretKeyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)apiKey`),
	regexp.MustCompile(`(?i)secret`),
	regexp.MustCompile(`(?i)password`),
	regexp.MustCompile(`(?i)token`),
	regexp.MustCompile(`(?i)credential`),
	regexp.MustCompile(`(?i)key$`),
}

// IsSecretKey reports whether a config key's value should be redacted
// for display.
func IsSecretKey(key string) bool {
	for _, p := range secretKeyPatterns {
		if p.MatchString(key) {
			return true
		}
	}
	return false
}

// Redact masks a secret value for display per spec.md §6: "first 4 +
// **** + last 2" when the value is at least 8 characters, otherwise a
// fixed 6-asterisk placeholder that reveals nothing about length.
func Redact(value string) string {
	if len(value) < 8 {
		return "******"
	}
	return value[:4] + "****" + value[len(value)-2:]
}
