package provider

import (
	"fmt"
	"net/http"

	"caretforge/internal/model"
)

// New constructs the adapter named by cfg.Type.
func New(cfg Config) (model.Provider, error) {
	client := &http.Client{Timeout: 0} // streaming bodies: no blanket deadline, callers pass ctx

	switch cfg.Type {
	case TypeOpenAIChat:
		return NewOpenAIChatProvider(cfg, client)
	case TypeAnthropic:
		return NewAnthropicProvider(cfg, client)
	case TypeOpenAIResp:
		return NewResponsesProvider(cfg, client)
	case TypeThreadRun:
		return NewThreadRunProvider(cfg, client)
	default:
		return nil, fmt.Errorf("unknown provider type: %q", cfg.Type)
	}
}
