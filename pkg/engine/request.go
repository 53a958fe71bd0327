package engine

import (
	"bytes"
	"context"
	"net/http"

	"github.com/lingopad/lingopad/pkg/provider"
)

// buildChatRequest assembles the wire request for one call. Temperature
// has already been filtered through the policy at this point; nil means
// the field is omitted entirely.
func buildChatRequest(model, systemPrompt, userPrompt string, temperature *float64) provider.ChatRequest {
	return provider.ChatRequest{
		Model: model,
		Messages: []provider.ChatMessage{
			{Role: provider.RoleSystem, Content: systemPrompt},
			{Role: provider.RoleUser, Content: userPrompt},
		},
		Stream:      true,
		Temperature: temperature,
	}
}

// chatHeaders composes the headers for a streaming chat completion POST.
// Pure: the provider config is never mutated.
func chatHeaders(cfg provider.Config) http.Header {
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	h.Set("Accept", "text/event-stream")
	if cfg.APIKey != "" {
		h.Set("Authorization", "Bearer "+cfg.APIKey)
	}
	for k, v := range cfg.Headers {
		h.Set(k, v)
	}
	return h
}

// modelHeaders composes the headers for a models GET.
func modelHeaders(cfg provider.Config) http.Header {
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	if cfg.APIKey != "" {
		h.Set("Authorization", "Bearer "+cfg.APIKey)
	}
	for k, v := range cfg.Headers {
		h.Set(k, v)
	}
	return h
}

// newChatHTTPRequest builds a fresh POST request for one connection
// attempt. Each attempt gets its own request because the body reader of a
// failed attempt may already be consumed.
func newChatHTTPRequest(ctx context.Context, cfg provider.Config, body []byte) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.ChatURL(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header = chatHeaders(cfg)
	return req, nil
}

// newModelsHTTPRequest builds a fresh GET request for one connection attempt.
func newModelsHTTPRequest(ctx context.Context, cfg provider.Config) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.ModelsURL(), nil)
	if err != nil {
		return nil, err
	}
	req.Header = modelHeaders(cfg)
	return req, nil
}
