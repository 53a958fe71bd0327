package provider

import "strings"

// DefaultChatPath is the Chat Completions path used when a provider does
// not configure its own.
const DefaultChatPath = "/chat/completions"

// Config identifies one OpenAI-compatible backend. It is an immutable
// value owned by the settings layer; the engine only reads it.
type Config struct {
	// Name is the display name shown in provider pickers.
	Name string `yaml:"name"`

	// BaseURL is the API root, e.g. "https://api.openai.com/v1".
	// A trailing slash is tolerated and stripped during URL composition.
	BaseURL string `yaml:"base_url"`

	// APIKey is sent as a bearer token. Empty means no Authorization header.
	APIKey string `yaml:"api_key"`

	// ChatPath overrides the Chat Completions path (default "/chat/completions").
	ChatPath string `yaml:"chat_path"`

	// DefaultModel is used when the caller does not pick a model.
	DefaultModel string `yaml:"default_model"`

	// Models optionally pins the selectable model list. When empty the
	// engine's ListModels call populates pickers instead.
	Models []string `yaml:"models"`

	// Headers holds extra static headers sent with every request
	// (e.g. vendor routing headers).
	Headers map[string]string `yaml:"headers"`
}

// ChatURL returns the Chat Completions endpoint for this provider.
func (c Config) ChatURL() string {
	path := c.ChatPath
	if path == "" {
		path = DefaultChatPath
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return strings.TrimRight(c.BaseURL, "/") + path
}

// ModelsURL returns the model listing endpoint for this provider.
func (c Config) ModelsURL() string {
	return strings.TrimRight(c.BaseURL, "/") + "/models"
}
