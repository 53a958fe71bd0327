// Package config provides unified configuration for lingopad.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (discovered or explicitly specified)
//  3. Environment variable overrides (LINGOPAD_ prefix)
//  4. File reference resolution (_file suffix fields)
//  5. Validation
package config

import (
	"time"

	"github.com/lingopad/lingopad/pkg/provider"
)

// Config holds all configuration for lingopad.
type Config struct {
	// Providers lists the configured backends. The first entry is used
	// when ActiveProvider is empty.
	Providers []Provider `yaml:"providers"`

	// ActiveProvider names the provider used by default.
	ActiveProvider string `yaml:"active_provider"`

	Engine      EngineConfig      `yaml:"engine"`
	Translation TranslationConfig `yaml:"translation"`
	Debug       DebugConfig       `yaml:"debug"`
}

// Provider wraps a provider.Config with config-layer extras such as the
// _file secret reference for the API key.
type Provider struct {
	provider.Config `yaml:",inline"`

	// APIKeyFile is the _file variant of api_key.
	APIKeyFile string `yaml:"api_key_file"`
}

// EngineConfig holds completion engine tuning.
type EngineConfig struct {
	MaxAttempts   int           `yaml:"max_attempts"`   // default: 3
	ChatTimeout   time.Duration `yaml:"chat_timeout"`   // default: 60s
	ModelsTimeout time.Duration `yaml:"models_timeout"` // default: 15s
}

// TranslationConfig holds the default language pair.
type TranslationConfig struct {
	SourceLang string `yaml:"source_lang"` // empty means auto-detect
	TargetLang string `yaml:"target_lang"` // default: "English"
}

// DebugConfig holds debug logging settings.
type DebugConfig struct {
	Categories string `yaml:"categories"` // e.g. "retry,sse" or "all"
	Level      string `yaml:"level"`      // ERROR..TRACE, default: INFO
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Engine: EngineConfig{
			MaxAttempts:   3,
			ChatTimeout:   60 * time.Second,
			ModelsTimeout: 15 * time.Second,
		},
		Translation: TranslationConfig{
			TargetLang: "English",
		},
		Debug: DebugConfig{
			Level: "INFO",
		},
	}
}

// Active returns the provider selected by ActiveProvider, or the first
// configured provider when ActiveProvider is empty.
func (c *Config) Active() (Provider, bool) {
	if c.ActiveProvider == "" {
		if len(c.Providers) == 0 {
			return Provider{}, false
		}
		return c.Providers[0], true
	}
	for _, p := range c.Providers {
		if p.Name == c.ActiveProvider {
			return p, true
		}
	}
	return Provider{}, false
}
