package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lingopad/lingopad/pkg/provider"
)

// Load loads configuration from a layered set of sources.
//
// The loading order is:
//  1. Built-in defaults
//  2. YAML config file (explicit path, LINGOPAD_CONFIG env, ./config.yaml,
//     /etc/lingopad/config.yaml)
//  3. Environment variable overrides
//  4. File reference resolution (_file suffix)
//  5. Validation
func Load(configPath string) (*Config, error) {
	// Start with defaults.
	cfg := Defaults()

	// Discover and load YAML config file.
	filePath := discoverConfigFile(configPath)
	if filePath != "" {
		if err := loadYAMLFile(filePath, &cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", filePath, err)
		}
	}

	// Apply environment variable overrides.
	applyEnvOverrides(&cfg)

	// Resolve _file references.
	if err := resolveFileReferences(&cfg); err != nil {
		return nil, fmt.Errorf("resolving file references: %w", err)
	}

	// Validate.
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// discoverConfigFile finds the config file path using the discovery order:
// 1. Explicit configPath argument
// 2. LINGOPAD_CONFIG environment variable
// 3. ./config.yaml in the current directory
// 4. /etc/lingopad/config.yaml
//
// Returns empty string if no config file is found.
func discoverConfigFile(configPath string) string {
	// Explicit path takes priority.
	if configPath != "" {
		return configPath
	}

	// Check LINGOPAD_CONFIG env var.
	if envPath := os.Getenv("LINGOPAD_CONFIG"); envPath != "" {
		return envPath
	}

	// Check common locations.
	candidates := []string{
		"config.yaml",
		"/etc/lingopad/config.yaml",
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// loadYAMLFile reads and parses a YAML file into the Config struct.
// Fields not present in the YAML retain their current (default) values.
func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyEnvOverrides maps environment variables to config fields. The
// provider-level variables target the active provider, creating an
// ad-hoc one when no provider is configured at all; this keeps the CLI
// usable with nothing but LINGOPAD_BASE_URL and LINGOPAD_API_KEY set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LINGOPAD_PROVIDER"); v != "" {
		cfg.ActiveProvider = v
	}

	baseURL := os.Getenv("LINGOPAD_BASE_URL")
	apiKey := os.Getenv("LINGOPAD_API_KEY")
	model := os.Getenv("LINGOPAD_MODEL")

	if baseURL != "" && len(cfg.Providers) == 0 {
		cfg.Providers = []Provider{{Config: provider.Config{Name: "default"}}}
		cfg.ActiveProvider = ""
	}
	if idx := activeIndex(cfg); idx >= 0 {
		if baseURL != "" {
			cfg.Providers[idx].BaseURL = baseURL
		}
		if apiKey != "" {
			cfg.Providers[idx].APIKey = apiKey
		}
		if model != "" {
			cfg.Providers[idx].DefaultModel = model
		}
	}

	if v := os.Getenv("LINGOPAD_TARGET_LANG"); v != "" {
		cfg.Translation.TargetLang = v
	}
	if v := os.Getenv("LINGOPAD_SOURCE_LANG"); v != "" {
		cfg.Translation.SourceLang = v
	}
	if v := os.Getenv("LINGOPAD_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Engine.MaxAttempts = n
		}
	}
}

// activeIndex returns the index of the active provider, or -1.
func activeIndex(cfg *Config) int {
	if len(cfg.Providers) == 0 {
		return -1
	}
	if cfg.ActiveProvider == "" {
		return 0
	}
	for i, p := range cfg.Providers {
		if p.Name == cfg.ActiveProvider {
			return i
		}
	}
	return -1
}

// resolveFileReferences reads _file fields and populates the
// corresponding value fields. For each field ending in _file, if the
// value field is empty and the file field is set, the file is read,
// whitespace is trimmed, and the value field is populated.
func resolveFileReferences(cfg *Config) error {
	for i := range cfg.Providers {
		if cfg.Providers[i].APIKeyFile != "" && cfg.Providers[i].APIKey == "" {
			val, err := readSecretFile(cfg.Providers[i].APIKeyFile)
			if err != nil {
				return fmt.Errorf("providers[%d].api_key_file: %w", i, err)
			}
			cfg.Providers[i].APIKey = val
		}
	}
	return nil
}

// readSecretFile reads a file and returns its content with surrounding
// whitespace trimmed.
func readSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
