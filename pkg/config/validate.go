package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks the configuration for required fields and valid values.
// Returns an error with a descriptive field path on failure.
func (c *Config) Validate() error {
	var errs []error

	if len(c.Providers) == 0 {
		errs = append(errs, fmt.Errorf("at least one provider is required"))
	}

	seen := make(map[string]bool)
	for i, p := range c.Providers {
		if p.BaseURL == "" {
			errs = append(errs, fmt.Errorf("providers[%d].base_url is required", i))
		} else if !strings.HasPrefix(p.BaseURL, "http://") && !strings.HasPrefix(p.BaseURL, "https://") {
			errs = append(errs, fmt.Errorf("providers[%d].base_url must start with http:// or https://, got %q", i, p.BaseURL))
		}
		if p.Name != "" {
			if seen[p.Name] {
				errs = append(errs, fmt.Errorf("providers[%d].name %q is duplicated", i, p.Name))
			}
			seen[p.Name] = true
		}
	}

	if c.ActiveProvider != "" && !seen[c.ActiveProvider] {
		errs = append(errs, fmt.Errorf("active_provider %q does not match any provider name", c.ActiveProvider))
	}

	if c.Engine.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("engine.max_attempts must be >= 1, got %d", c.Engine.MaxAttempts))
	}
	if c.Engine.ChatTimeout <= 0 {
		errs = append(errs, fmt.Errorf("engine.chat_timeout must be positive"))
	}
	if c.Engine.ModelsTimeout <= 0 {
		errs = append(errs, fmt.Errorf("engine.models_timeout must be positive"))
	}

	return errors.Join(errs...)
}
