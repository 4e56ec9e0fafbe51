package config

import (
	"fmt"
	"net/url"
)

// Validate checks that the resolved configuration is usable.
func Validate(cfg *Config) error {
	u, err := url.Parse(cfg.ServerURL)
	if err != nil {
		return fmt.Errorf("invalid server URL %q: %w", cfg.ServerURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("server URL must use http or https, got %q", cfg.ServerURL)
	}
	if u.Host == "" {
		return fmt.Errorf("server URL %q has no host", cfg.ServerURL)
	}

	switch cfg.OutputFormat {
	case "auto", "text", "json":
	default:
		return fmt.Errorf("unsupported output format: %s", cfg.OutputFormat)
	}
	return nil
}
