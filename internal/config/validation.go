package config

import (
	"fmt"
	"strings"

	"github.com/conneroisu/templmd/internal/components"
	"github.com/conneroisu/templmd/internal/errors"
	"github.com/conneroisu/templmd/internal/highlight"
	"github.com/conneroisu/templmd/internal/logging"
	"github.com/conneroisu/templmd/internal/pipeline"
	"github.com/conneroisu/templmd/internal/sanitize"
	"github.com/conneroisu/templmd/internal/styles"
)

// validateConfig validates configuration values for correctness
func validateConfig(config *Config) error {
	if err := validateRenderConfig(&config.Render); err != nil {
		return fmt.Errorf("render config: %w", err)
	}

	if err := validateHighlighterConfig(&config.Highlighter); err != nil {
		return fmt.Errorf("highlighter config: %w", err)
	}

	if err := validateComponentsConfig(&config.Components); err != nil {
		return fmt.Errorf("components config: %w", err)
	}

	if err := validateServerConfig(&config.Server); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if _, err := logging.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("log config: %w", invalid("log.level", err.Error()))
	}
	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("log config: %w", invalid("log.format",
			fmt.Sprintf("format %q must be text or json", config.Log.Format)))
	}

	return nil
}

func validateRenderConfig(config *RenderConfig) error {
	if _, err := pipeline.ParseShieldMode(config.ShieldMode); err != nil {
		return err
	}

	if err := styles.ValidateKeys(config.Styles); err != nil {
		return err
	}

	return nil
}

func validateHighlighterConfig(config *HighlighterConfig) error {
	if config.Disabled {
		return nil
	}
	if !highlight.KnownTheme(config.Theme) {
		return invalid("highlighter.theme", fmt.Sprintf("unknown theme %q", config.Theme))
	}
	return nil
}

func validateComponentsConfig(config *ComponentsConfig) error {
	known := components.Builtins()

	for _, list := range [][]string{config.Enabled, config.Disabled} {
		for _, name := range list {
			if _, ok := known.Get(name); !ok {
				return invalid("components", fmt.Sprintf("unknown component %q (available: %s)",
					name, strings.Join(known.Names(), ", ")))
			}
		}
	}

	for _, attr := range config.ExtraAttributes {
		if !sanitize.ValidAttribute(attr) {
			return invalid("components.extra_attributes",
				fmt.Sprintf("%q is not a lowercase attribute name", attr))
		}
	}

	return nil
}

// validateServerConfig validates server configuration values
func validateServerConfig(config *ServerConfig) error {
	// Allow 0 for system-assigned ports in testing
	if config.Port < 0 || config.Port > 65535 {
		return invalid("server.port", fmt.Sprintf("port %d is not in valid range 0-65535", config.Port))
	}

	dangerousChars := []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'", "\\", " "}
	for _, char := range dangerousChars {
		if strings.Contains(config.Host, char) {
			return invalid("server.host", fmt.Sprintf("host contains dangerous character: %q", char))
		}
	}

	if config.Debounce < 0 {
		return invalid("server.debounce", "debounce must not be negative")
	}

	return nil
}

func invalid(key, message string) error {
	return errors.NewConfigError(errors.ErrCodeConfigInvalid, message).WithContext("key", key)
}
