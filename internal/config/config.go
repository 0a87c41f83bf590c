// Package config provides configuration management for templmd using Viper
// for loading from files, environment variables and command-line flags.
//
// Configuration is read from .templmd.yml (or the file named by --config or
// TEMPLMD_CONFIG_FILE) and can be overridden by TEMPLMD_ environment
// variables such as TEMPLMD_RENDER_SANITIZE or TEMPLMD_SERVER_PORT.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/templmd/internal/components"
	"github.com/conneroisu/templmd/internal/errors"
	"github.com/conneroisu/templmd/internal/highlight"
	"github.com/conneroisu/templmd/internal/logging"
	"github.com/conneroisu/templmd/internal/pipeline"
	"github.com/conneroisu/templmd/internal/registry"
	"github.com/conneroisu/templmd/internal/styles"
)

const (
	// EnvPrefix prefixes every environment override, e.g. TEMPLMD_SERVER_PORT.
	EnvPrefix = "TEMPLMD"
	// ConfigFileEnv names a config file to use instead of .templmd.yml.
	ConfigFileEnv = "TEMPLMD_CONFIG_FILE"
	// ConfigName is the default config file name without extension.
	ConfigName = ".templmd"
)

// EnvKeyReplacer maps nested keys to environment names.
var EnvKeyReplacer = strings.NewReplacer(".", "_")

type Config struct {
	Render      RenderConfig      `mapstructure:"render" yaml:"render"`
	Highlighter HighlighterConfig `mapstructure:"highlighter" yaml:"highlighter"`
	Components  ComponentsConfig  `mapstructure:"components" yaml:"components"`
	Server      ServerConfig      `mapstructure:"server" yaml:"server"`
	Log         LogConfig         `mapstructure:"log" yaml:"log"`
}

type RenderConfig struct {
	Sanitize   bool              `mapstructure:"sanitize" yaml:"sanitize"`
	GFM        bool              `mapstructure:"gfm" yaml:"gfm"`
	Math       bool              `mapstructure:"math" yaml:"math"`
	Mermaid    bool              `mapstructure:"mermaid" yaml:"mermaid"`
	ShieldMode string            `mapstructure:"shield_mode" yaml:"shield_mode"`
	ClassName  string            `mapstructure:"class_name" yaml:"class_name"`
	Styles     map[string]string `mapstructure:"styles" yaml:"styles"`
	// StylesFile is a YAML file of style overrides applied beneath Styles.
	StylesFile string `mapstructure:"styles_file" yaml:"styles_file"`
}

type HighlighterConfig struct {
	Theme     string `mapstructure:"theme" yaml:"theme"`
	ClassName string `mapstructure:"class_name" yaml:"class_name"`
	Disabled  bool   `mapstructure:"disabled" yaml:"disabled"`
}

type ComponentsConfig struct {
	// Enabled limits the built-in components; empty means all of them.
	Enabled         []string `mapstructure:"enabled" yaml:"enabled"`
	Disabled        []string `mapstructure:"disabled" yaml:"disabled"`
	ExtraAttributes []string `mapstructure:"extra_attributes" yaml:"extra_attributes"`
}

type ServerConfig struct {
	Host     string        `mapstructure:"host" yaml:"host"`
	Port     int           `mapstructure:"port" yaml:"port"`
	Debounce time.Duration `mapstructure:"debounce" yaml:"debounce"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// SetDefaults registers the default value of every key on v. Registering the
// keys also lets AutomaticEnv resolve TEMPLMD_ variables during Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("render.sanitize", true)
	v.SetDefault("render.gfm", true)
	v.SetDefault("render.math", true)
	v.SetDefault("render.mermaid", false)
	v.SetDefault("render.shield_mode", string(pipeline.ShieldInline))
	v.SetDefault("render.class_name", "")
	v.SetDefault("render.styles_file", "")

	v.SetDefault("highlighter.theme", highlight.DefaultTheme)
	v.SetDefault("highlighter.class_name", highlight.DefaultClassName)
	v.SetDefault("highlighter.disabled", false)

	v.SetDefault("components.enabled", []string{})
	v.SetDefault("components.disabled", []string{})
	v.SetDefault("components.extra_attributes", []string{})

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.debounce", 100*time.Millisecond)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads the configuration from the global viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom unmarshals, defaults and validates the configuration held by v.
func LoadFrom(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		e := errors.NewConfigError(errors.ErrCodeConfigInvalid, "cannot decode configuration")
		e.Cause = err
		return nil, e
	}
	config.Render.Styles = restoreStyleKeys(config.Render.Styles)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// restoreStyleKeys undoes viper's key lowercasing for camel-case style keys
// such as inlineMath.
func restoreStyleKeys(overrides map[string]string) map[string]string {
	if len(overrides) == 0 {
		return overrides
	}
	known := make(map[string]string)
	for _, k := range styles.Keys() {
		known[strings.ToLower(k)] = k
	}
	out := make(map[string]string, len(overrides))
	for k, v := range overrides {
		if canonical, ok := known[strings.ToLower(k)]; ok {
			k = canonical
		}
		out[k] = v
	}
	return out
}

// Registry returns the built-in components selected by the configuration.
// Enabled and disabled names are both checked against the built-ins, and a
// name in both lists is disabled.
func (c *Config) Registry() (*registry.Registry, error) {
	builtins := components.Builtins()
	reg := builtins
	var err error
	if len(c.Components.Disabled) > 0 {
		if reg, err = builtins.Without(c.Components.Disabled); err != nil {
			return nil, err
		}
	}
	if len(c.Components.Enabled) > 0 {
		if _, err = builtins.Filter(c.Components.Enabled); err != nil {
			return nil, err
		}
		keep := make([]string, 0, len(c.Components.Enabled))
		for _, name := range c.Components.Enabled {
			if _, ok := reg.Get(name); ok {
				keep = append(keep, name)
			}
		}
		if reg, err = reg.Filter(keep); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// Styles returns the style overrides: the styles file first, then the
// inline render.styles entries on top.
func (c *Config) Styles() (map[string]string, error) {
	merged := make(map[string]string)

	if c.Render.StylesFile != "" {
		data, err := os.ReadFile(c.Render.StylesFile)
		if err != nil {
			return nil, errors.NewIOError(errors.ErrCodeFileNotFound, "cannot read styles file", err).
				WithFile(c.Render.StylesFile)
		}
		var fromFile map[string]string
		if err := yaml.Unmarshal(data, &fromFile); err != nil {
			e := errors.NewConfigError(errors.ErrCodeConfigInvalid, "styles file is not a map of style key to class list").
				WithFile(c.Render.StylesFile)
			e.Cause = err
			return nil, e
		}
		for k, v := range fromFile {
			merged[k] = v
		}
	}

	for k, v := range c.Render.Styles {
		merged[k] = v
	}

	if err := styles.ValidateKeys(merged); err != nil {
		return nil, err
	}
	if len(merged) == 0 {
		return nil, nil
	}
	return merged, nil
}

// PipelineOptions converts the configuration into render options.
func (c *Config) PipelineOptions() (pipeline.Options, error) {
	reg, err := c.Registry()
	if err != nil {
		return pipeline.Options{}, err
	}
	overrides, err := c.Styles()
	if err != nil {
		return pipeline.Options{}, err
	}
	mode, err := pipeline.ParseShieldMode(c.Render.ShieldMode)
	if err != nil {
		return pipeline.Options{}, err
	}

	opts := pipeline.Options{
		Sanitize:            c.Render.Sanitize,
		GFM:                 c.Render.GFM,
		Math:                c.Render.Math,
		Mermaid:             c.Render.Mermaid,
		ShieldMode:          mode,
		ClassName:           c.Render.ClassName,
		Styles:              overrides,
		DisableHighlighting: c.Highlighter.Disabled,
		Components:          reg,
		ExtraAttributes:     c.Components.ExtraAttributes,
	}
	if !c.Highlighter.Disabled &&
		(c.Highlighter.Theme != highlight.DefaultTheme || c.Highlighter.ClassName != highlight.DefaultClassName) {
		opts.Highlighter = highlight.NewChroma(c.Highlighter.Theme, c.Highlighter.ClassName)
	}
	return opts, nil
}

// LoggerConfig returns the logger settings.
func (c *Config) LoggerConfig() (*logging.LoggerConfig, error) {
	level, err := logging.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeConfigInvalid, err.Error()).WithContext("key", "log.level")
	}
	lc := logging.DefaultConfig()
	lc.Level = level
	lc.Format = c.Log.Format
	return lc, nil
}

// Address returns host:port for the preview server.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
