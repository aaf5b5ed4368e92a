// Package config loads engine configuration from YAML or TOML files with
// environment variable overrides, and supports live reload of the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/dshills/prosecheck/internal/validate"
)

// Standard configuration errors.
var (
	// ErrUnknownFormat indicates a config file extension the loader does
	// not handle.
	ErrUnknownFormat = errors.New("unknown config file format")

	// ErrInvalid indicates a configuration that fails validation.
	ErrInvalid = errors.New("invalid configuration")
)

// Duration wraps time.Duration so "2s"-style strings parse from both YAML
// and TOML.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler (used by TOML).
func (d *Duration) UnmarshalText(b []byte) error {
	parsed, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	return d.UnmarshalText([]byte(raw))
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// ServiceConfig selects and configures the checking-service adapter.
type ServiceConfig struct {
	// Adapter is "http" (rule service) or "llm".
	Adapter string `yaml:"adapter" toml:"adapter"`

	// URL is the rule service base URL (http adapter).
	URL string `yaml:"url" toml:"url"`

	// APIKey authenticates against either adapter's backend.
	APIKey string `yaml:"apiKey" toml:"apiKey"`

	// Model is the chat model name (llm adapter).
	Model string `yaml:"model" toml:"model"`

	// Timeout bounds each service call.
	Timeout Duration `yaml:"timeout" toml:"timeout"`
}

// ThrottleConfig sets the dispatch throttle bounds.
type ThrottleConfig struct {
	Initial Duration `yaml:"initial" toml:"initial"`
	Max     Duration `yaml:"max" toml:"max"`
}

// Config is the full engine configuration.
type Config struct {
	Service    ServiceConfig  `yaml:"service" toml:"service"`
	Throttle   ThrottleConfig `yaml:"throttle" toml:"throttle"`
	Categories []string       `yaml:"categories" toml:"categories"`
	LogLevel   string         `yaml:"logLevel" toml:"logLevel"`
	Debug      bool           `yaml:"debug" toml:"debug"`
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		Service: ServiceConfig{
			Adapter: "http",
			Timeout: Duration(30 * time.Second),
		},
		Throttle: ThrottleConfig{
			Initial: Duration(validate.DefaultInitialThrottle),
			Max:     Duration(validate.DefaultMaxThrottle),
		},
		LogLevel: "info",
	}
}

// Load reads the file at path (YAML or TOML by extension) over the
// defaults, then applies environment overrides. An empty path loads
// defaults plus environment only.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}

		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse yaml config: %w", err)
			}
		case ".toml":
			if err := toml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse toml config: %w", err)
			}
		default:
			return cfg, fmt.Errorf("%w: %s", ErrUnknownFormat, filepath.Ext(path))
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyEnv overlays PROSECHECK_* environment variables.
func applyEnv(cfg *Config) {
	if v := os.Getenv("PROSECHECK_SERVICE_URL"); v != "" {
		cfg.Service.URL = v
	}
	if v := os.Getenv("PROSECHECK_API_KEY"); v != "" {
		cfg.Service.APIKey = v
	}
	if v := os.Getenv("PROSECHECK_ADAPTER"); v != "" {
		cfg.Service.Adapter = v
	}
	if v := os.Getenv("PROSECHECK_MODEL"); v != "" {
		cfg.Service.Model = v
	}
	if v := os.Getenv("PROSECHECK_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("PROSECHECK_CATEGORIES"); v != "" {
		cfg.Categories = strings.Split(v, ",")
	}
	if v := os.Getenv("PROSECHECK_DEBUG"); v == "1" || strings.EqualFold(v, "true") {
		cfg.Debug = true
	}
}

// Validate checks the configuration for internal consistency.
func (c Config) Validate() error {
	switch c.Service.Adapter {
	case "http":
		if c.Service.URL == "" {
			return fmt.Errorf("%w: service.url required for the http adapter", ErrInvalid)
		}
	case "llm":
		if c.Service.APIKey == "" {
			return fmt.Errorf("%w: service.apiKey required for the llm adapter", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown service.adapter %q", ErrInvalid, c.Service.Adapter)
	}

	if c.Throttle.Initial <= 0 {
		return fmt.Errorf("%w: throttle.initial must be positive", ErrInvalid)
	}
	if c.Throttle.Max < c.Throttle.Initial {
		return fmt.Errorf("%w: throttle.max must be >= throttle.initial", ErrInvalid)
	}
	return nil
}
