package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestDefaultIsValidWithURL(t *testing.T) {
	cfg := Default()
	cfg.Service.URL = "http://localhost:9090"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
	if cfg.Throttle.Initial.Std() != 2*time.Second {
		t.Errorf("default initial throttle = %v, want 2s", cfg.Throttle.Initial.Std())
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "prosecheck.yaml", `
service:
  adapter: http
  url: http://checker.local:9090
  timeout: 5s
throttle:
  initial: 500ms
  max: 8s
categories:
  - grammar
  - style
logLevel: debug
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Service.URL != "http://checker.local:9090" {
		t.Errorf("service url = %q", cfg.Service.URL)
	}
	if cfg.Service.Timeout.Std() != 5*time.Second {
		t.Errorf("timeout = %v, want 5s", cfg.Service.Timeout.Std())
	}
	if cfg.Throttle.Initial.Std() != 500*time.Millisecond {
		t.Errorf("initial throttle = %v, want 500ms", cfg.Throttle.Initial.Std())
	}
	if len(cfg.Categories) != 2 || cfg.Categories[0] != "grammar" {
		t.Errorf("categories = %v", cfg.Categories)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("logLevel = %q, want debug", cfg.LogLevel)
	}
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "prosecheck.toml", `
logLevel = "warn"

[service]
adapter = "http"
url = "http://checker.local:9090"

[throttle]
initial = "1s"
max = "4s"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Service.URL != "http://checker.local:9090" {
		t.Errorf("service url = %q", cfg.Service.URL)
	}
	if cfg.Throttle.Max.Std() != 4*time.Second {
		t.Errorf("max throttle = %v, want 4s", cfg.Throttle.Max.Std())
	}
}

func TestLoadUnknownExtension(t *testing.T) {
	path := writeFile(t, "prosecheck.ini", "whatever")
	if _, err := Load(path); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("err = %v, want ErrUnknownFormat", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PROSECHECK_SERVICE_URL", "http://from-env:1234")
	t.Setenv("PROSECHECK_LOG_LEVEL", "error")
	t.Setenv("PROSECHECK_CATEGORIES", "grammar,spelling")
	t.Setenv("PROSECHECK_DEBUG", "true")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Service.URL != "http://from-env:1234" {
		t.Errorf("env url override failed: %q", cfg.Service.URL)
	}
	if cfg.LogLevel != "error" {
		t.Errorf("env log level override failed: %q", cfg.LogLevel)
	}
	if len(cfg.Categories) != 2 || cfg.Categories[1] != "spelling" {
		t.Errorf("env categories override failed: %v", cfg.Categories)
	}
	if !cfg.Debug {
		t.Error("env debug override failed")
	}
}

func TestValidateRejectsBadConfigs(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"http without url", func(c *Config) { c.Service.URL = "" }},
		{"llm without key", func(c *Config) { c.Service.Adapter = "llm"; c.Service.APIKey = "" }},
		{"unknown adapter", func(c *Config) { c.Service.Adapter = "carrier-pigeon" }},
		{"zero initial throttle", func(c *Config) { c.Throttle.Initial = 0 }},
		{"max below initial", func(c *Config) { c.Throttle.Max = c.Throttle.Initial / 2 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Service.URL = "http://localhost:9090"
			tt.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
				t.Errorf("Validate() = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestWatcherReloadsOnWrite(t *testing.T) {
	path := writeFile(t, "live.yaml", `
service:
  adapter: http
  url: http://first:9090
`)

	reloaded := make(chan Config, 4)
	w, err := Watch(path, nil, func(cfg Config, err error) {
		if err == nil {
			reloaded <- cfg
		}
	})
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(path, []byte(`
service:
  adapter: http
  url: http://second:9090
`), 0o644); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}

	select {
	case cfg := <-reloaded:
		if cfg.Service.URL != "http://second:9090" {
			t.Errorf("reloaded url = %q, want http://second:9090", cfg.Service.URL)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("watcher never delivered the reloaded config")
	}
}
