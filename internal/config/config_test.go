package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault_IsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("default config failed validation: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
engine:
  seed: 7
  tape_size: 5
  precision: 50
store:
  backend: sqlite
  path: /tmp/blobs.db
api:
  enabled: false
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}

	if cfg.Engine.Seed != 7 {
		t.Errorf("Seed = %d, want 7", cfg.Engine.Seed)
	}
	if cfg.Engine.TapeSize != 5 {
		t.Errorf("TapeSize = %d, want 5", cfg.Engine.TapeSize)
	}
	if cfg.Engine.Precision != 50 {
		t.Errorf("Precision = %d, want 50", cfg.Engine.Precision)
	}
	if cfg.Store.Backend != "sqlite" || cfg.Store.Path != "/tmp/blobs.db" {
		t.Errorf("Store = %+v", cfg.Store)
	}
	if cfg.API.Enabled {
		t.Error("API.Enabled = true, want false")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}

	// Unset fields keep their defaults.
	if cfg.API.Addr != ":9999" {
		t.Errorf("API.Addr = %q, want default :9999", cfg.API.Addr)
	}
}

func TestLoadFromFile_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("engine: [not a map"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadFromFile(path); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"tape size too large", func(c *Config) { c.Engine.TapeSize = 9 }, true},
		{"negative tape size", func(c *Config) { c.Engine.TapeSize = -1 }, true},
		{"precision too low", func(c *Config) { c.Engine.Precision = 10 }, true},
		{"unknown backend", func(c *Config) { c.Store.Backend = "s3" }, true},
		{"sqlite without path", func(c *Config) { c.Store.Backend = "sqlite" }, true},
		{"ipfs without url", func(c *Config) { c.Store.Backend = "ipfs" }, true},
		{"ipfs with url", func(c *Config) {
			c.Store.Backend = "ipfs"
			c.Store.APIURL = "http://127.0.0.1:5001"
		}, false},
		{"api enabled without addr", func(c *Config) { c.API.Addr = "" }, true},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PHASEBRIDGE_SEED", "123")
	t.Setenv("PHASEBRIDGE_STORE_BACKEND", "sqlite")
	t.Setenv("PHASEBRIDGE_STORE_PATH", "/tmp/env.db")
	t.Setenv("PHASEBRIDGE_API_ENABLED", "false")
	t.Setenv("PHASEBRIDGE_LOG_LEVEL", "trace")

	cfg := Default()
	applyEnvOverrides(cfg)

	if cfg.Engine.Seed != 123 {
		t.Errorf("Seed = %d, want 123", cfg.Engine.Seed)
	}
	if cfg.Store.Backend != "sqlite" || cfg.Store.Path != "/tmp/env.db" {
		t.Errorf("Store = %+v", cfg.Store)
	}
	if cfg.API.Enabled {
		t.Error("API.Enabled = true, want false from env")
	}
	if cfg.Logging.Level != "trace" {
		t.Errorf("Logging.Level = %q, want trace", cfg.Logging.Level)
	}
}
