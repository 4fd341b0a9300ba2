// Package config provides unified configuration loading for phasebridge.
// It supports loading from YAML files and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/nvandessel/phasebridge/internal/constants"
)

// Config contains all phasebridge configuration settings.
type Config struct {
	// Engine contains settings for the evolution engine.
	Engine EngineConfig `json:"engine" yaml:"engine"`

	// Store contains settings for checkpoint blob storage.
	Store StoreConfig `json:"store" yaml:"store"`

	// API contains settings for the status HTTP server.
	API APIConfig `json:"api" yaml:"api"`

	// Chain contains settings for commitment anchoring.
	Chain ChainConfig `json:"chain" yaml:"chain"`

	// Logging contains settings for operational logging.
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// EngineConfig configures the deterministic evolution engine.
type EngineConfig struct {
	// Seed keys the deterministic noise stream. Two processes with the same
	// seed derive bit-identical states.
	Seed int64 `json:"seed" yaml:"seed"`

	// TapeSize is the number of payload tape cells folded into the state,
	// at most 8.
	TapeSize int `json:"tape_size" yaml:"tape_size"`

	// Precision is the working precision in significant decimal digits.
	Precision uint32 `json:"precision" yaml:"precision"`

	// Paced enables soft real-time step pacing (~30.5 ms per step).
	Paced bool `json:"paced" yaml:"paced"`
}

// StoreConfig configures checkpoint blob storage.
type StoreConfig struct {
	// Backend selects the storage: "memory" (default), "sqlite", or "ipfs".
	Backend string `json:"backend" yaml:"backend"`

	// Path is the SQLite database path (backend "sqlite").
	Path string `json:"path,omitempty" yaml:"path,omitempty"`

	// APIURL is the IPFS HTTP API endpoint (backend "ipfs").
	APIURL string `json:"api_url,omitempty" yaml:"api_url,omitempty"`
}

// APIConfig configures the status HTTP server.
type APIConfig struct {
	// Enabled starts the server alongside the evolution loop.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Addr is the listen address.
	Addr string `json:"addr" yaml:"addr"`
}

// ChainConfig configures the commitment sink.
type ChainConfig struct {
	// Endpoint is the anchoring relay URL. Empty selects the local
	// log-only sink.
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
}

// LoggingConfig configures logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or "trace".
	Level string `json:"level" yaml:"level"`

	// EventDir is the directory for the JSONL event log. Events are only
	// written at debug or trace level.
	EventDir string `json:"event_dir,omitempty" yaml:"event_dir,omitempty"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			Seed:      42,
			TapeSize:  3,
			Precision: constants.DefaultPrecision,
			Paced:     true,
		},
		Store: StoreConfig{
			Backend: "memory",
		},
		API: APIConfig{
			Enabled: true,
			Addr:    ":9999",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from the default locations and environment variables.
// Order: defaults -> ~/.phasebridge/config.yaml -> environment variables
func Load() (*Config, error) {
	config := Default()

	homeDir, err := os.UserHomeDir()
	if err == nil {
		configPath := filepath.Join(homeDir, ".phasebridge", "config.yaml")
		if _, statErr := os.Stat(configPath); statErr == nil {
			fileConfig, loadErr := LoadFromFile(configPath)
			if loadErr != nil {
				return nil, fmt.Errorf("loading config file: %w", loadErr)
			}
			config = fileConfig
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return config, nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Engine.TapeSize < 0 || c.Engine.TapeSize > constants.MaxTapeSize {
		return fmt.Errorf("tape_size must be between 0 and %d, got %d", constants.MaxTapeSize, c.Engine.TapeSize)
	}

	if c.Engine.Precision < 20 {
		return fmt.Errorf("precision must be at least 20 digits, got %d", c.Engine.Precision)
	}

	validBackends := map[string]bool{"": true, "memory": true, "sqlite": true, "ipfs": true}
	if !validBackends[c.Store.Backend] {
		return fmt.Errorf("invalid store backend: %s (valid: memory, sqlite, ipfs, or empty)", c.Store.Backend)
	}
	if c.Store.Backend == "sqlite" && c.Store.Path == "" {
		return fmt.Errorf("store backend sqlite requires a path")
	}
	if c.Store.Backend == "ipfs" && c.Store.APIURL == "" {
		return fmt.Errorf("store backend ipfs requires an api_url")
	}

	if c.API.Enabled && c.API.Addr == "" {
		return fmt.Errorf("api enabled but no listen addr configured")
	}

	validLevels := map[string]bool{"info": true, "debug": true, "trace": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: info, debug, trace, or empty for default)", c.Logging.Level)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("PHASEBRIDGE_SEED"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			config.Engine.Seed = n
		}
	}
	if v := os.Getenv("PHASEBRIDGE_TAPE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Engine.TapeSize = n
		}
	}
	if v := os.Getenv("PHASEBRIDGE_PRECISION"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			config.Engine.Precision = uint32(n)
		}
	}
	if v := os.Getenv("PHASEBRIDGE_PACED"); v != "" {
		config.Engine.Paced = v == "true" || v == "1"
	}

	if v := os.Getenv("PHASEBRIDGE_STORE_BACKEND"); v != "" {
		config.Store.Backend = v
	}
	if v := os.Getenv("PHASEBRIDGE_STORE_PATH"); v != "" {
		config.Store.Path = v
	}
	if v := os.Getenv("PHASEBRIDGE_IPFS_API"); v != "" {
		config.Store.APIURL = v
	}

	if v := os.Getenv("PHASEBRIDGE_API_ADDR"); v != "" {
		config.API.Addr = v
	}
	if v := os.Getenv("PHASEBRIDGE_API_ENABLED"); v != "" {
		config.API.Enabled = v == "true" || v == "1"
	}

	if v := os.Getenv("PHASEBRIDGE_CHAIN_ENDPOINT"); v != "" {
		config.Chain.Endpoint = v
	}

	if v := os.Getenv("PHASEBRIDGE_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
	if v := os.Getenv("PHASEBRIDGE_EVENT_DIR"); v != "" {
		config.Logging.EventDir = v
	}
}
