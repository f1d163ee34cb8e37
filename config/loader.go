package config

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. AEFR_WINDOW_WIDTH.
const EnvPrefix = "AEFR_"

// Load builds the configuration: defaults, then the YAML file if path is not empty, then
// AEFR_ environment variables, then validation.
//
// Parameters:
//   - path: the YAML file, or "" for defaults and environment only
//
// Returns:
//   - *Config: the validated configuration
//   - error: wrapped ErrConfigParse, ErrEnvironment or a validation error
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := decodeYAML(bytes.NewReader(data), cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}
	return finish(cfg)
}

// LoadFromReader is Load for an already opened YAML document.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := DefaultConfig()
	if err := decodeYAML(r, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return finish(cfg)
}

func finish(cfg *Config) (*Config, error) {
	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// decodeYAML overlays the document onto cfg; keys it does not mention keep their values.
func decodeYAML(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return fmt.Errorf("%w: %w", ErrConfigParse, err)
	}
	return nil
}

// ApplyEnv overrides cfg with any AEFR_ environment variables that are set.
func ApplyEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("%w: %w", ErrEnvironment, err)
	}
	return nil
}
