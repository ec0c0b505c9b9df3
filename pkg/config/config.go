// Package config loads and validates the interviewer's runtime
// configuration: YAML file + environment variable overrides +
// built-in defaults, following the same layered resolution the
// teacher's configuration package uses for its own YAML-plus-env setup.
package config

import (
	"context"
	"fmt"
	"log/slog"
)

// Config is the fully resolved, validated configuration returned by
// Initialize. Every field is safe to read concurrently once returned;
// nothing here is mutated after load.
type Config struct {
	configDir string

	Server     ServerConfig
	Database   DatabaseConfig
	Scoring    ScoringConfig
	FollowUp   FollowUpConfig
	Timeouts   TimeoutsConfig
	Providers  ProvidersConfig
	Masking    MaskingConfig
	Retention  RetentionConfig
}

// ConfigDir returns the directory the YAML file was loaded from.
func (c *Config) ConfigDir() string { return c.configDir }

// Initialize loads, validates, and returns ready-to-use configuration.
// Steps: load .env (optional), load YAML with env-var expansion, apply
// built-in defaults for anything unset, validate, return.
func Initialize(ctx context.Context, configDir string) (*Config, error) {
	log := slog.With("config_dir", configDir)
	log.Info("initializing configuration")

	cfg, err := load(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	log.Info("configuration initialized",
		"listen_addr", cfg.Server.ListenAddr,
		"llm_provider", cfg.Providers.LLMProvider,
		"theoretical_weight", cfg.Scoring.TheoreticalWeight,
		"speaking_weight", cfg.Scoring.SpeakingWeight)

	return cfg, nil
}
