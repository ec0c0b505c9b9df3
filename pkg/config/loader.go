package config

import (
	"fmt"
	"os"
	"path/filepath"

	"dario.cat/mergo"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// yamlConfig mirrors the on-disk interviewer.yaml shape. Every field is
// optional; anything left zero is filled in from defaultConfig().
type yamlConfig struct {
	Server    *ServerConfig    `yaml:"server"`
	Database  *DatabaseConfig  `yaml:"database"`
	Scoring   *ScoringConfig   `yaml:"scoring"`
	FollowUp  *FollowUpConfig  `yaml:"follow_up"`
	Timeouts  *TimeoutsConfig  `yaml:"timeouts"`
	Providers *ProvidersConfig `yaml:"providers"`
	Masking   *MaskingConfig   `yaml:"masking"`
	Retention *RetentionConfig `yaml:"retention"`
}

// load reads .env (if present, non-fatal if absent), then
// interviewer.yaml from configDir with ${VAR} expansion, merging user
// values over the built-in defaults.
func load(configDir string) (*Config, error) {
	_ = godotenv.Load() // best-effort: absence of .env is normal in production

	path := filepath.Join(configDir, "interviewer.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, NewLoadError(path, err)
	}
	data = ExpandEnv(data)

	var raw yamlConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	cfg := defaultConfig()
	cfg.configDir = configDir

	if err := mergeField(&cfg.Server, raw.Server); err != nil {
		return nil, err
	}
	if err := mergeField(&cfg.Database, raw.Database); err != nil {
		return nil, err
	}
	if err := mergeField(&cfg.Scoring, raw.Scoring); err != nil {
		return nil, err
	}
	if err := mergeField(&cfg.FollowUp, raw.FollowUp); err != nil {
		return nil, err
	}
	if err := mergeField(&cfg.Timeouts, raw.Timeouts); err != nil {
		return nil, err
	}
	if err := mergeField(&cfg.Providers, raw.Providers); err != nil {
		return nil, err
	}
	if err := mergeField(&cfg.Masking, raw.Masking); err != nil {
		return nil, err
	}
	if err := mergeField(&cfg.Retention, raw.Retention); err != nil {
		return nil, err
	}

	return cfg, nil
}

// mergeField overlays src onto *dst (non-zero fields win) when src is
// non-nil, using mergo the same way the teacher's loader merges queue
// config over its defaults.
func mergeField[T any](dst *T, src *T) error {
	if src == nil {
		return nil
	}
	if err := mergo.Merge(dst, src, mergo.WithOverride); err != nil {
		return fmt.Errorf("failed to merge %T: %w", *dst, err)
	}
	return nil
}

func validate(cfg *Config) error {
	return NewValidator(cfg).ValidateAll()
}
