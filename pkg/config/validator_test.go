package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validConfig() *Config {
	cfg := defaultConfig()
	cfg.Database.DSN = "postgres://localhost/interviewer"
	return cfg
}

func TestValidatorAcceptsDefaults(t *testing.T) {
	assert.NoError(t, NewValidator(validConfig()).ValidateAll())
}

func TestValidatorRejectsWeightsNotSummingToOne(t *testing.T) {
	cfg := validConfig()
	cfg.Scoring.TheoreticalWeight = 0.6
	cfg.Scoring.SpeakingWeight = 0.5
	err := NewValidator(cfg).ValidateAll()
	assert.Error(t, err)
}

func TestValidatorRejectsMissingDSN(t *testing.T) {
	cfg := validConfig()
	cfg.Database.DSN = ""
	assert.Error(t, NewValidator(cfg).ValidateAll())
}

func TestValidatorRejectsZeroTimeout(t *testing.T) {
	cfg := validConfig()
	cfg.Timeouts.LLM = 0
	assert.Error(t, NewValidator(cfg).ValidateAll())
}

func TestValidatorRejectsUnknownProvider(t *testing.T) {
	cfg := validConfig()
	cfg.Providers.LLMProvider = "cohere"
	assert.Error(t, NewValidator(cfg).ValidateAll())
}

func TestValidatorRejectsFollowupCapBelowOne(t *testing.T) {
	cfg := validConfig()
	cfg.FollowUp.MaxFollowupsPerInterview = 0
	assert.Error(t, NewValidator(cfg).ValidateAll())
}

func TestValidatorAcceptsCustomTimeouts(t *testing.T) {
	cfg := validConfig()
	cfg.Timeouts.STT = 30 * time.Second
	assert.NoError(t, NewValidator(cfg).ValidateAll())
}
