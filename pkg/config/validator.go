package config

import (
	"fmt"
	"math"
)

// Validator validates a resolved Config comprehensively, failing fast
// at the first violated invariant (spec §6.4).
type Validator struct {
	cfg *Config
}

// NewValidator creates a validator for the given configuration.
func NewValidator(cfg *Config) *Validator {
	return &Validator{cfg: cfg}
}

// ValidateAll runs every section's checks in turn.
func (v *Validator) ValidateAll() error {
	if err := v.validateServer(); err != nil {
		return err
	}
	if err := v.validateDatabase(); err != nil {
		return err
	}
	if err := v.validateScoring(); err != nil {
		return err
	}
	if err := v.validateFollowUp(); err != nil {
		return err
	}
	if err := v.validateTimeouts(); err != nil {
		return err
	}
	if err := v.validateProviders(); err != nil {
		return err
	}
	return nil
}

func (v *Validator) validateServer() error {
	if v.cfg.Server.ListenAddr == "" {
		return &ValidationError{Field: "server.listen_addr", Message: "required"}
	}
	return nil
}

func (v *Validator) validateDatabase() error {
	if v.cfg.Database.DSN == "" {
		return &ValidationError{Field: "database.dsn", Message: "required"}
	}
	if v.cfg.Database.MaxConns < 1 {
		return &ValidationError{Field: "database.max_conns", Message: "must be at least 1"}
	}
	return nil
}

// validateScoring enforces the spec §6.4 invariant that the theoretical
// and speaking weights sum to exactly 1.0, within float rounding.
func (v *Validator) validateScoring() error {
	s := v.cfg.Scoring
	if s.TheoreticalWeight < 0 || s.SpeakingWeight < 0 {
		return &ValidationError{Field: "scoring", Message: "weights must be non-negative"}
	}
	sum := s.TheoreticalWeight + s.SpeakingWeight
	if math.Abs(sum-1.0) > 1e-9 {
		return &ValidationError{Field: "scoring", Message: fmt.Sprintf("theoretical_weight + speaking_weight must equal 1.0, got %v", sum)}
	}
	if s.SpeakingDefaultWhenAbsent < 0 || s.SpeakingDefaultWhenAbsent > 100 {
		return &ValidationError{Field: "scoring.speaking_default_when_absent", Message: "must be within [0, 100]"}
	}
	return nil
}

// validateFollowUp checks that the similarity threshold lies in [0, 1]
// and that max_followups_per_interview is at least 1. The per-question
// follow-up cap of 3 has no config field, so there is nothing here to
// validate for it; a max_followups_per_question key is not rejected.
func (v *Validator) validateFollowUp() error {
	f := v.cfg.FollowUp
	if f.SimilarityQualityThreshold < 0 || f.SimilarityQualityThreshold > 1 {
		return &ValidationError{Field: "follow_up.similarity_quality_threshold", Message: "must be within [0, 1]"}
	}
	if f.MaxFollowupsPerInterview < 1 {
		return &ValidationError{Field: "follow_up.max_followups_per_interview", Message: "must be at least 1"}
	}
	return nil
}

func (v *Validator) validateTimeouts() error {
	t := v.cfg.Timeouts
	for name, d := range map[string]int64{
		"timeouts.stt":    int64(t.STT),
		"timeouts.llm":    int64(t.LLM),
		"timeouts.vector": int64(t.Vector),
		"timeouts.tts":    int64(t.TTS),
	} {
		if d <= 0 {
			return &ValidationError{Field: name, Message: "must be positive"}
		}
	}
	return nil
}

func (v *Validator) validateProviders() error {
	p := v.cfg.Providers
	switch p.LLMProvider {
	case "openai", "anthropic":
	default:
		return &ValidationError{Field: "providers.llm_provider", Message: "must be 'openai' or 'anthropic'"}
	}
	if p.LLMModel == "" {
		return &ValidationError{Field: "providers.llm_model", Message: "required"}
	}
	return nil
}
