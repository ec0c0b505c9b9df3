package config

import "time"

// defaultConfig returns the built-in configuration applied wherever the
// YAML file and environment leave a field unset (spec §6.4's documented
// defaults).
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr:       ":8080",
			AllowedWSOrigins: []string{"http://localhost:5173"},
		},
		Database: DatabaseConfig{
			MaxConns:       10,
			ConnectTimeout: 5 * time.Second,
		},
		Scoring: ScoringConfig{
			TheoreticalWeight:         0.7,
			SpeakingWeight:            0.3,
			SpeakingDefaultWhenAbsent: 50.0,
		},
		FollowUp: FollowUpConfig{
			SimilarityQualityThreshold: 0.8,
			MaxFollowupsPerInterview:   15,
		},
		Timeouts: TimeoutsConfig{
			STT:    10 * time.Second,
			LLM:    15 * time.Second,
			Vector: 2 * time.Second,
			TTS:    5 * time.Second,
		},
		Providers: ProvidersConfig{
			LLMProvider:        "openai",
			LLMModel:           "gpt-4o",
			OpenAIAPIKeyEnv:    "OPENAI_API_KEY",
			AnthropicAPIKeyEnv: "ANTHROPIC_API_KEY",
		},
		Masking: MaskingConfig{
			Enabled:      true,
			PatternGroup: "pii",
		},
		Retention: RetentionConfig{
			InterviewRetentionDays: 90,
			CleanupInterval:        12 * time.Hour,
		},
	}
}
