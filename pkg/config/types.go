package config

import "time"

// ServerConfig holds HTTP/WebSocket listener settings.
type ServerConfig struct {
	ListenAddr       string   `yaml:"listen_addr"`
	AllowedWSOrigins []string `yaml:"allowed_ws_origins"`
}

// DatabaseConfig holds the Postgres connection pool settings.
type DatabaseConfig struct {
	DSN            string        `yaml:"dsn"`
	MaxConns       int32         `yaml:"max_conns"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

// ScoringConfig holds the dual-channel weighting policy (spec §6.4).
// TheoreticalWeight + SpeakingWeight must equal 1.0.
type ScoringConfig struct {
	TheoreticalWeight         float64 `yaml:"theoretical_weight"`
	SpeakingWeight            float64 `yaml:"speaking_weight"`
	SpeakingDefaultWhenAbsent float64 `yaml:"speaking_default_when_absent"`
}

// FollowUpConfig holds the follow-up decision engine's two policy
// knobs. The per-question cap of 3 is domain-hard and is never exposed
// here (spec §4.4, §6.4): there is no field for it, so a
// max_followups_per_question key in the YAML is ignored by the decoder
// rather than reported as a validation error.
type FollowUpConfig struct {
	SimilarityQualityThreshold float64 `yaml:"similarity_quality_threshold"`
	MaxFollowupsPerInterview   int     `yaml:"max_followups_per_interview"`
}

// TimeoutsConfig holds the per-adapter deadlines (spec §4.3, §5). STT,
// LLM and Vector bound the pipeline's external calls; TTS is validated
// but not applied to any call, so question-audio synthesis runs without
// its own deadline.
type TimeoutsConfig struct {
	STT    time.Duration `yaml:"stt"`
	LLM    time.Duration `yaml:"llm"`
	Vector time.Duration `yaml:"vector"`
	TTS    time.Duration `yaml:"tts"`
}

// ProvidersConfig selects and configures the external adapters.
type ProvidersConfig struct {
	LLMProvider        string `yaml:"llm_provider"` // "openai" or "anthropic"
	LLMModel           string `yaml:"llm_model"`
	OpenAIAPIKeyEnv    string `yaml:"openai_api_key_env"`
	AnthropicAPIKeyEnv string `yaml:"anthropic_api_key_env"`
	UseMockAdapters    bool   `yaml:"use_mock_adapters"` // dev/test only: planstub + deterministic stubs
}

// MaskingConfig toggles transcript/PII redaction in structured logs.
type MaskingConfig struct {
	Enabled      bool   `yaml:"enabled"`
	PatternGroup string `yaml:"pattern_group"`
}

// RetentionConfig controls the background cleanup service.
type RetentionConfig struct {
	InterviewRetentionDays int           `yaml:"interview_retention_days"`
	CleanupInterval        time.Duration `yaml:"cleanup_interval"`
}
