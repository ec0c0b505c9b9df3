// Package protocol implements the bidirectional session frame layer
// (C7): typed inbound/outbound frames, base64 audio chunk decoding, and
// decode-time validation. It never calls into domain logic — it only
// (de)serialises and validates.
package protocol

import "encoding/json"

// Inbound frame type discriminators (spec §6.1).
const (
	TypeStartSession    = "start_session"
	TypeTextAnswer      = "text_answer"
	TypeAudioChunk      = "audio_chunk"
	TypeGetNextQuestion = "get_next_question"
	TypeRequestRetry    = "request_retry"
	TypeCancel          = "cancel"
)

// Outbound frame type discriminators.
const (
	TypeQuestion         = "question"
	TypeFollowUpQuestion = "follow_up_question"
	TypeTranscription    = "transcription"
	TypeVoiceMetrics     = "voice_metrics"
	TypeEvaluation       = "evaluation"
	TypeInterviewComplete = "interview_complete"
	TypeError            = "error"
)

// ValidAudioFormats is the closed set accepted for audio_chunk.format.
var ValidAudioFormats = map[string]bool{"webm": true, "wav": true, "mp3": true}

// InboundEnvelope is the outer shape every inbound text frame shares.
type InboundEnvelope struct {
	Type string          `json:"type"`
	Raw  json.RawMessage `json:"-"`
}

// TextAnswerPayload is the payload of a text_answer frame.
type TextAnswerPayload struct {
	QuestionID string `json:"question_id"`
	AnswerText string `json:"answer_text"`
}

// AudioChunkPayload is the payload of an audio_chunk frame. AudioData is
// the base64 body carried in the JSON text frame; DecodeAudioChunk
// decodes it into Audio. Raw binary audio frames are not decoded.
type AudioChunkPayload struct {
	QuestionID string `json:"question_id"`
	ChunkIndex int    `json:"chunk_index"`
	IsFinal    bool   `json:"is_final"`
	Format     string `json:"format"`
	AudioData  string `json:"audio_data"`
	Audio      []byte `json:"-"`
}

// RequestRetryPayload is the payload of a request_retry frame.
type RequestRetryPayload struct {
	Of string `json:"of"`
}

// QuestionFrame is the outbound "question" frame payload.
type QuestionFrame struct {
	QuestionID  string `json:"question_id"`
	Text        string `json:"text"`
	Index       int    `json:"index"`
	Total       int    `json:"total"`
	AudioData   string `json:"audio_data,omitempty"`
	AudioFormat string `json:"audio_format,omitempty"`
}

// FollowUpQuestionFrame is the outbound "follow_up_question" frame payload.
type FollowUpQuestionFrame struct {
	QuestionID       string `json:"question_id"`
	ParentQuestionID string `json:"parent_question_id"`
	Text             string `json:"text"`
	GeneratedReason  string `json:"generated_reason"`
	OrderInSequence  int    `json:"order_in_sequence"`
	AudioData        string `json:"audio_data,omitempty"`
	AudioFormat      string `json:"audio_format,omitempty"`
}

// TranscriptionFrame is the outbound "transcription" frame payload.
type TranscriptionFrame struct {
	Text       string  `json:"text"`
	IsFinal    bool    `json:"is_final"`
	Confidence float64 `json:"confidence"`
}

// VoiceMetricsFrame is the outbound "voice_metrics" frame payload.
type VoiceMetricsFrame struct {
	Intonation      float64 `json:"intonation"`
	Fluency         float64 `json:"fluency"`
	Confidence      float64 `json:"confidence"`
	SpeakingRateWPM int     `json:"speaking_rate_wpm"`
	RealTime        bool    `json:"real_time"`
}

// GapFrame is the gap report embedded in an evaluation frame.
type GapFrame struct {
	Concepts  []string `json:"concepts"`
	Confirmed bool     `json:"confirmed"`
}

// EvaluationFrame is the outbound "evaluation" frame payload.
type EvaluationFrame struct {
	AnswerID        string             `json:"answer_id"`
	Score           float64            `json:"score"`
	Feedback        string             `json:"feedback"`
	Strengths       []string           `json:"strengths"`
	Weaknesses      []string           `json:"weaknesses"`
	SimilarityScore float64            `json:"similarity_score"`
	Gaps            GapFrame           `json:"gaps"`
	VoiceMetrics    *VoiceMetricsFrame `json:"voice_metrics,omitempty"`
}

// ErrorFrame is the outbound "error" frame payload.
type ErrorFrame struct {
	Code           string `json:"code"`
	Message        string `json:"message"`
	Recoverable    bool   `json:"recoverable"`
	RetryAvailable bool   `json:"retry_available"`
	FallbackOption string `json:"fallback_option,omitempty"`
}

// Frame is the outer envelope written to the wire for every outbound
// text frame.
type Frame struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}
