package interview

import "time"

// Question is a planned main question. It is produced upstream by the
// question-planning collaborator and immutable once the plan is frozen;
// the core consumes it read-only.
type Question struct {
	ID           string
	Prompt       string
	IdealAnswer  string
	Difficulty   string
	SkillTags    []string
	Rationale    string
	TTSReady     bool
}

// FollowUpQuestion is generated by the orchestrator during an answer
// turn in response to a confirmed gap. Immutable once created.
type FollowUpQuestion struct {
	ID               string
	InterviewID      string
	ParentQuestionID string
	Prompt           string
	OrderInSequence  int // 1..3
	GeneratingReason []string
	CreatedAt        time.Time
}

// Gap is the structured report of missing concepts attached to an Answer.
type Gap struct {
	Concepts  []string
	Confirmed bool
}

// VoiceMetrics is the acoustic channel's per-answer measurement.
type VoiceMetrics struct {
	IntonationScore  float64
	FluencyScore     float64
	ConfidenceScore  float64
	SpeakingRateWPM  int
	DurationSeconds  float64
}

// OverallVoiceScore is mean(intonation, fluency, confidence) * 100, the
// formula used for both the per-answer speaking score and the
// completion-summary speaking average.
func (v VoiceMetrics) OverallVoiceScore() float64 {
	return ((v.IntonationScore + v.FluencyScore + v.ConfidenceScore) / 3.0) * 100.0
}

// SimilarityFloor is the minimum representable similarity score (§3 of
// spec.md): a measured-zero similarity is stored as this sentinel so it
// can be told apart from "not measured". Never treat this value, or
// anything at or below it, as a meaningful signal of similarity.
const SimilarityFloor = 0.01

// Answer is one candidate response to a main or follow-up question.
type Answer struct {
	ID           string
	InterviewID  string
	QuestionID   string
	Transcript   string
	VoiceMetrics *VoiceMetrics // nil when the answer was text-only
	Similarity   float64       // (0, 1], SimilarityFloor is the minimum
	Gaps         Gap
	EvaluationID string
}

// Evaluation is the immutable dual-channel scoring record for one Answer.
type Evaluation struct {
	ID           string
	AnswerID     string
	QuestionID   string
	InterviewID  string
	RawScore     float64
	FinalScore   float64
	Completeness float64
	Relevance    float64
	Sentiment    string
	Reasoning    string
	Strengths    []string
	Weaknesses   []string
	VoiceMetrics *VoiceMetrics
	CreatedAt    time.Time
}

// clampScore clamps a 0-100 scale score.
func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// clampUnit clamps a 0-1 scale value.
func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
