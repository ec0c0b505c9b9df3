package ports

import "context"

// LLMEvaluation is the result of semantic scoring one answer against a
// question's ideal answer.
type LLMEvaluation struct {
	RawScore     float64
	Completeness float64
	Relevance    float64
	Sentiment    string
	Reasoning    string
	Strengths    []string
	Weaknesses   []string
	GapConcepts  []string
	GapConfirmed bool
}

// InterviewRecommendations is the structured response of the
// completion-summary recommendation call.
type InterviewRecommendations struct {
	Strengths    []string
	Weaknesses   []string
	StudyTopics  []string
	TechniqueTips []string
}

// AggregateMetrics is passed to the recommendation call alongside the
// raw evaluations and gap progression so the LLM can reason about the
// interview as a whole instead of one answer at a time.
type AggregateMetrics struct {
	OverallScore   float64
	TheoreticalAvg float64
	SpeakingAvg    float64
	TotalQuestions int
	TotalFollowUps int
}

// LLMPort is the semantic-reasoning collaborator: answer scoring,
// follow-up question generation, and end-of-interview recommendations.
// All operations are cancellable via ctx and must distinguish timeout,
// transient, and permanent failures (wrap with ErrTransient/ErrPermanent
// from this package, or a context error, so pkg/protocol can map them).
type LLMPort interface {
	EvaluateAnswer(ctx context.Context, questionPrompt, idealAnswer, answerText string) (*LLMEvaluation, error)
	GenerateFollowupQuestion(ctx context.Context, parentQuestionPrompt, answerText string, missingConcepts []string, order int) (string, error)
	GenerateInterviewRecommendations(ctx context.Context, evaluations []EvaluationSummaryInput, metrics AggregateMetrics, gapProgression []GapProgressionInput) (*InterviewRecommendations, error)
}

// EvaluationSummaryInput is the minimal projection of an Evaluation the
// recommendation prompt needs; defined here (rather than imported from
// pkg/interview) so the port stays decoupled from the aggregate's
// internal representation.
type EvaluationSummaryInput struct {
	QuestionPrompt string
	FinalScore     float64
	Strengths      []string
	Weaknesses     []string
}

// GapProgressionInput mirrors interview.GapProgressionEntry for the
// same decoupling reason.
type GapProgressionInput struct {
	ParentQuestionPrompt string
	Filled               []string
	Remaining            []string
}

// STTTranscription is the result of transcribing one audio answer.
type STTTranscription struct {
	Text            string
	DurationSeconds float64
	IntonationScore float64
	FluencyScore    float64
	ConfidenceScore float64
	SpeakingRateWPM int
}

// STTPort transcribes audio and derives voice metrics. 16kHz mono
// baseline (spec §6.3); language is a BCP-47 tag.
type STTPort interface {
	TranscribeAudio(ctx context.Context, audio []byte, format string, language string) (*STTTranscription, error)
}

// TTSPort renders text to speech. speed must be in [0.5, 2.0].
type TTSPort interface {
	SynthesizeSpeech(ctx context.Context, text string, voice string, speed float64) ([]byte, error)
	AvailableVoices(ctx context.Context) ([]string, error)
}

// VectorPort computes semantic similarity between a reference (ideal
// answer) and a candidate (the transcript), returning a value in [0,1].
type VectorPort interface {
	CosineSimilarity(ctx context.Context, reference, candidate string) (float64, error)
}

// QuestionPlanPort is the upstream question-planning collaborator: out
// of core scope per spec §1, consumed read-only here.
type QuestionPlanPort interface {
	MainQuestion(ctx context.Context, interviewID string, index int) (*PlannedQuestion, error)
}

// PlannedQuestion is the planning collaborator's view of a main question.
type PlannedQuestion struct {
	ID          string
	Prompt      string
	IdealAnswer string
	Difficulty  string
	SkillTags   []string
	Rationale   string
	TTSReady    bool
}
