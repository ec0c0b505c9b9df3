package interview

import "time"

// GapProgressionEntry records, for one main (parent) question, how the
// set of confirmed gap concepts evolved across its follow-up sequence.
type GapProgressionEntry struct {
	ParentQuestionID string
	Initial          []string // confirmed concepts on the parent answer
	Final            []string // confirmed concepts on the last follow-up answer
	Filled           []string // Initial - Final
	Remaining        []string // == Final
}

// QuestionSummary is the per-main-question rollup in a CompletionSummary.
type QuestionSummary struct {
	QuestionID     string
	FinalScore     float64
	FollowupCount  int
	GapsRemaining  []string
}

// CompletionSummary is computed once by the completion engine (C6) and
// stored in plan metadata under "completion_summary". Its presence is
// the invariant that distinguishes a genuinely COMPLETE interview from
// a corrupted one (spec §6.2).
type CompletionSummary struct {
	OverallScore      float64
	TheoreticalAvg    float64
	SpeakingAvg       float64
	TotalQuestions    int
	TotalFollowUps    int
	QuestionSummaries []QuestionSummary
	GapProgression    []GapProgressionEntry
	Strengths         []string
	Weaknesses        []string
	StudyRecommendations []string
	TechniqueTips     []string
	CompletionTime    time.Time
}
