package api

import "time"

// CreateInterviewResponse is returned by POST /api/v1/interviews.
type CreateInterviewResponse struct {
	InterviewID string `json:"interview_id"`
	Status      string `json:"status"`
	QuestionIDs []string `json:"question_ids"`
}

// SummaryResponse is returned by GET /api/v1/interviews/:id/summary.
// It is only built for a COMPLETE interview with a stored summary, so
// Ready is always true; any other status gets an error response instead.
type SummaryResponse struct {
	InterviewID          string                  `json:"interview_id"`
	Status               string                  `json:"status"`
	Ready                bool                    `json:"ready"`
	OverallScore         float64                 `json:"overall_score,omitempty"`
	TheoreticalAvg       float64                 `json:"theoretical_avg,omitempty"`
	SpeakingAvg          float64                 `json:"speaking_avg,omitempty"`
	TotalQuestions       int                     `json:"total_questions,omitempty"`
	TotalFollowUps       int                     `json:"total_follow_ups,omitempty"`
	QuestionSummaries    []QuestionSummaryDTO    `json:"question_summaries,omitempty"`
	Strengths            []string                `json:"strengths,omitempty"`
	Weaknesses           []string                `json:"weaknesses,omitempty"`
	StudyRecommendations []string                `json:"study_recommendations,omitempty"`
	TechniqueTips        []string                `json:"technique_tips,omitempty"`
	CompletionTime       time.Time               `json:"completion_time,omitempty"`
}

// QuestionSummaryDTO is the wire projection of interview.QuestionSummary.
type QuestionSummaryDTO struct {
	QuestionID    string   `json:"question_id"`
	FinalScore    float64  `json:"final_score"`
	FollowupCount int      `json:"followup_count"`
	GapsRemaining []string `json:"gaps_remaining,omitempty"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status   string      `json:"status"`
	Version  string      `json:"version"`
	Database HealthCheck `json:"database"`
}

// HealthCheck represents the status of a single health check component.
type HealthCheck struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}
