package api

// CreateInterviewRequest is the HTTP request body for POST /api/v1/interviews.
type CreateInterviewRequest struct {
	CandidateID  string `json:"candidate_id"`
	CVAnalysisID string `json:"cv_analysis_id"`
}
