package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	echo "github.com/labstack/echo/v5"

	"github.com/google/uuid"

	"github.com/candidflow/interviewer/pkg/interview"
	"github.com/candidflow/interviewer/pkg/ports"
)

// maxPlannedQuestions bounds how many times createInterviewHandler asks
// the upstream planning collaborator for the next main question before
// giving up; ports.QuestionPlanPort has no "count" operation, only
// MainQuestion(index), so the plan is built by walking indices until
// the collaborator reports none left.
const maxPlannedQuestions = 20

// createInterviewHandler handles POST /api/v1/interviews. It pulls the
// main-question plan from the upstream planning collaborator
// (ports.QuestionPlanPort, out of core scope per spec §1), persists the
// plan's questions so the core's read-only QuestionRepository can
// resolve them later, and creates the Interview aggregate in IDLE.
func (s *Server) createInterviewHandler(c *echo.Context) error {
	var req CreateInterviewRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if req.CandidateID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "candidate_id is required")
	}

	ctx := c.Request().Context()
	interviewID := uuid.New().String()

	planned, err := s.fetchPlan(ctx, interviewID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "failed to fetch question plan: "+err.Error())
	}
	if len(planned) == 0 {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "question plan is empty")
	}

	questionIDs := make([]string, 0, len(planned))
	for _, pq := range planned {
		question := &interview.Question{
			ID:          pq.ID,
			Prompt:      pq.Prompt,
			IdealAnswer: pq.IdealAnswer,
			Difficulty:  pq.Difficulty,
			SkillTags:   pq.SkillTags,
			Rationale:   pq.Rationale,
			TTSReady:    pq.TTSReady,
		}
		if err := s.questions.Upsert(ctx, nil, question); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to persist question: "+err.Error())
		}
		questionIDs = append(questionIDs, pq.ID)
	}

	now := time.Now()
	iv := interview.New(interviewID, req.CandidateID, now)
	iv.Plan = questionIDs
	if err := iv.MarkReady(req.CVAnalysisID, now); err != nil {
		return mapServiceError(err)
	}
	if err := s.interviews.Create(ctx, nil, iv); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create interview: "+err.Error())
	}

	return c.JSON(http.StatusCreated, &CreateInterviewResponse{
		InterviewID: iv.ID,
		Status:      string(iv.Status),
		QuestionIDs: questionIDs,
	})
}

func (s *Server) fetchPlan(ctx context.Context, interviewID string) ([]*ports.PlannedQuestion, error) {
	var planned []*ports.PlannedQuestion
	for i := 0; i < maxPlannedQuestions; i++ {
		pq, err := s.planPort.MainQuestion(ctx, interviewID, i)
		if err != nil {
			break
		}
		planned = append(planned, pq)
	}
	return planned, nil
}

// summaryHandler handles GET /api/v1/interviews/:id/summary. Clients
// poll this once an interview_complete frame arrives on the WebSocket
// connection (or to check status after reconnecting without one).
//
// Per spec §6.2: 200 only when the interview is COMPLETE and carries a
// completion_summary; 400 when it exists but hasn't reached COMPLETE
// yet (message names the current status); 404 both when the interview
// doesn't exist and when it is COMPLETE without a summary, since the
// completion engine must never let that state occur and a poller has
// no way to distinguish "not found" from "corrupted" at this layer.
func (s *Server) summaryHandler(c *echo.Context) error {
	id := c.Param("id")
	ctx := c.Request().Context()

	iv, err := s.interviews.Get(ctx, nil, id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "interview not found")
	}

	if iv.Status != interview.StatusComplete {
		return echo.NewHTTPError(http.StatusBadRequest, "interview is not complete: status "+string(iv.Status))
	}

	summary, ok := iv.CompletionSummaryValue()
	if !ok {
		slog.Error("interview is COMPLETE without a completion summary", "interview_id", iv.ID)
		return echo.NewHTTPError(http.StatusNotFound, "interview not found")
	}

	resp := &SummaryResponse{InterviewID: iv.ID, Status: string(iv.Status)}
	resp.Ready = true
	resp.OverallScore = summary.OverallScore
	resp.TheoreticalAvg = summary.TheoreticalAvg
	resp.SpeakingAvg = summary.SpeakingAvg
	resp.TotalQuestions = summary.TotalQuestions
	resp.TotalFollowUps = summary.TotalFollowUps
	resp.Strengths = summary.Strengths
	resp.Weaknesses = summary.Weaknesses
	resp.StudyRecommendations = summary.StudyRecommendations
	resp.TechniqueTips = summary.TechniqueTips
	resp.CompletionTime = summary.CompletionTime
	for _, qs := range summary.QuestionSummaries {
		resp.QuestionSummaries = append(resp.QuestionSummaries, QuestionSummaryDTO{
			QuestionID:    qs.QuestionID,
			FinalScore:    qs.FinalScore,
			FollowupCount: qs.FollowupCount,
			GapsRemaining: qs.GapsRemaining,
		})
	}
	return c.JSON(http.StatusOK, resp)
}
