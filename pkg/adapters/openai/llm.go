package openai

import (
	"context"
	"fmt"
	"strings"

	"github.com/candidflow/interviewer/pkg/adapters"
	"github.com/candidflow/interviewer/pkg/ports"
	"github.com/openai/openai-go"
)

// evaluationResponse is the JSON-schema-constrained shape of an
// EvaluateAnswer completion.
type evaluationResponse struct {
	RawScore     float64  `json:"raw_score" jsonschema_description:"0-100 semantic correctness score"`
	Completeness float64  `json:"completeness" jsonschema_description:"0-1 fraction of expected concepts covered"`
	Relevance    float64  `json:"relevance" jsonschema_description:"0-1 on-topic score"`
	Sentiment    string   `json:"sentiment"`
	Reasoning    string   `json:"reasoning"`
	Strengths    []string `json:"strengths"`
	Weaknesses   []string `json:"weaknesses"`
	GapConcepts  []string `json:"gap_concepts" jsonschema_description:"expected concepts the answer did not cover"`
	GapConfirmed bool     `json:"gap_confirmed" jsonschema_description:"true only if gap_concepts is non-empty and material"`
}

// EvaluateAnswer scores answerText against questionPrompt/idealAnswer.
func (c *Client) EvaluateAnswer(ctx context.Context, questionPrompt, idealAnswer, answerText string) (*ports.LLMEvaluation, error) {
	system := "You are an expert technical interviewer scoring a candidate's answer. " +
		"Score strictly and identify concrete gaps relative to the ideal answer."
	user := fmt.Sprintf("Question: %s\n\nIdeal answer: %s\n\nCandidate answer: %s",
		questionPrompt, idealAnswer, answerText)

	var resp evaluationResponse
	if err := chatJSON(ctx, c, "answer_evaluation", system, user, &resp); err != nil {
		return nil, fmt.Errorf("openai: evaluate answer: %w", err)
	}

	return &ports.LLMEvaluation{
		RawScore:     resp.RawScore,
		Completeness: resp.Completeness,
		Relevance:    resp.Relevance,
		Sentiment:    resp.Sentiment,
		Reasoning:    resp.Reasoning,
		Strengths:    resp.Strengths,
		Weaknesses:   resp.Weaknesses,
		GapConcepts:  resp.GapConcepts,
		GapConfirmed: resp.GapConfirmed,
	}, nil
}

// GenerateFollowupQuestion drafts a follow-up targeting missingConcepts.
func (c *Client) GenerateFollowupQuestion(ctx context.Context, parentQuestionPrompt, answerText string, missingConcepts []string, order int) (string, error) {
	system := "You are an expert technical interviewer. Write one short, specific follow-up " +
		"question that probes the concepts the candidate missed. Return only the question text."
	user := fmt.Sprintf("Original question: %s\n\nCandidate answer: %s\n\nMissing concepts: %s\n\nThis is follow-up #%d.",
		parentQuestionPrompt, answerText, strings.Join(missingConcepts, ", "), order)

	params := openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
	}

	var question string
	err := adapters.WithRetry(ctx, func() error {
		resp, err := c.sdk.Chat.Completions.New(ctx, params)
		if err != nil {
			return classifyError("openai", err)
		}
		if len(resp.Choices) == 0 {
			return &ports.PermanentError{Adapter: "openai", Err: fmt.Errorf("no choices in response")}
		}
		question = strings.TrimSpace(resp.Choices[0].Message.Content)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("openai: generate follow-up: %w", err)
	}
	return question, nil
}

// recommendationsResponse is the JSON-schema-constrained shape of a
// GenerateInterviewRecommendations completion.
type recommendationsResponse struct {
	Strengths     []string `json:"strengths"`
	Weaknesses    []string `json:"weaknesses"`
	StudyTopics   []string `json:"study_topics"`
	TechniqueTips []string `json:"technique_tips"`
}

// GenerateInterviewRecommendations produces the end-of-interview summary
// recommendations (spec's completion engine, C6).
func (c *Client) GenerateInterviewRecommendations(ctx context.Context, evaluations []ports.EvaluationSummaryInput, metrics ports.AggregateMetrics, gapProgression []ports.GapProgressionInput) (*ports.InterviewRecommendations, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Overall score: %.1f (theoretical %.1f, speaking %.1f) across %d questions and %d follow-ups.\n\n",
		metrics.OverallScore, metrics.TheoreticalAvg, metrics.SpeakingAvg, metrics.TotalQuestions, metrics.TotalFollowUps)
	for _, e := range evaluations {
		fmt.Fprintf(&sb, "- %q scored %.1f. Strengths: %s. Weaknesses: %s.\n",
			e.QuestionPrompt, e.FinalScore, strings.Join(e.Strengths, "; "), strings.Join(e.Weaknesses, "; "))
	}
	for _, g := range gapProgression {
		fmt.Fprintf(&sb, "- %q: filled %s, still missing %s.\n",
			g.ParentQuestionPrompt, strings.Join(g.Filled, ", "), strings.Join(g.Remaining, ", "))
	}

	system := "You are an expert technical interview coach. Summarize the candidate's overall " +
		"performance into concrete strengths, weaknesses, study topics, and speaking-technique tips."

	var resp recommendationsResponse
	if err := chatJSON(ctx, c, "interview_recommendations", system, sb.String(), &resp); err != nil {
		return nil, fmt.Errorf("openai: generate recommendations: %w", err)
	}

	return &ports.InterviewRecommendations{
		Strengths:     resp.Strengths,
		Weaknesses:    resp.Weaknesses,
		StudyTopics:   resp.StudyTopics,
		TechniqueTips: resp.TechniqueTips,
	}, nil
}
