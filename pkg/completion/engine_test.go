package completion

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/candidflow/interviewer/pkg/interview"
	"github.com/candidflow/interviewer/pkg/ports"
)

type stubRecommendLLM struct {
	recs *ports.InterviewRecommendations
	err  error
	gotMetrics ports.AggregateMetrics
}

func (s *stubRecommendLLM) EvaluateAnswer(ctx context.Context, questionPrompt, idealAnswer, answerText string) (*ports.LLMEvaluation, error) {
	return nil, nil
}

func (s *stubRecommendLLM) GenerateFollowupQuestion(ctx context.Context, parentQuestionPrompt, answerText string, missingConcepts []string, order int) (string, error) {
	return "", nil
}

func (s *stubRecommendLLM) GenerateInterviewRecommendations(ctx context.Context, evaluations []ports.EvaluationSummaryInput, metrics ports.AggregateMetrics, gapProgression []ports.GapProgressionInput) (*ports.InterviewRecommendations, error) {
	s.gotMetrics = metrics
	if s.err != nil {
		return nil, s.err
	}
	if s.recs != nil {
		return s.recs, nil
	}
	return &ports.InterviewRecommendations{Strengths: []string{"clarity"}}, nil
}

func evalWithVoice(score float64, voice *interview.VoiceMetrics) *interview.Evaluation {
	return &interview.Evaluation{FinalScore: score, VoiceMetrics: voice}
}

func TestAggregateMetricsSpeakingOnlyDefault(t *testing.T) {
	// Scenario S6: every answer is text-only, no voice metrics anywhere.
	llm := &stubRecommendLLM{}
	eng := New(llm, DefaultConfig())

	grouped := []QuestionAnswers{
		{QuestionID: "q1", MainEval: evalWithVoice(80, nil)},
		{QuestionID: "q2", MainEval: evalWithVoice(60, nil)},
	}

	iv := &interview.Interview{Plan: []string{"q1", "q2"}}
	summary, err := eng.Compute(context.Background(), iv, grouped)
	require.NoError(t, err)

	assert.Equal(t, 70.0, summary.TheoreticalAvg)
	assert.Equal(t, DefaultSpeakingAverage, summary.SpeakingAvg)
	assert.InDelta(t, 0.7*70+0.3*50, summary.OverallScore, 0.0001)
}

func TestAggregateMetricsBlendsVoice(t *testing.T) {
	llm := &stubRecommendLLM{}
	eng := New(llm, DefaultConfig())

	voice := &interview.VoiceMetrics{IntonationScore: 0.8, FluencyScore: 0.8, ConfidenceScore: 0.8}
	grouped := []QuestionAnswers{
		{QuestionID: "q1", MainEval: evalWithVoice(90, voice)},
	}

	iv := &interview.Interview{Plan: []string{"q1"}}
	summary, err := eng.Compute(context.Background(), iv, grouped)
	require.NoError(t, err)

	assert.Equal(t, 90.0, summary.TheoreticalAvg)
	assert.InDelta(t, 80.0, summary.SpeakingAvg, 0.0001)
	assert.InDelta(t, 0.7*90+0.3*80, summary.OverallScore, 0.0001)
}

func TestComputeFailsWhenRecommendationsError(t *testing.T) {
	// Scenario S5: LLM recommendation failure must propagate so the
	// caller never commits a partial completion transaction.
	llm := &stubRecommendLLM{err: assertErr{}}
	eng := New(llm, DefaultConfig())

	grouped := []QuestionAnswers{{QuestionID: "q1", MainEval: evalWithVoice(50, nil)}}
	iv := &interview.Interview{Plan: []string{"q1"}}

	_, err := eng.Compute(context.Background(), iv, grouped)
	require.Error(t, err)
}

type assertErr struct{}

func (assertErr) Error() string { return "recommendation engine unavailable" }

func TestGapProgressionTracksFilledAndRemaining(t *testing.T) {
	llm := &stubRecommendLLM{}
	eng := New(llm, DefaultConfig())

	main := &interview.Answer{
		QuestionID: "q1",
		Gaps:       interview.Gap{Concepts: []string{"caching", "sharding"}, Confirmed: true},
	}
	fu := &interview.Answer{
		QuestionID: "fu1",
		Gaps:       interview.Gap{Concepts: []string{"sharding"}, Confirmed: true},
	}

	grouped := []QuestionAnswers{
		{
			QuestionID: "q1",
			MainAnswer: main,
			MainEval:   evalWithVoice(70, nil),
			FollowUps:  []FollowUpAnswer{{Answer: fu, Evaluation: evalWithVoice(75, nil)}},
		},
	}
	iv := &interview.Interview{Plan: []string{"q1"}}

	summary, err := eng.Compute(context.Background(), iv, grouped)
	require.NoError(t, err)
	require.Len(t, summary.GapProgression, 1)

	entry := summary.GapProgression[0]
	assert.ElementsMatch(t, []string{"caching", "sharding"}, entry.Initial)
	assert.ElementsMatch(t, []string{"sharding"}, entry.Final)
	assert.ElementsMatch(t, []string{"caching"}, entry.Filled)
	assert.ElementsMatch(t, []string{"sharding"}, entry.Remaining)
}

func TestGroupAnswersByParentOrdersFollowUps(t *testing.T) {
	answers := []*interview.Answer{
		{ID: "a-q1", QuestionID: "q1", EvaluationID: "e-q1"},
		{ID: "a-fu1", QuestionID: "fu1", EvaluationID: "e-fu1"},
		{ID: "a-q2", QuestionID: "q2", EvaluationID: "e-q2"},
	}
	evaluations := map[string]*interview.Evaluation{
		"e-q1":  {FinalScore: 60},
		"e-fu1": {FinalScore: 65},
		"e-q2":  {FinalScore: 80},
	}
	followUpOrder := map[string][]string{"q1": {"fu1"}}

	grouped := GroupAnswersByParent(
		[]string{"q1", "q2"},
		map[string]string{"q1": "Explain caching", "q2": "Explain sharding"},
		answers,
		evaluations,
		followUpOrder,
	)

	require.Len(t, grouped, 2)
	assert.Equal(t, "q1", grouped[0].QuestionID)
	require.Len(t, grouped[0].FollowUps, 1)
	assert.Equal(t, "a-fu1", grouped[0].FollowUps[0].Answer.ID)
	assert.Empty(t, grouped[1].FollowUps)
}

func TestNeutralSpeakingDefaultIsConfigurable(t *testing.T) {
	llm := &stubRecommendLLM{}
	cfg := DefaultConfig()
	cfg.SpeakingDefaultWhenAbsent = 40
	eng := New(llm, cfg)

	grouped := []QuestionAnswers{{QuestionID: "q1", MainEval: evalWithVoice(90, nil)}}
	iv := &interview.Interview{Plan: []string{"q1"}}

	summary, err := eng.Compute(context.Background(), iv, grouped)
	require.NoError(t, err)
	assert.Equal(t, 40.0, summary.SpeakingAvg)
}
