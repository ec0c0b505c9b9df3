package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/candidflow/interviewer/pkg/completion"
	"github.com/candidflow/interviewer/pkg/followup"
	"github.com/candidflow/interviewer/pkg/interview"
	"github.com/candidflow/interviewer/pkg/pipeline"
	"github.com/candidflow/interviewer/pkg/ports"
	"github.com/candidflow/interviewer/pkg/protocol"
)

// --- in-memory fakes -------------------------------------------------

type memTx struct{}

func (memTx) Commit(ctx context.Context) error   { return nil }
func (memTx) Rollback(ctx context.Context) error { return nil }

type memTransactor struct{}

func (memTransactor) BeginTx(ctx context.Context) (ports.Tx, error) { return memTx{}, nil }

type memInterviews struct {
	byID map[string]*interview.Interview
}

func newMemInterviews(iv *interview.Interview) *memInterviews {
	return &memInterviews{byID: map[string]*interview.Interview{iv.ID: iv}}
}

func (m *memInterviews) Get(ctx context.Context, tx ports.Tx, id string) (*interview.Interview, error) {
	cp := *m.byID[id]
	return &cp, nil
}

func (m *memInterviews) Create(ctx context.Context, tx ports.Tx, iv *interview.Interview) error {
	cp := *iv
	m.byID[iv.ID] = &cp
	return nil
}

func (m *memInterviews) Update(ctx context.Context, tx ports.Tx, iv *interview.Interview, previousUpdatedAtUnixNano int64) error {
	existing, ok := m.byID[iv.ID]
	if !ok {
		return assertErr("interview not found")
	}
	if existing.UpdatedAt.UnixNano() != previousUpdatedAtUnixNano {
		return &interview.StaleConcurrencyTokenError{InterviewID: iv.ID}
	}
	cp := *iv
	m.byID[iv.ID] = &cp
	return nil
}

type assertErr string

func (e assertErr) Error() string { return string(e) }

type memQuestions struct {
	byID map[string]*interview.Question
}

func (m *memQuestions) Get(ctx context.Context, tx ports.Tx, id string) (*interview.Question, error) {
	q, ok := m.byID[id]
	if !ok {
		return nil, assertErr("question not found: " + id)
	}
	return q, nil
}

type memFollowUps struct {
	byParent map[string][]*interview.FollowUpQuestion
}

func newMemFollowUps() *memFollowUps {
	return &memFollowUps{byParent: map[string][]*interview.FollowUpQuestion{}}
}

func (m *memFollowUps) Create(ctx context.Context, tx ports.Tx, fu *interview.FollowUpQuestion) error {
	m.byParent[fu.ParentQuestionID] = append(m.byParent[fu.ParentQuestionID], fu)
	return nil
}

func (m *memFollowUps) FindByParentQuestion(ctx context.Context, tx ports.Tx, parentQuestionID string) ([]*interview.FollowUpQuestion, error) {
	return m.byParent[parentQuestionID], nil
}

type memAnswers struct {
	byQuestion map[string]*interview.Answer
}

func newMemAnswers() *memAnswers {
	return &memAnswers{byQuestion: map[string]*interview.Answer{}}
}

func (m *memAnswers) Upsert(ctx context.Context, tx ports.Tx, a *interview.Answer) error {
	m.byQuestion[a.QuestionID] = a
	return nil
}

func (m *memAnswers) FindByInterview(ctx context.Context, tx ports.Tx, interviewID string) ([]*interview.Answer, error) {
	out := make([]*interview.Answer, 0, len(m.byQuestion))
	for _, a := range m.byQuestion {
		out = append(out, a)
	}
	return out, nil
}

type memEvaluations struct {
	byID map[string]*interview.Evaluation
}

func newMemEvaluations() *memEvaluations {
	return &memEvaluations{byID: map[string]*interview.Evaluation{}}
}

func (m *memEvaluations) Create(ctx context.Context, tx ports.Tx, e *interview.Evaluation) error {
	m.byID[e.ID] = e
	return nil
}

func (m *memEvaluations) FindByInterview(ctx context.Context, tx ports.Tx, interviewID string) ([]*interview.Evaluation, error) {
	out := make([]*interview.Evaluation, 0, len(m.byID))
	for _, e := range m.byID {
		out = append(out, e)
	}
	return out, nil
}

type stubLLM struct {
	rawScore     float64
	gapConcepts  []string
	gapConfirmed bool
	followupText string
	recs         *ports.InterviewRecommendations
	recsErr      error
}

func (s *stubLLM) EvaluateAnswer(ctx context.Context, questionPrompt, idealAnswer, answerText string) (*ports.LLMEvaluation, error) {
	return &ports.LLMEvaluation{
		RawScore:     s.rawScore,
		Completeness: 0.8,
		Relevance:    0.8,
		GapConcepts:  s.gapConcepts,
		GapConfirmed: s.gapConfirmed,
	}, nil
}

func (s *stubLLM) GenerateFollowupQuestion(ctx context.Context, parentQuestionPrompt, answerText string, missingConcepts []string, order int) (string, error) {
	return s.followupText, nil
}

func (s *stubLLM) GenerateInterviewRecommendations(ctx context.Context, evaluations []ports.EvaluationSummaryInput, metrics ports.AggregateMetrics, gapProgression []ports.GapProgressionInput) (*ports.InterviewRecommendations, error) {
	if s.recsErr != nil {
		return nil, s.recsErr
	}
	if s.recs != nil {
		return s.recs, nil
	}
	return &ports.InterviewRecommendations{Strengths: []string{"solid fundamentals"}}, nil
}

type stubVector struct{ score float64 }

func (s stubVector) CosineSimilarity(ctx context.Context, reference, candidate string) (float64, error) {
	return s.score, nil
}

func setup(t *testing.T, numQuestions int, llm *stubLLM, similarity float64) (*Orchestrator, *memInterviews, string) {
	t.Helper()
	iv := interview.New("iv-1", "cand-1", time.Unix(0, 0))
	for i := 0; i < numQuestions; i++ {
		iv.Plan = append(iv.Plan, "q"+string(rune('1'+i)))
	}
	require.NoError(t, iv.MarkReady("cv-1", time.Unix(0, 0)))

	ivs := newMemInterviews(iv)
	questions := &memQuestions{byID: map[string]*interview.Question{}}
	for _, qid := range iv.Plan {
		questions.byID[qid] = &interview.Question{ID: qid, Prompt: "explain " + qid, IdealAnswer: "ideal " + qid}
	}

	p := pipeline.New(llm, nil, stubVector{score: similarity}, pipeline.Timeouts{})

	deps := Deps{
		Interviews:  ivs,
		Questions:   questions,
		FollowUps:   newMemFollowUps(),
		Answers:     newMemAnswers(),
		Evaluations: newMemEvaluations(),
		Transactor:  memTransactor{},
		Pipeline:    p,
		LLM:         llm,
		Completion:  completion.New(llm, completion.DefaultConfig()),
		FollowUpCfg: followup.DefaultConfig(),
		Clock:       func() time.Time { return time.Unix(1000, 0) },
	}

	return New(deps, "iv-1"), ivs, "q1"
}

func TestStartSessionReturnsFirstQuestion(t *testing.T) {
	llm := &stubLLM{rawScore: 90}
	orch, _, _ := setup(t, 2, llm, 0.9)

	frame, err := orch.StartSession(context.Background())
	require.NoError(t, err)
	require.Equal(t, protocol.TypeQuestion, frame.Type)
	payload, ok := frame.Data.(protocol.QuestionFrame)
	require.True(t, ok)
	assert.Equal(t, "q1", payload.QuestionID)
	assert.Equal(t, 2, payload.Total)
}

func TestAnswerTurnHighSimilarityAdvancesWithoutFollowup(t *testing.T) {
	llm := &stubLLM{rawScore: 90}
	orch, ivs, qid := setup(t, 2, llm, 0.95)

	_, err := orch.StartSession(context.Background())
	require.NoError(t, err)

	frames, err := orch.AnswerTurn(context.Background(), pipeline.Input{QuestionID: qid, Text: "a correct answer"})
	require.NoError(t, err)
	require.Len(t, frames, 2)
	assert.Equal(t, "evaluation", frames[0].Type)
	assert.Equal(t, "question", frames[1].Type)

	iv := ivs.byID["iv-1"]
	assert.Equal(t, interview.StatusQuestioning, iv.Status)
	assert.Equal(t, 1, iv.CurrentIndex)
}

func TestAnswerTurnLowSimilarityAsksFollowup(t *testing.T) {
	llm := &stubLLM{rawScore: 40, gapConcepts: []string{"caching"}, gapConfirmed: true, followupText: "tell me more about caching"}
	orch, ivs, qid := setup(t, 1, llm, 0.3)

	_, err := orch.StartSession(context.Background())
	require.NoError(t, err)

	frames, err := orch.AnswerTurn(context.Background(), pipeline.Input{QuestionID: qid, Text: "a vague answer"})
	require.NoError(t, err)
	require.Len(t, frames, 2)
	assert.Equal(t, "follow_up_question", frames[1].Type)

	iv := ivs.byID["iv-1"]
	assert.Equal(t, interview.StatusFollowUp, iv.Status)
	assert.Equal(t, 1, iv.CurrentFollowupCount)
	assert.Equal(t, qid, iv.CurrentParentQuestionID)
}

func TestAnswerTurnCompletesOnLastQuestion(t *testing.T) {
	llm := &stubLLM{rawScore: 95}
	orch, ivs, qid := setup(t, 1, llm, 0.99)

	_, err := orch.StartSession(context.Background())
	require.NoError(t, err)

	frames, err := orch.AnswerTurn(context.Background(), pipeline.Input{QuestionID: qid, Text: "a thorough answer"})
	require.NoError(t, err)
	require.Len(t, frames, 2)
	assert.Equal(t, "interview_complete", frames[1].Type)

	iv := ivs.byID["iv-1"]
	assert.Equal(t, interview.StatusComplete, iv.Status)
	summary, ok := iv.CompletionSummaryValue()
	require.True(t, ok)
	assert.Greater(t, summary.OverallScore, 0.0)
}

// TestAnswerTurnPersistsEvaluatingBeforeCompletionFailure covers
// scenario S5: a mid-turn failure after begin_evaluation (here, the
// completion engine's recommendation LLM call, triggered by the last
// question in the plan) must still leave storage showing EVALUATING,
// since that transition is persisted as its own write in step 3 rather
// than bundled into the later proceed transaction that never commits.
func TestAnswerTurnPersistsEvaluatingBeforeCompletionFailure(t *testing.T) {
	llm := &stubLLM{rawScore: 95, recsErr: assertErr("llm: recommendations unavailable")}
	orch, ivs, qid := setup(t, 1, llm, 0.99)

	_, err := orch.StartSession(context.Background())
	require.NoError(t, err)

	_, err = orch.AnswerTurn(context.Background(), pipeline.Input{QuestionID: qid, Text: "a thorough answer"})
	require.Error(t, err)

	iv := ivs.byID["iv-1"]
	assert.Equal(t, interview.StatusEvaluating, iv.Status)
}

func TestCancelFromQuestioning(t *testing.T) {
	llm := &stubLLM{rawScore: 90}
	orch, ivs, _ := setup(t, 2, llm, 0.9)

	_, err := orch.StartSession(context.Background())
	require.NoError(t, err)

	require.NoError(t, orch.Cancel(context.Background()))
	assert.Equal(t, interview.StatusCancelled, ivs.byID["iv-1"].Status)
}
