package interview

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestInterview(plan ...string) *Interview {
	now := time.Now()
	iv := New("iv-1", "cand-1", now)
	iv.Plan = plan
	return iv
}

func readyInterview(t *testing.T, plan ...string) *Interview {
	t.Helper()
	now := time.Now()
	iv := newTestInterview(plan...)
	require.NoError(t, iv.MarkReady("cv-1", now))
	require.NoError(t, iv.Start(now))
	return iv
}

// Property 1: total transition function — every (from, to) pair outside
// the table fails with InvalidStateTransitionError and leaves the
// aggregate unchanged.
func TestTransitionTableIsTotal(t *testing.T) {
	now := time.Now()
	all := []Status{StatusPlanning, StatusIdle, StatusQuestioning, StatusEvaluating, StatusFollowUp, StatusComplete, StatusCancelled}

	for _, from := range all {
		for _, to := range all {
			allowed := canTransition(from, to)
			iv := &Interview{Status: from, UpdatedAt: now}
			before := *iv

			err := iv.transition(to, now.Add(time.Second))
			if allowed {
				assert.NoError(t, err, "expected %s -> %s to be allowed", from, to)
				assert.Equal(t, to, iv.Status)
			} else {
				assert.Error(t, err, "expected %s -> %s to be rejected", from, to)
				var transErr *InvalidStateTransitionError
				assert.ErrorAs(t, err, &transErr)
				assert.Equal(t, before, *iv, "aggregate must be unchanged after a rejected transition")
			}
		}
	}
}

func TestStartRequiresNonEmptyPlan(t *testing.T) {
	now := time.Now()
	iv := newTestInterview()
	require.NoError(t, iv.MarkReady("cv-1", now))

	err := iv.Start(now)
	require.Error(t, err)
	var notReady *NotReadyError
	assert.ErrorAs(t, err, &notReady)
	assert.Equal(t, StatusIdle, iv.Status)
}

// Property 2: follow-up cap — after the third successful ask_followup
// for the same parent, a fourth raises MaxFollowupsExceededError, and
// the counter never exceeds 3.
func TestFollowupCapEnforced(t *testing.T) {
	now := time.Now()
	iv := readyInterview(t, "q1")
	require.NoError(t, iv.BeginEvaluation(now))

	for i := 1; i <= 3; i++ {
		require.NoError(t, iv.AskFollowup("fu-"+string(rune('0'+i)), "q1", now))
		assert.Equal(t, i, iv.CurrentFollowupCount)
		require.NoError(t, iv.AnswerFollowup(now))
	}

	err := iv.AskFollowup("fu-4", "q1", now)
	require.Error(t, err)
	var maxErr *MaxFollowupsExceededError
	assert.ErrorAs(t, err, &maxErr)
	assert.Equal(t, 3, iv.CurrentFollowupCount)
	assert.Len(t, iv.FollowUpIDs, 3)
}

func TestFollowupCounterResetsOnNewParent(t *testing.T) {
	now := time.Now()
	iv := readyInterview(t, "q1", "q2")
	require.NoError(t, iv.BeginEvaluation(now))
	require.NoError(t, iv.AskFollowup("fu-1", "q1", now))
	assert.Equal(t, 1, iv.CurrentFollowupCount)
	require.NoError(t, iv.AnswerFollowup(now))

	require.NoError(t, iv.ProceedToNextQuestion(now))
	require.NoError(t, iv.BeginEvaluation(now))
	require.NoError(t, iv.AskFollowup("fu-2", "q2", now))
	assert.Equal(t, 1, iv.CurrentFollowupCount)
	assert.Equal(t, "q2", iv.CurrentParentQuestionID)
}

// Property 3: counter reset — after any successful proceed_to_next_question,
// CurrentParentQuestionID == "" and CurrentFollowupCount == 0.
func TestProceedResetsFollowupState(t *testing.T) {
	now := time.Now()
	iv := readyInterview(t, "q1", "q2")
	require.NoError(t, iv.BeginEvaluation(now))
	require.NoError(t, iv.AskFollowup("fu-1", "q1", now))
	require.NoError(t, iv.AnswerFollowup(now))

	require.NoError(t, iv.ProceedToNextQuestion(now))
	assert.Equal(t, "", iv.CurrentParentQuestionID)
	assert.Equal(t, 0, iv.CurrentFollowupCount)
	assert.Equal(t, StatusQuestioning, iv.Status)
	assert.Equal(t, 1, iv.CurrentIndex)
}

func TestProceedToLastQuestionCompletes(t *testing.T) {
	now := time.Now()
	iv := readyInterview(t, "q1")
	require.NoError(t, iv.BeginEvaluation(now))

	require.NoError(t, iv.ProceedToNextQuestion(now))
	assert.Equal(t, StatusComplete, iv.Status)
	assert.NotNil(t, iv.CompletedAt)
	assert.False(t, iv.HasMoreQuestions())
}

func TestCancelFromAnyNonTerminalState(t *testing.T) {
	now := time.Now()
	for _, status := range []Status{StatusPlanning, StatusIdle, StatusQuestioning, StatusEvaluating, StatusFollowUp} {
		iv := &Interview{Status: status}
		require.NoError(t, iv.Cancel(now))
		assert.Equal(t, StatusCancelled, iv.Status)
	}

	for _, status := range []Status{StatusComplete, StatusCancelled} {
		iv := &Interview{Status: status}
		err := iv.Cancel(now)
		assert.Error(t, err)
	}
}

func TestVoiceMetricsOverallScore(t *testing.T) {
	vm := VoiceMetrics{IntonationScore: 0.8, FluencyScore: 0.6, ConfidenceScore: 1.0}
	assert.InDelta(t, 80.0, vm.OverallVoiceScore(), 1e-9)
}
