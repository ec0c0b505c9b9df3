package planstub

import (
	"context"
	"testing"

	"github.com/candidflow/interviewer/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedAndMainQuestion(t *testing.T) {
	s := New()
	s.Seed("iv-1", []*ports.PlannedQuestion{
		{ID: "q1", Prompt: "Explain indexing."},
		{ID: "q2", Prompt: "Explain sharding."},
	})

	q, err := s.MainQuestion(context.Background(), "iv-1", 1)
	require.NoError(t, err)
	assert.Equal(t, "q2", q.ID)
}

func TestMainQuestionUnseededInterview(t *testing.T) {
	s := New()
	_, err := s.MainQuestion(context.Background(), "missing", 0)
	assert.Error(t, err)
}

func TestMainQuestionOutOfRange(t *testing.T) {
	s := New()
	s.Seed("iv-1", []*ports.PlannedQuestion{{ID: "q1"}})
	_, err := s.MainQuestion(context.Background(), "iv-1", 5)
	assert.Error(t, err)
}
