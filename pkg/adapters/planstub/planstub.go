// Package planstub is an in-memory ports.QuestionPlanPort used when
// config's providers.use_mock_adapters is set, or in tests that do not
// need a real upstream question-planning collaborator (spec §1 treats
// planning as out of core scope).
package planstub

import (
	"context"
	"fmt"
	"sync"

	"github.com/candidflow/interviewer/pkg/ports"
)

// Stub serves a fixed, in-memory plan keyed by interview id.
type Stub struct {
	mu    sync.RWMutex
	plans map[string][]*ports.PlannedQuestion
}

// New constructs an empty Stub; use Seed to register a plan.
func New() *Stub {
	return &Stub{plans: map[string][]*ports.PlannedQuestion{}}
}

// Seed registers the ordered list of main questions for an interview.
func (s *Stub) Seed(interviewID string, questions []*ports.PlannedQuestion) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plans[interviewID] = questions
}

// MainQuestion returns the planned question at index for interviewID.
func (s *Stub) MainQuestion(ctx context.Context, interviewID string, index int) (*ports.PlannedQuestion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	plan, ok := s.plans[interviewID]
	if !ok {
		return nil, fmt.Errorf("planstub: no plan seeded for interview %s", interviewID)
	}
	if index < 0 || index >= len(plan) {
		return nil, fmt.Errorf("planstub: index %d out of range for interview %s (len %d)", index, interviewID, len(plan))
	}
	return plan[index], nil
}
