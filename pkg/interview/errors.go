package interview

import "fmt"

// InvalidStateTransitionError is returned whenever an operation is
// attempted from a status that does not permit it. Both the attempted
// source and destination are carried so callers can render a precise
// error frame without re-deriving the transition table.
type InvalidStateTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("interview: invalid state transition %s -> %s", e.From, e.To)
}

// MaxFollowupsExceededError is returned by ask_followup once three
// follow-ups have already been asked for the current parent question.
type MaxFollowupsExceededError struct {
	ParentQuestionID string
	Count            int
}

func (e *MaxFollowupsExceededError) Error() string {
	return fmt.Sprintf("interview: max follow-ups (%d) exceeded for question %s", e.Count, e.ParentQuestionID)
}

// NotReadyError is returned when an operation requires preconditions
// (e.g. a non-empty plan) that the aggregate does not currently satisfy.
type NotReadyError struct {
	Reason string
}

func (e *NotReadyError) Error() string {
	return fmt.Sprintf("interview: not ready: %s", e.Reason)
}

// StaleConcurrencyTokenError is returned by repositories implementing
// optimistic concurrency when the aggregate's updated_at token no longer
// matches the row in storage.
type StaleConcurrencyTokenError struct {
	InterviewID string
}

func (e *StaleConcurrencyTokenError) Error() string {
	return fmt.Sprintf("interview: stale concurrency token for interview %s", e.InterviewID)
}
