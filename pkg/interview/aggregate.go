package interview

import "time"

// Interview is the aggregate root. All state changes go through its
// methods; no other package may assign a new Status or mutate its
// follow-up bookkeeping directly. The orchestrator re-loads an Interview
// from storage at the start of every turn and never caches it across a
// suspension point.
type Interview struct {
	ID          string
	CandidateID string

	// Plan is the ordered list of main question ids produced upstream.
	Plan         []string
	CurrentIndex int

	// FollowUpIDs is the full ordered list of follow-up questions asked
	// so far, across the whole interview (not just the current parent).
	FollowUpIDs []string

	// CurrentParentQuestionID is non-empty iff at least one follow-up has
	// been asked for the current main question and it has not yet been
	// advanced past.
	CurrentParentQuestionID string
	CurrentFollowupCount    int

	Status Status

	// PlanMetadata is a free-form map used by upstream planning and by
	// the completion summary (under the "completion_summary" key).
	PlanMetadata map[string]any

	CreatedAt   time.Time
	UpdatedAt   time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
}

// New constructs an Interview in PLANNING, mirroring how the upstream
// CV/question-planning collaborator creates it before the core ever
// sees it.
func New(id, candidateID string, now time.Time) *Interview {
	return &Interview{
		ID:           id,
		CandidateID:  candidateID,
		Status:       StatusPlanning,
		PlanMetadata: map[string]any{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// transition moves the aggregate to `to`, failing if the pair is not in
// the transitions table. On failure the aggregate is left bitwise
// unchanged.
func (iv *Interview) transition(to Status, now time.Time) error {
	if !canTransition(iv.Status, to) {
		return &InvalidStateTransitionError{From: iv.Status, To: to}
	}
	iv.Status = to
	iv.UpdatedAt = now
	return nil
}

// MarkReady moves PLANNING -> IDLE once a plan with ideal answers
// exists upstream. cvAnalysisID is recorded in plan metadata for audit.
func (iv *Interview) MarkReady(cvAnalysisID string, now time.Time) error {
	if err := iv.transition(StatusIdle, now); err != nil {
		return err
	}
	iv.PlanMetadata["cv_analysis_id"] = cvAnalysisID
	return nil
}

// Start requires IDLE and a non-empty plan; transitions to QUESTIONING
// and records StartedAt.
func (iv *Interview) Start(now time.Time) error {
	if iv.Status != StatusIdle {
		return &InvalidStateTransitionError{From: iv.Status, To: StatusQuestioning}
	}
	if len(iv.Plan) == 0 {
		return &NotReadyError{Reason: "plan is empty"}
	}
	if err := iv.transition(StatusQuestioning, now); err != nil {
		return err
	}
	startedAt := now
	iv.StartedAt = &startedAt
	return nil
}

// BeginEvaluation requires QUESTIONING or FOLLOW_UP; used when an
// answer arrives for the current question.
func (iv *Interview) BeginEvaluation(now time.Time) error {
	if iv.Status != StatusQuestioning && iv.Status != StatusFollowUp {
		return &InvalidStateTransitionError{From: iv.Status, To: StatusEvaluating}
	}
	return iv.transition(StatusEvaluating, now)
}

// AskFollowup requires EVALUATING. If parentQuestionID differs from the
// current parent, the counter resets to 1 and the parent changes;
// otherwise the counter increments, failing with MaxFollowupsExceededError
// once it would exceed 3 (the domain-hard cap, never raised by config).
func (iv *Interview) AskFollowup(followupID, parentQuestionID string, now time.Time) error {
	if iv.Status != StatusEvaluating {
		return &InvalidStateTransitionError{From: iv.Status, To: StatusFollowUp}
	}

	if iv.CurrentParentQuestionID != parentQuestionID {
		iv.CurrentParentQuestionID = parentQuestionID
		iv.CurrentFollowupCount = 1
	} else if iv.CurrentFollowupCount < 3 {
		iv.CurrentFollowupCount++
	} else {
		return &MaxFollowupsExceededError{ParentQuestionID: parentQuestionID, Count: iv.CurrentFollowupCount}
	}

	iv.FollowUpIDs = append(iv.FollowUpIDs, followupID)
	return iv.transition(StatusFollowUp, now)
}

// AnswerFollowup requires FOLLOW_UP; transitions to EVALUATING.
func (iv *Interview) AnswerFollowup(now time.Time) error {
	if iv.Status != StatusFollowUp {
		return &InvalidStateTransitionError{From: iv.Status, To: StatusEvaluating}
	}
	return iv.transition(StatusEvaluating, now)
}

// ProceedToNextQuestion requires EVALUATING. It resets the follow-up
// bookkeeping and advances the plan index. If more main questions
// remain it moves to QUESTIONING; otherwise it moves to COMPLETE and
// stamps CompletedAt. This same operation is also how the completion
// engine (C6) finalises the interview, once its summary has already
// been written into plan metadata.
func (iv *Interview) ProceedToNextQuestion(now time.Time) error {
	if iv.Status != StatusEvaluating {
		return &InvalidStateTransitionError{From: iv.Status, To: StatusQuestioning}
	}

	iv.CurrentParentQuestionID = ""
	iv.CurrentFollowupCount = 0
	iv.CurrentIndex++

	if iv.HasMoreQuestions() {
		return iv.transition(StatusQuestioning, now)
	}

	if err := iv.transition(StatusComplete, now); err != nil {
		return err
	}
	completedAt := now
	iv.CompletedAt = &completedAt
	return nil
}

// Cancel is allowed from any non-terminal state.
func (iv *Interview) Cancel(now time.Time) error {
	if iv.Status.terminal() {
		return &InvalidStateTransitionError{From: iv.Status, To: StatusCancelled}
	}
	return iv.transition(StatusCancelled, now)
}

// CurrentMainQuestionID returns the plan id at CurrentIndex, or "" if
// the plan is exhausted.
func (iv *Interview) CurrentMainQuestionID() string {
	if !iv.HasMoreQuestions() {
		return ""
	}
	return iv.Plan[iv.CurrentIndex]
}

// HasMoreQuestions reports whether the plan index still points at a
// real question.
func (iv *Interview) HasMoreQuestions() bool {
	return iv.CurrentIndex < len(iv.Plan)
}

// WillCompleteOnProceed reports whether the next ProceedToNextQuestion
// call will move the interview to COMPLETE rather than QUESTIONING,
// i.e. the current question is the last one in the plan. Callers use
// this to decide whether to run the completion engine before opening
// the persistence transaction for this turn (spec §4.6, §4.7).
func (iv *Interview) WillCompleteOnProceed() bool {
	return iv.CurrentIndex+1 >= len(iv.Plan)
}

// CanAskMoreFollowups reports whether another follow-up may be asked
// for the current parent question under the domain-hard per-question cap.
func (iv *Interview) CanAskMoreFollowups() bool {
	return iv.CurrentFollowupCount < 3
}

// CompletionSummaryValue returns the persisted summary from plan metadata,
// or nil if none has been written yet (i.e. status != COMPLETE, or a
// COMPLETE aggregate that violates the completion-completeness
// invariant — which callers should treat as a bug per spec §6.2).
func (iv *Interview) CompletionSummaryValue() (*CompletionSummary, bool) {
	raw, ok := iv.PlanMetadata["completion_summary"]
	if !ok {
		return nil, false
	}
	summary, ok := raw.(*CompletionSummary)
	return summary, ok
}
