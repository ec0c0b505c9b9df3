// Package orchestrator implements the per-connection session driver
// (C3): it sequences start_session/text_answer/audio_chunk/
// get_next_question/request_retry/cancel into aggregate transitions,
// pipeline runs, follow-up decisions, and completion, and renders the
// result as outbound protocol frames. One Orchestrator is constructed
// per WebSocket connection; it caches nothing across turns except the
// interview id (audio chunk tracking lives in pkg/session), and always
// reloads the aggregate from storage at the start of a turn (spec §5,
// §9: "no in-memory aggregate cache across turns").
package orchestrator

import (
	"context"
	"encoding/base64"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/candidflow/interviewer/pkg/completion"
	"github.com/candidflow/interviewer/pkg/followup"
	"github.com/candidflow/interviewer/pkg/interview"
	"github.com/candidflow/interviewer/pkg/pipeline"
	"github.com/candidflow/interviewer/pkg/ports"
	"github.com/candidflow/interviewer/pkg/protocol"
)

// Clock is injected so tests can control timestamps; production code
// wires time.Now.
type Clock func() time.Time

// Deps bundles every collaborator an Orchestrator needs. All fields
// are required except TTS (see its comment) and Clock, which New
// defaults to time.Now.
type Deps struct {
	Interviews   ports.InterviewRepository
	Questions    ports.QuestionRepository
	FollowUps    ports.FollowUpRepository
	Answers      ports.AnswerRepository
	Evaluations  ports.EvaluationRepository
	Transactor   ports.Transactor
	Pipeline     *pipeline.Pipeline
	LLM          ports.LLMPort
	TTS          ports.TTSPort // optional: nil disables audio_data on outbound question frames
	Completion   *completion.Engine
	FollowUpCfg  followup.Config
	Clock        Clock
}

// Orchestrator drives a single interview session end to end.
type Orchestrator struct {
	deps        Deps
	interviewID string
}

func New(deps Deps, interviewID string) *Orchestrator {
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	return &Orchestrator{deps: deps, interviewID: interviewID}
}

func (o *Orchestrator) now() time.Time { return o.deps.Clock() }

// StartSession transitions IDLE -> QUESTIONING and returns the first
// question frame.
func (o *Orchestrator) StartSession(ctx context.Context) (*protocol.Frame, error) {
	iv, err := o.deps.Interviews.Get(ctx, nil, o.interviewID)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: load interview: %w", err)
	}
	prevToken := iv.UpdatedAt.UnixNano()

	if err := iv.Start(o.now()); err != nil {
		return nil, err
	}
	if err := o.deps.Interviews.Update(ctx, nil, iv, prevToken); err != nil {
		return nil, fmt.Errorf("orchestrator: persist start: %w", err)
	}

	return o.currentQuestionFrame(ctx, iv)
}

// GetNextQuestion re-renders the question currently in progress,
// without advancing state. Used on reconnect and by clients that
// missed the original question frame.
func (o *Orchestrator) GetNextQuestion(ctx context.Context) (*protocol.Frame, error) {
	iv, err := o.deps.Interviews.Get(ctx, nil, o.interviewID)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: load interview: %w", err)
	}
	return o.currentQuestionFrame(ctx, iv)
}

// Cancel moves the interview to CANCELLED from any non-terminal state.
func (o *Orchestrator) Cancel(ctx context.Context) error {
	iv, err := o.deps.Interviews.Get(ctx, nil, o.interviewID)
	if err != nil {
		return fmt.Errorf("orchestrator: load interview: %w", err)
	}
	prevToken := iv.UpdatedAt.UnixNano()
	if err := iv.Cancel(o.now()); err != nil {
		return err
	}
	return o.deps.Interviews.Update(ctx, nil, iv, prevToken)
}

// RequestRetry replays the side-effecting step named by of against the
// durably persisted aggregate state — never an in-memory cache, per
// spec §4.2's failure policy and §9's note on request_retry. The only
// retryable step today is re-synthesizing the current question's
// audio, so every of value re-renders the current question frame,
// which re-attempts TTS if configured.
func (o *Orchestrator) RequestRetry(ctx context.Context, of string) (*protocol.Frame, error) {
	iv, err := o.deps.Interviews.Get(ctx, nil, o.interviewID)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: load interview: %w", err)
	}
	return o.currentQuestionFrame(ctx, iv)
}

// currentQuestionID returns the id of whichever question is in play:
// the latest follow-up if one is in progress, otherwise the main
// question at the plan cursor.
func currentQuestionID(iv *interview.Interview) string {
	if iv.Status == interview.StatusFollowUp && len(iv.FollowUpIDs) > 0 {
		return iv.FollowUpIDs[len(iv.FollowUpIDs)-1]
	}
	return iv.CurrentMainQuestionID()
}

func (o *Orchestrator) currentQuestionFrame(ctx context.Context, iv *interview.Interview) (*protocol.Frame, error) {
	qid := currentQuestionID(iv)
	if qid == "" {
		return nil, &interview.NotReadyError{Reason: "no current question for status " + string(iv.Status)}
	}

	if iv.Status == interview.StatusFollowUp {
		fus, err := o.deps.FollowUps.FindByParentQuestion(ctx, nil, iv.CurrentParentQuestionID)
		if err != nil {
			return nil, fmt.Errorf("orchestrator: load follow-ups: %w", err)
		}
		for _, fu := range fus {
			if fu.ID == qid {
				payload := protocol.FollowUpQuestionFrame{
					QuestionID:       fu.ID,
					ParentQuestionID: fu.ParentQuestionID,
					Text:             fu.Prompt,
					OrderInSequence:  fu.OrderInSequence,
				}
				o.attachFollowUpAudio(ctx, &payload)
				return &protocol.Frame{Type: protocol.TypeFollowUpQuestion, Data: payload}, nil
			}
		}
		return nil, fmt.Errorf("orchestrator: follow-up %s not found under parent %s", qid, iv.CurrentParentQuestionID)
	}

	q, err := o.deps.Questions.Get(ctx, nil, qid)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: load question: %w", err)
	}
	payload := protocol.QuestionFrame{
		QuestionID: q.ID,
		Text:       q.Prompt,
		Index:      iv.CurrentIndex,
		Total:      len(iv.Plan),
	}
	o.attachQuestionAudio(ctx, q, &payload)
	return &protocol.Frame{Type: protocol.TypeQuestion, Data: payload}, nil
}

func (o *Orchestrator) attachQuestionAudio(ctx context.Context, q *interview.Question, frame *protocol.QuestionFrame) {
	if o.deps.TTS == nil || !q.TTSReady {
		return
	}
	audio, err := o.deps.TTS.SynthesizeSpeech(ctx, q.Prompt, "", 1.0)
	if err != nil {
		return // TTS is best-effort for question playback; text remains authoritative
	}
	frame.AudioData = encodeAudio(audio)
	frame.AudioFormat = "wav"
}

func (o *Orchestrator) attachFollowUpAudio(ctx context.Context, frame *protocol.FollowUpQuestionFrame) {
	if o.deps.TTS == nil {
		return
	}
	audio, err := o.deps.TTS.SynthesizeSpeech(ctx, frame.Text, "", 1.0)
	if err != nil {
		return
	}
	frame.AudioData = encodeAudio(audio)
	frame.AudioFormat = "wav"
}

// AnswerTurn implements spec §4.2/§4.3/§4.4's per-turn sequence for one
// submitted answer (text or fully-assembled audio): begin_evaluation,
// run the pipeline, decide on a follow-up, then either ask it or
// advance/complete the interview. Every persistence step after the
// pipeline runs commits atomically in one transaction (spec §4.7).
func (o *Orchestrator) AnswerTurn(ctx context.Context, in pipeline.Input) ([]*protocol.Frame, error) {
	// The whole turn, including every adapter call and its retries,
	// shares one 30-second budget.
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	iv, err := o.deps.Interviews.Get(ctx, nil, o.interviewID)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: load interview: %w", err)
	}
	prevToken := iv.UpdatedAt.UnixNano()

	parentMainQuestionID := iv.CurrentMainQuestionID()
	wasFollowUp := iv.Status == interview.StatusFollowUp

	// begin_evaluation is persisted as its own write, immediately, per
	// spec §4.2 step 3 — not bundled into the later follow-up/proceed
	// transaction. If the pipeline or the completion-recommendation LLM
	// call fails below (scenario S5), storage must already show
	// EVALUATING rather than the pre-turn status.
	if err := iv.BeginEvaluation(o.now()); err != nil {
		return nil, err
	}
	if err := o.deps.Interviews.Update(ctx, nil, iv, prevToken); err != nil {
		return nil, fmt.Errorf("orchestrator: persist begin_evaluation: %w", err)
	}
	prevToken = iv.UpdatedAt.UnixNano()

	question, idealAnswer, err := o.questionContext(ctx, in.QuestionID, wasFollowUp, parentMainQuestionID)
	if err != nil {
		return nil, err
	}
	in.InterviewID = o.interviewID
	in.QuestionPrompt = question
	in.IdealAnswer = idealAnswer

	result, err := o.deps.Pipeline.Process(ctx, in)
	if err != nil {
		return nil, err
	}

	priorAnswers, err := o.priorAnswersForParent(ctx, parentMainQuestionID, in.QuestionID)
	if err != nil {
		return nil, err
	}
	decision := followup.Decide(o.deps.FollowUpCfg, result.Answer, priorAnswers, len(iv.FollowUpIDs))

	evalFrame := evaluationFrame(result)

	if decision.NeedsFollowup {
		fuPrompt, err := o.deps.LLM.GenerateFollowupQuestion(ctx, question, result.Answer.Transcript, decision.CumulativeGaps, decision.Count+1)
		if err != nil {
			return nil, fmt.Errorf("orchestrator: generate follow-up: %w", err)
		}
		fu := &interview.FollowUpQuestion{
			ID:               uuid.New().String(),
			InterviewID:      o.interviewID,
			ParentQuestionID: parentMainQuestionID,
			Prompt:           fuPrompt,
			OrderInSequence:  decision.Count + 1,
			GeneratingReason: decision.CumulativeGaps,
			CreatedAt:        o.now(),
		}

		tx, err := o.deps.Transactor.BeginTx(ctx)
		if err != nil {
			return nil, fmt.Errorf("orchestrator: begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		if err := o.persistAnswer(ctx, tx, result); err != nil {
			return nil, err
		}
		if err := o.deps.FollowUps.Create(ctx, tx, fu); err != nil {
			return nil, fmt.Errorf("orchestrator: persist follow-up: %w", err)
		}
		if err := iv.AskFollowup(fu.ID, parentMainQuestionID, o.now()); err != nil {
			return nil, err
		}
		if err := o.deps.Interviews.Update(ctx, tx, iv, prevToken); err != nil {
			return nil, fmt.Errorf("orchestrator: persist follow-up transition: %w", err)
		}
		if err := tx.Commit(ctx); err != nil {
			return nil, fmt.Errorf("orchestrator: commit follow-up turn: %w", err)
		}

		fuPayload := protocol.FollowUpQuestionFrame{
			QuestionID:       fu.ID,
			ParentQuestionID: fu.ParentQuestionID,
			Text:             fu.Prompt,
			GeneratedReason:  strings.Join(fu.GeneratingReason, ", "),
			OrderInSequence:  fu.OrderInSequence,
		}
		o.attachFollowUpAudio(ctx, &fuPayload)
		fuFrame := &protocol.Frame{Type: protocol.TypeFollowUpQuestion, Data: fuPayload}
		return []*protocol.Frame{evalFrame, fuFrame}, nil
	}

	// No follow-up: advance the plan. Compute the completion summary
	// (including its LLM call) before opening any transaction so a
	// recommendation failure never leaves a partially-committed state
	// (spec §4.7, scenario S5).
	var summary *interview.CompletionSummary
	willComplete := iv.WillCompleteOnProceed()
	if willComplete {
		summary, err = o.computeCompletionSummary(ctx, iv, result)
		if err != nil {
			return nil, err
		}
	}

	tx, err := o.deps.Transactor.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := o.persistAnswer(ctx, tx, result); err != nil {
		return nil, err
	}
	if err := iv.ProceedToNextQuestion(o.now()); err != nil {
		return nil, err
	}
	if summary != nil {
		iv.PlanMetadata["completion_summary"] = summary
	}
	if err := o.deps.Interviews.Update(ctx, tx, iv, prevToken); err != nil {
		return nil, fmt.Errorf("orchestrator: persist proceed: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("orchestrator: commit proceed: %w", err)
	}

	if summary != nil {
		completeFrame := &protocol.Frame{Type: protocol.TypeInterviewComplete, Data: summary}
		return []*protocol.Frame{evalFrame, completeFrame}, nil
	}

	nextFrame, err := o.currentQuestionFrame(ctx, iv)
	if err != nil {
		return nil, err
	}
	return []*protocol.Frame{evalFrame, nextFrame}, nil
}

func (o *Orchestrator) persistAnswer(ctx context.Context, tx ports.Tx, result *pipeline.Result) error {
	if err := o.deps.Answers.Upsert(ctx, tx, result.Answer); err != nil {
		return fmt.Errorf("orchestrator: persist answer: %w", err)
	}
	if err := o.deps.Evaluations.Create(ctx, tx, result.Evaluation); err != nil {
		return fmt.Errorf("orchestrator: persist evaluation: %w", err)
	}
	return nil
}

func (o *Orchestrator) questionContext(ctx context.Context, questionID string, wasFollowUp bool, parentMainQuestionID string) (prompt, idealAnswer string, err error) {
	if !wasFollowUp {
		q, err := o.deps.Questions.Get(ctx, nil, questionID)
		if err != nil {
			return "", "", fmt.Errorf("orchestrator: load question: %w", err)
		}
		return q.Prompt, q.IdealAnswer, nil
	}

	q, err := o.deps.Questions.Get(ctx, nil, parentMainQuestionID)
	if err != nil {
		return "", "", fmt.Errorf("orchestrator: load parent question: %w", err)
	}
	return q.Prompt, q.IdealAnswer, nil
}

// priorAnswersForParent returns, oldest first, every answer already
// recorded for parentMainQuestionID's question chain (its main answer
// plus any follow-up answers), excluding the question just answered.
func (o *Orchestrator) priorAnswersForParent(ctx context.Context, parentMainQuestionID, justAnsweredQuestionID string) ([]*interview.Answer, error) {
	answers, err := o.deps.Answers.FindByInterview(ctx, nil, o.interviewID)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: load answers: %w", err)
	}
	byQuestion := make(map[string]*interview.Answer, len(answers))
	for _, a := range answers {
		byQuestion[a.QuestionID] = a
	}

	fus, err := o.deps.FollowUps.FindByParentQuestion(ctx, nil, parentMainQuestionID)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: load follow-ups: %w", err)
	}
	sort.Slice(fus, func(i, j int) bool { return fus[i].OrderInSequence < fus[j].OrderInSequence })

	var ordered []*interview.Answer
	if a, ok := byQuestion[parentMainQuestionID]; ok {
		ordered = append(ordered, a)
	}
	for _, fu := range fus {
		if a, ok := byQuestion[fu.ID]; ok {
			ordered = append(ordered, a)
		}
	}

	prior := make([]*interview.Answer, 0, len(ordered))
	for _, a := range ordered {
		if a.QuestionID == justAnsweredQuestionID {
			continue
		}
		prior = append(prior, a)
	}
	return prior, nil
}

func (o *Orchestrator) computeCompletionSummary(ctx context.Context, iv *interview.Interview, latest *pipeline.Result) (*interview.CompletionSummary, error) {
	answers, err := o.deps.Answers.FindByInterview(ctx, nil, o.interviewID)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: load answers for completion: %w", err)
	}
	answers = append(answers, latest.Answer)

	evals, err := o.deps.Evaluations.FindByInterview(ctx, nil, o.interviewID)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: load evaluations for completion: %w", err)
	}
	evalByID := make(map[string]*interview.Evaluation, len(evals)+1)
	for _, e := range evals {
		evalByID[e.ID] = e
	}
	evalByID[latest.Evaluation.ID] = latest.Evaluation

	planPrompts := make(map[string]string, len(iv.Plan))
	for _, qid := range iv.Plan {
		q, err := o.deps.Questions.Get(ctx, nil, qid)
		if err != nil {
			return nil, fmt.Errorf("orchestrator: load question %s: %w", qid, err)
		}
		planPrompts[qid] = q.Prompt
	}

	followUpOrder := make(map[string][]string, len(iv.Plan))
	for _, qid := range iv.Plan {
		fus, err := o.deps.FollowUps.FindByParentQuestion(ctx, nil, qid)
		if err != nil {
			return nil, fmt.Errorf("orchestrator: load follow-ups for %s: %w", qid, err)
		}
		sort.Slice(fus, func(i, j int) bool { return fus[i].OrderInSequence < fus[j].OrderInSequence })
		ids := make([]string, len(fus))
		for i, fu := range fus {
			ids[i] = fu.ID
		}
		followUpOrder[qid] = ids
	}

	grouped := completion.GroupAnswersByParent(iv.Plan, planPrompts, answers, evalByID, followUpOrder)
	return o.deps.Completion.Compute(ctx, iv, grouped)
}

func evaluationFrame(result *pipeline.Result) *protocol.Frame {
	payload := protocol.EvaluationFrame{
		AnswerID:        result.Answer.ID,
		Score:           result.Evaluation.FinalScore,
		Feedback:        result.Evaluation.Reasoning,
		Strengths:       result.Evaluation.Strengths,
		Weaknesses:      result.Evaluation.Weaknesses,
		SimilarityScore: result.Answer.Similarity,
		Gaps: protocol.GapFrame{
			Concepts:  result.Answer.Gaps.Concepts,
			Confirmed: result.Answer.Gaps.Confirmed,
		},
	}
	if result.Evaluation.VoiceMetrics != nil {
		payload.VoiceMetrics = &protocol.VoiceMetricsFrame{
			Intonation:      result.Evaluation.VoiceMetrics.IntonationScore,
			Fluency:         result.Evaluation.VoiceMetrics.FluencyScore,
			Confidence:      result.Evaluation.VoiceMetrics.ConfidenceScore,
			SpeakingRateWPM: result.Evaluation.VoiceMetrics.SpeakingRateWPM,
		}
	}
	return &protocol.Frame{Type: protocol.TypeEvaluation, Data: payload}
}

func encodeAudio(audio []byte) string {
	return base64.StdEncoding.EncodeToString(audio)
}
