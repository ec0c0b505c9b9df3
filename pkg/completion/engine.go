// Package completion implements the atomic completion/summary engine
// (C6): aggregate metrics, gap progression, LLM recommendations, and
// the single-transaction finalisation into a COMPLETE aggregate
// carrying a non-null CompletionSummary.
package completion

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/candidflow/interviewer/pkg/interview"
	"github.com/candidflow/interviewer/pkg/ports"
)

// DefaultSpeakingAverage is the documented neutral default used when no
// answer in the interview carried voice metrics (spec §4.6 step 4,
// §6.4's speaking_default_when_absent).
const DefaultSpeakingAverage = 50.0

// Config holds the weighting policy (spec §6.4); theoretical+speaking
// must sum to 1.0, enforced by pkg/config's validator before it ever
// reaches this engine.
type Config struct {
	TheoreticalWeight       float64
	SpeakingWeight          float64
	SpeakingDefaultWhenAbsent float64
}

func DefaultConfig() Config {
	return Config{TheoreticalWeight: 0.7, SpeakingWeight: 0.3, SpeakingDefaultWhenAbsent: DefaultSpeakingAverage}
}

// Engine runs the completion sequence described in spec §4.6. It holds
// no per-interview state; Complete is safe to call concurrently for
// different interviews.
type Engine struct {
	llm ports.LLMPort
	cfg Config
}

func New(llm ports.LLMPort, cfg Config) *Engine {
	return &Engine{llm: llm, cfg: cfg}
}

// QuestionAnswers groups one main question's answer (possibly nil if
// never answered — defensive only, the orchestrator always answers the
// current question before advancing) with its ordered follow-up answers.
type QuestionAnswers struct {
	QuestionID    string
	QuestionPrompt string
	MainAnswer    *interview.Answer
	MainEval      *interview.Evaluation
	FollowUps     []FollowUpAnswer
}

// FollowUpAnswer pairs one follow-up's answer and evaluation.
type FollowUpAnswer struct {
	Answer     *interview.Answer
	Evaluation *interview.Evaluation
}

// Compute runs steps 2-6 of spec §4.6 (everything up to, but not
// including, persistence) and returns the assembled summary. The LLM
// recommendation call happens here, outside any repository transaction
// (spec §4.7, §9): callers must persist the result separately, in one
// transaction, via ProceedToNextQuestion.
func (e *Engine) Compute(ctx context.Context, iv *interview.Interview, grouped []QuestionAnswers) (*interview.CompletionSummary, error) {
	theoreticalAvg, speakingAvg, overall := e.aggregateMetrics(grouped)

	questionSummaries := make([]interview.QuestionSummary, 0, len(grouped))
	gapProgression := make([]interview.GapProgressionEntry, 0, len(grouped))
	llmGapInputs := make([]ports.GapProgressionInput, 0, len(grouped))
	llmEvalInputs := make([]ports.EvaluationSummaryInput, 0)
	totalFollowUps := 0

	for _, qa := range grouped {
		finalScore := 0.0
		if qa.MainEval != nil {
			finalScore = qa.MainEval.FinalScore
			llmEvalInputs = append(llmEvalInputs, ports.EvaluationSummaryInput{
				QuestionPrompt: qa.QuestionPrompt,
				FinalScore:     qa.MainEval.FinalScore,
				Strengths:      qa.MainEval.Strengths,
				Weaknesses:     qa.MainEval.Weaknesses,
			})
		}
		for _, fu := range qa.FollowUps {
			if fu.Evaluation != nil {
				finalScore = fu.Evaluation.FinalScore
				llmEvalInputs = append(llmEvalInputs, ports.EvaluationSummaryInput{
					QuestionPrompt: qa.QuestionPrompt,
					FinalScore:     fu.Evaluation.FinalScore,
					Strengths:      fu.Evaluation.Strengths,
					Weaknesses:     fu.Evaluation.Weaknesses,
				})
			}
		}
		totalFollowUps += len(qa.FollowUps)

		initial := confirmedConcepts(qa.MainAnswer)
		final := initial
		if len(qa.FollowUps) > 0 {
			final = confirmedConcepts(qa.FollowUps[len(qa.FollowUps)-1].Answer)
		}
		filled := setDifference(initial, final)

		questionSummaries = append(questionSummaries, interview.QuestionSummary{
			QuestionID:    qa.QuestionID,
			FinalScore:    finalScore,
			FollowupCount: len(qa.FollowUps),
			GapsRemaining: final,
		})
		gapProgression = append(gapProgression, interview.GapProgressionEntry{
			ParentQuestionID: qa.QuestionID,
			Initial:          initial,
			Final:            final,
			Filled:           filled,
			Remaining:        final,
		})
		llmGapInputs = append(llmGapInputs, ports.GapProgressionInput{
			ParentQuestionPrompt: qa.QuestionPrompt,
			Filled:               filled,
			Remaining:            final,
		})
	}

	recommendations, err := e.llm.GenerateInterviewRecommendations(ctx, llmEvalInputs, ports.AggregateMetrics{
		OverallScore:   overall,
		TheoreticalAvg: theoreticalAvg,
		SpeakingAvg:    speakingAvg,
		TotalQuestions: len(grouped),
		TotalFollowUps: totalFollowUps,
	}, llmGapInputs)
	if err != nil {
		return nil, fmt.Errorf("completion: generate recommendations: %w", err)
	}
	if recommendations == nil {
		recommendations = &ports.InterviewRecommendations{}
	}

	return &interview.CompletionSummary{
		OverallScore:         overall,
		TheoreticalAvg:       theoreticalAvg,
		SpeakingAvg:          speakingAvg,
		TotalQuestions:       len(iv.Plan),
		TotalFollowUps:       totalFollowUps,
		QuestionSummaries:    questionSummaries,
		GapProgression:       gapProgression,
		Strengths:            recommendations.Strengths,
		Weaknesses:           recommendations.Weaknesses,
		StudyRecommendations: recommendations.StudyTopics,
		TechniqueTips:        recommendations.TechniqueTips,
		CompletionTime:       time.Now(),
	}, nil
}

// aggregateMetrics implements spec §4.6 step 4.
func (e *Engine) aggregateMetrics(grouped []QuestionAnswers) (theoreticalAvg, speakingAvg, overall float64) {
	var theoSum float64
	var theoCount int
	var voiceSum float64
	var voiceCount int

	visit := func(eval *interview.Evaluation) {
		if eval == nil {
			return
		}
		theoSum += eval.FinalScore
		theoCount++
		if eval.VoiceMetrics != nil {
			voiceSum += eval.VoiceMetrics.OverallVoiceScore()
			voiceCount++
		}
	}

	for _, qa := range grouped {
		visit(qa.MainEval)
		for _, fu := range qa.FollowUps {
			visit(fu.Evaluation)
		}
	}

	if theoCount == 0 {
		return 0, 0, 0
	}

	theoreticalAvg = theoSum / float64(theoCount)
	if voiceCount > 0 {
		speakingAvg = voiceSum / float64(voiceCount)
	} else {
		speakingAvg = e.cfg.SpeakingDefaultWhenAbsent
	}
	overall = e.cfg.TheoreticalWeight*theoreticalAvg + e.cfg.SpeakingWeight*speakingAvg
	return theoreticalAvg, speakingAvg, overall
}

func confirmedConcepts(a *interview.Answer) []string {
	if a == nil || !a.Gaps.Confirmed {
		return nil
	}
	out := append([]string(nil), a.Gaps.Concepts...)
	sort.Strings(out)
	return out
}

// setDifference returns elements of a not present in b.
func setDifference(a, b []string) []string {
	inB := make(map[string]struct{}, len(b))
	for _, v := range b {
		inB[v] = struct{}{}
	}
	var out []string
	for _, v := range a {
		if _, found := inB[v]; !found {
			out = append(out, v)
		}
	}
	return out
}

// GroupAnswersByParent implements spec §4.6 step 3: group a flat
// Answer+Evaluation set by the main question they transitively belong
// to. planOrder is the interview's main-question plan (authoritative
// ordering); planPrompts maps each main question id to its prompt;
// followUpOrder maps a main question id to its follow-up question ids
// in asking order.
func GroupAnswersByParent(
	planOrder []string,
	planPrompts map[string]string,
	answers []*interview.Answer,
	evaluations map[string]*interview.Evaluation,
	followUpOrder map[string][]string, // parentQuestionID -> ordered follow-up question ids
) []QuestionAnswers {
	answerByQuestion := make(map[string]*interview.Answer, len(answers))
	for _, a := range answers {
		answerByQuestion[a.QuestionID] = a
	}

	grouped := make([]QuestionAnswers, 0, len(planOrder))
	for _, qid := range planOrder {
		qa := QuestionAnswers{QuestionID: qid, QuestionPrompt: planPrompts[qid]}
		if main, ok := answerByQuestion[qid]; ok {
			qa.MainAnswer = main
			qa.MainEval = evaluations[main.EvaluationID]
		}
		for _, fuID := range followUpOrder[qid] {
			if fuAnswer, ok := answerByQuestion[fuID]; ok {
				qa.FollowUps = append(qa.FollowUps, FollowUpAnswer{
					Answer:     fuAnswer,
					Evaluation: evaluations[fuAnswer.EvaluationID],
				})
			}
		}
		grouped = append(grouped, qa)
	}
	return grouped
}
