// Package pipeline implements the answer processing fan-out (C4): STT
// (if audio), then a concurrent theoretical (LLM + vector similarity)
// channel and speaking channel, joined into one Evaluation.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/candidflow/interviewer/pkg/interview"
	"github.com/candidflow/interviewer/pkg/ports"
)

// Timeouts bundles the per-adapter deadlines from spec §4.3/§5. Values
// of zero disable the corresponding timeout (tests may do this; the
// config loader never produces zero values in pkg/config/defaults.go).
type Timeouts struct {
	STT    time.Duration
	LLM    time.Duration
	Vector time.Duration
}

// Pipeline fans an incoming answer out to the external adapters and
// combines the result into one interview.Evaluation. It holds no
// per-turn state; a single Pipeline is shared by every orchestrator.
type Pipeline struct {
	llm      ports.LLMPort
	stt      ports.STTPort
	vector   ports.VectorPort
	timeouts Timeouts
}

func New(llm ports.LLMPort, stt ports.STTPort, vector ports.VectorPort, timeouts Timeouts) *Pipeline {
	return &Pipeline{llm: llm, stt: stt, vector: vector, timeouts: timeouts}
}

// Input describes one incoming answer. Exactly one of Text or Audio is set.
type Input struct {
	InterviewID string
	QuestionID  string
	Text        string
	Audio       []byte
	AudioFormat string
	Language    string

	QuestionPrompt string
	IdealAnswer    string
}

// Result bundles the Answer and Evaluation the pipeline produced. Both
// share a freshly minted EvaluationID/AnswerID the caller persists
// atomically in one transaction (spec §4.7).
type Result struct {
	Answer     *interview.Answer
	Evaluation *interview.Evaluation
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// Process runs the full C4 sequence: optional STT, then the theoretical
// and speaking channels concurrently, joined before returning. No
// partial Evaluation is ever returned — any channel's failure aborts
// the whole turn (spec §4.3's "fails fast" timeout policy).
func (p *Pipeline) Process(ctx context.Context, in Input) (*Result, error) {
	var voice *interview.VoiceMetrics
	transcript := in.Text

	if in.Audio != nil {
		sttCtx, cancel := withTimeout(ctx, p.timeouts.STT)
		transcription, err := p.stt.TranscribeAudio(sttCtx, in.Audio, in.AudioFormat, in.Language)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("pipeline: transcribe audio: %w", err)
		}
		transcript = transcription.Text
		voice = &interview.VoiceMetrics{
			IntonationScore: clampUnit(transcription.IntonationScore),
			FluencyScore:    clampUnit(transcription.FluencyScore),
			ConfidenceScore: clampUnit(transcription.ConfidenceScore),
			SpeakingRateWPM: transcription.SpeakingRateWPM,
			DurationSeconds: transcription.DurationSeconds,
		}
	}

	theoCh := make(chan theoreticalResult, 1)
	go func() {
		theoCh <- p.runTheoretical(ctx, in.QuestionPrompt, in.IdealAnswer, transcript)
	}()

	// The speaking channel is pure arithmetic over already-measured
	// voice metrics (spec §4.3 step 2); it has no suspension point of
	// its own, but is still dispatched on its own goroutine so a future
	// CPU-heavier scoring model does not serialise behind the LLM call
	// (spec §5's "must run off the main event dispatcher" note).
	speakCh := make(chan *float64, 1)
	go func() {
		speakCh <- speakingScore(voice)
	}()

	theo := <-theoCh
	speaking := <-speakCh

	if theo.err != nil {
		return nil, theo.err
	}

	finalScore := theo.rawScore
	if speaking != nil {
		finalScore = 0.7*theo.rawScore + 0.3*(*speaking)
	}
	finalScore = clampScore(finalScore)

	similarity := theo.similarity
	if similarity == 0 {
		similarity = interview.SimilarityFloor
	}
	similarity = clampUnit(similarity)
	if similarity < interview.SimilarityFloor {
		similarity = interview.SimilarityFloor
	}

	answerID := uuid.New().String()
	evaluationID := uuid.New().String()
	now := time.Now()

	answer := &interview.Answer{
		ID:           answerID,
		InterviewID:  in.InterviewID,
		QuestionID:   in.QuestionID,
		Transcript:   transcript,
		VoiceMetrics: voice,
		Similarity:   similarity,
		Gaps: interview.Gap{
			Concepts:  theo.gapConcepts,
			Confirmed: theo.gapConfirmed,
		},
		EvaluationID: evaluationID,
	}

	evaluation := &interview.Evaluation{
		ID:           evaluationID,
		AnswerID:     answerID,
		QuestionID:   in.QuestionID,
		InterviewID:  in.InterviewID,
		RawScore:     clampScore(theo.rawScore),
		FinalScore:   finalScore,
		Completeness: clampUnit(theo.completeness),
		Relevance:    clampUnit(theo.relevance),
		Sentiment:    theo.sentiment,
		Reasoning:    theo.reasoning,
		Strengths:    theo.strengths,
		Weaknesses:   theo.weaknesses,
		VoiceMetrics: voice,
		CreatedAt:    now,
	}

	return &Result{Answer: answer, Evaluation: evaluation}, nil
}

type theoreticalResult struct {
	rawScore     float64
	completeness float64
	relevance    float64
	sentiment    string
	reasoning    string
	strengths    []string
	weaknesses   []string
	similarity   float64
	gapConcepts  []string
	gapConfirmed bool
	err          error
}

// runTheoretical dispatches the LLM semantic scoring call and the
// independent vector-similarity call concurrently (spec §9 "Similarity
// search and LLM evaluation within the theoretical channel may
// themselves be parallelised").
func (p *Pipeline) runTheoretical(ctx context.Context, questionPrompt, idealAnswer, answerText string) theoreticalResult {
	type llmOut struct {
		eval *ports.LLMEvaluation
		err  error
	}
	llmCh := make(chan llmOut, 1)
	go func() {
		llmCtx, cancel := withTimeout(ctx, p.timeouts.LLM)
		defer cancel()
		eval, err := p.llm.EvaluateAnswer(llmCtx, questionPrompt, idealAnswer, answerText)
		llmCh <- llmOut{eval: eval, err: err}
	}()

	type vecOut struct {
		score float64
		err   error
	}
	vecCh := make(chan vecOut, 1)
	go func() {
		vecCtx, cancel := withTimeout(ctx, p.timeouts.Vector)
		defer cancel()
		score, err := p.vector.CosineSimilarity(vecCtx, idealAnswer, answerText)
		vecCh <- vecOut{score: score, err: err}
	}()

	lo := <-llmCh
	vo := <-vecCh

	if lo.err != nil {
		return theoreticalResult{err: fmt.Errorf("pipeline: evaluate answer: %w", lo.err)}
	}
	if vo.err != nil {
		return theoreticalResult{err: fmt.Errorf("pipeline: cosine similarity: %w", vo.err)}
	}

	return theoreticalResult{
		rawScore:     lo.eval.RawScore,
		completeness: lo.eval.Completeness,
		relevance:    lo.eval.Relevance,
		sentiment:    lo.eval.Sentiment,
		reasoning:    lo.eval.Reasoning,
		strengths:    lo.eval.Strengths,
		weaknesses:   lo.eval.Weaknesses,
		similarity:   vo.score,
		gapConcepts:  lo.eval.GapConcepts,
		gapConfirmed: lo.eval.GapConfirmed,
	}
}

// speakingScore is mean(intonation, fluency, confidence) * 100, or nil
// if no voice metrics were measured (text-only answer).
func speakingScore(voice *interview.VoiceMetrics) *float64 {
	if voice == nil {
		return nil
	}
	score := voice.OverallVoiceScore()
	return &score
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
