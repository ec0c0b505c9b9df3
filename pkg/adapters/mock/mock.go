// Package mock provides deterministic, dependency-free stand-ins for
// ports.LLMPort, ports.STTPort, ports.TTSPort, and ports.VectorPort,
// selected by config's providers.use_mock_adapters for local
// development and demos without provider API keys.
package mock

import (
	"context"
	"strings"

	"github.com/candidflow/interviewer/pkg/ports"
)

// Adapters bundles one deterministic implementation of each external
// port. A single instance satisfies all four interfaces.
type Adapters struct{}

// New constructs the mock adapter bundle.
func New() *Adapters { return &Adapters{} }

// EvaluateAnswer scores an answer by how much of the ideal answer's
// vocabulary it reuses — crude, but deterministic and provider-free.
func (a *Adapters) EvaluateAnswer(ctx context.Context, questionPrompt, idealAnswer, answerText string) (*ports.LLMEvaluation, error) {
	score := overlapScore(idealAnswer, answerText)
	eval := &ports.LLMEvaluation{
		RawScore:     score,
		Completeness: score / 100,
		Relevance:    score / 100,
		Reasoning:    "mock evaluation based on vocabulary overlap",
	}
	if score < 60 {
		eval.GapConcepts = []string{"more detail"}
		eval.GapConfirmed = true
		eval.Weaknesses = []string{"answer is too brief or generic"}
	} else {
		eval.Strengths = []string{"covers the key terms from the ideal answer"}
	}
	return eval, nil
}

// GenerateFollowupQuestion returns a fixed prompt naming the first
// missing concept, if any.
func (a *Adapters) GenerateFollowupQuestion(ctx context.Context, parentQuestionPrompt, answerText string, missingConcepts []string, order int) (string, error) {
	if len(missingConcepts) == 0 {
		return "Can you elaborate further on your previous answer?", nil
	}
	return "Can you say more about " + missingConcepts[0] + "?", nil
}

// GenerateInterviewRecommendations returns a static, non-empty summary.
func (a *Adapters) GenerateInterviewRecommendations(ctx context.Context, evaluations []ports.EvaluationSummaryInput, metrics ports.AggregateMetrics, gapProgression []ports.GapProgressionInput) (*ports.InterviewRecommendations, error) {
	return &ports.InterviewRecommendations{
		Strengths:     []string{"consistent terminology usage across answers"},
		Weaknesses:    []string{"some answers lacked concrete examples"},
		StudyTopics:   []string{"review the concepts flagged in follow-up questions"},
		TechniqueTips: []string{"structure answers as situation, action, result"},
	}, nil
}

// TranscribeAudio treats the audio payload as already being UTF-8 text
// (the mock audio adapters in dev/test send text disguised as audio)
// and reports flat, neutral voice metrics.
func (a *Adapters) TranscribeAudio(ctx context.Context, audio []byte, format string, language string) (*ports.STTTranscription, error) {
	return &ports.STTTranscription{
		Text:            string(audio),
		DurationSeconds: float64(len(audio)) / 160.0,
		IntonationScore: 0.7,
		FluencyScore:    0.7,
		ConfidenceScore: 0.7,
		SpeakingRateWPM: 130,
	}, nil
}

// SynthesizeSpeech returns the requested text as its own "audio" bytes.
func (a *Adapters) SynthesizeSpeech(ctx context.Context, text string, voice string, speed float64) ([]byte, error) {
	return []byte(text), nil
}

// AvailableVoices returns a fixed, small voice list.
func (a *Adapters) AvailableVoices(ctx context.Context) ([]string, error) {
	return []string{"mock-voice-1", "mock-voice-2"}, nil
}

// CosineSimilarity derives a [0,1] score from vocabulary overlap rather
// than a real embedding comparison.
func (a *Adapters) CosineSimilarity(ctx context.Context, reference, candidate string) (float64, error) {
	return overlapScore(reference, candidate) / 100, nil
}

// overlapScore returns the percentage of reference's distinct words
// that also appear in candidate, case-insensitively.
func overlapScore(reference, candidate string) float64 {
	refWords := uniqueWords(reference)
	if len(refWords) == 0 {
		return 50
	}
	candSet := map[string]bool{}
	for _, w := range uniqueWords(candidate) {
		candSet[w] = true
	}
	hits := 0
	for _, w := range refWords {
		if candSet[w] {
			hits++
		}
	}
	return 100 * float64(hits) / float64(len(refWords))
}

func uniqueWords(s string) []string {
	seen := map[string]bool{}
	var out []string
	for _, w := range strings.Fields(strings.ToLower(s)) {
		w = strings.Trim(w, ".,!?;:\"'()")
		if w == "" || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}
