package openai

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/candidflow/interviewer/pkg/adapters"
	"github.com/candidflow/interviewer/pkg/ports"
	"github.com/openai/openai-go"
)

// TranscribeAudio sends raw audio bytes to Whisper and estimates voice
// metrics from the verbose transcription (word timings, no filler
// words measured directly by the API, so fluency/confidence are
// derived heuristically from speaking rate and segment count).
func (c *Client) TranscribeAudio(ctx context.Context, audio []byte, format string, language string) (*ports.STTTranscription, error) {
	params := openai.AudioTranscriptionNewParams{
		Model:          openai.AudioModelWhisper1,
		File:           openai.File(bytes.NewReader(audio), "answer."+format, "audio/"+format),
		ResponseFormat: openai.AudioResponseFormatVerboseJSON,
	}
	if language != "" {
		params.Language = openai.String(language)
	}

	var result *ports.STTTranscription
	err := adapters.WithRetry(ctx, func() error {
		resp, err := c.sdk.Audio.Transcriptions.New(ctx, params)
		if err != nil {
			return classifyError("openai", err)
		}

		words := len(strings.Fields(resp.Text))
		duration := resp.Duration
		rate := 0
		if duration > 0 {
			rate = int(float64(words) / (duration / 60.0))
		}

		result = &ports.STTTranscription{
			Text:            resp.Text,
			DurationSeconds: duration,
			SpeakingRateWPM: rate,
			IntonationScore: deriveIntonationScore(resp.Segments),
			FluencyScore:    deriveFluencyScore(rate),
			ConfidenceScore: deriveConfidenceScore(resp.Segments),
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("openai: transcribe audio: %w", err)
	}
	return result, nil
}

// deriveFluencyScore rewards a natural 110-160 WPM speaking rate.
func deriveFluencyScore(wpm int) float64 {
	const idealLow, idealHigh = 110, 160
	if wpm >= idealLow && wpm <= idealHigh {
		return 1.0
	}
	if wpm <= 0 {
		return 0.3
	}
	distance := idealLow - wpm
	if wpm > idealHigh {
		distance = wpm - idealHigh
	}
	score := 1.0 - float64(distance)/float64(idealLow)
	if score < 0.3 {
		return 0.3
	}
	return score
}

// deriveIntonationScore uses segment count as a rough proxy for
// pitch/phrasing variation: Whisper breaks audio into new segments at
// natural pauses, so more segments suggests varied phrasing rather than
// a flat monotone read-through. The count is not normalised by text
// length.
func deriveIntonationScore(segments []openai.TranscriptionSegment) float64 {
	if len(segments) == 0 {
		return 0.5
	}
	if len(segments) >= 3 {
		return 0.9
	}
	return 0.6
}

// deriveConfidenceScore averages Whisper's per-segment avg_logprob,
// mapped from its typical [-1, 0] range into [0, 1].
func deriveConfidenceScore(segments []openai.TranscriptionSegment) float64 {
	if len(segments) == 0 {
		return 0.5
	}
	var sum float64
	for _, s := range segments {
		sum += s.AvgLogprob
	}
	avg := sum / float64(len(segments))
	score := 1.0 + avg
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
