package openai

import (
	"context"
	"fmt"
	"io"

	"github.com/candidflow/interviewer/pkg/adapters"
	"github.com/candidflow/interviewer/pkg/ports"
	"github.com/openai/openai-go"
)

// availableVoices lists the OpenAI TTS voices; the API does not expose
// a discovery endpoint for these, so the fixed catalog from the docs
// is returned directly.
var availableVoices = []string{"alloy", "echo", "fable", "onyx", "nova", "shimmer"}

// SynthesizeSpeech renders text to speech at the requested voice/speed.
// speed must be in [0.5, 2.0] per ports.TTSPort's contract.
func (c *Client) SynthesizeSpeech(ctx context.Context, text string, voice string, speed float64) ([]byte, error) {
	if voice == "" {
		voice = c.voice
	}

	params := openai.AudioSpeechNewParams{
		Model: openai.SpeechModelTTS1,
		Input: text,
		Voice: openai.AudioSpeechNewParamsVoice(voice),
		Speed: openai.Float(speed),
	}

	var audio []byte
	err := adapters.WithRetry(ctx, func() error {
		resp, err := c.sdk.Audio.Speech.New(ctx, params)
		if err != nil {
			return classifyError("openai", err)
		}
		defer resp.Body.Close()
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return &ports.PermanentError{Adapter: "openai", Err: fmt.Errorf("read speech body: %w", err)}
		}
		audio = data
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("openai: synthesize speech: %w", err)
	}
	return audio, nil
}

// AvailableVoices returns the fixed OpenAI TTS voice catalog.
func (c *Client) AvailableVoices(ctx context.Context) ([]string, error) {
	return availableVoices, nil
}
