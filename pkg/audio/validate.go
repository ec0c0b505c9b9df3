// Package audio validates and measures the raw audio bytes carried in
// audio_chunk frames, independent of whichever STT provider eventually
// transcribes them (spec §6.1, §6.3). WAV is decoded directly with
// go-audio/wav to read its PCM header; webm/mp3 chunks are only
// size/format checked here, decoding is left to the STT provider.
package audio

import (
	"bytes"
	"fmt"

	"github.com/go-audio/wav"
)

// MinSampleRate is the sample rate floor for WAV input (spec §6.3's
// "16 kHz mono" baseline).
const MinSampleRate = 16000

// RequiredNumChannels is the only channel count WAV input may carry
// (spec §6.3's "16 kHz mono" baseline).
const RequiredNumChannels = 1

// MaxChunkBytes bounds a single audio_chunk payload to guard against a
// misbehaving client flooding one connection (spec §9).
const MaxChunkBytes = 2 << 20 // 2 MiB

// Info is the measured shape of one decoded WAV clip.
type Info struct {
	SampleRate   int
	NumChannels  int
	BitDepth     int
	DurationSecs float64
}

// ValidateWAV decodes a WAV byte slice far enough to read its header
// and sanity-check it, returning the clip's measured Info.
func ValidateWAV(data []byte) (*Info, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("audio: empty WAV payload")
	}
	if len(data) > MaxChunkBytes {
		return nil, fmt.Errorf("audio: chunk exceeds %d bytes", MaxChunkBytes)
	}

	decoder := wav.NewDecoder(bytes.NewReader(data))
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("audio: not a valid WAV file")
	}
	decoder.ReadInfo()
	if decoder.Err() != nil {
		return nil, fmt.Errorf("audio: read WAV header: %w", decoder.Err())
	}

	sampleRate := int(decoder.SampleRate)
	if sampleRate < MinSampleRate {
		return nil, fmt.Errorf("audio: sample rate %d below minimum %d", sampleRate, MinSampleRate)
	}

	numChannels := int(decoder.NumChans)
	if numChannels != RequiredNumChannels {
		return nil, fmt.Errorf("audio: %d channels, expected mono (%d)", numChannels, RequiredNumChannels)
	}

	duration, err := decoder.Duration()
	if err != nil {
		return nil, fmt.Errorf("audio: compute duration: %w", err)
	}

	return &Info{
		SampleRate:   sampleRate,
		NumChannels:  int(decoder.NumChans),
		BitDepth:     int(decoder.BitDepth),
		DurationSecs: duration.Seconds(),
	}, nil
}

// ValidateChunkSize rejects oversized chunks for any format, ahead of
// format-specific decoding.
func ValidateChunkSize(data []byte) error {
	if len(data) > MaxChunkBytes {
		return fmt.Errorf("audio: chunk exceeds %d bytes", MaxChunkBytes)
	}
	return nil
}
