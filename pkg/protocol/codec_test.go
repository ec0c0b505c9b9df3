package protocol

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/candidflow/interviewer/pkg/interview"
	"github.com/candidflow/interviewer/pkg/ports"
)

func TestDecodeInboundUnknownType(t *testing.T) {
	_, _, err := DecodeInbound([]byte(`{"type":"bogus"}`))
	require.Error(t, err)
	var valErr *ValidationError
	assert.ErrorAs(t, err, &valErr)
}

func TestDecodeInboundMalformedJSON(t *testing.T) {
	_, _, err := DecodeInbound([]byte(`not json`))
	require.Error(t, err)
}

func TestDecodeTextAnswerRequiresQuestionID(t *testing.T) {
	_, err := DecodeTextAnswer([]byte(`{"type":"text_answer","answer_text":"hi"}`))
	require.Error(t, err)
}

func TestDecodeTextAnswerOK(t *testing.T) {
	p, err := DecodeTextAnswer([]byte(`{"type":"text_answer","question_id":"q1","answer_text":"hi"}`))
	require.NoError(t, err)
	assert.Equal(t, "q1", p.QuestionID)
	assert.Equal(t, "hi", p.AnswerText)
}

func TestAudioChunkTrackerRejectsUnsupportedFormat(t *testing.T) {
	tr := NewAudioChunkTracker()
	_, err := tr.DecodeAudioChunk([]byte(`{"question_id":"q1","chunk_index":0,"format":"flac"}`))
	require.Error(t, err)
	var fmtErr *AudioFormatUnsupportedError
	assert.ErrorAs(t, err, &fmtErr)
}

func TestAudioChunkTrackerRequiresMonotonicIndex(t *testing.T) {
	tr := NewAudioChunkTracker()
	_, err := tr.DecodeAudioChunk([]byte(`{"question_id":"q1","chunk_index":0,"format":"wav"}`))
	require.NoError(t, err)

	_, err = tr.DecodeAudioChunk([]byte(`{"question_id":"q1","chunk_index":0,"format":"wav"}`))
	require.Error(t, err)
	var fmtErr *AudioFormatUnsupportedError
	assert.ErrorAs(t, err, &fmtErr)

	_, err = tr.DecodeAudioChunk([]byte(`{"question_id":"q1","chunk_index":2,"format":"wav"}`))
	require.NoError(t, err) // gaps are fine, only non-monotonic/duplicate is rejected

	_, err = tr.DecodeAudioChunk([]byte(`{"question_id":"q1","chunk_index":1,"format":"wav"}`))
	require.Error(t, err)
}

func TestAudioChunkTrackerDecodesBase64(t *testing.T) {
	tr := NewAudioChunkTracker()
	encoded := base64.StdEncoding.EncodeToString([]byte("pcm-bytes"))
	payload := `{"question_id":"q1","chunk_index":0,"format":"wav","audio_data":"` + encoded + `"}`

	p, err := tr.DecodeAudioChunk([]byte(payload))
	require.NoError(t, err)
	assert.Equal(t, []byte("pcm-bytes"), p.Audio)
}

func TestMapErrorInvalidState(t *testing.T) {
	err := &interview.InvalidStateTransitionError{From: interview.StatusIdle, To: interview.StatusEvaluating}
	frame := MapError(err, "")
	assert.Equal(t, CodeInvalidState, frame.Code)
	assert.True(t, frame.Recoverable)
	assert.False(t, frame.RetryAvailable)
}

func TestMapErrorSTTTransientHasFallback(t *testing.T) {
	err := &ports.TransientError{Adapter: "stt", Err: errors.New("timeout")}
	frame := MapError(err, "stt")
	assert.Equal(t, CodeSTTFailed, frame.Code)
	assert.True(t, frame.RetryAvailable)
	assert.Equal(t, FallbackTextMode, frame.FallbackOption)
}

func TestMapErrorContextDeadlineIsTimeout(t *testing.T) {
	frame := MapError(context.DeadlineExceeded, "")
	assert.Equal(t, CodeTimeout, frame.Code)
	assert.True(t, frame.RetryAvailable)
}

func TestMapErrorUnknownIsInternal(t *testing.T) {
	frame := MapError(errors.New("mystery"), "")
	assert.Equal(t, CodeInternalError, frame.Code)
}
