package protocol

import (
	"context"
	"errors"

	"github.com/candidflow/interviewer/pkg/interview"
	"github.com/candidflow/interviewer/pkg/ports"
)

// Error codes carried on outbound error frames (spec §2's
// WebSocketErrorCode-equivalent set, §7).
const (
	CodeInvalidState            = "INVALID_STATE"
	CodeMaxFollowupsExceeded    = "MAX_FOLLOWUPS_EXCEEDED"
	CodeValidationError         = "VALIDATION_ERROR"
	CodeAudioFormatUnsupported  = "AUDIO_FORMAT_UNSUPPORTED"
	CodeSTTFailed               = "STT_FAILED"
	CodeTTSFailed               = "TTS_FAILED"
	CodeInternalError           = "INTERNAL_ERROR"
	CodeTimeout                 = "TIMEOUT"
)

// FallbackTextMode is the only fallback_option value this system emits
// (spec §7): offered when STT/TTS fail so the client can continue the
// interview over text.
const FallbackTextMode = "text_mode"

// MapError translates a domain/adapter error into the outbound error
// frame payload, matching the dispatch-by-errors.As/Is shape of the
// teacher's mapServiceError. adapterHint identifies which external
// call failed ("stt", "tts", "llm", "vector", ""), used to choose
// between STT_FAILED/TTS_FAILED/INTERNAL_ERROR for transient/permanent
// failures.
func MapError(err error, adapterHint string) ErrorFrame {
	var transErr *interview.InvalidStateTransitionError
	if errors.As(err, &transErr) {
		return ErrorFrame{Code: CodeInvalidState, Message: err.Error(), Recoverable: true, RetryAvailable: false}
	}

	var maxErr *interview.MaxFollowupsExceededError
	if errors.As(err, &maxErr) {
		return ErrorFrame{Code: CodeMaxFollowupsExceeded, Message: err.Error(), Recoverable: true, RetryAvailable: false}
	}

	var valErr *ValidationError
	if errors.As(err, &valErr) {
		return ErrorFrame{Code: CodeValidationError, Message: err.Error(), Recoverable: false, RetryAvailable: false}
	}

	var audioErr *AudioFormatUnsupportedError
	if errors.As(err, &audioErr) {
		return ErrorFrame{Code: CodeAudioFormatUnsupported, Message: err.Error(), Recoverable: false, RetryAvailable: false}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorFrame{Code: CodeTimeout, Message: "turn deadline exceeded", Recoverable: true, RetryAvailable: true}
	}

	var transient *ports.TransientError
	if errors.As(err, &transient) {
		return transientFrame(adapterHint, err.Error())
	}

	var permanent *ports.PermanentError
	if errors.As(err, &permanent) {
		frame := ErrorFrame{Code: CodeInternalError, Message: err.Error(), Recoverable: false, RetryAvailable: false}
		if adapterHint == "stt" || adapterHint == "tts" {
			frame.FallbackOption = FallbackTextMode
		}
		return frame
	}

	return ErrorFrame{Code: CodeInternalError, Message: "internal error", Recoverable: true, RetryAvailable: true}
}

func transientFrame(adapterHint, message string) ErrorFrame {
	switch adapterHint {
	case "stt":
		return ErrorFrame{Code: CodeSTTFailed, Message: message, Recoverable: true, RetryAvailable: true, FallbackOption: FallbackTextMode}
	case "tts":
		return ErrorFrame{Code: CodeTTSFailed, Message: message, Recoverable: true, RetryAvailable: true, FallbackOption: FallbackTextMode}
	default:
		return ErrorFrame{Code: CodeInternalError, Message: message, Recoverable: true, RetryAvailable: true}
	}
}
