// Package adapters holds the shared retry helper used by the
// provider-backed adapters in the anthropic, openai and vector
// subpackages.
package adapters

import (
	"context"
	"errors"
	"time"

	"github.com/candidflow/interviewer/pkg/ports"
	"github.com/cenkalti/backoff/v4"
)

// maxAttempts bounds how many times op ever runs, including its first
// try, matching spec §7's "retries STT/LLM/TTS up to 3 times."
const maxAttempts = 3

// WithRetry retries op while it returns a *ports.TransientError, using
// exponential backoff bounded by ctx's deadline (for pipeline calls, the
// per-adapter timeout from pkg/config's TimeoutsConfig, nested inside the
// turn deadline pkg/orchestrator sets on AnswerTurn) and
// capped at maxAttempts tries. A *ports.PermanentError, or any other
// error, is returned immediately.
func WithRetry(ctx context.Context, op func() error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 200 * time.Millisecond
	bo.MaxInterval = 2 * time.Second
	// WithMaxRetries counts retries after the first attempt, so
	// maxAttempts-1 caps the total number of calls to op at maxAttempts.
	bounded := backoff.WithContext(backoff.WithMaxRetries(bo, maxAttempts-1), ctx)

	return backoff.Retry(func() error {
		err := op()
		if err == nil {
			return nil
		}
		var transient *ports.TransientError
		if errors.As(err, &transient) {
			return err
		}
		return backoff.Permanent(err)
	}, bounded)
}
