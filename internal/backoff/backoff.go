// Package backoff runs operations under a bounded exponential retry policy.
package backoff

import (
	"context"
	"time"

	"bed_temperature/internal/logger"

	"github.com/codeGROOVE-dev/retry"
)

// Policy configures retries. The delay doubles after every failed attempt.
type Policy struct {
	Attempts uint
	Delay    time.Duration
}

// DefaultPolicy waits 1s then 2s between three attempts (about 3s of waiting
// plus call time).
var DefaultPolicy = Policy{Attempts: 3, Delay: time.Second}

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	return retry.Unrecoverable(err)
}

// Do calls fn until it succeeds, returns a Permanent error, the attempts are
// used up or ctx is done. The last error is returned.
func (p Policy) Do(ctx context.Context, log *logger.Logger, op string, fn func() error) error {
	attempts := p.Attempts
	if attempts == 0 {
		attempts = 1
	}
	return retry.Do(
		fn,
		retry.Attempts(attempts),
		retry.Delay(p.Delay),
		retry.DelayType(retry.BackOffDelay),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			if log != nil {
				log.Warnw("retrying_call", "op", op, "attempt", n+1, "err", err)
			}
		}),
	)
}
