package device

import (
	"context"

	"bed_temperature/internal/backoff"
	"bed_temperature/internal/logger"
	"bed_temperature/internal/models"
)

// Retrying applies one retry policy to every call of the wrapped Controller.
// Errors for which permanent returns true are not retried.
type Retrying struct {
	next      Controller
	policy    backoff.Policy
	permanent func(error) bool
	log       *logger.Logger
}

func NewRetrying(next Controller, policy backoff.Policy, permanent func(error) bool, log *logger.Logger) *Retrying {
	if permanent == nil {
		permanent = func(error) bool { return false }
	}
	return &Retrying{next: next, policy: policy, permanent: permanent, log: log}
}

var _ Controller = (*Retrying)(nil)

func (r *Retrying) do(ctx context.Context, op string, fn func() error) error {
	return r.policy.Do(ctx, r.log, op, func() error {
		err := fn()
		if err != nil && r.permanent(err) {
			return backoff.Permanent(err)
		}
		return err
	})
}

func (r *Retrying) HeatingStatus(ctx context.Context, creds models.Credentials) (models.HeatingStatus, error) {
	var st models.HeatingStatus
	err := r.do(ctx, "heating_status", func() error {
		var err error
		st, err = r.next.HeatingStatus(ctx, creds)
		return err
	})
	return st, err
}

func (r *Retrying) TurnOn(ctx context.Context, creds models.Credentials) error {
	return r.do(ctx, "turn_on", func() error { return r.next.TurnOn(ctx, creds) })
}

func (r *Retrying) TurnOff(ctx context.Context, creds models.Credentials) error {
	return r.do(ctx, "turn_off", func() error { return r.next.TurnOff(ctx, creds) })
}

func (r *Retrying) SetLevel(ctx context.Context, creds models.Credentials, level int) error {
	return r.do(ctx, "set_level", func() error { return r.next.SetLevel(ctx, creds, level) })
}
