package device

import (
	"context"
	"errors"
	"testing"
	"time"

	"bed_temperature/internal/backoff"
	"bed_temperature/internal/logger"
	"bed_temperature/internal/models"
)

type flakyController struct {
	failures int
	err      error
	calls    map[string]int
	status   models.HeatingStatus
}

func (f *flakyController) step(op string) error {
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[op]++
	if f.calls[op] <= f.failures {
		return f.err
	}
	return nil
}

func (f *flakyController) HeatingStatus(ctx context.Context, c models.Credentials) (models.HeatingStatus, error) {
	if err := f.step("status"); err != nil {
		return models.HeatingStatus{}, err
	}
	return f.status, nil
}
func (f *flakyController) TurnOn(ctx context.Context, c models.Credentials) error  { return f.step("on") }
func (f *flakyController) TurnOff(ctx context.Context, c models.Credentials) error { return f.step("off") }
func (f *flakyController) SetLevel(ctx context.Context, c models.Credentials, level int) error {
	return f.step("level")
}

var fastPolicy = backoff.Policy{Attempts: 3, Delay: time.Millisecond}

func TestRetrying_RetriesEveryOperation(t *testing.T) {
	inner := &flakyController{failures: 2, err: errors.New("503"), status: models.HeatingStatus{IsHeating: true, HeatingLevel: 7}}
	r := NewRetrying(inner, fastPolicy, nil, logger.Nop())
	ctx := context.Background()

	st, err := r.HeatingStatus(ctx, models.Credentials{})
	if err != nil || st.HeatingLevel != 7 {
		t.Fatalf("HeatingStatus = %+v, %v", st, err)
	}
	if err := r.TurnOn(ctx, models.Credentials{}); err != nil {
		t.Fatalf("TurnOn: %v", err)
	}
	if err := r.TurnOff(ctx, models.Credentials{}); err != nil {
		t.Fatalf("TurnOff: %v", err)
	}
	if err := r.SetLevel(ctx, models.Credentials{}, 10); err != nil {
		t.Fatalf("SetLevel: %v", err)
	}
	for _, op := range []string{"status", "on", "off", "level"} {
		if inner.calls[op] != 3 {
			t.Errorf("%s calls = %d, want 3", op, inner.calls[op])
		}
	}
}

func TestRetrying_GivesUpAfterPolicy(t *testing.T) {
	boom := errors.New("boom")
	inner := &flakyController{failures: 10, err: boom}
	r := NewRetrying(inner, fastPolicy, nil, logger.Nop())
	if err := r.TurnOn(context.Background(), models.Credentials{}); !errors.Is(err, boom) {
		t.Fatalf("got %v, want boom", err)
	}
	if inner.calls["on"] != 3 {
		t.Fatalf("calls = %d, want 3", inner.calls["on"])
	}
}

func TestRetrying_PermanentErrorNotRetried(t *testing.T) {
	denied := errors.New("401")
	inner := &flakyController{failures: 10, err: denied}
	r := NewRetrying(inner, fastPolicy, func(err error) bool { return errors.Is(err, denied) }, logger.Nop())
	if err := r.SetLevel(context.Background(), models.Credentials{}, 1); !errors.Is(err, denied) {
		t.Fatalf("got %v, want denied", err)
	}
	if inner.calls["level"] != 1 {
		t.Fatalf("calls = %d, want 1", inner.calls["level"])
	}
}

func TestDryRun_NeutralStatusAndNoErrors(t *testing.T) {
	d := NewDryRun(logger.Nop())
	ctx := context.Background()
	st, err := d.HeatingStatus(ctx, models.Credentials{})
	if err != nil || st.IsHeating || st.HeatingLevel != 0 {
		t.Fatalf("status = %+v, %v", st, err)
	}
	if d.TurnOn(ctx, models.Credentials{}) != nil || d.TurnOff(ctx, models.Credentials{}) != nil || d.SetLevel(ctx, models.Credentials{}, 5) != nil {
		t.Fatalf("dry run must not fail")
	}
}
