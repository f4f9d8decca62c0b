package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bed_temperature/internal/device"
	"bed_temperature/internal/logger"
	"bed_temperature/internal/models"
	"bed_temperature/internal/repository"
	"bed_temperature/internal/sleepcycle"
)

// ErrProfileLoad fails a whole pass: without the enrolled users there is nothing to do.
var ErrProfileLoad = errors.New("load temperature profiles")

// Reconciler runs the per-user loop: refresh credentials, read the device,
// decide and act.
type Reconciler struct {
	users    repository.UserRepo
	profiles repository.ProfileRepo
	events   repository.EventRepo
	creds    *credentialKeeper
	live     device.Controller
	dry      device.Controller
	log      *logger.Logger
	now      func() time.Time
}

func NewReconciler(repos *repository.Repository, creds *credentialKeeper, live, dry device.Controller, log *logger.Logger) *Reconciler {
	if log == nil {
		log = logger.Nop()
	}
	return &Reconciler{
		users:    repos.UserRepo,
		profiles: repos.ProfileRepo,
		events:   repos.EventRepo,
		creds:    creds,
		live:     live,
		dry:      dry,
		log:      log,
		now:      time.Now,
	}
}

// Run reconciles every enrolled user in turn. Per-user failures are logged
// and reported, never returned; only failing to list users fails the pass.
// Canceling ctx does not end the pass early; every enrolled user gets a report.
func (r *Reconciler) Run(ctx context.Context, opts RunOptions) (RunReport, error) {
	now := r.now().UTC()
	if opts.dryRun() {
		now = opts.At.UTC()
	}
	report := RunReport{At: now, DryRun: opts.dryRun(), Users: []UserReport{}}

	enrolled, err := r.profiles.ListEnrolled(ctx)
	if err != nil {
		r.log.Errorw("profile_load_failed", "err", err)
		return report, fmt.Errorf("%w: %w", ErrProfileLoad, err)
	}

	for _, e := range enrolled {
		report.Users = append(report.Users, r.reconcile(ctx, e, now, opts.dryRun()))
	}

	r.log.Infow("reconcile_pass_done",
		"users", len(report.Users),
		"failed", report.Failed(),
		"dry_run", report.DryRun,
	)
	return report, nil
}

// RunUser reconciles a single user right away, e.g. after a profile change.
func (r *Reconciler) RunUser(ctx context.Context, email string) (UserReport, error) {
	u, err := r.users.GetByEmail(ctx, email)
	if err != nil {
		return UserReport{Email: email}, fmt.Errorf("load user: %w", err)
	}
	p, err := r.profiles.Get(ctx, email)
	if err != nil {
		return UserReport{Email: email}, fmt.Errorf("load profile: %w", err)
	}
	return r.reconcile(ctx, models.Enrollment{User: u, Profile: p}, r.now().UTC(), false), nil
}

func (r *Reconciler) reconcile(ctx context.Context, e models.Enrollment, now time.Time, dryRun bool) UserReport {
	email := e.User.Email
	log := r.log.ForUser(email)
	rep := UserReport{Email: email, Actions: []string{}}

	fail := func(step string, err error) UserReport {
		err = fmt.Errorf("%s: %w", step, err)
		rep.Error = err.Error()
		log.Errorw("reconcile_failed", "step", step, "err", err)
		if !dryRun {
			r.record(ctx, log, models.AdjustmentEvent{
				Email:       email,
				OccurredAt:  now,
				Type:        models.EventError,
				Description: err.Error(),
				Metadata:    map[string]any{"step": step},
			})
		}
		return rep
	}

	ctrl := r.live
	creds := e.User.Credentials
	if dryRun {
		ctrl = r.dry
	} else {
		fresh, err := r.creds.fresh(ctx, e.User, now)
		if err != nil {
			return fail("credentials", err)
		}
		creds = fresh
	}

	p := e.Profile
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return fail("timezone", err)
	}
	local := now.In(loc)

	cycle, err := sleepcycle.Build(local, p.BedTime, p.WakeTime)
	if err != nil {
		return fail("cycle", err)
	}
	cycle = cycle.Normalize(local)

	status, err := ctrl.HeatingStatus(ctx, creds)
	if err != nil {
		return fail("heating_status", err)
	}

	d := sleepcycle.Decide(cycle, local, levelsOf(p), status)
	rep.Stage, rep.Target, rep.Level = d.Stage, d.Target, d.Level

	log.Debugw("decision",
		"stage", d.Stage,
		"target", d.Target,
		"level", d.Level,
		"is_heating", status.IsHeating,
		"heating_level", status.HeatingLevel,
		"actions", len(d.Actions),
	)

	for _, a := range d.Actions {
		if err := execute(ctx, ctrl, creds, a); err != nil {
			return fail(string(a.Kind), err)
		}
		rep.Actions = append(rep.Actions, a.String())
		log.Infow("device_adjusted", "action", a.String(), "stage", d.Target, "dry_run", dryRun)
		if !dryRun {
			r.record(ctx, log, models.AdjustmentEvent{
				Email:       email,
				OccurredAt:  now,
				Type:        string(a.Kind),
				Description: describe(a, d.Target),
				Metadata:    map[string]any{"stage": d.Target, "level": d.Level},
			})
		}
	}
	return rep
}

func (r *Reconciler) record(ctx context.Context, log *logger.Logger, ev models.AdjustmentEvent) {
	if err := r.events.Append(ctx, ev); err != nil {
		log.Warnw("event_append_failed", "type", ev.Type, "err", err)
	}
}

func execute(ctx context.Context, ctrl device.Controller, creds models.Credentials, a sleepcycle.Action) error {
	switch a.Kind {
	case sleepcycle.ActionTurnOn:
		return ctrl.TurnOn(ctx, creds)
	case sleepcycle.ActionTurnOff:
		return ctrl.TurnOff(ctx, creds)
	case sleepcycle.ActionSetLevel:
		return ctrl.SetLevel(ctx, creds, a.Level)
	default:
		return fmt.Errorf("unknown action %q", a.Kind)
	}
}

func describe(a sleepcycle.Action, stage sleepcycle.Stage) string {
	switch a.Kind {
	case sleepcycle.ActionTurnOn:
		return fmt.Sprintf("Turned on for %s stage", stage)
	case sleepcycle.ActionTurnOff:
		return "Turned off after wake time"
	default:
		return fmt.Sprintf("Set level %d for %s stage", a.Level, stage)
	}
}

func levelsOf(p models.TemperatureProfile) sleepcycle.Levels {
	return sleepcycle.Levels{Initial: p.InitialLevel, Mid: p.MidLevel, Final: p.FinalLevel}
}
