// Package scheduler fires the reconciliation pass on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"bed_temperature/internal/logger"

	"github.com/robfig/cron/v3"
)

// Job is one scheduled run. Its error is logged, never retried.
type Job func(ctx context.Context) error

// Scheduler runs a Job on a 5-field cron expression. A run that is still in
// progress when the next one is due causes that tick to be skipped.
type Scheduler struct {
	cron *cron.Cron
	spec string
	job  Job
	log  *logger.Logger
}

// New validates spec and prepares a scheduler; nothing runs until Run.
func New(spec string, job Job, log *logger.Logger) (*Scheduler, error) {
	if log == nil {
		log = logger.Nop()
	}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(spec); err != nil {
		return nil, fmt.Errorf("parse cron schedule %q: %w", spec, err)
	}
	cl := cronLogger{log: log}
	c := cron.New(
		cron.WithParser(parser),
		cron.WithLocation(time.UTC),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	return &Scheduler{cron: c, spec: spec, job: job, log: log}, nil
}

// Run starts the schedule and blocks until ctx is canceled, then waits for a
// job in flight to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.runOnce(ctx) }); err != nil {
		return fmt.Errorf("schedule job: %w", err)
	}
	s.cron.Start()
	s.log.Infow("scheduler_started", "schedule", s.spec)

	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.log.Infow("scheduler_stopped")
	return nil
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	if err := s.job(ctx); err != nil {
		s.log.Errorw("scheduled_run_failed", "err", err, "took", time.Since(start))
		return
	}
	s.log.Debugw("scheduled_run_done", "took", time.Since(start))
}

// cronLogger adapts the zap logger to cron.Logger.
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw("cron_"+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw("cron_"+msg, append(keysAndValues, "err", err)...)
}
