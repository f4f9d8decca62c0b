package service

import (
	"context"
	"fmt"
	"time"

	"bed_temperature/internal/device"
	"bed_temperature/internal/eightsleep"
	"bed_temperature/internal/repository"
	"bed_temperature/internal/sleepcycle"
)

type MonitoringService struct {
	users    repository.UserRepo
	profiles repository.ProfileRepo
	creds    *credentialKeeper
	device   device.Controller
	now      func() time.Time
}

func NewMonitoringService(repos *repository.Repository, creds *credentialKeeper, dev device.Controller, now func() time.Time) *MonitoringService {
	return &MonitoringService{
		users:    repos.UserRepo,
		profiles: repos.ProfileRepo,
		creds:    creds,
		device:   dev,
		now:      now,
	}
}

// Status reads the device and evaluates the user's cycle without acting.
func (s *MonitoringService) Status(ctx context.Context, email string) (StatusView, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return StatusView{}, fmt.Errorf("load user: %w", err)
	}
	p, err := s.profiles.Get(ctx, email)
	if err != nil {
		return StatusView{}, fmt.Errorf("load profile: %w", err)
	}
	now := s.now()
	creds, err := s.creds.fresh(ctx, u, now)
	if err != nil {
		return StatusView{}, err
	}
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return StatusView{}, fmt.Errorf("timezone: %w", err)
	}
	heating, err := s.device.HeatingStatus(ctx, creds)
	if err != nil {
		return StatusView{}, fmt.Errorf("heating status: %w", err)
	}
	cycle, decision, err := sleepcycle.Evaluate(now, loc, p.BedTime, p.WakeTime, levelsOf(p), heating)
	if err != nil {
		return StatusView{}, err
	}

	view := StatusView{
		Email:    email,
		At:       now.In(loc),
		Timezone: p.Timezone,
		Heating:  heating,
		Cycle:    cycle,
		Decision: decision,
	}
	// levels outside the calibration table leave degrees at zero
	if c, err := eightsleep.RawToDegrees(heating.HeatingLevel, "c"); err == nil {
		view.Degrees.Celsius = c
	}
	if f, err := eightsleep.RawToDegrees(heating.HeatingLevel, "f"); err == nil {
		view.Degrees.Fahrenheit = f
	}
	return view, nil
}
