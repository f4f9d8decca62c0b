package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bed_temperature/internal/logger"
	"bed_temperature/internal/models"
	"bed_temperature/internal/repository"
	"bed_temperature/internal/sleepcycle"
)

const (
	minLevel = -100
	maxLevel = 100
)

var ErrInvalidProfile = errors.New("invalid profile")

type userRunner interface {
	RunUser(ctx context.Context, email string) (UserReport, error)
}

type ProfileService struct {
	profiles repository.ProfileRepo
	runner   userRunner
	log      *logger.Logger
	now      func() time.Time
}

func NewProfileService(profiles repository.ProfileRepo, runner userRunner, log *logger.Logger) *ProfileService {
	return &ProfileService{profiles: profiles, runner: runner, log: log, now: time.Now}
}

func (s *ProfileService) GetProfile(ctx context.Context, email string) (models.TemperatureProfile, error) {
	return s.profiles.Get(ctx, email)
}

// SaveProfile validates and stores p, then reconciles the user immediately so
// the change takes effect without waiting for the next tick.
func (s *ProfileService) SaveProfile(ctx context.Context, p models.TemperatureProfile) (models.TemperatureProfile, error) {
	p.BedTime = strings.TrimSpace(p.BedTime)
	p.WakeTime = strings.TrimSpace(p.WakeTime)
	p.Timezone = strings.TrimSpace(p.Timezone)
	if err := validateProfile(p, s.now()); err != nil {
		return models.TemperatureProfile{}, fmt.Errorf("%w: %w", ErrInvalidProfile, err)
	}

	if err := s.profiles.Upsert(ctx, p); err != nil {
		return models.TemperatureProfile{}, err
	}
	if s.log != nil {
		s.log.Infow("profile_saved", "email", p.Email, "bed_time", p.BedTime, "wake_time", p.WakeTime, "timezone", p.Timezone)
	}

	if rep, err := s.runner.RunUser(ctx, p.Email); err != nil {
		if s.log != nil {
			s.log.Warnw("immediate_reconcile_failed", "email", p.Email, "err", err)
		}
	} else if rep.Error != "" && s.log != nil {
		s.log.Warnw("immediate_reconcile_failed", "email", p.Email, "err", rep.Error)
	}

	return s.profiles.Get(ctx, p.Email)
}

func (s *ProfileService) DeleteProfile(ctx context.Context, email string) error {
	if err := s.profiles.Delete(ctx, email); err != nil {
		return err
	}
	if s.log != nil {
		s.log.Infow("profile_deleted", "email", email)
	}
	return nil
}

// validateProfile checks p; the cycle length is measured on now's date in the
// profile's timezone.
func validateProfile(p models.TemperatureProfile, now time.Time) error {
	if p.Email == "" {
		return errors.New("email is required")
	}
	if _, _, err := sleepcycle.ParseTimeOfDay(p.BedTime); err != nil {
		return fmt.Errorf("bed_time: %w", err)
	}
	if _, _, err := sleepcycle.ParseTimeOfDay(p.WakeTime); err != nil {
		return fmt.Errorf("wake_time: %w", err)
	}
	if p.Timezone == "" {
		return errors.New("timezone is required")
	}
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return fmt.Errorf("timezone: %w", err)
	}
	for _, lv := range []struct {
		name  string
		value int
	}{
		{"initial_level", p.InitialLevel},
		{"mid_level", p.MidLevel},
		{"final_level", p.FinalLevel},
	} {
		if lv.value < minLevel || lv.value > maxLevel {
			return fmt.Errorf("%s must be within [%d, %d], got %d", lv.name, minLevel, maxLevel, lv.value)
		}
	}
	if _, err := sleepcycle.Build(now.In(loc), p.BedTime, p.WakeTime); err != nil {
		return err
	}
	return nil
}
