// Package sleepcycle turns a bed/wake schedule into dated checkpoints and
// decides which device actions are due at a given instant.
package sleepcycle

import (
	"errors"
	"fmt"
	"time"
)

const (
	preHeatLead     = time.Hour
	midStageOffset  = time.Hour
	finalStageLead  = 2 * time.Hour
	MinCycleLength  = preHeatLead + finalStageLead
	normalizeWindow = 12 * time.Hour
)

// ErrCycleTooShort is returned when wake is not more than MinCycleLength after
// bed; at exactly MinCycleLength the mid and final checkpoints would coincide.
var ErrCycleTooShort = errors.New("sleep cycle too short: wake must be more than 3h after bed")

// Cycle holds the five checkpoints of one night.
// Methods return new values; a Cycle is never modified in place.
type Cycle struct {
	PreHeating time.Time `json:"pre_heating"`
	Bed        time.Time `json:"bed"`
	MidStage   time.Time `json:"mid_stage"`
	FinalStage time.Time `json:"final_stage"`
	Wake       time.Time `json:"wake"`
}

// Build derives a cycle from bed and wake times on ref's calendar date.
// A wake time at or before bed time is moved to the next day.
func Build(ref time.Time, bed, wake string) (Cycle, error) {
	bedAt, err := TimeOnDate(ref, bed)
	if err != nil {
		return Cycle{}, fmt.Errorf("bed time: %w", err)
	}
	wakeAt, err := TimeOnDate(ref, wake)
	if err != nil {
		return Cycle{}, fmt.Errorf("wake time: %w", err)
	}
	if !wakeAt.After(bedAt) {
		wakeAt = ShiftDays(wakeAt, 1)
	}
	if wakeAt.Sub(bedAt) <= MinCycleLength {
		return Cycle{}, fmt.Errorf("%w (bed %s, wake %s)", ErrCycleTooShort, bed, wake)
	}

	return Cycle{
		PreHeating: bedAt.Add(-preHeatLead),
		Bed:        bedAt,
		MidStage:   bedAt.Add(midStageOffset),
		FinalStage: wakeAt.Add(-finalStageLead),
		Wake:       wakeAt,
	}, nil
}

// Checkpoints returns the checkpoints in schedule order.
func (c Cycle) Checkpoints() [5]time.Time {
	return [5]time.Time{c.PreHeating, c.Bed, c.MidStage, c.FinalStage, c.Wake}
}

// Normalize re-anchors checkpoints relative to now. A checkpoint before the
// un-normalized PreHeating belongs to the next cycle and moves forward a day;
// one still more than 12h ahead of now moves back a day. Checkpoints in the
// past are kept, so a wake time earlier today still counts as passed.
func (c Cycle) Normalize(now time.Time) Cycle {
	start := c.PreHeating
	anchor := func(t time.Time) time.Time {
		if t.Before(start) {
			t = ShiftDays(t, 1)
		}
		if t.Sub(now) > normalizeWindow {
			t = ShiftDays(t, -1)
		}
		return t
	}
	return Cycle{
		PreHeating: anchor(c.PreHeating),
		Bed:        anchor(c.Bed),
		MidStage:   anchor(c.MidStage),
		FinalStage: anchor(c.FinalStage),
		Wake:       anchor(c.Wake),
	}
}
