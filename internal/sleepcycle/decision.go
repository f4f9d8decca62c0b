package sleepcycle

import (
	"fmt"
	"time"

	"bed_temperature/internal/models"
)

// Tolerance is the band around each checkpoint inside which a tick acts.
const Tolerance = 15 * time.Minute

// ActionKind enumerates device commands.
type ActionKind string

const (
	ActionTurnOn   ActionKind = "TURN_ON"
	ActionTurnOff  ActionKind = "TURN_OFF"
	ActionSetLevel ActionKind = "SET_LEVEL"
)

// Action is a single device command. Level is only meaningful for SET_LEVEL.
type Action struct {
	Kind  ActionKind `json:"kind"`
	Level int        `json:"level,omitempty"`
}

func (a Action) String() string {
	if a.Kind == ActionSetLevel {
		return fmt.Sprintf("%s(%d)", a.Kind, a.Level)
	}
	return string(a.Kind)
}

// Levels are the user's raw heating levels for each part of the night.
type Levels struct {
	Initial int `json:"initial"`
	Mid     int `json:"mid"`
	Final   int `json:"final"`
}

// Proximity records which checkpoints now is within Tolerance of.
type Proximity struct {
	PreHeating bool `json:"pre_heating"`
	Bed        bool `json:"bed"`
	MidStage   bool `json:"mid_stage"`
	FinalStage bool `json:"final_stage"`
	Wake       bool `json:"wake"`
}

// Any reports whether at least one checkpoint is near.
func (p Proximity) Any() bool {
	return p.PreHeating || p.Bed || p.MidStage || p.FinalStage || p.Wake
}

// Decision is the outcome of one evaluation.
type Decision struct {
	Stage   Stage     `json:"stage"`
	Target  Stage     `json:"target"`
	Level   int       `json:"level"`
	Near    Proximity `json:"near"`
	Actions []Action  `json:"actions"`
}

// Decide computes the actions that bring the device in line with the
// schedule. It is a pure function of its arguments.
func Decide(c Cycle, now time.Time, lv Levels, st models.HeatingStatus) Decision {
	near := Proximity{
		PreHeating: WithinTolerance(now, c.PreHeating, Tolerance),
		Bed:        WithinTolerance(now, c.Bed, Tolerance),
		MidStage:   WithinTolerance(now, c.MidStage, Tolerance),
		FinalStage: WithinTolerance(now, c.FinalStage, Tolerance),
		Wake:       WithinTolerance(now, c.Wake, Tolerance),
	}
	d := Decision{
		Stage:   Classify(c, now),
		Target:  StageOutside,
		Near:    near,
		Actions: []Action{},
	}

	if !near.Any() {
		if st.IsHeating && now.After(c.Wake) {
			d.Actions = append(d.Actions, Action{Kind: ActionTurnOff})
		}
		return d
	}

	// Adjacent windows can overlap near a boundary; earlier stages win.
	switch {
	case near.PreHeating || (near.Bed && now.Before(c.Bed)):
		d.Target, d.Level = StagePreHeating, lv.Initial
	case near.Bed || (near.MidStage && now.Before(c.MidStage)):
		d.Target, d.Level = StageInitial, lv.Initial
	case near.MidStage || (near.FinalStage && now.Before(c.FinalStage)):
		d.Target, d.Level = StageMid, lv.Mid
	default:
		d.Target, d.Level = StageFinal, lv.Final
	}

	if !st.IsHeating {
		d.Actions = append(d.Actions, Action{Kind: ActionTurnOn})
	}
	if st.HeatingLevel != d.Level {
		d.Actions = append(d.Actions, Action{Kind: ActionSetLevel, Level: d.Level})
	}
	return d
}

// Evaluate converts now into loc, builds and normalizes the user's cycle and
// decides against st.
func Evaluate(now time.Time, loc *time.Location, bed, wake string, lv Levels, st models.HeatingStatus) (Cycle, Decision, error) {
	local := now.In(loc)
	c, err := Build(local, bed, wake)
	if err != nil {
		return Cycle{}, Decision{}, err
	}
	c = c.Normalize(local)
	return c, Decide(c, local, lv, st), nil
}
