package sleepcycle

import "time"

// Stage names a part of the sleep cycle.
type Stage string

const (
	StagePreHeating Stage = "pre-heating"
	StageInitial    Stage = "initial"
	StageMid        Stage = "mid"
	StageFinal      Stage = "final"
	StageOutside    Stage = "outside"
)

// Classify returns the stage whose half-open interval contains now.
// It is used for diagnostics; actions are driven by the tolerance windows.
func Classify(c Cycle, now time.Time) Stage {
	switch {
	case inRange(now, c.PreHeating, c.Bed):
		return StagePreHeating
	case inRange(now, c.Bed, c.MidStage):
		return StageInitial
	case inRange(now, c.MidStage, c.FinalStage):
		return StageMid
	case inRange(now, c.FinalStage, c.Wake):
		return StageFinal
	default:
		return StageOutside
	}
}

// inRange reports start <= t < end.
func inRange(t, start, end time.Time) bool {
	return !t.Before(start) && t.Before(end)
}
