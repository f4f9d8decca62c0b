package service

import (
	"time"

	"bed_temperature/internal/models"
	"bed_temperature/internal/sleepcycle"
)

// LogFilter supports history filtering by time range and type.
type LogFilter struct {
	From time.Time // inclusive; zero means no lower bound
	To   time.Time // inclusive; zero means no upper bound
	Type string    // "", "TURN_ON", "TURN_OFF", "SET_LEVEL", "TOKEN_REFRESH", "ERROR"
}

// RunOptions controls one reconciliation pass. A non-nil At evaluates every
// user at that instant against the dry-run controller.
type RunOptions struct {
	At *time.Time
}

func (o RunOptions) dryRun() bool { return o.At != nil }

// UserReport is the outcome of reconciling one user.
type UserReport struct {
	Email   string           `json:"email"`
	Stage   sleepcycle.Stage `json:"stage,omitempty"`
	Target  sleepcycle.Stage `json:"target,omitempty"`
	Level   int              `json:"level"`
	Actions []string         `json:"actions"`
	Error   string           `json:"error,omitempty"`
}

// RunReport summarises one pass over every enrolled user.
type RunReport struct {
	At     time.Time    `json:"at"`
	DryRun bool         `json:"dry_run"`
	Users  []UserReport `json:"users"`
}

// Failed counts users whose reconciliation ended in an error.
func (r RunReport) Failed() int {
	n := 0
	for _, u := range r.Users {
		if u.Error != "" {
			n++
		}
	}
	return n
}

// Degrees is a raw level expressed in both units.
type Degrees struct {
	Celsius    float64 `json:"celsius"`
	Fahrenheit float64 `json:"fahrenheit"`
}

// StatusView is the live picture returned by /status and the websocket stream.
type StatusView struct {
	Email    string               `json:"email"`
	At       time.Time            `json:"at"`
	Timezone string               `json:"timezone"`
	Heating  models.HeatingStatus `json:"heating"`
	Degrees  Degrees              `json:"degrees"`
	Cycle    sleepcycle.Cycle     `json:"cycle"`
	Decision sleepcycle.Decision  `json:"decision"`
}
