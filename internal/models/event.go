package models

import "time"

// Event types recorded in the adjustment log.
const (
	EventTurnOn       = "TURN_ON"
	EventTurnOff      = "TURN_OFF"
	EventSetLevel     = "SET_LEVEL"
	EventTokenRefresh = "TOKEN_REFRESH"
	EventError        = "ERROR"
)

// AdjustmentEvent is a single log entry about one user's device.
type AdjustmentEvent struct {
	EventID     string    `json:"event_id"`
	Email       string    `json:"email"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`        // TURN_ON | TURN_OFF | SET_LEVEL | TOKEN_REFRESH | ERROR
	Description string    `json:"description"` // human-readable
	Metadata    any       `json:"metadata,omitempty"`
}
