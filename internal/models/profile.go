package models

import "time"

// TemperatureProfile is a user's sleep schedule and per-stage heating levels.
type TemperatureProfile struct {
	Email        string    `json:"email"`
	BedTime      string    `json:"bed_time"`  // HH:MM
	WakeTime     string    `json:"wake_time"` // HH:MM
	Timezone     string    `json:"timezone"`  // IANA name, e.g. America/New_York
	InitialLevel int       `json:"initial_level"`
	MidLevel     int       `json:"mid_level"`
	FinalLevel   int       `json:"final_level"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Enrollment pairs a user with their profile; it is the unit of one reconciliation.
type Enrollment struct {
	User    User
	Profile TemperatureProfile
}
