package models

// HeatingStatus is the device's last reported state for the user's side.
type HeatingStatus struct {
	IsHeating          bool `json:"is_heating"`
	HeatingLevel       int  `json:"heating_level"`
	TargetHeatingLevel int  `json:"target_heating_level"`
	HeatingDuration    int  `json:"heating_duration"` // seconds
}
