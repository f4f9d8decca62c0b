package models

import "time"

// Credentials are the upstream device-API tokens for one user.
type Credentials struct {
	AccessToken  string    `json:"-"`
	RefreshToken string    `json:"-"`
	ExpiresAt    time.Time `json:"expires_at"`
	DeviceUserID string    `json:"device_user_id"`
}

// Expired reports whether the access token is past its expiry at now.
func (c Credentials) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

type User struct {
	Email       string      `json:"email"`
	Credentials Credentials `json:"credentials"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}
