// Package device defines the device-control capability and the strategies
// the reconciler can swap in for it.
package device

import (
	"context"

	"bed_temperature/internal/models"
)

// Controller reads and changes the heating state of one user's side of the bed.
type Controller interface {
	HeatingStatus(ctx context.Context, creds models.Credentials) (models.HeatingStatus, error)
	TurnOn(ctx context.Context, creds models.Credentials) error
	TurnOff(ctx context.Context, creds models.Credentials) error
	SetLevel(ctx context.Context, creds models.Credentials, level int) error
}
