package device

import (
	"context"

	"bed_temperature/internal/logger"
	"bed_temperature/internal/models"
)

// DryRun reports a neutral device state and only logs the commands it is given.
type DryRun struct {
	log *logger.Logger
}

func NewDryRun(log *logger.Logger) *DryRun {
	return &DryRun{log: log}
}

var _ Controller = (*DryRun)(nil)

// HeatingStatus always returns an idle device at level 0.
func (d *DryRun) HeatingStatus(ctx context.Context, creds models.Credentials) (models.HeatingStatus, error) {
	return models.HeatingStatus{IsHeating: false, HeatingLevel: 0}, nil
}

func (d *DryRun) TurnOn(ctx context.Context, creds models.Credentials) error {
	d.log.Infow("dry_run_turn_on", "device_user_id", creds.DeviceUserID)
	return nil
}

func (d *DryRun) TurnOff(ctx context.Context, creds models.Credentials) error {
	d.log.Infow("dry_run_turn_off", "device_user_id", creds.DeviceUserID)
	return nil
}

func (d *DryRun) SetLevel(ctx context.Context, creds models.Credentials, level int) error {
	d.log.Infow("dry_run_set_level", "device_user_id", creds.DeviceUserID, "level", level)
	return nil
}
