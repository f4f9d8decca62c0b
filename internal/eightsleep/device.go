package eightsleep

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"bed_temperature/internal/device"
	"bed_temperature/internal/models"
)

var errNoDevice = errors.New("account has no paired device")

var _ device.Controller = (*Client)(nil)

type userMeResponse struct {
	User struct {
		UserID        string   `json:"userId"`
		Devices       []string `json:"devices"`
		CurrentDevice struct {
			ID       string `json:"id"`
			Side     string `json:"side"`
			TimeZone string `json:"timeZone"`
		} `json:"currentDevice"`
	} `json:"user"`
}

type deviceResponse struct {
	Result struct {
		DeviceID                string `json:"deviceId"`
		LeftHeatingLevel        int    `json:"leftHeatingLevel"`
		LeftTargetHeatingLevel  int    `json:"leftTargetHeatingLevel"`
		LeftNowHeating          bool   `json:"leftNowHeating"`
		LeftHeatingDuration     int    `json:"leftHeatingDuration"`
		RightHeatingLevel       int    `json:"rightHeatingLevel"`
		RightTargetHeatingLevel int    `json:"rightTargetHeatingLevel"`
		RightNowHeating         bool   `json:"rightNowHeating"`
		RightHeatingDuration    int    `json:"rightHeatingDuration"`
	} `json:"result"`
}

// lookupDevice resolves the user's device and side, cached per device user.
func (c *Client) lookupDevice(ctx context.Context, creds models.Credentials) (deviceRef, error) {
	if ref, ok := c.devices.GetIfPresent(creds.DeviceUserID); ok {
		return ref, nil
	}
	var me userMeResponse
	if err := c.doJSON(ctx, http.MethodGet, joinURL(c.cfg.ClientAPIURL, "users", "me"), creds.AccessToken, nil, &me); err != nil {
		return deviceRef{}, err
	}
	if len(me.User.Devices) == 0 {
		return deviceRef{}, errNoDevice
	}
	ref := deviceRef{DeviceID: me.User.Devices[0], Side: me.User.CurrentDevice.Side}
	c.devices.Set(creds.DeviceUserID, ref)
	return ref, nil
}

// HeatingStatus returns the live state of the user's side of the bed.
func (c *Client) HeatingStatus(ctx context.Context, creds models.Credentials) (models.HeatingStatus, error) {
	ref, err := c.lookupDevice(ctx, creds)
	if err != nil {
		return models.HeatingStatus{}, fmt.Errorf("resolve device: %w", err)
	}
	var dr deviceResponse
	if err := c.doJSON(ctx, http.MethodGet, joinURL(c.cfg.ClientAPIURL, "devices", ref.DeviceID), creds.AccessToken, nil, &dr); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			// device re-paired since we cached it
			c.devices.Invalidate(creds.DeviceUserID)
		}
		return models.HeatingStatus{}, err
	}
	r := dr.Result
	if ref.Side == "left" {
		return models.HeatingStatus{
			IsHeating:          r.LeftNowHeating,
			HeatingLevel:       r.LeftHeatingLevel,
			TargetHeatingLevel: r.LeftTargetHeatingLevel,
			HeatingDuration:    r.LeftHeatingDuration,
		}, nil
	}
	return models.HeatingStatus{
		IsHeating:          r.RightNowHeating,
		HeatingLevel:       r.RightHeatingLevel,
		TargetHeatingLevel: r.RightTargetHeatingLevel,
		HeatingDuration:    r.RightHeatingDuration,
	}, nil
}

func (c *Client) putTemperature(ctx context.Context, creds models.Credentials, body any) error {
	url := joinURL(c.cfg.AppAPIURL, "v1", "users", creds.DeviceUserID, "temperature")
	return c.doJSON(ctx, http.MethodPut, url, creds.AccessToken, body, nil)
}

type stateBody struct {
	CurrentState struct {
		Type string `json:"type"`
	} `json:"currentState"`
}

func newStateBody(typ string) stateBody {
	var b stateBody
	b.CurrentState.Type = typ
	return b
}

// TurnOn switches the side into smart mode.
func (c *Client) TurnOn(ctx context.Context, creds models.Credentials) error {
	return c.putTemperature(ctx, creds, newStateBody("smart"))
}

// TurnOff switches the side off.
func (c *Client) TurnOff(ctx context.Context, creds models.Credentials) error {
	return c.putTemperature(ctx, creds, newStateBody("off"))
}

type levelBody struct {
	TimeBased struct {
		Level           int `json:"level"`
		DurationSeconds int `json:"durationSeconds"`
	} `json:"timeBased"`
	CurrentLevel int `json:"currentLevel"`
}

// SetLevel sets the raw heating level (-100..100) with no time limit.
func (c *Client) SetLevel(ctx context.Context, creds models.Credentials, level int) error {
	var b levelBody
	b.TimeBased.Level = level
	b.CurrentLevel = level
	return c.putTemperature(ctx, creds, b)
}
