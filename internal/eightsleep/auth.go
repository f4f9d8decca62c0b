package eightsleep

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"bed_temperature/internal/models"
)

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"` // seconds
	UserID       string `json:"userId"`
}

func (c *Client) requestToken(ctx context.Context, grant map[string]string) (tokenResponse, error) {
	grant["client_id"] = c.cfg.ClientID
	grant["client_secret"] = c.cfg.ClientSecret

	var tr tokenResponse
	if err := c.doJSON(ctx, http.MethodPost, c.cfg.AuthURL, "", grant, &tr); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return tokenResponse{}, &AuthError{StatusCode: apiErr.StatusCode, Msg: "token request rejected"}
		}
		return tokenResponse{}, &AuthError{Msg: err.Error()}
	}
	if tr.AccessToken == "" || tr.RefreshToken == "" {
		return tokenResponse{}, &AuthError{Msg: "token response missing tokens"}
	}
	return tr, nil
}

func (c *Client) credentials(tr tokenResponse, deviceUserID string) models.Credentials {
	expiresAt := c.now().Add(time.Duration(tr.ExpiresIn)*time.Second - tokenExpiryBuffer)
	return models.Credentials{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		ExpiresAt:    expiresAt.UTC(),
		DeviceUserID: deviceUserID,
	}
}

// Authenticate exchanges an account email and password for credentials.
func (c *Client) Authenticate(ctx context.Context, email, password string) (models.Credentials, error) {
	tr, err := c.requestToken(ctx, map[string]string{
		"grant_type": "password",
		"username":   email,
		"password":   password,
	})
	if err != nil {
		return models.Credentials{}, err
	}
	if tr.UserID == "" {
		return models.Credentials{}, &AuthError{Msg: "password grant returned no userId"}
	}
	return c.credentials(tr, tr.UserID), nil
}

// Refresh trades a refresh token for new credentials, keeping the device user id.
func (c *Client) Refresh(ctx context.Context, refreshToken, deviceUserID string) (models.Credentials, error) {
	tr, err := c.requestToken(ctx, map[string]string{
		"grant_type":    "refresh_token",
		"refresh_token": refreshToken,
	})
	if err != nil {
		return models.Credentials{}, fmt.Errorf("refresh for %s: %w", deviceUserID, err)
	}
	return c.credentials(tr, deviceUserID), nil
}
