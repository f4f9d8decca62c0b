package service

import (
	"context"
	"fmt"
	"time"

	"bed_temperature/internal/logger"
	"bed_temperature/internal/models"
	"bed_temperature/internal/repository"

	"golang.org/x/sync/singleflight"
)

// credentialKeeper refreshes expired upstream credentials and persists them.
// Concurrent refreshes for one email share a single upstream call.
type credentialKeeper struct {
	users  repository.UserRepo
	events repository.EventRepo
	auth   Authenticator
	log    *logger.Logger
	group  singleflight.Group
}

func newCredentialKeeper(users repository.UserRepo, events repository.EventRepo, auth Authenticator, log *logger.Logger) *credentialKeeper {
	return &credentialKeeper{users: users, events: events, auth: auth, log: log}
}

// fresh returns u's credentials, refreshing them first if they expired by now.
func (k *credentialKeeper) fresh(ctx context.Context, u models.User, now time.Time) (models.Credentials, error) {
	if !u.Credentials.Expired(now) {
		return u.Credentials, nil
	}
	v, err, _ := k.group.Do(u.Email, func() (interface{}, error) {
		return k.refresh(ctx, u, now)
	})
	if err != nil {
		return models.Credentials{}, err
	}
	return v.(models.Credentials), nil
}

func (k *credentialKeeper) refresh(ctx context.Context, u models.User, now time.Time) (models.Credentials, error) {
	// u may have been loaded before a concurrent refresh finished.
	current := u.Credentials
	if stored, err := k.users.GetByEmail(ctx, u.Email); err == nil {
		current = stored.Credentials
	}
	if !current.Expired(now) {
		return current, nil
	}

	creds, err := k.auth.Refresh(ctx, current.RefreshToken, current.DeviceUserID)
	if err != nil {
		return models.Credentials{}, fmt.Errorf("refresh credentials: %w", err)
	}
	if err := k.users.UpdateCredentials(ctx, u.Email, creds); err != nil {
		return models.Credentials{}, fmt.Errorf("store refreshed credentials: %w", err)
	}
	if k.log != nil {
		k.log.Infow("token_refreshed", "email", u.Email, "expires_at", creds.ExpiresAt)
	}
	if err := k.events.Append(ctx, models.AdjustmentEvent{
		Email:       u.Email,
		OccurredAt:  now,
		Type:        models.EventTokenRefresh,
		Description: "Device API token refreshed",
		Metadata:    map[string]any{"expires_at": creds.ExpiresAt},
	}); err != nil && k.log != nil {
		k.log.Warnw("event_append_failed", "email", u.Email, "err", err)
	}
	return creds, nil
}
