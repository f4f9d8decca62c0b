package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bed_temperature/internal/models"
	"bed_temperature/internal/repository/db"
)

type UserSQL struct {
	db     *sql.DB
	driver string
}

func NewUserSQL(conn *sql.DB, driver string) *UserSQL {
	return &UserSQL{db: conn, driver: driver}
}

var _ UserRepo = (*UserSQL)(nil)

const (
	upsertUserSQL = `
		INSERT INTO users (email, device_user_id, access_token, refresh_token, expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(email) DO UPDATE SET
			device_user_id=excluded.device_user_id,
			access_token=excluded.access_token,
			refresh_token=excluded.refresh_token,
			expires_at=excluded.expires_at,
			updated_at=excluded.updated_at
	`

	selectUserByEmailSQL = `
		SELECT email, device_user_id, access_token, refresh_token, expires_at, created_at, updated_at
		FROM users WHERE email = ?
	`

	updateCredentialsSQL = `
		UPDATE users SET device_user_id = ?, access_token = ?, refresh_token = ?, expires_at = ?, updated_at = ?
		WHERE email = ?
	`
)

// Upsert inserts the user or replaces the stored credentials of an existing one.
func (r *UserSQL) Upsert(ctx context.Context, u models.User) error {
	now := time.Now().UTC()
	created := u.CreatedAt
	if created.IsZero() {
		created = now
	}
	c := u.Credentials
	_, err := r.db.ExecContext(ctx, db.Rebind(r.driver, upsertUserSQL),
		u.Email,
		c.DeviceUserID,
		c.AccessToken,
		c.RefreshToken,
		c.ExpiresAt.UTC(),
		created.UTC(),
		now,
	)
	if err != nil {
		return fmt.Errorf("upsert user %q: %w", u.Email, err)
	}
	return nil
}

// GetByEmail fetches a user. Returns ErrNotFound if there is no such row.
func (r *UserSQL) GetByEmail(ctx context.Context, email string) (models.User, error) {
	var u models.User
	err := r.db.QueryRowContext(ctx, db.Rebind(r.driver, selectUserByEmailSQL), email).Scan(
		&u.Email,
		&u.Credentials.DeviceUserID,
		&u.Credentials.AccessToken,
		&u.Credentials.RefreshToken,
		&u.Credentials.ExpiresAt,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("select user %q: %w", email, err)
	}
	u.Credentials.ExpiresAt = u.Credentials.ExpiresAt.UTC()
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	return u, nil
}

// UpdateCredentials stores refreshed tokens for an existing user.
func (r *UserSQL) UpdateCredentials(ctx context.Context, email string, c models.Credentials) error {
	res, err := r.db.ExecContext(ctx, db.Rebind(r.driver, updateCredentialsSQL),
		c.DeviceUserID,
		c.AccessToken,
		c.RefreshToken,
		c.ExpiresAt.UTC(),
		time.Now().UTC(),
		email,
	)
	if err != nil {
		return fmt.Errorf("update credentials for %q: %w", email, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected for %q: %w", email, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
