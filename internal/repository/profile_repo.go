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

type ProfileSQL struct {
	db     *sql.DB
	driver string
}

func NewProfileSQL(conn *sql.DB, driver string) *ProfileSQL {
	return &ProfileSQL{db: conn, driver: driver}
}

var _ ProfileRepo = (*ProfileSQL)(nil)

const (
	upsertProfileSQL = `
		INSERT INTO temperature_profiles (email, bed_time, wake_time, timezone, initial_level, mid_level, final_level, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(email) DO UPDATE SET
			bed_time=excluded.bed_time,
			wake_time=excluded.wake_time,
			timezone=excluded.timezone,
			initial_level=excluded.initial_level,
			mid_level=excluded.mid_level,
			final_level=excluded.final_level,
			updated_at=excluded.updated_at
	`

	selectProfileSQL = `
		SELECT email, bed_time, wake_time, timezone, initial_level, mid_level, final_level, created_at, updated_at
		FROM temperature_profiles WHERE email = ?
	`

	deleteProfileSQL = `DELETE FROM temperature_profiles WHERE email = ?`

	selectEnrolledSQL = `
		SELECT u.email, u.device_user_id, u.access_token, u.refresh_token, u.expires_at, u.created_at, u.updated_at,
		       p.bed_time, p.wake_time, p.timezone, p.initial_level, p.mid_level, p.final_level, p.created_at, p.updated_at
		FROM users u
		JOIN temperature_profiles p ON p.email = u.email
		ORDER BY u.email ASC
	`
)

// Upsert creates or replaces the user's profile.
func (r *ProfileSQL) Upsert(ctx context.Context, p models.TemperatureProfile) error {
	now := time.Now().UTC()
	created := p.CreatedAt
	if created.IsZero() {
		created = now
	}
	_, err := r.db.ExecContext(ctx, db.Rebind(r.driver, upsertProfileSQL),
		p.Email,
		p.BedTime,
		p.WakeTime,
		p.Timezone,
		p.InitialLevel,
		p.MidLevel,
		p.FinalLevel,
		created.UTC(),
		now,
	)
	if err != nil {
		return fmt.Errorf("upsert profile %q: %w", p.Email, err)
	}
	return nil
}

// Get returns the user's profile or ErrNotFound.
func (r *ProfileSQL) Get(ctx context.Context, email string) (models.TemperatureProfile, error) {
	var p models.TemperatureProfile
	err := r.db.QueryRowContext(ctx, db.Rebind(r.driver, selectProfileSQL), email).Scan(
		&p.Email,
		&p.BedTime,
		&p.WakeTime,
		&p.Timezone,
		&p.InitialLevel,
		&p.MidLevel,
		&p.FinalLevel,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.TemperatureProfile{}, ErrNotFound
		}
		return models.TemperatureProfile{}, fmt.Errorf("select profile %q: %w", email, err)
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return p, nil
}

// Delete removes the user's profile; the user stops being reconciled.
func (r *ProfileSQL) Delete(ctx context.Context, email string) error {
	res, err := r.db.ExecContext(ctx, db.Rebind(r.driver, deleteProfileSQL), email)
	if err != nil {
		return fmt.Errorf("delete profile %q: %w", email, err)
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

// ListEnrolled returns every user that has a profile, ordered by email.
func (r *ProfileSQL) ListEnrolled(ctx context.Context) ([]models.Enrollment, error) {
	rows, err := r.db.QueryContext(ctx, db.Rebind(r.driver, selectEnrolledSQL))
	if err != nil {
		return nil, fmt.Errorf("list enrolled users: %w", err)
	}
	defer rows.Close()

	var out []models.Enrollment
	for rows.Next() {
		var e models.Enrollment
		u, p := &e.User, &e.Profile
		if err := rows.Scan(
			&u.Email,
			&u.Credentials.DeviceUserID,
			&u.Credentials.AccessToken,
			&u.Credentials.RefreshToken,
			&u.Credentials.ExpiresAt,
			&u.CreatedAt,
			&u.UpdatedAt,
			&p.BedTime,
			&p.WakeTime,
			&p.Timezone,
			&p.InitialLevel,
			&p.MidLevel,
			&p.FinalLevel,
			&p.CreatedAt,
			&p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan enrollment: %w", err)
		}
		p.Email = u.Email
		u.Credentials.ExpiresAt = u.Credentials.ExpiresAt.UTC()
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate enrollments: %w", err)
	}
	return out, nil
}
