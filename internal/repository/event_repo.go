package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"bed_temperature/internal/models"
	"bed_temperature/internal/repository/db"

	"github.com/google/uuid"
)

type EventSQL struct {
	db     *sql.DB
	driver string
}

func NewEventSQL(conn *sql.DB, driver string) *EventSQL {
	return &EventSQL{db: conn, driver: driver}
}

var _ EventRepo = (*EventSQL)(nil)

const insertEventSQL = `
		INSERT INTO adjustment_events (id, email, occurred_at, type, message, meta)
		VALUES (?, ?, ?, ?, ?, ?)
	`

// Append inserts a new event. If EventID or OccurredAt are empty, they're set.
func (r *EventSQL) Append(ctx context.Context, e models.AdjustmentEvent) error {
	if e.EventID == "" {
		e.EventID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	} else {
		e.OccurredAt = e.OccurredAt.UTC()
	}

	var metaPtr *string
	if e.Metadata != nil {
		if b, err := json.Marshal(e.Metadata); err == nil {
			s := string(b)
			metaPtr = &s
		}
	}

	_, err := r.db.ExecContext(ctx, db.Rebind(r.driver, insertEventSQL),
		e.EventID,
		e.Email,
		e.OccurredAt,
		strings.ToUpper(strings.TrimSpace(e.Type)),
		e.Description,
		metaPtr,
	)
	if err != nil {
		return fmt.Errorf("append %s event for %q: %w", e.Type, e.Email, err)
	}
	return nil
}

// List returns events filtered by email, [from, to] (inclusive) and type,
// ordered by time. Empty filters are ignored.
func (r *EventSQL) List(ctx context.Context, email string, from, to time.Time, typ string) ([]models.AdjustmentEvent, error) {
	var (
		conds []string
		args  []any
	)

	if email != "" {
		conds = append(conds, "email = ?")
		args = append(args, email)
	}
	if !from.IsZero() {
		conds = append(conds, "occurred_at >= ?")
		args = append(args, from.UTC())
	}
	if !to.IsZero() {
		conds = append(conds, "occurred_at <= ?")
		args = append(args, to.UTC())
	}
	if typ = strings.ToUpper(strings.TrimSpace(typ)); typ != "" {
		conds = append(conds, "type = ?")
		args = append(args, typ)
	}

	q := `SELECT id, email, occurred_at, type, message, meta FROM adjustment_events`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY occurred_at ASC"

	rows, err := r.db.QueryContext(ctx, db.Rebind(r.driver, q), args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	out := make([]models.AdjustmentEvent, 0, 64)
	for rows.Next() {
		var ev models.AdjustmentEvent
		var metaStr sql.NullString
		if err := rows.Scan(&ev.EventID, &ev.Email, &ev.OccurredAt, &ev.Type, &ev.Description, &metaStr); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.OccurredAt = ev.OccurredAt.UTC()

		if metaStr.Valid && metaStr.String != "" {
			var v any
			if err := json.Unmarshal([]byte(metaStr.String), &v); err == nil {
				ev.Metadata = v
			} else {
				ev.Metadata = metaStr.String // keep raw if malformed
			}
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
