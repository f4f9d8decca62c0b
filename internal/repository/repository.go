package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"bed_temperature/internal/models"
)

// ErrNotFound is returned when a user or profile row does not exist.
var ErrNotFound = errors.New("not found")

type UserRepo interface {
	Upsert(ctx context.Context, u models.User) error
	GetByEmail(ctx context.Context, email string) (models.User, error)
	UpdateCredentials(ctx context.Context, email string, c models.Credentials) error
}

type ProfileRepo interface {
	Upsert(ctx context.Context, p models.TemperatureProfile) error
	Get(ctx context.Context, email string) (models.TemperatureProfile, error)
	Delete(ctx context.Context, email string) error
	ListEnrolled(ctx context.Context) ([]models.Enrollment, error)
}

type EventRepo interface {
	Append(ctx context.Context, e models.AdjustmentEvent) error
	List(ctx context.Context, email string, from, to time.Time, typ string) ([]models.AdjustmentEvent, error)
}

type Repository struct {
	UserRepo    UserRepo
	ProfileRepo ProfileRepo
	EventRepo   EventRepo
}

// NewRepository builds SQL-backed repositories for driver (sqlite or postgres).
func NewRepository(db *sql.DB, driver string) *Repository {
	return &Repository{
		UserRepo:    NewUserSQL(db, driver),
		ProfileRepo: NewProfileSQL(db, driver),
		EventRepo:   NewEventSQL(db, driver),
	}
}
