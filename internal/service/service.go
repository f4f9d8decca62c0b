package service

import (
	"context"
	"time"

	"bed_temperature/internal/config"
	"bed_temperature/internal/device"
	"bed_temperature/internal/logger"
	"bed_temperature/internal/models"
	"bed_temperature/internal/repository"
)

// Authenticator obtains and refreshes upstream device-API credentials.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (models.Credentials, error)
	Refresh(ctx context.Context, refreshToken, deviceUserID string) (models.Credentials, error)
}

type Authorization interface {
	SignIn(ctx context.Context, email, password string) (string, error)
	ParseToken(accessToken string) (string, error)
	CheckSession(ctx context.Context, email string) (loginRequired bool, err error)
}

// Profiles manages a user's temperature schedule.
type Profiles interface {
	GetProfile(ctx context.Context, email string) (models.TemperatureProfile, error)
	SaveProfile(ctx context.Context, p models.TemperatureProfile) (models.TemperatureProfile, error)
	DeleteProfile(ctx context.Context, email string) error
}

// Reconciliation brings devices in line with their users' schedules.
type Reconciliation interface {
	Run(ctx context.Context, opts RunOptions) (RunReport, error)
	RunUser(ctx context.Context, email string) (UserReport, error)
}

// Monitoring exposes a read-only view of a user's device and cycle.
type Monitoring interface {
	Status(ctx context.Context, email string) (StatusView, error)
}

// EventLog exposes the append-only adjustment log with filtering.
type EventLog interface {
	List(ctx context.Context, email string, f LogFilter) ([]models.AdjustmentEvent, error)
}

type Service struct {
	Authorization
	Profiles
	Reconciliation
	Monitoring
	EventLog
}

// Deps are the collaborators the services are built from. Device is the live
// controller (already wrapped for retries); the dry-run strategy is built here.
type Deps struct {
	Auth   Authenticator
	Device device.Controller
	Config config.Auth
	Log    *logger.Logger
}

func NewService(repos *repository.Repository, deps Deps) *Service {
	now := func() time.Time { return time.Now().UTC() }
	creds := newCredentialKeeper(repos.UserRepo, repos.EventRepo, deps.Auth, deps.Log)
	rec := NewReconciler(repos, creds, deps.Device, device.NewDryRun(deps.Log), deps.Log)
	return &Service{
		Authorization:  NewAuthService(repos.UserRepo, deps.Auth, creds, deps.Config, deps.Log),
		Profiles:       NewProfileService(repos.ProfileRepo, rec, deps.Log),
		Reconciliation: rec,
		Monitoring:     NewMonitoringService(repos, creds, deps.Device, now),
		EventLog:       NewEventLogService(repos.EventRepo),
	}
}
