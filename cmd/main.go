package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bed_temperature/internal/backoff"
	"bed_temperature/internal/config"
	"bed_temperature/internal/device"
	"bed_temperature/internal/eightsleep"
	"bed_temperature/internal/handlers"
	"bed_temperature/internal/logger"
	"bed_temperature/internal/repository"
	"bed_temperature/internal/repository/db"
	"bed_temperature/internal/scheduler"
	"bed_temperature/internal/server"
	"bed_temperature/internal/service"
)

const shutdownTimeout = 10 * time.Second

// @title        Bed Temperature API
// @version      1.0
// @description  Drives a heated mattress cover through a nightly temperature schedule.
// @BasePath     /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @securityDefinitions.apikey  CronSecret
// @in                          header
// @name                        Authorization
func main() {
	// load configs/config.yml, .env and BEDTEMP_* env
	cfg, err := config.Load("configs")
	if err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}

	// init logger
	log := logger.Get(cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	// open DB
	conn, err := openDB(cfg.DB, log)
	if err != nil {
		log.Fatalw("failed to init database", "driver", cfg.DB.Driver, "err", err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			log.Errorw("failed to close database", "err", cerr)
		}
	}()

	// wire dependencies
	client := eightsleep.New(cfg.Eight)
	policy := backoff.Policy{Attempts: cfg.Retry.Attempts, Delay: cfg.Retry.Delay}
	repos := repository.NewRepository(conn, cfg.DB.Driver)
	services := service.NewService(repos, service.Deps{
		Auth:   client,
		Device: device.NewRetrying(client, policy, eightsleep.IsPermanent, log),
		Config: cfg.Auth,
		Log:    log,
	})
	apiHandler := handlers.NewHandler(services, log, cfg.Cron.Secret)

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// start the in-process schedule
	if err := startScheduler(ctx, cfg.Cron.Schedule, services, log); err != nil {
		log.Fatalw("failed to start scheduler", "err", err)
	}

	// start HTTP server
	srv := &server.Server{WriteTimeout: cfg.Server.WriteTimeout}
	runHTTPServer(srv, cfg.Server.Port, apiHandler, log)

	// graceful shutdown
	waitForShutdown(cancel, srv, log)
}

// openDB opens the configured store; sqlite takes a file path, postgres a DSN.
func openDB(cfg config.DB, log *logger.Logger) (*sql.DB, error) {
	if cfg.Driver == db.DriverPostgres {
		return db.InitDB(cfg.Driver, cfg.DSN)
	}
	path := cfg.Path
	if path == "" {
		log.Infow("db.path not set in config; using default file", "default", "app.db")
		path = "app.db"
	}
	return db.InitDB(cfg.Driver, path)
}

// startScheduler runs a live reconciliation pass on schedule. An empty
// schedule leaves the pass to the HTTP cron trigger alone.
func startScheduler(ctx context.Context, schedule string, services *service.Service, log *logger.Logger) error {
	if schedule == "" {
		log.Infow("scheduler_disabled")
		return nil
	}
	sched, err := scheduler.New(schedule, func(ctx context.Context) error {
		report, err := services.Run(ctx, service.RunOptions{})
		if err != nil {
			return err
		}
		if n := report.Failed(); n > 0 {
			log.Warnw("scheduled_pass_partial", "users", len(report.Users), "failed", n)
		}
		return nil
	}, log)
	if err != nil {
		return err
	}
	go func() {
		if err := sched.Run(ctx); err != nil {
			log.Errorw("scheduler_exited", "err", err)
		}
	}()
	return nil
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if port == "" {
			port = "8080"
		}
		log.Infow("http_listening", "port", port)
		if err := srv.Run(port, handler.InitRoutes()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop background goroutines
	cancel()

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}
