package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"bed_temperature/internal/models"
	"bed_temperature/internal/repository"
	"bed_temperature/internal/sleepcycle"
)

func newTestMonitoring(h *harness) *MonitoringService {
	repos := &repository.Repository{UserRepo: h.users, ProfileRepo: h.profiles, EventRepo: h.events}
	return NewMonitoringService(repos, h.creds, h.live, func() time.Time { return testNow })
}

func TestMonitoringService_Status(t *testing.T) {
	h := newHarness(testUser("a@example.com", validCreds))
	h.live.status = models.HeatingStatus{IsHeating: true, HeatingLevel: 0}
	svc := newTestMonitoring(h)

	view, err := svc.Status(context.Background(), "a@example.com")
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if view.Degrees.Celsius != 27 || view.Degrees.Fahrenheit <= 80 || view.Degrees.Fahrenheit >= 81 {
		t.Fatalf("unexpected degrees: %+v", view.Degrees)
	}
	if view.Decision.Target != sleepcycle.StagePreHeating {
		t.Fatalf("target = %q, want pre-heating", view.Decision.Target)
	}
	// status never acts
	for _, c := range h.live.calls {
		if c != "status" {
			t.Fatalf("Status issued a device command: %v", h.live.calls)
		}
	}
	if !view.Cycle.PreHeating.Equal(time.Date(2024, 6, 1, 21, 0, 0, 0, time.UTC)) {
		t.Fatalf("pre-heating = %v", view.Cycle.PreHeating)
	}
}

func TestMonitoringService_Status_Errors(t *testing.T) {
	t.Run("no profile", func(t *testing.T) {
		h := newHarness(testUser("a@example.com", validCreds))
		delete(h.profiles.byEmail, "a@example.com")
		if _, err := newTestMonitoring(h).Status(context.Background(), "a@example.com"); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
	t.Run("device failure", func(t *testing.T) {
		h := newHarness(testUser("a@example.com", validCreds))
		h.live.statusErr = errors.New("502")
		if _, err := newTestMonitoring(h).Status(context.Background(), "a@example.com"); err == nil {
			t.Fatalf("expected error")
		}
	})
}
