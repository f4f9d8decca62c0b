package handlers

import (
	"context"
	"net/http"
	"time"

	"bed_temperature/internal/models"
	"bed_temperature/internal/service"

	"github.com/gin-gonic/gin"
)

const testCronSecret = "cron-secret"

// ---- Service Mocks ----

type mockAuth struct {
	token         string
	signInErr     error
	parseEmail    string
	parseErr      error
	loginRequired bool
	sessionErr    error

	lastEmail      string
	lastPassword   string
	lastParseToken string
}

func (m *mockAuth) SignIn(ctx context.Context, email, password string) (string, error) {
	m.lastEmail = email
	m.lastPassword = password
	return m.token, m.signInErr
}
func (m *mockAuth) ParseToken(token string) (string, error) {
	m.lastParseToken = token
	return m.parseEmail, m.parseErr
}
func (m *mockAuth) CheckSession(ctx context.Context, email string) (bool, error) {
	m.lastEmail = email
	return m.loginRequired, m.sessionErr
}

type mockProfiles struct {
	profile   models.TemperatureProfile
	getErr    error
	saveErr   error
	deleteErr error

	lastSaved   models.TemperatureProfile
	lastEmail   string
	deleteCalls int
}

func (m *mockProfiles) GetProfile(ctx context.Context, email string) (models.TemperatureProfile, error) {
	m.lastEmail = email
	return m.profile, m.getErr
}
func (m *mockProfiles) SaveProfile(ctx context.Context, p models.TemperatureProfile) (models.TemperatureProfile, error) {
	m.lastSaved = p
	if m.saveErr != nil {
		return models.TemperatureProfile{}, m.saveErr
	}
	return p, nil
}
func (m *mockProfiles) DeleteProfile(ctx context.Context, email string) error {
	m.lastEmail = email
	m.deleteCalls++
	return m.deleteErr
}

type mockReconciliation struct {
	report     service.RunReport
	err        error
	lastOpts   service.RunOptions
	lastCtxErr error
	runCalls   int
}

func (m *mockReconciliation) Run(ctx context.Context, opts service.RunOptions) (service.RunReport, error) {
	m.runCalls++
	m.lastOpts = opts
	m.lastCtxErr = ctx.Err()
	return m.report, m.err
}
func (m *mockReconciliation) RunUser(ctx context.Context, email string) (service.UserReport, error) {
	return service.UserReport{Email: email}, m.err
}

type mockMonitoring struct {
	view      service.StatusView
	err       error
	lastEmail string
}

func (m *mockMonitoring) Status(ctx context.Context, email string) (service.StatusView, error) {
	m.lastEmail = email
	return m.view, m.err
}

type mockEventLog struct {
	resp      []models.AdjustmentEvent
	err       error
	lastEmail string
	lastFrom  time.Time
	lastTo    time.Time
	lastType  string
}

func (m *mockEventLog) List(ctx context.Context, email string, f service.LogFilter) ([]models.AdjustmentEvent, error) {
	m.lastEmail = email
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil, testCronSecret)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}

func withHeader(req *http.Request, hdr http.Header) *http.Request {
	for k, vv := range hdr {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	return req
}
