package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"bed_temperature/internal/models"
	"bed_temperature/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// --- parseInterval unit tests ---

func TestParseInterval(t *testing.T) {
	h := NewHandler(&service.Service{}, nil, "")

	cases := []struct {
		name string
		u    string
		want time.Duration
	}{
		{"default_when_missing", "/ws", defaultInterval},
		{"interval_string_valid", "/ws?interval=200ms", 200 * time.Millisecond},
		{"interval_ms_valid", "/ws?interval_ms=150", 150 * time.Millisecond},
		{"interval_too_small", "/ws?interval=10ms", defaultInterval},
		{"interval_too_large", "/ws?interval=20m", defaultInterval},
		{"interval_ms_too_large", "/ws?interval_ms=900000", defaultInterval},
		{"interval_invalid_string", "/ws?interval=bogus", defaultInterval},
		{"interval_ms_invalid", "/ws?interval_ms=NaN", defaultInterval},
		{"both_present_interval_wins", "/ws?interval=2s&interval_ms=150", 2 * time.Second},
		{"both_present_invalid_interval_ms_used", "/ws?interval=bogus&interval_ms=250", 250 * time.Millisecond},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, tc.u, nil)
			if got := h.parseInterval(c); got != tc.want {
				t.Fatalf("got %v, want %v for %s", got, tc.want, tc.u)
			}
		})
	}
}

// --- websocket integration tests ---

type envelope struct {
	Type  string          `json:"type"`
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
}

func dialStatus(t *testing.T, mon *mockMonitoring) *websocket.Conn {
	t.Helper()
	gin.SetMode(gin.TestMode)
	s := &service.Service{Monitoring: mon}
	r := gin.New()
	h := NewHandler(s, nil, "")
	r.GET("/ws", func(c *gin.Context) { c.Set(ctxEmailKey, "ann@example.com") }, h.wsConnect)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	u, _ := url.Parse(srv.URL)
	u.Scheme = "ws"
	u.Path = "/ws"
	q := u.Query()
	q.Set("interval_ms", "150")
	u.RawQuery = q.Encode()

	dialer := websocket.Dialer{HandshakeTimeout: 2 * time.Second}
	conn, _, err := dialer.Dial(u.String(), nil)
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestWebSocket_StatusStream_InitialAndPeriodic(t *testing.T) {
	mon := &mockMonitoring{view: service.StatusView{
		Email:   "ann@example.com",
		Heating: models.HeatingStatus{IsHeating: true, HeatingLevel: 30, TargetHeatingLevel: 30},
	}}
	conn := dialStatus(t, mon)

	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	var env envelope
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("read initial: %v", err)
	}
	if env.Type != "status" || len(env.Data) == 0 {
		t.Fatalf("bad envelope: %+v", env)
	}
	var view service.StatusView
	if err := json.Unmarshal(env.Data, &view); err != nil {
		t.Fatalf("unmarshal status: %v", err)
	}
	if view.Email != "ann@example.com" || !view.Heating.IsHeating || view.Heating.HeatingLevel != 30 {
		t.Fatalf("unexpected status: %+v", view)
	}
	if mon.lastEmail != "ann@example.com" {
		t.Fatalf("status fetched for %q", mon.lastEmail)
	}

	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	env = envelope{}
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("read second: %v", err)
	}
	if env.Type != "status" {
		t.Fatalf("expected type=status, got %+v", env)
	}
}

func TestWebSocket_StatusError_SendsErrorEnvelope(t *testing.T) {
	conn := dialStatus(t, &mockMonitoring{err: errors.New("boom")})

	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	var env envelope
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("read: %v", err)
	}
	if env.Type != "error" || env.Error != "boom" {
		t.Fatalf("expected error envelope, got %+v", env)
	}
}
