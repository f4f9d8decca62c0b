// Package eightsleep is a small client for the Eight Sleep auth and device
// APIs: token grants, per-side heating status and temperature commands.
package eightsleep

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"bed_temperature/internal/config"

	"github.com/maypok86/otter/v2"
)

const (
	userAgent        = "Android App"
	maxDeviceEntries = 10_000
	// tokenExpiryBuffer makes stored credentials expire a little before the
	// upstream token does, so a tick never starts with a token about to lapse.
	tokenExpiryBuffer = 120 * time.Second
)

// deviceRef is the device and side a user sleeps on.
type deviceRef struct {
	DeviceID string
	Side     string
}

// Client talks to the upstream APIs configured in config.Eight.
type Client struct {
	cfg     config.Eight
	http    *http.Client
	devices *otter.Cache[string, deviceRef]
	now     func() time.Time
}

// New builds a client. The HTTP timeout and device cache TTL come from cfg.
func New(cfg config.Eight) *Client {
	ttl := cfg.DeviceCacheTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: timeout},
		devices: otter.Must(&otter.Options[string, deviceRef]{
			MaximumSize:      maxDeviceEntries,
			ExpiryCalculator: otter.ExpiryWriting[string, deviceRef](ttl),
		}),
		now: time.Now,
	}
}

// doJSON sends body (if any) as JSON and decodes a 2xx response into out (if any).
func (c *Client) doJSON(ctx context.Context, method, url, accessToken string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rd)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &APIError{Method: method, Path: pathOf(url), StatusCode: resp.StatusCode}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", pathOf(url), err)
	}
	return nil
}

// pathOf strips scheme and host for error messages.
func pathOf(url string) string {
	if i := strings.Index(url, "://"); i >= 0 {
		rest := url[i+3:]
		if j := strings.IndexByte(rest, '/'); j >= 0 {
			return rest[j:]
		}
		return "/"
	}
	return url
}

func joinURL(base string, parts ...string) string {
	return strings.TrimRight(base, "/") + "/" + strings.Join(parts, "/")
}
