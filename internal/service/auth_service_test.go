package service

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"testing"
	"time"

	"bed_temperature/internal/config"
	"bed_temperature/internal/eightsleep"
	"bed_temperature/internal/logger"
	"bed_temperature/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

func newTestAuthService(h *harness) *AuthService {
	svc := NewAuthService(h.users, h.auth, h.creds, config.Auth{JWTSecret: testSecret, TokenTTL: time.Hour}, logger.Nop())
	return svc
}

// --- SignIn tests ---

func TestAuthService_SignIn_StoresCredentialsAndIssuesToken(t *testing.T) {
	h := newHarness()
	h.auth.creds = validCreds
	svc := newTestAuthService(h)

	token, err := svc.SignIn(context.Background(), "  Alice@Example.com ", "pw")
	if err != nil {
		t.Fatalf("SignIn returned error: %v", err)
	}
	if token == "" {
		t.Fatalf("expected non-empty token")
	}

	email, err := svc.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken failed: %v", err)
	}
	if email != "alice@example.com" {
		t.Fatalf("expected normalized email in token, got %q", email)
	}

	u, err := h.users.GetByEmail(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("user not stored: %v", err)
	}
	if u.Credentials != validCreds {
		t.Fatalf("stored credentials = %+v, want %+v", u.Credentials, validCreds)
	}
}

func TestAuthService_SignIn_Errors(t *testing.T) {
	tests := []struct {
		name         string
		email, pw    string
		authErr      error
		wantLoginErr bool
	}{
		{name: "empty password", email: "a@example.com", pw: "", wantLoginErr: true},
		{name: "empty email", email: "  ", pw: "pw", wantLoginErr: true},
		{name: "rejected upstream", email: "a@example.com", pw: "bad", authErr: &eightsleep.AuthError{StatusCode: 401, Msg: "token request rejected"}, wantLoginErr: true},
		{name: "network failure", email: "a@example.com", pw: "pw", authErr: errors.New("dial tcp: timeout"), wantLoginErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			h.auth.authErr = tt.authErr
			svc := newTestAuthService(h)

			_, err := svc.SignIn(context.Background(), tt.email, tt.pw)
			if err == nil {
				t.Fatalf("expected error, got nil")
			}
			if got := errors.Is(err, ErrLoginFailed); got != tt.wantLoginErr {
				t.Fatalf("errors.Is(err, ErrLoginFailed) = %v, want %v (err=%v)", got, tt.wantLoginErr, err)
			}
			if len(h.users.byEmail) != 0 {
				t.Fatalf("no user should be stored on failure")
			}
		})
	}
}

// --- ParseToken tests ---

func signedToken(t *testing.T, method jwt.SigningMethod, key any, email string, exp time.Time) string {
	t.Helper()
	tk := jwt.NewWithClaims(method, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(exp.Add(-time.Hour)),
		},
		Email: email,
	})
	s, err := tk.SignedString(key)
	if err != nil {
		t.Fatalf("SignedString failed: %v", err)
	}
	return s
}

func TestAuthService_ParseToken(t *testing.T) {
	svc := newTestAuthService(newHarness())
	rsaKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("rsa.GenerateKey failed: %v", err)
	}
	future := time.Now().Add(time.Hour)

	tests := []struct {
		name    string
		token   string
		want    string
		wantErr bool
	}{
		{name: "valid", token: signedToken(t, jwt.SigningMethodHS256, []byte(testSecret), "a@example.com", future), want: "a@example.com"},
		{name: "malformed", token: "not-a-jwt", wantErr: true},
		{name: "wrong key", token: signedToken(t, jwt.SigningMethodHS256, []byte("other"), "a@example.com", future), wantErr: true},
		{name: "expired", token: signedToken(t, jwt.SigningMethodHS256, []byte(testSecret), "a@example.com", time.Now().Add(-time.Hour)), wantErr: true},
		{name: "rsa signed", token: signedToken(t, jwt.SigningMethodRS256, rsaKey, "a@example.com", future), wantErr: true},
		{name: "missing email", token: signedToken(t, jwt.SigningMethodHS256, []byte(testSecret), "", future), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.ParseToken(tt.token)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got email %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseToken returned error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("email = %q, want %q", got, tt.want)
			}
		})
	}
}

// --- CheckSession tests ---

func TestAuthService_CheckSession(t *testing.T) {
	expired := validCreds
	expired.ExpiresAt = testNow.Add(-time.Minute)

	tests := []struct {
		name       string
		users      []models.User
		refreshErr error
		want       bool
	}{
		{name: "unknown user", want: true},
		{name: "valid credentials", users: []models.User{testUser("a@example.com", validCreds)}, want: false},
		{name: "expired but refreshable", users: []models.User{testUser("a@example.com", expired)}, want: false},
		{name: "expired and refresh rejected", users: []models.User{testUser("a@example.com", expired)}, refreshErr: errors.New("revoked"), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(tt.users...)
			h.auth.refreshErr = tt.refreshErr
			svc := newTestAuthService(h)
			svc.now = func() time.Time { return testNow }

			got, err := svc.CheckSession(context.Background(), "a@example.com")
			if err != nil {
				t.Fatalf("CheckSession: %v", err)
			}
			if got != tt.want {
				t.Fatalf("login_required = %v, want %v", got, tt.want)
			}
		})
	}
}
