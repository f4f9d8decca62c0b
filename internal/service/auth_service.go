package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bed_temperature/internal/config"
	"bed_temperature/internal/eightsleep"
	"bed_temperature/internal/logger"
	"bed_temperature/internal/models"
	"bed_temperature/internal/repository"

	"github.com/golang-jwt/jwt/v5"
)

const defaultTokenTTL = 90 * 24 * time.Hour

// Domain errors for auth flows.
var (
	ErrLoginFailed  = errors.New("login failed")
	ErrInvalidToken = errors.New("invalid token")
	errEmptyLogin   = errors.New("email and password are required")
)

// AuthService signs users in against the device API and issues session tokens.
type AuthService struct {
	users  repository.UserRepo
	auth   Authenticator
	creds  *credentialKeeper
	secret []byte
	ttl    time.Duration
	log    *logger.Logger
	now    func() time.Time
}

func NewAuthService(users repository.UserRepo, auth Authenticator, creds *credentialKeeper, cfg config.Auth, log *logger.Logger) *AuthService {
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &AuthService{
		users:  users,
		auth:   auth,
		creds:  creds,
		secret: []byte(cfg.JWTSecret),
		ttl:    ttl,
		log:    log,
		now:    time.Now,
	}
}

// Claims defines JWT claims
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// SignIn authenticates upstream, stores the credentials and returns a JWT.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (string, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return "", fmt.Errorf("%w: %w", ErrLoginFailed, errEmptyLogin)
	}

	creds, err := s.auth.Authenticate(ctx, email, password)
	if err != nil {
		var authErr *eightsleep.AuthError
		if errors.As(err, &authErr) {
			return "", fmt.Errorf("%w: %w", ErrLoginFailed, err)
		}
		return "", fmt.Errorf("authenticate %s: %w", email, err)
	}

	if err := s.users.Upsert(ctx, models.User{Email: email, Credentials: creds}); err != nil {
		return "", err
	}
	if s.log != nil {
		s.log.Infow("user_signed_in", "email", email)
	}
	return s.issueToken(email)
}

// ParseToken parses JWT and returns the email it was issued for.
func (s *AuthService) ParseToken(accessToken string) (string, error) {
	token, err := jwt.ParseWithClaims(accessToken, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Ensure HMAC signing is used
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Email == "" {
		return "", ErrInvalidToken
	}
	return claims.Email, nil
}

// CheckSession reports whether the user must sign in again: either no stored
// credentials exist or they expired and could not be refreshed.
func (s *AuthService) CheckSession(ctx context.Context, email string) (bool, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	if _, err := s.creds.fresh(ctx, u, s.now().UTC()); err != nil {
		if s.log != nil {
			s.log.Warnw("session_refresh_failed", "email", email, "err", err)
		}
		return true, nil
	}
	return false, nil
}

func (s *AuthService) issueToken(email string) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Email: email,
	})
	return token.SignedString(s.secret)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
