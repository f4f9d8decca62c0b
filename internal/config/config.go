// Package config loads service settings from configs/config.yml, an optional
// .env file and BEDTEMP_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "BEDTEMP"

// Eight holds the upstream device-API endpoints and OAuth client identity.
type Eight struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	AuthURL      string `mapstructure:"auth_url"`
	ClientAPIURL string `mapstructure:"client_api_url"`
	AppAPIURL    string `mapstructure:"app_api_url"`
	// DeviceCacheTTL bounds how long a user's device id and side are reused.
	DeviceCacheTTL time.Duration `mapstructure:"device_cache_ttl"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

type DB struct {
	Driver string `mapstructure:"driver"` // sqlite | postgres
	Path   string `mapstructure:"path"`   // sqlite file
	DSN    string `mapstructure:"dsn"`    // postgres connection string
}

type Auth struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

type Cron struct {
	Secret   string `mapstructure:"secret"`
	Schedule string `mapstructure:"schedule"` // empty disables the in-process scheduler
}

type Retry struct {
	Attempts uint          `mapstructure:"attempts"`
	Delay    time.Duration `mapstructure:"delay"`
}

type Server struct {
	Port         string        `mapstructure:"port"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Config is loaded once at start-up and passed explicitly to every component.
type Config struct {
	LogLevel string `mapstructure:"log_level"`
	Server   Server `mapstructure:"server"`
	DB       DB     `mapstructure:"db"`
	Auth     Auth   `mapstructure:"auth"`
	Cron     Cron   `mapstructure:"cron"`
	Retry    Retry  `mapstructure:"retry"`
	Eight    Eight  `mapstructure:"eight"`
}

var (
	errMissingJWTSecret  = errors.New("auth.jwt_secret is required")
	errMissingCronSecret = errors.New("cron.secret is required")
	errMissingClient     = errors.New("eight.client_id and eight.client_secret are required")
	errUnknownDriver     = errors.New("db.driver must be sqlite or postgres")
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.write_timeout", 2*time.Minute)
	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.path", "app.db")
	v.SetDefault("auth.token_ttl", 90*24*time.Hour)
	v.SetDefault("cron.schedule", "*/5 * * * *")
	v.SetDefault("retry.attempts", 3)
	v.SetDefault("retry.delay", time.Second)
	v.SetDefault("eight.auth_url", "https://auth-api.8slp.net/v1/tokens")
	v.SetDefault("eight.client_api_url", "https://client-api.8slp.net/v1")
	v.SetDefault("eight.app_api_url", "https://app-api.8slp.net")
	v.SetDefault("eight.device_cache_ttl", time.Hour)
	v.SetDefault("eight.timeout", 30*time.Second)
}

// bindEnv registers every known key so Unmarshal sees env-only values.
func bindEnv(v *viper.Viper) error {
	for _, key := range []string{
		"log_level",
		"server.port", "server.write_timeout",
		"db.driver", "db.path", "db.dsn",
		"auth.jwt_secret", "auth.token_ttl",
		"cron.secret", "cron.schedule",
		"retry.attempts", "retry.delay",
		"eight.client_id", "eight.client_secret", "eight.auth_url",
		"eight.client_api_url", "eight.app_api_url",
		"eight.device_cache_ttl", "eight.timeout",
	} {
		if err := v.BindEnv(key); err != nil {
			return fmt.Errorf("bind env %q: %w", key, err)
		}
	}
	return nil
}

// Load reads configuration from dir/config.yml (if present), .env and the
// environment, in increasing order of precedence.
func Load(dir string) (Config, error) {
	// .env is optional; a missing file is not an error.
	_ = godotenv.Load()

	v := viper.New()
	v.AddConfigPath(dir)
	v.SetConfigName("config")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	if err := bindEnv(v); err != nil {
		return Config{}, err
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the settings the service cannot start without.
func (c Config) Validate() error {
	switch c.DB.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("%w: %q", errUnknownDriver, c.DB.Driver)
	}
	if c.Auth.JWTSecret == "" {
		return errMissingJWTSecret
	}
	if c.Cron.Secret == "" {
		return errMissingCronSecret
	}
	if c.Eight.ClientID == "" || c.Eight.ClientSecret == "" {
		return errMissingClient
	}
	return nil
}
