// Package config reads service settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"
	// STREAK_TIMEZONE must resolve in minimal containers too.
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"golang.org/x/xerrors"

	"github.com/writewithwrabit/streaks/db"
)

const (
	defaultPort               = "8080"
	defaultSessionIdleTimeout = 30 * time.Minute

	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

type Config struct {
	Port  string
	Store string

	Database db.Options

	FirebaseCredentialsFile string
	// AuthDisabled trusts bearer tokens as user IDs. Local development only.
	AuthDisabled bool

	MailgunDomain string
	MailgunKey    string
	MailgunSender string

	// Location decides where a streak day starts.
	Location *time.Location

	LogFormat string
	LogLevel  string

	AllowedOrigins     []string
	SessionIdleTimeout time.Duration
}

// MailgunEnabled reports whether failure emails can be sent.
func (c Config) MailgunEnabled() bool {
	return c.MailgunDomain != "" && c.MailgunKey != ""
}

// LoadEnv loads variables from the given files (".env" when none are given)
// without overriding ones already set. Missing files are not an error;
// found reports whether any file was read.
func LoadEnv(files ...string) (found bool, err error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		err := godotenv.Load(file)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return found, xerrors.Errorf("load %s: %w", file, err)
		}
		found = true
	}
	return found, nil
}

// FromEnv builds a Config from environment variables.
func FromEnv() (Config, error) {
	cfg := Config{
		Port:  getenv("PORT", defaultPort),
		Store: getenv("STORE", StorePostgres),
		Database: db.Options{
			URL:                os.Getenv("DATABASE_URL"),
			CloudSQLConnection: os.Getenv("CLOUDSQL_CONNECTION_NAME"),
			User:               os.Getenv("CLOUDSQL_USER"),
			Name:               os.Getenv("CLOUDSQL_DATABASE_NAME"),
			Password:           os.Getenv("CLOUDSQL_PASSWORD"),
		},
		FirebaseCredentialsFile: os.Getenv("FIREBASE_CREDENTIALS_FILE"),
		MailgunDomain:           os.Getenv("MAILGUN_DOMAIN"),
		MailgunKey:              os.Getenv("MAILGUN_KEY"),
		MailgunSender:           os.Getenv("MAILGUN_SENDER"),
		LogFormat:               getenv("LOG_FORMAT", "human"),
		LogLevel:                getenv("LOG_LEVEL", "info"),
		SessionIdleTimeout:      defaultSessionIdleTimeout,
	}

	switch cfg.Store {
	case StoreMemory, StorePostgres:
	default:
		return Config{}, xerrors.Errorf("STORE must be %q or %q, got %q", StorePostgres, StoreMemory, cfg.Store)
	}

	if v := os.Getenv("AUTH_DISABLED"); v != "" {
		disabled, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, xerrors.Errorf("parse AUTH_DISABLED: %w", err)
		}
		cfg.AuthDisabled = disabled
	}

	loc, err := time.LoadLocation(getenv("STREAK_TIMEZONE", "UTC"))
	if err != nil {
		return Config{}, xerrors.Errorf("parse STREAK_TIMEZONE: %w", err)
	}
	cfg.Location = loc

	if v := os.Getenv("SESSION_IDLE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, xerrors.Errorf("parse SESSION_IDLE_TIMEOUT: %w", err)
		}
		if d <= 0 {
			return Config{}, xerrors.Errorf("SESSION_IDLE_TIMEOUT must be positive, got %s", d)
		}
		cfg.SessionIdleTimeout = d
	}

	for _, origin := range strings.Split(os.Getenv("ALLOWED_ORIGINS"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, origin)
		}
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}

	if cfg.MailgunEnabled() && cfg.MailgunSender == "" {
		cfg.MailgunSender = "hello@" + cfg.MailgunDomain
	}

	return cfg, nil
}

func getenv(k, fallback string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return fallback
}
