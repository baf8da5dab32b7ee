// Package config loads service settings from an optional config.yaml and the environment.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Config struct {
	Env            string
	ListenAddr     string
	DatabaseURL    string
	Store          string
	JWTSecret      string
	JWTExpire      time.Duration
	LogLevel       string
	CORSOrigins    []string
	ExpiryInterval time.Duration
	ExpiryBatch    int
	NotifyBuffer   int
	DBMaxConns     int32
}

var defaults = map[string]any{
	"app_env":         "production",
	"listen_addr":     ":8080",
	"store":           StorePostgres,
	"jwt_expire":      "168h",
	"log_level":       "info",
	"cors_origins":    "*",
	"expiry_interval": "1h",
	"expiry_batch":    100,
	"notify_buffer":   256,
	"db_max_conns":    10,
}

// Load reads path (or ./config.yaml when path is empty and the file exists) and
// applies environment overrides. Keys are the environment names in lower case.
func Load(path string) (Config, error) {
	v := viper.New()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
	}
	v.AutomaticEnv()
	for _, k := range []string{"database_url", "jwt_secret"} {
		_ = v.BindEnv(k)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := Config{
		Env:          v.GetString("app_env"),
		ListenAddr:   v.GetString("listen_addr"),
		DatabaseURL:  v.GetString("database_url"),
		Store:        strings.ToLower(v.GetString("store")),
		JWTSecret:    v.GetString("jwt_secret"),
		LogLevel:     v.GetString("log_level"),
		CORSOrigins:  splitList(v.GetString("cors_origins")),
		ExpiryBatch:  v.GetInt("expiry_batch"),
		NotifyBuffer: v.GetInt("notify_buffer"),
		DBMaxConns:   v.GetInt32("db_max_conns"),
	}
	var err error
	if cfg.JWTExpire, err = parseDuration(v.GetString("jwt_expire")); err != nil {
		return Config{}, fmt.Errorf("JWT_EXPIRE: %w", err)
	}
	if cfg.ExpiryInterval, err = parseDuration(v.GetString("expiry_interval")); err != nil {
		return Config{}, fmt.Errorf("EXPIRY_INTERVAL: %w", err)
	}
	return cfg, nil
}

// Validate checks what the server needs before it starts.
func (c Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	switch c.Store {
	case StorePostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres store"))
		}
	case StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("STORE must be %q or %q, got %q", StorePostgres, StoreMemory, c.Store))
	}
	if c.JWTExpire <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRE must be positive"))
	}
	return errors.Join(errs...)
}

func (c Config) Development() bool { return c.Env == "development" }

// parseDuration accepts Go durations plus a day suffix ("7d").
func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		return 0, nil
	}
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	return time.ParseDuration(s)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
