package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures configuration values for the booking engine service.
type Config struct {
	HTTPPort      int
	SQLiteDSN     string
	AuthTokenTTL  time.Duration
	PurgeSchedule string
}

// fileConfig mirrors Config for YAML decoding. Durations are written as
// strings ("6h") in the file and parsed here.
type fileConfig struct {
	HTTPPort      int    `yaml:"http_port"`
	SQLiteDSN     string `yaml:"sqlite_dsn"`
	AuthTokenTTL  string `yaml:"auth_token_ttl"`
	PurgeSchedule string `yaml:"purge_schedule"`
}

// Load builds configuration from an optional YAML file named by
// BOOKING_CONFIG, with BOOKING_* environment variables taking precedence.
//
// Missing and invalid variable names are accumulated so a single error
// reports every problem at once.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:      8080,
		SQLiteDSN:     "file:booking.db?_pragma=foreign_keys(1)",
		AuthTokenTTL:  24 * time.Hour,
		PurgeSchedule: "@hourly",
	}

	if path := strings.TrimSpace(os.Getenv("BOOKING_CONFIG")); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("BOOKING_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "BOOKING_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("BOOKING_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if ttlValue := strings.TrimSpace(os.Getenv("BOOKING_AUTH_TOKEN_TTL")); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "BOOKING_AUTH_TOKEN_TTL")
		} else {
			cfg.AuthTokenTTL = ttl
		}
	}

	if schedule := strings.TrimSpace(os.Getenv("BOOKING_PURGE_SCHEDULE")); schedule != "" {
		cfg.PurgeSchedule = schedule
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variable values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	var file fileConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	if file.HTTPPort > 0 {
		cfg.HTTPPort = file.HTTPPort
	}
	if file.SQLiteDSN != "" {
		cfg.SQLiteDSN = file.SQLiteDSN
	}
	if file.AuthTokenTTL != "" {
		ttl, err := time.ParseDuration(file.AuthTokenTTL)
		if err != nil || ttl <= 0 {
			return fmt.Errorf("parse config file %s: invalid auth_token_ttl %q", path, file.AuthTokenTTL)
		}
		cfg.AuthTokenTTL = ttl
	}
	if file.PurgeSchedule != "" {
		cfg.PurgeSchedule = file.PurgeSchedule
	}
	return nil
}
