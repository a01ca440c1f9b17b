package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoader_ParseEnvironment(t *testing.T) {

	t.Run("applies defaults when variables are missing", func(t *testing.T) {
		unset := []string{
			"BOOKING_CONFIG",
			"BOOKING_HTTP_PORT",
			"BOOKING_SQLITE_DSN",
			"BOOKING_AUTH_TOKEN_TTL",
			"BOOKING_PURGE_SCHEDULE",
		}
		for _, key := range unset {
			if err := os.Unsetenv(key); err != nil {
				t.Fatalf("failed to unset %s: %v", key, err)
			}
		}

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPPort != 8080 {
			t.Fatalf("expected default HTTP port 8080, got %d", cfg.HTTPPort)
		}
		if cfg.SQLiteDSN != "file:booking.db?_pragma=foreign_keys(1)" {
			t.Fatalf("unexpected default DSN: %q", cfg.SQLiteDSN)
		}
		if cfg.AuthTokenTTL != 24*time.Hour {
			t.Fatalf("expected default token TTL 24h, got %s", cfg.AuthTokenTTL)
		}
		if cfg.PurgeSchedule != "@hourly" {
			t.Fatalf("unexpected default purge schedule: %q", cfg.PurgeSchedule)
		}
	})

	t.Run("environment overrides defaults", func(t *testing.T) {
		t.Setenv("BOOKING_HTTP_PORT", "9090")
		t.Setenv("BOOKING_SQLITE_DSN", "file:/tmp/booking.db")
		t.Setenv("BOOKING_AUTH_TOKEN_TTL", "12h")
		t.Setenv("BOOKING_PURGE_SCHEDULE", "*/30 * * * *")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPPort != 9090 {
			t.Fatalf("expected HTTP port 9090, got %d", cfg.HTTPPort)
		}
		if cfg.SQLiteDSN != "file:/tmp/booking.db" {
			t.Fatalf("unexpected DSN: %q", cfg.SQLiteDSN)
		}
		if cfg.AuthTokenTTL != 12*time.Hour {
			t.Fatalf("expected token TTL 12h, got %s", cfg.AuthTokenTTL)
		}
		if cfg.PurgeSchedule != "*/30 * * * *" {
			t.Fatalf("unexpected purge schedule: %q", cfg.PurgeSchedule)
		}
	})

	t.Run("reports every invalid value at once", func(t *testing.T) {
		t.Setenv("BOOKING_HTTP_PORT", "not-a-port")
		t.Setenv("BOOKING_AUTH_TOKEN_TTL", "-5h")

		_, err := Load()
		if err == nil {
			t.Fatalf("expected error for invalid values")
		}
		expected := "invalid environment variable values: BOOKING_HTTP_PORT, BOOKING_AUTH_TOKEN_TTL"
		if err.Error() != expected {
			t.Fatalf("unexpected error message: %q", err.Error())
		}
	})

	t.Run("merges yaml file under the environment", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "booking.yaml")
		contents := "http_port: 7000\nsqlite_dsn: file:/var/lib/booking.db\nauth_token_ttl: 6h\n"
		if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
			t.Fatalf("failed to write config file: %v", err)
		}

		t.Setenv("BOOKING_CONFIG", path)
		t.Setenv("BOOKING_HTTP_PORT", "7070")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPPort != 7070 {
			t.Fatalf("expected environment to win over file, got port %d", cfg.HTTPPort)
		}
		if cfg.SQLiteDSN != "file:/var/lib/booking.db" {
			t.Fatalf("expected DSN from file, got %q", cfg.SQLiteDSN)
		}
		if cfg.AuthTokenTTL != 6*time.Hour {
			t.Fatalf("expected token TTL from file, got %s", cfg.AuthTokenTTL)
		}
	})
}
