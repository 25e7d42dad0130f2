package config

import (
	"testing"
	"time"
)

func TestNewDefaults(t *testing.T) {
	cfg, err := New()
	if err != nil {
		t.Fatalf("New() returned error: %v", err)
	}

	if cfg.HTTP.Port != 8080 {
		t.Errorf("HTTP.Port = %d, want 8080", cfg.HTTP.Port)
	}
	if cfg.Database.Driver != "postgres" {
		t.Errorf("Database.Driver = %q, want postgres", cfg.Database.Driver)
	}
	if cfg.Database.ReaderDSN != cfg.Database.WriterDSN {
		t.Errorf("ReaderDSN should fall back to WriterDSN, got %q", cfg.Database.ReaderDSN)
	}
	if cfg.Messaging.Kafka.Topic != "orders.events" {
		t.Errorf("Kafka.Topic = %q, want orders.events", cfg.Messaging.Kafka.Topic)
	}
	if cfg.Observability.ServiceName != "brioche" {
		t.Errorf("ServiceName = %q, want brioche", cfg.Observability.ServiceName)
	}
}

func TestNewDisabledSubsystemsForceNoopDrivers(t *testing.T) {
	t.Setenv("CACHE_ENABLED", "false")
	t.Setenv("MESSAGING_ENABLED", "false")

	cfg, err := New()
	if err != nil {
		t.Fatalf("New() returned error: %v", err)
	}

	if cfg.Cache.Driver != "noop" {
		t.Errorf("Cache.Driver = %q, want noop", cfg.Cache.Driver)
	}
	if cfg.Messaging.Driver != "noop" {
		t.Errorf("Messaging.Driver = %q, want noop", cfg.Messaging.Driver)
	}
}

func TestNewRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "negative http port", key: "HTTP_PORT", value: "-1"},
		{name: "unknown cache driver", key: "CACHE_DRIVER", value: "memcached"},
		{name: "unknown messaging driver", key: "MESSAGING_DRIVER", value: "nats"},
		{name: "unknown database driver", key: "DB_DRIVER", value: "oracle"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			if _, err := New(); err == nil {
				t.Fatalf("New() accepted %s=%s", tt.key, tt.value)
			}
		})
	}
}

func TestNewRequiresTelegramSettingsWhenEnabled(t *testing.T) {
	t.Setenv("TELEGRAM_ENABLED", "true")

	if _, err := New(); err == nil {
		t.Fatal("New() accepted enabled telegram notifications without token")
	}

	t.Setenv("TELEGRAM_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_CHAT_ID", "-100200300")

	cfg, err := New()
	if err != nil {
		t.Fatalf("New() returned error: %v", err)
	}
	if cfg.Notifications.Telegram.ChatID != -100200300 {
		t.Errorf("Telegram.ChatID = %d, want -100200300", cfg.Notifications.Telegram.ChatID)
	}
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("TEST_STR", "hello")
	t.Setenv("TEST_INT", "42")
	t.Setenv("TEST_INT64", "9000000000")
	t.Setenv("TEST_BOOL", "true")
	t.Setenv("TEST_DURATION", "30s")
	t.Setenv("TEST_SLICE", "a, b ,c")
	t.Setenv("TEST_BAD_INT", "nope")

	if got := getEnv("TEST_STR", "x"); got != "hello" {
		t.Errorf("getEnv = %q, want hello", got)
	}
	if got := getEnv("TEST_MISSING", "x"); got != "x" {
		t.Errorf("getEnv fallback = %q, want x", got)
	}
	if got := getEnvAsInt("TEST_INT", 0); got != 42 {
		t.Errorf("getEnvAsInt = %d, want 42", got)
	}
	if got := getEnvAsInt("TEST_BAD_INT", 7); got != 7 {
		t.Errorf("getEnvAsInt bad value = %d, want fallback 7", got)
	}
	if got := getEnvAsInt64("TEST_INT64", 0); got != 9000000000 {
		t.Errorf("getEnvAsInt64 = %d, want 9000000000", got)
	}
	if got := getEnvAsBool("TEST_BOOL", false); !got {
		t.Error("getEnvAsBool = false, want true")
	}
	if got := getEnvAsDuration("TEST_DURATION", 0); got != 30*time.Second {
		t.Errorf("getEnvAsDuration = %v, want 30s", got)
	}

	slice := getEnvAsStringSlice("TEST_SLICE", nil)
	if len(slice) != 3 || slice[0] != "a" || slice[1] != "b" || slice[2] != "c" {
		t.Errorf("getEnvAsStringSlice = %v, want [a b c]", slice)
	}
}
