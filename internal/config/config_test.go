package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/erazemk/izposoja/internal/db"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DB.Driver != db.DriverSQLite {
		t.Errorf("expected sqlite driver, got %q", cfg.DB.Driver)
	}
	if cfg.Alloc.RetryAttempts != 3 {
		t.Errorf("expected 3 retry attempts, got %d", cfg.Alloc.RetryAttempts)
	}
	if cfg.Notify.SweepInterval != 5*time.Minute {
		t.Errorf("expected 5m sweep interval, got %s", cfg.Notify.SweepInterval)
	}
	if cfg.Alloc.RetryJitter != 0.3 {
		t.Errorf("expected 0.3 retry jitter, got %g", cfg.Alloc.RetryJitter)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, "izposoja.yaml", `
db:
  driver: pgx
  dsn: postgres://localhost/izposoja
addr: 127.0.0.1:9000
alloc:
  retry_attempts: 5
  retry_jitter: 0.5
notify:
  sweep_interval: 1m
  kafka_brokers: [kafka-1:9092, kafka-2:9092]
`)

	cfg, err := Load(path, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DB.Driver != db.DriverPgx || cfg.DB.DSN != "postgres://localhost/izposoja" {
		t.Errorf("unexpected db config: %+v", cfg.DB)
	}
	if cfg.Addr != "127.0.0.1:9000" {
		t.Errorf("expected addr from file, got %q", cfg.Addr)
	}
	if cfg.Alloc.RetryAttempts != 5 {
		t.Errorf("expected 5 retry attempts, got %d", cfg.Alloc.RetryAttempts)
	}
	if cfg.Alloc.RetryJitter != 0.5 {
		t.Errorf("expected 0.5 retry jitter from file, got %g", cfg.Alloc.RetryJitter)
	}
	if cfg.Notify.SweepInterval != time.Minute {
		t.Errorf("expected 1m sweep interval, got %s", cfg.Notify.SweepInterval)
	}
	if want := []string{"kafka-1:9092", "kafka-2:9092"}; !reflect.DeepEqual(cfg.Notify.KafkaBrokers, want) {
		t.Errorf("expected brokers %v, got %v", want, cfg.Notify.KafkaBrokers)
	}
	// Untouched keys keep their defaults.
	if cfg.AdminUser != "admin" {
		t.Errorf("expected default admin user, got %q", cfg.AdminUser)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), ""); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeFile(t, "izposoja.yaml", "addr: :9000\n")
	t.Setenv("IZPOSOJA_ADDR", ":7000")
	t.Setenv("IZPOSOJA_KAFKA_BROKERS", "a:9092, b:9092")
	t.Setenv("IZPOSOJA_SWEEP_INTERVAL", "30s")
	t.Setenv("IZPOSOJA_RETRY_JITTER", "0")

	cfg, err := Load(path, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":7000" {
		t.Errorf("expected env addr, got %q", cfg.Addr)
	}
	if want := []string{"a:9092", "b:9092"}; !reflect.DeepEqual(cfg.Notify.KafkaBrokers, want) {
		t.Errorf("expected brokers %v, got %v", want, cfg.Notify.KafkaBrokers)
	}
	if cfg.Notify.SweepInterval != 30*time.Second {
		t.Errorf("expected 30s sweep interval, got %s", cfg.Notify.SweepInterval)
	}
	if cfg.Alloc.RetryJitter != 0 {
		t.Errorf("expected env to disable jitter, got %g", cfg.Alloc.RetryJitter)
	}
}

func TestLoadEnvFile(t *testing.T) {
	envFile := writeFile(t, ".env", "IZPOSOJA_ADMIN_USER=root\nIZPOSOJA_ADDR=:6000\n")
	// Variables already set win over the file.
	t.Setenv("IZPOSOJA_ADDR", ":5000")
	// godotenv sets variables in the process; clear the one the test owns.
	t.Setenv("IZPOSOJA_ADMIN_USER", "")
	os.Unsetenv("IZPOSOJA_ADMIN_USER")

	cfg, err := Load("", envFile)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AdminUser != "root" {
		t.Errorf("expected admin user from env file, got %q", cfg.AdminUser)
	}
	if cfg.Addr != ":5000" {
		t.Errorf("expected environment to win over env file, got %q", cfg.Addr)
	}
}

func TestLoadMissingEnvFileIgnored(t *testing.T) {
	if _, err := Load("", filepath.Join(t.TempDir(), ".env")); err != nil {
		t.Errorf("expected missing env file to be ignored, got %v", err)
	}
}

func TestLoadBadEnvValue(t *testing.T) {
	t.Setenv("IZPOSOJA_RETRY_ATTEMPTS", "many")
	if _, err := Load("", ""); err == nil {
		t.Error("expected error for non-numeric retry attempts")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"unknown driver", func(c *Config) { c.DB.Driver = "mysql" }},
		{"empty dsn", func(c *Config) { c.DB.DSN = "" }},
		{"empty addr", func(c *Config) { c.Addr = "" }},
		{"no retries", func(c *Config) { c.Alloc.RetryAttempts = 0 }},
		{"negative delay", func(c *Config) { c.Alloc.RetryBaseDelay = -time.Second }},
		{"jitter above one", func(c *Config) { c.Alloc.RetryJitter = 1.5 }},
		{"negative jitter", func(c *Config) { c.Alloc.RetryJitter = -0.1 }},
		{"zero sweep", func(c *Config) { c.Notify.SweepInterval = 0 }},
		{"brokers without topic", func(c *Config) {
			c.Notify.KafkaBrokers = []string{"k:9092"}
			c.Notify.KafkaTopic = ""
		}},
	}

	for _, tt := range tests {
		cfg := Default()
		tt.modify(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tt.name)
		}
	}

	if err := Default().Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}
