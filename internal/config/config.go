// Package config loads server configuration from defaults, an optional
// YAML file, a .env file, and IZPOSOJA_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/erazemk/izposoja/internal/db"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "IZPOSOJA_"

// Config holds the server configuration.
type Config struct {
	DB        DBConfig        `yaml:"db"`
	Addr      string          `yaml:"addr"`
	AdminUser string          `yaml:"admin_user"`
	LogPath   string          `yaml:"log_path"`
	Alloc     AllocConfig     `yaml:"alloc"`
	Notify    NotifyConfig    `yaml:"notify"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// DBConfig selects the store. For sqlite, DSN is a file path.
type DBConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// AllocConfig tunes the allocation gateway.
type AllocConfig struct {
	RetryAttempts  int           `yaml:"retry_attempts"`
	RetryBaseDelay time.Duration `yaml:"retry_base_delay"`
	RetryJitter    float64       `yaml:"retry_jitter"`
}

// NotifyConfig configures event delivery and the background sweeper.
type NotifyConfig struct {
	SweepInterval time.Duration `yaml:"sweep_interval"`
	KafkaBrokers  []string      `yaml:"kafka_brokers"`
	KafkaTopic    string        `yaml:"kafka_topic"`
}

// TelemetryConfig configures trace export. An empty endpoint disables it.
type TelemetryConfig struct {
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	ServiceName  string `yaml:"service_name"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		DB: DBConfig{
			Driver: db.DriverSQLite,
			DSN:    "izposoja.sqlite3",
		},
		Addr:      ":8080",
		AdminUser: "admin",
		Alloc: AllocConfig{
			RetryAttempts:  3,
			RetryBaseDelay: 10 * time.Millisecond,
			RetryJitter:    0.3,
		},
		Notify: NotifyConfig{
			SweepInterval: 5 * time.Minute,
			KafkaTopic:    "izposoja.events",
		},
		Telemetry: TelemetryConfig{
			ServiceName: "izposoja",
		},
	}
}

// Load builds the configuration. path names an optional YAML file; a
// missing file is an error only when path is set explicitly. envFile is
// loaded without overriding variables already present in the
// environment, and may be absent.
func Load(path, envFile string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading env file %s: %w", envFile, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

// applyEnv overrides fields from IZPOSOJA_* variables.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	get := func(name string) (string, bool) {
		v, ok := lookup(EnvPrefix + name)
		return strings.TrimSpace(v), ok && strings.TrimSpace(v) != ""
	}

	if v, ok := get("DB_DRIVER"); ok {
		c.DB.Driver = v
	}
	if v, ok := get("DB_DSN"); ok {
		c.DB.DSN = v
	}
	if v, ok := get("ADDR"); ok {
		c.Addr = v
	}
	if v, ok := get("ADMIN_USER"); ok {
		c.AdminUser = v
	}
	if v, ok := get("LOG_PATH"); ok {
		c.LogPath = v
	}
	if v, ok := get("RETRY_ATTEMPTS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parsing %sRETRY_ATTEMPTS: %w", EnvPrefix, err)
		}
		c.Alloc.RetryAttempts = n
	}
	if v, ok := get("RETRY_BASE_DELAY"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parsing %sRETRY_BASE_DELAY: %w", EnvPrefix, err)
		}
		c.Alloc.RetryBaseDelay = d
	}
	if v, ok := get("RETRY_JITTER"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("parsing %sRETRY_JITTER: %w", EnvPrefix, err)
		}
		c.Alloc.RetryJitter = f
	}
	if v, ok := get("SWEEP_INTERVAL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parsing %sSWEEP_INTERVAL: %w", EnvPrefix, err)
		}
		c.Notify.SweepInterval = d
	}
	if v, ok := get("KAFKA_BROKERS"); ok {
		c.Notify.KafkaBrokers = splitList(v)
	}
	if v, ok := get("KAFKA_TOPIC"); ok {
		c.Notify.KafkaTopic = v
	}
	if v, ok := get("OTLP_ENDPOINT"); ok {
		c.Telemetry.OTLPEndpoint = v
	}
	return nil
}

// Validate checks that the configuration can be used to start a server.
func (c *Config) Validate() error {
	switch c.DB.Driver {
	case db.DriverSQLite, db.DriverPgx, db.DriverPostgres:
	default:
		return fmt.Errorf("unsupported db driver %q", c.DB.Driver)
	}
	if c.DB.DSN == "" {
		return errors.New("db dsn is required")
	}
	if c.Addr == "" {
		return errors.New("listen address is required")
	}
	if c.AdminUser == "" {
		return errors.New("admin user is required")
	}
	if c.Alloc.RetryAttempts < 1 {
		return fmt.Errorf("retry attempts must be at least 1, got %d", c.Alloc.RetryAttempts)
	}
	if c.Alloc.RetryBaseDelay < 0 {
		return fmt.Errorf("retry base delay must not be negative, got %s", c.Alloc.RetryBaseDelay)
	}
	if c.Alloc.RetryJitter < 0 || c.Alloc.RetryJitter > 1 {
		return fmt.Errorf("retry jitter must be between 0 and 1, got %g", c.Alloc.RetryJitter)
	}
	if c.Notify.SweepInterval <= 0 {
		return fmt.Errorf("sweep interval must be positive, got %s", c.Notify.SweepInterval)
	}
	if len(c.Notify.KafkaBrokers) > 0 && c.Notify.KafkaTopic == "" {
		return errors.New("kafka topic is required when brokers are set")
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
