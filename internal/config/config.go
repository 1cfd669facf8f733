package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Config holds all runtime settings, read from the environment.
type Config struct {
	Env            string
	APIPort        string
	DatabaseURL    string
	RunMigrations  bool
	JWTSecretKey   string
	AllowedOrigins []string

	LogLevel string
	LogFile  string

	DueScan DueScanConfig

	// AutomationEventTimeout bounds one engine invocation. Zero disables it.
	AutomationEventTimeout time.Duration

	Tracing TracingConfig
}

type DueScanConfig struct {
	Enabled     bool
	Schedule    string
	Window      time.Duration
	BatchSize   int
	Concurrency int
	Timeout     time.Duration
}

type TracingConfig struct {
	Enabled     bool
	Endpoint    string
	Insecure    bool
	SampleRatio float64
	ServiceName string
}

var (
	ErrMissingDatabaseURL = errors.New("DATABASE_URL environment variable is not set")
	ErrMissingJWTSecret   = errors.New("JWT_SECRET_KEY environment variable is not set")
)

// Load reads the configuration from the environment. Call godotenv first if
// a .env file should be honoured.
func Load() (*Config, error) {
	var errs []error

	cfg := &Config{
		Env:            strings.ToLower(getEnv("ENV", "development")),
		APIPort:        getEnv("API_PORT", "8080"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RunMigrations:  os.Getenv("RUN_MIGRATIONS") == "true",
		JWTSecretKey:   os.Getenv("JWT_SECRET_KEY"),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		LogLevel:       strings.ToLower(os.Getenv("LOG_LEVEL")),
		LogFile:        os.Getenv("LOG_FILE"),
		Tracing: TracingConfig{
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "board-automator-api"),
		},
	}

	if cfg.DatabaseURL == "" {
		errs = append(errs, ErrMissingDatabaseURL)
	}
	if cfg.JWTSecretKey == "" {
		errs = append(errs, ErrMissingJWTSecret)
	}

	var err error
	scan := &cfg.DueScan
	scan.Schedule = getEnv("DUE_SCAN_SCHEDULE", "@every 5m")
	if scan.Enabled, err = getBool("DUE_SCAN_ENABLED", true); err != nil {
		errs = append(errs, err)
	}
	if scan.Window, err = getDuration("DUE_SOON_WINDOW", 24*time.Hour); err != nil {
		errs = append(errs, err)
	}
	if scan.BatchSize, err = getInt("DUE_SCAN_BATCH_SIZE", 100); err != nil {
		errs = append(errs, err)
	}
	if scan.Concurrency, err = getInt("DUE_SCAN_CONCURRENCY", 4); err != nil {
		errs = append(errs, err)
	}
	if scan.Timeout, err = getDuration("DUE_SCAN_TIMEOUT", 2*time.Minute); err != nil {
		errs = append(errs, err)
	}
	if scan.Enabled {
		if _, err := cron.ParseStandard(scan.Schedule); err != nil {
			errs = append(errs, fmt.Errorf("DUE_SCAN_SCHEDULE %q: %w", scan.Schedule, err))
		}
	}
	if scan.Window <= 0 {
		errs = append(errs, fmt.Errorf("DUE_SOON_WINDOW must be positive, got %s", scan.Window))
	}
	if scan.BatchSize < 1 {
		errs = append(errs, fmt.Errorf("DUE_SCAN_BATCH_SIZE must be at least 1, got %d", scan.BatchSize))
	}
	if scan.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("DUE_SCAN_CONCURRENCY must be at least 1, got %d", scan.Concurrency))
	}

	if cfg.AutomationEventTimeout, err = getDuration("AUTOMATION_EVENT_TIMEOUT", 0); err != nil {
		errs = append(errs, err)
	} else if cfg.AutomationEventTimeout < 0 {
		errs = append(errs, fmt.Errorf("AUTOMATION_EVENT_TIMEOUT must not be negative"))
	}

	if cfg.Tracing.Enabled, err = getBool("OTEL_TRACING_ENABLED", false); err != nil {
		errs = append(errs, err)
	}
	if cfg.Tracing.Insecure, err = getBool("OTEL_EXPORTER_INSECURE", true); err != nil {
		errs = append(errs, err)
	}
	if cfg.Tracing.SampleRatio, err = getFloat("OTEL_SAMPLE_RATIO", 0.1); err != nil {
		errs = append(errs, err)
	} else if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
		errs = append(errs, fmt.Errorf("OTEL_SAMPLE_RATIO must be between 0 and 1, got %v", cfg.Tracing.SampleRatio))
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return cfg, nil
}

// IsProduction reports whether ENV is production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

// splitList splits a comma separated env value, dropping empty entries.
func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
