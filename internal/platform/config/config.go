package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type Config struct {
	Addr                   string        `yaml:"addr"`
	DatabaseURL            string        `yaml:"database_url"`
	StoreDriver            string        `yaml:"store_driver"`
	JWTSecret              string        `yaml:"jwt_secret"`
	Environment            string        `yaml:"env"`
	LogLevel               string        `yaml:"log_level"`
	RunMigrations          bool          `yaml:"run_migrations"`
	MaxBodyBytes           int64         `yaml:"max_body_bytes"`
	MaxUploadBytes         int64         `yaml:"max_upload_bytes"`
	RateLimitPerMinute     int           `yaml:"rate_limit_per_minute"`
	CORSAllowedOrigins     []string      `yaml:"cors_allowed_origins"`
	MetricsEnabled         bool          `yaml:"metrics_enabled"`
	UploadSessionTTL       time.Duration `yaml:"-"`
	SessionSweepInterval   time.Duration `yaml:"-"`
	CarryOverCheckInterval time.Duration `yaml:"-"`
	DuplicatesRequireOptIn bool          `yaml:"payroll_duplicates_require_opt_in"`
	Accrual                AccrualConfig `yaml:"accrual"`
	Seed                   SeedConfig    `yaml:"seed"`

	UploadSessionTTLRaw       string `yaml:"upload_session_ttl"`
	SessionSweepIntervalRaw   string `yaml:"session_sweep_interval"`
	CarryOverCheckIntervalRaw string `yaml:"carry_over_check_interval"`
}

type AccrualConfig struct {
	FirstYearDays    int  `yaml:"first_year_days"`
	FirstYearMonthly bool `yaml:"first_year_monthly"`
	BaseDays         int  `yaml:"base_days"`
	BonusEveryYears  int  `yaml:"bonus_every_years"`
	MaxDays          int  `yaml:"max_days"`
}

// SeedConfig lists directory entries loaded at startup, mainly for the memory driver.
type SeedConfig struct {
	Employees []SeedEmployee `yaml:"employees"`
}

type SeedEmployee struct {
	ID             string `yaml:"id"`
	EmployeeNumber string `yaml:"employee_number"`
	Name           string `yaml:"name"`
	Department     string `yaml:"department"`
	Role           string `yaml:"role"`
	ManagerID      string `yaml:"manager_id"`
	HireDate       string `yaml:"hire_date"`
}

func Defaults() Config {
	return Config{
		Addr:                   ":8080",
		StoreDriver:            StoreDriverPostgres,
		Environment:            "development",
		LogLevel:               "info",
		RunMigrations:          true,
		MaxBodyBytes:           1048576,
		MaxUploadBytes:         10 * 1048576,
		RateLimitPerMinute:     120,
		MetricsEnabled:         true,
		UploadSessionTTL:       30 * time.Minute,
		SessionSweepInterval:   time.Minute,
		CarryOverCheckInterval: 24 * time.Hour,
		Accrual: AccrualConfig{
			FirstYearDays:   11,
			BaseDays:        15,
			BonusEveryYears: 2,
			MaxDays:         25,
		},
	}
}

// Load reads the optional YAML file named by HRDESK_CONFIG and applies
// environment overrides on top of it.
func Load() (Config, error) {
	cfg := Defaults()
	if path := strings.TrimSpace(os.Getenv("HRDESK_CONFIG")); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("config: parse yaml: %w", err)
	}
	for _, d := range []struct {
		raw    string
		target *time.Duration
		key    string
	}{
		{c.UploadSessionTTLRaw, &c.UploadSessionTTL, "upload_session_ttl"},
		{c.SessionSweepIntervalRaw, &c.SessionSweepInterval, "session_sweep_interval"},
		{c.CarryOverCheckIntervalRaw, &c.CarryOverCheckInterval, "carry_over_check_interval"},
	} {
		if strings.TrimSpace(d.raw) == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("config: parse %s: %w", d.key, err)
		}
		*d.target = parsed
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Addr = getEnv("APP_ADDR", c.Addr)
	c.DatabaseURL = getEnv("DATABASE_URL", c.DatabaseURL)
	c.StoreDriver = strings.ToLower(getEnv("STORE_DRIVER", c.StoreDriver))
	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)
	c.Environment = getEnv("APP_ENV", c.Environment)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.RunMigrations = getEnvBool("RUN_MIGRATIONS", c.RunMigrations)
	c.MaxBodyBytes = int64(getEnvInt("MAX_BODY_BYTES", int(c.MaxBodyBytes)))
	c.MaxUploadBytes = int64(getEnvInt("MAX_UPLOAD_BYTES", int(c.MaxUploadBytes)))
	c.RateLimitPerMinute = getEnvInt("RATE_LIMIT_PER_MINUTE", c.RateLimitPerMinute)
	c.CORSAllowedOrigins = getEnvList("CORS_ALLOWED_ORIGINS", c.CORSAllowedOrigins)
	c.MetricsEnabled = getEnvBool("METRICS_ENABLED", c.MetricsEnabled)
	c.UploadSessionTTL = getEnvDuration("UPLOAD_SESSION_TTL", c.UploadSessionTTL)
	c.SessionSweepInterval = getEnvDuration("SESSION_SWEEP_INTERVAL", c.SessionSweepInterval)
	c.CarryOverCheckInterval = getEnvDuration("CARRY_OVER_CHECK_INTERVAL", c.CarryOverCheckInterval)
	c.DuplicatesRequireOptIn = getEnvBool("PAYROLL_DUPLICATES_REQUIRE_OPT_IN", c.DuplicatesRequireOptIn)
	c.Accrual.FirstYearDays = getEnvInt("ACCRUAL_FIRST_YEAR_DAYS", c.Accrual.FirstYearDays)
	c.Accrual.FirstYearMonthly = getEnvBool("ACCRUAL_FIRST_YEAR_MONTHLY", c.Accrual.FirstYearMonthly)
	c.Accrual.BaseDays = getEnvInt("ACCRUAL_BASE_DAYS", c.Accrual.BaseDays)
	c.Accrual.BonusEveryYears = getEnvInt("ACCRUAL_BONUS_EVERY_YEARS", c.Accrual.BonusEveryYears)
	c.Accrual.MaxDays = getEnvInt("ACCRUAL_MAX_DAYS", c.Accrual.MaxDays)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c Config) Validate() error {
	switch c.StoreDriver {
	case StoreDriverPostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres store driver")
		}
	case StoreDriverMemory:
		if c.IsProduction() {
			return fmt.Errorf("STORE_DRIVER=memory is not allowed in production")
		}
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q", StoreDriverPostgres, StoreDriverMemory)
	}
	if c.IsProduction() && strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET must be set to a strong value in production")
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.MaxUploadBytes < c.MaxBodyBytes {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be at least MAX_BODY_BYTES")
	}
	if c.RateLimitPerMinute < 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must not be negative")
	}
	if c.UploadSessionTTL <= 0 {
		return fmt.Errorf("UPLOAD_SESSION_TTL must be positive")
	}
	a := c.Accrual
	if a.FirstYearDays < 0 || a.BaseDays < 0 || a.MaxDays < a.BaseDays {
		return fmt.Errorf("accrual table must be non-negative with ACCRUAL_MAX_DAYS >= ACCRUAL_BASE_DAYS")
	}
	if a.BonusEveryYears <= 0 {
		return fmt.Errorf("ACCRUAL_BONUS_EVERY_YEARS must be positive")
	}
	return nil
}
