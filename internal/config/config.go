// Package config loads service configuration from environment variables,
// optionally overlaid with a YAML file named by CONFIG_FILE (reward rates
// and schedule overrides live there).
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/greenworld/eco-rewards-service/internal/models"
)

// Config aggregates application configuration values.
type Config struct {
	HTTP      HTTPConfig
	Logging   LoggingConfig
	Events    EventsConfig
	Scheduler SchedulerConfig
	// RewardRates maps merchant categories to basis points of the
	// transaction amount. Starts from the built-in defaults.
	RewardRates map[models.MerchantCategory]int64
}

// HTTPConfig governs HTTP server behaviour.
type HTTPConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// LoggingConfig controls structured logging settings.
type LoggingConfig struct {
	Level         string
	Format        string // text|json
	IncludeCaller bool
}

// EventsConfig sizes the transaction-event worker pool.
type EventsConfig struct {
	Workers int
	Buffer  int
}

// SchedulerConfig holds the cron expressions for the monthly jobs.
type SchedulerConfig struct {
	ReportCron string
	ResetCron  string
}

const (
	defaultAddr            = ":8080"
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 15 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 15 * time.Second
	defaultWorkers         = 4
	defaultBuffer          = 256
	// Reports cover the previous month and run just after the boundary;
	// the reset claims the new month at its start.
	defaultReportCron = "30 0 1 * *"
	defaultResetCron  = "0 0 1 * *"
)

// fileConfig mirrors the YAML overlay file.
type fileConfig struct {
	Scheduler struct {
		ReportCron string `yaml:"report_cron"`
		ResetCron  string `yaml:"reset_cron"`
	} `yaml:"scheduler"`
	Events struct {
		Workers int `yaml:"workers"`
		Buffer  int `yaml:"buffer"`
	} `yaml:"events"`
	RewardRates map[string]int64 `yaml:"reward_rates"`
}

// Load reads configuration from the environment, applying defaults, then
// overlays the YAML file named by CONFIG_FILE when set.
func Load() (Config, error) {
	cfg := Config{
		HTTP: HTTPConfig{
			Addr:            valueOrDefault("SERVER_ADDR", defaultAddr),
			ReadTimeout:     defaultReadTimeout,
			WriteTimeout:    defaultWriteTimeout,
			IdleTimeout:     defaultIdleTimeout,
			ShutdownTimeout: defaultShutdownTimeout,
		},
		Logging: LoggingConfig{
			Level:         valueOrDefault("LOG_LEVEL", "info"),
			Format:        valueOrDefault("LOG_FORMAT", "text"),
			IncludeCaller: parseBoolWithDefault("LOG_INCLUDE_CALLER", false),
		},
		Events: EventsConfig{
			Workers: parseIntWithDefault("EVENT_WORKERS", defaultWorkers),
			Buffer:  parseIntWithDefault("EVENT_BUFFER", defaultBuffer),
		},
		Scheduler: SchedulerConfig{
			ReportCron: valueOrDefault("REPORT_CRON", defaultReportCron),
			ResetCron:  valueOrDefault("RESET_CRON", defaultResetCron),
		},
		RewardRates: models.DefaultRewardRates(),
	}

	if v := os.Getenv("SERVER_SHUTDOWN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SERVER_SHUTDOWN_TIMEOUT: %w", err)
		}
		cfg.HTTP.ShutdownTimeout = d
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}

// LoadFrom loads defaults and overlays the given YAML file. Used by tests
// and tooling that bypass the environment.
func LoadFrom(path string) (Config, error) {
	cfg, err := Load()
	if err != nil {
		return Config{}, err
	}
	if err := cfg.applyFile(path); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}

	if fc.Scheduler.ReportCron != "" {
		c.Scheduler.ReportCron = fc.Scheduler.ReportCron
	}
	if fc.Scheduler.ResetCron != "" {
		c.Scheduler.ResetCron = fc.Scheduler.ResetCron
	}
	if fc.Events.Workers > 0 {
		c.Events.Workers = fc.Events.Workers
	}
	if fc.Events.Buffer > 0 {
		c.Events.Buffer = fc.Events.Buffer
	}
	for name, bps := range fc.RewardRates {
		cat := models.MerchantCategory(name)
		if !cat.Valid() {
			return fmt.Errorf("config %s: unknown merchant category %q", path, name)
		}
		if bps <= 0 {
			return fmt.Errorf("config %s: reward rate for %s must be positive", path, name)
		}
		c.RewardRates[cat] = bps
	}
	return nil
}

func valueOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseBoolWithDefault(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		val, err := strconv.ParseBool(v)
		if err != nil {
			return fallback
		}
		return val
	}
	return fallback
}

func parseIntWithDefault(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if val, err := strconv.Atoi(v); err == nil {
			return val
		}
	}
	return fallback
}
