package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Default values applied when fields are absent from the config file and
// the environment.
const (
	DefaultOutputFile     = "puzzles.json"
	DefaultCacheDir       = "cache"
	DefaultBaseURL        = "https://adventofcode.com"
	DefaultUserAgent      = "puzzletitles-updater (+https://github.com/puzzletitles/puzzletitles)"
	DefaultStartYear      = 2015
	DefaultMaxDays        = 25
	DefaultEventMonth     = 12
	DefaultTimeZone       = "America/New_York"
	DefaultMaxAttempts    = 3
	DefaultRetryDelay     = 2 * time.Second
	DefaultPoliteMin      = 500 * time.Millisecond
	DefaultPoliteMax      = 1400 * time.Millisecond
	DefaultRequestTimeout = 10 * time.Second
	DefaultLogLevel       = "info"
)

// PathEnv names the environment variable holding the optional YAML config path.
const PathEnv = "PUZZLES_CONFIG"

// Config is the top-level configuration. Fields map 1:1 to config.example.yaml.
type Config struct {
	Updater UpdaterConfig `yaml:"updater"`
}

// UpdaterConfig holds every setting of the updater binary.
type UpdaterConfig struct {
	// OutputFile is the persisted JSON store.
	OutputFile string `yaml:"output_file" env:"OUTPUT_FILE"`

	// CacheDir holds one small text file per fetched title.
	CacheDir string `yaml:"cache_dir" env:"CACHE_DIR"`

	// BaseURL is the event host; pages live at <base>/<year>/day/<day>.
	BaseURL string `yaml:"base_url" env:"PUZZLES_BASE_URL"`

	// UserAgent is sent on every request to the event host.
	UserAgent string `yaml:"user_agent" env:"PUZZLES_USER_AGENT"`

	// StartYear is the first event year.
	StartYear int `yaml:"start_year" env:"PUZZLES_START_YEAR"`

	// MaxDays is the number of unlockable days per event.
	MaxDays int `yaml:"max_days" env:"PUZZLES_MAX_DAYS"`

	// EventMonth is the calendar month (1-12) in which days unlock.
	EventMonth int `yaml:"event_month" env:"PUZZLES_EVENT_MONTH"`

	// TimeZone is the IANA zone the event calendar follows.
	TimeZone string `yaml:"time_zone" env:"PUZZLES_TIME_ZONE"`

	// DetectMaxDay reads each year's index page to learn how many days it
	// has, instead of assuming MaxDays.
	DetectMaxDay bool `yaml:"detect_max_day" env:"PUZZLES_DETECT_MAX_DAY"`

	// Fetch holds retry and pacing settings.
	Fetch FetchConfig `yaml:"fetch"`

	// MetricsFile, when set, receives a Prometheus textfile after every run.
	MetricsFile string `yaml:"metrics_file" env:"PUZZLES_METRICS_FILE"`

	// Interval re-runs the pipeline periodically. Zero runs once and exits.
	Interval time.Duration `yaml:"interval" env:"PUZZLES_INTERVAL"`

	// LogLevel is one of: debug | info | warn | error.
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL"`
}

// FetchConfig controls how the scraper talks to the event host.
type FetchConfig struct {
	// MaxAttempts bounds network attempts per page.
	MaxAttempts int `yaml:"max_attempts" env:"PUZZLES_MAX_ATTEMPTS"`

	// RetryDelay is multiplied by the attempt number before each retry.
	RetryDelay time.Duration `yaml:"retry_delay" env:"PUZZLES_RETRY_DELAY"`

	// PoliteMin and PoliteMax bound the random pause after each network fetch.
	PoliteMin time.Duration `yaml:"polite_min" env:"PUZZLES_POLITE_MIN"`
	PoliteMax time.Duration `yaml:"polite_max" env:"PUZZLES_POLITE_MAX"`

	// RequestTimeout caps a single HTTP request.
	RequestTimeout time.Duration `yaml:"request_timeout" env:"PUZZLES_REQUEST_TIMEOUT"`
}

// Location loads the configured time zone.
func (u UpdaterConfig) Location() (*time.Location, error) {
	return time.LoadLocation(u.TimeZone)
}

// SlogLevel maps LogLevel to a slog.Level. Unknown values fall back to info.
func (u UpdaterConfig) SlogLevel() slog.Level {
	switch strings.ToLower(u.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Load builds the configuration from defaults, the optional YAML file at
// path, and environment overrides, in that order.
// An empty path or a missing file means environment and defaults only.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			slog.Warn("config: file not found, using environment only", "path", path)
		case err != nil:
			return nil, fmt.Errorf("config: read file: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("config: parse yaml: %w", err)
			}
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// applyEnv overrides fields whose environment variables are set.
// Unset variables leave the current value in place.
func applyEnv(cfg *Config) error {
	if err := env.Parse(&cfg.Updater); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Updater: UpdaterConfig{
			OutputFile:   DefaultOutputFile,
			CacheDir:     DefaultCacheDir,
			BaseURL:      DefaultBaseURL,
			UserAgent:    DefaultUserAgent,
			StartYear:    DefaultStartYear,
			MaxDays:      DefaultMaxDays,
			EventMonth:   DefaultEventMonth,
			TimeZone:     DefaultTimeZone,
			DetectMaxDay: true,
			LogLevel:     DefaultLogLevel,
			Fetch: FetchConfig{
				MaxAttempts:    DefaultMaxAttempts,
				RetryDelay:     DefaultRetryDelay,
				PoliteMin:      DefaultPoliteMin,
				PoliteMax:      DefaultPoliteMax,
				RequestTimeout: DefaultRequestTimeout,
			},
		},
	}
}

// validate checks required fields and structural constraints.
func validate(cfg *Config) error {
	u := cfg.Updater
	if u.OutputFile == "" {
		return fmt.Errorf("updater.output_file is required")
	}
	if u.CacheDir == "" {
		return fmt.Errorf("updater.cache_dir is required")
	}
	if u.BaseURL == "" {
		return fmt.Errorf("updater.base_url is required")
	}
	if u.StartYear <= 0 {
		return fmt.Errorf("updater.start_year must be positive")
	}
	if u.MaxDays <= 0 {
		return fmt.Errorf("updater.max_days must be positive")
	}
	if u.EventMonth < 1 || u.EventMonth > 12 {
		return fmt.Errorf("updater.event_month must be between 1 and 12, got %d", u.EventMonth)
	}
	if _, err := u.Location(); err != nil {
		return fmt.Errorf("updater.time_zone %q: %w", u.TimeZone, err)
	}
	if u.Interval < 0 {
		return fmt.Errorf("updater.interval must not be negative")
	}
	switch strings.ToLower(u.LogLevel) {
	case "debug", "info", "warn", "warning", "error", "":
	default:
		return fmt.Errorf("updater.log_level: unknown level %q", u.LogLevel)
	}

	f := u.Fetch
	if f.MaxAttempts <= 0 {
		return fmt.Errorf("updater.fetch.max_attempts must be positive")
	}
	if f.RetryDelay < 0 {
		return fmt.Errorf("updater.fetch.retry_delay must not be negative")
	}
	if f.PoliteMin < 0 || f.PoliteMax < f.PoliteMin {
		return fmt.Errorf("updater.fetch: polite_min must be >= 0 and <= polite_max")
	}
	if f.RequestTimeout <= 0 {
		return fmt.Errorf("updater.fetch.request_timeout must be positive")
	}
	return nil
}
