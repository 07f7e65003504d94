package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// envVars lists every variable applyEnv reads.
var envVars = []string{
	"OUTPUT_FILE", "CACHE_DIR", "PUZZLES_BASE_URL", "PUZZLES_USER_AGENT",
	"PUZZLES_START_YEAR", "PUZZLES_MAX_DAYS", "PUZZLES_EVENT_MONTH",
	"PUZZLES_TIME_ZONE", "PUZZLES_METRICS_FILE", "PUZZLES_INTERVAL", "LOG_LEVEL",
	"PUZZLES_MAX_ATTEMPTS", "PUZZLES_RETRY_DELAY", "PUZZLES_POLITE_MIN",
	"PUZZLES_POLITE_MAX", "PUZZLES_REQUEST_TIMEOUT", "PUZZLES_DETECT_MAX_DAY",
}

// clearEnv blanks every override so host settings do not leak into tests.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envVars {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults_NoFile(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	u := cfg.Updater
	if u.OutputFile != DefaultOutputFile {
		t.Errorf("output_file: got %q, want %q", u.OutputFile, DefaultOutputFile)
	}
	if u.CacheDir != DefaultCacheDir {
		t.Errorf("cache_dir: got %q, want %q", u.CacheDir, DefaultCacheDir)
	}
	if u.StartYear != 2015 || u.MaxDays != 25 || u.EventMonth != 12 {
		t.Errorf("calendar defaults: got %d/%d/%d", u.StartYear, u.MaxDays, u.EventMonth)
	}
	if u.Fetch.MaxAttempts != 3 {
		t.Errorf("max_attempts: got %d, want 3", u.Fetch.MaxAttempts)
	}
	if u.Fetch.RetryDelay != 2*time.Second {
		t.Errorf("retry_delay: got %v, want 2s", u.Fetch.RetryDelay)
	}
	if u.Fetch.PoliteMin != 500*time.Millisecond || u.Fetch.PoliteMax != 1400*time.Millisecond {
		t.Errorf("polite range: got [%v, %v]", u.Fetch.PoliteMin, u.Fetch.PoliteMax)
	}
	if u.Interval != 0 {
		t.Errorf("interval: got %v, want 0", u.Interval)
	}
	if !u.DetectMaxDay {
		t.Error("detect_max_day: got false, want true")
	}
}

func TestLoad_MissingFileFallsBackToDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.Updater.OutputFile != DefaultOutputFile {
		t.Errorf("output_file: got %q", cfg.Updater.OutputFile)
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	clearEnv(t)

	cfg := loadFromString(t, `
updater:
  output_file: "data/titles.json"
  cache_dir: "/var/cache/puzzles"
  interval: 1h
  fetch:
    max_attempts: 5
    retry_delay: 3s
`)
	u := cfg.Updater
	if u.OutputFile != "data/titles.json" {
		t.Errorf("output_file: got %q", u.OutputFile)
	}
	if u.CacheDir != "/var/cache/puzzles" {
		t.Errorf("cache_dir: got %q", u.CacheDir)
	}
	if u.Interval != time.Hour {
		t.Errorf("interval: got %v", u.Interval)
	}
	if u.Fetch.MaxAttempts != 5 || u.Fetch.RetryDelay != 3*time.Second {
		t.Errorf("fetch: got %+v", u.Fetch)
	}
	// Fields absent from the file keep their defaults.
	if u.Fetch.RequestTimeout != DefaultRequestTimeout {
		t.Errorf("request_timeout: got %v, want default", u.Fetch.RequestTimeout)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("OUTPUT_FILE", "env.json")
	t.Setenv("CACHE_DIR", "env-cache")
	t.Setenv("PUZZLES_MAX_ATTEMPTS", "4")
	t.Setenv("PUZZLES_INTERVAL", "30m")
	t.Setenv("PUZZLES_DETECT_MAX_DAY", "false")

	cfg := loadFromString(t, `
updater:
  output_file: "file.json"
  cache_dir: "file-cache"
`)
	u := cfg.Updater
	if u.OutputFile != "env.json" {
		t.Errorf("output_file: got %q, want env.json", u.OutputFile)
	}
	if u.CacheDir != "env-cache" {
		t.Errorf("cache_dir: got %q, want env-cache", u.CacheDir)
	}
	if u.Fetch.MaxAttempts != 4 {
		t.Errorf("max_attempts: got %d, want 4", u.Fetch.MaxAttempts)
	}
	if u.Interval != 30*time.Minute {
		t.Errorf("interval: got %v, want 30m", u.Interval)
	}
	if u.DetectMaxDay {
		t.Error("detect_max_day: got true, want false from env")
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"zero attempts", "updater:\n  fetch:\n    max_attempts: 0\n"},
		{"bad month", "updater:\n  event_month: 13\n"},
		{"bad zone", "updater:\n  time_zone: Mars/Olympus_Mons\n"},
		{"inverted polite range", "updater:\n  fetch:\n    polite_min: 2s\n    polite_max: 1s\n"},
		{"negative interval", "updater:\n  interval: -1m\n"},
		{"unknown log level", "updater:\n  log_level: chatty\n"},
		{"bad yaml", "updater: [\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			if _, err := loadStringErr(t, tc.yaml); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

func TestLoad_InvalidEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PUZZLES_MAX_ATTEMPTS", "three")

	if _, err := Load(""); err == nil {
		t.Fatal("expected error for non-numeric PUZZLES_MAX_ATTEMPTS, got nil")
	}
}

func TestUpdaterConfig_SlogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
	}
	for _, tc := range tests {
		if got := (UpdaterConfig{LogLevel: tc.in}).SlogLevel(); got != tc.want {
			t.Errorf("SlogLevel(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "updater:\n  output_file: first.json\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan *Config, 8)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func(c *Config) {
			select {
			case changes <- c:
			default:
			}
		})
	}()

	// Keep rewriting until the watcher has registered and reports the change.
	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case c := <-changes:
			// A reload can observe the file mid-truncate; wait for the full write.
			if c.Updater.OutputFile != "second.json" {
				continue
			}
			cancel()
			if err := <-done; err != nil {
				t.Fatalf("Watch() returned error: %v", err)
			}
			return
		case <-tick.C:
			writeFile(t, path, "updater:\n  output_file: second.json\n")
		case <-deadline:
			t.Fatal("timed out waiting for reload")
		}
	}
}

// loadFromString writes yaml to a temp file and calls Load, failing on error.
func loadFromString(t *testing.T, content string) *Config {
	t.Helper()
	cfg, err := loadStringErr(t, content)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	return cfg
}

// loadStringErr writes yaml to a temp file and calls Load, returning any error.
func loadStringErr(t *testing.T, content string) (*Config, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, content)
	return Load(path)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
}
