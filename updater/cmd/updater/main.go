package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata" // event zone must resolve on minimal images

	"github.com/puzzletitles/puzzletitles/updater/internal/cache"
	"github.com/puzzletitles/puzzletitles/updater/internal/calendar"
	"github.com/puzzletitles/puzzletitles/updater/internal/config"
	"github.com/puzzletitles/puzzletitles/updater/internal/metrics"
	"github.com/puzzletitles/puzzletitles/updater/internal/pipeline"
	"github.com/puzzletitles/puzzletitles/updater/internal/scraper"
	"github.com/puzzletitles/puzzletitles/updater/internal/store"
)

func main() {
	configPath := flag.String("config", os.Getenv(config.PathEnv), "path to optional YAML config file")
	flag.Parse()

	level := new(slog.LevelVar)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	level.Set(cfg.Updater.SlogLevel())

	slog.Info("puzzletitles-updater starting",
		"config", *configPath,
		"output_file", cfg.Updater.OutputFile,
		"cache_dir", cfg.Updater.CacheDir,
		"interval", cfg.Updater.Interval,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cfg.Updater.Interval <= 0 {
		if err := runOnce(ctx, cfg.Updater, time.Now()); err != nil {
			slog.Error("run failed", "err", err)
			os.Exit(1)
		}
		return
	}

	// Interval mode: the watcher only hands configs over; runs happen here.
	reloads := make(chan *config.Config, 1)
	if *configPath != "" {
		go func() {
			err := config.Watch(ctx, *configPath, func(updated *config.Config) {
				select {
				case reloads <- updated:
				case <-ctx.Done():
				}
			})
			if err != nil {
				slog.Error("config watcher stopped", "err", err)
			}
		}()
	}

	if err := runOnce(ctx, cfg.Updater, time.Now()); err != nil {
		slog.Error("run failed", "err", err)
	}

	ticker := time.NewTicker(cfg.Updater.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.Info("puzzletitles-updater shutting down")
			return
		case updated := <-reloads:
			if updated.Updater.Interval <= 0 {
				slog.Warn("ignoring reloaded interval, must stay positive", "interval", updated.Updater.Interval)
				updated.Updater.Interval = cfg.Updater.Interval
			}
			if updated.Updater.Interval != cfg.Updater.Interval {
				ticker.Reset(updated.Updater.Interval)
			}
			cfg = updated
			level.Set(cfg.Updater.SlogLevel())
			slog.Info("config hot-reloaded", "interval", cfg.Updater.Interval)
		case t := <-ticker.C:
			if err := runOnce(ctx, cfg.Updater, t); err != nil {
				slog.Error("run failed", "err", err)
			}
		}
	}
}

// runOnce performs one complete update: load the store, fill missing titles
// for the range open at now, save, and export metrics when configured.
// A corrupt store aborts before any fetch and is left on disk untouched.
func runOnce(ctx context.Context, u config.UpdaterConfig, now time.Time) error {
	p, err := store.Load(u.OutputFile)
	if err != nil {
		return err
	}

	c, err := cache.NewDir(u.CacheDir)
	if err != nil {
		return err
	}
	slog.Debug("cache ready", "dir", c.Root())
	loc, err := u.Location()
	if err != nil {
		return fmt.Errorf("time zone: %w", err)
	}

	window := calendar.Window{
		StartYear: u.StartYear,
		MaxDays:   u.MaxDays,
		Month:     time.Month(u.EventMonth),
		Location:  loc,
	}
	runner := pipeline.New(scraper.New(u, c), window, pipeline.WithMaxDayDetection(u.DetectMaxDay))
	st := runner.Run(ctx, p, now)

	// Titles gathered before an interrupt are still kept.
	if err := p.Save(u.OutputFile); err != nil {
		return err
	}
	slog.Info("store saved", "path", u.OutputFile, "added", st.Added())

	if u.MetricsFile != "" {
		if err := metrics.WriteTextfile(u.MetricsFile, st); err != nil {
			slog.Warn("failed to write metrics textfile", "path", u.MetricsFile, "err", err)
		}
	}
	return nil
}
