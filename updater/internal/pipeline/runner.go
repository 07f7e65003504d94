package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/puzzletitles/puzzletitles/updater/internal/calendar"
	"github.com/puzzletitles/puzzletitles/updater/internal/scraper"
	"github.com/puzzletitles/puzzletitles/updater/internal/store"
)

// TitleFetcher is the lookup capability the runner drives.
// *scraper.Fetcher implements it.
type TitleFetcher interface {
	Title(ctx context.Context, year, day int) scraper.Result
	MaxDay(ctx context.Context, year int, persist bool) (int, bool)
}

// Stats summarises one run.
type Stats struct {
	StartedAt  time.Time
	FinishedAt time.Time
	Range      calendar.Range

	// Known counts days skipped because the store already had a title.
	Known int
	// Cached and Fetched count titles newly recorded from each source.
	Cached  int
	Fetched int
	// Failed counts days left without a title, broken down in FailedBy.
	Failed   int
	FailedBy map[scraper.Reason]int

	// Titles is the number of titles held per year after the run.
	Titles map[int]int

	// Interrupted is set when the context ended the run early.
	Interrupted bool
}

// Added returns how many titles the run recorded.
func (s Stats) Added() int { return s.Cached + s.Fetched }

// Runner walks the resolved range and fills gaps in a store.
// A Runner holds no per-run state and may be reused across runs.
type Runner struct {
	fetcher TitleFetcher
	window  calendar.Window
	detect  bool
	clock   func() time.Time // injectable for deterministic tests
}

// Option configures a Runner.
type Option func(*Runner)

// WithMaxDayDetection makes the runner ask the fetcher how many days each
// year actually has before walking it.
func WithMaxDayDetection(enabled bool) Option {
	return func(r *Runner) { r.detect = enabled }
}

// New returns a Runner using f to look up titles within window.
func New(f TitleFetcher, window calendar.Window, opts ...Option) *Runner {
	r := &Runner{fetcher: f, window: window, clock: time.Now}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Run fills every missing (year, day) of the range resolved for now into p.
// Titles already in p are never refetched or replaced.
func (r *Runner) Run(ctx context.Context, p store.Puzzles, now time.Time) Stats {
	rng := r.window.Resolve(now)
	st := Stats{
		StartedAt: r.clock(),
		Range:     rng,
		FailedBy:  make(map[scraper.Reason]int),
		Titles:    make(map[int]int),
	}

	slog.Info("pipeline: processing years",
		"start_year", rng.StartYear, "end_year", rng.EndYear,
		"last_day", rng.LastDay, "event_active", rng.Active)

	for _, year := range rng.Years() {
		if ctx.Err() != nil {
			st.Interrupted = true
			break
		}
		p.EnsureYear(year)
		if !r.runYear(ctx, p, rng, year, &st) {
			st.Interrupted = true
			break
		}
	}

	for _, year := range rng.Years() {
		st.Titles[year] = p.Count(year)
	}
	st.FinishedAt = r.clock()

	slog.Info("pipeline: run complete",
		"added", st.Added(), "cached", st.Cached, "fetched", st.Fetched,
		"known", st.Known, "failed", st.Failed, "interrupted", st.Interrupted,
		"duration", st.FinishedAt.Sub(st.StartedAt))
	return st
}

// runYear processes one year. It returns false if the context ended it early.
func (r *Runner) runYear(ctx context.Context, p store.Puzzles, rng calendar.Range, year int, st *Stats) bool {
	limit := rng.DayCap(year)
	if r.detect && !complete(p, year, limit) {
		if n, _ := r.fetcher.MaxDay(ctx, year, !rng.InProgress(year)); n < limit {
			limit = n
		}
	}
	slog.Info("pipeline: year available", "year", year, "days", limit)

	for day := 1; day <= limit; day++ {
		if p.Has(year, day) {
			st.Known++
			continue
		}
		if ctx.Err() != nil {
			return false
		}

		slog.Info("pipeline: fetching", "year", year, "day", day)
		res := r.fetcher.Title(ctx, year, day)
		if !res.OK() {
			st.Failed++
			st.FailedBy[res.Reason]++
			if res.Reason == scraper.ReasonCanceled {
				return false
			}
			continue
		}

		p.Record(year, day, res.Title)
		switch res.Source {
		case scraper.SourceCache:
			st.Cached++
		default:
			st.Fetched++
		}
	}
	return true
}

// complete reports whether p already holds days 1..limit of year.
func complete(p store.Puzzles, year, limit int) bool {
	for day := 1; day <= limit; day++ {
		if !p.Has(year, day) {
			return false
		}
	}
	return true
}
