package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"strconv"
	"strings"

	"github.com/puzzletitles/puzzletitles/updater/internal/cache"
	"github.com/puzzletitles/puzzletitles/updater/internal/config"
)

// Source says where a title came from.
type Source int

const (
	SourceNone Source = iota
	SourceCache
	SourceNetwork
)

func (s Source) String() string {
	switch s {
	case SourceCache:
		return "cache"
	case SourceNetwork:
		return "network"
	default:
		return "none"
	}
}

// Reason classifies why a fetch produced no title.
type Reason int

const (
	ReasonNone      Reason = iota
	ReasonTransport        // connection, timeout or body read failure
	ReasonStatus           // non-200 response
	ReasonParse            // page loaded without the expected markers
	ReasonCanceled         // the run was interrupted
)

func (r Reason) String() string {
	switch r {
	case ReasonTransport:
		return "transport"
	case ReasonStatus:
		return "status"
	case ReasonParse:
		return "parse"
	case ReasonCanceled:
		return "canceled"
	default:
		return "none"
	}
}

// Result is the outcome of looking up one puzzle title.
// Exactly one of Title and Reason is set.
type Result struct {
	Year  int
	Day   int
	Title string

	// Source is set when Title is.
	Source Source

	// Reason and Err describe the last failed attempt when Title is empty.
	Reason Reason
	Err    error

	// Attempts counts network attempts; zero for a cache hit.
	Attempts int
}

// OK reports whether a title was found.
func (r Result) OK() bool { return r.Title != "" }

// Fetcher looks up puzzle titles, consulting its cache before the network.
// It is not safe for concurrent use; a run drives it from one goroutine.
type Fetcher struct {
	client      *http.Client
	cache       cache.Cache
	baseURL     string
	maxDays     int
	maxAttempts int
	backoff     linearBackoff
	polite      politeness
	sleep       sleepFunc
}

// New returns a Fetcher configured from cfg and backed by c.
func New(cfg config.UpdaterConfig, c cache.Cache) *Fetcher {
	attempts := cfg.Fetch.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	return &Fetcher{
		client:      buildHTTPClient(cfg.UserAgent, cfg.Fetch.RequestTimeout),
		cache:       c,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		maxDays:     cfg.MaxDays,
		maxAttempts: attempts,
		backoff:     linearBackoff{step: cfg.Fetch.RetryDelay},
		polite: politeness{
			min:   cfg.Fetch.PoliteMin,
			max:   cfg.Fetch.PoliteMax,
			float: rand.Float64, //nolint:gosec // pacing, not crypto
		},
		sleep: sleepContext,
	}
}

// Title returns the title of puzzle (year, day).
//
// A cached title is returned as-is with no network access. Otherwise the day
// page is fetched up to maxAttempts times, sleeping attempt × RetryDelay
// between tries. A found title is cached and followed by a random politeness
// pause. Failure never returns an error: the Result carries the reason and
// the caller moves on to the next day.
func (f *Fetcher) Title(ctx context.Context, year, day int) Result {
	res := Result{Year: year, Day: day}
	key := cache.TitleKey(year, day)

	if title, ok := f.lookup(key); ok {
		slog.Debug("scraper: cache hit", "year", year, "day", day)
		res.Title = title
		res.Source = SourceCache
		return res
	}

	url := fmt.Sprintf("%s/%d/day/%d", f.baseURL, year, day)
	title, attempts, err := retry(ctx, f, url, func(ctx context.Context) (string, error) {
		body, err := fetchPage(ctx, f.client, url)
		if err != nil {
			return "", err
		}
		t, ok := extractTitle(body, day)
		if !ok {
			return "", errTitleMissing
		}
		return t, nil
	})
	res.Attempts = attempts
	if err != nil {
		res.Reason = classify(ctx, err)
		res.Err = err
		slog.Warn("scraper: failed to fetch puzzle",
			"year", year, "day", day,
			"attempts", attempts, "reason", res.Reason.String(), "err", err)
		return res
	}

	if err := f.cache.Set(key, title); err != nil {
		slog.Error("scraper: cache write failed", "key", key, "err", err)
	}
	res.Title = title
	res.Source = SourceNetwork
	f.pause(ctx)
	return res
}

// MaxDay detects how many days of year have unlocked by reading the year's
// index page. On failure it logs a warning and returns the configured
// maximum with ok=false.
//
// persist controls the cache: a completed year's count never changes and is
// read from and written to the cache; an in-progress year's count grows
// daily and bypasses it.
func (f *Fetcher) MaxDay(ctx context.Context, year int, persist bool) (int, bool) {
	key := cache.MaxDayKey(year)

	if persist {
		if raw, ok := f.lookup(key); ok {
			n, err := strconv.Atoi(raw)
			if err == nil && n > 0 && n <= f.maxDays {
				return n, true
			}
			slog.Error("scraper: invalid cached max day, refetching", "key", key, "value", raw)
		}
	}

	url := fmt.Sprintf("%s/%d", f.baseURL, year)
	n, attempts, err := retry(ctx, f, url, func(ctx context.Context) (int, error) {
		body, err := fetchPage(ctx, f.client, url)
		if err != nil {
			return 0, err
		}
		n, ok := extractMaxDay(body, year)
		if !ok {
			return 0, errNoDayLinks
		}
		return n, nil
	})
	if err != nil {
		slog.Warn("scraper: failed to detect max day, using default",
			"year", year, "default", f.maxDays,
			"attempts", attempts, "reason", classify(ctx, err).String(), "err", err)
		return f.maxDays, false
	}
	if n > f.maxDays {
		n = f.maxDays
	}

	if persist {
		if err := f.cache.Set(key, strconv.Itoa(n)); err != nil {
			slog.Error("scraper: cache write failed", "key", key, "err", err)
		}
	}
	f.pause(ctx)
	return n, true
}

// lookup reads key from the cache. Read errors are logged and reported as
// a miss so the caller falls through to the network.
func (f *Fetcher) lookup(key string) (string, bool) {
	v, ok, err := f.cache.Get(key)
	if err != nil {
		slog.Error("scraper: cache read failed, treating as miss", "key", key, "err", err)
		return "", false
	}
	return v, ok
}

// pause sleeps for a random politeness interval.
func (f *Fetcher) pause(ctx context.Context) {
	d := f.polite.next()
	if err := f.sleep(ctx, d); err != nil {
		slog.Debug("scraper: politeness pause interrupted", "err", err)
	}
}

// retry calls fn up to f.maxAttempts times, backing off between failures.
// It returns the value of the first success, the number of attempts made,
// and the last error if every attempt failed.
func retry[T any](ctx context.Context, f *Fetcher, url string, fn func(context.Context) (T, error)) (T, int, error) {
	var zero T
	var lastErr error
	for attempt := 1; attempt <= f.maxAttempts; attempt++ {
		v, err := fn(ctx)
		if err == nil {
			return v, attempt, nil
		}
		lastErr = err
		if ctx.Err() != nil || attempt == f.maxAttempts {
			return zero, attempt, lastErr
		}

		wait := f.backoff.delay(attempt)
		slog.Debug("scraper: attempt failed, will retry",
			"url", url, "attempt", attempt, "err", err, "retry_in", wait)
		if err := f.sleep(ctx, wait); err != nil {
			return zero, attempt, fmt.Errorf("%w (retry interrupted: %v)", lastErr, err)
		}
	}
	return zero, f.maxAttempts, lastErr
}
