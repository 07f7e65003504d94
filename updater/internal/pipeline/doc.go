// Package pipeline merges fetched puzzle titles into the store.
//
// Runner.Run resolves the year/day range for the instant it is given, walks
// every day in order, skips days the store already knows and asks the
// fetcher for the rest. Per-day failures are counted in Stats and never stop
// the run; only context cancellation does.
package pipeline
