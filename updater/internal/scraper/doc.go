// Package scraper looks up puzzle titles on the event host.
//
// Fetcher.Title consults the cache first; on a miss it GETs
// <base>/<year>/day/<day>, finds the "--- Day N: <title> ---" heading
// (extract.go, golang.org/x/net/html) and caches the title. Failed attempts
// (transport error, non-200 status, missing markers) are retried with a
// linear backoff (backoff.go); a random politeness pause follows every
// successful network fetch.
//
// Fetcher.MaxDay reads a year's index page to count unlocked days.
//
// Outcomes are reported as a Result value rather than an error so the
// caller can skip a day and carry on.
package scraper
