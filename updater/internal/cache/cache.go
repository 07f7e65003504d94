package cache

import (
	"errors"
	"fmt"
)

// ErrCorrupt is returned by Get when an entry exists but cannot be trusted.
var ErrCorrupt = errors.New("cache: corrupt entry")

// Cache is a get/set store of string values.
//
// Get reports ok=false for a missing or empty entry. A non-nil error means
// the entry exists but could not be read; callers treat it as a miss.
type Cache interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
}

// TitleKey is the key of the cached title for one puzzle day.
func TitleKey(year, day int) string {
	return fmt.Sprintf("%d_%d", year, day)
}

// MaxDayKey is the key of the cached unlocked-day count for one event year.
func MaxDayKey(year int) string {
	return fmt.Sprintf("%d_max_day", year)
}

var (
	_ Cache = (*Dir)(nil)
	_ Cache = (*Memory)(nil)
)
