package calendar

import "time"

// Window describes when an event's puzzle days unlock.
type Window struct {
	// StartYear is the first year the event ran.
	StartYear int

	// MaxDays is the number of days unlockable in one event.
	MaxDays int

	// Month is the calendar month in which days unlock, one per day.
	Month time.Month

	// Location is the time zone the unlock schedule follows.
	// Nil means UTC.
	Location *time.Location
}

// Range is the inclusive set of (year, day) pairs a run should consider.
type Range struct {
	StartYear int
	EndYear   int

	// LastDay is the last processable day of EndYear.
	LastDay int

	// MaxDays is the full-event day count used for every year before EndYear.
	MaxDays int

	// Active reports that EndYear's event is in progress, so LastDay grows
	// as days unlock.
	Active bool
}

// Resolve computes the range for the wall-clock instant now.
//
// While the event month is open and the day has not passed MaxDays, the
// current year is processed up to today. Any other date processes up to the
// previous year's complete event.
func (w Window) Resolve(now time.Time) Range {
	loc := w.Location
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)

	r := Range{StartYear: w.StartYear, MaxDays: w.MaxDays}
	if local.Month() == w.Month && local.Day() <= w.MaxDays {
		r.EndYear = local.Year()
		r.LastDay = local.Day()
		r.Active = true
		return r
	}
	r.EndYear = local.Year() - 1
	r.LastDay = w.MaxDays
	return r
}

// Years lists StartYear through EndYear inclusive. It is empty when the
// range ends before it starts.
func (r Range) Years() []int {
	if r.EndYear < r.StartYear {
		return nil
	}
	years := make([]int, 0, r.EndYear-r.StartYear+1)
	for y := r.StartYear; y <= r.EndYear; y++ {
		years = append(years, y)
	}
	return years
}

// DayCap returns the last day to consider for year: LastDay for EndYear,
// MaxDays for earlier years, and 0 outside the range.
func (r Range) DayCap(year int) int {
	switch {
	case year < r.StartYear || year > r.EndYear:
		return 0
	case year == r.EndYear:
		return r.LastDay
	default:
		return r.MaxDays
	}
}

// InProgress reports whether year's unlock count may still grow.
func (r Range) InProgress(year int) bool {
	return r.Active && year == r.EndYear
}
