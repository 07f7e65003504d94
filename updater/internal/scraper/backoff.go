package scraper

import (
	"context"
	"time"
)

// linearBackoff waits attempt × step before retry number attempt.
// Successive delays never shrink.
type linearBackoff struct {
	step time.Duration
}

// delay returns the wait before the retry that follows failed attempt n (1-based).
func (b linearBackoff) delay(n int) time.Duration {
	if n < 1 {
		n = 1
	}
	return time.Duration(n) * b.step
}

// politeness picks the random pause taken after every network fetch.
type politeness struct {
	min, max time.Duration
	float    func() float64 // [0, 1); injectable for tests
}

// next returns a duration uniform in [min, max].
func (p politeness) next() time.Duration {
	if p.max <= p.min {
		return p.min
	}
	span := float64(p.max - p.min)
	return p.min + time.Duration(span*p.float())
}

// sleepFunc blocks for d or until ctx is done.
type sleepFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
