package clock

import "time"

// FakeClock is a Clock pinned to a fixed instant, letting tests decide
// when a reconciliation cycle thinks it runs.
type FakeClock struct {
	current time.Time
}

// NewFakeClock pins the clock to t, normalized to UTC.
func NewFakeClock(t time.Time) *FakeClock {
	return &FakeClock{current: t.UTC()}
}

func (c *FakeClock) Now() time.Time {
	return c.current
}

// Advance moves the clock forward, for example past the stale
// threshold.
func (c *FakeClock) Advance(d time.Duration) {
	c.current = c.current.Add(d)
}

// Set jumps the clock to a specific instant.
func (c *FakeClock) Set(t time.Time) {
	c.current = t.UTC()
}
