// Package observe measures hibernate attempts. A successful attempt returns
// only after resume, so its duration spans the time the machine was down.
package observe

import "time"

// Clock returns the current time
type Clock func() time.Time

// Timing records start/end timestamps only
type Timing struct {
	StartedAt   time.Time
	CompletedAt time.Time
	now         Clock
}

// NewTiming creates timing with current start time
func NewTiming() *Timing {
	return NewTimingWithClock(time.Now)
}

// NewTimingWithClock creates timing that reads time from now
func NewTimingWithClock(now Clock) *Timing {
	if now == nil {
		now = time.Now
	}
	return &Timing{
		StartedAt: now(),
		now:       now,
	}
}

// Complete records completion time and returns the duration.
// Only the first call has an effect.
func (t *Timing) Complete() time.Duration {
	if t.CompletedAt.IsZero() {
		t.CompletedAt = t.now()
	}
	return t.Duration()
}

// Duration returns execution duration
func (t *Timing) Duration() time.Duration {
	if t.CompletedAt.IsZero() {
		return t.now().Sub(t.StartedAt)
	}
	return t.CompletedAt.Sub(t.StartedAt)
}
