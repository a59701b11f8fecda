// Package util holds small helpers for long running batch jobs.
package util

import "time"

// A SkipThrottler lets an event through at most once per period and skips the rest.
// It is meant for progress logging inside tight loops.
type SkipThrottler struct {
	d    time.Duration
	last time.Time
	now  func() time.Time
}

func NewSkipThrottler(d time.Duration) *SkipThrottler {
	tt := &SkipThrottler{d: d, now: time.Now}
	return tt
}

// Ok reports whether the event should happen, in which case the period starts over.
// The first call is always Ok.
func (tt *SkipThrottler) Ok() bool {
	now := tt.now()
	if !tt.last.IsZero() && now.Before(tt.last.Add(tt.d)) {
		return false
	}

	tt.last = now
	return true
}
