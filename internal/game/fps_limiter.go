package game

import (
	"time"
)

// spinWindow is how close to the deadline Wait stops sleeping and polls.
const spinWindow = 200 * time.Microsecond

// FPSLimiter holds Session ticks to a fixed rate. It keeps an absolute
// schedule, so a short tick lends its slack to the next one.
type FPSLimiter struct {
	due time.Time
}

// NewFPSLimiter returns a limiter whose first tick is due one interval
// after the first Wait.
func NewFPSLimiter() *FPSLimiter {
	return &FPSLimiter{}
}

// Wait returns when the next tick at tickRate ticks per second is due.
// tickRate <= 0 returns at once and drops the schedule.
// When a tick overruns by more than one interval the schedule restarts
// from now instead of bursting to catch up.
func (f *FPSLimiter) Wait(tickRate int) {
	if tickRate <= 0 {
		f.due = time.Time{}
		return
	}
	interval := time.Second / time.Duration(tickRate)

	if f.due.IsZero() {
		f.due = time.Now()
	}
	f.due = f.due.Add(interval)

	for {
		left := time.Until(f.due)
		if left <= 0 {
			break
		}
		if left > spinWindow {
			time.Sleep(left - spinWindow)
		}
	}

	if overrun := -time.Until(f.due); overrun > interval {
		f.due = time.Now().Add(interval)
	}
}
