// Package sim drives the epidemic forward: the timestep clock, the parallel
// per-group interaction sweep, the serial application of sampled infections
// and the health-status sweep that moves symptoms along.
package sim

import (
	"fmt"
	"time"
)

// Timer is the simulation clock. Time is measured in days since the start
// date; every step advances by a fixed delta.
type Timer struct {
	start     time.Time
	delta     float64
	totalDays float64
	step      int
}

// NewTimer creates a clock starting at the given date that advances delta
// days per step and finishes after totalDays.
func NewTimer(start time.Time, delta, totalDays float64) (*Timer, error) {
	if delta <= 0 {
		return nil, fmt.Errorf("sim: timer delta must be positive, got %v", delta)
	}
	if totalDays < 0 {
		return nil, fmt.Errorf("sim: timer total days must be non-negative, got %v", totalDays)
	}
	return &Timer{start: start, delta: delta, totalDays: totalDays}, nil
}

// Now returns the current simulation time in days since start.
func (t *Timer) Now() float64 { return float64(t.step) * t.delta }

// Delta returns the step size in days.
func (t *Timer) Delta() float64 { return t.delta }

// Step returns the number of completed steps.
func (t *Timer) Step() int { return t.step }

// Date returns the calendar date-time of the current simulation time.
func (t *Timer) Date() time.Time {
	return t.start.Add(time.Duration(t.Now() * 24 * float64(time.Hour)))
}

// Weekend reports whether the current date falls on a Saturday or Sunday,
// for callers that run different group rosters on weekends.
func (t *Timer) Weekend() bool {
	wd := t.Date().Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// Advance moves the clock one step forward.
func (t *Timer) Advance() { t.step++ }

// Finished reports whether the clock has passed the configured horizon.
func (t *Timer) Finished() bool { return t.Now() >= t.totalDays }
