// Package clock provides an abstraction for time operations to improve testability.
// Tool runs are timed through a Clock so tests can assert exact durations.
package clock

import "time"

// Clock is an interface for time operations.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// RealClock implements Clock using the actual system time.
type RealClock struct{}

// Now returns the current time from the system clock.
func (RealClock) Now() time.Time {
	return time.Now()
}

// Ensure RealClock implements Clock.
var _ Clock = RealClock{}

// Stopwatch measures elapsed wall-clock time against a Clock.
type Stopwatch struct {
	clock Clock
	start time.Time
}

// Start begins measuring. A nil clock uses RealClock.
func Start(c Clock) Stopwatch {
	if c == nil {
		c = RealClock{}
	}
	return Stopwatch{clock: c, start: c.Now()}
}

// Elapsed returns the time since Start.
func (s Stopwatch) Elapsed() time.Duration {
	return s.clock.Now().Sub(s.start)
}
