package clock

import "time"

// Timer is a pending callback armed through a Clock. Stop reports
// whether it was cancelled before firing.
type Timer interface {
	Stop() bool
}

// Clock is the time source injected wherever timestamps are taken or
// delayed callbacks are armed, so tests can pin the wall clock and
// fire timers deterministically
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// RealClock reads the system clock and schedules real timers
type RealClock struct{}

// New returns the production time source
func New() *RealClock {
	return &RealClock{}
}

func (c *RealClock) Now() time.Time {
	return time.Now()
}

func (c *RealClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
