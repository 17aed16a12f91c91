package mocks

import (
	"sort"
	"sync"
	"time"

	"github.com/AlessandroGasperini/pinky/internal/dependencies/clock"
)

// MockClock is a manually driven Clock: Now stays put until Advance
// moves it, and timers armed with AfterFunc fire only when Advance
// carries the clock past their deadline
type MockClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*mockTimer
}

// Ensure MockClock implements Clock
var _ clock.Clock = (*MockClock)(nil)

// NewMockClock creates a MockClock set to the given time
func NewMockClock(t time.Time) *MockClock {
	return &MockClock{now: t}
}

// Now returns the mocked current time
func (c *MockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// AfterFunc arms f to run when the clock is advanced past d from now
func (c *MockClock) AfterFunc(d time.Duration, f func()) clock.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &mockTimer{clk: c, deadline: c.now.Add(d), fn: f}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves the clock forward and fires every due timer, in
// deadline order, from the caller's goroutine
func (c *MockClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)

	var due []*mockTimer
	remaining := c.timers[:0]
	for _, t := range c.timers {
		if !t.stopped && !t.deadline.After(c.now) {
			t.stopped = true
			due = append(due, t)
		} else if !t.stopped {
			remaining = append(remaining, t)
		}
	}
	c.timers = remaining
	c.mu.Unlock()

	sort.SliceStable(due, func(i, j int) bool {
		return due[i].deadline.Before(due[j].deadline)
	})
	// Callbacks run outside the lock so they can arm new timers
	for _, t := range due {
		t.fn()
	}
}

type mockTimer struct {
	clk      *MockClock
	deadline time.Time
	fn       func()
	stopped  bool
}

func (t *mockTimer) Stop() bool {
	t.clk.mu.Lock()
	defer t.clk.mu.Unlock()
	if t.stopped {
		return false
	}
	t.stopped = true
	return true
}
