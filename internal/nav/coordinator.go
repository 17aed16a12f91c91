package nav

import (
	"log/slog"
	"sync"
	"time"

	"github.com/AlessandroGasperini/pinky/internal/dependencies/clock"
)

// DefaultSettleDelay is how long a navigation request sits before it
// fires, letting a burst of near-simultaneous state updates settle so
// the coordinator acts on the final value rather than an intermediate
// one.
const DefaultSettleDelay = 300 * time.Millisecond

// Navigator performs the actual screen change
type Navigator interface {
	Navigate(screen Screen)
}

// NavigatorFunc adapts a function to the Navigator interface
type NavigatorFunc func(screen Screen)

func (f NavigatorFunc) Navigate(screen Screen) {
	f(screen)
}

// Coordinator serializes programmatic navigation. At most one request
// is in flight; requests arriving while one is pending are dropped, not
// queued. The target screen is recomputed when the request fires, so
// the most recent state wins regardless of which request got through.
type Coordinator struct {
	navigator Navigator
	clk       clock.Clock
	settle    time.Duration
	logger    *slog.Logger

	mu      sync.Mutex
	pending clock.Timer
	current Screen
}

// NewCoordinator creates a Coordinator scheduling its settle delay on
// the given clock. A non-positive settle delay gets the default.
func NewCoordinator(navigator Navigator, clk clock.Clock, settle time.Duration, logger *slog.Logger) *Coordinator {
	if settle <= 0 {
		settle = DefaultSettleDelay
	}
	return &Coordinator{
		navigator: navigator,
		clk:       clk,
		settle:    settle,
		logger:    logger.With(slog.String("component", "nav-coordinator")),
	}
}

// Request asks for a navigation. resolve is called after the settle
// delay, against whatever the state is by then; returning false aborts
// the navigation (e.g., the screen is already correct). A request made
// while another is pending is dropped.
func (c *Coordinator) Request(resolve func() (Screen, bool)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending != nil {
		c.logger.Debug("navigation request dropped - one already pending")
		return
	}

	c.pending = c.clk.AfterFunc(c.settle, func() {
		c.fire(resolve)
	})
}

func (c *Coordinator) fire(resolve func() (Screen, bool)) {
	screen, ok := resolve()

	c.mu.Lock()
	c.pending = nil
	if !ok || screen == c.current {
		c.mu.Unlock()
		return
	}
	c.current = screen
	c.mu.Unlock()

	c.logger.Info("navigating", slog.String("screen", string(screen)))
	c.navigator.Navigate(screen)
}

// Current returns the last screen navigated to, empty if none
func (c *Coordinator) Current() Screen {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// SetCurrent records a screen change that happened outside the
// coordinator (e.g., the user navigated manually)
func (c *Coordinator) SetCurrent(screen Screen) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = screen
}

// Reset cancels any pending request and forgets the current screen.
// Called when a round cycles back to the lobby or the room is left.
func (c *Coordinator) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending != nil {
		c.pending.Stop()
		c.pending = nil
	}
	c.current = ""
}
