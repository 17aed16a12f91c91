package factory

import (
	"log/slog"
	"time"

	"github.com/AlessandroGasperini/pinky/internal/dependencies/clock"
	"github.com/AlessandroGasperini/pinky/internal/dependencies/mocks"
	"github.com/AlessandroGasperini/pinky/internal/realtime/local"
	"github.com/AlessandroGasperini/pinky/internal/store"
	"github.com/AlessandroGasperini/pinky/internal/store/memory"
	"github.com/AlessandroGasperini/pinky/internal/testutil"
)

// TestWorld holds the shared backend that every test client talks to:
// one memory store and one in-process hub, standing in for the hosted
// database and its change feed
type TestWorld struct {
	Store  store.Store
	Hub    *local.Hub
	Logger *slog.Logger
}

// NewTestWorld creates a shared backend for multi-client tests
func NewTestWorld() *TestWorld {
	logger := testutil.NopLogger()
	return &TestWorld{
		Store:  memory.New(),
		Hub:    local.NewHub(logger),
		Logger: logger,
	}
}

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// NewClient wires a client core against the shared backend. Each call
// simulates one device joining the same game.
func (w *TestWorld) NewClient(cfg Config) *TestApp {
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	if cfg.SettleDelay == 0 {
		cfg.SettleDelay = time.Millisecond
	}

	// Timestamps come from the pinned mock clock; countdowns and the
	// settle delay run on real time because the flow under test is
	// driven by asynchronous feed events
	app := newWithDependencies(w.Store, w.Hub, mockClock, clock.New(), mockRandom, cfg, w.Logger)
	app.Hub = w.Hub

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}
