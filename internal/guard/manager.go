package guard

import (
	"log/slog"
	"sync"

	"github.com/AlessandroGasperini/pinky/internal/dependencies/clock"
	"github.com/AlessandroGasperini/pinky/internal/nav"
	"github.com/AlessandroGasperini/pinky/internal/services/session"
	"github.com/AlessandroGasperini/pinky/internal/state"
)

// Manager owns one guard per screen and keeps exactly the visible
// screen's guard active
type Manager struct {
	coordinator *nav.Coordinator
	guards      map[nav.Screen]*Guard

	mu      sync.Mutex
	current nav.Screen
}

// NewManager builds guards for every screen
func NewManager(
	stateStore *state.Store,
	controller session.ControllerInterface,
	coordinator *nav.Coordinator,
	clk clock.Clock,
	timings Timings,
	logger *slog.Logger,
) *Manager {
	screens := []nav.Screen{
		nav.ScreenEntry,
		nav.ScreenLobby,
		nav.ScreenCategorySelection,
		nav.ScreenWaitingForCategory,
		nav.ScreenQuestionIntro,
		nav.ScreenQuestion,
		nav.ScreenRoundScoreboard,
		nav.ScreenRoleLoading,
		nav.ScreenRoleReveal,
		nav.ScreenRoleVoting,
		nav.ScreenRoleResults,
	}

	guards := make(map[nav.Screen]*Guard, len(screens))
	for _, screen := range screens {
		guards[screen] = New(screen, stateStore, controller, coordinator, clk, timings, logger)
	}

	return &Manager{
		coordinator: coordinator,
		guards:      guards,
	}
}

// Show marks a screen visible: the previous screen's guard deactivates
// (suspending its countdown), the new one activates
func (m *Manager) Show(screen nav.Screen) {
	m.mu.Lock()
	previous := m.current
	m.current = screen
	m.mu.Unlock()

	if previous != "" && previous != screen {
		m.guards[previous].Deactivate()
	}
	m.coordinator.SetCurrent(screen)
	if g, ok := m.guards[screen]; ok {
		g.Activate()
	}
}

// Current returns the screen whose guard is active
func (m *Manager) Current() nav.Screen {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Hide deactivates everything (e.g., app going to background)
func (m *Manager) Hide() {
	m.mu.Lock()
	previous := m.current
	m.current = ""
	m.mu.Unlock()

	if previous != "" {
		m.guards[previous].Deactivate()
	}
}
