package guard

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/AlessandroGasperini/pinky/internal/dependencies/clock"
	"github.com/AlessandroGasperini/pinky/internal/model"
	"github.com/AlessandroGasperini/pinky/internal/nav"
	"github.com/AlessandroGasperini/pinky/internal/services/session"
	"github.com/AlessandroGasperini/pinky/internal/state"
)

// Timings are the phase-local countdowns each screen owns. Reveal and
// question screens prefer the category's/question's own timeout and
// fall back to the defaults here.
type Timings struct {
	RoleLoading     time.Duration
	RevealDefault   time.Duration
	Voting          time.Duration
	RoleResults     time.Duration
	QuestionIntro   time.Duration
	QuestionDefault time.Duration
	Scoreboard      time.Duration
}

// DefaultTimings returns the stock countdown lengths
func DefaultTimings() Timings {
	return Timings{
		RoleLoading:     8 * time.Second,
		RevealDefault:   30 * time.Second,
		Voting:          60 * time.Second,
		RoleResults:     10 * time.Second,
		QuestionIntro:   5 * time.Second,
		QuestionDefault: 30 * time.Second,
		Scoreboard:      15 * time.Second,
	}
}

// Guard is the per-screen phase guard. While active (screen visible)
// it watches the state store and re-resolves on every change: if the
// room's phase says this screen is no longer correct, it asks the
// coordinator to navigate; if the room is gone it routes to the entry
// screen. It also owns the screen's countdown, which can itself advance
// the shared phase.
//
// The countdown and the remote feed are two producers of the same
// outgoing transition; a one-shot latch per activation makes sure only
// the first accepted request executes.
type Guard struct {
	screen      nav.Screen
	state       *state.Store
	session     session.ControllerInterface
	coordinator *nav.Coordinator
	clk         clock.Clock
	timings     Timings
	logger      *slog.Logger

	mu        sync.Mutex
	active    bool
	fired     bool
	timer     clock.Timer
	stopWatch func()
	cancel    context.CancelFunc
}

// New creates a guard for one screen
func New(
	screen nav.Screen,
	stateStore *state.Store,
	controller session.ControllerInterface,
	coordinator *nav.Coordinator,
	clk clock.Clock,
	timings Timings,
	logger *slog.Logger,
) *Guard {
	return &Guard{
		screen:      screen,
		state:       stateStore,
		session:     controller,
		coordinator: coordinator,
		clk:         clk,
		timings:     timings,
		logger: logger.With(
			slog.String("component", "guard"),
			slog.String("screen", string(screen))),
	}
}

// Activate starts guarding: the screen just became visible. Re-arms
// the one-shot transition latch.
func (g *Guard) Activate() {
	g.mu.Lock()
	if g.active {
		g.mu.Unlock()
		return
	}
	g.active = true
	g.fired = false

	ctx, cancel := context.WithCancel(context.Background())
	g.cancel = cancel

	changes, stopWatch := g.state.Watch()
	g.stopWatch = stopWatch

	g.startCountdown(ctx)
	g.mu.Unlock()

	go func() {
		g.evaluate(ctx)
		for {
			select {
			case <-changes:
				g.evaluate(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Deactivate stops guarding: the screen is no longer visible. The
// countdown is cancelled, not left ticking in the background.
func (g *Guard) Deactivate() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.active {
		return
	}
	g.active = false

	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
	if g.stopWatch != nil {
		g.stopWatch()
		g.stopWatch = nil
	}
	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
}

// evaluate re-resolves the correct screen and requests navigation if
// this one is stale
func (g *Guard) evaluate(ctx context.Context) {
	snap := g.state.Snapshot()

	if !snap.InRoom() {
		g.coordinator.Request(func() (nav.Screen, bool) {
			if g.state.Snapshot().InRoom() {
				return "", false
			}
			return nav.ScreenEntry, true
		})
		return
	}

	// Voting completion can arrive via a remote vote rather than the
	// local countdown; treat it as a transition request so the latch
	// still applies
	if g.screen == nav.ScreenRoleVoting && snap.Room.AllVoted(model.ActivePlayers(snap.Players)) {
		g.requestTransition(ctx, g.session.CompleteVoting)
	}

	resolved := nav.Resolve(snap.Room.Phase, snap.Room.CategoryChooserID, snap.Player.ID, snap.Player.IsHost)
	if resolved == g.screen {
		return
	}

	g.stopCountdown()
	g.coordinator.Request(func() (nav.Screen, bool) {
		// Recompute from the state at fire time, not from the stale
		// value that triggered the request
		current := g.state.Snapshot()
		if !current.InRoom() {
			return nav.ScreenEntry, true
		}
		return nav.Resolve(current.Room.Phase, current.Room.CategoryChooserID, current.Player.ID, current.Player.IsHost), true
	})
}

// startCountdown arms the screen's countdown, if it has one. Must be
// called with g.mu held.
func (g *Guard) startCountdown(ctx context.Context) {
	duration, transition := g.countdown()
	if transition == nil {
		return
	}

	g.timer = g.clk.AfterFunc(duration, func() {
		g.requestTransition(ctx, transition)
	})
}

func (g *Guard) stopCountdown() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
}

// countdown maps the guarded screen to its countdown length and the
// phase transition that fires when it expires
func (g *Guard) countdown() (time.Duration, func(ctx context.Context) error) {
	switch g.screen {
	case nav.ScreenRoleLoading:
		return g.timings.RoleLoading, func(ctx context.Context) error {
			return g.session.AdvancePhase(ctx, model.PhaseGameIntro, model.PhaseGamePlaying)
		}
	case nav.ScreenRoleReveal:
		return g.revealDuration(), func(ctx context.Context) error {
			return g.session.AdvancePhase(ctx, model.PhaseGamePlaying, model.PhaseGameVoting)
		}
	case nav.ScreenRoleVoting:
		return g.timings.Voting, g.session.CompleteVoting
	case nav.ScreenRoleResults:
		return g.timings.RoleResults, g.session.ReturnToLobby
	case nav.ScreenQuestionIntro:
		return g.timings.QuestionIntro, func(ctx context.Context) error {
			return g.session.AdvancePhase(ctx, model.PhaseQuestionIntro, model.PhaseQuestion)
		}
	case nav.ScreenQuestion:
		return g.questionDuration(), func(ctx context.Context) error {
			return g.session.MoveToRoundScoreboard(ctx)
		}
	case nav.ScreenRoundScoreboard:
		return g.timings.Scoreboard, g.session.ReturnToLobby
	default:
		return 0, nil
	}
}

// revealDuration prefers the current category's timeout
func (g *Guard) revealDuration() time.Duration {
	snap := g.state.Snapshot()
	if snap.Room != nil {
		for _, c := range snap.Categories {
			if c.ID == snap.Room.CurrentCategoryID && c.TimeoutSeconds > 0 {
				return time.Duration(c.TimeoutSeconds) * time.Second
			}
		}
	}
	return g.timings.RevealDefault
}

// questionDuration prefers the current question's timeout
func (g *Guard) questionDuration() time.Duration {
	snap := g.state.Snapshot()
	if snap.CurrentQuestion != nil && snap.CurrentQuestion.TimeoutSeconds > 0 {
		return time.Duration(snap.CurrentQuestion.TimeoutSeconds) * time.Second
	}
	return g.timings.QuestionDefault
}

// requestTransition runs the screen's outgoing transition at most once
// per activation, whichever producer gets there first
func (g *Guard) requestTransition(ctx context.Context, transition func(ctx context.Context) error) {
	g.mu.Lock()
	if !g.active || g.fired {
		g.mu.Unlock()
		return
	}
	g.fired = true
	g.mu.Unlock()

	if err := transition(ctx); err != nil {
		g.logger.Warn("phase transition failed", slog.Any("error", err))
	}
}
