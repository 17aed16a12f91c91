package factory

import (
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/AlessandroGasperini/pinky/internal/dependencies/clock"
	"github.com/AlessandroGasperini/pinky/internal/dependencies/random"
	"github.com/AlessandroGasperini/pinky/internal/guard"
	"github.com/AlessandroGasperini/pinky/internal/nav"
	"github.com/AlessandroGasperini/pinky/internal/realtime"
	"github.com/AlessandroGasperini/pinky/internal/realtime/local"
	"github.com/AlessandroGasperini/pinky/internal/realtime/sse"
	"github.com/AlessandroGasperini/pinky/internal/services/scores"
	"github.com/AlessandroGasperini/pinky/internal/services/session"
	"github.com/AlessandroGasperini/pinky/internal/state"
	"github.com/AlessandroGasperini/pinky/internal/store"
	"github.com/AlessandroGasperini/pinky/internal/store/memory"
	redisstore "github.com/AlessandroGasperini/pinky/internal/store/redis"
	"github.com/AlessandroGasperini/pinky/internal/store/rest"
)

// Store type constants
const (
	StoreTypeMemory = "memory"
	StoreTypeRedis  = "redis"
	StoreTypeREST   = "rest"
)

// App contains all wired client components
type App struct {
	// Row store
	Store store.Store

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Realtime feed; Hub is non-nil only when the feed is in-process
	Feed realtime.Feed
	Hub  *local.Hub

	// Client core
	State       *state.Store
	Coordinator *nav.Coordinator
	Scores      *scores.Selector
	Session     session.ControllerInterface
	Guards      *guard.Manager
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StoreType selects the row-store backend ("memory", "redis" or "rest")
	// If empty, defaults to "memory"
	StoreType string
	// RedisConfig holds Redis connection settings (required if StoreType is "redis")
	RedisConfig *redisstore.Config
	// RESTConfig points at a remote row-store server (required if StoreType is "rest")
	// The realtime feed connects to the same server over SSE
	RESTConfig *rest.Config
	// Navigator receives screen changes (optional)
	// If nil, navigation requests resolve but go nowhere
	Navigator nav.Navigator
	// SettleDelay overrides the navigation settle window (optional)
	SettleDelay time.Duration
	// Timings overrides the per-screen countdowns (optional)
	Timings *guard.Timings
}

// New creates an application with all dependencies wired
func New(cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	storeType := cfg.StoreType
	if storeType == "" {
		storeType = StoreTypeMemory
	}

	var (
		st   store.Store
		feed realtime.Feed
		hub  *local.Hub
	)
	switch storeType {
	case StoreTypeMemory:
		hub = local.NewHub(logger)
		st = memory.New()
		feed = hub
	case StoreTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StoreType is redis")
		}
		redisStore, err := redisstore.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		hub = local.NewHub(logger)
		st = redisStore
		feed = hub
	case StoreTypeREST:
		if cfg.RESTConfig == nil {
			return nil, errors.New("RESTConfig required when StoreType is rest")
		}
		st = rest.New(*cfg.RESTConfig)
		feed = sse.New(sse.Config{BaseURL: cfg.RESTConfig.BaseURL}, logger)
	default:
		return nil, errors.New("invalid StoreType: must be 'memory', 'redis' or 'rest'")
	}

	clk := clock.New()
	app := newWithDependencies(st, feed, clk, clk, random.New(), cfg, logger)
	app.Hub = hub
	return app, nil
}

// newWithDependencies wires a client core over the given store, feed
// and dependencies (useful for testing). clk stamps timestamps; timers
// schedules the countdowns and the settle delay, so tests can pin the
// former while letting the latter run on real time.
func newWithDependencies(st store.Store, feed realtime.Feed, clk, timers clock.Clock, rnd random.Random, cfg Config, logger *slog.Logger) *App {
	navigator := cfg.Navigator
	if navigator == nil {
		navigator = nav.NavigatorFunc(func(nav.Screen) {})
	}
	timings := guard.DefaultTimings()
	if cfg.Timings != nil {
		timings = *cfg.Timings
	}

	stateStore := state.NewStore()
	coordinator := nav.NewCoordinator(navigator, timers, cfg.SettleDelay, logger)
	selector := scores.NewSelector(st)
	controller := session.NewController(st, feed, stateStore, coordinator, selector, clk, rnd, logger)
	guards := guard.NewManager(stateStore, controller, coordinator, timers, timings, logger)

	return &App{
		Store:       st,
		Clock:       clk,
		Random:      rnd,
		Feed:        feed,
		State:       stateStore,
		Coordinator: coordinator,
		Scores:      selector,
		Session:     controller,
		Guards:      guards,
	}
}
