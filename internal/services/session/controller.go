package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/AlessandroGasperini/pinky/internal/dependencies/clock"
	"github.com/AlessandroGasperini/pinky/internal/dependencies/random"
	"github.com/AlessandroGasperini/pinky/internal/model"
	"github.com/AlessandroGasperini/pinky/internal/nav"
	"github.com/AlessandroGasperini/pinky/internal/realtime"
	"github.com/AlessandroGasperini/pinky/internal/services/scores"
	"github.com/AlessandroGasperini/pinky/internal/state"
	"github.com/AlessandroGasperini/pinky/internal/store"
)

// MaxWordsPerRound caps how many words a role-mode round fetches
const MaxWordsPerRound = 10

// Role-mode scoring
const (
	ImposterEscapedPoints = 3 // imposter was not the most-voted player
	CaughtImposterPoints  = 3 // voted for the imposter
	MissedImposterPoints  = 1 // voted for somebody else
)

// ControllerInterface defines the game session operations
type ControllerInterface interface {
	CreateRoom(ctx context.Context, gameLength int, playerName, avatar string) (model.RoomCode, error)
	JoinRoom(ctx context.Context, code model.RoomCode, playerName, avatar string) error
	LeaveRoom(ctx context.Context) error

	StartRound(ctx context.Context) error
	SelectCategory(ctx context.Context, categoryID model.CategoryID) error
	SubmitAnswer(ctx context.Context, answer string, isCorrect bool) error
	SubmitVote(ctx context.Context, votedFor model.PlayerID) error
	CompleteVoting(ctx context.Context) error
	MoveToRoundScoreboard(ctx context.Context) error
	AdvancePhase(ctx context.Context, from, to model.Phase) error
	ReturnToLobby(ctx context.Context) error

	PlayerScores(ctx context.Context) (map[model.PlayerID]int, error)
	RefreshPlayers(ctx context.Context) error
	RefreshRoomState(ctx context.Context) error
	IsHost() bool
}

// Controller orchestrates one client's game session: it writes through
// the row store, mirrors results into the local state store, and keeps
// every client in the room nudged via the realtime feed.
type Controller struct {
	store       store.Store
	feed        realtime.Feed
	state       *state.Store
	coordinator *nav.Coordinator
	scores      *scores.Selector
	clock       clock.Clock
	random      random.Random
	logger      *slog.Logger

	mu        sync.Mutex
	sub       realtime.Subscription
	subCancel context.CancelFunc
}

// NewController creates a session controller
func NewController(
	st store.Store,
	feed realtime.Feed,
	stateStore *state.Store,
	coordinator *nav.Coordinator,
	selector *scores.Selector,
	clk clock.Clock,
	rnd random.Random,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		store:       st,
		feed:        feed,
		state:       stateStore,
		coordinator: coordinator,
		scores:      selector,
		clock:       clk,
		random:      rnd,
		logger:      logger.With(slog.String("component", "session")),
	}
}

// Ensure Controller implements the interface
var _ ControllerInterface = (*Controller)(nil)

// CreateRoom creates a room plus its host player, populates local
// state, subscribes to the room's feed, and returns the shareable code
func (c *Controller) CreateRoom(ctx context.Context, gameLength int, playerName, avatar string) (model.RoomCode, error) {
	name, err := model.ValidatePlayerName(playerName)
	if err != nil {
		return "", c.fail(err)
	}

	c.begin()
	defer c.state.SetLoading(false)

	categories, err := c.store.ListCategories(ctx)
	if err != nil {
		return "", c.fail(err)
	}
	if len(categories) == 0 {
		return "", c.fail(model.ErrNoCategories)
	}

	now := c.clock.Now()

	// Uniform over [100,999]. No collision retry: with 900 codes and
	// short-lived rooms the odds are accepted, not solved.
	code := model.RoomCode(fmt.Sprintf("%d", c.random.Intn(900)+100))

	room := &model.Room{
		ID:         model.RoomID(uuid.NewString()),
		Code:       code,
		Status:     model.RoomStatusWaiting,
		Phase:      model.PhaseWaiting,
		GameLength: gameLength,
		MaxPlayers: model.MaxPlayers,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := c.store.CreateRoom(ctx, room); err != nil {
		return "", c.fail(err)
	}

	host, err := c.createPlayer(ctx, room.ID, name, avatar, true)
	if err != nil {
		return "", c.fail(err)
	}

	c.state.SetRoom(room)
	c.state.SetPlayer(host)
	c.state.SetPlayers([]model.Player{*host})
	c.state.SetCategories(categories)
	c.state.SetError(nil)

	c.subscribe(room.ID)
	c.notifyPlayersChanged(room.ID)

	c.logger.Info("room created",
		slog.String("room_id", string(room.ID)),
		slog.String("code", string(code)))
	return code, nil
}

// JoinRoom joins an existing room by code as a non-host player
func (c *Controller) JoinRoom(ctx context.Context, code model.RoomCode, playerName, avatar string) error {
	name, err := model.ValidatePlayerName(playerName)
	if err != nil {
		return c.fail(err)
	}
	if !validCode(code) {
		return c.fail(model.ErrInvalidCode)
	}

	c.begin()
	defer c.state.SetLoading(false)

	room, err := c.store.GetRoomByCode(ctx, code)
	if err != nil {
		return c.fail(err)
	}

	existing, err := c.store.ListPlayers(ctx, room.ID)
	if err != nil {
		return c.fail(err)
	}
	active := model.ActivePlayers(existing)
	if len(active) >= room.MaxPlayers {
		return c.fail(model.ErrRoomFull)
	}
	for _, p := range active {
		if p.Name == name {
			return c.fail(model.ErrDuplicateName)
		}
	}

	player, err := c.createPlayer(ctx, room.ID, name, avatar, false)
	if err != nil {
		return c.fail(err)
	}

	players, err := c.store.ListPlayers(ctx, room.ID)
	if err != nil {
		return c.fail(err)
	}
	categories, err := c.store.ListCategories(ctx)
	if err != nil {
		return c.fail(err)
	}

	c.state.SetRoom(room)
	c.state.SetPlayer(player)
	c.state.SetPlayers(players)
	c.state.SetCategories(categories)
	c.state.SetError(nil)

	c.subscribe(room.ID)
	c.notifyPlayersChanged(room.ID)

	c.logger.Info("room joined",
		slog.String("room_id", string(room.ID)),
		slog.String("player_id", string(player.ID)))
	return nil
}

// LeaveRoom tears down the subscription and resets local state. The
// player row stays behind (soft leave).
func (c *Controller) LeaveRoom(ctx context.Context) error {
	c.unsubscribe()
	c.state.Reset()
	c.coordinator.Reset()
	c.logger.Info("room left")
	return nil
}

// StartRound begins a round: host-only, needs at least two players,
// picks a uniformly random category chooser
func (c *Controller) StartRound(ctx context.Context) error {
	snap, err := c.currentSession()
	if err != nil {
		return c.fail(err)
	}
	if !snap.IsHost() {
		return c.fail(model.ErrNotHost)
	}

	c.begin()
	defer c.state.SetLoading(false)

	players, err := c.store.ListPlayers(ctx, snap.Room.ID)
	if err != nil {
		return c.fail(err)
	}
	active := model.ActivePlayers(players)
	if len(active) < 2 {
		return c.fail(model.ErrInsufficientPlayers)
	}

	chooser := active[c.random.Intn(len(active))]

	room, err := c.applyRoomPatch(ctx, snap.Room.ID, model.RoomPatch{
		Status:            model.Set(model.RoomStatusPlaying),
		Phase:             model.Set(model.PhaseCategorySelection),
		CategoryChooserID: model.Set(chooser.ID),
	})
	if err != nil {
		return c.fail(err)
	}

	c.state.SetPlayers(players)
	c.state.SetError(nil)
	c.logger.Info("round started",
		slog.String("room_id", string(room.ID)),
		slog.Int("round", room.CurrentRound),
		slog.String("chooser_id", string(chooser.ID)))
	return nil
}

// SelectCategory starts the round's game in the mode the category
// selects. Only the chooser may call it.
func (c *Controller) SelectCategory(ctx context.Context, categoryID model.CategoryID) error {
	snap, err := c.currentSession()
	if err != nil {
		return c.fail(err)
	}
	if !snap.IsChooser() {
		return c.fail(model.ErrNotChooser)
	}

	c.begin()
	defer c.state.SetLoading(false)

	category, err := c.findCategory(ctx, snap, categoryID)
	if err != nil {
		return c.fail(err)
	}

	if category.IsRoleMode() {
		return c.startRoleModeRound(ctx, snap, category)
	}
	return c.startQuestionModeRound(ctx, snap, category)
}

// startRoleModeRound picks a random active player as the imposter and
// deals the round's words
func (c *Controller) startRoleModeRound(ctx context.Context, snap state.Snapshot, category *model.Category) error {
	players, err := c.store.ListPlayers(ctx, snap.Room.ID)
	if err != nil {
		return c.fail(err)
	}
	active := model.ActivePlayers(players)
	if len(active) < 2 {
		return c.fail(model.ErrInsufficientPlayers)
	}

	imposter := active[c.random.Intn(len(active))]

	words, err := c.store.ListWords(ctx, category.ID, MaxWordsPerRound)
	if err != nil {
		return c.fail(err)
	}

	room, err := c.applyRoomPatch(ctx, snap.Room.ID, model.RoomPatch{
		Phase:             model.Set(model.PhaseGameIntro),
		CurrentCategoryID: model.Set(category.ID),
		GameData: model.Set(&model.GameData{
			ImposterID: imposter.ID,
			Words:      words,
			Votes:      map[model.PlayerID]model.PlayerID{},
		}),
	})
	if err != nil {
		return c.fail(err)
	}

	c.state.SetError(nil)
	c.logger.Info("role round started",
		slog.String("room_id", string(room.ID)),
		slog.String("category", category.Name),
		slog.Int("words", len(words)))
	return nil
}

// startQuestionModeRound resolves the question assigned to this round
func (c *Controller) startQuestionModeRound(ctx context.Context, snap state.Snapshot, category *model.Category) error {
	question, err := c.store.QuestionForRound(ctx, snap.Room.ID, category.Name, snap.Room.CurrentRound+1)
	if err != nil {
		return c.fail(err)
	}

	room, err := c.applyRoomPatch(ctx, snap.Room.ID, model.RoomPatch{
		Phase:             model.Set(model.PhaseQuestionIntro),
		CurrentCategoryID: model.Set(category.ID),
		CurrentQuestionID: model.Set(question.ID),
		QuestionNumber:    model.Set(snap.Room.CurrentRound + 1),
	})
	if err != nil {
		return c.fail(err)
	}

	c.state.SetCurrentQuestion(question)
	c.state.SetError(nil)
	c.logger.Info("question round started",
		slog.String("room_id", string(room.ID)),
		slog.String("category", category.Name),
		slog.String("question_id", string(question.ID)))
	return nil
}

// SubmitAnswer appends one answer row for the current question. Not
// deduplicated: a double submit lands twice.
func (c *Controller) SubmitAnswer(ctx context.Context, answer string, isCorrect bool) error {
	snap, err := c.currentSession()
	if err != nil {
		return c.fail(err)
	}
	if snap.CurrentQuestion == nil {
		return c.fail(model.ErrQuestionNotFound)
	}

	points := 0
	if isCorrect {
		points = 1
	}

	row := &model.PlayerAnswer{
		ID:           model.AnswerID(uuid.NewString()),
		PlayerID:     snap.Player.ID,
		RoomID:       snap.Room.ID,
		QuestionID:   snap.CurrentQuestion.ID,
		Answer:       answer,
		IsCorrect:    isCorrect,
		PointsEarned: points,
		AnsweredAt:   c.clock.Now(),
	}
	if err := c.store.CreateAnswer(ctx, row); err != nil {
		return c.fail(err)
	}

	c.state.SetError(nil)
	return nil
}

// SubmitVote records the player's vote; when every active player has
// voted the round completes
func (c *Controller) SubmitVote(ctx context.Context, votedFor model.PlayerID) error {
	snap, err := c.currentSession()
	if err != nil {
		return c.fail(err)
	}
	if votedFor == snap.Player.ID {
		return c.fail(model.ErrSelfVote)
	}

	room, err := c.store.SaveVote(ctx, snap.Room.ID, snap.Player.ID, votedFor)
	if err != nil {
		return c.fail(err)
	}
	c.state.SetRoom(room)

	players, err := c.store.ListPlayers(ctx, room.ID)
	if err != nil {
		return c.fail(err)
	}

	if room.AllVoted(model.ActivePlayers(players)) {
		return c.CompleteVoting(ctx)
	}

	c.state.SetError(nil)
	return nil
}

// CompleteVoting ends the voting phase: exactly one caller advances the
// phase and applies role scoring; everyone else no-ops. Reached from
// the last vote landing or the voting countdown expiring, possibly both.
func (c *Controller) CompleteVoting(ctx context.Context) error {
	snap, err := c.currentSession()
	if err != nil {
		return c.fail(err)
	}

	advanced, room, err := c.advancePhase(ctx, snap.Room.ID, model.PhaseGameVoting, model.PhaseGameResults)
	if err != nil {
		return c.fail(err)
	}
	if !advanced {
		return nil
	}

	players, err := c.store.ListPlayers(ctx, room.ID)
	if err != nil {
		return c.fail(err)
	}

	delta := roleScores(room, model.ActivePlayers(players))
	scored, err := c.store.MergeScores(ctx, room.ID, delta)
	if err != nil {
		return c.fail(err)
	}

	c.state.SetRoom(scored)
	c.state.SetError(nil)
	c.broadcastRoomChanged(ctx, scored)
	c.logger.Info("voting completed", slog.String("room_id", string(room.ID)))
	return nil
}

// roleScores computes the round's score deltas: the imposter earns by
// escaping the vote, everyone else earns by catching them
func roleScores(room *model.Room, players []model.Player) map[model.PlayerID]int {
	delta := make(map[model.PlayerID]int, len(players))
	imposter := room.GameData.ImposterID
	caught := room.GameData.MostVoted() == imposter

	for _, p := range players {
		switch {
		case p.ID == imposter:
			if !caught {
				delta[p.ID] = ImposterEscapedPoints
			} else {
				delta[p.ID] = 0
			}
		case room.GameData.Votes[p.ID] == imposter:
			delta[p.ID] = CaughtImposterPoints
		default:
			delta[p.ID] = MissedImposterPoints
		}
	}
	return delta
}

// MoveToRoundScoreboard ends the question phase
func (c *Controller) MoveToRoundScoreboard(ctx context.Context) error {
	return c.AdvancePhase(ctx, model.PhaseQuestion, model.PhaseRoundScoreboard)
}

// AdvancePhase moves the room from one phase to the next, but only if
// the room is still in the expected predecessor phase. Safe to call
// from both a local timer and a remote push for the same transition:
// the second caller finds the phase already moved and no-ops.
func (c *Controller) AdvancePhase(ctx context.Context, from, to model.Phase) error {
	snap, err := c.currentSession()
	if err != nil {
		return c.fail(err)
	}

	advanced, _, err := c.advancePhase(ctx, snap.Room.ID, from, to)
	if err != nil {
		return c.fail(err)
	}
	if advanced {
		c.state.SetError(nil)
	}
	return nil
}

// advancePhase is the compare-and-set core of AdvancePhase. The store
// enforces the phase precondition under its own lock, so of any number
// of concurrent callers exactly one performs the transition; the rest
// observe ErrStalePhase and report advanced=false.
func (c *Controller) advancePhase(ctx context.Context, roomID model.RoomID, from, to model.Phase) (bool, *model.Room, error) {
	updated, err := c.applyRoomPatch(ctx, roomID, model.RoomPatch{
		ExpectPhase: &from,
		Phase:       model.Set(to),
	})
	if err == nil {
		return true, updated, nil
	}
	if !errors.Is(err, model.ErrStalePhase) {
		return false, nil, err
	}

	room, err := c.store.GetRoom(ctx, roomID)
	if err != nil {
		return false, nil, err
	}
	c.state.SetRoom(room)
	c.logger.Debug("phase advance skipped",
		slog.String("expected", string(from)),
		slog.String("actual", string(room.Phase)))
	return false, room, nil
}

// ReturnToLobby closes the round: clears every round-scoped field,
// bumps the round counter, and resets navigation memory
func (c *Controller) ReturnToLobby(ctx context.Context) error {
	snap, err := c.currentSession()
	if err != nil {
		return c.fail(err)
	}

	c.begin()
	defer c.state.SetLoading(false)

	// Another client's countdown may have already cycled the room;
	// re-read so the round counter advances exactly once
	room, err := c.store.GetRoom(ctx, snap.Room.ID)
	if err != nil {
		return c.fail(err)
	}
	if room.Phase == model.PhaseWaiting {
		c.state.SetRoom(room)
		c.logger.Debug("lobby return skipped - already there",
			slog.String("room_id", string(room.ID)))
		return nil
	}

	_, err = c.applyRoomPatch(ctx, room.ID, model.RoomPatch{
		ExpectPhase:       &room.Phase,
		Phase:             model.Set(model.PhaseWaiting),
		CurrentRound:      model.Set(room.CurrentRound + 1),
		CategoryChooserID: model.ClearField[model.PlayerID](),
		CurrentCategoryID: model.ClearField[model.CategoryID](),
		CurrentQuestionID: model.ClearField[model.QuestionID](),
		GameData:          model.ClearField[*model.GameData](),
	})
	if errors.Is(err, model.ErrStalePhase) {
		// Lost the race to another client's countdown; their write
		// already cycled the room
		if fresh, gerr := c.store.GetRoom(ctx, room.ID); gerr == nil {
			c.state.SetRoom(fresh)
		}
		c.logger.Debug("lobby return lost race",
			slog.String("room_id", string(room.ID)))
		return nil
	}
	if err != nil {
		return c.fail(err)
	}

	c.state.SetCurrentQuestion(nil)
	c.state.SetError(nil)
	c.coordinator.Reset()
	c.logger.Info("returned to lobby", slog.String("room_id", string(snap.Room.ID)))
	return nil
}

// PlayerScores totals scores for the room's current mode
func (c *Controller) PlayerScores(ctx context.Context) (map[model.PlayerID]int, error) {
	snap, err := c.currentSession()
	if err != nil {
		return nil, c.fail(err)
	}
	return c.scores.ForRoom(snap.Room).Totals(ctx, snap.Room)
}

// RefreshPlayers re-fetches the player roster, bypassing the feed
func (c *Controller) RefreshPlayers(ctx context.Context) error {
	snap := c.state.Snapshot()
	if snap.Room == nil {
		return model.ErrNoActiveRoom
	}
	roomID := snap.Room.ID

	players, err := c.store.ListPlayers(ctx, roomID)
	if err != nil {
		return c.fail(err)
	}

	// A late response for a room we already left must not apply
	current := c.state.Snapshot()
	if current.Room == nil || current.Room.ID != roomID {
		return nil
	}

	c.state.SetPlayers(players)
	if current.Player != nil {
		for _, p := range players {
			if p.ID == current.Player.ID {
				player := p
				c.state.SetPlayer(&player)
				break
			}
		}
	}
	return nil
}

// RefreshRoomState re-fetches the room row, bypassing the feed
func (c *Controller) RefreshRoomState(ctx context.Context) error {
	snap := c.state.Snapshot()
	if snap.Room == nil {
		return model.ErrNoActiveRoom
	}
	roomID := snap.Room.ID

	room, err := c.store.GetRoom(ctx, roomID)
	if err != nil {
		return c.fail(err)
	}

	current := c.state.Snapshot()
	if current.Room == nil || current.Room.ID != roomID {
		return nil
	}

	c.state.SetRoom(room)
	return nil
}

// IsHost reports whether the current player is the room's host
func (c *Controller) IsHost() bool {
	return c.state.Snapshot().IsHost()
}

// createPlayer builds and persists one player row
func (c *Controller) createPlayer(ctx context.Context, roomID model.RoomID, name, avatar string, isHost bool) (*model.Player, error) {
	if avatar == "" {
		avatar = model.DefaultAvatar(name)
	}
	now := c.clock.Now()

	player := &model.Player{
		ID:        model.PlayerID(uuid.NewString()),
		RoomID:    roomID,
		Name:      name,
		Avatar:    avatar,
		IsHost:    isHost,
		IsActive:  true,
		LastSeen:  now,
		CreatedAt: now,
	}
	if err := c.store.CreatePlayer(ctx, player); err != nil {
		return nil, err
	}
	return player, nil
}

// findCategory resolves a category id, preferring the cached list
func (c *Controller) findCategory(ctx context.Context, snap state.Snapshot, categoryID model.CategoryID) (*model.Category, error) {
	for i := range snap.Categories {
		if snap.Categories[i].ID == categoryID {
			return &snap.Categories[i], nil
		}
	}

	categories, err := c.store.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	for i := range categories {
		if categories[i].ID == categoryID {
			return &categories[i], nil
		}
	}
	return nil, model.ErrCategoryNotFound
}

// applyRoomPatch writes a patch, mirrors the result locally, and
// notifies the room. Phase/chooser changes additionally get a sync
// broadcast so every client refreshes both the room and roster facets
// promptly instead of waiting on two separate change events.
func (c *Controller) applyRoomPatch(ctx context.Context, roomID model.RoomID, patch model.RoomPatch) (*model.Room, error) {
	room, err := c.store.UpdateRoom(ctx, roomID, patch)
	if err != nil {
		return nil, err
	}

	c.state.SetRoom(room)
	c.broadcastRoomChanged(ctx, room)

	if !patch.Phase.IsKeep() || !patch.CategoryChooserID.IsKeep() {
		c.broadcastSync(ctx, room)
	}
	return room, nil
}

// broadcastRoomChanged pushes the full updated row to the room's feed
func (c *Controller) broadcastRoomChanged(ctx context.Context, room *model.Room) {
	err := c.feed.Broadcast(ctx, model.Event{
		Type:      model.EventRoomChanged,
		RoomID:    room.ID,
		Timestamp: c.clock.Now(),
		Room:      room,
	})
	if err != nil {
		c.logger.Warn("room change broadcast failed", slog.Any("error", err))
	}
}

// broadcastSync pushes the best-effort refresh hint
func (c *Controller) broadcastSync(ctx context.Context, room *model.Room) {
	err := c.feed.Broadcast(ctx, model.Event{
		Type:      model.EventSync,
		RoomID:    room.ID,
		Timestamp: c.clock.Now(),
		Phase:     room.Phase,
		ChooserID: room.CategoryChooserID,
	})
	if err != nil {
		c.logger.Warn("sync broadcast failed", slog.Any("error", err))
	}
}

// notifyPlayersChanged nudges other clients to refetch the roster
func (c *Controller) notifyPlayersChanged(roomID model.RoomID) {
	err := c.feed.Broadcast(context.Background(), model.Event{
		Type:      model.EventPlayersChanged,
		RoomID:    roomID,
		Timestamp: c.clock.Now(),
	})
	if err != nil {
		c.logger.Warn("players change broadcast failed", slog.Any("error", err))
	}
}

// subscribe opens the room's realtime feed and wires its callbacks
// into the state store
func (c *Controller) subscribe(roomID model.RoomID) {
	c.unsubscribe()

	ctx, cancel := context.WithCancel(context.Background())
	handlers := realtime.Handlers{
		OnRoomChanged: func(room *model.Room) {
			// The pushed row is the source of truth for phase
			if current := c.state.Snapshot(); current.Room == nil || current.Room.ID != room.ID {
				return
			}
			c.state.SetRoom(room)
		},
		OnPlayersChanged: func() {
			// The diff payload is not trusted; refetch the full list
			if err := c.RefreshPlayers(ctx); err != nil {
				c.logger.Warn("player refresh failed", slog.Any("error", err))
			}
		},
		OnSync: func(phase model.Phase, chooserID model.PlayerID) {
			// A sync is only a hint; refresh both facets from the store
			if err := c.RefreshRoomState(ctx); err != nil {
				c.logger.Warn("room refresh failed", slog.Any("error", err))
			}
			if err := c.RefreshPlayers(ctx); err != nil {
				c.logger.Warn("player refresh failed", slog.Any("error", err))
			}
		},
		OnStatusChange: func(status realtime.ConnectionStatus) {
			c.state.SetConnectionStatus(status)
			switch status {
			case realtime.StatusDisconnected:
				// Reads and writes still work over the row store;
				// only the push channel is gone
				c.state.SetError(model.ErrConnectionLost)
			case realtime.StatusConnected:
				if errors.Is(c.state.Snapshot().Err, model.ErrConnectionLost) {
					c.state.SetError(nil)
				}
			}
		},
	}

	sub, err := c.feed.Subscribe(ctx, roomID, handlers)
	if err != nil {
		cancel()
		c.logger.Error("subscribe failed",
			slog.String("room_id", string(roomID)),
			slog.Any("error", err))
		c.state.SetConnectionStatus(realtime.StatusDisconnected)
		return
	}

	c.mu.Lock()
	c.sub = sub
	c.subCancel = cancel
	c.mu.Unlock()
}

// unsubscribe closes the current feed subscription, if any
func (c *Controller) unsubscribe() {
	c.mu.Lock()
	sub, cancel := c.sub, c.subCancel
	c.sub, c.subCancel = nil, nil
	c.mu.Unlock()

	if sub != nil {
		sub.Close()
	}
	if cancel != nil {
		cancel()
	}
}

// currentSession fetches the snapshot, requiring an active room and player
func (c *Controller) currentSession() (state.Snapshot, error) {
	snap := c.state.Snapshot()
	if !snap.InRoom() {
		return snap, model.ErrNoActiveRoom
	}
	return snap, nil
}

// begin marks an operation in flight
func (c *Controller) begin() {
	c.state.SetLoading(true)
}

// fail records the error in local state and passes it through
func (c *Controller) fail(err error) error {
	c.state.SetError(err)
	return err
}

// validCode checks the 3-ASCII-digit code format
func validCode(code model.RoomCode) bool {
	if len(code) != 3 {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return code[0] != '0'
}
