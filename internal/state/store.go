package state

import (
	"sync"

	"github.com/AlessandroGasperini/pinky/internal/model"
	"github.com/AlessandroGasperini/pinky/internal/realtime"
)

// Snapshot is one immutable view of the client's game state. All
// mutation goes through Store methods; reads get copies, so holding a
// Snapshot across updates is safe.
type Snapshot struct {
	Room            *model.Room
	Player          *model.Player
	Players         []model.Player
	Categories      []model.Category
	CurrentQuestion *model.Question

	Loading    bool
	Err        error
	Connection realtime.ConnectionStatus
}

// InRoom reports whether the client currently has a room and player
func (s Snapshot) InRoom() bool {
	return s.Room != nil && s.Player != nil
}

// IsHost reports whether the current player is the room's host
func (s Snapshot) IsHost() bool {
	return s.Player != nil && s.Player.IsHost
}

// IsChooser reports whether the current player picks this round's category
func (s Snapshot) IsChooser() bool {
	return s.Room != nil && s.Player != nil && s.Room.CategoryChooserID == s.Player.ID
}

// Store holds the client's game state and fans change notifications out
// to watchers. Every mutation notifies; watchers coalesce bursts and
// re-read the snapshot rather than diff payloads.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
	watchers map[chan struct{}]bool
}

// NewStore creates an empty state store
func NewStore() *Store {
	return &Store{
		snapshot: Snapshot{Connection: realtime.StatusDisconnected},
		watchers: make(map[chan struct{}]bool),
	}
}

// Snapshot returns a copy of the current state
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copySnapshot(s.snapshot)
}

// Watch registers a change notification channel. The channel holds at
// most one pending signal; a burst of updates coalesces into one. The
// returned func unregisters the watcher.
func (s *Store) Watch() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	s.mu.Lock()
	s.watchers[ch] = true
	s.mu.Unlock()

	return ch, func() {
		s.mu.Lock()
		delete(s.watchers, ch)
		s.mu.Unlock()
	}
}

// mutate applies fn to the state under lock and notifies watchers
func (s *Store) mutate(fn func(*Snapshot)) {
	s.mu.Lock()
	fn(&s.snapshot)
	for ch := range s.watchers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	s.mu.Unlock()
}

// SetLoading marks a remote operation in flight
func (s *Store) SetLoading(loading bool) {
	s.mutate(func(snap *Snapshot) {
		snap.Loading = loading
	})
}

// SetError records an operation error; nil clears it
func (s *Store) SetError(err error) {
	s.mutate(func(snap *Snapshot) {
		snap.Err = err
	})
}

// SetRoom replaces the room row
func (s *Store) SetRoom(room *model.Room) {
	s.mutate(func(snap *Snapshot) {
		snap.Room = room
	})
}

// SetPlayer replaces the client's own player row
func (s *Store) SetPlayer(player *model.Player) {
	s.mutate(func(snap *Snapshot) {
		snap.Player = player
	})
}

// SetPlayers replaces the room's player list
func (s *Store) SetPlayers(players []model.Player) {
	s.mutate(func(snap *Snapshot) {
		snap.Players = players
	})
}

// SetCategories replaces the selectable category list
func (s *Store) SetCategories(categories []model.Category) {
	s.mutate(func(snap *Snapshot) {
		snap.Categories = categories
	})
}

// SetCurrentQuestion replaces the active question; nil clears it
func (s *Store) SetCurrentQuestion(question *model.Question) {
	s.mutate(func(snap *Snapshot) {
		snap.CurrentQuestion = question
	})
}

// UpdateRoom merges a partial patch into the current room. A patch
// arriving before any room is set is dropped: there is nothing
// authoritative to patch.
func (s *Store) UpdateRoom(patch model.RoomPatch) {
	s.mutate(func(snap *Snapshot) {
		if snap.Room == nil {
			return
		}
		room := *snap.Room
		patch.ApplyTo(&room)
		snap.Room = &room
	})
}

// SetConnectionStatus records the realtime feed's health
func (s *Store) SetConnectionStatus(status realtime.ConnectionStatus) {
	s.mutate(func(snap *Snapshot) {
		snap.Connection = status
	})
}

// Reset clears everything back to the initial state, keeping only the
// connection status
func (s *Store) Reset() {
	s.mutate(func(snap *Snapshot) {
		connection := snap.Connection
		*snap = Snapshot{Connection: connection}
	})
}

// copySnapshot deep-copies the mutable parts of a snapshot
func copySnapshot(snap Snapshot) Snapshot {
	out := snap
	if snap.Room != nil {
		room := *snap.Room
		out.Room = &room
	}
	if snap.Player != nil {
		player := *snap.Player
		out.Player = &player
	}
	if snap.Players != nil {
		out.Players = make([]model.Player, len(snap.Players))
		copy(out.Players, snap.Players)
	}
	if snap.Categories != nil {
		out.Categories = make([]model.Category, len(snap.Categories))
		copy(out.Categories, snap.Categories)
	}
	if snap.CurrentQuestion != nil {
		question := *snap.CurrentQuestion
		out.CurrentQuestion = &question
	}
	return out
}
