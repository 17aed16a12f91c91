package model

import "time"

// EventType identifies the type of realtime event
type EventType string

const (
	// Row-change notifications, one stream per table
	EventRoomChanged    EventType = "room_changed"
	EventPlayersChanged EventType = "players_changed"

	// Synthetic fan-out hint re-broadcast by clients after every
	// phase/chooser mutation. Best effort: receivers must tolerate
	// duplicates, reordering and loss.
	EventSync EventType = "sync"
)

// Event is the payload delivered over the realtime feed for one room
type Event struct {
	Type      EventType `json:"type"`
	RoomID    RoomID    `json:"room_id"`
	Timestamp time.Time `json:"timestamp"`

	// Room carries the full row for room_changed events. The row, not
	// any diff payload, is the sole source of truth for phase.
	Room *Room `json:"room,omitempty"`

	// Phase and ChooserID ride on sync events as a refresh hint
	Phase     Phase    `json:"phase,omitempty"`
	ChooserID PlayerID `json:"chooser_id,omitempty"`
}
