package realtime

import (
	"context"

	"github.com/AlessandroGasperini/pinky/internal/model"
)

// ConnectionStatus is the coarse health of a room subscription
type ConnectionStatus string

const (
	StatusConnecting   ConnectionStatus = "connecting"
	StatusConnected    ConnectionStatus = "connected"
	StatusDisconnected ConnectionStatus = "disconnected"
)

// Handlers receives the per-room change feed. All callbacks are invoked
// from the feed's own goroutine, never concurrently with each other.
// Delivery is best effort: handlers must tolerate duplicates, reordering
// and loss, and refetch authoritative state rather than trust payloads.
type Handlers struct {
	OnRoomChanged    func(room *model.Room)
	OnPlayersChanged func()
	OnSync           func(phase model.Phase, chooserID model.PlayerID)
	OnStatusChange   func(status ConnectionStatus)
}

// Subscription is a live room subscription; Close tears it down and
// stops all callback delivery.
type Subscription interface {
	Close()
}

// Feed is the realtime change feed for rooms. Implementations: the
// in-process hub (local) and the SSE client (sse).
type Feed interface {
	// Subscribe starts delivering the room's events to the handlers.
	// The subscription lives until Close or until ctx is done.
	Subscribe(ctx context.Context, roomID model.RoomID, handlers Handlers) (Subscription, error)

	// Broadcast publishes an event to every subscriber of its room,
	// the caller included
	Broadcast(ctx context.Context, event model.Event) error
}

// Dispatch routes one event to the matching handler. Shared by feed
// implementations so they agree on event semantics.
func Dispatch(event model.Event, handlers Handlers) {
	switch event.Type {
	case model.EventRoomChanged:
		if handlers.OnRoomChanged != nil && event.Room != nil {
			handlers.OnRoomChanged(event.Room)
		}
	case model.EventPlayersChanged:
		if handlers.OnPlayersChanged != nil {
			handlers.OnPlayersChanged()
		}
	case model.EventSync:
		if handlers.OnSync != nil {
			handlers.OnSync(event.Phase, event.ChooserID)
		}
	}
}
