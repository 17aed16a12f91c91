package local

import (
	"context"
	"log/slog"
	"sync"

	"github.com/AlessandroGasperini/pinky/internal/model"
	"github.com/AlessandroGasperini/pinky/internal/realtime"
)

// Hub is an in-process realtime feed. Every subscriber of a room gets
// every event broadcast to that room, the broadcaster included. Used
// directly by same-process clients and by the server's SSE endpoint.
type Hub struct {
	logger *slog.Logger

	mu    sync.RWMutex
	rooms map[model.RoomID]map[*Subscriber]bool
}

// NewHub creates a new Hub
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger: logger.With(slog.String("component", "realtime-hub")),
		rooms:  make(map[model.RoomID]map[*Subscriber]bool),
	}
}

// Ensure Hub implements the feed interface
var _ realtime.Feed = (*Hub)(nil)

// Subscriber is a raw event-channel subscription to one room. Events
// arrive on C; a slow reader gets events dropped rather than blocking
// the hub.
type Subscriber struct {
	C chan model.Event

	hub    *Hub
	roomID model.RoomID
	once   sync.Once
}

// Close removes the subscriber from the hub and closes C
func (s *Subscriber) Close() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		if subs, ok := s.hub.rooms[s.roomID]; ok {
			delete(subs, s)
			if len(subs) == 0 {
				delete(s.hub.rooms, s.roomID)
			}
		}
		s.hub.mu.Unlock()
		close(s.C)
	})
}

// SubscribeRaw attaches a channel subscriber to a room
func (h *Hub) SubscribeRaw(roomID model.RoomID) *Subscriber {
	sub := &Subscriber{
		C:      make(chan model.Event, 64),
		hub:    h,
		roomID: roomID,
	}

	h.mu.Lock()
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[*Subscriber]bool)
	}
	h.rooms[roomID][sub] = true
	count := len(h.rooms[roomID])
	h.mu.Unlock()

	h.logger.Info("subscriber attached",
		slog.String("room_id", string(roomID)),
		slog.Int("total_subscribers", count))
	return sub
}

// Subscribe starts delivering the room's events to the handlers
func (h *Hub) Subscribe(ctx context.Context, roomID model.RoomID, handlers realtime.Handlers) (realtime.Subscription, error) {
	sub := h.SubscribeRaw(roomID)

	if handlers.OnStatusChange != nil {
		handlers.OnStatusChange(realtime.StatusConnected)
	}

	go func() {
		defer sub.Close()
		for {
			select {
			case event, ok := <-sub.C:
				if !ok {
					return
				}
				realtime.Dispatch(event, handlers)
			case <-ctx.Done():
				if handlers.OnStatusChange != nil {
					handlers.OnStatusChange(realtime.StatusDisconnected)
				}
				return
			}
		}
	}()

	return sub, nil
}

// Broadcast publishes an event to every subscriber of its room
func (h *Hub) Broadcast(ctx context.Context, event model.Event) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	dropped := 0
	for sub := range h.rooms[event.RoomID] {
		select {
		case sub.C <- event:
		default:
			dropped++
		}
	}
	if dropped > 0 {
		h.logger.Warn("events dropped - subscriber buffer full",
			slog.String("room_id", string(event.RoomID)),
			slog.String("type", string(event.Type)),
			slog.Int("dropped", dropped))
	}
	return nil
}

// SubscriberCount returns the number of subscribers for a room
func (h *Hub) SubscriberCount(roomID model.RoomID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}
