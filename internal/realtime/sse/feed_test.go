package sse

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/AlessandroGasperini/pinky/internal/model"
	"github.com/AlessandroGasperini/pinky/internal/realtime"
	"github.com/AlessandroGasperini/pinky/internal/testutil"
)

type FeedSuite struct {
	suite.Suite
	ctx context.Context
}

func TestFeedSuite(t *testing.T) {
	suite.Run(t, new(FeedSuite))
}

func (s *FeedSuite) SetupTest() {
	s.ctx = context.Background()
}

func (s *FeedSuite) newFeed(baseURL string) *Feed {
	return New(Config{
		BaseURL:        baseURL,
		InitialBackoff: 5 * time.Millisecond,
		MaxAttempts:    3,
	}, testutil.NopLogger())
}

func writeEvent(w http.ResponseWriter, event model.Event) {
	data, _ := json.Marshal(event)
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, data)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func (s *FeedSuite) TestSubscribeReceivesEvents() {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.Equal("/api/rooms/room-1/events", r.URL.Path)
		w.Header().Set("Content-Type", "text/event-stream")
		writeEvent(w, model.Event{
			Type:   model.EventRoomChanged,
			RoomID: "room-1",
			Room:   &model.Room{ID: "room-1", Phase: model.PhaseQuestion},
		})
		writeEvent(w, model.Event{
			Type:   model.EventSync,
			RoomID: "room-1",
			Phase:  model.PhaseGameVoting,
		})
		// Keep the stream open until the client goes away
		<-r.Context().Done()
	}))
	defer server.Close()

	roomCh := make(chan *model.Room, 1)
	syncCh := make(chan model.Phase, 1)

	feed := s.newFeed(server.URL)
	sub, err := feed.Subscribe(s.ctx, "room-1", realtime.Handlers{
		OnRoomChanged: func(room *model.Room) { roomCh <- room },
		OnSync:        func(phase model.Phase, _ model.PlayerID) { syncCh <- phase },
	})
	s.Require().NoError(err)
	defer sub.Close()

	select {
	case room := <-roomCh:
		s.Equal(model.PhaseQuestion, room.Phase)
	case <-time.After(2 * time.Second):
		s.Fail("room change was not delivered")
	}

	select {
	case phase := <-syncCh:
		s.Equal(model.PhaseGameVoting, phase)
	case <-time.After(2 * time.Second):
		s.Fail("sync was not delivered")
	}
}

func (s *FeedSuite) TestReconnectsAfterDrop() {
	var connections atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := connections.Add(1)
		w.Header().Set("Content-Type", "text/event-stream")
		if n == 1 {
			// First connection drops immediately
			return
		}
		writeEvent(w, model.Event{Type: model.EventPlayersChanged, RoomID: "room-1"})
		<-r.Context().Done()
	}))
	defer server.Close()

	playersCh := make(chan struct{}, 1)

	feed := s.newFeed(server.URL)
	sub, err := feed.Subscribe(s.ctx, "room-1", realtime.Handlers{
		OnPlayersChanged: func() { playersCh <- struct{}{} },
	})
	s.Require().NoError(err)
	defer sub.Close()

	select {
	case <-playersCh:
	case <-time.After(2 * time.Second):
		s.Fail("event after reconnect was not delivered")
	}
	s.GreaterOrEqual(connections.Load(), int32(2))
}

func (s *FeedSuite) TestReconnectBudgetResetsAfterSuccessfulConnect() {
	var connections atomic.Int32

	// The server drops every stream shortly after it connects
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		connections.Add(1)
		w.Header().Set("Content-Type", "text/event-stream")
		writeEvent(w, model.Event{Type: model.EventPlayersChanged, RoomID: "room-1"})
	}))
	defer server.Close()

	var disconnects atomic.Int32

	feed := s.newFeed(server.URL)
	sub, err := feed.Subscribe(s.ctx, "room-1", realtime.Handlers{
		OnStatusChange: func(status realtime.ConnectionStatus) {
			if status == realtime.StatusDisconnected {
				disconnects.Add(1)
			}
		},
	})
	s.Require().NoError(err)

	// Every connect succeeds, so drops never accumulate toward the
	// attempt cap: the feed keeps reconnecting well past it
	deadline := time.Now().Add(2 * time.Second)
	for connections.Load() < 8 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	s.GreaterOrEqual(connections.Load(), int32(8))
	s.Equal(int32(0), disconnects.Load())

	sub.Close()
}

func (s *FeedSuite) TestDisconnectsAfterMaxAttempts() {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	statusCh := make(chan realtime.ConnectionStatus, 16)

	feed := s.newFeed(server.URL)
	sub, err := feed.Subscribe(s.ctx, "room-1", realtime.Handlers{
		OnStatusChange: func(status realtime.ConnectionStatus) { statusCh <- status },
	})
	s.Require().NoError(err)
	defer sub.Close()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case status := <-statusCh:
			if status == realtime.StatusDisconnected {
				return
			}
		case <-deadline:
			s.Fail("feed never went terminally disconnected")
			return
		}
	}
}

func (s *FeedSuite) TestBroadcastPostsEvent() {
	received := make(chan model.Event, 1)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.Equal(http.MethodPost, r.Method)
		s.Equal("/api/rooms/room-1/events", r.URL.Path)
		var event model.Event
		s.Require().NoError(json.NewDecoder(r.Body).Decode(&event))
		received <- event
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	feed := s.newFeed(server.URL)
	err := feed.Broadcast(s.ctx, model.Event{
		Type:      model.EventSync,
		RoomID:    "room-1",
		Phase:     model.PhaseQuestion,
		ChooserID: "player-1",
	})
	s.Require().NoError(err)

	event := <-received
	s.Equal(model.EventSync, event.Type)
	s.Equal(model.PhaseQuestion, event.Phase)
	s.Equal(model.PlayerID("player-1"), event.ChooserID)
}
