package sse

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/AlessandroGasperini/pinky/internal/model"
	"github.com/AlessandroGasperini/pinky/internal/realtime"
)

// Reconnect defaults
const (
	DefaultInitialBackoff = time.Second
	DefaultMaxAttempts    = 5
)

// Config holds SSE feed connection settings
type Config struct {
	// BaseURL is the server URL (e.g., http://localhost:8080)
	BaseURL string

	// InitialBackoff is the delay before the first reconnect attempt;
	// it doubles on every subsequent attempt
	InitialBackoff time.Duration

	// MaxAttempts caps consecutive failed reconnect attempts before
	// the subscription goes terminally disconnected
	MaxAttempts int
}

// Feed is a realtime feed backed by the server's per-room SSE endpoint.
// Dropped connections reconnect with exponential backoff; once the
// attempt cap is hit the subscription reports disconnected and stops.
type Feed struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a new SSE feed client
func New(cfg Config, logger *slog.Logger) *Feed {
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = DefaultInitialBackoff
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	return &Feed{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 0, // Streaming, no timeout
		},
		logger: logger.With(slog.String("component", "sse-feed")),
	}
}

// Ensure Feed implements the feed interface
var _ realtime.Feed = (*Feed)(nil)

// subscription is one live SSE stream with its reconnect loop
type subscription struct {
	cancel context.CancelFunc
	once   sync.Once
}

func (s *subscription) Close() {
	s.once.Do(s.cancel)
}

// Subscribe starts streaming the room's events to the handlers
func (f *Feed) Subscribe(ctx context.Context, roomID model.RoomID, handlers realtime.Handlers) (realtime.Subscription, error) {
	ctx, cancel := context.WithCancel(ctx)
	sub := &subscription{cancel: cancel}

	go f.run(ctx, roomID, handlers)

	return sub, nil
}

// run is the connect/reconnect loop for one subscription
func (f *Feed) run(ctx context.Context, roomID model.RoomID, handlers realtime.Handlers) {
	logger := f.logger.With(slog.String("room_id", string(roomID)))
	backoff := f.cfg.InitialBackoff
	attempts := 0

	for {
		if ctx.Err() != nil {
			f.setStatus(handlers, realtime.StatusDisconnected)
			return
		}

		f.setStatus(handlers, realtime.StatusConnecting)

		connected, err := f.stream(ctx, roomID, handlers)
		if ctx.Err() != nil {
			f.setStatus(handlers, realtime.StatusDisconnected)
			return
		}

		// A stream that made it to connected earns back the full
		// reconnect budget; the cap only counts consecutive failures
		if connected {
			attempts = 0
			backoff = f.cfg.InitialBackoff
		}

		attempts++
		if attempts >= f.cfg.MaxAttempts {
			logger.Error("reconnect attempts exhausted",
				slog.Int("attempts", attempts),
				slog.Any("error", err))
			f.setStatus(handlers, realtime.StatusDisconnected)
			return
		}

		logger.Warn("stream dropped, reconnecting",
			slog.Int("attempt", attempts),
			slog.Duration("backoff", backoff),
			slog.Any("error", err))

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			f.setStatus(handlers, realtime.StatusDisconnected)
			return
		}
		backoff *= 2
	}
}

// stream holds one SSE connection open, dispatching events until the
// connection drops or ctx is done. The bool reports whether the stream
// reached connected before failing.
func (f *Feed) stream(ctx context.Context, roomID model.RoomID, handlers realtime.Handlers) (bool, error) {
	url := fmt.Sprintf("%s/api/rooms/%s/events", strings.TrimSuffix(f.cfg.BaseURL, "/"), roomID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("connection failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	f.setStatus(handlers, realtime.StatusConnected)

	scanner := bufio.NewScanner(resp.Body)
	var currentEvent string
	var dataLines []string

	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case strings.HasPrefix(line, "event: "):
			currentEvent = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			dataLines = append(dataLines, strings.TrimPrefix(line, "data: "))
		case line == "":
			// End of one SSE message
			if currentEvent != "" {
				f.dispatch(currentEvent, strings.Join(dataLines, "\n"), handlers)
			}
			currentEvent = ""
			dataLines = nil
		}
	}

	if err := scanner.Err(); err != nil {
		return true, fmt.Errorf("stream error: %w", err)
	}
	return true, fmt.Errorf("stream closed by server")
}

// dispatch parses one wire event and routes it to the handlers
func (f *Feed) dispatch(eventName, data string, handlers realtime.Handlers) {
	var event model.Event
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		f.logger.Warn("discarding malformed event",
			slog.String("event", eventName),
			slog.Any("error", err))
		return
	}
	if event.Type == "" {
		event.Type = model.EventType(eventName)
	}
	realtime.Dispatch(event, handlers)
}

func (f *Feed) setStatus(handlers realtime.Handlers, status realtime.ConnectionStatus) {
	if handlers.OnStatusChange != nil {
		handlers.OnStatusChange(status)
	}
}

// Broadcast publishes an event through the server's fan-out endpoint
func (f *Feed) Broadcast(ctx context.Context, event model.Event) error {
	url := fmt.Sprintf("%s/api/rooms/%s/events", strings.TrimSuffix(f.cfg.BaseURL, "/"), event.RoomID)

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 400 {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
	return nil
}
