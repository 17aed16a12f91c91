package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/AlessandroGasperini/pinky/internal/dependencies/clock"
	"github.com/AlessandroGasperini/pinky/internal/model"
	"github.com/AlessandroGasperini/pinky/internal/realtime/local"
	"github.com/AlessandroGasperini/pinky/internal/server/apierr"
	"github.com/AlessandroGasperini/pinky/internal/store"
)

// Handler serves the row-store API. It is a thin facade over a Store:
// every route reads or writes plain rows, and row mutations are
// published to the hub so subscribed clients hear about them.
type Handler struct {
	store store.Store
	hub   *local.Hub
	clock clock.Clock
	log   *slog.Logger
}

// NewHandler creates a Handler over the given store and hub
func NewHandler(st store.Store, hub *local.Hub, clk clock.Clock, logger *slog.Logger) *Handler {
	return &Handler{
		store: st,
		hub:   hub,
		clock: clk,
		log:   logger.With(slog.String("component", "server")),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apierr.NewInvalidRequestError("invalid request body")
	}
	return nil
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var room model.Room
	if err := decodeBody(r, &room); err != nil {
		apierr.WriteError(w, err)
		return
	}
	if room.ID == "" || room.Code == "" {
		apierr.WriteError(w, apierr.NewInvalidRequestError("room id and code are required"))
		return
	}
	if err := h.store.CreateRoom(r.Context(), &room); err != nil {
		apierr.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, room)
}

func (h *Handler) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	roomID := model.RoomID(mux.Vars(r)["roomID"])
	room, err := h.store.GetRoom(r.Context(), roomID)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, room)
}

func (h *Handler) handleGetRoomByCode(w http.ResponseWriter, r *http.Request) {
	code := model.RoomCode(mux.Vars(r)["code"])
	room, err := h.store.GetRoomByCode(r.Context(), code)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, room)
}

func (h *Handler) handlePatchRoom(w http.ResponseWriter, r *http.Request) {
	roomID := model.RoomID(mux.Vars(r)["roomID"])
	var patch model.RoomPatch
	if err := decodeBody(r, &patch); err != nil {
		apierr.WriteError(w, err)
		return
	}
	room, err := h.store.UpdateRoom(r.Context(), roomID, patch)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	h.publishRoomChanged(room)
	writeJSON(w, http.StatusOK, room)
}

func (h *Handler) handleCreatePlayer(w http.ResponseWriter, r *http.Request) {
	roomID := model.RoomID(mux.Vars(r)["roomID"])
	var player model.Player
	if err := decodeBody(r, &player); err != nil {
		apierr.WriteError(w, err)
		return
	}
	player.RoomID = roomID
	if player.ID == "" || player.Name == "" {
		apierr.WriteError(w, apierr.NewInvalidRequestError("player id and name are required"))
		return
	}
	if err := h.store.CreatePlayer(r.Context(), &player); err != nil {
		apierr.WriteError(w, err)
		return
	}
	h.publish(model.Event{
		Type:      model.EventPlayersChanged,
		RoomID:    roomID,
		Timestamp: h.clock.Now(),
	})
	writeJSON(w, http.StatusCreated, player)
}

func (h *Handler) handleListPlayers(w http.ResponseWriter, r *http.Request) {
	roomID := model.RoomID(mux.Vars(r)["roomID"])
	players, err := h.store.ListPlayers(r.Context(), roomID)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, players)
}

func (h *Handler) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.store.ListCategories(r.Context())
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

func (h *Handler) handleSaveCategory(w http.ResponseWriter, r *http.Request) {
	var category model.Category
	if err := decodeBody(r, &category); err != nil {
		apierr.WriteError(w, err)
		return
	}
	if err := h.store.SaveCategory(r.Context(), &category); err != nil {
		apierr.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, category)
}

func (h *Handler) handleListWords(w http.ResponseWriter, r *http.Request) {
	categoryID := model.CategoryID(mux.Vars(r)["categoryID"])
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			apierr.WriteError(w, apierr.NewInvalidRequestError("limit must be a non-negative integer"))
			return
		}
		limit = n
	}
	words, err := h.store.ListWords(r.Context(), categoryID, limit)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, words)
}

func (h *Handler) handleSaveWord(w http.ResponseWriter, r *http.Request) {
	var word model.Word
	if err := decodeBody(r, &word); err != nil {
		apierr.WriteError(w, err)
		return
	}
	if err := h.store.SaveWord(r.Context(), &word); err != nil {
		apierr.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, word)
}

func (h *Handler) handleGetQuestion(w http.ResponseWriter, r *http.Request) {
	questionID := model.QuestionID(mux.Vars(r)["questionID"])
	question, err := h.store.GetQuestion(r.Context(), questionID)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, question)
}

func (h *Handler) handleSaveQuestion(w http.ResponseWriter, r *http.Request) {
	var question model.Question
	if err := decodeBody(r, &question); err != nil {
		apierr.WriteError(w, err)
		return
	}
	if err := h.store.SaveQuestion(r.Context(), &question); err != nil {
		apierr.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, question)
}

func (h *Handler) handleQuestionForRound(w http.ResponseWriter, r *http.Request) {
	roomID := model.RoomID(mux.Vars(r)["roomID"])
	categoryName := r.URL.Query().Get("category")
	if categoryName == "" {
		apierr.WriteError(w, apierr.NewInvalidRequestError("category query parameter is required"))
		return
	}
	round, err := strconv.Atoi(r.URL.Query().Get("round"))
	if err != nil || round < 1 {
		apierr.WriteError(w, apierr.NewInvalidRequestError("round must be a positive integer"))
		return
	}
	question, err := h.store.QuestionForRound(r.Context(), roomID, categoryName, round)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, question)
}

func (h *Handler) handleCreateAnswer(w http.ResponseWriter, r *http.Request) {
	roomID := model.RoomID(mux.Vars(r)["roomID"])
	var answer model.PlayerAnswer
	if err := decodeBody(r, &answer); err != nil {
		apierr.WriteError(w, err)
		return
	}
	answer.RoomID = roomID
	if err := h.store.CreateAnswer(r.Context(), &answer); err != nil {
		apierr.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, answer)
}

func (h *Handler) handleListAnswers(w http.ResponseWriter, r *http.Request) {
	roomID := model.RoomID(mux.Vars(r)["roomID"])
	answers, err := h.store.ListAnswers(r.Context(), roomID)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, answers)
}

// voteRequest is the body for recording one player's vote
type voteRequest struct {
	VoterID    model.PlayerID `json:"voter_id"`
	VotedForID model.PlayerID `json:"voted_for_id"`
}

func (h *Handler) handleSaveVote(w http.ResponseWriter, r *http.Request) {
	roomID := model.RoomID(mux.Vars(r)["roomID"])
	var req voteRequest
	if err := decodeBody(r, &req); err != nil {
		apierr.WriteError(w, err)
		return
	}
	if req.VoterID == "" || req.VotedForID == "" {
		apierr.WriteError(w, apierr.NewInvalidRequestError("voter_id and voted_for_id are required"))
		return
	}
	room, err := h.store.SaveVote(r.Context(), roomID, req.VoterID, req.VotedForID)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	h.publishRoomChanged(room)
	writeJSON(w, http.StatusOK, room)
}

// scoresRequest is the body for merging score deltas into the room
type scoresRequest struct {
	Delta map[model.PlayerID]int `json:"delta"`
}

func (h *Handler) handleMergeScores(w http.ResponseWriter, r *http.Request) {
	roomID := model.RoomID(mux.Vars(r)["roomID"])
	var req scoresRequest
	if err := decodeBody(r, &req); err != nil {
		apierr.WriteError(w, err)
		return
	}
	room, err := h.store.MergeScores(r.Context(), roomID, req.Delta)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	h.publishRoomChanged(room)
	writeJSON(w, http.StatusOK, room)
}

func (h *Handler) handlePublishEvent(w http.ResponseWriter, r *http.Request) {
	roomID := model.RoomID(mux.Vars(r)["roomID"])
	var event model.Event
	if err := decodeBody(r, &event); err != nil {
		apierr.WriteError(w, err)
		return
	}
	event.RoomID = roomID
	if event.Timestamp.IsZero() {
		event.Timestamp = h.clock.Now()
	}
	h.publish(event)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

// handleStreamEvents streams the room's change feed over SSE until the
// client disconnects
func (h *Handler) handleStreamEvents(w http.ResponseWriter, r *http.Request) {
	roomID := model.RoomID(mux.Vars(r)["roomID"])

	flusher, ok := w.(http.Flusher)
	if !ok {
		apierr.WriteError(w, apierr.NewInternalError())
		return
	}

	sub := h.hub.SubscribeRaw(roomID)
	defer sub.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	h.log.Debug("sse stream opened", slog.String("room_id", string(roomID)))

	for {
		select {
		case <-r.Context().Done():
			h.log.Debug("sse stream closed", slog.String("room_id", string(roomID)))
			return
		case event, open := <-sub.C:
			if !open {
				return
			}
			data, err := json.Marshal(event)
			if err != nil {
				h.log.Error("failed to marshal event", slog.String("error", err.Error()))
				continue
			}
			fmt.Fprint(w, formatSSEMessage(string(event.Type), string(data)))
			flusher.Flush()
		}
	}
}

// formatSSEMessage formats a message for SSE transmission
func formatSSEMessage(eventType, data string) string {
	return fmt.Sprintf("event: %s\ndata: %s\n\n", eventType, data)
}

func (h *Handler) publishRoomChanged(room *model.Room) {
	h.publish(model.Event{
		Type:      model.EventRoomChanged,
		RoomID:    room.ID,
		Timestamp: h.clock.Now(),
		Room:      room,
	})
}

func (h *Handler) publish(event model.Event) {
	if err := h.hub.Broadcast(context.Background(), event); err != nil {
		h.log.Warn("failed to publish event",
			slog.String("room_id", string(event.RoomID)),
			slog.String("error", err.Error()))
	}
}
