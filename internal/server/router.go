package server

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/AlessandroGasperini/pinky/internal/middleware"
	"github.com/AlessandroGasperini/pinky/internal/server/apierr"
)

// NewRouter builds the API router for the given handler
func NewRouter(h *Handler, logger *slog.Logger) http.Handler {
	r := mux.NewRouter()

	r.Use(middleware.Logging(logger))
	r.Use(middleware.Recovery(logger, panicResponse))

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", h.handleHealth).Methods(http.MethodGet)

	rooms := api.PathPrefix("/rooms").Subrouter()
	rooms.HandleFunc("", h.handleCreateRoom).Methods(http.MethodPost)
	rooms.HandleFunc("/code/{code}", h.handleGetRoomByCode).Methods(http.MethodGet)
	rooms.HandleFunc("/{roomID}", h.handleGetRoom).Methods(http.MethodGet)
	rooms.HandleFunc("/{roomID}", h.handlePatchRoom).Methods(http.MethodPatch)
	rooms.HandleFunc("/{roomID}/players", h.handleCreatePlayer).Methods(http.MethodPost)
	rooms.HandleFunc("/{roomID}/players", h.handleListPlayers).Methods(http.MethodGet)
	rooms.HandleFunc("/{roomID}/question", h.handleQuestionForRound).Methods(http.MethodGet)
	rooms.HandleFunc("/{roomID}/answers", h.handleCreateAnswer).Methods(http.MethodPost)
	rooms.HandleFunc("/{roomID}/answers", h.handleListAnswers).Methods(http.MethodGet)
	rooms.HandleFunc("/{roomID}/votes", h.handleSaveVote).Methods(http.MethodPost)
	rooms.HandleFunc("/{roomID}/scores", h.handleMergeScores).Methods(http.MethodPost)
	rooms.HandleFunc("/{roomID}/events", h.handleStreamEvents).Methods(http.MethodGet)
	rooms.HandleFunc("/{roomID}/events", h.handlePublishEvent).Methods(http.MethodPost)

	api.HandleFunc("/categories", h.handleListCategories).Methods(http.MethodGet)
	api.HandleFunc("/categories", h.handleSaveCategory).Methods(http.MethodPost)
	api.HandleFunc("/categories/{categoryID}/words", h.handleListWords).Methods(http.MethodGet)
	api.HandleFunc("/words", h.handleSaveWord).Methods(http.MethodPost)
	api.HandleFunc("/questions/{questionID}", h.handleGetQuestion).Methods(http.MethodGet)
	api.HandleFunc("/questions", h.handleSaveQuestion).Methods(http.MethodPost)

	return r
}

func panicResponse(w http.ResponseWriter, _ *http.Request, _ any) {
	apierr.WriteError(w, apierr.NewInternalError())
}
