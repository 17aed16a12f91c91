package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/AlessandroGasperini/pinky/internal/model"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest      = "INVALID_REQUEST"
	CodeRoomNotFound        = "ROOM_NOT_FOUND"
	CodePlayerNotFound      = "PLAYER_NOT_FOUND"
	CodeCategoryNotFound    = "CATEGORY_NOT_FOUND"
	CodeQuestionNotFound    = "QUESTION_NOT_FOUND"
	CodeNoMoreQuestions     = "NO_MORE_QUESTIONS"
	CodeRoomFull            = "ROOM_FULL"
	CodeDuplicateName       = "DUPLICATE_NAME"
	CodeNotHost             = "NOT_HOST"
	CodeNotChooser          = "NOT_CHOOSER"
	CodeInsufficientPlayers = "INSUFFICIENT_PLAYERS"
	CodeNoCategories        = "NO_CATEGORIES"
	CodeStalePhase          = "STALE_PHASE"
	CodeInternalError       = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	switch {
	case errors.Is(err, model.ErrRoomNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeRoomNotFound, "Room not found"}}
	case errors.Is(err, model.ErrPlayerNotFound):
		return &httpError{http.StatusNotFound, APIError{CodePlayerNotFound, "Player not found"}}
	case errors.Is(err, model.ErrCategoryNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeCategoryNotFound, "Category not found"}}
	case errors.Is(err, model.ErrQuestionNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeQuestionNotFound, "Question not found"}}
	case errors.Is(err, model.ErrNoMoreQuestions):
		return &httpError{http.StatusConflict, APIError{CodeNoMoreQuestions, "No more questions available"}}
	case errors.Is(err, model.ErrRoomFull):
		return &httpError{http.StatusConflict, APIError{CodeRoomFull, "Room is full"}}
	case errors.Is(err, model.ErrDuplicateName):
		return &httpError{http.StatusConflict, APIError{CodeDuplicateName, "Player name already taken"}}
	case errors.Is(err, model.ErrNotHost):
		return &httpError{http.StatusForbidden, APIError{CodeNotHost, "Only the host can perform this action"}}
	case errors.Is(err, model.ErrNotChooser):
		return &httpError{http.StatusForbidden, APIError{CodeNotChooser, "Player is not the category chooser"}}
	case errors.Is(err, model.ErrInsufficientPlayers):
		return &httpError{http.StatusConflict, APIError{CodeInsufficientPlayers, "Need at least 2 players to start"}}
	case errors.Is(err, model.ErrNoCategories):
		return &httpError{http.StatusConflict, APIError{CodeNoCategories, "No categories available"}}
	case errors.Is(err, model.ErrStalePhase):
		return &httpError{http.StatusConflict, APIError{CodeStalePhase, "Room phase changed"}}
	case errors.Is(err, model.ErrInvalidName), errors.Is(err, model.ErrInvalidCode):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, err.Error()}}
	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// FromCode maps a wire error code back to the matching sentinel error,
// so clients can errors.Is across the HTTP boundary
func FromCode(code, message string) error {
	switch code {
	case CodeRoomNotFound:
		return model.ErrRoomNotFound
	case CodePlayerNotFound:
		return model.ErrPlayerNotFound
	case CodeCategoryNotFound:
		return model.ErrCategoryNotFound
	case CodeQuestionNotFound:
		return model.ErrQuestionNotFound
	case CodeNoMoreQuestions:
		return model.ErrNoMoreQuestions
	case CodeRoomFull:
		return model.ErrRoomFull
	case CodeDuplicateName:
		return model.ErrDuplicateName
	case CodeNotHost:
		return model.ErrNotHost
	case CodeNotChooser:
		return model.ErrNotChooser
	case CodeInsufficientPlayers:
		return model.ErrInsufficientPlayers
	case CodeNoCategories:
		return model.ErrNoCategories
	case CodeStalePhase:
		return model.ErrStalePhase
	default:
		return errors.New(message)
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
