package model

import "errors"

// Common errors used across the application
var (
	// Validation errors: reported before any remote call is attempted
	ErrInvalidName = errors.New("player name must be 2-20 characters")
	ErrInvalidCode = errors.New("room code must be exactly 3 digits")

	// Not-found errors
	ErrRoomNotFound     = errors.New("room not found")
	ErrPlayerNotFound   = errors.New("player not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrQuestionNotFound = errors.New("question not found")

	// Conflict errors: surfaced with no state mutation performed
	ErrRoomFull            = errors.New("room is full")
	ErrDuplicateName       = errors.New("player name already taken")
	ErrNotHost             = errors.New("only the host can perform this action")
	ErrNotChooser          = errors.New("player is not the category chooser")
	ErrInsufficientPlayers = errors.New("need at least 2 players to start")
	ErrNoCategories        = errors.New("no categories available")
	ErrNoMoreQuestions     = errors.New("no more questions available")
	ErrSelfVote            = errors.New("cannot vote for yourself")
	ErrStalePhase          = errors.New("room phase changed")

	// Session errors
	ErrNoActiveRoom   = errors.New("no active room or player")
	ErrConnectionLost = errors.New("connection lost")
)
