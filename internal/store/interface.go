package store

import (
	"context"

	"github.com/AlessandroGasperini/pinky/internal/model"
)

// Store defines the row-store operations the game client needs. The
// hosted database behind it is an external collaborator: rooms,
// players, answers and reference content are plain rows, and the
// realtime feed (internal/realtime) pushes change notifications for
// them separately.
type Store interface {
	// Room operations
	CreateRoom(ctx context.Context, room *model.Room) error
	GetRoom(ctx context.Context, id model.RoomID) (*model.Room, error)
	GetRoomByCode(ctx context.Context, code model.RoomCode) (*model.Room, error)
	// UpdateRoom applies a partial patch and returns the updated row.
	// When the patch carries ExpectPhase, the update is atomic: it
	// applies only while the room is still in that phase and fails
	// with model.ErrStalePhase otherwise.
	UpdateRoom(ctx context.Context, id model.RoomID, patch model.RoomPatch) (*model.Room, error)

	// Player operations
	CreatePlayer(ctx context.Context, player *model.Player) error
	// ListPlayers returns the room's players ordered by creation time
	ListPlayers(ctx context.Context, roomID model.RoomID) ([]model.Player, error)

	// Reference content (read-mostly; Save* exist for seeding)
	ListCategories(ctx context.Context) ([]model.Category, error)
	ListWords(ctx context.Context, categoryID model.CategoryID, limit int) ([]string, error)
	GetQuestion(ctx context.Context, id model.QuestionID) (*model.Question, error)
	// QuestionForRound resolves the question assigned to (room,
	// category name, 1-based round); ErrNoMoreQuestions when the round
	// exceeds the category's question list
	QuestionForRound(ctx context.Context, roomID model.RoomID, categoryName string, round int) (*model.Question, error)
	SaveCategory(ctx context.Context, category *model.Category) error
	SaveWord(ctx context.Context, word *model.Word) error
	SaveQuestion(ctx context.Context, question *model.Question) error

	// Answer operations (append-only)
	CreateAnswer(ctx context.Context, answer *model.PlayerAnswer) error
	ListAnswers(ctx context.Context, roomID model.RoomID) ([]model.PlayerAnswer, error)

	// Read-modify-write helpers on the room row
	// SaveVote records voter -> votedFor in game_data.votes (last write
	// wins per voter) and returns the updated row
	SaveVote(ctx context.Context, roomID model.RoomID, voter, votedFor model.PlayerID) (*model.Room, error)
	// MergeScores adds the deltas into the room's score map and returns
	// the updated row
	MergeScores(ctx context.Context, roomID model.RoomID, delta map[model.PlayerID]int) (*model.Room, error)
}
