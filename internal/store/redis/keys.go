package redis

import (
	"fmt"

	"github.com/AlessandroGasperini/pinky/internal/model"
)

// Key prefix for all game-related data
const keyPrefix = "pinky"

// roomKey returns the Redis key for a Room
func roomKey(id model.RoomID) string {
	return fmt.Sprintf("%s:room:%s", keyPrefix, id)
}

// codeIndexKey returns the Redis key for the code -> room_id index
func codeIndexKey(code model.RoomCode) string {
	return fmt.Sprintf("%s:idx:code:%s", keyPrefix, code)
}

// playerKey returns the Redis key for a Player
func playerKey(id model.PlayerID) string {
	return fmt.Sprintf("%s:player:%s", keyPrefix, id)
}

// playersForRoomIndexKey returns the Redis key for the SET of player keys in a room
func playersForRoomIndexKey(roomID model.RoomID) string {
	return fmt.Sprintf("%s:idx:players_for_room:%s", keyPrefix, roomID)
}

// categoryKey returns the Redis key for a Category
func categoryKey(id model.CategoryID) string {
	return fmt.Sprintf("%s:category:%s", keyPrefix, id)
}

// categoriesIndexKey returns the Redis key for the SET of all category keys
func categoriesIndexKey() string {
	return fmt.Sprintf("%s:idx:categories", keyPrefix)
}

// wordsKey returns the Redis key for the LIST of words in a category
func wordsKey(categoryID model.CategoryID) string {
	return fmt.Sprintf("%s:words:%s", keyPrefix, categoryID)
}

// questionKey returns the Redis key for a Question
func questionKey(id model.QuestionID) string {
	return fmt.Sprintf("%s:question:%s", keyPrefix, id)
}

// questionsForCategoryIndexKey returns the Redis key for the SET of question keys in a category
func questionsForCategoryIndexKey(categoryID model.CategoryID) string {
	return fmt.Sprintf("%s:idx:questions_for_category:%s", keyPrefix, categoryID)
}

// answersKey returns the Redis key for the LIST of answers in a room
func answersKey(roomID model.RoomID) string {
	return fmt.Sprintf("%s:answers:%s", keyPrefix, roomID)
}
