package model

import "time"

// CategoryID uniquely identifies a category
type CategoryID string

// CategoryImposter is the category name that selects role (hidden-imposter)
// mode; every other category runs the legacy question mode.
const CategoryImposter = "imposter"

// Category is static reference data describing one selectable category
type Category struct {
	ID             CategoryID `json:"id"`
	Name           string     `json:"name"` // discriminator, e.g. "imposter", "simple", "never_have_i_ever"
	Description    string     `json:"description"`
	TimeoutSeconds int        `json:"timeout_seconds"` // per-category reveal/answer timeout
	IsActive       bool       `json:"is_active"`
	CreatedAt      time.Time  `json:"created_at"`
}

// IsRoleMode reports whether picking this category starts a role-mode round
func (c *Category) IsRoleMode() bool {
	return c.Name == CategoryImposter
}

// QuestionID uniquely identifies a question
type QuestionID string

// Question is static content for the legacy trivia mode
type Question struct {
	ID             QuestionID `json:"id"`
	CategoryID     CategoryID `json:"category_id"`
	Text           string     `json:"text"`
	CorrectAnswer  string     `json:"correct_answer"`
	Points         int        `json:"points"`
	TimeoutSeconds int        `json:"timeout_seconds"`
	IsActive       bool       `json:"is_active"`
	CreatedAt      time.Time  `json:"created_at"`
}

// Word is static content for role mode, scoped to a category
type Word struct {
	ID         string     `json:"id"`
	CategoryID CategoryID `json:"category_id"`
	Word       string     `json:"word"`
	IsActive   bool       `json:"is_active"`
	CreatedAt  time.Time  `json:"created_at"`
}

// AnswerID uniquely identifies a submitted answer
type AnswerID string

// PlayerAnswer is one player's answer to one question. Rows are
// append-only; nothing updates them after submission. Uniqueness per
// (player, question) is expected but not enforced here.
type PlayerAnswer struct {
	ID           AnswerID   `json:"id"`
	PlayerID     PlayerID   `json:"player_id"`
	RoomID       RoomID     `json:"room_id"`
	QuestionID   QuestionID `json:"question_id"`
	Answer       string     `json:"answer"`
	IsCorrect    bool       `json:"is_correct"`
	PointsEarned int        `json:"points_earned"`
	AnsweredAt   time.Time  `json:"answered_at"`
}
