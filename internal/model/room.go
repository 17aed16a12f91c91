package model

import "time"

// RoomID uniquely identifies a room (server-assigned, immutable)
type RoomID string

// RoomCode is the human-shareable 3-digit code for joining rooms
type RoomCode string

// RoomStatus represents the coarse lifecycle of a room
type RoomStatus string

const (
	RoomStatusWaiting  RoomStatus = "waiting"  // Lobby, no round in progress
	RoomStatusPlaying  RoomStatus = "playing"  // A round is in progress
	RoomStatusFinished RoomStatus = "finished" // Modeled but never set in-game; see Room doc
)

// Phase is the room's current step in the per-round state machine
type Phase string

const (
	PhaseWaiting           Phase = "waiting"
	PhaseCategorySelection Phase = "category_selection"
	PhaseQuestionIntro     Phase = "question_intro"
	PhaseQuestion          Phase = "question"
	PhaseRoundScoreboard   Phase = "round_scoreboard"
	PhaseGameIntro         Phase = "game_intro"
	PhaseGamePlaying       Phase = "game_playing"
	PhaseGameVoting        Phase = "game_voting"
	PhaseGameResults       Phase = "game_results"
)

// MaxPlayers is the fixed room capacity
const MaxPlayers = 8

// GameData is the free-form round payload for role (hidden-imposter) mode
type GameData struct {
	ImposterID PlayerID              `json:"imposter_id"`
	Words      []string              `json:"words"`
	Votes      map[PlayerID]PlayerID `json:"votes"` // voter -> voted-for, last write wins per voter
}

// VoteCounts tallies how many votes each player received
func (d *GameData) VoteCounts() map[PlayerID]int {
	counts := make(map[PlayerID]int)
	for _, votedFor := range d.Votes {
		counts[votedFor]++
	}
	return counts
}

// MostVoted returns the player with the most votes, or empty if no votes
// were cast. Ties resolve to the lexically smallest id so that every
// client computes the same outcome.
func (d *GameData) MostVoted() PlayerID {
	var best PlayerID
	bestCount := 0
	for votedFor, count := range d.VoteCounts() {
		if count > bestCount || (count == bestCount && (best == "" || votedFor < best)) {
			best = votedFor
			bestCount = count
		}
	}
	return best
}

// Room represents one play session, joined by code.
//
// Status "finished" exists in the data model but no operation sets it:
// the source app cycles rounds through the lobby indefinitely and its
// final-round condition never fires. Preserved as-is rather than
// inventing end-game behavior.
type Room struct {
	ID                RoomID           `json:"id"`
	Code              RoomCode         `json:"code"`
	Status            RoomStatus       `json:"status"`
	Phase             Phase            `json:"phase"`
	GameLength        int              `json:"game_length"`   // target number of rounds (6/12/20)
	CurrentRound      int              `json:"current_round"` // zero-based
	MaxPlayers        int              `json:"max_players"`
	CategoryChooserID PlayerID         `json:"category_chooser_id"` // player privileged to pick this round's category, empty outside a round
	CurrentCategoryID CategoryID       `json:"current_category_id"`
	CurrentQuestionID QuestionID       `json:"current_question_id"`
	QuestionNumber    int              `json:"question_number"`     // 1-based, question mode only
	GameData          *GameData        `json:"game_data,omitempty"` // nil outside a role-mode round
	Scores            map[PlayerID]int `json:"scores,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

// InRoleRound reports whether a role-mode round is in flight
func (r *Room) InRoleRound() bool {
	return r.GameData != nil
}

// AllVoted reports whether every listed player has a vote recorded
func (r *Room) AllVoted(players []Player) bool {
	if r.GameData == nil || len(players) == 0 {
		return false
	}
	for _, p := range players {
		if _, ok := r.GameData.Votes[p.ID]; !ok {
			return false
		}
	}
	return true
}
