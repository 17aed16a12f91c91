package model

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// PlayerID uniquely identifies a player across the system
type PlayerID string

// Player represents one participant in one room
type Player struct {
	ID        PlayerID  `json:"id"`
	RoomID    RoomID    `json:"room_id"`
	Name      string    `json:"name"`    // 2-20 chars, trimmed
	Avatar    string    `json:"avatar"`  // single emoji/initial or an image reference
	IsHost    bool      `json:"is_host"` // exactly one true per room, set at creation
	IsActive  bool      `json:"is_active"`
	LastSeen  time.Time `json:"last_seen"`
	CreatedAt time.Time `json:"created_at"`
}

// Name length bounds, applied after trimming
const (
	MinNameLength = 2
	MaxNameLength = 20
)

// ValidatePlayerName trims the name and checks the length bounds
func ValidatePlayerName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	n := utf8.RuneCountInString(trimmed)
	if n < MinNameLength || n > MaxNameLength {
		return "", ErrInvalidName
	}
	return trimmed, nil
}

// DefaultAvatar returns the avatar to use when none was supplied: the
// upper-cased first rune of the trimmed name.
func DefaultAvatar(name string) string {
	r, _ := utf8.DecodeRuneInString(strings.TrimSpace(name))
	if r == utf8.RuneError {
		return ""
	}
	return string(unicode.ToUpper(r))
}

// ActivePlayers filters the list down to players marked active
func ActivePlayers(players []Player) []Player {
	var active []Player
	for _, p := range players {
		if p.IsActive {
			active = append(active, p)
		}
	}
	return active
}
