package scores

import (
	"context"

	"github.com/AlessandroGasperini/pinky/internal/model"
	"github.com/AlessandroGasperini/pinky/internal/store"
)

// Ledger produces per-player point totals for a room. The two game
// modes persist scores differently (per-answer rows vs. an aggregate
// map on the room row); callers pick a ledger via the Selector instead
// of branching on mode themselves.
type Ledger interface {
	Totals(ctx context.Context, room *model.Room) (map[model.PlayerID]int, error)
}

// Selector picks the right ledger for a room's current mode
type Selector struct {
	answers     *AnswerLedger
	accumulator *AccumulatorLedger
}

// NewSelector creates a Selector over the given store
func NewSelector(st store.Store) *Selector {
	return &Selector{
		answers:     NewAnswerLedger(st),
		accumulator: NewAccumulatorLedger(),
	}
}

// ForRoom returns the ledger for the room's mode: the room-row
// accumulator during a role round, per-answer rows otherwise
func (s *Selector) ForRoom(room *model.Room) Ledger {
	if room.InRoleRound() {
		return s.accumulator
	}
	return s.answers
}
