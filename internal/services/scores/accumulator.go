package scores

import (
	"context"

	"github.com/AlessandroGasperini/pinky/internal/model"
)

// AccumulatorLedger reads totals straight off the room row's score map
// (role mode writes there, not to answer rows)
type AccumulatorLedger struct{}

// NewAccumulatorLedger creates an AccumulatorLedger
func NewAccumulatorLedger() *AccumulatorLedger {
	return &AccumulatorLedger{}
}

var _ Ledger = (*AccumulatorLedger)(nil)

// Totals copies the room's accumulated score map
func (l *AccumulatorLedger) Totals(ctx context.Context, room *model.Room) (map[model.PlayerID]int, error) {
	totals := make(map[model.PlayerID]int, len(room.Scores))
	for id, points := range room.Scores {
		totals[id] = points
	}
	return totals, nil
}
