package scores

import (
	"context"

	"github.com/AlessandroGasperini/pinky/internal/model"
	"github.com/AlessandroGasperini/pinky/internal/store"
)

// AnswerLedger totals scores from the append-only answer rows
// (question mode)
type AnswerLedger struct {
	store store.Store
}

// NewAnswerLedger creates an AnswerLedger
func NewAnswerLedger(st store.Store) *AnswerLedger {
	return &AnswerLedger{store: st}
}

var _ Ledger = (*AnswerLedger)(nil)

// Totals sums points_earned per player across the room's answers
func (l *AnswerLedger) Totals(ctx context.Context, room *model.Room) (map[model.PlayerID]int, error) {
	answers, err := l.store.ListAnswers(ctx, room.ID)
	if err != nil {
		return nil, err
	}

	totals := make(map[model.PlayerID]int)
	for _, answer := range answers {
		totals[answer.PlayerID] += answer.PointsEarned
	}
	return totals, nil
}
