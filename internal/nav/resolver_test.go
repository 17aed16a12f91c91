package nav

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AlessandroGasperini/pinky/internal/model"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name      string
		phase     model.Phase
		chooserID model.PlayerID
		playerID  model.PlayerID
		isHost    bool
		want      Screen
	}{
		{"waiting", model.PhaseWaiting, "", "player-1", false, ScreenLobby},
		{"waiting as host", model.PhaseWaiting, "", "player-1", true, ScreenLobby},
		{"category selection as chooser", model.PhaseCategorySelection, "player-1", "player-1", false, ScreenCategorySelection},
		{"category selection as non-chooser", model.PhaseCategorySelection, "player-2", "player-1", false, ScreenWaitingForCategory},
		{"category selection host is not special", model.PhaseCategorySelection, "player-2", "player-1", true, ScreenWaitingForCategory},
		{"question intro", model.PhaseQuestionIntro, "player-2", "player-1", false, ScreenQuestionIntro},
		{"question", model.PhaseQuestion, "player-2", "player-1", false, ScreenQuestion},
		{"round scoreboard", model.PhaseRoundScoreboard, "", "player-1", false, ScreenRoundScoreboard},
		{"game intro", model.PhaseGameIntro, "player-2", "player-1", false, ScreenRoleLoading},
		{"game playing", model.PhaseGamePlaying, "player-2", "player-1", false, ScreenRoleReveal},
		{"game voting", model.PhaseGameVoting, "player-2", "player-1", false, ScreenRoleVoting},
		{"game results", model.PhaseGameResults, "player-2", "player-1", false, ScreenRoleResults},
		{"unrecognized phase falls back to lobby", model.Phase("bogus"), "", "player-1", false, ScreenLobby},
		{"empty phase falls back to lobby", model.Phase(""), "", "player-1", false, ScreenLobby},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.phase, tt.chooserID, tt.playerID, tt.isHost)
			assert.Equal(t, tt.want, got)
			// Same inputs, same answer
			assert.Equal(t, got, Resolve(tt.phase, tt.chooserID, tt.playerID, tt.isHost))
		})
	}
}
