package nav

import "github.com/AlessandroGasperini/pinky/internal/model"

// Screen identifies one screen the client can be showing
type Screen string

const (
	ScreenEntry              Screen = "entry"
	ScreenLobby              Screen = "lobby"
	ScreenCategorySelection  Screen = "category_selection"
	ScreenWaitingForCategory Screen = "waiting_for_category"
	ScreenQuestionIntro      Screen = "question_intro"
	ScreenQuestion           Screen = "question"
	ScreenRoundScoreboard    Screen = "round_scoreboard"
	ScreenRoleLoading        Screen = "role_loading"
	ScreenRoleReveal         Screen = "role_reveal"
	ScreenRoleVoting         Screen = "role_voting"
	ScreenRoleResults        Screen = "role_results"
)

// Resolve maps the room's phase and the player's standing to the single
// correct screen. Pure and total: every input maps to exactly one
// screen, with the lobby as the fallback for anything unrecognized.
func Resolve(phase model.Phase, chooserID, playerID model.PlayerID, isHost bool) Screen {
	switch phase {
	case model.PhaseWaiting:
		return ScreenLobby
	case model.PhaseCategorySelection:
		if chooserID == playerID {
			return ScreenCategorySelection
		}
		return ScreenWaitingForCategory
	case model.PhaseQuestionIntro:
		return ScreenQuestionIntro
	case model.PhaseQuestion:
		return ScreenQuestion
	case model.PhaseRoundScoreboard:
		return ScreenRoundScoreboard
	case model.PhaseGameIntro:
		return ScreenRoleLoading
	case model.PhaseGamePlaying:
		return ScreenRoleReveal
	case model.PhaseGameVoting:
		return ScreenRoleVoting
	case model.PhaseGameResults:
		return ScreenRoleResults
	default:
		return ScreenLobby
	}
}
