package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/AlessandroGasperini/pinky/internal/dependencies/mocks"
	"github.com/AlessandroGasperini/pinky/internal/model"
	"github.com/AlessandroGasperini/pinky/internal/nav"
	"github.com/AlessandroGasperini/pinky/internal/realtime/local"
	"github.com/AlessandroGasperini/pinky/internal/services/scores"
	"github.com/AlessandroGasperini/pinky/internal/state"
	"github.com/AlessandroGasperini/pinky/internal/store/memory"
	"github.com/AlessandroGasperini/pinky/internal/testutil"
)

type ControllerSuite struct {
	suite.Suite
	store      *memory.Store
	hub        *local.Hub
	clock      *mocks.MockClock
	random     *mocks.MockRandom
	state      *state.Store
	controller *Controller
	ctx        context.Context

	roleCategory     model.CategoryID
	questionCategory model.CategoryID
}

func TestControllerSuite(t *testing.T) {
	suite.Run(t, new(ControllerSuite))
}

func (s *ControllerSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memory.New()
	s.hub = local.NewHub(testutil.NopLogger())
	s.clock = mocks.NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()

	s.seedContent()
	s.state, s.controller = s.newClient()
}

// newClient builds a controller sharing the store and hub, with its own
// local state, as a second device would
func (s *ControllerSuite) newClient() (*state.Store, *Controller) {
	stateStore := state.NewStore()
	coordinator := nav.NewCoordinator(nav.NavigatorFunc(func(nav.Screen) {}), s.clock, time.Millisecond, testutil.NopLogger())
	controller := NewController(
		s.store,
		s.hub,
		stateStore,
		coordinator,
		scores.NewSelector(s.store),
		s.clock,
		s.random,
		testutil.NopLogger(),
	)
	return stateStore, controller
}

func (s *ControllerSuite) seedContent() {
	s.roleCategory = "cat-imposter"
	s.questionCategory = "cat-simple"

	s.Require().NoError(s.store.SaveCategory(s.ctx, &model.Category{
		ID: s.roleCategory, Name: model.CategoryImposter, TimeoutSeconds: 30, IsActive: true,
	}))
	s.Require().NoError(s.store.SaveCategory(s.ctx, &model.Category{
		ID: s.questionCategory, Name: "simple", TimeoutSeconds: 30, IsActive: true,
	}))

	for _, w := range []string{"apple", "banana", "cherry"} {
		s.Require().NoError(s.store.SaveWord(s.ctx, &model.Word{
			ID: w, CategoryID: s.roleCategory, Word: w, IsActive: true,
		}))
	}
	s.Require().NoError(s.store.SaveQuestion(s.ctx, &model.Question{
		ID: "q-1", CategoryID: s.questionCategory, Text: "first question", IsActive: true,
	}))
	s.Require().NoError(s.store.SaveQuestion(s.ctx, &model.Question{
		ID: "q-2", CategoryID: s.questionCategory, Text: "second question", IsActive: true,
	}))
}

func (s *ControllerSuite) createRoom() model.RoomCode {
	code, err := s.controller.CreateRoom(s.ctx, 6, "Alice", "")
	s.Require().NoError(err)
	return code
}

// joinAs joins a second client to the room and returns its controller
func (s *ControllerSuite) joinAs(code model.RoomCode, name string) (*state.Store, *Controller) {
	stateStore, controller := s.newClient()
	s.Require().NoError(controller.JoinRoom(s.ctx, code, name, ""))
	return stateStore, controller
}

// Create / join

func (s *ControllerSuite) TestCreateRoomRoundTrip() {
	s.random.QueueIntn(42) // code 142

	code, err := s.controller.CreateRoom(s.ctx, 12, "Alice", "")
	s.Require().NoError(err)
	s.Equal(model.RoomCode("142"), code)

	room, err := s.store.GetRoomByCode(s.ctx, code)
	s.Require().NoError(err)
	s.Equal(12, room.GameLength)
	s.Equal(model.RoomStatusWaiting, room.Status)
	s.Equal(model.PhaseWaiting, room.Phase)
	s.Equal(model.MaxPlayers, room.MaxPlayers)

	snap := s.state.Snapshot()
	s.True(snap.InRoom())
	s.True(snap.IsHost())
	s.Equal("Alice", snap.Player.Name)
	s.Equal("A", snap.Player.Avatar)
	s.Require().Len(snap.Players, 1)
	s.Len(snap.Categories, 2)
}

func (s *ControllerSuite) TestCreateRoomRejectsBadName() {
	_, err := s.controller.CreateRoom(s.ctx, 6, " a ", "")
	s.ErrorIs(err, model.ErrInvalidName)
	s.ErrorIs(s.state.Snapshot().Err, model.ErrInvalidName)
	s.False(s.state.Snapshot().InRoom())
}

func (s *ControllerSuite) TestCreateRoomWithoutCategories() {
	empty := memory.New()
	stateStore := state.NewStore()
	coordinator := nav.NewCoordinator(nav.NavigatorFunc(func(nav.Screen) {}), s.clock, time.Millisecond, testutil.NopLogger())
	controller := NewController(empty, s.hub, stateStore, coordinator, scores.NewSelector(empty), s.clock, s.random, testutil.NopLogger())

	_, err := controller.CreateRoom(s.ctx, 6, "Alice", "")
	s.ErrorIs(err, model.ErrNoCategories)
}

func (s *ControllerSuite) TestJoinRoomNotFound() {
	err := s.controller.JoinRoom(s.ctx, "999", "Bob", "")
	s.ErrorIs(err, model.ErrRoomNotFound)
}

func (s *ControllerSuite) TestJoinRoomRejectsBadCode() {
	err := s.controller.JoinRoom(s.ctx, "12a", "Bob", "")
	s.ErrorIs(err, model.ErrInvalidCode)
}

func (s *ControllerSuite) TestJoinRoom() {
	code := s.createRoom()

	joinState, _ := s.joinAs(code, "Bob")

	snap := joinState.Snapshot()
	s.True(snap.InRoom())
	s.False(snap.IsHost())
	s.Require().Len(snap.Players, 2)
	s.Equal("Alice", snap.Players[0].Name)
	s.Equal("Bob", snap.Players[1].Name)
}

func (s *ControllerSuite) TestJoinRoomDuplicateName() {
	code := s.createRoom()

	_, controller := s.newClient()
	err := controller.JoinRoom(s.ctx, code, "Alice", "")
	s.ErrorIs(err, model.ErrDuplicateName)

	// Name matching is case-sensitive
	s.NoError(controller.JoinRoom(s.ctx, code, "alice", ""))
}

func (s *ControllerSuite) TestJoinRoomFull() {
	code := s.createRoom()
	room := s.state.Snapshot().Room

	for i := 0; i < model.MaxPlayers-1; i++ {
		s.Require().NoError(s.store.CreatePlayer(s.ctx, &model.Player{
			ID:       model.PlayerID(rune('a' + i)),
			RoomID:   room.ID,
			Name:     string(rune('a'+i)) + "player",
			IsActive: true,
		}))
	}

	_, controller := s.newClient()
	err := controller.JoinRoom(s.ctx, code, "Late", "")
	s.ErrorIs(err, model.ErrRoomFull)

	players, err := s.store.ListPlayers(s.ctx, room.ID)
	s.Require().NoError(err)
	s.Len(players, model.MaxPlayers) // No row was created
}

func (s *ControllerSuite) TestLeaveRoomResetsState() {
	code := s.createRoom()
	_ = code

	s.Require().NoError(s.controller.LeaveRoom(s.ctx))
	s.False(s.state.Snapshot().InRoom())
}

// Rounds

func (s *ControllerSuite) TestStartRoundRequiresHost() {
	code := s.createRoom()
	_, joined := s.joinAs(code, "Bob")

	err := joined.StartRound(s.ctx)
	s.ErrorIs(err, model.ErrNotHost)
}

func (s *ControllerSuite) TestStartRoundRequiresTwoPlayers() {
	s.createRoom()

	err := s.controller.StartRound(s.ctx)
	s.ErrorIs(err, model.ErrInsufficientPlayers)

	room := s.state.Snapshot().Room
	s.Equal(model.PhaseWaiting, room.Phase)
}

func (s *ControllerSuite) TestStartRound() {
	code := s.createRoom()
	s.joinAs(code, "Bob")

	s.random.QueueIntn(1) // chooser = second player (Bob)

	s.Require().NoError(s.controller.StartRound(s.ctx))

	snap := s.state.Snapshot()
	s.Equal(model.RoomStatusPlaying, snap.Room.Status)
	s.Equal(model.PhaseCategorySelection, snap.Room.Phase)
	s.Equal(snap.Players[1].ID, snap.Room.CategoryChooserID)
}

func (s *ControllerSuite) TestSelectCategoryRequiresChooser() {
	code := s.createRoom()
	s.joinAs(code, "Bob")
	s.random.QueueIntn(1) // chooser is Bob, not the host
	s.Require().NoError(s.controller.StartRound(s.ctx))

	err := s.controller.SelectCategory(s.ctx, s.roleCategory)
	s.ErrorIs(err, model.ErrNotChooser)
	s.Equal(model.PhaseCategorySelection, s.state.Snapshot().Room.Phase)
}

// startRoundAsChooser starts a round with the host as chooser
func (s *ControllerSuite) startRoundAsChooser() {
	code := s.createRoom()
	s.joinAs(code, "Bob")
	s.random.QueueIntn(0) // chooser = host
	s.Require().NoError(s.controller.StartRound(s.ctx))
}

func (s *ControllerSuite) TestSelectRoleCategory() {
	s.startRoundAsChooser()
	s.random.QueueIntn(1) // imposter = Bob

	s.Require().NoError(s.controller.SelectCategory(s.ctx, s.roleCategory))

	snap := s.state.Snapshot()
	s.Equal(model.PhaseGameIntro, snap.Room.Phase)
	s.Require().NotNil(snap.Room.GameData)
	s.Equal(snap.Players[1].ID, snap.Room.GameData.ImposterID)
	s.LessOrEqual(len(snap.Room.GameData.Words), MaxWordsPerRound)
	s.NotEmpty(snap.Room.GameData.Words)
	s.Empty(snap.Room.GameData.Votes)
}

func (s *ControllerSuite) TestSelectQuestionCategory() {
	s.startRoundAsChooser()

	s.Require().NoError(s.controller.SelectCategory(s.ctx, s.questionCategory))

	snap := s.state.Snapshot()
	s.Equal(model.PhaseQuestionIntro, snap.Room.Phase)
	s.Equal(model.QuestionID("q-1"), snap.Room.CurrentQuestionID)
	s.Equal(1, snap.Room.QuestionNumber)
	s.Require().NotNil(snap.CurrentQuestion)
	s.Equal("first question", snap.CurrentQuestion.Text)
}

func (s *ControllerSuite) TestSelectQuestionCategoryExhausted() {
	code := s.createRoom()
	s.joinAs(code, "Bob")

	// Jump the round counter past the category's question list
	room := s.state.Snapshot().Room
	_, err := s.store.UpdateRoom(s.ctx, room.ID, model.RoomPatch{CurrentRound: model.Set(5)})
	s.Require().NoError(err)
	s.Require().NoError(s.controller.RefreshRoomState(s.ctx))

	s.random.QueueIntn(0)
	s.Require().NoError(s.controller.StartRound(s.ctx))

	err = s.controller.SelectCategory(s.ctx, s.questionCategory)
	s.ErrorIs(err, model.ErrNoMoreQuestions)
}

// Answers and votes

func (s *ControllerSuite) TestSubmitAnswer() {
	s.startRoundAsChooser()
	s.Require().NoError(s.controller.SelectCategory(s.ctx, s.questionCategory))

	s.Require().NoError(s.controller.SubmitAnswer(s.ctx, "42", true))
	s.Require().NoError(s.controller.SubmitAnswer(s.ctx, "wrong", false))

	snap := s.state.Snapshot()
	answers, err := s.store.ListAnswers(s.ctx, snap.Room.ID)
	s.Require().NoError(err)
	s.Require().Len(answers, 2)
	s.Equal(1, answers[0].PointsEarned)
	s.Equal(0, answers[1].PointsEarned)

	totals, err := s.controller.PlayerScores(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, totals[snap.Player.ID])
}

// startVoting drives a three-player role round to the voting phase and
// returns the two joined clients' controllers. Alice hosts and
// chooses; Bob is the imposter.
func (s *ControllerSuite) startVoting() (bob, carol *Controller) {
	code := s.createRoom()
	_, bob = s.joinAs(code, "Bob")
	_, carol = s.joinAs(code, "Carol")
	s.random.QueueIntn(0) // chooser = host
	s.Require().NoError(s.controller.StartRound(s.ctx))
	s.random.QueueIntn(1) // imposter = Bob
	s.Require().NoError(s.controller.SelectCategory(s.ctx, s.roleCategory))

	s.Require().NoError(s.controller.AdvancePhase(s.ctx, model.PhaseGameIntro, model.PhaseGamePlaying))
	s.Require().NoError(s.controller.AdvancePhase(s.ctx, model.PhaseGamePlaying, model.PhaseGameVoting))
	return bob, carol
}

func (s *ControllerSuite) TestVotingCompletesOnceAllVoted() {
	bob, carol := s.startVoting()

	snap := s.state.Snapshot()
	alice := snap.Player.ID
	imposter := snap.Room.GameData.ImposterID

	// Alice and Carol finger the imposter
	s.Require().NoError(s.controller.SubmitVote(s.ctx, imposter))
	s.Require().NoError(carol.SubmitVote(s.ctx, imposter))
	room, err := s.store.GetRoom(s.ctx, snap.Room.ID)
	s.Require().NoError(err)
	s.Equal(model.PhaseGameVoting, room.Phase)

	// The imposter's own vote is the last one and completes the round
	s.Require().NoError(bob.RefreshRoomState(s.ctx))
	s.Require().NoError(bob.SubmitVote(s.ctx, alice))

	room, err = s.store.GetRoom(s.ctx, snap.Room.ID)
	s.Require().NoError(err)
	s.Equal(model.PhaseGameResults, room.Phase)

	// Caught imposter scores nothing, the catchers score full points
	s.Equal(CaughtImposterPoints, room.Scores[alice])
	s.Equal(0, room.Scores[imposter])
}

func (s *ControllerSuite) TestSelfVoteRejected() {
	s.startVoting()

	snap := s.state.Snapshot()
	err := s.controller.SubmitVote(s.ctx, snap.Player.ID)
	s.ErrorIs(err, model.ErrSelfVote)

	room, err := s.store.GetRoom(s.ctx, snap.Room.ID)
	s.Require().NoError(err)
	s.Empty(room.GameData.Votes)
}

func (s *ControllerSuite) TestCompleteVotingIsOneShot() {
	bob, _ := s.startVoting()

	snap := s.state.Snapshot()
	imposter := snap.Room.GameData.ImposterID

	s.Require().NoError(s.controller.SubmitVote(s.ctx, imposter))

	// Voting timeout fires on two clients
	s.Require().NoError(s.controller.CompleteVoting(s.ctx))
	s.Require().NoError(bob.RefreshRoomState(s.ctx))
	s.Require().NoError(bob.CompleteVoting(s.ctx))

	room, err := s.store.GetRoom(s.ctx, snap.Room.ID)
	s.Require().NoError(err)
	s.Equal(model.PhaseGameResults, room.Phase)
	// Scores merged exactly once: Alice caught the imposter
	s.Equal(CaughtImposterPoints, room.Scores[snap.Player.ID])
	s.Equal(0, room.Scores[imposter])
}

func (s *ControllerSuite) TestConcurrentCompleteVotingMergesOnce() {
	bob, carol := s.startVoting()

	snap := s.state.Snapshot()
	alice := snap.Player.ID
	imposter := snap.Room.GameData.ImposterID
	carolID := s.thirdPlayerID(snap.Room.ID, alice, imposter)

	// Two catchers vote; the imposter stays quiet, so the round ends
	// on the voting deadline rather than on the last ballot
	s.Require().NoError(s.controller.SubmitVote(s.ctx, imposter))
	s.Require().NoError(carol.SubmitVote(s.ctx, imposter))
	s.Require().NoError(bob.RefreshRoomState(s.ctx))

	// The deadline fires on two clients at once: both have seen
	// game_voting, yet only one may apply the role scores
	clients := []*Controller{s.controller, bob}
	errs := make([]error, len(clients))
	var wg sync.WaitGroup
	for i, c := range clients {
		wg.Add(1)
		go func(i int, c *Controller) {
			defer wg.Done()
			errs[i] = c.CompleteVoting(s.ctx)
		}(i, c)
	}
	wg.Wait()
	for _, err := range errs {
		s.Require().NoError(err)
	}

	room, err := s.store.GetRoom(s.ctx, snap.Room.ID)
	s.Require().NoError(err)
	s.Equal(model.PhaseGameResults, room.Phase)
	s.Equal(CaughtImposterPoints, room.Scores[alice])
	s.Equal(CaughtImposterPoints, room.Scores[carolID])
	s.Equal(0, room.Scores[imposter])
}

func (s *ControllerSuite) TestImposterEscapesWhenNotMostVoted() {
	bob, carol := s.startVoting()

	snap := s.state.Snapshot()
	alice := snap.Player.ID
	imposter := snap.Room.GameData.ImposterID // Bob

	carolID := s.thirdPlayerID(snap.Room.ID, alice, imposter)

	// Suspicion falls on Carol; the imposter walks
	s.Require().NoError(s.controller.SubmitVote(s.ctx, carolID))
	s.Require().NoError(bob.RefreshRoomState(s.ctx))
	s.Require().NoError(bob.SubmitVote(s.ctx, carolID))
	s.Require().NoError(carol.RefreshRoomState(s.ctx))
	s.Require().NoError(carol.SubmitVote(s.ctx, alice))

	room, err := s.store.GetRoom(s.ctx, snap.Room.ID)
	s.Require().NoError(err)
	s.Equal(model.PhaseGameResults, room.Phase)
	s.Equal(ImposterEscapedPoints, room.Scores[imposter])
	s.Equal(MissedImposterPoints, room.Scores[alice])
	s.Equal(MissedImposterPoints, room.Scores[carolID])
}

// thirdPlayerID finds the room's remaining player id
func (s *ControllerSuite) thirdPlayerID(roomID model.RoomID, known ...model.PlayerID) model.PlayerID {
	players, err := s.store.ListPlayers(s.ctx, roomID)
	s.Require().NoError(err)
	for _, p := range players {
		matched := false
		for _, id := range known {
			if p.ID == id {
				matched = true
			}
		}
		if !matched {
			return p.ID
		}
	}
	s.FailNow("no third player found")
	return ""
}

// Phase management

func (s *ControllerSuite) TestAdvancePhaseIsGuardedByPredecessor() {
	s.startRoundAsChooser()
	s.Require().NoError(s.controller.SelectCategory(s.ctx, s.questionCategory))

	s.Require().NoError(s.controller.AdvancePhase(s.ctx, model.PhaseQuestionIntro, model.PhaseQuestion))
	s.Equal(model.PhaseQuestion, s.state.Snapshot().Room.Phase)

	// A second identical advance finds the phase moved on and no-ops
	s.Require().NoError(s.controller.AdvancePhase(s.ctx, model.PhaseQuestionIntro, model.PhaseQuestion))
	s.Equal(model.PhaseQuestion, s.state.Snapshot().Room.Phase)

	s.Require().NoError(s.controller.MoveToRoundScoreboard(s.ctx))
	s.Equal(model.PhaseRoundScoreboard, s.state.Snapshot().Room.Phase)
}

func (s *ControllerSuite) TestReturnToLobby() {
	s.startRoundAsChooser()
	s.random.QueueIntn(0)
	s.Require().NoError(s.controller.SelectCategory(s.ctx, s.roleCategory))

	s.Require().NoError(s.controller.ReturnToLobby(s.ctx))

	snap := s.state.Snapshot()
	s.Equal(model.PhaseWaiting, snap.Room.Phase)
	s.Equal(1, snap.Room.CurrentRound)
	s.Empty(snap.Room.CategoryChooserID)
	s.Empty(snap.Room.CurrentCategoryID)
	s.Empty(snap.Room.CurrentQuestionID)
	s.Nil(snap.Room.GameData)
	s.Nil(snap.CurrentQuestion)
	// The accumulated scores survive the round boundary
	s.Equal(model.RoomStatusPlaying, snap.Room.Status)
}

// Realtime propagation

func (s *ControllerSuite) TestRemoteClientSeesPhaseChange() {
	code := s.createRoom()
	bobState, _ := s.joinAs(code, "Bob")

	s.random.QueueIntn(0)
	s.Require().NoError(s.controller.StartRound(s.ctx))

	s.Eventually(func() bool {
		snap := bobState.Snapshot()
		return snap.Room != nil && snap.Room.Phase == model.PhaseCategorySelection
	}, 2*time.Second, 5*time.Millisecond)
}

func (s *ControllerSuite) TestHostSeesJoinedPlayer() {
	code := s.createRoom()
	s.joinAs(code, "Bob")

	s.Eventually(func() bool {
		return len(s.state.Snapshot().Players) == 2
	}, 2*time.Second, 5*time.Millisecond)
}

func (s *ControllerSuite) TestOperationsRequireActiveRoom() {
	s.ErrorIs(s.controller.StartRound(s.ctx), model.ErrNoActiveRoom)
	s.ErrorIs(s.controller.SelectCategory(s.ctx, s.roleCategory), model.ErrNoActiveRoom)
	s.ErrorIs(s.controller.SubmitAnswer(s.ctx, "x", false), model.ErrNoActiveRoom)
	s.ErrorIs(s.controller.ReturnToLobby(s.ctx), model.ErrNoActiveRoom)
	_, err := s.controller.PlayerScores(s.ctx)
	s.ErrorIs(err, model.ErrNoActiveRoom)
}
