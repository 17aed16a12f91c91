package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/AlessandroGasperini/pinky/internal/dependencies/clock"
	"github.com/AlessandroGasperini/pinky/internal/model"
	"github.com/AlessandroGasperini/pinky/internal/realtime/local"
	"github.com/AlessandroGasperini/pinky/internal/server/apierr"
	"github.com/AlessandroGasperini/pinky/internal/store/memory"
	"github.com/AlessandroGasperini/pinky/internal/testutil"
)

type APISuite struct {
	suite.Suite

	store  *memory.Store
	hub    *local.Hub
	server *httptest.Server
}

func (s *APISuite) SetupTest() {
	logger := testutil.NopLogger()
	s.store = memory.New()
	s.hub = local.NewHub(logger)
	handler := NewHandler(s.store, s.hub, clock.New(), logger)
	s.server = httptest.NewServer(NewRouter(handler, logger))
}

func (s *APISuite) TearDownTest() {
	s.server.Close()
}

func (s *APISuite) do(method, path string, body, out any) *http.Response {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, s.server.URL+path, &buf)
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		s.Require().NoError(json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func (s *APISuite) errCode(resp *http.Response) string {
	var er apierr.ErrorResponse
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&er))
	return er.Error.Code
}

func (s *APISuite) newRoom(id, code string) *model.Room {
	room := &model.Room{
		ID:         model.RoomID(id),
		Code:       model.RoomCode(code),
		Status:     model.RoomStatusWaiting,
		Phase:      model.PhaseWaiting,
		GameLength: 5,
		MaxPlayers: 8,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	var created model.Room
	resp := s.do(http.MethodPost, "/api/rooms", room, &created)
	s.Require().Equal(http.StatusCreated, resp.StatusCode)
	return room
}

func (s *APISuite) TestHealth() {
	resp := s.do(http.MethodGet, "/api/health", nil, nil)
	s.Equal(http.StatusOK, resp.StatusCode)
}

func (s *APISuite) TestCreateAndFetchRoom() {
	s.newRoom("room-1", "123")

	var byID model.Room
	resp := s.do(http.MethodGet, "/api/rooms/room-1", nil, &byID)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Equal(model.RoomCode("123"), byID.Code)

	var byCode model.Room
	resp = s.do(http.MethodGet, "/api/rooms/code/123", nil, &byCode)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Equal(model.RoomID("room-1"), byCode.ID)
}

func (s *APISuite) TestGetRoomNotFound() {
	resp, err := http.Get(s.server.URL + "/api/rooms/nope")
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusNotFound, resp.StatusCode)
	s.Equal(apierr.CodeRoomNotFound, s.errCode(resp))
}

func (s *APISuite) TestCreateRoomRejectsMissingID() {
	resp := s.do(http.MethodPost, "/api/rooms", &model.Room{}, nil)
	s.Equal(http.StatusBadRequest, resp.StatusCode)
}

func (s *APISuite) TestPatchRoomPublishesRoomChanged() {
	s.newRoom("room-1", "123")

	sub := s.hub.SubscribeRaw("room-1")
	defer sub.Close()

	patch := model.RoomPatch{Phase: model.Set(model.PhaseCategorySelection)}
	var updated model.Room
	resp := s.do(http.MethodPatch, "/api/rooms/room-1", patch, &updated)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Equal(model.PhaseCategorySelection, updated.Phase)

	select {
	case event := <-sub.C:
		s.Equal(model.EventRoomChanged, event.Type)
		s.Require().NotNil(event.Room)
		s.Equal(model.PhaseCategorySelection, event.Room.Phase)
	case <-time.After(time.Second):
		s.Fail("no room_changed event received")
	}
}

func (s *APISuite) TestCreatePlayerPublishesPlayersChanged() {
	s.newRoom("room-1", "123")

	sub := s.hub.SubscribeRaw("room-1")
	defer sub.Close()

	player := &model.Player{ID: "player-1", Name: "Alice", IsHost: true, IsActive: true}
	var created model.Player
	resp := s.do(http.MethodPost, "/api/rooms/room-1/players", player, &created)
	s.Equal(http.StatusCreated, resp.StatusCode)
	s.Equal(model.RoomID("room-1"), created.RoomID)

	select {
	case event := <-sub.C:
		s.Equal(model.EventPlayersChanged, event.Type)
	case <-time.After(time.Second):
		s.Fail("no players_changed event received")
	}

	var players []model.Player
	resp = s.do(http.MethodGet, "/api/rooms/room-1/players", nil, &players)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Len(players, 1)
}

func (s *APISuite) TestContentRoundTrip() {
	category := &model.Category{ID: "cat-1", Name: "simple", IsActive: true}
	resp := s.do(http.MethodPost, "/api/categories", category, nil)
	s.Equal(http.StatusCreated, resp.StatusCode)

	var categories []model.Category
	resp = s.do(http.MethodGet, "/api/categories", nil, &categories)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Require().Len(categories, 1)

	for i := 0; i < 3; i++ {
		word := &model.Word{
			ID:         fmt.Sprintf("w-%d", i),
			CategoryID: "cat-1",
			Word:       fmt.Sprintf("word%d", i),
			IsActive:   true,
		}
		resp = s.do(http.MethodPost, "/api/words", word, nil)
		s.Equal(http.StatusCreated, resp.StatusCode)
	}

	var words []string
	resp = s.do(http.MethodGet, "/api/categories/cat-1/words?limit=2", nil, &words)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Len(words, 2)
}

func (s *APISuite) TestQuestionForRound() {
	s.newRoom("room-1", "123")

	category := &model.Category{ID: "cat-1", Name: "simple", IsActive: true}
	s.do(http.MethodPost, "/api/categories", category, nil)
	question := &model.Question{ID: "q-1", CategoryID: "cat-1", Text: "2+2?", CorrectAnswer: "4", Points: 1, IsActive: true}
	s.do(http.MethodPost, "/api/questions", question, nil)

	var got model.Question
	resp := s.do(http.MethodGet, "/api/rooms/room-1/question?category=simple&round=1", nil, &got)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Equal(model.QuestionID("q-1"), got.ID)

	resp = s.do(http.MethodGet, "/api/rooms/room-1/question?category=simple&round=2", nil, nil)
	s.Equal(http.StatusConflict, resp.StatusCode)
}

func (s *APISuite) TestVotesAndScores() {
	s.newRoom("room-1", "123")

	var afterVote model.Room
	resp := s.do(http.MethodPost, "/api/rooms/room-1/votes",
		voteRequest{VoterID: "p-1", VotedForID: "p-2"}, &afterVote)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Require().NotNil(afterVote.GameData)
	s.Equal(model.PlayerID("p-2"), afterVote.GameData.Votes["p-1"])

	var afterScores model.Room
	resp = s.do(http.MethodPost, "/api/rooms/room-1/scores",
		scoresRequest{Delta: map[model.PlayerID]int{"p-1": 3}}, &afterScores)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Equal(3, afterScores.Scores["p-1"])
}

func (s *APISuite) TestAnswersRoundTrip() {
	s.newRoom("room-1", "123")

	answer := &model.PlayerAnswer{
		ID:           "ans-1",
		PlayerID:     "p-1",
		QuestionID:   "q-1",
		Answer:       "4",
		IsCorrect:    true,
		PointsEarned: 1,
	}
	resp := s.do(http.MethodPost, "/api/rooms/room-1/answers", answer, nil)
	s.Equal(http.StatusCreated, resp.StatusCode)

	var answers []model.PlayerAnswer
	resp = s.do(http.MethodGet, "/api/rooms/room-1/answers", nil, &answers)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Require().Len(answers, 1)
	s.Equal(model.RoomID("room-1"), answers[0].RoomID)
}

func (s *APISuite) TestEventStreamDeliversPublishedEvents() {
	s.newRoom("room-1", "123")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.server.URL+"/api/rooms/room-1/events", nil)
	s.Require().NoError(err)
	req.Header.Set("Accept", "text/event-stream")

	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	// Publish once the stream is registered
	s.Require().Eventually(func() bool {
		return s.hub.SubscriberCount("room-1") > 0
	}, time.Second, 5*time.Millisecond)

	event := model.Event{Type: model.EventSync, Phase: model.PhaseQuestion}
	publishResp := s.do(http.MethodPost, "/api/rooms/room-1/events", event, nil)
	s.Equal(http.StatusAccepted, publishResp.StatusCode)

	scanner := bufio.NewScanner(resp.Body)
	var eventName, data string
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			eventName = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		case line == "" && data != "":
			s.Equal(string(model.EventSync), eventName)
			var got model.Event
			s.Require().NoError(json.Unmarshal([]byte(data), &got))
			s.Equal(model.PhaseQuestion, got.Phase)
			s.Equal(model.RoomID("room-1"), got.RoomID)
			return
		}
	}
	s.Fail("stream ended before the event arrived")
}

func TestAPISuite(t *testing.T) {
	suite.Run(t, new(APISuite))
}
