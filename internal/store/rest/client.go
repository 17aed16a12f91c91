package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/AlessandroGasperini/pinky/internal/model"
	"github.com/AlessandroGasperini/pinky/internal/server/apierr"
	"github.com/AlessandroGasperini/pinky/internal/store"
)

// Config holds REST store client configuration
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// DefaultConfig returns a config pointing at a local server
func DefaultConfig() Config {
	return Config{
		BaseURL: "http://localhost:8080",
		Timeout: 10 * time.Second,
	}
}

// Store implements store.Store against the row-store HTTP API. Error
// responses are mapped back to the model sentinels, so callers can use
// errors.Is without knowing which store implementation they hold.
type Store struct {
	baseURL    string
	httpClient *http.Client
}

var _ store.Store = (*Store)(nil)

// New creates a REST store client
func New(cfg Config) *Store {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultConfig().Timeout
	}
	return &Store{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// do performs an HTTP request and decodes the JSON response into out
func (s *Store) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return parseError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// parseError maps an error response body back to a sentinel error
func parseError(resp *http.Response) error {
	var er apierr.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil || er.Error.Code == "" {
		return fmt.Errorf("request failed with status %d", resp.StatusCode)
	}
	return apierr.FromCode(er.Error.Code, er.Error.Message)
}

func (s *Store) CreateRoom(ctx context.Context, room *model.Room) error {
	return s.do(ctx, http.MethodPost, "/api/rooms", room, room)
}

func (s *Store) GetRoom(ctx context.Context, id model.RoomID) (*model.Room, error) {
	var room model.Room
	if err := s.do(ctx, http.MethodGet, "/api/rooms/"+url.PathEscape(string(id)), nil, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

func (s *Store) GetRoomByCode(ctx context.Context, code model.RoomCode) (*model.Room, error) {
	var room model.Room
	if err := s.do(ctx, http.MethodGet, "/api/rooms/code/"+url.PathEscape(string(code)), nil, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

func (s *Store) UpdateRoom(ctx context.Context, id model.RoomID, patch model.RoomPatch) (*model.Room, error) {
	var room model.Room
	if err := s.do(ctx, http.MethodPatch, "/api/rooms/"+url.PathEscape(string(id)), patch, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

func (s *Store) CreatePlayer(ctx context.Context, player *model.Player) error {
	path := fmt.Sprintf("/api/rooms/%s/players", url.PathEscape(string(player.RoomID)))
	return s.do(ctx, http.MethodPost, path, player, player)
}

func (s *Store) ListPlayers(ctx context.Context, roomID model.RoomID) ([]model.Player, error) {
	var players []model.Player
	path := fmt.Sprintf("/api/rooms/%s/players", url.PathEscape(string(roomID)))
	if err := s.do(ctx, http.MethodGet, path, nil, &players); err != nil {
		return nil, err
	}
	return players, nil
}

func (s *Store) ListCategories(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	if err := s.do(ctx, http.MethodGet, "/api/categories", nil, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

func (s *Store) ListWords(ctx context.Context, categoryID model.CategoryID, limit int) ([]string, error) {
	var words []string
	path := fmt.Sprintf("/api/categories/%s/words?limit=%d", url.PathEscape(string(categoryID)), limit)
	if err := s.do(ctx, http.MethodGet, path, nil, &words); err != nil {
		return nil, err
	}
	return words, nil
}

func (s *Store) GetQuestion(ctx context.Context, id model.QuestionID) (*model.Question, error) {
	var question model.Question
	if err := s.do(ctx, http.MethodGet, "/api/questions/"+url.PathEscape(string(id)), nil, &question); err != nil {
		return nil, err
	}
	return &question, nil
}

func (s *Store) QuestionForRound(ctx context.Context, roomID model.RoomID, categoryName string, round int) (*model.Question, error) {
	var question model.Question
	path := fmt.Sprintf("/api/rooms/%s/question?category=%s&round=%s",
		url.PathEscape(string(roomID)), url.QueryEscape(categoryName), strconv.Itoa(round))
	if err := s.do(ctx, http.MethodGet, path, nil, &question); err != nil {
		return nil, err
	}
	return &question, nil
}

func (s *Store) SaveCategory(ctx context.Context, category *model.Category) error {
	return s.do(ctx, http.MethodPost, "/api/categories", category, category)
}

func (s *Store) SaveWord(ctx context.Context, word *model.Word) error {
	return s.do(ctx, http.MethodPost, "/api/words", word, word)
}

func (s *Store) SaveQuestion(ctx context.Context, question *model.Question) error {
	return s.do(ctx, http.MethodPost, "/api/questions", question, question)
}

func (s *Store) CreateAnswer(ctx context.Context, answer *model.PlayerAnswer) error {
	path := fmt.Sprintf("/api/rooms/%s/answers", url.PathEscape(string(answer.RoomID)))
	return s.do(ctx, http.MethodPost, path, answer, answer)
}

func (s *Store) ListAnswers(ctx context.Context, roomID model.RoomID) ([]model.PlayerAnswer, error) {
	var answers []model.PlayerAnswer
	path := fmt.Sprintf("/api/rooms/%s/answers", url.PathEscape(string(roomID)))
	if err := s.do(ctx, http.MethodGet, path, nil, &answers); err != nil {
		return nil, err
	}
	return answers, nil
}

func (s *Store) SaveVote(ctx context.Context, roomID model.RoomID, voter, votedFor model.PlayerID) (*model.Room, error) {
	req := struct {
		VoterID    model.PlayerID `json:"voter_id"`
		VotedForID model.PlayerID `json:"voted_for_id"`
	}{VoterID: voter, VotedForID: votedFor}

	var room model.Room
	path := fmt.Sprintf("/api/rooms/%s/votes", url.PathEscape(string(roomID)))
	if err := s.do(ctx, http.MethodPost, path, req, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

func (s *Store) MergeScores(ctx context.Context, roomID model.RoomID, delta map[model.PlayerID]int) (*model.Room, error) {
	req := struct {
		Delta map[model.PlayerID]int `json:"delta"`
	}{Delta: delta}

	var room model.Room
	path := fmt.Sprintf("/api/rooms/%s/scores", url.PathEscape(string(roomID)))
	if err := s.do(ctx, http.MethodPost, path, req, &room); err != nil {
		return nil, err
	}
	return &room, nil
}
