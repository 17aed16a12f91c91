package redis

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/AlessandroGasperini/pinky/internal/model"
	"github.com/AlessandroGasperini/pinky/internal/store"
)

// Store is a Redis-backed implementation of the store interface
type Store struct {
	client *redis.Client
	cfg    Config

	// Serializes read-modify-write on room rows. A single process owns
	// the mutations it issues, so in-process exclusion is enough here.
	rmw sync.Mutex
}

// New creates a new Redis store instance
func New(cfg Config) (*Store, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Store{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis store with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Store {
	return &Store{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Store) Close() error {
	return s.client.Close()
}

// Ensure Store implements the interface
var _ store.Store = (*Store)(nil)

// Room operations

func (s *Store) CreateRoom(ctx context.Context, room *model.Room) error {
	data, err := json.Marshal(room)
	if err != nil {
		return err
	}

	// Pipeline the row and the code index so both expire together
	pipe := s.client.Pipeline()
	pipe.Set(ctx, roomKey(room.ID), data, s.cfg.RoomTTL)
	pipe.Set(ctx, codeIndexKey(room.Code), string(room.ID), s.cfg.RoomTTL)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Store) GetRoom(ctx context.Context, id model.RoomID) (*model.Room, error) {
	data, err := s.client.Get(ctx, roomKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrRoomNotFound
		}
		return nil, err
	}

	var room model.Room
	if err := json.Unmarshal(data, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

func (s *Store) GetRoomByCode(ctx context.Context, code model.RoomCode) (*model.Room, error) {
	roomIDStr, err := s.client.Get(ctx, codeIndexKey(code)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrRoomNotFound
		}
		return nil, err
	}

	return s.GetRoom(ctx, model.RoomID(roomIDStr))
}

func (s *Store) UpdateRoom(ctx context.Context, id model.RoomID, patch model.RoomPatch) (*model.Room, error) {
	s.rmw.Lock()
	defer s.rmw.Unlock()

	room, err := s.GetRoom(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.ExpectPhase != nil && room.Phase != *patch.ExpectPhase {
		return nil, model.ErrStalePhase
	}

	patch.ApplyTo(room)
	if err := s.saveRoom(ctx, room); err != nil {
		return nil, err
	}
	return room, nil
}

func (s *Store) saveRoom(ctx context.Context, room *model.Room) error {
	data, err := json.Marshal(room)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, roomKey(room.ID), data, s.cfg.RoomTTL).Err()
}

// Player operations

func (s *Store) CreatePlayer(ctx context.Context, player *model.Player) error {
	if err := s.client.Get(ctx, roomKey(player.RoomID)).Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return model.ErrRoomNotFound
		}
		return err
	}

	data, err := json.Marshal(player)
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, playerKey(player.ID), data, s.cfg.RoomTTL)
	pipe.SAdd(ctx, playersForRoomIndexKey(player.RoomID), playerKey(player.ID))
	pipe.Expire(ctx, playersForRoomIndexKey(player.RoomID), s.cfg.RoomTTL)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Store) ListPlayers(ctx context.Context, roomID model.RoomID) ([]model.Player, error) {
	playerKeys, err := s.client.SMembers(ctx, playersForRoomIndexKey(roomID)).Result()
	if err != nil {
		return nil, err
	}
	if len(playerKeys) == 0 {
		return nil, nil
	}

	values, err := s.client.MGet(ctx, playerKeys...).Result()
	if err != nil {
		return nil, err
	}

	players := make([]model.Player, 0, len(values))
	for _, val := range values {
		if val == nil {
			continue // Player row may have expired
		}
		var player model.Player
		if err := json.Unmarshal([]byte(val.(string)), &player); err != nil {
			continue // Skip invalid data
		}
		players = append(players, player)
	}

	sort.SliceStable(players, func(i, j int) bool {
		return players[i].CreatedAt.Before(players[j].CreatedAt)
	})
	return players, nil
}

// Reference content

func (s *Store) ListCategories(ctx context.Context) ([]model.Category, error) {
	categoryKeys, err := s.client.SMembers(ctx, categoriesIndexKey()).Result()
	if err != nil {
		return nil, err
	}
	if len(categoryKeys) == 0 {
		return nil, nil
	}

	values, err := s.client.MGet(ctx, categoryKeys...).Result()
	if err != nil {
		return nil, err
	}

	var categories []model.Category
	for _, val := range values {
		if val == nil {
			continue
		}
		var category model.Category
		if err := json.Unmarshal([]byte(val.(string)), &category); err != nil {
			continue
		}
		if category.IsActive {
			categories = append(categories, category)
		}
	}

	sort.Slice(categories, func(i, j int) bool {
		return categories[i].Name < categories[j].Name
	})
	return categories, nil
}

func (s *Store) ListWords(ctx context.Context, categoryID model.CategoryID, limit int) ([]string, error) {
	values, err := s.client.LRange(ctx, wordsKey(categoryID), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	var words []string
	for _, val := range values {
		var word model.Word
		if err := json.Unmarshal([]byte(val), &word); err != nil {
			continue
		}
		if !word.IsActive {
			continue
		}
		words = append(words, word.Word)
		if limit > 0 && len(words) >= limit {
			break
		}
	}
	return words, nil
}

func (s *Store) GetQuestion(ctx context.Context, id model.QuestionID) (*model.Question, error) {
	data, err := s.client.Get(ctx, questionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrQuestionNotFound
		}
		return nil, err
	}

	var question model.Question
	if err := json.Unmarshal(data, &question); err != nil {
		return nil, err
	}
	return &question, nil
}

func (s *Store) QuestionForRound(ctx context.Context, roomID model.RoomID, categoryName string, round int) (*model.Question, error) {
	categories, err := s.ListCategories(ctx)
	if err != nil {
		return nil, err
	}

	var category *model.Category
	for i := range categories {
		if categories[i].Name == categoryName {
			category = &categories[i]
			break
		}
	}
	if category == nil {
		return nil, model.ErrCategoryNotFound
	}

	questionKeys, err := s.client.SMembers(ctx, questionsForCategoryIndexKey(category.ID)).Result()
	if err != nil {
		return nil, err
	}
	if len(questionKeys) == 0 {
		return nil, model.ErrNoMoreQuestions
	}

	values, err := s.client.MGet(ctx, questionKeys...).Result()
	if err != nil {
		return nil, err
	}

	var assigned []model.Question
	for _, val := range values {
		if val == nil {
			continue
		}
		var question model.Question
		if err := json.Unmarshal([]byte(val.(string)), &question); err != nil {
			continue
		}
		if question.IsActive {
			assigned = append(assigned, question)
		}
	}

	// Stable id order so every client resolves the same question per round
	sort.Slice(assigned, func(i, j int) bool { return assigned[i].ID < assigned[j].ID })

	if round < 1 || round > len(assigned) {
		return nil, model.ErrNoMoreQuestions
	}
	q := assigned[round-1]
	return &q, nil
}

func (s *Store) SaveCategory(ctx context.Context, category *model.Category) error {
	data, err := json.Marshal(category)
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, categoryKey(category.ID), data, 0) // Reference content, no TTL
	pipe.SAdd(ctx, categoriesIndexKey(), categoryKey(category.ID))
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Store) SaveWord(ctx context.Context, word *model.Word) error {
	data, err := json.Marshal(word)
	if err != nil {
		return err
	}
	return s.client.RPush(ctx, wordsKey(word.CategoryID), data).Err()
}

func (s *Store) SaveQuestion(ctx context.Context, question *model.Question) error {
	data, err := json.Marshal(question)
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, questionKey(question.ID), data, 0)
	pipe.SAdd(ctx, questionsForCategoryIndexKey(question.CategoryID), questionKey(question.ID))
	_, err = pipe.Exec(ctx)
	return err
}

// Answer operations

func (s *Store) CreateAnswer(ctx context.Context, answer *model.PlayerAnswer) error {
	data, err := json.Marshal(answer)
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	pipe.RPush(ctx, answersKey(answer.RoomID), data)
	pipe.Expire(ctx, answersKey(answer.RoomID), s.cfg.RoomTTL)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Store) ListAnswers(ctx context.Context, roomID model.RoomID) ([]model.PlayerAnswer, error) {
	values, err := s.client.LRange(ctx, answersKey(roomID), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	answers := make([]model.PlayerAnswer, 0, len(values))
	for _, val := range values {
		var answer model.PlayerAnswer
		if err := json.Unmarshal([]byte(val), &answer); err != nil {
			continue
		}
		answers = append(answers, answer)
	}
	return answers, nil
}

// Read-modify-write helpers

func (s *Store) SaveVote(ctx context.Context, roomID model.RoomID, voter, votedFor model.PlayerID) (*model.Room, error) {
	s.rmw.Lock()
	defer s.rmw.Unlock()

	room, err := s.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	if room.GameData == nil {
		room.GameData = &model.GameData{}
	}
	if room.GameData.Votes == nil {
		room.GameData.Votes = make(map[model.PlayerID]model.PlayerID)
	}
	room.GameData.Votes[voter] = votedFor

	if err := s.saveRoom(ctx, room); err != nil {
		return nil, err
	}
	return room, nil
}

func (s *Store) MergeScores(ctx context.Context, roomID model.RoomID, delta map[model.PlayerID]int) (*model.Room, error) {
	s.rmw.Lock()
	defer s.rmw.Unlock()

	room, err := s.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	if room.Scores == nil {
		room.Scores = make(map[model.PlayerID]int)
	}
	for id, points := range delta {
		room.Scores[id] += points
	}

	if err := s.saveRoom(ctx, room); err != nil {
		return nil, err
	}
	return room, nil
}
