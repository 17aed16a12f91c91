package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/AlessandroGasperini/pinky/internal/model"
	"github.com/AlessandroGasperini/pinky/internal/store"
)

// Store is an in-memory implementation of the store interface
type Store struct {
	mu sync.RWMutex

	rooms      map[model.RoomID]*model.Room
	codeIndex  map[model.RoomCode]model.RoomID
	players    map[model.RoomID][]model.Player
	categories map[model.CategoryID]*model.Category
	words      map[model.CategoryID][]model.Word
	questions  map[model.QuestionID]*model.Question
	answers    map[model.RoomID][]model.PlayerAnswer
}

// New creates a new in-memory store instance
func New() *Store {
	return &Store{
		rooms:      make(map[model.RoomID]*model.Room),
		codeIndex:  make(map[model.RoomCode]model.RoomID),
		players:    make(map[model.RoomID][]model.Player),
		categories: make(map[model.CategoryID]*model.Category),
		words:      make(map[model.CategoryID][]model.Word),
		questions:  make(map[model.QuestionID]*model.Question),
		answers:    make(map[model.RoomID][]model.PlayerAnswer),
	}
}

// Ensure Store implements the interface
var _ store.Store = (*Store)(nil)

// Room operations

func (s *Store) CreateRoom(ctx context.Context, room *model.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *room
	s.rooms[room.ID] = &cp
	s.codeIndex[room.Code] = room.ID
	return nil
}

func (s *Store) GetRoom(ctx context.Context, id model.RoomID) (*model.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[id]
	if !ok {
		return nil, model.ErrRoomNotFound
	}
	cp := *room
	return &cp, nil
}

func (s *Store) GetRoomByCode(ctx context.Context, code model.RoomCode) (*model.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.codeIndex[code]
	if !ok {
		return nil, model.ErrRoomNotFound
	}
	room, ok := s.rooms[id]
	if !ok {
		return nil, model.ErrRoomNotFound
	}
	cp := *room
	return &cp, nil
}

func (s *Store) UpdateRoom(ctx context.Context, id model.RoomID, patch model.RoomPatch) (*model.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[id]
	if !ok {
		return nil, model.ErrRoomNotFound
	}
	if patch.ExpectPhase != nil && room.Phase != *patch.ExpectPhase {
		return nil, model.ErrStalePhase
	}
	patch.ApplyTo(room)
	cp := *room
	return &cp, nil
}

// Player operations

func (s *Store) CreatePlayer(ctx context.Context, player *model.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[player.RoomID]; !ok {
		return model.ErrRoomNotFound
	}
	s.players[player.RoomID] = append(s.players[player.RoomID], *player)
	return nil
}

func (s *Store) ListPlayers(ctx context.Context, roomID model.RoomID) ([]model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	players := make([]model.Player, len(s.players[roomID]))
	copy(players, s.players[roomID])
	sort.SliceStable(players, func(i, j int) bool {
		return players[i].CreatedAt.Before(players[j].CreatedAt)
	})
	return players, nil
}

// Reference content

func (s *Store) ListCategories(ctx context.Context) ([]model.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var categories []model.Category
	for _, c := range s.categories {
		if c.IsActive {
			categories = append(categories, *c)
		}
	}
	sort.Slice(categories, func(i, j int) bool {
		return categories[i].Name < categories[j].Name
	})
	return categories, nil
}

func (s *Store) ListWords(ctx context.Context, categoryID model.CategoryID, limit int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var words []string
	for _, w := range s.words[categoryID] {
		if !w.IsActive {
			continue
		}
		words = append(words, w.Word)
		if limit > 0 && len(words) >= limit {
			break
		}
	}
	return words, nil
}

func (s *Store) GetQuestion(ctx context.Context, id model.QuestionID) (*model.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.questions[id]
	if !ok {
		return nil, model.ErrQuestionNotFound
	}
	cp := *q
	return &cp, nil
}

func (s *Store) QuestionForRound(ctx context.Context, roomID model.RoomID, categoryName string, round int) (*model.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var category *model.Category
	for _, c := range s.categories {
		if c.Name == categoryName {
			category = c
			break
		}
	}
	if category == nil {
		return nil, model.ErrCategoryNotFound
	}

	// The round assignment is the category's question list in stable id
	// order, so every client resolves the same question for a round.
	var assigned []*model.Question
	for _, q := range s.questions {
		if q.CategoryID == category.ID && q.IsActive {
			assigned = append(assigned, q)
		}
	}
	sort.Slice(assigned, func(i, j int) bool { return assigned[i].ID < assigned[j].ID })

	if round < 1 || round > len(assigned) {
		return nil, model.ErrNoMoreQuestions
	}
	cp := *assigned[round-1]
	return &cp, nil
}

func (s *Store) SaveCategory(ctx context.Context, category *model.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *category
	s.categories[category.ID] = &cp
	return nil
}

func (s *Store) SaveWord(ctx context.Context, word *model.Word) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.words[word.CategoryID] = append(s.words[word.CategoryID], *word)
	return nil
}

func (s *Store) SaveQuestion(ctx context.Context, question *model.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *question
	s.questions[question.ID] = &cp
	return nil
}

// Answer operations

func (s *Store) CreateAnswer(ctx context.Context, answer *model.PlayerAnswer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.answers[answer.RoomID] = append(s.answers[answer.RoomID], *answer)
	return nil
}

func (s *Store) ListAnswers(ctx context.Context, roomID model.RoomID) ([]model.PlayerAnswer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	answers := make([]model.PlayerAnswer, len(s.answers[roomID]))
	copy(answers, s.answers[roomID])
	return answers, nil
}

// Read-modify-write helpers

func (s *Store) SaveVote(ctx context.Context, roomID model.RoomID, voter, votedFor model.PlayerID) (*model.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[roomID]
	if !ok {
		return nil, model.ErrRoomNotFound
	}
	if room.GameData == nil {
		room.GameData = &model.GameData{}
	}
	if room.GameData.Votes == nil {
		room.GameData.Votes = make(map[model.PlayerID]model.PlayerID)
	}
	room.GameData.Votes[voter] = votedFor
	cp := *room
	return &cp, nil
}

func (s *Store) MergeScores(ctx context.Context, roomID model.RoomID, delta map[model.PlayerID]int) (*model.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[roomID]
	if !ok {
		return nil, model.ErrRoomNotFound
	}
	if room.Scores == nil {
		room.Scores = make(map[model.PlayerID]int)
	}
	for id, points := range delta {
		room.Scores[id] += points
	}
	cp := *room
	return &cp, nil
}
