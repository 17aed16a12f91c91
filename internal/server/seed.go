package server

import (
	"context"
	"fmt"
	"time"

	"github.com/AlessandroGasperini/pinky/internal/model"
	"github.com/AlessandroGasperini/pinky/internal/store"
)

// Seed loads a starter content set into the store: the imposter
// category with its word list, and a trivia category with enough
// questions for a short game. Meant for local development; a hosted
// deployment manages content out of band.
func Seed(ctx context.Context, st store.Store) error {
	now := time.Now()

	categories := []model.Category{
		{
			ID:             "cat-imposter",
			Name:           model.CategoryImposter,
			Description:    "One of you is not who they say they are",
			TimeoutSeconds: 30,
			IsActive:       true,
			CreatedAt:      now,
		},
		{
			ID:             "cat-simple",
			Name:           "simple",
			Description:    "Quickfire trivia",
			TimeoutSeconds: 30,
			IsActive:       true,
			CreatedAt:      now,
		},
	}
	for i := range categories {
		if err := st.SaveCategory(ctx, &categories[i]); err != nil {
			return fmt.Errorf("seeding category %s: %w", categories[i].Name, err)
		}
	}

	words := []string{
		"pizza", "beach", "guitar", "volcano", "library",
		"submarine", "circus", "glacier", "bakery", "lighthouse",
		"treehouse", "waterfall",
	}
	for i, w := range words {
		word := model.Word{
			ID:         fmt.Sprintf("word-%02d", i+1),
			CategoryID: "cat-imposter",
			Word:       w,
			IsActive:   true,
			CreatedAt:  now,
		}
		if err := st.SaveWord(ctx, &word); err != nil {
			return fmt.Errorf("seeding word %s: %w", w, err)
		}
	}

	questions := []model.Question{
		{ID: "q-01", Text: "What is the capital of Australia?", CorrectAnswer: "Canberra"},
		{ID: "q-02", Text: "How many legs does a spider have?", CorrectAnswer: "8"},
		{ID: "q-03", Text: "Which planet is closest to the sun?", CorrectAnswer: "Mercury"},
		{ID: "q-04", Text: "What year did the Berlin Wall fall?", CorrectAnswer: "1989"},
		{ID: "q-05", Text: "What is the largest ocean on Earth?", CorrectAnswer: "Pacific"},
		{ID: "q-06", Text: "Who painted the Mona Lisa?", CorrectAnswer: "Leonardo da Vinci"},
	}
	for i := range questions {
		q := &questions[i]
		q.CategoryID = "cat-simple"
		q.Points = 1
		q.TimeoutSeconds = 30
		q.IsActive = true
		q.CreatedAt = now
		if err := st.SaveQuestion(ctx, q); err != nil {
			return fmt.Errorf("seeding question %s: %w", q.ID, err)
		}
	}

	return nil
}
