package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/quizwire/trivia-services/internal/gamesvc/models"
)

// QuizStore reads quiz templates. Templates are immutable during play, so
// this store is read-only from the game service's point of view.
type QuizStore struct {
	col *mongo.Collection
}

func NewQuizStore(db *mongo.Database) *QuizStore {
	return &QuizStore{col: db.Collection("quizzes")}
}

func (s *QuizStore) GetQuizByID(ctx context.Context, quizID string) (*models.Quiz, error) {
	quiz := &models.Quiz{}
	err := s.col.FindOne(ctx, bson.M{"_id": quizID}).Decode(quiz)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("quiz %s: %w", quizID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get quiz %s: %w", quizID, err)
	}
	return quiz, nil
}
