package engine

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/quizwire/trivia-services/internal/comm"
	"github.com/quizwire/trivia-services/internal/gamesvc/models"
	"github.com/quizwire/trivia-services/internal/gamesvc/store"
)

// RevealQuestion opens a quiz cell for buzzing. The question's points, text
// and answer are snapshotted onto the game record, the buzzer queue is
// reset, and the game goes active. A cell already in the answered set can
// never be revealed again.
func (e *Engine) RevealQuestion(ctx context.Context, gameID string, categoryIndex, questionIndex int) ([]Announcement, error) {
	current, err := e.games.GetGameByID(ctx, gameID)
	if err != nil {
		return nil, err
	}

	quiz, err := e.quizzes.GetQuizByID(ctx, current.QuizID)
	if err != nil {
		return nil, err
	}

	category, question, ok := quiz.QuestionAt(categoryIndex, questionIndex)
	if !ok {
		return nil, fmt.Errorf("question %d-%d in quiz %s: %w",
			categoryIndex, questionIndex, current.QuizID, store.ErrNotFound)
	}

	game, err := e.mutateGame(ctx, gameID, func(g *models.Game) error {
		if g.IsAnswered(categoryIndex, questionIndex) {
			return fmt.Errorf("question %d-%d has already been answered: %w",
				categoryIndex, questionIndex, ErrInvalidState)
		}

		g.CurrentQuestion = &models.CurrentQuestion{
			CategoryIndex: categoryIndex,
			QuestionIndex: questionIndex,
			Points:        question.Points,
			Question:      question.Question,
			Answer:        question.Answer,
		}
		g.BuzzerQueue = nil
		g.Status = models.StatusActive
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Infof("game %s: revealed question %s / %d points (%d-%d)",
		gameID, category.Name, question.Points, categoryIndex, questionIndex)

	// The answer stays on the game record only; it is never broadcast.
	return []Announcement{
		{
			Type: comm.EventQuestionRevealed,
			Payload: comm.QuestionRevealed{
				Category: category.Name,
				Points:   question.Points,
				Question: question.Question,
			},
		},
		queueUpdate(game),
	}, nil
}
