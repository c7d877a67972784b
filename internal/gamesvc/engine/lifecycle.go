package engine

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/quizwire/trivia-services/internal/comm"
	"github.com/quizwire/trivia-services/internal/gamesvc/models"
)

// Pause suspends play. An open question stays open and the queue is kept;
// buzzing is rejected while paused because admission requires active status.
func (e *Engine) Pause(ctx context.Context, gameID string) ([]Announcement, error) {
	game, err := e.mutateGame(ctx, gameID, func(g *models.Game) error {
		g.Status = models.StatusPaused
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Infof("game %s: paused", gameID)
	return []Announcement{stateChange(game)}, nil
}

// Resume returns a paused game to active play.
func (e *Engine) Resume(ctx context.Context, gameID string) ([]Announcement, error) {
	game, err := e.mutateGame(ctx, gameID, func(g *models.Game) error {
		g.Status = models.StatusActive
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Infof("game %s: resumed", gameID)
	return []Announcement{stateChange(game)}, nil
}

// Reset returns the game to its pre-play state: no open question, empty
// queue, empty answered set, status waiting. Contestant scores are kept;
// wiping those is a contestant-management concern, not a game-lifecycle one.
func (e *Engine) Reset(ctx context.Context, gameID string) ([]Announcement, error) {
	game, err := e.mutateGame(ctx, gameID, func(g *models.Game) error {
		g.Status = models.StatusWaiting
		g.CurrentQuestion = nil
		g.BuzzerQueue = nil
		g.AnsweredQuestions = nil
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Infof("game %s: reset to waiting", gameID)
	return []Announcement{stateChange(game), queueUpdate(game), gameState(game)}, nil
}

func stateChange(g *models.Game) Announcement {
	return Announcement{
		Type:    comm.EventGameStateChange,
		Payload: comm.GameStateChange{Status: g.Status},
	}
}
