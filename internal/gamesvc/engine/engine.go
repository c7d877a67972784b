package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/quizwire/trivia-services/internal/comm"
	"github.com/quizwire/trivia-services/internal/gamesvc/metrics"
	"github.com/quizwire/trivia-services/internal/gamesvc/models"
	"github.com/quizwire/trivia-services/internal/gamesvc/store"
)

// maxCASRetries bounds the internal retry loop around stale-version
// conflicts before the operation is surfaced as transient failure.
const maxCASRetries = 5

// GameStore is the slice of the game store the engine needs. All game
// mutations go through UpdateGameCAS; the store signals a lost race with
// store.ErrStale.
type GameStore interface {
	GetGameByID(ctx context.Context, gameID string) (*models.Game, error)
	UpdateGameCAS(ctx context.Context, game *models.Game) error
}

type QuizStore interface {
	GetQuizByID(ctx context.Context, quizID string) (*models.Quiz, error)
}

type ContestantStore interface {
	GetContestantByID(ctx context.Context, id string) (*models.Contestant, error)
	GetContestantsByGameID(ctx context.Context, gameID string) ([]*models.Contestant, error)
	AddScore(ctx context.Context, id string, delta int) (int, error)
}

// Announcement describes one event the caller should broadcast to the game
// room after an operation succeeds. The engine never publishes anything
// itself; the broker owns the fan-out.
type Announcement struct {
	Type    string
	Payload any
}

// Engine is the buzzer-queue and answer-resolution state machine. It holds
// no game state of its own; every operation is a read-compute-commit round
// trip against the stores, so concurrent operations on the same game are
// serialized by the store's compare-and-swap.
type Engine struct {
	games       GameStore
	quizzes     QuizStore
	contestants ContestantStore
	now         func() time.Time
}

func New(games GameStore, quizzes QuizStore, contestants ContestantStore) *Engine {
	return &Engine{
		games:       games,
		quizzes:     quizzes,
		contestants: contestants,
		now:         time.Now,
	}
}

// Game returns the current game snapshot.
func (e *Engine) Game(ctx context.Context, gameID string) (*models.Game, error) {
	return e.games.GetGameByID(ctx, gameID)
}

// mutateGame runs the optimistic-concurrency cycle: read the game, let fn
// validate and mutate it, commit conditionally, and retry the whole cycle
// when another writer got there first. Business-rule rejections from fn
// abort immediately and never retry.
func (e *Engine) mutateGame(ctx context.Context, gameID string, fn func(g *models.Game) error) (*models.Game, error) {
	for attempt := 0; attempt < maxCASRetries; attempt++ {
		game, err := e.games.GetGameByID(ctx, gameID)
		if err != nil {
			return nil, err
		}

		if err := fn(game); err != nil {
			return nil, err
		}

		err = e.games.UpdateGameCAS(ctx, game)
		if err == nil {
			return game, nil
		}
		if !errors.Is(err, store.ErrStale) {
			return nil, err
		}

		metrics.CASConflicts.Inc()
		log.Debugf("game %s: stale version on attempt %d, retrying", gameID, attempt+1)
	}

	return nil, fmt.Errorf("game %s: %w", gameID, ErrContention)
}

// queueUpdate builds the queue broadcast for the game's current queue state.
func queueUpdate(g *models.Game) Announcement {
	queue := g.BuzzerQueue
	if queue == nil {
		queue = []models.BuzzerEntry{}
	}

	var head *string
	if h := g.QueueHead(); h != "" {
		head = &h
	}

	return Announcement{
		Type:    comm.EventQueueUpdate,
		Payload: comm.QueueUpdate{Queue: queue, CurrentAnswering: head},
	}
}

func gameState(g *models.Game) Announcement {
	return Announcement{Type: comm.EventGameState, Payload: comm.GameState{Game: g}}
}
