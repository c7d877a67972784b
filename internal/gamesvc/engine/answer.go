package engine

import (
	"context"
	"fmt"
	"sort"

	log "github.com/sirupsen/logrus"

	"github.com/quizwire/trivia-services/internal/comm"
	"github.com/quizwire/trivia-services/internal/gamesvc/metrics"
	"github.com/quizwire/trivia-services/internal/gamesvc/models"
)

// ResolveAnswer applies the host verdict for the contestant at the head of
// the buzzer queue.
//
// Correct: the contestant is awarded points, the cell joins the answered
// set and the question closes. Incorrect: the head is popped; if the queue
// drains, the question closes exactly as if the host marked it done,
// otherwise the next contestant becomes the one answering.
//
// The head check and the queue mutation run inside one compare-and-swap
// cycle, so a stale host confirmation can never act on a queue that has
// moved under it.
func (e *Engine) ResolveAnswer(ctx context.Context, gameID, contestantID string, correct bool, points int) ([]Announcement, error) {
	if contestantID == "" {
		return nil, fmt.Errorf("resolution requires a contestant: %w", ErrInvalidState)
	}
	if points < 0 {
		return nil, fmt.Errorf("points must not be negative: %w", ErrInvalidState)
	}
	if correct {
		if _, err := e.contestants.GetContestantByID(ctx, contestantID); err != nil {
			return nil, err
		}
	}

	var closedCell *models.AnsweredQuestion

	game, err := e.mutateGame(ctx, gameID, func(g *models.Game) error {
		closedCell = nil

		if g.CurrentQuestion == nil {
			return fmt.Errorf("no question is open: %w", ErrInvalidState)
		}
		if len(g.BuzzerQueue) == 0 {
			return fmt.Errorf("nobody has buzzed yet: %w", ErrInvalidState)
		}
		if g.QueueHead() != contestantID {
			return fmt.Errorf("contestant %s is not at the head of the buzzer queue: %w",
				contestantID, ErrConflict)
		}

		if correct {
			cell := models.AnsweredQuestion{
				CategoryIndex: g.CurrentQuestion.CategoryIndex,
				QuestionIndex: g.CurrentQuestion.QuestionIndex,
			}
			g.MarkAnswered(cell.CategoryIndex, cell.QuestionIndex)
			g.CurrentQuestion = nil
			g.BuzzerQueue = nil
			closedCell = &cell
			return nil
		}

		// Incorrect: pop the head, keep the rest in order.
		g.BuzzerQueue = g.BuzzerQueue[1:]
		if len(g.BuzzerQueue) == 0 {
			cell := models.AnsweredQuestion{
				CategoryIndex: g.CurrentQuestion.CategoryIndex,
				QuestionIndex: g.CurrentQuestion.QuestionIndex,
			}
			g.MarkAnswered(cell.CategoryIndex, cell.QuestionIndex)
			g.CurrentQuestion = nil
			closedCell = &cell
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if correct {
		metrics.QuestionsClosed.WithLabelValues("correct").Inc()

		// The closure is already committed at this point; a failing score
		// write must not swallow the announcements the room is owed.
		closure := []Announcement{
			{Type: comm.EventAnswerResult, Payload: comm.AnswerResult{
				ContestantId: contestantID, Correct: true, Points: points,
			}},
			queueUpdate(game),
			gameState(game),
		}

		newScore, err := e.contestants.AddScore(ctx, contestantID, points)
		if err != nil {
			log.Errorf("game %s: question closed but score award for contestant %s failed: %s",
				gameID, contestantID, err)
			return closure, nil
		}

		anns := append(closure, Announcement{Type: comm.EventScoreUpdate, Payload: comm.ScoreUpdate{
			ContestantId: contestantID, NewScore: newScore,
		}})

		leaderboard, err := e.leaderboard(ctx, gameID)
		if err != nil {
			log.Errorf("game %s: leaderboard refresh failed: %s", gameID, err)
			return anns, nil
		}

		log.Infof("game %s: contestant %s answered correctly, +%d points (now %d)",
			gameID, contestantID, points, newScore)
		return append(anns, leaderboard), nil
	}

	result := Announcement{Type: comm.EventAnswerResult, Payload: comm.AnswerResult{
		ContestantId: contestantID, Correct: false, Points: 0,
	}}

	if closedCell != nil {
		metrics.QuestionsClosed.WithLabelValues("exhausted").Inc()
		log.Infof("game %s: queue exhausted, question %d-%d closed unanswered",
			gameID, closedCell.CategoryIndex, closedCell.QuestionIndex)
		return []Announcement{result, queueUpdate(game), gameState(game)}, nil
	}

	log.Infof("game %s: contestant %s answered incorrectly, next up %s",
		gameID, contestantID, game.QueueHead())
	return []Announcement{result, queueUpdate(game)}, nil
}

// MarkQuestionDone is the host override that closes the open question with
// no verdict: the cell joins the answered set and the queue is discarded,
// whatever its state.
func (e *Engine) MarkQuestionDone(ctx context.Context, gameID string) ([]Announcement, error) {
	game, err := e.mutateGame(ctx, gameID, func(g *models.Game) error {
		if g.CurrentQuestion == nil {
			return fmt.Errorf("no question is open to mark as done: %w", ErrInvalidState)
		}

		g.MarkAnswered(g.CurrentQuestion.CategoryIndex, g.CurrentQuestion.QuestionIndex)
		g.CurrentQuestion = nil
		g.BuzzerQueue = nil
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.QuestionsClosed.WithLabelValues("marked_done").Inc()
	log.Infof("game %s: host marked question done", gameID)

	return []Announcement{queueUpdate(game), gameState(game)}, nil
}

// ManualAward grants points retroactively for a cell that has already been
// resolved, e.g. when the host reconsiders an answer after closing the
// question. It touches only the contestant's score, never the question
// lifecycle.
func (e *Engine) ManualAward(ctx context.Context, gameID string, categoryIndex, questionIndex int, contestantID string, points int) ([]Announcement, error) {
	if points < 0 {
		return nil, fmt.Errorf("points must not be negative: %w", ErrInvalidState)
	}

	game, err := e.games.GetGameByID(ctx, gameID)
	if err != nil {
		return nil, err
	}

	if !game.IsAnswered(categoryIndex, questionIndex) {
		return nil, fmt.Errorf("question %d-%d has not been answered yet: %w",
			categoryIndex, questionIndex, ErrConflict)
	}

	newScore, err := e.contestants.AddScore(ctx, contestantID, points)
	if err != nil {
		return nil, err
	}

	leaderboard, err := e.leaderboard(ctx, gameID)
	if err != nil {
		return nil, err
	}

	log.Infof("game %s: host awarded %d points to contestant %s for question %d-%d",
		gameID, points, contestantID, categoryIndex, questionIndex)

	return []Announcement{
		{Type: comm.EventScoreUpdate, Payload: comm.ScoreUpdate{
			ContestantId: contestantID, NewScore: newScore,
		}},
		leaderboard,
	}, nil
}

// leaderboard ranks the game's contestants by score descending. The sort is
// stable over slot order, so ties keep their original enumeration order and
// rank assignment is deterministic.
func (e *Engine) leaderboard(ctx context.Context, gameID string) (Announcement, error) {
	contestants, err := e.contestants.GetContestantsByGameID(ctx, gameID)
	if err != nil {
		return Announcement{}, err
	}

	entries := make([]comm.LeaderboardEntry, 0, len(contestants))
	for _, c := range contestants {
		entries = append(entries, comm.LeaderboardEntry{
			ContestantId: c.ID,
			Name:         c.Name,
			PhotoUrl:     c.PhotoURL,
			Score:        c.Score,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}

	return Announcement{
		Type:    comm.EventLeaderboardUpdate,
		Payload: comm.LeaderboardUpdate{Leaderboard: entries},
	}, nil
}
