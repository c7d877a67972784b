package engine

import (
	"context"
	"fmt"
	"sort"

	log "github.com/sirupsen/logrus"

	"github.com/quizwire/trivia-services/internal/gamesvc/metrics"
	"github.com/quizwire/trivia-services/internal/gamesvc/models"
)

// clockSkewWarnMillis flags client clocks that disagree with the server by
// more than a second.
const clockSkewWarnMillis = 1000

// Buzz admits a contestant into the buzzer queue of the open question.
//
// Admission order is authoritative server order: the entry carries the
// timestamp taken when the attempt reached this engine, and the effective
// order among racing attempts is whatever order their compare-and-swap
// commits land in. The client timestamp is logged for skew diagnostics and
// never used as a sort key.
func (e *Engine) Buzz(ctx context.Context, gameID, contestantID string, clientTimestamp int64) ([]Announcement, error) {
	admittedAt := e.now().UnixMilli()

	if skew := admittedAt - clientTimestamp; clientTimestamp > 0 && (skew > clockSkewWarnMillis || skew < -clockSkewWarnMillis) {
		log.Warnf("game %s: contestant %s client clock off by %dms, using server time",
			gameID, contestantID, skew)
	}

	if _, err := e.games.GetGameByID(ctx, gameID); err != nil {
		return nil, err
	}

	// Only registered contestants of this game may hold a queue slot; a
	// slot for an unknown id would make the later score award unservable.
	contestant, err := e.contestants.GetContestantByID(ctx, contestantID)
	if err != nil {
		return nil, err
	}
	if contestant.GameID != gameID {
		return nil, fmt.Errorf("contestant %s does not belong to game %s: %w",
			contestantID, gameID, ErrConflict)
	}

	game, err := e.mutateGame(ctx, gameID, func(g *models.Game) error {
		if g.CurrentQuestion == nil {
			return fmt.Errorf("no question is open for buzzing: %w", ErrInvalidState)
		}
		if g.Status != models.StatusActive {
			return fmt.Errorf("game is %s, not active: %w", g.Status, ErrInvalidState)
		}
		if g.InQueue(contestantID) {
			return fmt.Errorf("contestant %s is already in the buzzer queue: %w", contestantID, ErrConflict)
		}

		g.BuzzerQueue = append(g.BuzzerQueue, models.BuzzerEntry{
			ContestantID: contestantID,
			Timestamp:    admittedAt,
		})
		sortQueue(g.BuzzerQueue)
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.BuzzAdmissions.Inc()
	log.Infof("game %s: contestant %s admitted at position %d of %d",
		gameID, contestantID, queuePosition(game.BuzzerQueue, contestantID), len(game.BuzzerQueue))

	return []Announcement{queueUpdate(game)}, nil
}

// sortQueue orders entries by admission timestamp ascending, with
// contestant id as a deterministic tiebreak for identical timestamps.
func sortQueue(queue []models.BuzzerEntry) {
	sort.SliceStable(queue, func(i, j int) bool {
		if queue[i].Timestamp != queue[j].Timestamp {
			return queue[i].Timestamp < queue[j].Timestamp
		}
		return queue[i].ContestantID < queue[j].ContestantID
	})
}

func queuePosition(queue []models.BuzzerEntry, contestantID string) int {
	for i, e := range queue {
		if e.ContestantID == contestantID {
			return i + 1
		}
	}
	return 0
}
