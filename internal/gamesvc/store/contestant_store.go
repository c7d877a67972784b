package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quizwire/trivia-services/internal/gamesvc/models"
)

type ContestantStore struct {
	db *pgxpool.Pool
}

func NewContestantStore(db *pgxpool.Pool) *ContestantStore {
	return &ContestantStore{db: db}
}

func (s *ContestantStore) GetContestantByID(ctx context.Context, id string) (*models.Contestant, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, name, photo_url, game_id, score, slot, created_at, updated_at
		FROM contestants
		WHERE id = $1
	`, id)

	c := &models.Contestant{}
	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.PhotoURL,
		&c.GameID,
		&c.Score,
		&c.Slot,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("contestant %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get contestant %s: %w", id, err)
	}

	return c, nil
}

// GetContestantsByGameID returns the contestants of a game in slot order.
// Slot order is the enumeration order used for leaderboard tie-breaking.
func (s *ContestantStore) GetContestantsByGameID(ctx context.Context, gameID string) ([]*models.Contestant, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, photo_url, game_id, score, slot, created_at, updated_at
		FROM contestants
		WHERE game_id = $1
		ORDER BY slot
	`, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to list contestants for game %s: %w", gameID, err)
	}
	defer rows.Close()

	var contestants []*models.Contestant
	for rows.Next() {
		c := &models.Contestant{}
		err := rows.Scan(
			&c.ID,
			&c.Name,
			&c.PhotoURL,
			&c.GameID,
			&c.Score,
			&c.Slot,
			&c.CreatedAt,
			&c.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		contestants = append(contestants, c)
	}

	return contestants, rows.Err()
}

// AddScore applies a score delta as a single atomic statement so concurrent
// awards never lose an update. The GREATEST guard keeps the score from ever
// going below zero. Returns the new score.
func (s *ContestantStore) AddScore(ctx context.Context, id string, delta int) (int, error) {
	var newScore int
	err := s.db.QueryRow(ctx, `
		UPDATE contestants
		SET score = GREATEST(score + $1, 0), updated_at = now()
		WHERE id = $2
		RETURNING score
	`, delta, id).Scan(&newScore)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("contestant %s: %w", id, ErrNotFound)
		}
		return 0, fmt.Errorf("failed to update score for contestant %s: %w", id, err)
	}

	return newScore, nil
}
