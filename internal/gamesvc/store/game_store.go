package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/quizwire/trivia-services/internal/gamesvc/models"
)

// GameStore persists game records in the games collection. Concurrent
// writers are serialized through UpdateCAS: the replace filter matches both
// _id and the version the caller read, so a racing commit leaves
// MatchedCount at zero and the caller retries.
type GameStore struct {
	col *mongo.Collection
}

func NewGameStore(db *mongo.Database) *GameStore {
	return &GameStore{col: db.Collection("games")}
}

func (s *GameStore) GetGameByID(ctx context.Context, gameID string) (*models.Game, error) {
	game := &models.Game{}
	err := s.col.FindOne(ctx, bson.M{"_id": gameID}).Decode(game)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("game %s: %w", gameID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get game %s: %w", gameID, err)
	}
	return game, nil
}

func (s *GameStore) CreateGame(ctx context.Context, game *models.Game) error {
	now := time.Now().UTC()
	game.Version = 1
	game.CreatedAt = now
	game.UpdatedAt = now
	if game.Status == "" {
		game.Status = models.StatusWaiting
	}

	if _, err := s.col.InsertOne(ctx, game); err != nil {
		return fmt.Errorf("failed to create game %s: %w", game.ID, err)
	}
	return nil
}

// UpdateGameCAS commits the in-memory game record only if the stored
// version still equals the version the caller read. On success the record's
// version is bumped and UpdatedAt refreshed; on a lost race ErrStale is
// returned and the record is left at the read version.
func (s *GameStore) UpdateGameCAS(ctx context.Context, game *models.Game) error {
	readVersion := game.Version
	game.Version = readVersion + 1
	game.UpdatedAt = time.Now().UTC()

	res, err := s.col.ReplaceOne(ctx, bson.M{"_id": game.ID, "version": readVersion}, game)
	if err != nil {
		game.Version = readVersion
		return fmt.Errorf("failed to update game %s: %w", game.ID, err)
	}
	if res.MatchedCount == 0 {
		game.Version = readVersion
		return fmt.Errorf("game %s: %w", game.ID, ErrStale)
	}
	return nil
}
