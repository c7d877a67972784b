package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quizwire/trivia-services/internal/comm"
	"github.com/quizwire/trivia-services/internal/gamesvc/engine"
	"github.com/quizwire/trivia-services/internal/gamesvc/models"
	"github.com/quizwire/trivia-services/internal/gamesvc/store"
)

type fakePublisher struct {
	mu   sync.Mutex
	sent []*comm.WSMessage
}

func (f *fakePublisher) Publish(subject string, data []byte) error {
	msg := &comm.WSMessage{}
	if err := json.Unmarshal(data, msg); err != nil {
		return err
	}
	f.mu.Lock()
	f.sent = append(f.sent, msg)
	f.mu.Unlock()
	return nil
}

func (f *fakePublisher) byType(typ string) []*comm.WSMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*comm.WSMessage
	for _, m := range f.sent {
		if m.Type == typ {
			out = append(out, m)
		}
	}
	return out
}

type memGameStore struct {
	mu    sync.Mutex
	games map[string]*models.Game
}

func (s *memGameStore) GetGameByID(ctx context.Context, id string) (*models.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[id]
	if !ok {
		return nil, fmt.Errorf("game %s: %w", id, store.ErrNotFound)
	}
	cp := *g
	return &cp, nil
}

func (s *memGameStore) UpdateGameCAS(ctx context.Context, g *models.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.games[g.ID]
	if cur.Version != g.Version {
		return fmt.Errorf("game %s: %w", g.ID, store.ErrStale)
	}
	g.Version++
	g.UpdatedAt = time.Now().UTC()
	cp := *g
	s.games[g.ID] = &cp
	return nil
}

type memQuizStore struct{ quiz *models.Quiz }

func (s *memQuizStore) GetQuizByID(ctx context.Context, id string) (*models.Quiz, error) {
	if s.quiz == nil || s.quiz.ID != id {
		return nil, fmt.Errorf("quiz %s: %w", id, store.ErrNotFound)
	}
	return s.quiz, nil
}

type memContestantStore struct{}

func (s *memContestantStore) GetContestantByID(ctx context.Context, id string) (*models.Contestant, error) {
	return &models.Contestant{ID: id, GameID: "g1"}, nil
}

func (s *memContestantStore) GetContestantsByGameID(ctx context.Context, gameID string) ([]*models.Contestant, error) {
	return nil, nil
}

func (s *memContestantStore) AddScore(ctx context.Context, id string, delta int) (int, error) {
	return delta, nil
}

func newTestBroker() (*Broker, *fakePublisher) {
	games := &memGameStore{games: map[string]*models.Game{
		"g1": {ID: "g1", QuizID: "q1", Status: models.StatusWaiting, Version: 1},
	}}
	quizzes := &memQuizStore{quiz: &models.Quiz{
		ID: "q1",
		Categories: []models.Category{
			{Name: "Movies", Questions: []models.Question{
				{Points: 100, Question: "Q", Answer: "A"},
			}},
		},
	}}

	pub := &fakePublisher{}
	eng := engine.New(games, quizzes, &memContestantStore{})
	return NewBroker(pub, eng), pub
}

func envelope(t *testing.T, typ, socketId, roomId, role string, payload any) *comm.WSMessage {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return &comm.WSMessage{
		Type:     typ,
		Data:     data,
		SocketId: socketId,
		RoomId:   roomId,
		Role:     role,
	}
}

func TestHostOnlyEventRejectedForContestant(t *testing.T) {
	b, pub := newTestBroker()

	m := envelope(t, comm.EventRevealQuestion, "sock-1", "g1", comm.RoleContestant,
		comm.RevealQuestionPayload{GameId: "g1", CategoryIndex: 0, QuestionIndex: 0})
	b.handleEnvelope(m)

	errs := pub.byType(comm.EventError)
	require.Len(t, errs, 1)
	assert.Equal(t, "sock-1", errs[0].SocketId)
	assert.Empty(t, errs[0].RoomId, "errors go to the originator only")
	assert.Empty(t, pub.byType(comm.EventQuestionRevealed))
}

func TestBuzzRejectedForHost(t *testing.T) {
	b, pub := newTestBroker()

	m := envelope(t, comm.EventBuzz, "sock-2", "g1", comm.RoleHost,
		comm.BuzzPayload{GameId: "g1", ContestantId: "x"})
	b.handleEnvelope(m)

	errs := pub.byType(comm.EventError)
	require.Len(t, errs, 1)
	assert.Equal(t, "sock-2", errs[0].SocketId)
}

func TestRevealBroadcastsToRoom(t *testing.T) {
	b, pub := newTestBroker()

	m := envelope(t, comm.EventRevealQuestion, "sock-1", "g1", comm.RoleHost,
		comm.RevealQuestionPayload{GameId: "g1", CategoryIndex: 0, QuestionIndex: 0})
	b.handleEnvelope(m)

	require.Empty(t, pub.byType(comm.EventError))

	revealed := pub.byType(comm.EventQuestionRevealed)
	require.Len(t, revealed, 1)
	assert.Equal(t, "g1", revealed[0].RoomId)
	assert.Empty(t, revealed[0].SocketId)

	var p comm.QuestionRevealed
	require.NoError(t, json.Unmarshal(revealed[0].Data, &p))
	assert.Equal(t, "Movies", p.Category)
	assert.Equal(t, 100, p.Points)

	// Revealed payload never carries the answer text.
	assert.NotContains(t, string(revealed[0].Data), `"answer"`)

	require.Len(t, pub.byType(comm.EventQueueUpdate), 1)
}

func TestBusinessRejectionReturnsErrorToSender(t *testing.T) {
	b, pub := newTestBroker()

	// Buzz with no question open.
	m := envelope(t, comm.EventBuzz, "sock-3", "g1", comm.RoleContestant,
		comm.BuzzPayload{GameId: "g1", ContestantId: "x"})
	b.handleEnvelope(m)

	errs := pub.byType(comm.EventError)
	require.Len(t, errs, 1)
	assert.Equal(t, "sock-3", errs[0].SocketId)
	assert.Empty(t, pub.byType(comm.EventQueueUpdate))
}

func TestBuzzWithoutContestantIdRejected(t *testing.T) {
	b, pub := newTestBroker()

	m := envelope(t, comm.EventBuzz, "sock-8", "g1", comm.RoleContestant,
		comm.BuzzPayload{GameId: "g1"})
	b.handleEnvelope(m)

	errs := pub.byType(comm.EventError)
	require.Len(t, errs, 1)
	assert.Equal(t, "sock-8", errs[0].SocketId)
	assert.Empty(t, pub.byType(comm.EventQueueUpdate))
}

func TestConfirmAnswerWithoutContestantIdRejected(t *testing.T) {
	b, pub := newTestBroker()

	m := envelope(t, comm.EventConfirmAnswer, "sock-9", "g1", comm.RoleHost,
		comm.ConfirmAnswerPayload{GameId: "g1", Correct: false})
	b.handleEnvelope(m)

	require.Len(t, pub.byType(comm.EventError), 1)
	assert.Empty(t, pub.byType(comm.EventAnswerResult))
}

func TestManualAwardWithoutContestantIdRejected(t *testing.T) {
	b, pub := newTestBroker()

	m := envelope(t, comm.EventManualAward, "sock-10", "g1", comm.RoleHost,
		comm.ManualAwardPayload{GameId: "g1", Points: 100})
	b.handleEnvelope(m)

	require.Len(t, pub.byType(comm.EventError), 1)
	assert.Empty(t, pub.byType(comm.EventScoreUpdate))
}

func TestJoinRoomConfirmedDirectly(t *testing.T) {
	b, pub := newTestBroker()

	m := envelope(t, comm.EventJoinRoom, "sock-4", "", comm.RoleHost,
		comm.JoinRoomPayload{GameId: "g1", Role: comm.RoleHost})
	b.handleEnvelope(m)

	joined := pub.byType(comm.EventRoomJoined)
	require.Len(t, joined, 1)
	assert.Equal(t, "sock-4", joined[0].SocketId)
	assert.Empty(t, joined[0].RoomId)
}

func TestJoinUnknownGameRejected(t *testing.T) {
	b, pub := newTestBroker()

	m := envelope(t, comm.EventJoinRoom, "sock-5", "", comm.RoleHost,
		comm.JoinRoomPayload{GameId: "nope", Role: comm.RoleHost})
	b.handleEnvelope(m)

	require.Empty(t, pub.byType(comm.EventRoomJoined))
	require.Len(t, pub.byType(comm.EventError), 1)
}

func TestUnknownEventRejected(t *testing.T) {
	b, pub := newTestBroker()

	m := envelope(t, "frobnicate", "sock-6", "g1", comm.RoleHost, struct{}{})
	b.handleEnvelope(m)

	require.Len(t, pub.byType(comm.EventError), 1)
}

func TestMonitorControlsPassThrough(t *testing.T) {
	b, pub := newTestBroker()

	m := envelope(t, comm.EventMonitorView, "sock-7", "g1", comm.RoleHost,
		comm.MonitorViewPayload{GameId: "g1", View: "leaderboard"})
	b.handleEnvelope(m)

	views := pub.byType(comm.EventMonitorView)
	require.Len(t, views, 1)
	assert.Equal(t, "g1", views[0].RoomId)
}
