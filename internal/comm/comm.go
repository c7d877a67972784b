package comm

import (
	"encoding/json"

	"github.com/quizwire/trivia-services/internal/gamesvc/models"
)

// NATS topics between the socket service and the game service.
const (
	TopicGameIn  = "game.service.in"
	TopicGameOut = "game.service.out"
)

// Connection roles, declared once at room join and carried on every
// forwarded message.
const (
	RoleHost       = "host"
	RoleContestant = "contestant"
	RoleMonitor    = "monitor"
)

// Inbound event types (client -> socket service -> game service).
const (
	EventJoinRoom         = "join-room"
	EventLeaveRoom        = "leave-room"
	EventSelectQuestion   = "select-question"
	EventRevealQuestion   = "reveal-question"
	EventBuzz             = "buzz"
	EventConfirmAnswer    = "confirm-answer"
	EventMarkQuestionDone = "mark-question-done"
	EventManualAward      = "manual-award"
	EventPause            = "pause"
	EventResume           = "resume"
	EventReset            = "reset"
	EventMonitorView      = "monitor-view"
	EventMonitorSound     = "monitor-sound"
)

// Outbound event types (game service -> socket service -> room).
const (
	EventRoomJoined        = "room-joined"
	EventQuestionSelected  = "question-selected"
	EventQuestionRevealed  = "question-revealed"
	EventQueueUpdate       = "queue-update"
	EventAnswerResult      = "answer-result"
	EventScoreUpdate       = "score-update"
	EventLeaderboardUpdate = "leaderboard-update"
	EventGameStateChange   = "game-state-change"
	EventGameState         = "game-state"
	EventError             = "error"
)

// WSMessage is the envelope every event travels in, both on the websocket
// and on NATS. The socket service stamps SocketId, RoomId and Role before
// forwarding inbound events; outbound messages carry RoomId for a room
// broadcast or only SocketId for a direct reply.
type WSMessage struct {
	Type     string          `json:"type"`
	Data     json.RawMessage `json:"data"`
	SocketId string          `json:"socketid,omitempty"`
	RoomId   string          `json:"roomid,omitempty"`
	Role     string          `json:"role,omitempty"`
}

// Inbound payloads.

type JoinRoomPayload struct {
	GameId       string `json:"gameId"`
	Role         string `json:"role"`
	ContestantId string `json:"contestantId,omitempty"`
}

type SelectQuestionPayload struct {
	GameId        string `json:"gameId"`
	CategoryIndex int    `json:"categoryIndex"`
	QuestionIndex int    `json:"questionIndex"`
	ContestantId  string `json:"contestantId"`
}

type RevealQuestionPayload struct {
	GameId        string `json:"gameId"`
	CategoryIndex int    `json:"categoryIndex"`
	QuestionIndex int    `json:"questionIndex"`
}

// BuzzPayload carries the client clock reading for skew diagnostics only.
// Admission order is decided by the game service.
type BuzzPayload struct {
	GameId          string `json:"gameId"`
	ContestantId    string `json:"contestantId"`
	ClientTimestamp int64  `json:"clientTimestamp"`
}

type ConfirmAnswerPayload struct {
	GameId       string `json:"gameId"`
	ContestantId string `json:"contestantId"`
	Correct      bool   `json:"correct"`
	Points       int    `json:"points"`
}

type MarkQuestionDonePayload struct {
	GameId string `json:"gameId"`
}

type ManualAwardPayload struct {
	GameId        string `json:"gameId"`
	CategoryIndex int    `json:"categoryIndex"`
	QuestionIndex int    `json:"questionIndex"`
	ContestantId  string `json:"contestantId"`
	Points        int    `json:"points"`
}

type GameControlPayload struct {
	GameId string `json:"gameId"`
}

type MonitorViewPayload struct {
	GameId string `json:"gameId"`
	View   string `json:"view"` // grid, question, leaderboard, photo
}

type MonitorSoundPayload struct {
	GameId string `json:"gameId"`
	Muted  bool   `json:"muted"`
}

// Outbound payloads.

type RoomJoined struct {
	GameId string `json:"gameId"`
	Role   string `json:"role"`
}

type QueueUpdate struct {
	Queue            []models.BuzzerEntry `json:"queue"`
	CurrentAnswering *string              `json:"currentAnswering"`
}

type QuestionRevealed struct {
	Category string `json:"category"`
	Points   int    `json:"points"`
	Question string `json:"question"`
}

type AnswerResult struct {
	ContestantId string `json:"contestantId"`
	Correct      bool   `json:"correct"`
	Points       int    `json:"points"`
}

type ScoreUpdate struct {
	ContestantId string `json:"contestantId"`
	NewScore     int    `json:"newScore"`
}

type LeaderboardEntry struct {
	ContestantId string `json:"contestantId"`
	Name         string `json:"name"`
	PhotoUrl     string `json:"photoUrl"`
	Score        int    `json:"score"`
	Rank         int    `json:"rank"`
}

type LeaderboardUpdate struct {
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
}

type GameStateChange struct {
	Status models.GameStatus `json:"status"`
}

type GameState struct {
	Game *models.Game `json:"game"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
