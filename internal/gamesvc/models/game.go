package models

import (
	"time"
)

type GameStatus string

const (
	StatusWaiting GameStatus = "waiting"
	StatusActive  GameStatus = "active"
	StatusPaused  GameStatus = "paused"
	StatusEnded   GameStatus = "ended"
)

// CurrentQuestion is the snapshot of a quiz question captured at reveal
// time. The quiz template can change independently of a running game, so
// points, text and answer are frozen on the game record.
type CurrentQuestion struct {
	CategoryIndex int    `bson:"category_index" json:"categoryIndex"`
	QuestionIndex int    `bson:"question_index" json:"questionIndex"`
	Points        int    `bson:"points" json:"points"`
	Question      string `bson:"question" json:"question"`
	Answer        string `bson:"answer" json:"answer"`
}

// BuzzerEntry is one admitted buzz. Timestamp is the server admission time
// in unix milliseconds, never a client clock reading.
type BuzzerEntry struct {
	ContestantID string `bson:"contestant_id" json:"contestantId"`
	Timestamp    int64  `bson:"timestamp" json:"timestamp"`
}

type AnsweredQuestion struct {
	CategoryIndex int `bson:"category_index" json:"categoryIndex"`
	QuestionIndex int `bson:"question_index" json:"questionIndex"`
}

// Game is the persisted record of one trivia session. All mutations go
// through the versioned compare-and-swap in the game store, so every field
// change bumps Version.
type Game struct {
	ID                string             `bson:"_id" json:"id"`
	QuizID            string             `bson:"quiz_id" json:"quizId"`
	Status            GameStatus         `bson:"status" json:"status"`
	CurrentQuestion   *CurrentQuestion   `bson:"current_question,omitempty" json:"currentQuestion"`
	BuzzerQueue       []BuzzerEntry      `bson:"buzzer_queue" json:"buzzerQueue"`
	AnsweredQuestions []AnsweredQuestion `bson:"answered_questions" json:"answeredQuestions"`
	Version           int64              `bson:"version" json:"-"`
	CreatedAt         time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt         time.Time          `bson:"updated_at" json:"updatedAt"`
}

// InQueue reports whether the contestant already holds a buzzer slot.
func (g *Game) InQueue(contestantID string) bool {
	for _, e := range g.BuzzerQueue {
		if e.ContestantID == contestantID {
			return true
		}
	}
	return false
}

// QueueHead returns the contestant currently entitled to answer, or "" when
// the queue is empty.
func (g *Game) QueueHead() string {
	if len(g.BuzzerQueue) == 0 {
		return ""
	}
	return g.BuzzerQueue[0].ContestantID
}

// IsAnswered reports whether the quiz cell has already been resolved.
func (g *Game) IsAnswered(categoryIndex, questionIndex int) bool {
	for _, aq := range g.AnsweredQuestions {
		if aq.CategoryIndex == categoryIndex && aq.QuestionIndex == questionIndex {
			return true
		}
	}
	return false
}

// MarkAnswered adds the cell to the answered set. The set is write-once: a
// pair already present is left untouched.
func (g *Game) MarkAnswered(categoryIndex, questionIndex int) {
	if g.IsAnswered(categoryIndex, questionIndex) {
		return
	}
	g.AnsweredQuestions = append(g.AnsweredQuestions, AnsweredQuestion{
		CategoryIndex: categoryIndex,
		QuestionIndex: questionIndex,
	})
}
