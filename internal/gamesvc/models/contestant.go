package models

import "time"

// Contestant is one player seat in a game. Slot is the fixed display slot
// (1..5) the contestant was registered under; it never changes during play.
// Score is mutated only through the contestant store's atomic increment.
type Contestant struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	PhotoURL  string    `json:"photoUrl"`
	GameID    string    `json:"gameId"`
	Score     int       `json:"score"`
	Slot      int       `json:"slot"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
