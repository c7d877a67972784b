package models

import "time"

type Question struct {
	Points   int    `bson:"points" json:"points"`
	Question string `bson:"question" json:"question"`
	Answer   string `bson:"answer" json:"answer"`
}

type Category struct {
	Name      string     `bson:"name" json:"name"`
	Questions []Question `bson:"questions" json:"questions"`
}

// Quiz is the immutable question template a game is played against.
type Quiz struct {
	ID         string     `bson:"_id" json:"id"`
	Name       string     `bson:"name" json:"name"`
	Categories []Category `bson:"categories" json:"categories"`
	CreatedAt  time.Time  `bson:"created_at" json:"createdAt"`
}

// QuestionAt returns the category and question at the given indexes, or
// false when either index is out of range.
func (q *Quiz) QuestionAt(categoryIndex, questionIndex int) (*Category, *Question, bool) {
	if categoryIndex < 0 || categoryIndex >= len(q.Categories) {
		return nil, nil, false
	}
	cat := &q.Categories[categoryIndex]
	if questionIndex < 0 || questionIndex >= len(cat.Questions) {
		return nil, nil, false
	}
	return cat, &cat.Questions[questionIndex], true
}
