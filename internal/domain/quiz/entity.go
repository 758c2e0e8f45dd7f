package quiz

import (
	"time"

	"github.com/google/uuid"
)

const OptionCount = 4

// Origin of a stored quiz.
const (
	SourceAuthored  = "authored"
	SourceGenerated = "generated"
)

// Question is a multiple-choice question with exactly four options.
type Question struct {
	Prompt       string   `json:"prompt"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
}

// Quiz is the question set for one content item. It never changes once stored.
type Quiz struct {
	ContentItemID uuid.UUID  `json:"content_item_id"`
	Questions     []Question `json:"questions"`
	Source        string     `json:"source"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Source describes the content item a quiz is requested for.
type Source struct {
	ContentItemID uuid.UUID
	Title         string
	Description   string
	Authored      []Question
}
