package models

import (
	"time"

	"github.com/google/uuid"
)

// Flashcard is immutable reference data. Answers are matched
// case-insensitively after trimming whitespace.
type Flashcard struct {
	ID        uuid.UUID `json:"id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"createdAt"`
}
