package models

import (
	"time"

	"github.com/google/uuid"
)

// MatchRecord is the append-only log of resolved rounds: one row per
// correctly answered card. Never updated or deleted.
type MatchRecord struct {
	ID          uuid.UUID  `json:"id"`
	RoomID      uuid.UUID  `json:"roomID"`
	CardID      uuid.UUID  `json:"cardID"`
	WinnerID    *uuid.UUID `json:"winnerID,omitempty"`
	CompletedAt time.Time  `json:"completedAt"`
}
