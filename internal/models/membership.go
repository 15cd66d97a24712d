package models

import (
	"time"

	"github.com/google/uuid"
)

// Membership is one account's presence and score within one room.
// (RoomID, UserID) is unique at the store level; the join path relies on
// observing the duplicate-key error to stay idempotent.
type Membership struct {
	ID       uuid.UUID `json:"id"`
	RoomID   uuid.UUID `json:"roomID"`
	UserID   uuid.UUID `json:"userID"`
	Score    int       `json:"score"`
	JoinedAt time.Time `json:"joinedAt"`
}

// Member is a membership joined with the account's username, as rendered on
// the leaderboard.
type Member struct {
	Membership
	Username string `json:"username"`
}
