package models

import (
	"time"

	"github.com/google/uuid"
)

// Room is one game session. CurrentCardID nil means no round is running.
type Room struct {
	ID            uuid.UUID  `json:"id"`
	Name          string     `json:"name"`
	HostID        uuid.UUID  `json:"hostID"`
	IsActive      bool       `json:"isActive"`
	CurrentCardID *uuid.UUID `json:"currentCardID,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// RoomListing pairs a room with its live member count for the directory view.
// Rooms with zero members are listed with Players == 0.
type RoomListing struct {
	Room    Room `json:"room"`
	Players int  `json:"players"`
}
