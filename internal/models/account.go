package models

import (
	"time"

	"github.com/google/uuid"
)

// Account mirrors the identity provider's user: the id is the provider id,
// email/username are unique. Rows are created lazily on first use.
type Account struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
}
