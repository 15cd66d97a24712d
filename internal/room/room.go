// Package room holds the game's business logic: the directory of active
// rooms, a player's session within one room, and the scoring/round state
// machine. All persistence goes through the Store interface and every
// successful mutation is announced on the feed bus so other sessions refetch.
package room

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/quizdeck/quizdeck/internal/models"
)

// Table names as they appear on the feed.
const (
	TableRooms       = "rooms"
	TableMemberships = "memberships"
	TableMatches     = "match_records"
)

// ErrValidation covers rejected user input (e.g. an empty room name).
// Constraint and transport failures from the store are passed through
// unwrapped: they surface to the caller and are never retried.
var ErrValidation = errors.New("validation error")

// ErrNoCards is returned when a round cannot start because the deck is empty.
var ErrNoCards = errors.New("no flashcards available")

// Identity is the acting account as established by the auth layer. Email and
// Username are provider-supplied fallbacks used only when the accounts table
// has no row yet for this id.
type Identity struct {
	ID       uuid.UUID
	Email    string
	Username string
}

// Store is the record-store access the room logic needs. Implemented by
// database.Store (postgres) and store.Memory (in-process).
//
// Implementations report a duplicate-key insert as database.ErrUniqueViolation
// and a missing row as pgx.ErrNoRows.
type Store interface {
	EnsureAccount(ctx context.Context, a *models.Account) error
	GetAccountByID(ctx context.Context, id uuid.UUID) (*models.Account, error)

	InsertRoom(ctx context.Context, r *models.Room) error
	GetRoom(ctx context.Context, id uuid.UUID) (*models.Room, error)
	ListActiveRooms(ctx context.Context) ([]models.RoomListing, error)
	SetCurrentCard(ctx context.Context, roomID uuid.UUID, cardID *uuid.UUID) error
	CloseRoom(ctx context.Context, roomID uuid.UUID) error

	InsertMembership(ctx context.Context, m *models.Membership) error
	DeleteMembership(ctx context.Context, roomID, userID uuid.UUID) error
	ListMembers(ctx context.Context, roomID uuid.UUID) ([]models.Member, error)
	IncrementScore(ctx context.Context, roomID, userID uuid.UUID) (int, error)

	InsertFlashcard(ctx context.Context, c *models.Flashcard) error
	GetFlashcard(ctx context.Context, id uuid.UUID) (*models.Flashcard, error)
	ListFlashcards(ctx context.Context) ([]models.Flashcard, error)
	PickRandomFlashcard(ctx context.Context) (*models.Flashcard, error)

	InsertMatchRecord(ctx context.Context, rec *models.MatchRecord) error
	ListMatchRecords(ctx context.Context, roomID uuid.UUID) ([]models.MatchRecord, error)
}
