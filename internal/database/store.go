package database

import (
	"context"

	"github.com/google/uuid"

	"github.com/quizdeck/quizdeck/internal/models"
)

// Store adapts the package-level query functions to the record-store
// interface the room package consumes, so business logic can be exercised
// against an in-memory implementation in tests.
type Store struct{}

func (Store) CreateAccount(ctx context.Context, a *models.Account) error {
	return CreateAccount(ctx, a)
}

func (Store) EnsureAccount(ctx context.Context, a *models.Account) error {
	return EnsureAccount(ctx, a)
}

func (Store) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	return GetAccountByEmail(ctx, email)
}

func (Store) GetAccountByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	return GetAccountByID(ctx, id)
}

func (Store) InsertRoom(ctx context.Context, r *models.Room) error {
	return InsertRoom(ctx, r)
}

func (Store) GetRoom(ctx context.Context, id uuid.UUID) (*models.Room, error) {
	return GetRoom(ctx, id)
}

func (Store) ListActiveRooms(ctx context.Context) ([]models.RoomListing, error) {
	return ListActiveRooms(ctx)
}

func (Store) SetCurrentCard(ctx context.Context, roomID uuid.UUID, cardID *uuid.UUID) error {
	return SetCurrentCard(ctx, roomID, cardID)
}

func (Store) CloseRoom(ctx context.Context, roomID uuid.UUID) error {
	return CloseRoom(ctx, roomID)
}

func (Store) InsertMembership(ctx context.Context, m *models.Membership) error {
	return InsertMembership(ctx, m)
}

func (Store) DeleteMembership(ctx context.Context, roomID, userID uuid.UUID) error {
	return DeleteMembership(ctx, roomID, userID)
}

func (Store) ListMembers(ctx context.Context, roomID uuid.UUID) ([]models.Member, error) {
	return ListMembers(ctx, roomID)
}

func (Store) IncrementScore(ctx context.Context, roomID, userID uuid.UUID) (int, error) {
	return IncrementScore(ctx, roomID, userID)
}

func (Store) InsertFlashcard(ctx context.Context, c *models.Flashcard) error {
	return InsertFlashcard(ctx, c)
}

func (Store) GetFlashcard(ctx context.Context, id uuid.UUID) (*models.Flashcard, error) {
	return GetFlashcard(ctx, id)
}

func (Store) ListFlashcards(ctx context.Context) ([]models.Flashcard, error) {
	return ListFlashcards(ctx)
}

func (Store) PickRandomFlashcard(ctx context.Context) (*models.Flashcard, error) {
	return PickRandomFlashcard(ctx)
}

func (Store) InsertMatchRecord(ctx context.Context, rec *models.MatchRecord) error {
	return InsertMatchRecord(ctx, rec)
}

func (Store) ListMatchRecords(ctx context.Context, roomID uuid.UUID) ([]models.MatchRecord, error) {
	return ListMatchRecords(ctx, roomID)
}
