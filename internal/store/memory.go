// Package store provides an in-process implementation of the room.Store
// interface, mirroring the postgres schema's constraints (uniqueness on
// account email/username and on (room_id, user_id) memberships). It backs
// the test suite and single-node runs without postgres.
package store

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/quizdeck/quizdeck/internal/auth"
	"github.com/quizdeck/quizdeck/internal/database"
	"github.com/quizdeck/quizdeck/internal/models"
)

// Memory is a mutex-guarded in-process record store.
type Memory struct {
	mu          sync.Mutex
	accounts    map[uuid.UUID]models.Account
	flashcards  []models.Flashcard
	rooms       map[uuid.UUID]models.Room
	memberships map[uuid.UUID]models.Membership
	matches     []models.MatchRecord
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		accounts:    make(map[uuid.UUID]models.Account),
		rooms:       make(map[uuid.UUID]models.Room),
		memberships: make(map[uuid.UUID]models.Membership),
	}
}

func dup(constraint string) error {
	return fmt.Errorf("%w: %s", database.ErrUniqueViolation, constraint)
}

func (s *Memory) EnsureAccount(ctx context.Context, a *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[a.ID]; ok {
		return nil
	}
	for _, other := range s.accounts {
		if other.Email == a.Email {
			return nil
		}
		if other.Username == a.Username {
			return nil
		}
	}
	acct := *a
	acct.CreatedAt = time.Now()
	s.accounts[a.ID] = acct
	return nil
}

// CreateAccount inserts strictly, surfacing uniqueness conflicts. The
// password is hashed here, like the postgres implementation does.
func (s *Memory) CreateAccount(ctx context.Context, a *models.Account) error {
	hash, err := auth.CreateHash(a.Password, auth.Params)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	a.Password = hash

	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if _, ok := s.accounts[a.ID]; ok {
		return dup("accounts_pkey")
	}
	for _, other := range s.accounts {
		if other.Email == a.Email {
			return dup("accounts_email_key")
		}
		if other.Username == a.Username {
			return dup("accounts_username_key")
		}
	}
	acct := *a
	acct.CreatedAt = time.Now()
	s.accounts[a.ID] = acct
	return nil
}

func (s *Memory) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.Email == email {
			acct := a
			return &acct, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (s *Memory) GetAccountByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &a, nil
}

func (s *Memory) InsertRoom(ctx context.Context, r *models.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if _, ok := s.rooms[r.ID]; ok {
		return dup("rooms_pkey")
	}
	r.IsActive = true
	r.CreatedAt = time.Now()
	s.rooms[r.ID] = *r
	return nil
}

func (s *Memory) GetRoom(ctx context.Context, id uuid.UUID) (*models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &r, nil
}

func (s *Memory) ListActiveRooms(ctx context.Context) ([]models.RoomListing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[uuid.UUID]int)
	for _, m := range s.memberships {
		counts[m.RoomID]++
	}
	var listings []models.RoomListing
	for _, r := range s.rooms {
		if !r.IsActive {
			continue
		}
		listings = append(listings, models.RoomListing{Room: r, Players: counts[r.ID]})
	}
	sort.Slice(listings, func(i, j int) bool {
		return listings[i].Room.CreatedAt.After(listings[j].Room.CreatedAt)
	})
	return listings, nil
}

func (s *Memory) SetCurrentCard(ctx context.Context, roomID uuid.UUID, cardID *uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[roomID]
	if !ok {
		return nil
	}
	r.CurrentCardID = cardID
	s.rooms[roomID] = r
	return nil
}

func (s *Memory) CloseRoom(ctx context.Context, roomID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[roomID]
	if !ok {
		return nil
	}
	r.IsActive = false
	s.rooms[roomID] = r
	return nil
}

func (s *Memory) InsertMembership(ctx context.Context, m *models.Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, other := range s.memberships {
		if other.RoomID == m.RoomID && other.UserID == m.UserID {
			return dup("memberships_room_id_user_id_key")
		}
	}
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.JoinedAt = time.Now()
	s.memberships[m.ID] = *m
	return nil
}

func (s *Memory) DeleteMembership(ctx context.Context, roomID, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, m := range s.memberships {
		if m.RoomID == roomID && m.UserID == userID {
			delete(s.memberships, id)
		}
	}
	return nil
}

func (s *Memory) ListMembers(ctx context.Context, roomID uuid.UUID) ([]models.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var members []models.Member
	for _, m := range s.memberships {
		if m.RoomID != roomID {
			continue
		}
		username := ""
		if a, ok := s.accounts[m.UserID]; ok {
			username = a.Username
		}
		members = append(members, models.Member{Membership: m, Username: username})
	}
	sort.Slice(members, func(i, j int) bool {
		if members[i].Score != members[j].Score {
			return members[i].Score > members[j].Score
		}
		return members[i].JoinedAt.Before(members[j].JoinedAt)
	})
	return members, nil
}

func (s *Memory) IncrementScore(ctx context.Context, roomID, userID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, m := range s.memberships {
		if m.RoomID == roomID && m.UserID == userID {
			m.Score++
			s.memberships[id] = m
			return m.Score, nil
		}
	}
	return 0, pgx.ErrNoRows
}

func (s *Memory) InsertFlashcard(ctx context.Context, c *models.Flashcard) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.CreatedAt = time.Now()
	s.flashcards = append(s.flashcards, *c)
	return nil
}

func (s *Memory) GetFlashcard(ctx context.Context, id uuid.UUID) (*models.Flashcard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.flashcards {
		if c.ID == id {
			card := c
			return &card, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (s *Memory) ListFlashcards(ctx context.Context) ([]models.Flashcard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Flashcard, len(s.flashcards))
	copy(out, s.flashcards)
	return out, nil
}

func (s *Memory) PickRandomFlashcard(ctx context.Context) (*models.Flashcard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.flashcards) == 0 {
		return nil, pgx.ErrNoRows
	}
	card := s.flashcards[rand.Intn(len(s.flashcards))]
	return &card, nil
}

func (s *Memory) InsertMatchRecord(ctx context.Context, rec *models.MatchRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	rec.CompletedAt = time.Now()
	s.matches = append(s.matches, *rec)
	return nil
}

func (s *Memory) ListMatchRecords(ctx context.Context, roomID uuid.UUID) ([]models.MatchRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.MatchRecord
	for _, rec := range s.matches {
		if rec.RoomID == roomID {
			out = append(out, rec)
		}
	}
	return out, nil
}
