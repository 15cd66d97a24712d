// internal/room/session.go
package room

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/quizdeck/quizdeck/internal/database"
	"github.com/quizdeck/quizdeck/internal/feed"
	"github.com/quizdeck/quizdeck/internal/models"
)

// Session is one player's live view of one room: membership, the current
// card, and the leaderboard. It joins on entry, subscribes to change
// notifications for the room's membership rows and the room row itself, and
// refetches in full whenever either fires. Close must be called on every
// exit path to release the subscriptions.
type Session struct {
	store  Store
	bus    feed.Bus
	logger *logrus.Logger

	roomID uuid.UUID
	acting Identity

	mu      sync.Mutex
	room    *models.Room
	members []models.Member
	card    *models.Flashcard
	subs    []feed.Subscription
	closed  bool

	// refreshCh coalesces bursts of notifications into one refetch.
	refreshCh chan struct{}
	done      chan struct{}

	onChange func()
}

// SetOnChange registers a callback invoked after every completed refetch.
func (s *Session) SetOnChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

// NewSession joins the acting account to the room and begins tracking it.
// Joining twice is idempotent: a duplicate membership insert is treated as
// "already a member", not a failure.
func NewSession(ctx context.Context, store Store, bus feed.Bus, logger *logrus.Logger, roomID uuid.UUID, acting Identity) (*Session, error) {
	r, err := store.GetRoom(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("room lookup failed: %w", err)
	}

	s := &Session{
		store:     store,
		bus:       bus,
		logger:    logger,
		roomID:    roomID,
		acting:    acting,
		room:      r,
		refreshCh: make(chan struct{}, 1),
		done:      make(chan struct{}),
	}

	m := &models.Membership{RoomID: roomID, UserID: acting.ID}
	if err := store.InsertMembership(ctx, m); err != nil {
		if !errors.Is(err, database.ErrUniqueViolation) {
			return nil, fmt.Errorf("failed to join room: %w", err)
		}
		logger.Debugf("user %s already a member of room %s", acting.ID, roomID)
	} else {
		s.publish(ctx, feed.Event{
			Table: TableMemberships,
			Kind:  feed.KindInsert,
			Row:   map[string]string{"room_id": roomID.String(), "user_id": acting.ID.String()},
		})
	}

	if err := s.RefreshMembers(ctx); err != nil {
		return nil, err
	}
	if err := s.RefreshCurrentCard(ctx); err != nil {
		return nil, err
	}

	if err := s.subscribe(ctx); err != nil {
		s.Close()
		return nil, err
	}

	go s.refreshLoop()
	return s, nil
}

// subscribe registers the two feed subscriptions the session depends on:
// membership changes scoped to this room, and updates to the room row.
func (s *Session) subscribe(ctx context.Context) error {
	memberSub, err := s.bus.Subscribe(ctx, TableMemberships,
		feed.Filter{Column: "room_id", Value: s.roomID.String()},
		feed.MaskAll, func(feed.Event) { s.requestRefresh() })
	if err != nil {
		return fmt.Errorf("membership subscription failed: %w", err)
	}
	s.subs = append(s.subs, memberSub)

	roomSub, err := s.bus.Subscribe(ctx, TableRooms,
		feed.Filter{Column: "id", Value: s.roomID.String()},
		feed.MaskUpdate, func(feed.Event) { s.requestRefresh() })
	if err != nil {
		return fmt.Errorf("room subscription failed: %w", err)
	}
	s.subs = append(s.subs, roomSub)
	return nil
}

// requestRefresh marks a refetch as pending. Multiple rapid notifications
// coalesce into a single refetch.
func (s *Session) requestRefresh() {
	select {
	case s.refreshCh <- struct{}{}:
	default:
	}
}

func (s *Session) refreshLoop() {
	for {
		select {
		case <-s.done:
			return
		case <-s.refreshCh:
			ctx := context.Background()
			if err := s.RefreshMembers(ctx); err != nil {
				s.logger.Warnf("session %s/%s: member refresh failed: %v", s.roomID, s.acting.ID, err)
			}
			if err := s.RefreshCurrentCard(ctx); err != nil {
				s.logger.Warnf("session %s/%s: card refresh failed: %v", s.roomID, s.acting.ID, err)
			}
			s.mu.Lock()
			fn := s.onChange
			s.mu.Unlock()
			if fn != nil {
				fn()
			}
		}
	}
}

// RefreshMembers refetches the full leaderboard, ordered by score descending.
func (s *Session) RefreshMembers(ctx context.Context) error {
	members, err := s.store.ListMembers(ctx, s.roomID)
	if err != nil {
		return fmt.Errorf("failed to list members: %w", err)
	}
	s.mu.Lock()
	s.members = members
	s.mu.Unlock()
	return nil
}

// RefreshCurrentCard re-reads the room row and, if a round is running,
// fetches the current flashcard. A nil card means awaiting round start.
func (s *Session) RefreshCurrentCard(ctx context.Context) error {
	r, err := s.store.GetRoom(ctx, s.roomID)
	if err != nil {
		return fmt.Errorf("failed to fetch room: %w", err)
	}

	var card *models.Flashcard
	if r.CurrentCardID != nil {
		card, err = s.store.GetFlashcard(ctx, *r.CurrentCardID)
		if err != nil {
			return fmt.Errorf("failed to fetch current card: %w", err)
		}
	}

	s.mu.Lock()
	s.room = r
	s.card = card
	s.mu.Unlock()
	return nil
}

// Members returns the cached leaderboard.
func (s *Session) Members() []models.Member {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Member, len(s.members))
	copy(out, s.members)
	return out
}

// CurrentCard returns the cached current flashcard, or nil while awaiting a
// round.
func (s *Session) CurrentCard() *models.Flashcard {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.card
}

// Room returns the cached room row.
func (s *Session) Room() models.Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.room
}

// IsHost reports whether the acting account hosts this room.
func (s *Session) IsHost() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room.HostID == s.acting.ID
}

// Leave deletes the caller's own membership row. The delete is scoped to
// (room, caller), so no session can remove another player's row.
func (s *Session) Leave(ctx context.Context) error {
	if err := s.store.DeleteMembership(ctx, s.roomID, s.acting.ID); err != nil {
		return fmt.Errorf("failed to leave room: %w", err)
	}
	s.publish(ctx, feed.Event{
		Table: TableMemberships,
		Kind:  feed.KindDelete,
		Row:   map[string]string{"room_id": s.roomID.String(), "user_id": s.acting.ID.String()},
	})
	return nil
}

// Close tears down all feed subscriptions and stops the refresh loop.
// Idempotent; it does not abort requests already in flight.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	subs := s.subs
	s.subs = nil
	s.mu.Unlock()

	close(s.done)
	for _, sub := range subs {
		sub.Unsubscribe()
	}
}

func (s *Session) publish(ctx context.Context, e feed.Event) {
	if err := s.bus.Publish(ctx, e); err != nil {
		s.logger.Warnf("feed publish failed for %s %s: %v", e.Table, e.Kind, err)
	}
}
