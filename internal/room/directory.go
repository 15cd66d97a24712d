// internal/room/directory.go
package room

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/quizdeck/quizdeck/internal/database"
	"github.com/quizdeck/quizdeck/internal/feed"
	"github.com/quizdeck/quizdeck/internal/models"
)

// Directory lists active rooms and creates new ones.
type Directory struct {
	store  Store
	bus    feed.Bus
	logger *logrus.Logger
}

// NewDirectory wires a directory over the given store and feed bus.
func NewDirectory(store Store, bus feed.Bus, logger *logrus.Logger) *Directory {
	return &Directory{store: store, bus: bus, logger: logger}
}

// ListActiveRooms returns every active room with its live member count,
// including rooms nobody has joined yet (count 0).
func (d *Directory) ListActiveRooms(ctx context.Context) ([]models.RoomListing, error) {
	return d.store.ListActiveRooms(ctx)
}

// CreateRoom inserts a new active room hosted by the acting account and
// auto-joins the host with a zero score. The acting account's profile row is
// created first if missing. The room insert must precede the membership
// insert (memberships reference rooms); a failure between the two leaves an
// orphaned zero-member room, which the directory listing tolerates.
func (d *Directory) CreateRoom(ctx context.Context, acting Identity, name string) (*models.Room, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: room name is required", ErrValidation)
	}

	if err := d.ensureAccount(ctx, acting); err != nil {
		return nil, err
	}

	r := &models.Room{
		Name:   name,
		HostID: acting.ID,
	}
	if err := d.store.InsertRoom(ctx, r); err != nil {
		return nil, fmt.Errorf("failed to create room: %w", err)
	}
	d.publish(ctx, feed.Event{
		Table: TableRooms,
		Kind:  feed.KindInsert,
		Row:   map[string]string{"id": r.ID.String()},
	})

	m := &models.Membership{RoomID: r.ID, UserID: acting.ID}
	if err := d.store.InsertMembership(ctx, m); err != nil {
		return nil, fmt.Errorf("room created but host join failed: %w", err)
	}
	d.publish(ctx, feed.Event{
		Table: TableMemberships,
		Kind:  feed.KindInsert,
		Row:   map[string]string{"room_id": r.ID.String(), "user_id": acting.ID.String()},
	})

	d.logger.WithFields(logrus.Fields{
		"room": r.ID,
		"host": acting.ID,
		"name": name,
	}).Info("room created")

	return r, nil
}

// CloseRoom deactivates the room so it drops out of the directory. Only the
// host may close; anyone else is a silent no-op, matching the leniency of
// the round controls.
func (d *Directory) CloseRoom(ctx context.Context, acting Identity, roomID uuid.UUID) error {
	r, err := d.store.GetRoom(ctx, roomID)
	if err != nil {
		return err
	}
	if r.HostID != acting.ID {
		d.logger.Debugf("ignoring close of room %s by non-host %s", r.ID, acting.ID)
		return nil
	}
	if err := d.store.CloseRoom(ctx, r.ID); err != nil {
		return fmt.Errorf("failed to close room: %w", err)
	}
	d.publish(ctx, feed.Event{
		Table: TableRooms,
		Kind:  feed.KindUpdate,
		Row:   map[string]string{"id": r.ID.String()},
	})
	return nil
}

// ensureAccount lazily creates the acting account's profile row. The store's
// uniqueness constraints are the source of truth: an existing row comes back
// as a unique violation and counts as success.
func (d *Directory) ensureAccount(ctx context.Context, acting Identity) error {
	a := &models.Account{
		ID:       acting.ID,
		Email:    acting.Email,
		Username: acting.Username,
	}
	if a.Email == "" {
		a.Email = fmt.Sprintf("%s@guest.invalid", acting.ID)
	}
	if a.Username == "" {
		a.Username = "player-" + acting.ID.String()[:8]
	}
	if err := d.store.EnsureAccount(ctx, a); err != nil {
		if errors.Is(err, database.ErrUniqueViolation) {
			return nil
		}
		return fmt.Errorf("failed to ensure account: %w", err)
	}
	return nil
}

func (d *Directory) publish(ctx context.Context, e feed.Event) {
	if err := d.bus.Publish(ctx, e); err != nil {
		// A lost notification only delays a refetch; the write succeeded.
		d.logger.Warnf("feed publish failed for %s %s: %v", e.Table, e.Kind, err)
	}
}
