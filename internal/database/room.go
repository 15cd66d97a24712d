package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/quizdeck/quizdeck/internal/models"
)

// InsertRoom creates a new room row. The host membership is inserted
// separately (and afterwards, it has a foreign key on the room).
func InsertRoom(ctx context.Context, room *models.Room) error {
	if room.ID == uuid.Nil {
		id, err := uuid.NewRandom()
		if err != nil {
			return fmt.Errorf("failed to generate room id: %w", err)
		}
		room.ID = id
	}
	room.IsActive = true

	q := `
	INSERT INTO rooms (id, name, host_id, is_active)
	VALUES ($1, $2, $3, $4)
	`
	err := pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, execErr := tx.Exec(ctx, q, room.ID, room.Name, room.HostID, room.IsActive)
		return execErr
	})
	if err != nil {
		return mapError(err)
	}
	return nil
}

// GetRoom fetches a room by ID.
func GetRoom(ctx context.Context, roomID uuid.UUID) (*models.Room, error) {
	var r models.Room
	q := `
	SELECT id, name, host_id, is_active, current_card_id, created_at
	FROM rooms
	WHERE id = $1
	`
	err := DB.QueryRow(ctx, q, roomID).Scan(
		&r.ID, &r.Name, &r.HostID, &r.IsActive, &r.CurrentCardID, &r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ListActiveRooms returns every active room with its member count. The LEFT
// JOIN matters: a room with no memberships (including an orphaned one whose
// host join failed) must still appear with a count of 0.
func ListActiveRooms(ctx context.Context) ([]models.RoomListing, error) {
	q := `
	SELECT r.id, r.name, r.host_id, r.is_active, r.current_card_id, r.created_at,
	       COUNT(m.id)
	FROM rooms r
	LEFT JOIN memberships m ON m.room_id = r.id
	WHERE r.is_active = TRUE
	GROUP BY r.id
	ORDER BY r.created_at DESC
	`
	rows, err := DB.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var listings []models.RoomListing
	for rows.Next() {
		var l models.RoomListing
		err := rows.Scan(
			&l.Room.ID, &l.Room.Name, &l.Room.HostID, &l.Room.IsActive,
			&l.Room.CurrentCardID, &l.Room.CreatedAt,
			&l.Players,
		)
		if err != nil {
			return nil, err
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

// SetCurrentCard points the room at a new current flashcard. A nil cardID
// clears it (awaiting-round state).
func SetCurrentCard(ctx context.Context, roomID uuid.UUID, cardID *uuid.UUID) error {
	q := `UPDATE rooms SET current_card_id=$1 WHERE id=$2`
	return pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, q, cardID, roomID)
		return err
	})
}

// CloseRoom marks the room inactive so it drops out of the directory.
func CloseRoom(ctx context.Context, roomID uuid.UUID) error {
	q := `UPDATE rooms SET is_active=FALSE WHERE id=$1`
	return pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, q, roomID)
		return err
	})
}
