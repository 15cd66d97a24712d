package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/quizdeck/quizdeck/internal/models"
)

// InsertMatchRecord appends one resolved round to the match log. Records are
// never updated or deleted afterwards.
func InsertMatchRecord(ctx context.Context, rec *models.MatchRecord) error {
	if rec.ID == uuid.Nil {
		id, err := uuid.NewRandom()
		if err != nil {
			return fmt.Errorf("failed to generate match record id: %w", err)
		}
		rec.ID = id
	}

	q := `
	INSERT INTO match_records (id, room_id, card_id, winner_id)
	VALUES ($1, $2, $3, $4)
	`
	err := pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, execErr := tx.Exec(ctx, q, rec.ID, rec.RoomID, rec.CardID, rec.WinnerID)
		return execErr
	})
	if err != nil {
		return fmt.Errorf("failed to insert match record: %w", err)
	}
	return nil
}

// ListMatchRecords returns the room's resolved rounds, newest first.
func ListMatchRecords(ctx context.Context, roomID uuid.UUID) ([]models.MatchRecord, error) {
	q := `
	SELECT id, room_id, card_id, winner_id, completed_at
	FROM match_records
	WHERE room_id = $1
	ORDER BY completed_at DESC
	`
	rows, err := DB.Query(ctx, q, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []models.MatchRecord
	for rows.Next() {
		var r models.MatchRecord
		if err := rows.Scan(&r.ID, &r.RoomID, &r.CardID, &r.WinnerID, &r.CompletedAt); err != nil {
			return nil, err
		}
		recs = append(recs, r)
	}
	return recs, rows.Err()
}
