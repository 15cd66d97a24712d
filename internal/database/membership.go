package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/quizdeck/quizdeck/internal/models"
)

// InsertMembership adds an account to a room with a zero score. A second
// insert for the same (room, user) pair returns ErrUniqueViolation; callers
// on the join path treat that as "already a member".
func InsertMembership(ctx context.Context, m *models.Membership) error {
	if m.ID == uuid.Nil {
		id, err := uuid.NewRandom()
		if err != nil {
			return fmt.Errorf("failed to generate membership id: %w", err)
		}
		m.ID = id
	}

	q := `
	INSERT INTO memberships (id, room_id, user_id, score)
	VALUES ($1, $2, $3, $4)
	`
	err := pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, execErr := tx.Exec(ctx, q, m.ID, m.RoomID, m.UserID, m.Score)
		return execErr
	})
	if err != nil {
		return mapError(err)
	}
	return nil
}

// DeleteMembership removes one account's membership row. Scoped to the pair
// so a caller can only ever delete their own row.
func DeleteMembership(ctx context.Context, roomID, userID uuid.UUID) error {
	q := `DELETE FROM memberships WHERE room_id=$1 AND user_id=$2`
	return pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, q, roomID, userID)
		return err
	})
}

// ListMembers returns the room's leaderboard: memberships joined with the
// account username, highest score first.
func ListMembers(ctx context.Context, roomID uuid.UUID) ([]models.Member, error) {
	q := `
	SELECT m.id, m.room_id, m.user_id, m.score, m.joined_at, a.username
	FROM memberships m
	JOIN accounts a ON a.id = m.user_id
	WHERE m.room_id = $1
	ORDER BY m.score DESC, m.joined_at
	`
	rows, err := DB.Query(ctx, q, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []models.Member
	for rows.Next() {
		var m models.Member
		err := rows.Scan(&m.ID, &m.RoomID, &m.UserID, &m.Score, &m.JoinedAt, &m.Username)
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// IncrementScore adds one to the member's score and returns the new value.
// Scores only ever go up; there is no decrement path.
func IncrementScore(ctx context.Context, roomID, userID uuid.UUID) (int, error) {
	var score int
	q := `
	UPDATE memberships
	SET score = score + 1
	WHERE room_id=$1 AND user_id=$2
	RETURNING score
	`
	err := pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, q, roomID, userID).Scan(&score)
	})
	if err != nil {
		return 0, err
	}
	return score, nil
}
