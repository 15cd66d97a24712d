package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/quizdeck/quizdeck/internal/models"
)

// InsertFlashcard adds a card to the reference deck.
func InsertFlashcard(ctx context.Context, card *models.Flashcard) error {
	if card.ID == uuid.Nil {
		id, err := uuid.NewRandom()
		if err != nil {
			return fmt.Errorf("failed to generate card id: %w", err)
		}
		card.ID = id
	}

	q := `
	INSERT INTO flashcards (id, question, answer, category)
	VALUES ($1, $2, $3, $4)
	`
	err := pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, execErr := tx.Exec(ctx, q, card.ID, card.Question, card.Answer, card.Category)
		return execErr
	})
	if err != nil {
		return mapError(err)
	}
	return nil
}

func GetFlashcard(ctx context.Context, id uuid.UUID) (*models.Flashcard, error) {
	var c models.Flashcard
	q := `
	SELECT id, question, answer, category, created_at
	FROM flashcards
	WHERE id=$1
	`
	err := DB.QueryRow(ctx, q, id).Scan(
		&c.ID, &c.Question, &c.Answer, &c.Category, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListFlashcards returns the full deck.
func ListFlashcards(ctx context.Context) ([]models.Flashcard, error) {
	q := `
	SELECT id, question, answer, category, created_at
	FROM flashcards
	ORDER BY created_at
	`
	rows, err := DB.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cards []models.Flashcard
	for rows.Next() {
		var c models.Flashcard
		if err := rows.Scan(&c.ID, &c.Question, &c.Answer, &c.Category, &c.CreatedAt); err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

// PickRandomFlashcard selects one card uniformly at random from the full set.
// Returns pgx.ErrNoRows when the deck is empty.
func PickRandomFlashcard(ctx context.Context) (*models.Flashcard, error) {
	var c models.Flashcard
	q := `
	SELECT id, question, answer, category, created_at
	FROM flashcards
	ORDER BY random()
	LIMIT 1
	`
	err := DB.QueryRow(ctx, q).Scan(
		&c.ID, &c.Question, &c.Answer, &c.Category, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
