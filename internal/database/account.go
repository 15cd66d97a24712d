package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/quizdeck/quizdeck/internal/auth"
	"github.com/quizdeck/quizdeck/internal/models"
)

// CreateAccount inserts a new account, hashing the password first.
func CreateAccount(ctx context.Context, account *models.Account) error {
	if account.ID == uuid.Nil {
		id, err := uuid.NewRandom()
		if err != nil {
			return fmt.Errorf("failed to generate account id: %w", err)
		}
		account.ID = id
	}

	hash, err := auth.CreateHash(account.Password, auth.Params)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	account.Password = hash

	q := `INSERT INTO accounts (id, email, password, username)
	      VALUES ($1, $2, $3, $4)`

	err = pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, execErr := tx.Exec(ctx, q,
			account.ID, account.Email, account.Password, account.Username,
		)
		return execErr
	})
	if err != nil {
		return mapError(err)
	}
	return nil
}

// EnsureAccount inserts a profile row for the identity if one is missing.
// An existing row (unique violation on the id, email, or username) counts as
// success: the store's constraints are the source of truth, not a prior read.
func EnsureAccount(ctx context.Context, account *models.Account) error {
	q := `INSERT INTO accounts (id, email, password, username)
	      VALUES ($1, $2, $3, $4)`

	err := pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, execErr := tx.Exec(ctx, q,
			account.ID, account.Email, account.Password, account.Username,
		)
		return execErr
	})
	if err != nil {
		if errors.Is(mapError(err), ErrUniqueViolation) {
			return nil
		}
		return fmt.Errorf("failed to ensure account: %w", err)
	}
	return nil
}

func GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	var a models.Account
	q := `
	SELECT id, email, password, username, created_at
	FROM accounts
	WHERE email=$1
	`
	err := DB.QueryRow(ctx, q, email).Scan(
		&a.ID, &a.Email, &a.Password, &a.Username, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func GetAccountByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	var a models.Account
	q := `
	SELECT id, email, password, username, created_at
	FROM accounts
	WHERE id=$1
	`
	err := DB.QueryRow(ctx, q, id).Scan(
		&a.ID, &a.Email, &a.Password, &a.Username, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

