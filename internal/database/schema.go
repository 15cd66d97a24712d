package database

import (
	"context"
	"fmt"
)

// EnsureSchema creates all tables needed by the service. Safe to call on
// every boot, all statements use IF NOT EXISTS.
//
// The uniqueness constraints on accounts.email, accounts.username and
// (room_id, user_id) on memberships are load-bearing: the application
// observes duplicate-key errors on them to implement idempotent create/join.
// There is intentionally no uniqueness on (room_id, card_id) in
// match_records; see room.Machine.SubmitAnswer.
func EnsureSchema(ctx context.Context) error {
	if _, err := DB.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
    id UUID PRIMARY KEY,
    email TEXT NOT NULL UNIQUE,
    password TEXT NOT NULL DEFAULT '',
    username TEXT NOT NULL UNIQUE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS flashcards (
    id UUID PRIMARY KEY,
    question TEXT NOT NULL,
    answer TEXT NOT NULL,
    category TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS rooms (
    id UUID PRIMARY KEY,
    name TEXT NOT NULL,
    host_id UUID NOT NULL REFERENCES accounts(id),
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    current_card_id UUID REFERENCES flashcards(id),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_rooms_is_active ON rooms(is_active);

CREATE TABLE IF NOT EXISTS memberships (
    id UUID PRIMARY KEY,
    room_id UUID NOT NULL REFERENCES rooms(id) ON DELETE CASCADE,
    user_id UUID NOT NULL REFERENCES accounts(id),
    score INTEGER NOT NULL DEFAULT 0 CHECK (score >= 0),
    joined_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    UNIQUE (room_id, user_id)
);

CREATE INDEX IF NOT EXISTS idx_memberships_room_id ON memberships(room_id);

CREATE TABLE IF NOT EXISTS match_records (
    id UUID PRIMARY KEY,
    room_id UUID NOT NULL REFERENCES rooms(id) ON DELETE CASCADE,
    card_id UUID NOT NULL REFERENCES flashcards(id),
    winner_id UUID REFERENCES accounts(id),
    completed_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_match_records_room_id ON match_records(room_id);
`
