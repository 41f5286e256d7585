package db

import (
	"context"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS messages (
	id          UUID PRIMARY KEY,
	audio_path  TEXT NOT NULL DEFAULT '',
	duration_ms BIGINT NOT NULL DEFAULT 0,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	is_sent     BOOLEAN NOT NULL DEFAULT FALSE,
	is_playing  BOOLEAN NOT NULL DEFAULT FALSE,
	text        TEXT NOT NULL DEFAULT '',
	listened_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_messages_created_at ON messages (created_at);
`

// EnsureSchema creates the messages table if it does not exist yet.
// Idempotent, runs on every startup.
func EnsureSchema(ctx context.Context, db DBTX) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}
