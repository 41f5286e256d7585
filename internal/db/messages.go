package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// announce tells live watchers the table changed. Notification failures
// never fail the mutation itself.
func (s *PostgresStore) announce(ctx context.Context) {
	if s.notifier == nil {
		return
	}
	_ = s.notifier.Publish(ctx)
}

// CreateMessage inserts a new chat message record
func (s *PostgresStore) CreateMessage(ctx context.Context, msg *Message) error {
	query := `
		INSERT INTO messages (
			id, audio_path, duration_ms, created_at,
			is_sent, is_playing, text, listened_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}

	_, err := s.db.Exec(ctx, query,
		msg.ID,
		msg.AudioPath,
		msg.DurationMs,
		msg.CreatedAt,
		msg.Sent,
		msg.Playing,
		msg.Text,
		msg.ListenedAt,
	)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("operation cancelled: %w", ctx.Err())
		}
		return fmt.Errorf("failed to create message: %w", err)
	}

	s.announce(ctx)

	return nil
}

// GetMessageByID retrieves a message by ID
func (s *PostgresStore) GetMessageByID(ctx context.Context, id uuid.UUID) (*Message, error) {
	query := `
		SELECT
			id, audio_path, duration_ms, created_at,
			is_sent, is_playing, text, listened_at
		FROM messages
		WHERE id = $1
	`

	msg := &Message{}
	err := s.db.QueryRow(ctx, query, id).Scan(
		&msg.ID,
		&msg.AudioPath,
		&msg.DurationMs,
		&msg.CreatedAt,
		&msg.Sent,
		&msg.Playing,
		&msg.Text,
		&msg.ListenedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("message not found")
		}
		return nil, fmt.Errorf("failed to get message: %w", err)
	}

	return msg, nil
}

// ListMessages retrieves the whole conversation, oldest first
func (s *PostgresStore) ListMessages(ctx context.Context) ([]*Message, error) {
	query := `
		SELECT
			id, audio_path, duration_ms, created_at,
			is_sent, is_playing, text, listened_at
		FROM messages
		ORDER BY created_at ASC
	`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	messages := []*Message{}
	for rows.Next() {
		msg := &Message{}
		err := rows.Scan(
			&msg.ID,
			&msg.AudioPath,
			&msg.DurationMs,
			&msg.CreatedAt,
			&msg.Sent,
			&msg.Playing,
			&msg.Text,
			&msg.ListenedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, msg)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}

	return messages, nil
}

// UpdateMessage updates a message in place, keyed by its identity
func (s *PostgresStore) UpdateMessage(ctx context.Context, msg *Message) error {
	query := `
		UPDATE messages
		SET
			audio_path = $2,
			duration_ms = $3,
			is_sent = $4,
			is_playing = $5,
			text = $6,
			listened_at = $7
		WHERE id = $1
	`

	result, err := s.db.Exec(ctx, query,
		msg.ID,
		msg.AudioPath,
		msg.DurationMs,
		msg.Sent,
		msg.Playing,
		msg.Text,
		msg.ListenedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update message: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("message not found")
	}

	s.announce(ctx)

	return nil
}

// DeleteMessage deletes a message. The underlying audio file is not
// touched here, removing it is the caller's business.
func (s *PostgresStore) DeleteMessage(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM messages WHERE id = $1`

	result, err := s.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("message not found")
	}

	s.announce(ctx)

	return nil
}
