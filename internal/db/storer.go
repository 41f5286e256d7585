package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rx3lixir/memo/pkg/notify"
)

// To abstract db methods from pgxpool api
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, arguments ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PostgresStore struct {
	db       DBTX
	notifier notify.Notifier
}

// NewPostgresStore creates a store over the given pool. Every successful
// mutation is announced through the notifier so live watchers re-read.
func NewPostgresStore(pool DBTX, notifier notify.Notifier) *PostgresStore {
	return &PostgresStore{
		db:       pool,
		notifier: notifier,
	}
}

type MessageStore interface {
	CreateMessage(ctx context.Context, msg *Message) error
	UpdateMessage(ctx context.Context, msg *Message) error
	GetMessageByID(ctx context.Context, id uuid.UUID) (*Message, error)
	ListMessages(ctx context.Context) ([]*Message, error)
	DeleteMessage(ctx context.Context, id uuid.UUID) error
}

func CreatePostgresPool(parentCtx context.Context, dburl string) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(parentCtx, time.Second*3)
	defer cancel()

	pool, err := pgxpool.New(ctx, dburl)
	if err != nil {
		return nil, err
	}

	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return pool, nil
}
