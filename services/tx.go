package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/arenaops/tournament-hub/repositories"
)

// Transactor runs a function inside a database transaction. Repositories
// receive the transaction through their SQLExecutor parameter, so a
// registration insert and its slot-counter update commit or roll back
// together.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error
}

type sqlTransactor struct {
	db *sql.DB
}

func NewSQLTransactor(db *sql.DB) Transactor {
	return &sqlTransactor{db: db}
}

func (t *sqlTransactor) WithinTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Broadcaster pushes events to live subscribers. Implemented by *live.Hub.
type Broadcaster interface {
	BroadcastToRoom(roomID, eventType string, payload interface{})
}
