// Package store is the append-only boundary to the durable message
// history. Messages are immutable once inserted; there is no update or
// delete, and no transaction spanning two inserts.
package store

import (
	"context"
	"errors"

	"supportdesk/internal/config"
	"supportdesk/internal/model"
)

// ErrUnavailable indicates a transport or auth failure talking to the
// backend, including a timed-out call.
var ErrUnavailable = errors.New("store: backend unavailable")

// ErrValidationRejected indicates the backend rejected a message with
// missing required fields.
var ErrValidationRejected = errors.New("store: message rejected by validation")

// Store is implemented by MySQLStore and SQLiteStore.
type Store interface {
	// Insert persists msg and returns it with the store-assigned id and
	// timestamp. The total order over messages is the insertion order.
	Insert(ctx context.Context, msg model.Message) (model.Message, error)

	// List returns every message ordered by timestamp ascending (ties
	// broken by id, so equal timestamps keep insertion order).
	List(ctx context.Context) ([]model.Message, error)

	// Ping checks backend reachability.
	Ping(ctx context.Context) error

	// Close releases the underlying connection.
	Close() error
}

// Open selects the backend from config: MariaDB/MySQL when DB_HOST is
// set, SQLite otherwise.
func Open(ctx context.Context, cfg config.Config) (Store, error) {
	if cfg.DBHost != "" {
		return NewMySQLStore(ctx, cfg)
	}
	return NewSQLiteStore(ctx, cfg.SQLitePath)
}
