package store

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"supportdesk/internal/model"
)

// SQLiteStore backs the message history with a local SQLite file. Used
// in development and tests when no MariaDB host is configured.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if necessary) the database at dbPath
// and ensures the messages table exists.
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		dbPath = "./data/supportdesk.db"
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to create messages table: %w", err)
	}

	log.Println("✅ Database connection established (sqlite)")
	return s, nil
}

func (s *SQLiteStore) initSchema(ctx context.Context) error {
	createTableSQL := `
	CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		sender TEXT NOT NULL,
		text TEXT NOT NULL,
		subject TEXT NOT NULL DEFAULT '',
		customer_name TEXT NOT NULL DEFAULT '',
		customer_id TEXT NOT NULL DEFAULT '',
		priority TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL
	);
	`
	_, err := s.db.ExecContext(ctx, createTableSQL)
	return err
}

// Insert persists msg with an AUTOINCREMENT id and a server-assigned timestamp.
func (s *SQLiteStore) Insert(ctx context.Context, msg model.Message) (model.Message, error) {
	if msg.Sender == "" || msg.Text == "" {
		return model.Message{}, ErrValidationRejected
	}

	msg.CreatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx,
		"INSERT INTO messages (sender, text, subject, customer_name, customer_id, priority, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		msg.Sender, msg.Text, msg.Subject, msg.CustomerName, msg.CustomerID, msg.Priority, msg.CreatedAt)
	if err != nil {
		return model.Message{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	lastInsertID, err := result.LastInsertId()
	if err != nil {
		return model.Message{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	msg.ID = fmt.Sprintf("%d", lastInsertID)
	return msg, nil
}

// List returns all messages ordered by timestamp ascending.
func (s *SQLiteStore) List(ctx context.Context) ([]model.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, sender, text, subject, customer_name, customer_id, priority, created_at FROM messages ORDER BY created_at ASC, id ASC")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer rows.Close()

	var msgList []model.Message
	for rows.Next() {
		var msg model.Message
		if err := rows.Scan(&msg.ID, &msg.Sender, &msg.Text, &msg.Subject,
			&msg.CustomerName, &msg.CustomerID, &msg.Priority, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		msgList = append(msgList, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if msgList == nil {
		msgList = []model.Message{}
	}
	return msgList, nil
}

// Ping checks backend reachability.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
