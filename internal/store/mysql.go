package store

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"supportdesk/internal/config"
	"supportdesk/internal/model"
)

// MySQLStore backs the message history with MariaDB/MySQL.
type MySQLStore struct {
	db *sql.DB
}

// NewMySQLStore opens the connection and ensures the messages table exists.
func NewMySQLStore(ctx context.Context, cfg config.Config) (*MySQLStore, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		cfg.DBUser,
		cfg.DBPassword,
		cfg.DBHost,
		cfg.DBPort,
		cfg.DBName,
	)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// 接続テスト
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &MySQLStore{db: db}
	if err := s.initSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to create messages table: %w", err)
	}

	log.Println("✅ Database connection established (mysql)")
	return s, nil
}

func (s *MySQLStore) initSchema(ctx context.Context) error {
	// AUTO_INCREMENT id が挿入順をそのまま表す
	createTableSQL := `
	CREATE TABLE IF NOT EXISTS messages (
		id INT AUTO_INCREMENT PRIMARY KEY,
		sender VARCHAR(255) NOT NULL,
		text TEXT NOT NULL,
		subject VARCHAR(255) NOT NULL DEFAULT '',
		customer_name VARCHAR(255) NOT NULL DEFAULT '',
		customer_id VARCHAR(255) NOT NULL DEFAULT '',
		priority VARCHAR(16) NOT NULL DEFAULT '',
		created_at DATETIME(6) NOT NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;
	`
	_, err := s.db.ExecContext(ctx, createTableSQL)
	return err
}

// Insert persists msg with an AUTO_INCREMENT id and a server-assigned timestamp.
func (s *MySQLStore) Insert(ctx context.Context, msg model.Message) (model.Message, error) {
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
func (s *MySQLStore) List(ctx context.Context) ([]model.Message, error) {
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
func (s *MySQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *MySQLStore) Close() error {
	return s.db.Close()
}
