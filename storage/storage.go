// Package storage persists subscribers and sent-content records in a local SQLite database.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
)

// Store wraps the SQLite database holding the subscriber roster and the
// dedupe ledger of already-sent content hashes.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (creating if necessary) the database at path.
func Open(path string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// NewWithDB wraps an existing database handle. Used by tests with an
// in-memory database.
func NewWithDB(db *sql.DB, logger *slog.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// EnsureSchema creates the tables if they do not exist. Safe to run at
// every startup.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// AddSubscriber inserts an email address, ignoring duplicates.
func (s *Store) AddSubscriber(ctx context.Context, email string) error {
	res, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO users (email) VALUES (?)`, email)
	if err != nil {
		return fmt.Errorf("add subscriber: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		s.logger.Info("New subscriber added", "email", email)
	}
	return nil
}

// Subscribers returns every stored email address, ordered for a stable
// recipient list.
func (s *Store) Subscribers(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT email FROM users ORDER BY email`)
	if err != nil {
		return nil, fmt.Errorf("list subscribers: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			s.logger.Warn("Failed to close subscriber rows", "error", closeErr)
		}
	}()

	var emails []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, fmt.Errorf("scan subscriber: %w", err)
		}
		emails = append(emails, email)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subscribers: %w", err)
	}
	return emails, nil
}

// HasSent reports whether a content hash was already delivered.
func (s *Store) HasSent(ctx context.Context, hash string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM sent_posts WHERE post_hash = ?`, hash).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check sent hash: %w", err)
	}
	return true, nil
}

// MarkSent records a content hash as delivered. Recording the same hash
// twice is a no-op.
func (s *Store) MarkSent(ctx context.Context, hash string) error {
	if _, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO sent_posts (post_hash) VALUES (?)`, hash); err != nil {
		return fmt.Errorf("record sent hash: %w", err)
	}
	s.logger.Debug("Content hash recorded", "hash", hash)
	return nil
}
