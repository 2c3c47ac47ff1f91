package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/holmosapien/slattice/internal/cache"
)

const schema = `
	CREATE TABLE IF NOT EXISTS conversations (
		team_id         TEXT NOT NULL,
		conversation_id TEXT NOT NULL,
		conversation_type TEXT,
		name            TEXT,
		last_message    TEXT,
		last_update     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (team_id, conversation_id)
	)
`

// Store implements cache.Freshness on SQLite.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the freshness database at dbPath.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	// SQLite works best with a single connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Lookup returns the freshness record for (team, conversation), or nil when
// the conversation has never been recorded.
func (s *Store) Lookup(ctx context.Context, teamID, conversationID string) (*cache.Record, error) {
	query := `
		SELECT team_id, conversation_id, COALESCE(conversation_type, ''), COALESCE(name, ''), COALESCE(last_message, ''), last_update
		FROM conversations
		WHERE team_id = ? AND conversation_id = ?
	`
	var rec cache.Record
	err := s.db.QueryRowContext(ctx, query, teamID, conversationID).Scan(
		&rec.TeamID,
		&rec.ConversationID,
		&rec.Kind,
		&rec.Name,
		&rec.LastMessage,
		&rec.LastUpdate,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query conversation: %w", err)
	}

	return &rec, nil
}

// Record upserts the freshness state for (team, conversation).
func (s *Store) Record(ctx context.Context, teamID, conversationID, name, kind, lastMessage string) error {
	query := `
		INSERT INTO conversations (team_id, conversation_id, conversation_type, name, last_message, last_update)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (team_id, conversation_id) DO UPDATE SET
			conversation_type = excluded.conversation_type,
			name = excluded.name,
			last_message = excluded.last_message,
			last_update = CURRENT_TIMESTAMP
	`
	if _, err := s.db.ExecContext(ctx, query, teamID, conversationID, kind, name, lastMessage); err != nil {
		return fmt.Errorf("upsert conversation: %w", err)
	}

	return nil
}
