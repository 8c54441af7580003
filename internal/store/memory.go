package store

import (
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/glebarez/go-sqlite"
)

// MemoryStore persists one append-only table of step outcomes per user
// identity. Appends for the same user are serialized; ordering across
// users is not guaranteed and not needed.
type MemoryStore struct {
	DB *sql.DB

	mu      sync.Mutex
	created map[int64]bool
}

func NewMemoryStore(dbPath string) (*MemoryStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	return &MemoryStore{
		DB:      db,
		created: make(map[int64]bool),
	}, nil
}

// tableName returns the per-user table. User IDs are numeric, so the
// interpolation cannot carry SQL.
func tableName(userID int64) string {
	return fmt.Sprintf("memory%d", userID)
}

// ensureTable creates the user's table on first touch.
func (m *MemoryStore) ensureTable(userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.created[userID] {
		return nil
	}

	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			chat_id INTEGER NOT NULL,
			user_id INTEGER NOT NULL,
			prompt TEXT NOT NULL,
			tool TEXT NOT NULL,
			response TEXT NOT NULL,
			response_code INTEGER NOT NULL,
			timestamp INTEGER DEFAULT (strftime('%%s', 'now'))
		);`, tableName(userID))
	if _, err := m.DB.Exec(query); err != nil {
		return err
	}

	m.created[userID] = true
	return nil
}

// Append writes one step record. The write is committed before Append
// returns; there is no buffering that could lose an entry on crash.
func (m *MemoryStore) Append(e Entry) error {
	if err := m.ensureTable(e.UserID); err != nil {
		return err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (chat_id, user_id, prompt, tool, response, response_code, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)`, tableName(e.UserID))
	_, err := m.DB.Exec(query, e.ChatID, e.UserID, e.Prompt, e.Tool, e.Response, e.ResponseCode, e.Timestamp)
	return err
}

// Recent returns up to limit entries for the user, most recent first.
func (m *MemoryStore) Recent(userID int64, limit int) ([]Entry, error) {
	if err := m.ensureTable(userID); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT id, chat_id, user_id, prompt, tool, response, response_code, timestamp
		FROM %s
		ORDER BY timestamp DESC, id DESC
		LIMIT ?`, tableName(userID))
	rows, err := m.DB.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.ChatID, &e.UserID, &e.Prompt, &e.Tool, &e.Response, &e.ResponseCode, &e.Timestamp); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (m *MemoryStore) Close() error {
	return m.DB.Close()
}
