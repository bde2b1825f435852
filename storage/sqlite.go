package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ngviethoang/ai-chatbot/lib/sl"
)

// SQLiteStorage keeps sessions in a local SQLite file, one JSON document per
// session row.
type SQLiteStorage struct {
	db  *sql.DB
	log *slog.Logger
}

func NewSQLiteStorage(path string, log *slog.Logger) (*SQLiteStorage, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	schema := `
		CREATE TABLE IF NOT EXISTS sessions (
			session_id TEXT PRIMARY KEY,
			state TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	log = log.With(sl.Module("sqlite"))
	log.Info("sqlite storage initialized", slog.String("path", path))

	return &SQLiteStorage{db: db, log: log}, nil
}

func (s *SQLiteStorage) GetState(sessionId string) (*State, error) {
	var raw, updatedStr string
	err := s.db.QueryRow(
		`SELECT state, updated_at FROM sessions WHERE session_id = ?`, sessionId,
	).Scan(&raw, &updatedStr)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying session: %w", err)
	}

	var state State
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, fmt.Errorf("decoding session: %w", err)
	}
	state.SessionId = sessionId
	state.UpdatedAt, err = time.Parse(time.RFC3339, updatedStr)
	if err != nil {
		s.log.Warn("parsing updated_at", sl.Session(sessionId), sl.Err(err))
	}
	state.Normalize()
	return &state, nil
}

func (s *SQLiteStorage) SetState(sessionId string, state *State) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO sessions (session_id, state, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at`,
		sessionId, string(raw), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
