package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/longkey1/turnchat/internal/chat"
	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS threads (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL DEFAULT '',
	model TEXT NOT NULL DEFAULT '',
	last_message_id TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS messages (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	thread_id TEXT NOT NULL REFERENCES threads(id) ON DELETE CASCADE,
	message_id TEXT NOT NULL DEFAULT '',
	role TEXT NOT NULL,
	content TEXT,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_messages_thread_id ON messages(thread_id, id);
`

// SQLiteStore keeps threads in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path, ensuring that the parent
// directory exists and the schema is in place. ":memory:" opens a private
// in-memory database.
func OpenSQLite(path string) (*SQLiteStore, error) {
	dsn := ":memory:"
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create db directory %s: %w", dir, err)
			}
		}
		dsn = path + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open db at %s: %w", path, err)
	}
	if path == ":memory:" {
		// Every connection would otherwise see its own empty database.
		db.SetMaxOpenConns(1)
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping db at %s: %w", path, err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// List returns the messages of a thread in the order they were recorded.
func (s *SQLiteStore) List(ctx context.Context, threadID string) ([]chat.Message, error) {
	t, err := s.Load(ctx, threadID)
	if err != nil {
		return nil, err
	}
	return t.Messages(), nil
}

// Load reads a thread and its messages.
func (s *SQLiteStore) Load(ctx context.Context, threadID string) (*Thread, error) {
	var (
		t                    Thread
		createdAt, updatedAt int64
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, model, last_message_id, created_at, updated_at FROM threads WHERE id = ?",
		threadID,
	).Scan(&t.ID, &t.Name, &t.Model, &t.LastMessageID, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrThreadNotFound, threadID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load thread %s: %w", threadID, err)
	}
	t.CreatedAt = time.Unix(0, createdAt)
	t.UpdatedAt = time.Unix(0, updatedAt)

	rows, err := s.db.QueryContext(ctx,
		"SELECT message_id, role, content, created_at FROM messages WHERE thread_id = ? ORDER BY id",
		threadID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages of thread %s: %w", threadID, err)
	}
	defer rows.Close()

	t.Records = []Record{}
	for rows.Next() {
		var (
			id, role string
			content  any
			ts       int64
		)
		if err := rows.Scan(&id, &role, &content, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		raw, _ := jsonString(chat.TextContent(content))
		t.Records = append(t.Records, Record{
			ID:        id,
			Role:      chat.Role(role),
			Content:   raw,
			Timestamp: time.Unix(0, ts),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read messages: %w", err)
	}
	return &t, nil
}

// Record appends messages to a thread, creating it when missing.
func (s *SQLiteStore) Record(ctx context.Context, threadID, model string, messages ...chat.Message) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UnixNano()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO threads (id, model, created_at, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET updated_at = excluded.updated_at,
		 model = CASE WHEN excluded.model = '' THEN threads.model ELSE excluded.model END`,
		threadID, model, now, now,
	); err != nil {
		return fmt.Errorf("failed to upsert thread %s: %w", threadID, err)
	}

	for _, m := range messages {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO messages (thread_id, message_id, role, content, created_at) VALUES (?, ?, ?, ?, ?)",
			threadID, m.ID, string(m.Role), m.Content, now,
		); err != nil {
			return fmt.Errorf("failed to insert message: %w", err)
		}
		if m.Role == chat.RoleAssistant && m.ID != "" {
			if _, err := tx.ExecContext(ctx,
				"UPDATE threads SET last_message_id = ? WHERE id = ?", m.ID, threadID,
			); err != nil {
				return fmt.Errorf("failed to update thread %s: %w", threadID, err)
			}
		}
	}

	return tx.Commit()
}

// Threads returns all threads sorted by UpdatedAt (newest first)
func (s *SQLiteStore) Threads(ctx context.Context) ([]Thread, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id FROM threads ORDER BY updated_at DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to list threads: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan thread: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list threads: %w", err)
	}

	threads := make([]Thread, 0, len(ids))
	for _, id := range ids {
		t, err := s.Load(ctx, id)
		if err != nil {
			return nil, err
		}
		threads = append(threads, *t)
	}
	return threads, nil
}

// Rename sets the display name of a thread
func (s *SQLiteStore) Rename(ctx context.Context, threadID, name string) error {
	res, err := s.db.ExecContext(ctx, "UPDATE threads SET name = ? WHERE id = ?", name, threadID)
	if err != nil {
		return fmt.Errorf("failed to rename thread %s: %w", threadID, err)
	}
	return expectOne(res, threadID)
}

// Delete removes a thread and its messages
func (s *SQLiteStore) Delete(ctx context.Context, threadID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM messages WHERE thread_id = ?", threadID); err != nil {
		return fmt.Errorf("failed to delete messages of thread %s: %w", threadID, err)
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM threads WHERE id = ?", threadID)
	if err != nil {
		return fmt.Errorf("failed to delete thread %s: %w", threadID, err)
	}
	if err := expectOne(res, threadID); err != nil {
		return err
	}
	return tx.Commit()
}

// Close closes the underlying database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func expectOne(res sql.Result, threadID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrThreadNotFound, threadID)
	}
	return nil
}

var _ Store = (*SQLiteStore)(nil)
