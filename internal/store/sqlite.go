package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"retirebot/internal/domain"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements domain.SessionStore using SQLite, so sessions
// and their turns survive a restart.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create database directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}

	// Single connection for SQLite.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &SQLiteStore{db: db, logger: logger}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database migration failed: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id          TEXT PRIMARY KEY,
		turn_count  INTEGER NOT NULL DEFAULT 0,
		last_domain TEXT NOT NULL DEFAULT '',
		created_at  DATETIME NOT NULL,
		updated_at  DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS turns (
		session_id  TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		seq         INTEGER NOT NULL,
		role        TEXT NOT NULL,
		content     TEXT NOT NULL,
		domain      TEXT NOT NULL DEFAULT '',
		created_at  DATETIME NOT NULL,
		PRIMARY KEY (session_id, seq)
	);
	CREATE INDEX IF NOT EXISTS idx_turns_session ON turns(session_id, seq);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) PutSession(ctx context.Context, sess domain.Session) error {
	now := time.Now()
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = now
	}
	if sess.UpdatedAt.IsZero() {
		sess.UpdatedAt = now
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO sessions (id, turn_count, last_domain, created_at, updated_at)
		 VALUES (?, 0, ?, ?, ?)`,
		sess.ID, string(sess.LastDomain), sess.CreatedAt, sess.UpdatedAt,
	)
	return err
}

func (s *SQLiteStore) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	var sess domain.Session
	var lastDomain string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, turn_count, last_domain, created_at, updated_at FROM sessions WHERE id = ?`, id,
	).Scan(&sess.ID, &sess.TurnCount, &lastDomain, &sess.CreatedAt, &sess.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	sess.LastDomain = domain.Domain(lastDomain)
	return &sess, nil
}

// AppendTurn inserts the turn and updates the session metadata in one
// transaction, so a turn is either fully committed or not at all.
func (s *SQLiteStore) AppendTurn(ctx context.Context, sessionID string, t domain.Turn) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE sessions SET turn_count = ?, updated_at = ?,
		 last_domain = CASE WHEN ? != '' THEN ? ELSE last_domain END
		 WHERE id = ?`,
		t.Seq, t.CreatedAt, string(t.Domain), string(t.Domain), sessionID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrSessionNotFound
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO turns (session_id, seq, role, content, domain, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		sessionID, t.Seq, string(t.Role), t.Content, string(t.Domain), t.CreatedAt,
	); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *SQLiteStore) Turns(ctx context.Context, sessionID string, limit int) ([]domain.Turn, error) {
	sess, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, domain.ErrSessionNotFound
	}

	query := `SELECT seq, role, content, domain, created_at FROM turns
	          WHERE session_id = ? ORDER BY seq DESC`
	args := []any{sessionID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var turns []domain.Turn
	for rows.Next() {
		var t domain.Turn
		var role, dom string
		if err := rows.Scan(&t.Seq, &role, &t.Content, &dom, &t.CreatedAt); err != nil {
			return nil, err
		}
		t.Role = domain.Role(role)
		t.Domain = domain.Domain(dom)
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Reverse to oldest-first order.
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

func (s *SQLiteStore) ListSessions(ctx context.Context, limit int) ([]domain.Session, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, turn_count, last_domain, created_at, updated_at FROM sessions
		 ORDER BY updated_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Session
	for rows.Next() {
		var sess domain.Session
		var lastDomain string
		if err := rows.Scan(&sess.ID, &sess.TurnCount, &lastDomain, &sess.CreatedAt, &sess.UpdatedAt); err != nil {
			return nil, err
		}
		sess.LastDomain = domain.Domain(lastDomain)
		out = append(out, sess)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) DeleteSession(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return err
	}
	// Cascade is not guaranteed without foreign_keys pragma; delete explicitly.
	_, err = s.db.ExecContext(ctx, `DELETE FROM turns WHERE session_id = ?`, id)
	return err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
