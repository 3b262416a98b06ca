// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite
// ABOUTME: Owns schema creation, pragmas, and shared scan/marshal helpers

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			email         TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			name          TEXT NOT NULL,
			phone         TEXT NOT NULL DEFAULT '',
			created_at    TEXT NOT NULL,
			updated_at    TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);

		CREATE TABLE IF NOT EXISTS games (
			id           TEXT PRIMARY KEY,
			name         TEXT NOT NULL,
			description  TEXT NOT NULL DEFAULT '',
			start_date   TEXT NOT NULL,
			end_date     TEXT NOT NULL,
			field_schema TEXT,
			created_at   TEXT NOT NULL,
			updated_at   TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_games_name ON games(name);

		CREATE TABLE IF NOT EXISTS players (
			id                TEXT PRIMARY KEY,
			user_id           TEXT NOT NULL REFERENCES users(id),
			game_id           TEXT NOT NULL REFERENCES games(id),
			payment_status    TEXT NOT NULL DEFAULT 'unpaid',
			paid_amount_cents INTEGER NOT NULL DEFAULT 0,
			details           TEXT,
			created_at        TEXT NOT NULL,
			updated_at        TEXT NOT NULL,

			UNIQUE(user_id, game_id),
			CHECK (payment_status IN ('unpaid', 'partial', 'paid', 'waived'))
		);

		CREATE INDEX IF NOT EXISTS idx_players_game ON players(game_id);
		CREATE INDEX IF NOT EXISTS idx_players_user ON players(user_id);

		CREATE TABLE IF NOT EXISTS gms (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL REFERENCES users(id),
			game_id    TEXT NOT NULL REFERENCES games(id),
			created_at TEXT NOT NULL,

			UNIQUE(user_id, game_id)
		);

		CREATE INDEX IF NOT EXISTS idx_gms_game ON gms(game_id);
		CREATE INDEX IF NOT EXISTS idx_gms_user ON gms(user_id);

		CREATE TABLE IF NOT EXISTS characters (
			id          TEXT PRIMARY KEY,
			game_id     TEXT NOT NULL REFERENCES games(id),
			player_id   TEXT NOT NULL REFERENCES players(id),
			name        TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_characters_game ON characters(game_id);
		CREATE INDEX IF NOT EXISTS idx_characters_player ON characters(player_id);

		CREATE TABLE IF NOT EXISTS character_groups (
			id             TEXT PRIMARY KEY,
			game_id        TEXT NOT NULL REFERENCES games(id),
			name           TEXT NOT NULL,
			description    TEXT NOT NULL DEFAULT '',
			min_characters INTEGER,
			max_characters INTEGER,
			created_at     TEXT NOT NULL,
			updated_at     TEXT NOT NULL,

			CHECK (min_characters IS NULL OR max_characters IS NULL
				OR min_characters <= max_characters)
		);

		CREATE INDEX IF NOT EXISTS idx_groups_game ON character_groups(game_id);

		CREATE TABLE IF NOT EXISTS plots (
			id          TEXT PRIMARY KEY,
			name        TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);

		-- Association tables are the durable source of truth for
		-- many-to-many relationships. Derived ID arrays are computed
		-- on read by the views layer, never persisted.
		CREATE TABLE IF NOT EXISTS group_members (
			group_id     TEXT NOT NULL REFERENCES character_groups(id),
			character_id TEXT NOT NULL REFERENCES characters(id),
			created_at   TEXT NOT NULL,

			PRIMARY KEY (group_id, character_id)
		);

		CREATE INDEX IF NOT EXISTS idx_group_members_character ON group_members(character_id);

		CREATE TABLE IF NOT EXISTS plot_characters (
			plot_id      TEXT NOT NULL REFERENCES plots(id),
			character_id TEXT NOT NULL REFERENCES characters(id),
			created_at   TEXT NOT NULL,

			PRIMARY KEY (plot_id, character_id)
		);

		CREATE INDEX IF NOT EXISTS idx_plot_characters_character ON plot_characters(character_id);

		CREATE TABLE IF NOT EXISTS plot_groups (
			plot_id    TEXT NOT NULL REFERENCES plots(id),
			group_id   TEXT NOT NULL REFERENCES character_groups(id),
			created_at TEXT NOT NULL,

			PRIMARY KEY (plot_id, group_id)
		);

		CREATE INDEX IF NOT EXISTS idx_plot_groups_group ON plot_groups(group_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the underlying database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// isConstraintViolation checks if the error is a SQLite UNIQUE constraint violation
func isConstraintViolation(err error) bool {
	if err == nil {
		return false
	}
	// Match UNIQUE failures only. A broader "constraint failed" match would
	// also catch CHECK violations and misreport them as duplicates.
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// formatTime renders a timestamp the way every table stores it
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// parseTime parses a stored timestamp
func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

// marshalJSON encodes an optional JSON column. Nil maps become NULL.
func marshalJSON(m map[string]any) (sql.NullString, error) {
	if m == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("marshaling json column: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// unmarshalJSON decodes an optional JSON column. NULL becomes nil.
func unmarshalJSON(ns sql.NullString) (map[string]any, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(ns.String), &m); err != nil {
		return nil, fmt.Errorf("unmarshaling json column: %w", err)
	}
	return m, nil
}

// orderClause builds an ORDER BY clause from list options against a column
// whitelist. Unknown columns fall back to the default so caller input can
// never reach SQL text.
func orderClause(opts ListOptions, def string, allowed ...string) string {
	col := def
	for _, a := range allowed {
		if opts.OrderBy == a {
			col = a
			break
		}
	}
	dir := "ASC"
	if opts.Descending {
		dir = "DESC"
	}
	return fmt.Sprintf("ORDER BY %s %s", col, dir)
}

// limitClause builds LIMIT/OFFSET from list options. Limit <= 0 means no limit.
func limitClause(opts ListOptions) string {
	if opts.Limit <= 0 {
		return ""
	}
	return fmt.Sprintf("LIMIT %d OFFSET %d", opts.Limit, opts.Offset)
}

// countRows runs a COUNT(*) query with the given arguments
func (s *SQLiteStore) countRows(ctx context.Context, query string, args ...any) (int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("counting rows: %w", err)
	}
	return total, nil
}

// rowExists reports whether a row with the given ID exists in the table.
// Table names are always compile-time constants here.
func rowExists(ctx context.Context, q queryer, table, id string) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx, "SELECT 1 FROM "+table+" WHERE id = ?", id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking %s existence: %w", table, err)
	}
	return true, nil
}

// queryer is satisfied by both *sql.DB and *sql.Tx
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}
