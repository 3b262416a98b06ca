// ABOUTME: Game store methods for the SQLite implementation
// ABOUTME: Game deletion cascades to all dependent entities in one transaction

package store

import (
	"context"
	"database/sql"
	"fmt"
)

const gameColumns = "id, name, description, start_date, end_date, field_schema, created_at, updated_at"

// CreateGame inserts a new game.
func (s *SQLiteStore) CreateGame(ctx context.Context, g *Game) error {
	schemaJSON, err := marshalJSON(g.FieldSchema)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO games (id, name, description, start_date, end_date, field_schema, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.ExecContext(ctx, query,
		g.ID,
		g.Name,
		g.Description,
		formatTime(g.StartDate),
		formatTime(g.EndDate),
		schemaJSON,
		formatTime(g.CreatedAt),
		formatTime(g.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting game: %w", err)
	}

	s.logger.Debug("created game", "id", g.ID, "name", g.Name)
	return nil
}

// CreateGameWithOwner inserts a game and its creator's GM grant in one
// transaction. Nothing can observe the game existing without a GM.
func (s *SQLiteStore) CreateGameWithOwner(ctx context.Context, g *Game, owner *GM) error {
	schemaJSON, err := marshalJSON(g.FieldSchema)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := requireRow(ctx, tx, "users", owner.UserID); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO games (id, name, description, start_date, end_date, field_schema, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.Name, g.Description,
		formatTime(g.StartDate), formatTime(g.EndDate),
		schemaJSON, formatTime(g.CreatedAt), formatTime(g.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting game: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO gms (id, user_id, game_id, created_at)
		VALUES (?, ?, ?, ?)`,
		owner.ID, owner.UserID, g.ID, formatTime(owner.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting owner gm: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing game create: %w", err)
	}

	s.logger.Debug("created game", "id", g.ID, "name", g.Name, "owner", owner.UserID)
	return nil
}

// GetGame retrieves a game by ID.
// Returns ErrNotFound if the game doesn't exist.
func (s *SQLiteStore) GetGame(ctx context.Context, id string) (*Game, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+gameColumns+" FROM games WHERE id = ?", id)
	return scanGame(row)
}

// UpdateGame updates an existing game.
// Returns ErrNotFound if the game doesn't exist.
func (s *SQLiteStore) UpdateGame(ctx context.Context, g *Game) error {
	schemaJSON, err := marshalJSON(g.FieldSchema)
	if err != nil {
		return err
	}

	query := `
		UPDATE games
		SET name = ?, description = ?, start_date = ?, end_date = ?, field_schema = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := s.db.ExecContext(ctx, query,
		g.Name,
		g.Description,
		formatTime(g.StartDate),
		formatTime(g.EndDate),
		schemaJSON,
		formatTime(g.UpdatedAt),
		g.ID,
	)
	if err != nil {
		return fmt.Errorf("updating game: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update result: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteGame removes a game and cascades to its players, GMs, characters,
// character groups, association rows, and any plot whose links all sat in
// this game. A plot can never span games, so every linked plot reachable
// from this game is deleted outright. All-or-nothing.
func (s *SQLiteStore) DeleteGame(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	exists, err := rowExists(ctx, tx, "games", id)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}

	// Capture the plots anchored to this game before their links go away.
	// A plot can never span games, so every plot reachable from this
	// game's characters or groups belongs to it entirely.
	plotIDs, err := anchoredPlotIDs(ctx, tx, id)
	if err != nil {
		return err
	}

	cascade := []string{
		`DELETE FROM plot_characters WHERE character_id IN (SELECT id FROM characters WHERE game_id = ?)`,
		`DELETE FROM plot_groups WHERE group_id IN (SELECT id FROM character_groups WHERE game_id = ?)`,
		`DELETE FROM group_members WHERE group_id IN (SELECT id FROM character_groups WHERE game_id = ?)`,
		`DELETE FROM character_groups WHERE game_id = ?`,
		`DELETE FROM characters WHERE game_id = ?`,
		`DELETE FROM players WHERE game_id = ?`,
		`DELETE FROM gms WHERE game_id = ?`,
		`DELETE FROM games WHERE id = ?`,
	}

	for _, q := range cascade {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return fmt.Errorf("cascading game delete: %w", err)
		}
	}

	for _, plotID := range plotIDs {
		if _, err := tx.ExecContext(ctx, `DELETE FROM plots WHERE id = ?`, plotID); err != nil {
			return fmt.Errorf("deleting anchored plot: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing game delete: %w", err)
	}

	s.logger.Debug("deleted game", "id", id, "plots_cascaded", len(plotIDs))
	return nil
}

// anchoredPlotIDs returns the IDs of plots linked to the game's characters or groups
func anchoredPlotIDs(ctx context.Context, q queryer, gameID string) ([]string, error) {
	query := `
		SELECT DISTINCT plot_id FROM plot_characters
		WHERE character_id IN (SELECT id FROM characters WHERE game_id = ?)
		UNION
		SELECT DISTINCT plot_id FROM plot_groups
		WHERE group_id IN (SELECT id FROM character_groups WHERE game_id = ?)
	`

	rows, err := q.QueryContext(ctx, query, gameID, gameID)
	if err != nil {
		return nil, fmt.Errorf("querying anchored plots: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning plot id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating anchored plots: %w", err)
	}
	return ids, nil
}

// ListGames returns a page of games plus the total game count.
func (s *SQLiteStore) ListGames(ctx context.Context, opts ListOptions) ([]*Game, int, error) {
	total, err := s.countRows(ctx, "SELECT COUNT(*) FROM games")
	if err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf("SELECT %s FROM games %s %s",
		gameColumns,
		orderClause(opts, "start_date", "name", "start_date", "end_date", "created_at"),
		limitClause(opts))

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("listing games: %w", err)
	}
	defer rows.Close()

	var games []*Game
	for rows.Next() {
		g, err := scanGameRows(rows)
		if err != nil {
			return nil, 0, err
		}
		games = append(games, g)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating games: %w", err)
	}

	return games, total, nil
}

func scanGame(row *sql.Row) (*Game, error) {
	var g Game
	var startStr, endStr, createdAtStr, updatedAtStr string
	var schemaJSON sql.NullString

	err := row.Scan(&g.ID, &g.Name, &g.Description, &startStr, &endStr,
		&schemaJSON, &createdAtStr, &updatedAtStr)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying game: %w", err)
	}

	return finishGame(&g, startStr, endStr, schemaJSON, createdAtStr, updatedAtStr)
}

func scanGameRows(rows *sql.Rows) (*Game, error) {
	var g Game
	var startStr, endStr, createdAtStr, updatedAtStr string
	var schemaJSON sql.NullString

	if err := rows.Scan(&g.ID, &g.Name, &g.Description, &startStr, &endStr,
		&schemaJSON, &createdAtStr, &updatedAtStr); err != nil {
		return nil, fmt.Errorf("scanning game: %w", err)
	}

	return finishGame(&g, startStr, endStr, schemaJSON, createdAtStr, updatedAtStr)
}

func finishGame(g *Game, startStr, endStr string, schemaJSON sql.NullString, createdAtStr, updatedAtStr string) (*Game, error) {
	var err error
	g.StartDate, err = parseTime(startStr)
	if err != nil {
		return nil, fmt.Errorf("parsing start_date: %w", err)
	}
	g.EndDate, err = parseTime(endStr)
	if err != nil {
		return nil, fmt.Errorf("parsing end_date: %w", err)
	}
	g.FieldSchema, err = unmarshalJSON(schemaJSON)
	if err != nil {
		return nil, err
	}
	g.CreatedAt, err = parseTime(createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	g.UpdatedAt, err = parseTime(updatedAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return g, nil
}
