// ABOUTME: Character store methods for the SQLite implementation
// ABOUTME: A character's owning player must belong to the character's game

package store

import (
	"context"
	"database/sql"
	"fmt"
)

const characterColumns = "id, game_id, player_id, name, description, created_at, updated_at"

// CreateCharacter inserts a new character after verifying the game and player
// exist and that the player belongs to the same game. All checks share the
// insert's transaction.
// Returns ErrNotFound (wrapped) for a dangling reference or ErrGameMismatch.
func (s *SQLiteStore) CreateCharacter(ctx context.Context, c *Character) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := requireRow(ctx, tx, "games", c.GameID); err != nil {
		return err
	}
	if err := requireSameGamePlayer(ctx, tx, c.PlayerID, c.GameID); err != nil {
		return err
	}

	query := `
		INSERT INTO characters (id, game_id, player_id, name, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err = tx.ExecContext(ctx, query,
		c.ID,
		c.GameID,
		c.PlayerID,
		c.Name,
		c.Description,
		formatTime(c.CreatedAt),
		formatTime(c.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting character: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing character create: %w", err)
	}

	s.logger.Debug("created character", "id", c.ID, "game", c.GameID, "player", c.PlayerID)
	return nil
}

// requireSameGamePlayer verifies the player exists and belongs to the game
func requireSameGamePlayer(ctx context.Context, q queryer, playerID, gameID string) error {
	var playerGame string
	err := q.QueryRowContext(ctx,
		"SELECT game_id FROM players WHERE id = ?", playerID).Scan(&playerGame)
	if err == sql.ErrNoRows {
		return fmt.Errorf("players %s: %w", playerID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("checking player game: %w", err)
	}
	if playerGame != gameID {
		return ErrGameMismatch
	}
	return nil
}

// GetCharacter retrieves a character by ID.
// Returns ErrNotFound if the character doesn't exist.
func (s *SQLiteStore) GetCharacter(ctx context.Context, id string) (*Character, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+characterColumns+" FROM characters WHERE id = ?", id)
	return scanCharacter(row)
}

// UpdateCharacter updates a character's name, description, and owning player.
// A changed player must still belong to the character's game; the check and
// the write share one transaction.
func (s *SQLiteStore) UpdateCharacter(ctx context.Context, c *Character) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := requireSameGamePlayer(ctx, tx, c.PlayerID, c.GameID); err != nil {
		return err
	}

	query := `
		UPDATE characters
		SET player_id = ?, name = ?, description = ?, updated_at = ?
		WHERE id = ? AND game_id = ?
	`

	result, err := tx.ExecContext(ctx, query,
		c.PlayerID,
		c.Name,
		c.Description,
		formatTime(c.UpdatedAt),
		c.ID,
		c.GameID,
	)
	if err != nil {
		return fmt.Errorf("updating character: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update result: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing character update: %w", err)
	}
	return nil
}

// DeleteCharacter removes a character and its group and plot memberships in
// one transaction.
func (s *SQLiteStore) DeleteCharacter(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	exists, err := rowExists(ctx, tx, "characters", id)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}

	cascade := []string{
		"DELETE FROM group_members WHERE character_id = ?",
		"DELETE FROM plot_characters WHERE character_id = ?",
		"DELETE FROM characters WHERE id = ?",
	}
	for _, q := range cascade {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return fmt.Errorf("cascading character delete: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing character delete: %w", err)
	}

	s.logger.Debug("deleted character", "id", id)
	return nil
}

// ListCharacters returns characters matching the filter plus the total match count.
func (s *SQLiteStore) ListCharacters(ctx context.Context, filter CharacterFilter, opts ListOptions) ([]*Character, int, error) {
	var conds []string
	var args []any
	if filter.GameID != nil {
		conds = append(conds, "game_id = ?")
		args = append(args, *filter.GameID)
	}
	if filter.PlayerID != nil {
		conds = append(conds, "player_id = ?")
		args = append(args, *filter.PlayerID)
	}
	where := ""
	if len(conds) > 0 {
		where = "WHERE " + conds[0]
		for _, c := range conds[1:] {
			where += " AND " + c
		}
	}

	total, err := s.countRows(ctx, "SELECT COUNT(*) FROM characters "+where, args...)
	if err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf("SELECT %s FROM characters %s %s %s",
		characterColumns, where,
		orderClause(opts, "name", "name", "created_at"),
		limitClause(opts))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing characters: %w", err)
	}
	defer rows.Close()

	characters, err := collectCharacters(rows)
	if err != nil {
		return nil, 0, err
	}
	return characters, total, nil
}

func collectCharacters(rows *sql.Rows) ([]*Character, error) {
	var characters []*Character
	for rows.Next() {
		c, err := scanCharacterRows(rows)
		if err != nil {
			return nil, err
		}
		characters = append(characters, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating characters: %w", err)
	}
	return characters, nil
}

func scanCharacter(row *sql.Row) (*Character, error) {
	var c Character
	var createdAtStr, updatedAtStr string

	err := row.Scan(&c.ID, &c.GameID, &c.PlayerID, &c.Name, &c.Description,
		&createdAtStr, &updatedAtStr)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying character: %w", err)
	}

	return finishCharacter(&c, createdAtStr, updatedAtStr)
}

func scanCharacterRows(rows *sql.Rows) (*Character, error) {
	var c Character
	var createdAtStr, updatedAtStr string

	if err := rows.Scan(&c.ID, &c.GameID, &c.PlayerID, &c.Name, &c.Description,
		&createdAtStr, &updatedAtStr); err != nil {
		return nil, fmt.Errorf("scanning character: %w", err)
	}

	return finishCharacter(&c, createdAtStr, updatedAtStr)
}

func finishCharacter(c *Character, createdAtStr, updatedAtStr string) (*Character, error) {
	var err error
	c.CreatedAt, err = parseTime(createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	c.UpdatedAt, err = parseTime(updatedAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return c, nil
}
