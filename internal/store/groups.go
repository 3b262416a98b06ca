// ABOUTME: CharacterGroup store methods plus group membership operations
// ABOUTME: Membership lives in the group_members association table, symmetric by construction

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

const groupColumns = "id, game_id, name, description, min_characters, max_characters, created_at, updated_at"

// CreateGroup inserts a new character group after verifying the game exists.
// Returns ErrNotFound (wrapped) if the game is missing.
func (s *SQLiteStore) CreateGroup(ctx context.Context, g *CharacterGroup) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := requireRow(ctx, tx, "games", g.GameID); err != nil {
		return err
	}

	query := `
		INSERT INTO character_groups (id, game_id, name, description, min_characters, max_characters, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = tx.ExecContext(ctx, query,
		g.ID,
		g.GameID,
		g.Name,
		g.Description,
		nullableInt(g.MinCharacters),
		nullableInt(g.MaxCharacters),
		formatTime(g.CreatedAt),
		formatTime(g.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting group: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing group create: %w", err)
	}

	s.logger.Debug("created group", "id", g.ID, "game", g.GameID, "name", g.Name)
	return nil
}

func nullableInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

// GetGroup retrieves a character group by ID.
// Returns ErrNotFound if the group doesn't exist.
func (s *SQLiteStore) GetGroup(ctx context.Context, id string) (*CharacterGroup, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+groupColumns+" FROM character_groups WHERE id = ?", id)
	return scanGroup(row)
}

// UpdateGroup updates a group's name, description, and bounds.
// Returns ErrNotFound if the group doesn't exist.
func (s *SQLiteStore) UpdateGroup(ctx context.Context, g *CharacterGroup) error {
	query := `
		UPDATE character_groups
		SET name = ?, description = ?, min_characters = ?, max_characters = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := s.db.ExecContext(ctx, query,
		g.Name,
		g.Description,
		nullableInt(g.MinCharacters),
		nullableInt(g.MaxCharacters),
		formatTime(g.UpdatedAt),
		g.ID,
	)
	if err != nil {
		return fmt.Errorf("updating group: %w", err)
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

// DeleteGroup removes a group, its memberships, and its plot links in one
// transaction.
func (s *SQLiteStore) DeleteGroup(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	exists, err := rowExists(ctx, tx, "character_groups", id)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}

	cascade := []string{
		"DELETE FROM group_members WHERE group_id = ?",
		"DELETE FROM plot_groups WHERE group_id = ?",
		"DELETE FROM character_groups WHERE id = ?",
	}
	for _, q := range cascade {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return fmt.Errorf("cascading group delete: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing group delete: %w", err)
	}

	s.logger.Debug("deleted group", "id", id)
	return nil
}

// ListGroups returns groups matching the filter plus the total match count.
func (s *SQLiteStore) ListGroups(ctx context.Context, filter GroupFilter, opts ListOptions) ([]*CharacterGroup, int, error) {
	where := ""
	var args []any
	if filter.GameID != nil {
		where = "WHERE game_id = ?"
		args = append(args, *filter.GameID)
	}

	total, err := s.countRows(ctx, "SELECT COUNT(*) FROM character_groups "+where, args...)
	if err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf("SELECT %s FROM character_groups %s %s %s",
		groupColumns, where,
		orderClause(opts, "name", "name", "created_at"),
		limitClause(opts))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing groups: %w", err)
	}
	defer rows.Close()

	groups, err := collectGroups(rows)
	if err != nil {
		return nil, 0, err
	}
	return groups, total, nil
}

// AddGroupMember adds a character to a group. The character and group must
// belong to the same game. Idempotent - adding an existing member succeeds
// silently.
// Returns ErrNotFound (wrapped) for a missing side or ErrGameMismatch.
func (s *SQLiteStore) AddGroupMember(ctx context.Context, groupID, characterID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	groupGame, err := gameOf(ctx, tx, "character_groups", groupID)
	if err != nil {
		return err
	}
	characterGame, err := gameOf(ctx, tx, "characters", characterID)
	if err != nil {
		return err
	}
	if groupGame != characterGame {
		return ErrGameMismatch
	}

	query := `
		INSERT OR IGNORE INTO group_members (group_id, character_id, created_at)
		VALUES (?, ?, ?)
	`
	if _, err := tx.ExecContext(ctx, query, groupID, characterID, formatTime(time.Now())); err != nil {
		return fmt.Errorf("adding group member: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing member add: %w", err)
	}

	s.logger.Debug("added group member", "group", groupID, "character", characterID)
	return nil
}

// gameOf returns the game_id of a row in a game-scoped table
func gameOf(ctx context.Context, q queryer, table, id string) (string, error) {
	var gameID string
	err := q.QueryRowContext(ctx, "SELECT game_id FROM "+table+" WHERE id = ?", id).Scan(&gameID)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("%s %s: %w", table, id, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("querying %s game: %w", table, err)
	}
	return gameID, nil
}

// RemoveGroupMember removes a character from a group. Idempotent - removing
// a non-member succeeds silently.
func (s *SQLiteStore) RemoveGroupMember(ctx context.Context, groupID, characterID string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM group_members WHERE group_id = ? AND character_id = ?",
		groupID, characterID)
	if err != nil {
		return fmt.Errorf("removing group member: %w", err)
	}

	s.logger.Debug("removed group member", "group", groupID, "character", characterID)
	return nil
}

// ListGroupMembers returns the characters belonging to a group.
// Returns ErrNotFound (wrapped) if the group doesn't exist.
func (s *SQLiteStore) ListGroupMembers(ctx context.Context, groupID string) ([]*Character, error) {
	if err := requireRow(ctx, s.db, "character_groups", groupID); err != nil {
		return nil, err
	}

	query := `
		SELECT ` + prefixColumns("c", characterColumns) + `
		FROM characters c
		JOIN group_members gm ON gm.character_id = c.id
		WHERE gm.group_id = ?
		ORDER BY c.name ASC
	`

	rows, err := s.db.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("listing group members: %w", err)
	}
	defer rows.Close()

	return collectCharacters(rows)
}

// ListGroupsForCharacter returns the groups a character belongs to.
// Returns ErrNotFound (wrapped) if the character doesn't exist.
func (s *SQLiteStore) ListGroupsForCharacter(ctx context.Context, characterID string) ([]*CharacterGroup, error) {
	if err := requireRow(ctx, s.db, "characters", characterID); err != nil {
		return nil, err
	}

	query := `
		SELECT ` + prefixColumns("g", groupColumns) + `
		FROM character_groups g
		JOIN group_members gm ON gm.group_id = g.id
		WHERE gm.character_id = ?
		ORDER BY g.name ASC
	`

	rows, err := s.db.QueryContext(ctx, query, characterID)
	if err != nil {
		return nil, fmt.Errorf("listing character groups: %w", err)
	}
	defer rows.Close()

	return collectGroups(rows)
}

func collectGroups(rows *sql.Rows) ([]*CharacterGroup, error) {
	var groups []*CharacterGroup
	for rows.Next() {
		g, err := scanGroupRows(rows)
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating groups: %w", err)
	}
	return groups, nil
}

func scanGroup(row *sql.Row) (*CharacterGroup, error) {
	var g CharacterGroup
	var minN, maxN sql.NullInt64
	var createdAtStr, updatedAtStr string

	err := row.Scan(&g.ID, &g.GameID, &g.Name, &g.Description, &minN, &maxN,
		&createdAtStr, &updatedAtStr)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying group: %w", err)
	}

	return finishGroup(&g, minN, maxN, createdAtStr, updatedAtStr)
}

func scanGroupRows(rows *sql.Rows) (*CharacterGroup, error) {
	var g CharacterGroup
	var minN, maxN sql.NullInt64
	var createdAtStr, updatedAtStr string

	if err := rows.Scan(&g.ID, &g.GameID, &g.Name, &g.Description, &minN, &maxN,
		&createdAtStr, &updatedAtStr); err != nil {
		return nil, fmt.Errorf("scanning group: %w", err)
	}

	return finishGroup(&g, minN, maxN, createdAtStr, updatedAtStr)
}

func finishGroup(g *CharacterGroup, minN, maxN sql.NullInt64, createdAtStr, updatedAtStr string) (*CharacterGroup, error) {
	if minN.Valid {
		v := int(minN.Int64)
		g.MinCharacters = &v
	}
	if maxN.Valid {
		v := int(maxN.Int64)
		g.MaxCharacters = &v
	}

	var err error
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

// prefixColumns qualifies a comma-separated column list with a table alias
func prefixColumns(alias, columns string) string {
	parts := strings.Split(columns, ", ")
	for i, p := range parts {
		parts[i] = alias + "." + p
	}
	return strings.Join(parts, ", ")
}
