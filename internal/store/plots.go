// ABOUTME: Plot store methods including character/group linking
// ABOUTME: A plot's game is derived from its links and must never span two games

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const plotColumns = "id, name, description, created_at, updated_at"

// CreatePlot inserts a new plot.
func (s *SQLiteStore) CreatePlot(ctx context.Context, p *Plot) error {
	query := `
		INSERT INTO plots (id, name, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		p.ID,
		p.Name,
		p.Description,
		formatTime(p.CreatedAt),
		formatTime(p.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting plot: %w", err)
	}

	s.logger.Debug("created plot", "id", p.ID, "name", p.Name)
	return nil
}

// GetPlot retrieves a plot by ID.
// Returns ErrNotFound if the plot doesn't exist.
func (s *SQLiteStore) GetPlot(ctx context.Context, id string) (*Plot, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+plotColumns+" FROM plots WHERE id = ?", id)
	return scanPlot(row)
}

// UpdatePlot updates a plot's name and description.
// Returns ErrNotFound if the plot doesn't exist.
func (s *SQLiteStore) UpdatePlot(ctx context.Context, p *Plot) error {
	query := `
		UPDATE plots
		SET name = ?, description = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := s.db.ExecContext(ctx, query,
		p.Name,
		p.Description,
		formatTime(p.UpdatedAt),
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("updating plot: %w", err)
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

// DeletePlot removes a plot and its links in one transaction.
func (s *SQLiteStore) DeletePlot(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	exists, err := rowExists(ctx, tx, "plots", id)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}

	cascade := []string{
		"DELETE FROM plot_characters WHERE plot_id = ?",
		"DELETE FROM plot_groups WHERE plot_id = ?",
		"DELETE FROM plots WHERE id = ?",
	}
	for _, q := range cascade {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return fmt.Errorf("cascading plot delete: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing plot delete: %w", err)
	}

	s.logger.Debug("deleted plot", "id", id)
	return nil
}

// ListPlots returns a page of plots plus the total plot count.
func (s *SQLiteStore) ListPlots(ctx context.Context, opts ListOptions) ([]*Plot, int, error) {
	total, err := s.countRows(ctx, "SELECT COUNT(*) FROM plots")
	if err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf("SELECT %s FROM plots %s %s",
		plotColumns,
		orderClause(opts, "name", "name", "created_at"),
		limitClause(opts))

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("listing plots: %w", err)
	}
	defer rows.Close()

	var plots []*Plot
	for rows.Next() {
		p, err := scanPlotRows(rows)
		if err != nil {
			return nil, 0, err
		}
		plots = append(plots, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating plots: %w", err)
	}

	return plots, total, nil
}

// LinkPlotCharacter links a character into a plot. If the plot already has
// links, the character must belong to the same game; a link that would make
// the plot span two games fails with ErrPlotGameSpan. The span check and the
// insert share one transaction. Idempotent for an existing link.
func (s *SQLiteStore) LinkPlotCharacter(ctx context.Context, plotID, characterID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := requireRow(ctx, tx, "plots", plotID); err != nil {
		return err
	}
	characterGame, err := gameOf(ctx, tx, "characters", characterID)
	if err != nil {
		return err
	}
	if err := requirePlotGame(ctx, tx, plotID, characterGame); err != nil {
		return err
	}

	query := `
		INSERT OR IGNORE INTO plot_characters (plot_id, character_id, created_at)
		VALUES (?, ?, ?)
	`
	if _, err := tx.ExecContext(ctx, query, plotID, characterID, formatTime(time.Now())); err != nil {
		return fmt.Errorf("linking plot character: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing plot link: %w", err)
	}

	s.logger.Debug("linked plot character", "plot", plotID, "character", characterID)
	return nil
}

// UnlinkPlotCharacter removes a character link. Idempotent.
func (s *SQLiteStore) UnlinkPlotCharacter(ctx context.Context, plotID, characterID string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM plot_characters WHERE plot_id = ? AND character_id = ?",
		plotID, characterID)
	if err != nil {
		return fmt.Errorf("unlinking plot character: %w", err)
	}
	return nil
}

// LinkPlotGroup links a character group into a plot under the same
// single-game rule as LinkPlotCharacter.
func (s *SQLiteStore) LinkPlotGroup(ctx context.Context, plotID, groupID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := requireRow(ctx, tx, "plots", plotID); err != nil {
		return err
	}
	groupGame, err := gameOf(ctx, tx, "character_groups", groupID)
	if err != nil {
		return err
	}
	if err := requirePlotGame(ctx, tx, plotID, groupGame); err != nil {
		return err
	}

	query := `
		INSERT OR IGNORE INTO plot_groups (plot_id, group_id, created_at)
		VALUES (?, ?, ?)
	`
	if _, err := tx.ExecContext(ctx, query, plotID, groupID, formatTime(time.Now())); err != nil {
		return fmt.Errorf("linking plot group: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing plot link: %w", err)
	}

	s.logger.Debug("linked plot group", "plot", plotID, "group", groupID)
	return nil
}

// UnlinkPlotGroup removes a group link. Idempotent.
func (s *SQLiteStore) UnlinkPlotGroup(ctx context.Context, plotID, groupID string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM plot_groups WHERE plot_id = ? AND group_id = ?",
		plotID, groupID)
	if err != nil {
		return fmt.Errorf("unlinking plot group: %w", err)
	}
	return nil
}

// requirePlotGame verifies that linking an entity from gameID into the plot
// keeps all the plot's links inside a single game
func requirePlotGame(ctx context.Context, q queryer, plotID, gameID string) error {
	existing, err := plotGameIDs(ctx, q, plotID)
	if err != nil {
		return err
	}
	for _, g := range existing {
		if g != gameID {
			return ErrPlotGameSpan
		}
	}
	return nil
}

// ListPlotCharacters returns the characters linked to a plot.
// Returns ErrNotFound (wrapped) if the plot doesn't exist.
func (s *SQLiteStore) ListPlotCharacters(ctx context.Context, plotID string) ([]*Character, error) {
	if err := requireRow(ctx, s.db, "plots", plotID); err != nil {
		return nil, err
	}

	query := `
		SELECT ` + prefixColumns("c", characterColumns) + `
		FROM characters c
		JOIN plot_characters pc ON pc.character_id = c.id
		WHERE pc.plot_id = ?
		ORDER BY c.name ASC
	`

	rows, err := s.db.QueryContext(ctx, query, plotID)
	if err != nil {
		return nil, fmt.Errorf("listing plot characters: %w", err)
	}
	defer rows.Close()

	return collectCharacters(rows)
}

// ListPlotGroups returns the character groups linked to a plot.
// Returns ErrNotFound (wrapped) if the plot doesn't exist.
func (s *SQLiteStore) ListPlotGroups(ctx context.Context, plotID string) ([]*CharacterGroup, error) {
	if err := requireRow(ctx, s.db, "plots", plotID); err != nil {
		return nil, err
	}

	query := `
		SELECT ` + prefixColumns("g", groupColumns) + `
		FROM character_groups g
		JOIN plot_groups pg ON pg.group_id = g.id
		WHERE pg.plot_id = ?
		ORDER BY g.name ASC
	`

	rows, err := s.db.QueryContext(ctx, query, plotID)
	if err != nil {
		return nil, fmt.Errorf("listing plot groups: %w", err)
	}
	defer rows.Close()

	return collectGroups(rows)
}

// ListPlotsForCharacter returns the plots a character is linked into.
// Returns ErrNotFound (wrapped) if the character doesn't exist.
func (s *SQLiteStore) ListPlotsForCharacter(ctx context.Context, characterID string) ([]*Plot, error) {
	if err := requireRow(ctx, s.db, "characters", characterID); err != nil {
		return nil, err
	}

	query := `
		SELECT ` + prefixColumns("p", plotColumns) + `
		FROM plots p
		JOIN plot_characters pc ON pc.plot_id = p.id
		WHERE pc.character_id = ?
		ORDER BY p.name ASC
	`
	return s.queryPlots(ctx, query, characterID)
}

// ListPlotsForGroup returns the plots a group is linked into.
// Returns ErrNotFound (wrapped) if the group doesn't exist.
func (s *SQLiteStore) ListPlotsForGroup(ctx context.Context, groupID string) ([]*Plot, error) {
	if err := requireRow(ctx, s.db, "character_groups", groupID); err != nil {
		return nil, err
	}

	query := `
		SELECT ` + prefixColumns("p", plotColumns) + `
		FROM plots p
		JOIN plot_groups pg ON pg.plot_id = p.id
		WHERE pg.group_id = ?
		ORDER BY p.name ASC
	`
	return s.queryPlots(ctx, query, groupID)
}

func (s *SQLiteStore) queryPlots(ctx context.Context, query string, args ...any) ([]*Plot, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing plots: %w", err)
	}
	defer rows.Close()

	var plots []*Plot
	for rows.Next() {
		p, err := scanPlotRows(rows)
		if err != nil {
			return nil, err
		}
		plots = append(plots, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating plots: %w", err)
	}
	return plots, nil
}

// PlotGameIDs returns the distinct game IDs reachable from the plot's links.
// Returns ErrNotFound (wrapped) if the plot doesn't exist.
func (s *SQLiteStore) PlotGameIDs(ctx context.Context, plotID string) ([]string, error) {
	if err := requireRow(ctx, s.db, "plots", plotID); err != nil {
		return nil, err
	}
	return plotGameIDs(ctx, s.db, plotID)
}

func plotGameIDs(ctx context.Context, q queryer, plotID string) ([]string, error) {
	query := `
		SELECT DISTINCT c.game_id
		FROM characters c
		JOIN plot_characters pc ON pc.character_id = c.id
		WHERE pc.plot_id = ?
		UNION
		SELECT DISTINCT g.game_id
		FROM character_groups g
		JOIN plot_groups pg ON pg.group_id = g.id
		WHERE pg.plot_id = ?
	`

	rows, err := q.QueryContext(ctx, query, plotID, plotID)
	if err != nil {
		return nil, fmt.Errorf("querying plot games: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning game id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating plot games: %w", err)
	}
	return ids, nil
}

func scanPlot(row *sql.Row) (*Plot, error) {
	var p Plot
	var createdAtStr, updatedAtStr string

	err := row.Scan(&p.ID, &p.Name, &p.Description, &createdAtStr, &updatedAtStr)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying plot: %w", err)
	}

	return finishPlot(&p, createdAtStr, updatedAtStr)
}

func scanPlotRows(rows *sql.Rows) (*Plot, error) {
	var p Plot
	var createdAtStr, updatedAtStr string

	if err := rows.Scan(&p.ID, &p.Name, &p.Description, &createdAtStr, &updatedAtStr); err != nil {
		return nil, fmt.Errorf("scanning plot: %w", err)
	}

	return finishPlot(&p, createdAtStr, updatedAtStr)
}

func finishPlot(p *Plot, createdAtStr, updatedAtStr string) (*Plot, error) {
	var err error
	p.CreatedAt, err = parseTime(createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	p.UpdatedAt, err = parseTime(updatedAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return p, nil
}
