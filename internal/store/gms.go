// ABOUTME: GM store methods for the SQLite implementation
// ABOUTME: GM rows grant a user administrative rights over one game

package store

import (
	"context"
	"database/sql"
	"fmt"
)

const gmColumns = "id, user_id, game_id, created_at"

// CreateGM grants a user GM rights over a game after verifying both exist.
// Returns ErrNotFound (wrapped) for a dangling reference or ErrDuplicateGM
// if the grant already exists.
func (s *SQLiteStore) CreateGM(ctx context.Context, gm *GM) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := requireRow(ctx, tx, "users", gm.UserID); err != nil {
		return err
	}
	if err := requireRow(ctx, tx, "games", gm.GameID); err != nil {
		return err
	}

	query := `
		INSERT INTO gms (id, user_id, game_id, created_at)
		VALUES (?, ?, ?, ?)
	`

	_, err = tx.ExecContext(ctx, query,
		gm.ID,
		gm.UserID,
		gm.GameID,
		formatTime(gm.CreatedAt),
	)
	if err != nil {
		if isConstraintViolation(err) {
			return ErrDuplicateGM
		}
		return fmt.Errorf("inserting gm: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing gm create: %w", err)
	}

	s.logger.Debug("created gm", "id", gm.ID, "user", gm.UserID, "game", gm.GameID)
	return nil
}

// GetGM retrieves a GM grant by ID.
// Returns ErrNotFound if the grant doesn't exist.
func (s *SQLiteStore) GetGM(ctx context.Context, id string) (*GM, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+gmColumns+" FROM gms WHERE id = ?", id)

	var gm GM
	var createdAtStr string
	err := row.Scan(&gm.ID, &gm.UserID, &gm.GameID, &createdAtStr)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying gm: %w", err)
	}

	gm.CreatedAt, err = parseTime(createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	return &gm, nil
}

// DeleteGM revokes a GM grant.
// Returns ErrNotFound if the grant doesn't exist.
func (s *SQLiteStore) DeleteGM(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM gms WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting gm: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	s.logger.Debug("deleted gm", "id", id)
	return nil
}

// ListGMs returns GM grants matching the filter plus the total match count.
func (s *SQLiteStore) ListGMs(ctx context.Context, filter GMFilter, opts ListOptions) ([]*GM, int, error) {
	var conds []string
	var args []any
	if filter.GameID != nil {
		conds = append(conds, "game_id = ?")
		args = append(args, *filter.GameID)
	}
	if filter.UserID != nil {
		conds = append(conds, "user_id = ?")
		args = append(args, *filter.UserID)
	}
	where := ""
	if len(conds) > 0 {
		where = "WHERE " + conds[0]
		for _, c := range conds[1:] {
			where += " AND " + c
		}
	}

	total, err := s.countRows(ctx, "SELECT COUNT(*) FROM gms "+where, args...)
	if err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf("SELECT %s FROM gms %s %s %s",
		gmColumns, where,
		orderClause(opts, "created_at", "created_at"),
		limitClause(opts))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing gms: %w", err)
	}
	defer rows.Close()

	var gms []*GM
	for rows.Next() {
		var gm GM
		var createdAtStr string
		if err := rows.Scan(&gm.ID, &gm.UserID, &gm.GameID, &createdAtStr); err != nil {
			return nil, 0, fmt.Errorf("scanning gm: %w", err)
		}
		gm.CreatedAt, err = parseTime(createdAtStr)
		if err != nil {
			return nil, 0, fmt.Errorf("parsing created_at: %w", err)
		}
		gms = append(gms, &gm)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating gms: %w", err)
	}

	return gms, total, nil
}

// IsGM reports whether the user holds a GM grant for the game
func (s *SQLiteStore) IsGM(ctx context.Context, userID, gameID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		"SELECT 1 FROM gms WHERE user_id = ? AND game_id = ?", userID, gameID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking gm grant: %w", err)
	}
	return true, nil
}

// IsGMAnywhere reports whether the user holds a GM grant for any game
func (s *SQLiteStore) IsGMAnywhere(ctx context.Context, userID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		"SELECT 1 FROM gms WHERE user_id = ? LIMIT 1", userID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking gm grants: %w", err)
	}
	return true, nil
}
