// ABOUTME: Player store methods for the SQLite implementation
// ABOUTME: Enforces referenced-game existence and (user, game) uniqueness transactionally

package store

import (
	"context"
	"database/sql"
	"fmt"
)

const playerColumns = "id, user_id, game_id, payment_status, paid_amount_cents, details, created_at, updated_at"

// CreatePlayer inserts a new player after verifying the referenced user and
// game exist. The existence checks and insert share one transaction so a
// dangling reference can never produce a partial write.
// Returns ErrNotFound (wrapped, naming the missing reference) or
// ErrDuplicatePlayer.
func (s *SQLiteStore) CreatePlayer(ctx context.Context, p *Player) error {
	detailsJSON, err := marshalJSON(p.Details)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := requireRow(ctx, tx, "users", p.UserID); err != nil {
		return err
	}
	if err := requireRow(ctx, tx, "games", p.GameID); err != nil {
		return err
	}

	query := `
		INSERT INTO players (id, user_id, game_id, payment_status, paid_amount_cents, details, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = tx.ExecContext(ctx, query,
		p.ID,
		p.UserID,
		p.GameID,
		p.PaymentStatus,
		p.PaidAmountCents,
		detailsJSON,
		formatTime(p.CreatedAt),
		formatTime(p.UpdatedAt),
	)
	if err != nil {
		if isConstraintViolation(err) {
			return ErrDuplicatePlayer
		}
		return fmt.Errorf("inserting player: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing player create: %w", err)
	}

	s.logger.Debug("created player", "id", p.ID, "user", p.UserID, "game", p.GameID)
	return nil
}

// requireRow fails with a wrapped ErrNotFound naming the table when the row is absent
func requireRow(ctx context.Context, q queryer, table, id string) error {
	exists, err := rowExists(ctx, q, table, id)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%s %s: %w", table, id, ErrNotFound)
	}
	return nil
}

// GetPlayer retrieves a player by ID.
// Returns ErrNotFound if the player doesn't exist.
func (s *SQLiteStore) GetPlayer(ctx context.Context, id string) (*Player, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+playerColumns+" FROM players WHERE id = ?", id)
	return scanPlayer(row)
}

// GetPlayerByUserAndGame retrieves the player record a user holds in a game.
// Returns ErrNotFound if the user is not a player of the game.
func (s *SQLiteStore) GetPlayerByUserAndGame(ctx context.Context, userID, gameID string) (*Player, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+playerColumns+" FROM players WHERE user_id = ? AND game_id = ?", userID, gameID)
	return scanPlayer(row)
}

// UpdatePlayer updates a player's payment record and details. UserID and
// GameID are immutable after creation.
// Returns ErrNotFound if the player doesn't exist.
func (s *SQLiteStore) UpdatePlayer(ctx context.Context, p *Player) error {
	detailsJSON, err := marshalJSON(p.Details)
	if err != nil {
		return err
	}

	query := `
		UPDATE players
		SET payment_status = ?, paid_amount_cents = ?, details = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := s.db.ExecContext(ctx, query,
		p.PaymentStatus,
		p.PaidAmountCents,
		detailsJSON,
		formatTime(p.UpdatedAt),
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("updating player: %w", err)
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

// DeletePlayer removes a player together with their characters and those
// characters' group and plot memberships, in one transaction.
func (s *SQLiteStore) DeletePlayer(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	exists, err := rowExists(ctx, tx, "players", id)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}

	if err := deletePlayersWhere(ctx, tx, "id = ?", id); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing player delete: %w", err)
	}

	s.logger.Debug("deleted player", "id", id)
	return nil
}

// deletePlayersWhere removes players matching the condition plus their
// characters and the characters' association rows. Runs inside the caller's
// transaction.
func deletePlayersWhere(ctx context.Context, tx *sql.Tx, cond string, args ...any) error {
	characters := "(SELECT id FROM characters WHERE player_id IN (SELECT id FROM players WHERE " + cond + "))"

	cascade := []string{
		"DELETE FROM group_members WHERE character_id IN " + characters,
		"DELETE FROM plot_characters WHERE character_id IN " + characters,
		"DELETE FROM characters WHERE player_id IN (SELECT id FROM players WHERE " + cond + ")",
		"DELETE FROM players WHERE " + cond,
	}

	for _, q := range cascade {
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("cascading player delete: %w", err)
		}
	}
	return nil
}

// ListPlayers returns players matching the filter plus the total match count.
func (s *SQLiteStore) ListPlayers(ctx context.Context, filter PlayerFilter, opts ListOptions) ([]*Player, int, error) {
	where, args := playerWhere(filter)

	total, err := s.countRows(ctx, "SELECT COUNT(*) FROM players "+where, args...)
	if err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf("SELECT %s FROM players %s %s %s",
		playerColumns, where,
		orderClause(opts, "created_at", "payment_status", "created_at"),
		limitClause(opts))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing players: %w", err)
	}
	defer rows.Close()

	var players []*Player
	for rows.Next() {
		p, err := scanPlayerRows(rows)
		if err != nil {
			return nil, 0, err
		}
		players = append(players, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating players: %w", err)
	}

	return players, total, nil
}

func playerWhere(filter PlayerFilter) (string, []any) {
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
	if len(conds) == 0 {
		return "", nil
	}
	where := "WHERE " + conds[0]
	for _, c := range conds[1:] {
		where += " AND " + c
	}
	return where, args
}

func scanPlayer(row *sql.Row) (*Player, error) {
	var p Player
	var detailsJSON sql.NullString
	var createdAtStr, updatedAtStr string

	err := row.Scan(&p.ID, &p.UserID, &p.GameID, &p.PaymentStatus, &p.PaidAmountCents,
		&detailsJSON, &createdAtStr, &updatedAtStr)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying player: %w", err)
	}

	return finishPlayer(&p, detailsJSON, createdAtStr, updatedAtStr)
}

func scanPlayerRows(rows *sql.Rows) (*Player, error) {
	var p Player
	var detailsJSON sql.NullString
	var createdAtStr, updatedAtStr string

	if err := rows.Scan(&p.ID, &p.UserID, &p.GameID, &p.PaymentStatus, &p.PaidAmountCents,
		&detailsJSON, &createdAtStr, &updatedAtStr); err != nil {
		return nil, fmt.Errorf("scanning player: %w", err)
	}

	return finishPlayer(&p, detailsJSON, createdAtStr, updatedAtStr)
}

func finishPlayer(p *Player, detailsJSON sql.NullString, createdAtStr, updatedAtStr string) (*Player, error) {
	var err error
	p.Details, err = unmarshalJSON(detailsJSON)
	if err != nil {
		return nil, err
	}
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
