// ABOUTME: User store methods for the SQLite implementation
// ABOUTME: Covers CRUD, email lookup, and filtered listing with totals

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

const userColumns = "id, email, password_hash, name, phone, created_at, updated_at"

// CreateUser inserts a new user.
// Returns ErrDuplicateEmail if the email is already registered.
func (s *SQLiteStore) CreateUser(ctx context.Context, u *User) error {
	query := `
		INSERT INTO users (id, email, password_hash, name, phone, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		u.ID,
		strings.ToLower(u.Email),
		u.PasswordHash,
		u.Name,
		u.Phone,
		formatTime(u.CreatedAt),
		formatTime(u.UpdatedAt),
	)
	if err != nil {
		if isConstraintViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("inserting user: %w", err)
	}

	s.logger.Debug("created user", "id", u.ID, "email", u.Email)
	return nil
}

// GetUser retrieves a user by ID.
// Returns ErrNotFound if the user doesn't exist.
func (s *SQLiteStore) GetUser(ctx context.Context, id string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = ?", id)
	return scanUser(row)
}

// GetUserByEmail retrieves a user by email (case-insensitive).
// Returns ErrNotFound if no user has that email.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email = ?", strings.ToLower(email))
	return scanUser(row)
}

// UpdateUser updates an existing user's mutable fields.
// Returns ErrNotFound if the user doesn't exist, ErrDuplicateEmail if the
// new email collides with another account.
func (s *SQLiteStore) UpdateUser(ctx context.Context, u *User) error {
	query := `
		UPDATE users
		SET email = ?, password_hash = ?, name = ?, phone = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := s.db.ExecContext(ctx, query,
		strings.ToLower(u.Email),
		u.PasswordHash,
		u.Name,
		u.Phone,
		formatTime(u.UpdatedAt),
		u.ID,
	)
	if err != nil {
		if isConstraintViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("updating user: %w", err)
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

// DeleteUser removes a user and their memberships. Player records owned by
// the user cascade to their characters; all inside one transaction.
func (s *SQLiteStore) DeleteUser(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	exists, err := rowExists(ctx, tx, "users", id)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}

	if err := deletePlayersWhere(ctx, tx, "user_id = ?", id); err != nil {
		return err
	}

	cleanup := []string{
		"DELETE FROM gms WHERE user_id = ?",
		"DELETE FROM users WHERE id = ?",
	}
	for _, q := range cleanup {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return fmt.Errorf("deleting user rows: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing user delete: %w", err)
	}

	s.logger.Debug("deleted user", "id", id)
	return nil
}

// ListUsers returns users matching the filter plus the total match count.
func (s *SQLiteStore) ListUsers(ctx context.Context, filter UserFilter, opts ListOptions) ([]*User, int, error) {
	where := ""
	var args []any
	if filter.Email != nil {
		where = "WHERE email = ?"
		args = append(args, strings.ToLower(*filter.Email))
	}

	total, err := s.countRows(ctx, "SELECT COUNT(*) FROM users "+where, args...)
	if err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf("SELECT %s FROM users %s %s %s",
		userColumns, where,
		orderClause(opts, "created_at", "email", "name", "created_at"),
		limitClause(opts))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		u, err := scanUserRows(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating users: %w", err)
	}

	return users, total, nil
}

func scanUser(row *sql.Row) (*User, error) {
	var u User
	var createdAtStr, updatedAtStr string

	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Phone,
		&createdAtStr, &updatedAtStr)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}

	return finishUser(&u, createdAtStr, updatedAtStr)
}

func scanUserRows(rows *sql.Rows) (*User, error) {
	var u User
	var createdAtStr, updatedAtStr string

	if err := rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Phone,
		&createdAtStr, &updatedAtStr); err != nil {
		return nil, fmt.Errorf("scanning user: %w", err)
	}

	return finishUser(&u, createdAtStr, updatedAtStr)
}

func finishUser(u *User, createdAtStr, updatedAtStr string) (*User, error) {
	var err error
	u.CreatedAt, err = parseTime(createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	u.UpdatedAt, err = parseTime(updatedAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return u, nil
}
