package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/wearhouse/storefront/internal/models"
)

// CreateUser inserts a new account row.
func (s *Store) CreateUser(ctx context.Context, user *models.User) (int64, error) {
	start := time.Now()

	query := "INSERT INTO users (username, password_hash, email, role) VALUES (?, ?, ?, ?)"
	result, err := s.db.ExecContext(ctx, query, user.Username, user.PasswordHash, user.Email, string(user.Role))
	s.record(ctx, "INSERT", "users", query, start, err == nil)
	if err != nil {
		// MySQL error 1062: unique key violation on username
		if strings.Contains(err.Error(), "Duplicate entry") {
			return 0, fmt.Errorf("%w: username %q already taken", models.ErrValidation, user.Username)
		}
		return 0, fmt.Errorf("failed to create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get user ID: %w", err)
	}
	return id, nil
}

// UserByID returns a user by id.
func (s *Store) UserByID(ctx context.Context, id int64) (*models.User, error) {
	start := time.Now()

	query := "SELECT id, username, password_hash, email, role, created_at FROM users WHERE id = ?"
	var user models.User
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID, &user.Username, &user.PasswordHash, &user.Email, &user.Role, &user.CreatedAt,
	)
	s.record(ctx, "SELECT", "users", query, start, err == nil)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: user %d", models.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// UserByUsername returns a user by username.
func (s *Store) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	start := time.Now()

	query := "SELECT id, username, password_hash, email, role, created_at FROM users WHERE username = ?"
	var user models.User
	err := s.db.QueryRowContext(ctx, query, username).Scan(
		&user.ID, &user.Username, &user.PasswordHash, &user.Email, &user.Role, &user.CreatedAt,
	)
	s.record(ctx, "SELECT", "users", query, start, err == nil)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: user %q", models.ErrNotFound, username)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// DeleteUser removes the account, its cart lines and favorites, and clears
// the user reference on retained orders, in one transaction.
func (s *Store) DeleteUser(ctx context.Context, userID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	start := time.Now()
	deleteQuery := "DELETE FROM users WHERE id = ?"
	result, err := tx.ExecContext(ctx, deleteQuery, userID)
	s.record(ctx, "DELETE", "users", deleteQuery, start, err == nil)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: user %d", models.ErrNotFound, userID)
	}

	for _, stmt := range []struct {
		op, table, query string
	}{
		{"DELETE", "cart_items", "DELETE FROM cart_items WHERE user_id = ?"},
		{"DELETE", "favorites", "DELETE FROM favorites WHERE user_id = ?"},
		// Orders are retained as anonymized history.
		{"UPDATE", "orders", "UPDATE orders SET user_id = NULL WHERE user_id = ?"},
	} {
		start = time.Now()
		_, err = tx.ExecContext(ctx, stmt.query, userID)
		s.record(ctx, stmt.op, stmt.table, stmt.query, start, err == nil)
		if err != nil {
			return fmt.Errorf("failed to cascade user deletion: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
