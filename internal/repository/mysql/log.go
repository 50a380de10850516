package mysql

import (
	"context"
	"fmt"
	"time"

	"github.com/wearhouse/storefront/internal/models"
)

// AppendAdminLog appends one admin action record.
func (s *Store) AppendAdminLog(ctx context.Context, entry *models.AdminLogEntry) error {
	start := time.Now()

	timestamp := entry.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now()
	}
	query := "INSERT INTO admin_logs (user_id, action, timestamp) VALUES (?, ?, ?)"
	_, err := s.db.ExecContext(ctx, query, entry.UserID, entry.Action, timestamp)
	s.record(ctx, "INSERT", "admin_logs", query, start, err == nil)
	if err != nil {
		return fmt.Errorf("failed to append admin log: %w", err)
	}
	return nil
}

// ListAdminLogs returns the action records of one admin.
func (s *Store) ListAdminLogs(ctx context.Context, userID int64) ([]models.AdminLogEntry, error) {
	start := time.Now()

	query := "SELECT log_id, user_id, action, timestamp FROM admin_logs WHERE user_id = ? ORDER BY log_id"
	rows, err := s.db.QueryContext(ctx, query, userID)
	s.record(ctx, "SELECT", "admin_logs", query, start, err == nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query admin logs: %w", err)
	}
	defer rows.Close()

	var entries []models.AdminLogEntry
	for rows.Next() {
		var e models.AdminLogEntry
		if err := rows.Scan(&e.LogID, &e.UserID, &e.Action, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan admin log: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// DeleteAdminLogs clears the action records of one admin.
func (s *Store) DeleteAdminLogs(ctx context.Context, userID int64) error {
	start := time.Now()

	query := "DELETE FROM admin_logs WHERE user_id = ?"
	_, err := s.db.ExecContext(ctx, query, userID)
	s.record(ctx, "DELETE", "admin_logs", query, start, err == nil)
	if err != nil {
		return fmt.Errorf("failed to delete admin logs: %w", err)
	}
	return nil
}
