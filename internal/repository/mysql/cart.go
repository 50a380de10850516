package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/wearhouse/storefront/internal/models"
)

// CartLine returns one cart line.
func (s *Store) CartLine(ctx context.Context, userID, productID int64) (*models.CartLine, error) {
	start := time.Now()

	query := "SELECT user_id, product_id, quantity, updated_at FROM cart_items WHERE user_id = ? AND product_id = ?"
	var line models.CartLine
	err := s.db.QueryRowContext(ctx, query, userID, productID).Scan(
		&line.UserID, &line.ProductID, &line.Quantity, &line.UpdatedAt,
	)
	s.record(ctx, "SELECT", "cart_items", query, start, err == nil || err == sql.ErrNoRows)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: cart line (%d, %d)", models.ErrNotFound, userID, productID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cart line: %w", err)
	}
	return &line, nil
}

// UpsertCartLine writes a cart line, replacing the quantity if the pair
// already exists.
func (s *Store) UpsertCartLine(ctx context.Context, line *models.CartLine) error {
	// Product must exist at write time.
	var exists bool
	checkQuery := "SELECT EXISTS(SELECT 1 FROM products WHERE id = ?)"
	if err := s.db.QueryRowContext(ctx, checkQuery, line.ProductID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to verify product: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: product %d", models.ErrNotFound, line.ProductID)
	}

	start := time.Now()
	query := "INSERT INTO cart_items (user_id, product_id, quantity) VALUES (?, ?, ?) ON DUPLICATE KEY UPDATE quantity = VALUES(quantity), updated_at = NOW()"
	_, err := s.db.ExecContext(ctx, query, line.UserID, line.ProductID, line.Quantity)
	s.record(ctx, "INSERT", "cart_items", query, start, err == nil)
	if err != nil {
		return fmt.Errorf("failed to upsert cart line: %w", err)
	}
	return nil
}

// DeleteCartLine removes one cart line if present.
func (s *Store) DeleteCartLine(ctx context.Context, userID, productID int64) error {
	start := time.Now()

	query := "DELETE FROM cart_items WHERE user_id = ? AND product_id = ?"
	_, err := s.db.ExecContext(ctx, query, userID, productID)
	s.record(ctx, "DELETE", "cart_items", query, start, err == nil)
	if err != nil {
		return fmt.Errorf("failed to delete cart line: %w", err)
	}
	return nil
}

// LoadCart returns the user's cart joined with current product rows.
func (s *Store) LoadCart(ctx context.Context, userID int64) ([]models.CartEntry, error) {
	start := time.Now()

	query := `
		SELECT ci.user_id, ci.product_id, ci.quantity, ci.updated_at,
		       p.id, p.name, p.description, p.category_id, p.price, p.stock_quantity, p.image_url, p.created_at, p.updated_at
		FROM cart_items ci
		JOIN products p ON ci.product_id = p.id
		WHERE ci.user_id = ?
		ORDER BY ci.product_id
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	s.record(ctx, "SELECT", "cart_items", query, start, err == nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query cart: %w", err)
	}
	defer rows.Close()

	var entries []models.CartEntry
	for rows.Next() {
		var e models.CartEntry
		if err := rows.Scan(
			&e.UserID, &e.ProductID, &e.Quantity, &e.UpdatedAt,
			&e.Product.ID, &e.Product.Name, &e.Product.Description, &e.Product.CategoryID,
			&e.Product.Price, &e.Product.StockQuantity, &e.Product.ImageURL,
			&e.Product.CreatedAt, &e.Product.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan cart entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CountActiveCarts returns the number of users with at least one cart line.
func (s *Store) CountActiveCarts(ctx context.Context) (int, error) {
	start := time.Now()

	query := "SELECT COUNT(DISTINCT user_id) FROM cart_items"
	var count int
	err := s.db.QueryRowContext(ctx, query).Scan(&count)
	s.record(ctx, "SELECT", "cart_items", query, start, err == nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count active carts: %w", err)
	}
	return count, nil
}
