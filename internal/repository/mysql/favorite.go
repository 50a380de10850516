package mysql

import (
	"context"
	"fmt"
	"time"

	"github.com/wearhouse/storefront/internal/models"
)

// AddFavorite bookmarks a product for a user. Adding an existing favorite
// is a no-op.
func (s *Store) AddFavorite(ctx context.Context, userID, productID int64) error {
	var exists bool
	checkQuery := "SELECT EXISTS(SELECT 1 FROM products WHERE id = ?)"
	if err := s.db.QueryRowContext(ctx, checkQuery, productID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to verify product: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: product %d", models.ErrNotFound, productID)
	}

	start := time.Now()
	query := "INSERT IGNORE INTO favorites (user_id, product_id) VALUES (?, ?)"
	_, err := s.db.ExecContext(ctx, query, userID, productID)
	s.record(ctx, "INSERT", "favorites", query, start, err == nil)
	if err != nil {
		return fmt.Errorf("failed to add favorite: %w", err)
	}
	return nil
}

// DeleteFavorite removes a bookmark if present.
func (s *Store) DeleteFavorite(ctx context.Context, userID, productID int64) error {
	start := time.Now()

	query := "DELETE FROM favorites WHERE user_id = ? AND product_id = ?"
	_, err := s.db.ExecContext(ctx, query, userID, productID)
	s.record(ctx, "DELETE", "favorites", query, start, err == nil)
	if err != nil {
		return fmt.Errorf("failed to delete favorite: %w", err)
	}
	return nil
}

// ListFavorites returns the favorited products joined with current rows.
func (s *Store) ListFavorites(ctx context.Context, userID int64) ([]models.Product, error) {
	start := time.Now()

	query := `
		SELECT p.id, p.name, p.description, p.category_id, p.price, p.stock_quantity, p.image_url, p.created_at, p.updated_at
		FROM favorites f
		JOIN products p ON f.product_id = p.id
		WHERE f.user_id = ?
		ORDER BY p.id
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	s.record(ctx, "SELECT", "favorites", query, start, err == nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query favorites: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		var p models.Product
		if err := rows.Scan(
			&p.ID, &p.Name, &p.Description, &p.CategoryID,
			&p.Price, &p.StockQuantity, &p.ImageURL, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan favorite: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}
