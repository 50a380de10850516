package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/wearhouse/storefront/internal/models"
)

// CreateCategory inserts a category.
func (s *Store) CreateCategory(ctx context.Context, category *models.Category) (int64, error) {
	start := time.Now()

	query := "INSERT INTO categories (name) VALUES (?)"
	result, err := s.db.ExecContext(ctx, query, category.Name)
	s.record(ctx, "INSERT", "categories", query, start, err == nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create category: %w", err)
	}
	return result.LastInsertId()
}

// ListCategories returns all categories.
func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	start := time.Now()

	query := "SELECT id, name FROM categories ORDER BY id"
	rows, err := s.db.QueryContext(ctx, query)
	s.record(ctx, "SELECT", "categories", query, start, err == nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// CreateProduct inserts a product row.
func (s *Store) CreateProduct(ctx context.Context, product *models.Product) (int64, error) {
	start := time.Now()

	query := "INSERT INTO products (name, description, category_id, price, stock_quantity, image_url) VALUES (?, ?, ?, ?, ?, ?)"
	result, err := s.db.ExecContext(ctx, query,
		product.Name, product.Description, product.CategoryID,
		product.Price, product.StockQuantity, product.ImageURL,
	)
	s.record(ctx, "INSERT", "products", query, start, err == nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create product: %w", err)
	}
	return result.LastInsertId()
}

// UpdateProduct overwrites a product row.
func (s *Store) UpdateProduct(ctx context.Context, product *models.Product) error {
	start := time.Now()

	query := "UPDATE products SET name = ?, description = ?, category_id = ?, price = ?, stock_quantity = ?, image_url = ?, updated_at = NOW() WHERE id = ?"
	result, err := s.db.ExecContext(ctx, query,
		product.Name, product.Description, product.CategoryID,
		product.Price, product.StockQuantity, product.ImageURL, product.ID,
	)
	s.record(ctx, "UPDATE", "products", query, start, err == nil)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: product %d", models.ErrNotFound, product.ID)
	}
	return nil
}

// DeleteProduct removes the product and cascades to cart lines and
// favorites in one transaction. Order lines keep their frozen history.
func (s *Store) DeleteProduct(ctx context.Context, productID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	start := time.Now()
	deleteQuery := "DELETE FROM products WHERE id = ?"
	result, err := tx.ExecContext(ctx, deleteQuery, productID)
	s.record(ctx, "DELETE", "products", deleteQuery, start, err == nil)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: product %d", models.ErrNotFound, productID)
	}

	for _, stmt := range []struct {
		table, query string
	}{
		{"cart_items", "DELETE FROM cart_items WHERE product_id = ?"},
		{"favorites", "DELETE FROM favorites WHERE product_id = ?"},
	} {
		start = time.Now()
		_, err = tx.ExecContext(ctx, stmt.query, productID)
		s.record(ctx, "DELETE", stmt.table, stmt.query, start, err == nil)
		if err != nil {
			return fmt.Errorf("failed to cascade product deletion: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ProductByID returns the current product row, uncached.
func (s *Store) ProductByID(ctx context.Context, id int64) (*models.Product, error) {
	start := time.Now()

	query := "SELECT id, name, description, category_id, price, stock_quantity, image_url, created_at, updated_at FROM products WHERE id = ?"
	var p models.Product
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.Name, &p.Description, &p.CategoryID,
		&p.Price, &p.StockQuantity, &p.ImageURL, &p.CreatedAt, &p.UpdatedAt,
	)
	s.record(ctx, "SELECT", "products", query, start, err == nil)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: product %d", models.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &p, nil
}

// ListProducts returns all products.
func (s *Store) ListProducts(ctx context.Context) ([]models.Product, error) {
	start := time.Now()

	query := "SELECT id, name, description, category_id, price, stock_quantity, image_url, created_at, updated_at FROM products ORDER BY id"
	rows, err := s.db.QueryContext(ctx, query)
	s.record(ctx, "SELECT", "products", query, start, err == nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		var p models.Product
		if err := rows.Scan(
			&p.ID, &p.Name, &p.Description, &p.CategoryID,
			&p.Price, &p.StockQuantity, &p.ImageURL, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}
