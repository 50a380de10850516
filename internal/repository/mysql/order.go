package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/wearhouse/storefront/internal/models"
)

// PlaceOrder persists the order with its frozen-price lines, decrements
// stock, and clears the user's cart in one transaction. Stock decrements
// carry a quantity guard so concurrent checkouts cannot oversell.
func (s *Store) PlaceOrder(ctx context.Context, order *models.Order, lines []models.OrderLine) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	start := time.Now()
	orderQuery := "INSERT INTO orders (user_id, promo_id, status, created_at) VALUES (?, ?, ?, ?)"
	createdAt := order.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	result, err := tx.ExecContext(ctx, orderQuery, order.UserID, order.PromoID, order.Status, createdAt)
	s.record(ctx, "INSERT", "orders", orderQuery, start, err == nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create order: %w", err)
	}

	orderID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get order ID: %w", err)
	}

	lineQuery := "INSERT INTO order_items (order_id, product_id, quantity, unit_price, discounted_unit_price) VALUES (?, ?, ?, ?, ?)"
	stockQuery := "UPDATE products SET stock_quantity = stock_quantity - ? WHERE id = ? AND stock_quantity >= ?"
	for _, line := range lines {
		start = time.Now()
		_, err = tx.ExecContext(ctx, lineQuery,
			orderID, line.ProductID, line.Quantity, line.UnitPrice, line.DiscountedUnitPrice,
		)
		s.record(ctx, "INSERT", "order_items", lineQuery, start, err == nil)
		if err != nil {
			return 0, fmt.Errorf("failed to create order line: %w", err)
		}

		start = time.Now()
		res, err := tx.ExecContext(ctx, stockQuery, line.Quantity, line.ProductID, line.Quantity)
		s.record(ctx, "UPDATE", "products", stockQuery, start, err == nil)
		if err != nil {
			return 0, fmt.Errorf("failed to decrement stock: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to get rows affected: %w", err)
		}
		if affected == 0 {
			return 0, fmt.Errorf("%w: product %d, %d requested",
				models.ErrInsufficientStock, line.ProductID, line.Quantity)
		}
	}

	start = time.Now()
	clearQuery := "DELETE FROM cart_items WHERE user_id = ?"
	_, err = tx.ExecContext(ctx, clearQuery, order.UserID)
	s.record(ctx, "DELETE", "cart_items", clearQuery, start, err == nil)
	if err != nil {
		return 0, fmt.Errorf("failed to clear cart: %w", err)
	}

	// A failed commit leaves the outcome unknown to the caller: the server
	// may or may not have applied the transaction. Everything before this
	// point rolls back cleanly and keeps its own error class.
	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("%w: commit failed: %v", models.ErrAborted, err)
	}
	return orderID, nil
}

// OrderByID returns one of the caller's orders with its lines.
func (s *Store) OrderByID(ctx context.Context, userID, orderID int64) (*models.OrderDetails, error) {
	start := time.Now()

	query := "SELECT id, user_id, promo_id, status, created_at FROM orders WHERE id = ? AND user_id = ?"
	details, err := s.scanOrder(ctx, s.db.QueryRowContext(ctx, query, orderID, userID))
	s.record(ctx, "SELECT", "orders", query, start, err == nil)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: order %d", models.ErrNotFound, orderID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	details.Lines, err = s.orderLines(ctx, details.Order.ID)
	if err != nil {
		return nil, err
	}
	return details, nil
}

// ListOrders returns all of the user's orders, newest first.
func (s *Store) ListOrders(ctx context.Context, userID int64) ([]models.OrderDetails, error) {
	start := time.Now()

	query := "SELECT id, user_id, promo_id, status, created_at FROM orders WHERE user_id = ? ORDER BY created_at DESC"
	rows, err := s.db.QueryContext(ctx, query, userID)
	s.record(ctx, "SELECT", "orders", query, start, err == nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []models.OrderDetails
	for rows.Next() {
		details, err := s.scanOrder(ctx, rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *details)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range orders {
		orders[i].Lines, err = s.orderLines(ctx, orders[i].Order.ID)
		if err != nil {
			return nil, err
		}
	}
	return orders, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (s *Store) scanOrder(_ context.Context, row rowScanner) (*models.OrderDetails, error) {
	var o models.Order
	var userID, promoID sql.NullInt64
	if err := row.Scan(&o.ID, &userID, &promoID, &o.Status, &o.CreatedAt); err != nil {
		return nil, err
	}
	if userID.Valid {
		o.UserID = userID.Int64
	}
	if promoID.Valid {
		o.PromoID = &promoID.Int64
	}
	return &models.OrderDetails{Order: o}, nil
}

func (s *Store) orderLines(ctx context.Context, orderID int64) ([]models.OrderLine, error) {
	start := time.Now()

	query := "SELECT order_id, product_id, quantity, unit_price, discounted_unit_price FROM order_items WHERE order_id = ? ORDER BY product_id"
	rows, err := s.db.QueryContext(ctx, query, orderID)
	s.record(ctx, "SELECT", "order_items", query, start, err == nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query order lines: %w", err)
	}
	defer rows.Close()

	var lines []models.OrderLine
	for rows.Next() {
		var l models.OrderLine
		if err := rows.Scan(&l.OrderID, &l.ProductID, &l.Quantity, &l.UnitPrice, &l.DiscountedUnitPrice); err != nil {
			return nil, fmt.Errorf("failed to scan order line: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}
