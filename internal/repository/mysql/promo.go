package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/wearhouse/storefront/internal/models"
)

// CreatePromocode inserts a promocode row.
func (s *Store) CreatePromocode(ctx context.Context, promo *models.Promocode) (int64, error) {
	start := time.Now()

	query := "INSERT INTO promocodes (code, discount_percent, is_global, category_id, valid_from, valid_to) VALUES (?, ?, ?, ?, ?, ?)"
	result, err := s.db.ExecContext(ctx, query,
		promo.Code, promo.DiscountPercent, promo.IsGlobal,
		promo.CategoryID, promo.ValidFrom, promo.ValidTo,
	)
	s.record(ctx, "INSERT", "promocodes", query, start, err == nil)
	if err != nil {
		if strings.Contains(err.Error(), "Duplicate entry") {
			return 0, fmt.Errorf("%w: promocode %q already exists", models.ErrValidation, promo.Code)
		}
		return 0, fmt.Errorf("failed to create promocode: %w", err)
	}
	return result.LastInsertId()
}

// DeletePromocode removes a promocode. Existing orders are unaffected.
func (s *Store) DeletePromocode(ctx context.Context, promoID int64) error {
	start := time.Now()

	query := "DELETE FROM promocodes WHERE id = ?"
	result, err := s.db.ExecContext(ctx, query, promoID)
	s.record(ctx, "DELETE", "promocodes", query, start, err == nil)
	if err != nil {
		return fmt.Errorf("failed to delete promocode: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: promocode %d", models.ErrNotFound, promoID)
	}
	return nil
}

// PromocodeByCode returns the promocode with the given code.
func (s *Store) PromocodeByCode(ctx context.Context, code string) (*models.Promocode, error) {
	start := time.Now()

	query := "SELECT id, code, discount_percent, is_global, category_id, valid_from, valid_to FROM promocodes WHERE code = ?"
	var p models.Promocode
	var categoryID sql.NullInt64
	err := s.db.QueryRowContext(ctx, query, code).Scan(
		&p.ID, &p.Code, &p.DiscountPercent, &p.IsGlobal,
		&categoryID, &p.ValidFrom, &p.ValidTo,
	)
	s.record(ctx, "SELECT", "promocodes", query, start, err == nil)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: promocode %q", models.ErrNotFound, code)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get promocode: %w", err)
	}
	if categoryID.Valid {
		p.CategoryID = &categoryID.Int64
	}
	return &p, nil
}

// ListPromocodes returns all promocodes.
func (s *Store) ListPromocodes(ctx context.Context) ([]models.Promocode, error) {
	start := time.Now()

	query := "SELECT id, code, discount_percent, is_global, category_id, valid_from, valid_to FROM promocodes ORDER BY id"
	rows, err := s.db.QueryContext(ctx, query)
	s.record(ctx, "SELECT", "promocodes", query, start, err == nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query promocodes: %w", err)
	}
	defer rows.Close()

	var promos []models.Promocode
	for rows.Next() {
		var p models.Promocode
		var categoryID sql.NullInt64
		if err := rows.Scan(
			&p.ID, &p.Code, &p.DiscountPercent, &p.IsGlobal,
			&categoryID, &p.ValidFrom, &p.ValidTo,
		); err != nil {
			return nil, fmt.Errorf("failed to scan promocode: %w", err)
		}
		if categoryID.Valid {
			p.CategoryID = &categoryID.Int64
		}
		promos = append(promos, p)
	}
	return promos, rows.Err()
}
