package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/wearhouse/storefront/internal/auth"
	"github.com/wearhouse/storefront/internal/metrics"
	"github.com/wearhouse/storefront/internal/models"
	"github.com/wearhouse/storefront/internal/repository"
)

// CartService handles cart-related operations. Every operation requires
// the User role and touches only the caller's own cart; there is no
// cross-user mutation, not even for admins.
type CartService struct {
	store   repository.Store
	metrics *metrics.AppMetrics
	locks   *UserLocks
}

// NewCartService creates a new cart service. metrics may be nil.
func NewCartService(store repository.Store, m *metrics.AppMetrics, locks *UserLocks) *CartService {
	return &CartService{
		store:   store,
		metrics: m,
		locks:   locks,
	}
}

// RunActiveCartGauge periodically records the active carts count until ctx
// is cancelled.
func (s *CartService) RunActiveCartGauge(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			count, err := s.store.CountActiveCarts(ctx)
			if err == nil && s.metrics != nil {
				s.metrics.ActiveCartsCount.Record(ctx, int64(count),
					metric.WithAttributes(s.metrics.WithServiceName(nil)...))
			}
		}
	}
}

// AddDelta adjusts a cart line by delta quantity, creating the line if it
// is absent. The resulting quantity is clamped at a minimum of 0, and 0
// deletes the line.
func (s *CartService) AddDelta(ctx context.Context, p *auth.Principal, productID int64, delta int) error {
	if err := auth.Authorize(p, models.RoleUser); err != nil {
		return err
	}
	defer s.locks.Lock(p.UserID).Unlock()

	// The product must exist whatever the delta; otherwise a non-positive
	// delta would take the delete path and report success for a product
	// that was never there.
	if _, err := s.store.ProductByID(ctx, productID); err != nil {
		return err
	}

	current := 0
	line, err := s.store.CartLine(ctx, p.UserID, productID)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("failed to read cart line: %w", err)
	}
	if err == nil {
		current = line.Quantity
	}

	next := current + delta
	if next < 0 {
		next = 0
	}
	return s.writeQuantity(ctx, p.UserID, productID, next)
}

// SetQuantity sets a cart line to an absolute quantity. 0 deletes the
// line; negative quantities are rejected.
func (s *CartService) SetQuantity(ctx context.Context, p *auth.Principal, productID int64, quantity int) error {
	if err := auth.Authorize(p, models.RoleUser); err != nil {
		return err
	}
	if quantity < 0 {
		return fmt.Errorf("%w: quantity must not be negative", models.ErrValidation)
	}
	defer s.locks.Lock(p.UserID).Unlock()

	return s.writeQuantity(ctx, p.UserID, productID, quantity)
}

// Remove deletes a cart line.
func (s *CartService) Remove(ctx context.Context, p *auth.Principal, productID int64) error {
	if err := auth.Authorize(p, models.RoleUser); err != nil {
		return err
	}
	defer s.locks.Lock(p.UserID).Unlock()

	if err := s.store.DeleteCartLine(ctx, p.UserID, productID); err != nil {
		return err
	}
	s.recordCartGauge(ctx, p.UserID)
	return nil
}

// List returns the caller's cart joined with current product data.
func (s *CartService) List(ctx context.Context, p *auth.Principal) ([]models.CartEntry, error) {
	if err := auth.Authorize(p, models.RoleUser); err != nil {
		return nil, err
	}
	return s.store.LoadCart(ctx, p.UserID)
}

// writeQuantity persists the resolved quantity: zero means deletion, never
// a stored zero-quantity line.
func (s *CartService) writeQuantity(ctx context.Context, userID, productID int64, quantity int) error {
	if quantity == 0 {
		if err := s.store.DeleteCartLine(ctx, userID, productID); err != nil {
			return err
		}
		s.recordCartGauge(ctx, userID)
		return nil
	}

	err := s.store.UpsertCartLine(ctx, &models.CartLine{
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
	})
	if err != nil {
		return err
	}
	s.recordCartGauge(ctx, userID)
	return nil
}

func (s *CartService) recordCartGauge(ctx context.Context, userID int64) {
	if s.metrics == nil {
		return
	}
	entries, err := s.store.LoadCart(ctx, userID)
	if err != nil {
		return
	}
	count := 0
	for _, e := range entries {
		count += e.Quantity
	}
	attrs := s.metrics.WithServiceName([]attribute.KeyValue{
		attribute.Int64("user_id", userID),
	})
	s.metrics.CartItemsCount.Record(ctx, int64(count), metric.WithAttributes(attrs...))
}
