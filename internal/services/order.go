package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/wearhouse/storefront/internal/auth"
	"github.com/wearhouse/storefront/internal/metrics"
	"github.com/wearhouse/storefront/internal/models"
	"github.com/wearhouse/storefront/internal/repository"
)

// OrderService runs the checkout transaction and serves order history.
type OrderService struct {
	store   repository.Store
	metrics *metrics.AppMetrics
	locks   *UserLocks
}

// NewOrderService creates a new order service. metrics may be nil. locks
// must be the same registry the cart service uses, so a checkout cannot
// race a cart mutation of the same user.
func NewOrderService(store repository.Store, m *metrics.AppMetrics, locks *UserLocks) *OrderService {
	return &OrderService{
		store:   store,
		metrics: m,
		locks:   locks,
	}
}

// Checkout converts the caller's cart into an order.
//
// Validation (role, non-empty cart, stock, promocode resolution and
// validity) happens before any write; a rejection leaves the cart exactly
// as it was and can be retried freely. Persistence is a single atomic
// unit: order, frozen-price lines, stock decrement, and cart clear either
// all happen or none do. The one exception is models.ErrAborted, where the
// commit outcome is unknown; it is logged with the full context and the
// caller must verify the order's existence before retrying.
func (s *OrderService) Checkout(ctx context.Context, p *auth.Principal, promoCode string) (int64, error) {
	if err := auth.Authorize(p, models.RoleUser); err != nil {
		return 0, err
	}
	defer s.locks.Lock(p.UserID).Unlock()

	entries, err := s.store.LoadCart(ctx, p.UserID)
	if err != nil {
		return 0, fmt.Errorf("failed to load cart: %w", err)
	}
	if len(entries) == 0 {
		return 0, s.reject(ctx, models.ErrEmptyCart)
	}

	// Re-read every product so pricing and the stock check see current
	// values, not whatever the cart was created against.
	for i := range entries {
		product, err := s.store.ProductByID(ctx, entries[i].ProductID)
		if err != nil {
			return 0, fmt.Errorf("failed to read product %d: %w", entries[i].ProductID, err)
		}
		entries[i].Product = *product
		if entries[i].Quantity > product.StockQuantity {
			return 0, s.reject(ctx, fmt.Errorf("%w: product %d has %d in stock, %d requested",
				models.ErrInsufficientStock, product.ID, product.StockQuantity, entries[i].Quantity))
		}
	}

	var promo *models.Promocode
	if promoCode != "" {
		promo, err = s.store.PromocodeByCode(ctx, promoCode)
		if errors.Is(err, models.ErrNotFound) {
			return 0, s.reject(ctx, fmt.Errorf("%w: %q", models.ErrInvalidPromocode, promoCode))
		}
		if err != nil {
			return 0, fmt.Errorf("failed to resolve promocode: %w", err)
		}
	}

	priced, err := PriceCart(entries, promo, time.Now())
	if err != nil {
		return 0, s.reject(ctx, err)
	}

	order := &models.Order{
		UserID: p.UserID,
		Status: models.OrderStatusPending,
	}
	if promo != nil {
		order.PromoID = &promo.ID
	}

	lines := make([]models.OrderLine, len(priced))
	total := decimal.Zero
	for i, line := range priced {
		lines[i] = models.OrderLine{
			ProductID:           line.Product.ID,
			Quantity:            line.Quantity,
			UnitPrice:           line.UnitPrice,
			DiscountedUnitPrice: line.DiscountedUnitPrice,
		}
		total = total.Add(line.DiscountedUnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	orderID, err := s.store.PlaceOrder(ctx, order, lines)
	if err != nil {
		if errors.Is(err, models.ErrAborted) {
			// The caller cannot assume the order was not created; keep
			// enough context for manual reconciliation.
			log.Printf("[CHECKOUT] ABORTED user_id=%d promo=%q cart=%+v order_lines=%+v err=%v",
				p.UserID, promoCode, entries, lines, err)
			return 0, err
		}
		if errors.Is(err, models.ErrInsufficientStock) {
			return 0, s.reject(ctx, err)
		}
		return 0, fmt.Errorf("failed to place order: %w", err)
	}

	s.recordCommit(ctx, promo, total)
	log.Printf("[CHECKOUT] Order created: order_id=%d user_id=%d lines=%d total=%s",
		orderID, p.UserID, len(lines), total.StringFixed(2))
	return orderID, nil
}

// Order returns one of the caller's orders with its lines.
func (s *OrderService) Order(ctx context.Context, p *auth.Principal, orderID int64) (*models.OrderDetails, error) {
	if err := auth.Authorize(p, models.RoleUser); err != nil {
		return nil, err
	}
	return s.store.OrderByID(ctx, p.UserID, orderID)
}

// Orders returns the caller's order history.
func (s *OrderService) Orders(ctx context.Context, p *auth.Principal) ([]models.OrderDetails, error) {
	if err := auth.Authorize(p, models.RoleUser); err != nil {
		return nil, err
	}
	return s.store.ListOrders(ctx, p.UserID)
}

// reject counts a rejected checkout by reason and passes the error
// through. Rejections happen before any write.
func (s *OrderService) reject(ctx context.Context, err error) error {
	if s.metrics != nil {
		attrs := s.metrics.WithServiceName([]attribute.KeyValue{
			attribute.String("reason", rejectReason(err)),
		})
		s.metrics.CheckoutsRejected.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
	return err
}

func (s *OrderService) recordCommit(ctx context.Context, promo *models.Promocode, total decimal.Decimal) {
	if s.metrics == nil {
		return
	}
	withPromo := "none"
	if promo != nil {
		withPromo = promo.Code
	}
	attrs := s.metrics.WithServiceName([]attribute.KeyValue{
		attribute.String("order_status", models.OrderStatusPending),
		attribute.String("promocode", withPromo),
	})
	s.metrics.OrdersCreated.Add(ctx, 1, metric.WithAttributes(attrs...))
	s.metrics.RevenueTotal.Add(ctx, total.InexactFloat64(), metric.WithAttributes(attrs...))
	if promo != nil {
		s.metrics.PromoApplied.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, models.ErrEmptyCart):
		return "empty_cart"
	case errors.Is(err, models.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, models.ErrInvalidPromocode):
		return "invalid_promocode"
	case errors.Is(err, models.ErrPromocodeExpired):
		return "promocode_expired"
	default:
		return "other"
	}
}
