package memory

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wearhouse/storefront/internal/models"
)

func seedProduct(t *testing.T, s *Store, price string, stock int) int64 {
	t.Helper()
	id, err := s.CreateProduct(context.Background(), &models.Product{
		Name:          "Product",
		CategoryID:    1,
		Price:         decimal.RequireFromString(price),
		StockQuantity: stock,
	})
	require.NoError(t, err)
	return id
}

func TestPlaceOrderRejectsWithoutWriting(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	productID := seedProduct(t, s, "50.00", 1)

	require.NoError(t, s.UpsertCartLine(ctx, &models.CartLine{
		UserID: 7, ProductID: productID, Quantity: 2,
	}))

	_, err := s.PlaceOrder(ctx, &models.Order{UserID: 7, Status: models.OrderStatusPending},
		[]models.OrderLine{{ProductID: productID, Quantity: 2,
			UnitPrice:           decimal.RequireFromString("50.00"),
			DiscountedUnitPrice: decimal.RequireFromString("50.00")}})
	require.ErrorIs(t, err, models.ErrInsufficientStock)

	// Nothing moved: cart intact, stock intact, no order.
	entries, err := s.LoadCart(ctx, 7)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	p, err := s.ProductByID(ctx, productID)
	require.NoError(t, err)
	assert.Equal(t, 1, p.StockQuantity)

	orders, err := s.ListOrders(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestPlaceOrderCommitsAsOneUnit(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	productID := seedProduct(t, s, "50.00", 3)

	require.NoError(t, s.UpsertCartLine(ctx, &models.CartLine{
		UserID: 7, ProductID: productID, Quantity: 2,
	}))

	orderID, err := s.PlaceOrder(ctx, &models.Order{UserID: 7, Status: models.OrderStatusPending},
		[]models.OrderLine{{ProductID: productID, Quantity: 2,
			UnitPrice:           decimal.RequireFromString("50.00"),
			DiscountedUnitPrice: decimal.RequireFromString("45.00")}})
	require.NoError(t, err)

	entries, err := s.LoadCart(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, entries)

	p, err := s.ProductByID(ctx, productID)
	require.NoError(t, err)
	assert.Equal(t, 1, p.StockQuantity)

	details, err := s.OrderByID(ctx, 7, orderID)
	require.NoError(t, err)
	require.Len(t, details.Lines, 1)
	assert.Equal(t, orderID, details.Lines[0].OrderID)
	assert.Equal(t, "45.00", details.Lines[0].DiscountedUnitPrice.StringFixed(2))
}

func TestCountActiveCarts(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	productID := seedProduct(t, s, "10.00", 100)

	for userID := int64(1); userID <= 3; userID++ {
		require.NoError(t, s.UpsertCartLine(ctx, &models.CartLine{
			UserID: userID, ProductID: productID, Quantity: 1,
		}))
	}
	require.NoError(t, s.DeleteCartLine(ctx, 3, productID))

	count, err := s.CountActiveCarts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestDeleteUserAnonymizesOrders(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	productID := seedProduct(t, s, "10.00", 10)

	userID, err := s.CreateUser(ctx, &models.User{Username: "alice", Role: models.RoleUser})
	require.NoError(t, err)

	orderID, err := s.PlaceOrder(ctx, &models.Order{UserID: userID, Status: models.OrderStatusPending},
		[]models.OrderLine{{ProductID: productID, Quantity: 1,
			UnitPrice:           decimal.RequireFromString("10.00"),
			DiscountedUnitPrice: decimal.RequireFromString("10.00")}})
	require.NoError(t, err)

	require.NoError(t, s.DeleteUser(ctx, userID))

	details, err := s.OrderByID(ctx, 0, orderID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), details.Order.UserID)
	require.Len(t, details.Lines, 1)
}
