package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wearhouse/storefront/internal/models"
)

func TestCheckoutWithCategoryPromocode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.user(t, "alice")

	coats := int64(1)
	productID := env.product(t, "Wool Coat", coats, "100.00", 10)
	env.promocode(t, "WINTER50", 50, false, &coats)
	require.NoError(t, env.cart.AddDelta(ctx, u, productID, 2))

	orderID, err := env.orders.Checkout(ctx, u, "WINTER50")
	require.NoError(t, err)

	order, err := env.orders.Order(ctx, u, orderID)
	require.NoError(t, err)
	require.Len(t, order.Lines, 1)
	assert.Equal(t, 2, order.Lines[0].Quantity)
	assert.Equal(t, "100.00", order.Lines[0].UnitPrice.StringFixed(2))
	assert.Equal(t, "50.00", order.Lines[0].DiscountedUnitPrice.StringFixed(2))
	assert.Equal(t, models.OrderStatusPending, order.Order.Status)
	require.NotNil(t, order.Order.PromoID)

	entries, err := env.cart.List(ctx, u)
	require.NoError(t, err)
	assert.Empty(t, entries, "committed checkout clears the cart")
}

func TestCheckoutWrongCategoryCommitsWithoutDiscount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.user(t, "alice")

	shoes := int64(2)
	productID := env.product(t, "Wool Coat", 1, "100.00", 10)
	env.promocode(t, "WINTER50", 50, false, &shoes)
	require.NoError(t, env.cart.AddDelta(ctx, u, productID, 2))

	orderID, err := env.orders.Checkout(ctx, u, "WINTER50")
	require.NoError(t, err)

	order, err := env.orders.Order(ctx, u, orderID)
	require.NoError(t, err)
	require.Len(t, order.Lines, 1)
	assert.Equal(t, "100.00", order.Lines[0].DiscountedUnitPrice.StringFixed(2),
		"wrong-category promocode commits at full price")
}

func TestCheckoutEmptyCart(t *testing.T) {
	env := newTestEnv(t)
	u := env.user(t, "alice")

	_, err := env.orders.Checkout(context.Background(), u, "")
	require.ErrorIs(t, err, models.ErrEmptyCart)
}

func TestCheckoutInsufficientStock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.user(t, "alice")
	productID := env.product(t, "Limited Jacket", 1, "200.00", 1)
	require.NoError(t, env.cart.AddDelta(ctx, u, productID, 2))

	_, err := env.orders.Checkout(ctx, u, "")
	require.ErrorIs(t, err, models.ErrInsufficientStock)

	// Rejection leaves no trace: cart intact, no order, stock untouched.
	entries, err := env.cart.List(ctx, u)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 2, entries[0].Quantity)

	orders, err := env.orders.Orders(ctx, u)
	require.NoError(t, err)
	assert.Empty(t, orders)

	product, err := env.catalog.Product(ctx, productID)
	require.NoError(t, err)
	assert.Equal(t, 1, product.StockQuantity)
}

func TestCheckoutUnknownPromocode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.user(t, "alice")
	productID := env.product(t, "Scarf", 1, "20.00", 10)
	require.NoError(t, env.cart.AddDelta(ctx, u, productID, 1))

	_, err := env.orders.Checkout(ctx, u, "NOSUCHCODE")
	require.ErrorIs(t, err, models.ErrInvalidPromocode)

	entries, err := env.cart.List(ctx, u)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "rejected checkout keeps the cart")
}

func TestCheckoutExpiredPromocode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.user(t, "alice")
	productID := env.product(t, "Scarf", 1, "20.00", 10)
	require.NoError(t, env.cart.AddDelta(ctx, u, productID, 1))

	now := time.Now()
	_, err := env.store.CreatePromocode(ctx, &models.Promocode{
		Code:            "EXPIRED10",
		DiscountPercent: 10,
		IsGlobal:        true,
		ValidFrom:       now.AddDate(-1, 0, 0),
		ValidTo:         now.AddDate(0, -1, 0),
	})
	require.NoError(t, err)

	_, err = env.orders.Checkout(ctx, u, "EXPIRED10")
	require.ErrorIs(t, err, models.ErrPromocodeExpired)

	orders, err := env.orders.Orders(ctx, u)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestCheckoutDecrementsStock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.user(t, "alice")
	productID := env.product(t, "Boots", 1, "150.00", 5)
	require.NoError(t, env.cart.AddDelta(ctx, u, productID, 3))

	_, err := env.orders.Checkout(ctx, u, "")
	require.NoError(t, err)

	product, err := env.catalog.Product(ctx, productID)
	require.NoError(t, err)
	assert.Equal(t, 2, product.StockQuantity)
}

func TestCheckoutFreezesPrices(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.user(t, "alice")
	productID := env.product(t, "Wool Coat", 1, "100.00", 10)
	require.NoError(t, env.cart.AddDelta(ctx, u, productID, 1))

	orderID, err := env.orders.Checkout(ctx, u, "")
	require.NoError(t, err)

	// Reprice the product after the fact; the order line must not move.
	product, err := env.catalog.Product(ctx, productID)
	require.NoError(t, err)
	updated := *product
	updated.Price = decimal.RequireFromString("250.00")
	require.NoError(t, env.store.UpdateProduct(ctx, &updated))

	order, err := env.orders.Order(ctx, u, orderID)
	require.NoError(t, err)
	assert.Equal(t, "100.00", order.Lines[0].UnitPrice.StringFixed(2))
	assert.Equal(t, "100.00", order.Lines[0].DiscountedUnitPrice.StringFixed(2))
}

func TestCheckoutQuantityConservation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.user(t, "alice")
	first := env.product(t, "Hat", 1, "25.00", 10)
	second := env.product(t, "Gloves", 1, "15.00", 10)
	require.NoError(t, env.cart.AddDelta(ctx, u, first, 2))
	require.NoError(t, env.cart.AddDelta(ctx, u, second, 3))

	orderID, err := env.orders.Checkout(ctx, u, "")
	require.NoError(t, err)

	order, err := env.orders.Order(ctx, u, orderID)
	require.NoError(t, err)
	total := 0
	for _, line := range order.Lines {
		total += line.Quantity
	}
	assert.Equal(t, 5, total, "order quantities match the pre-checkout cart")
}

func TestConcurrentCheckoutsProduceOneOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.user(t, "alice")
	productID := env.product(t, "Limited Jacket", 1, "200.00", 2)
	require.NoError(t, env.cart.AddDelta(ctx, u, productID, 2))

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.orders.Checkout(ctx, u, "")
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		}
	}
	assert.Equal(t, 1, succeeded, "exactly one checkout commits")

	orders, err := env.orders.Orders(ctx, u)
	require.NoError(t, err)
	assert.Len(t, orders, 1)

	product, err := env.catalog.Product(ctx, productID)
	require.NoError(t, err)
	assert.Equal(t, 0, product.StockQuantity, "stock decremented exactly once")
}

func TestOrderHistoryIsCallerOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")
	productID := env.product(t, "Hat", 1, "25.00", 10)
	require.NoError(t, env.cart.AddDelta(ctx, alice, productID, 1))

	orderID, err := env.orders.Checkout(ctx, alice, "")
	require.NoError(t, err)

	_, err = env.orders.Order(ctx, bob, orderID)
	require.ErrorIs(t, err, models.ErrNotFound)

	orders, err := env.orders.Orders(ctx, bob)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestCheckoutRequiresUserRole(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.orders.Checkout(ctx, nil, "")
	require.ErrorIs(t, err, models.ErrUnauthorized)

	admin := env.admin(t, "root")
	_, err = env.orders.Checkout(ctx, admin, "")
	require.ErrorIs(t, err, models.ErrForbidden)
}
