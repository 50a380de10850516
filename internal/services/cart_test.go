package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wearhouse/storefront/internal/auth"
	"github.com/wearhouse/storefront/internal/models"
)

func TestCartAddDeltaCreatesAndAccumulates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.user(t, "alice")
	productID := env.product(t, "Wool Coat", 1, "100.00", 10)

	require.NoError(t, env.cart.AddDelta(ctx, u, productID, 2))
	require.NoError(t, env.cart.AddDelta(ctx, u, productID, 3))

	entries, err := env.cart.List(ctx, u)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 5, entries[0].Quantity)
	assert.Equal(t, "Wool Coat", entries[0].Product.Name)
}

func TestCartAddDeltaClampsAtZero(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.user(t, "alice")
	productID := env.product(t, "Scarf", 1, "20.00", 10)

	require.NoError(t, env.cart.AddDelta(ctx, u, productID, 2))
	require.NoError(t, env.cart.AddDelta(ctx, u, productID, -5))

	entries, err := env.cart.List(ctx, u)
	require.NoError(t, err)
	assert.Empty(t, entries, "clamped-to-zero line is deleted, not stored")
}

func TestCartSetQuantityZeroDeletes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.user(t, "alice")
	productID := env.product(t, "Scarf", 1, "20.00", 10)

	require.NoError(t, env.cart.SetQuantity(ctx, u, productID, 4))
	require.NoError(t, env.cart.SetQuantity(ctx, u, productID, 0))

	entries, err := env.cart.List(ctx, u)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCartSetQuantityRejectsNegative(t *testing.T) {
	env := newTestEnv(t)
	u := env.user(t, "alice")
	productID := env.product(t, "Scarf", 1, "20.00", 10)

	err := env.cart.SetQuantity(context.Background(), u, productID, -1)
	require.ErrorIs(t, err, models.ErrValidation)
}

func TestCartUnknownProduct(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.user(t, "alice")

	err := env.cart.AddDelta(ctx, u, 999, 1)
	require.ErrorIs(t, err, models.ErrNotFound)

	// Non-positive deltas resolve to the delete path, which must not hide
	// the missing product.
	err = env.cart.AddDelta(ctx, u, 999, -1)
	require.ErrorIs(t, err, models.ErrNotFound)

	err = env.cart.AddDelta(ctx, u, 999, 0)
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestCartRequiresUserRole(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	productID := env.product(t, "Scarf", 1, "20.00", 10)

	err := env.cart.AddDelta(ctx, nil, productID, 1)
	require.ErrorIs(t, err, models.ErrUnauthorized)

	admin := env.admin(t, "root")
	err = env.cart.AddDelta(ctx, admin, productID, 1)
	require.ErrorIs(t, err, models.ErrForbidden,
		"admins have no cart of their own to mutate")

	_, err = env.cart.List(ctx, &auth.Principal{UserID: 1, Role: "auditor"})
	require.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestCartsAreIsolatedPerUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")
	productID := env.product(t, "Boots", 1, "150.00", 10)

	require.NoError(t, env.cart.AddDelta(ctx, alice, productID, 2))

	entries, err := env.cart.List(ctx, bob)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCartRemove(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.user(t, "alice")
	first := env.product(t, "Hat", 1, "25.00", 10)
	second := env.product(t, "Gloves", 1, "15.00", 10)

	require.NoError(t, env.cart.AddDelta(ctx, u, first, 1))
	require.NoError(t, env.cart.AddDelta(ctx, u, second, 1))
	require.NoError(t, env.cart.Remove(ctx, u, first))

	entries, err := env.cart.List(ctx, u)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, second, entries[0].ProductID)
}
