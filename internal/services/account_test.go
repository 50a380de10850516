package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wearhouse/storefront/internal/auth"
	"github.com/wearhouse/storefront/internal/models"
)

func newAccountService(env *testEnv) *AccountService {
	return NewAccountService(env.store, auth.NewTokenManager("test-secret", time.Hour))
}

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	accounts := newAccountService(env)

	user, token, err := accounts.Register(ctx, "alice", "hashed-pw", "alice@example.com")
	require.NoError(t, err)
	require.NotZero(t, user.ID)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.NotEmpty(t, token)

	again, token, err := accounts.Login(ctx, "alice", "hashed-pw")
	require.NoError(t, err)
	assert.Equal(t, user.ID, again.ID)
	assert.NotEmpty(t, token)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	accounts := newAccountService(env)

	_, _, err := accounts.Register(ctx, "alice", "pw1", "")
	require.NoError(t, err)
	_, _, err = accounts.Register(ctx, "alice", "pw2", "")
	require.ErrorIs(t, err, models.ErrValidation)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	accounts := newAccountService(env)

	_, _, err := accounts.Register(ctx, "alice", "hashed-pw", "")
	require.NoError(t, err)

	_, _, err = accounts.Login(ctx, "alice", "wrong")
	require.ErrorIs(t, err, models.ErrUnauthorized)

	_, _, err = accounts.Login(ctx, "nobody", "hashed-pw")
	require.ErrorIs(t, err, models.ErrUnauthorized,
		"unknown user and wrong password are indistinguishable")
}

func TestDeleteAccountCascades(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	accounts := newAccountService(env)

	user, _, err := accounts.Register(ctx, "alice", "hashed-pw", "")
	require.NoError(t, err)
	p := &auth.Principal{UserID: user.ID, Role: user.Role}

	productID := env.product(t, "Wool Coat", 1, "100.00", 10)
	require.NoError(t, env.cart.AddDelta(ctx, p, productID, 1))
	orderID, err := env.orders.Checkout(ctx, p, "")
	require.NoError(t, err)

	require.NoError(t, env.cart.AddDelta(ctx, p, productID, 2))
	require.NoError(t, env.favorites.Add(ctx, p, productID))

	require.NoError(t, accounts.DeleteAccount(ctx, p, user.ID, "hashed-pw"))

	_, err = env.store.UserByID(ctx, user.ID)
	require.ErrorIs(t, err, models.ErrNotFound)

	entries, err := env.store.LoadCart(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)

	favs, err := env.store.ListFavorites(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, favs)

	// Order history survives anonymized.
	orders, err := env.store.ListOrders(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, orders, "orders no longer attributed to the deleted account")

	anonymized, err := env.store.OrderByID(ctx, 0, orderID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), anonymized.Order.UserID)
	require.Len(t, anonymized.Lines, 1)
	assert.Equal(t, "100.00", anonymized.Lines[0].UnitPrice.StringFixed(2))
}

func TestDeleteAccountRequiresPasswordProof(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	accounts := newAccountService(env)

	user, _, err := accounts.Register(ctx, "alice", "hashed-pw", "")
	require.NoError(t, err)
	p := &auth.Principal{UserID: user.ID, Role: user.Role}

	err = accounts.DeleteAccount(ctx, p, user.ID, "stolen-token-no-password")
	require.ErrorIs(t, err, models.ErrValidation)

	_, err = env.store.UserByID(ctx, user.ID)
	require.NoError(t, err, "account survives a failed proof")
}

func TestDeleteAccountForbiddenForOtherUsers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	accounts := newAccountService(env)

	alice, _, err := accounts.Register(ctx, "alice", "pw-a", "")
	require.NoError(t, err)
	bob, _, err := accounts.Register(ctx, "bob", "pw-b", "")
	require.NoError(t, err)

	p := &auth.Principal{UserID: bob.ID, Role: bob.Role}
	err = accounts.DeleteAccount(ctx, p, alice.ID, "pw-b")
	require.ErrorIs(t, err, models.ErrForbidden)
}

func TestAdminDeletesOtherAccount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	accounts := newAccountService(env)

	alice, _, err := accounts.Register(ctx, "alice", "pw-a", "")
	require.NoError(t, err)
	admin := env.admin(t, "root")

	// Admin proves their own password, not the target's.
	require.NoError(t, accounts.DeleteAccount(ctx, admin, alice.ID, "hash-root"))

	_, err = env.store.UserByID(ctx, alice.ID)
	require.ErrorIs(t, err, models.ErrNotFound)
}
