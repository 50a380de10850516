package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/wearhouse/storefront/internal/auth"
	"github.com/wearhouse/storefront/internal/models"
	"github.com/wearhouse/storefront/internal/repository/memory"
)

type testEnv struct {
	store     *memory.Store
	locks     *UserLocks
	cart      *CartService
	orders    *OrderService
	catalog   *CatalogService
	favorites *FavoriteService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memory.NewStore()
	locks := NewUserLocks()
	return &testEnv{
		store:     store,
		locks:     locks,
		cart:      NewCartService(store, nil, locks),
		orders:    NewOrderService(store, nil, locks),
		catalog:   NewCatalogService(store),
		favorites: NewFavoriteService(store),
	}
}

func (e *testEnv) user(t *testing.T, username string) *auth.Principal {
	t.Helper()
	id, err := e.store.CreateUser(context.Background(), &models.User{
		Username:     username,
		PasswordHash: "hash-" + username,
		Role:         models.RoleUser,
	})
	require.NoError(t, err)
	return &auth.Principal{UserID: id, Role: models.RoleUser}
}

func (e *testEnv) admin(t *testing.T, username string) *auth.Principal {
	t.Helper()
	id, err := e.store.CreateUser(context.Background(), &models.User{
		Username:     username,
		PasswordHash: "hash-" + username,
		Role:         models.RoleAdmin,
	})
	require.NoError(t, err)
	return &auth.Principal{UserID: id, Role: models.RoleAdmin}
}

func (e *testEnv) product(t *testing.T, name string, categoryID int64, price string, stock int) int64 {
	t.Helper()
	id, err := e.store.CreateProduct(context.Background(), &models.Product{
		Name:          name,
		CategoryID:    categoryID,
		Price:         decimal.RequireFromString(price),
		StockQuantity: stock,
	})
	require.NoError(t, err)
	return id
}

func (e *testEnv) promocode(t *testing.T, code string, percent int, global bool, categoryID *int64) int64 {
	t.Helper()
	now := time.Now()
	id, err := e.store.CreatePromocode(context.Background(), &models.Promocode{
		Code:            code,
		DiscountPercent: percent,
		IsGlobal:        global,
		CategoryID:      categoryID,
		ValidFrom:       now.Add(-time.Hour),
		ValidTo:         now.Add(time.Hour),
	})
	require.NoError(t, err)
	return id
}
