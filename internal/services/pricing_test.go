package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wearhouse/storefront/internal/models"
)

func cartEntry(productID, categoryID int64, price string, qty int) models.CartEntry {
	return models.CartEntry{
		CartLine: models.CartLine{ProductID: productID, Quantity: qty},
		Product: models.Product{
			ID:         productID,
			CategoryID: categoryID,
			Price:      decimal.RequireFromString(price),
		},
	}
}

func activePromo(code string, percent int, global bool, categoryID *int64, now time.Time) *models.Promocode {
	return &models.Promocode{
		Code:            code,
		DiscountPercent: percent,
		IsGlobal:        global,
		CategoryID:      categoryID,
		ValidFrom:       now.Add(-time.Hour),
		ValidTo:         now.Add(time.Hour),
	}
}

func TestPriceCartNoPromocode(t *testing.T) {
	entries := []models.CartEntry{
		cartEntry(1, 10, "100.00", 2),
		cartEntry(2, 20, "19.99", 1),
	}

	lines, err := PriceCart(entries, nil, time.Now())
	require.NoError(t, err)
	require.Len(t, lines, 2)
	for _, line := range lines {
		assert.True(t, line.DiscountedUnitPrice.Equal(line.UnitPrice),
			"product %d should be charged full price", line.Product.ID)
	}
}

func TestPriceCartCategoryScoping(t *testing.T) {
	now := time.Now()
	coats := int64(10)
	entries := []models.CartEntry{
		cartEntry(1, coats, "100.00", 2), // Coats
		cartEntry(2, 20, "80.00", 1),     // Shoes
	}

	lines, err := PriceCart(entries, activePromo("WINTER50", 50, false, &coats, now), now)
	require.NoError(t, err)
	require.Len(t, lines, 2)

	assert.Equal(t, "100.00", lines[0].UnitPrice.StringFixed(2))
	assert.Equal(t, "50.00", lines[0].DiscountedUnitPrice.StringFixed(2))
	assert.Equal(t, "80.00", lines[1].UnitPrice.StringFixed(2))
	assert.Equal(t, "80.00", lines[1].DiscountedUnitPrice.StringFixed(2),
		"wrong-category line keeps the unit price")
}

func TestPriceCartGlobalPromocode(t *testing.T) {
	now := time.Now()
	entries := []models.CartEntry{
		cartEntry(1, 10, "100.00", 1),
		cartEntry(2, 20, "50.00", 3),
	}

	lines, err := PriceCart(entries, activePromo("EVERYTHING10", 10, true, nil, now), now)
	require.NoError(t, err)
	assert.Equal(t, "90.00", lines[0].DiscountedUnitPrice.StringFixed(2))
	assert.Equal(t, "45.00", lines[1].DiscountedUnitPrice.StringFixed(2))
}

func TestPriceCartExpiredPromocode(t *testing.T) {
	now := time.Now()
	promo := &models.Promocode{
		Code:            "EXPIRED10",
		DiscountPercent: 10,
		IsGlobal:        true,
		ValidFrom:       now.Add(-48 * time.Hour),
		ValidTo:         now.Add(-24 * time.Hour),
	}

	_, err := PriceCart([]models.CartEntry{cartEntry(1, 10, "100.00", 1)}, promo, now)
	require.ErrorIs(t, err, models.ErrPromocodeExpired)
}

func TestPriceCartNotYetValidPromocode(t *testing.T) {
	now := time.Now()
	promo := &models.Promocode{
		Code:            "SOON20",
		DiscountPercent: 20,
		IsGlobal:        true,
		ValidFrom:       now.Add(24 * time.Hour),
		ValidTo:         now.Add(48 * time.Hour),
	}

	_, err := PriceCart([]models.CartEntry{cartEntry(1, 10, "100.00", 1)}, promo, now)
	require.ErrorIs(t, err, models.ErrPromocodeExpired)
}

func TestPriceCartRoundsHalfToEven(t *testing.T) {
	now := time.Now()
	// 10.05 * 0.50 = 5.025, an exact tie: rounds to the even digit, 5.02
	lines, err := PriceCart(
		[]models.CartEntry{cartEntry(1, 10, "10.05", 1)},
		activePromo("HALF", 50, true, nil, now), now)
	require.NoError(t, err)
	assert.Equal(t, "5.02", lines[0].DiscountedUnitPrice.StringFixed(2))

	// 10.15 * 0.50 = 5.075 ties the other way: up to the even 5.08.
	lines, err = PriceCart(
		[]models.CartEntry{cartEntry(1, 10, "10.15", 1)},
		activePromo("HALF", 50, true, nil, now), now)
	require.NoError(t, err)
	assert.Equal(t, "5.08", lines[0].DiscountedUnitPrice.StringFixed(2))
}

func TestPriceCartDeterministic(t *testing.T) {
	now := time.Now()
	entries := []models.CartEntry{
		cartEntry(1, 10, "19.99", 3),
		cartEntry(2, 10, "7.77", 2),
	}
	promo := activePromo("TEN", 10, true, nil, now)

	first, err := PriceCart(entries, promo, now)
	require.NoError(t, err)
	for i := 0; i < 50; i++ {
		again, err := PriceCart(entries, promo, now)
		require.NoError(t, err)
		require.Len(t, again, len(first))
		for j := range first {
			assert.True(t, first[j].DiscountedUnitPrice.Equal(again[j].DiscountedUnitPrice))
		}
	}
}
