package services

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wearhouse/storefront/internal/models"
)

// PricedLine is one cart line with its unit price and the price actually
// charged after promocode eligibility.
type PricedLine struct {
	Product             models.Product
	Quantity            int
	UnitPrice           decimal.Decimal
	DiscountedUnitPrice decimal.Decimal
}

var oneHundred = decimal.NewFromInt(100)

// PriceCart computes per-line discounted prices for a cart snapshot.
//
// With no promocode every line is charged its unit price. A promocode
// outside its validity window at now fails with models.ErrPromocodeExpired
// rather than silently charging full price. An in-window promocode
// discounts the lines it applies to (all of them when global, matching
// category only otherwise); non-matching lines keep the unit price.
//
// The computation is pure: the same inputs always produce the same output.
func PriceCart(entries []models.CartEntry, promo *models.Promocode, now time.Time) ([]PricedLine, error) {
	if promo != nil && !promo.ActiveAt(now) {
		return nil, fmt.Errorf("%w: %q is valid %s to %s",
			models.ErrPromocodeExpired, promo.Code,
			promo.ValidFrom.Format(time.RFC3339), promo.ValidTo.Format(time.RFC3339))
	}

	lines := make([]PricedLine, 0, len(entries))
	for _, e := range entries {
		unit := e.Product.Price
		discounted := unit
		if promo != nil && promo.AppliesTo(e.Product.CategoryID) {
			discounted = discountUnitPrice(unit, promo.DiscountPercent)
		}
		lines = append(lines, PricedLine{
			Product:             e.Product,
			Quantity:            e.Quantity,
			UnitPrice:           unit,
			DiscountedUnitPrice: discounted,
		})
	}
	return lines, nil
}

// discountUnitPrice applies unit * (100 - percent) / 100, rounded half to
// even at 2 decimal places.
func discountUnitPrice(unit decimal.Decimal, percent int) decimal.Decimal {
	remaining := oneHundred.Sub(decimal.NewFromInt(int64(percent)))
	return unit.Mul(remaining).Div(oneHundred).RoundBank(2)
}
