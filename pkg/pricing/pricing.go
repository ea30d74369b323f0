// Package pricing holds the pure money math for carts and orders. Line
// totals are left unrounded; aggregates are summed first and rounded to two
// decimals exactly once per computation so repeated mutations cannot drift.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/chowline/chowline-backend/pkg/db/models"
	pkgerrors "github.com/chowline/chowline-backend/pkg/errors"
)

// ErrInvalidQuantity rejects quantities below one.
var ErrInvalidQuantity = pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")

// LineTotal multiplies unit price by quantity. The product is not rounded;
// rounding happens once at the aggregate.
func LineTotal(unitPrice decimal.Decimal, quantity int) (decimal.Decimal, error) {
	if quantity < 1 {
		return decimal.Zero, ErrInvalidQuantity
	}
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity))), nil
}

// GroupSubtotal sums the line totals of a merchant group's items and rounds
// the result to two decimals.
func GroupSubtotal(items []models.CartItem) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, item := range items {
		line, err := LineTotal(item.UnitPrice, item.Quantity)
		if err != nil {
			return decimal.Zero, err
		}
		sum = sum.Add(line)
	}
	return sum.Round(2), nil
}

// CartTotal sums group subtotals and rounds once.
func CartTotal(groups []models.CartMerchantGroup) decimal.Decimal {
	sum := decimal.Zero
	for _, group := range groups {
		sum = sum.Add(group.Subtotal)
	}
	return sum.Round(2)
}

// TotalItems sums item quantities across all groups.
func TotalItems(groups []models.CartMerchantGroup) int {
	total := 0
	for _, group := range groups {
		for _, item := range group.Items {
			total += item.Quantity
		}
	}
	return total
}
