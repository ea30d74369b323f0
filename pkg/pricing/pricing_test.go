package pricing

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/chowline/chowline-backend/pkg/db/models"
)

func money(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestLineTotal(t *testing.T) {
	total, err := LineTotal(money("10.00"), 2)
	require.NoError(t, err)
	require.True(t, total.Equal(money("20.00")), "got %s", total)
}

func TestLineTotalRejectsZeroAndNegativeQuantity(t *testing.T) {
	for _, qty := range []int{0, -1, -10} {
		_, err := LineTotal(money("10.00"), qty)
		require.Error(t, err)
		require.True(t, errors.Is(err, ErrInvalidQuantity))
	}

	_, err := LineTotal(money("10.00"), 1)
	require.NoError(t, err)
}

func TestGroupSubtotalRoundsOnceAfterSummation(t *testing.T) {
	// Three thirds of a cent per line; rounding per line would give 0.00,
	// summing first gives 0.01.
	items := []models.CartItem{
		{UnitPrice: money("0.0033"), Quantity: 1},
		{UnitPrice: money("0.0033"), Quantity: 1},
		{UnitPrice: money("0.0034"), Quantity: 1},
	}
	subtotal, err := GroupSubtotal(items)
	require.NoError(t, err)
	require.True(t, subtotal.Equal(money("0.01")), "got %s", subtotal)
}

func TestGroupSubtotalPropagatesQuantityError(t *testing.T) {
	items := []models.CartItem{
		{UnitPrice: money("5.00"), Quantity: 2},
		{UnitPrice: money("5.00"), Quantity: 0},
	}
	_, err := GroupSubtotal(items)
	require.True(t, errors.Is(err, ErrInvalidQuantity))
}

func TestCartTotalSumsGroups(t *testing.T) {
	groups := []models.CartMerchantGroup{
		{Subtotal: money("20.00")},
		{Subtotal: money("37.00")},
	}
	require.True(t, CartTotal(groups).Equal(money("57.00")))
	require.True(t, CartTotal(nil).Equal(decimal.Zero))
}

func TestTotalItems(t *testing.T) {
	groups := []models.CartMerchantGroup{
		{Items: []models.CartItem{{Quantity: 2}, {Quantity: 3}}},
	}
	require.Equal(t, 5, TotalItems(groups))
	require.Equal(t, 0, TotalItems(nil))
}
