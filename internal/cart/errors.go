package cart

import (
	pkgerrors "github.com/chowline/chowline-backend/pkg/errors"
)

var (
	// ErrCartNotFound is returned when the referenced cart does not exist.
	ErrCartNotFound = pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
	// ErrItemNotFound is returned when the referenced cart item does not exist.
	ErrItemNotFound = pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	// ErrMixedMerchant rejects adds that would mix two merchants in one cart.
	ErrMixedMerchant = pkgerrors.New(pkgerrors.CodeConflict, "cart already contains items from another merchant")
	// ErrDuplicateItem rejects a second line for the same food with the same extras.
	ErrDuplicateItem = pkgerrors.New(pkgerrors.CodeConflict, "item with identical extras already in cart")
	// ErrVersionConflict signals the optimistic version check lost a race.
	ErrVersionConflict = pkgerrors.New(pkgerrors.CodeConflict, "cart was modified concurrently")
)
