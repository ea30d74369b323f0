package checkout

import (
	pkgerrors "github.com/chowline/chowline-backend/pkg/errors"
)

var (
	// ErrEmptyCart is returned when checkout is attempted on a cart with no
	// items.
	ErrEmptyCart = pkgerrors.New(pkgerrors.CodeValidation, "cart contains no items")
)
