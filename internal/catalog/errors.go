package catalog

import (
	pkgerrors "github.com/chowline/chowline-backend/pkg/errors"
)

var (
	// ErrMerchantNotFound is returned when the referenced merchant does not exist.
	ErrMerchantNotFound = pkgerrors.New(pkgerrors.CodeNotFound, "merchant not found")
	// ErrFoodNotFound is returned when the referenced food does not exist.
	ErrFoodNotFound = pkgerrors.New(pkgerrors.CodeNotFound, "food not found")
)
