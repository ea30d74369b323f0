package orders

import (
	pkgerrors "github.com/chowline/chowline-backend/pkg/errors"
)

var (
	// ErrOrderNotFound is returned when no order matches the id or reference.
	ErrOrderNotFound = pkgerrors.New(pkgerrors.CodeNotFound, "order not found")

	// ErrAlreadyInStatus is returned when the action's target status equals
	// the order's current status. Duplicate transitions are errors, not no-ops.
	ErrAlreadyInStatus = pkgerrors.New(pkgerrors.CodeStateConflict, "order already in requested status")

	// ErrInvalidTransition is returned when the action is not allowed from the
	// order's current status.
	ErrInvalidTransition = pkgerrors.New(pkgerrors.CodeStateConflict, "transition not allowed from current status")
)
