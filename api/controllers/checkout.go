package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/chowline/chowline-backend/api/responses"
	"github.com/chowline/chowline-backend/api/validators"
	checkoutsvc "github.com/chowline/chowline-backend/internal/checkout"
	pkgerrors "github.com/chowline/chowline-backend/pkg/errors"
	"github.com/chowline/chowline-backend/pkg/logger"
	"github.com/chowline/chowline-backend/pkg/types"
)

type checkoutRequest struct {
	CartID      uuid.UUID       `json:"cart_id" validate:"required,uuid4"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	DeliveryFee decimal.Decimal `json:"delivery_fee"`
	ServiceFee  decimal.Decimal `json:"service_fee"`

	DeliveryAddress *types.DeliveryAddress `json:"delivery_address" validate:"required"`
	// PaymentToken belongs to the payment processor; it is never persisted
	// and order creation does not read it.
	PaymentToken string  `json:"payment_token" validate:"required"`
	PromoCode    *string `json:"promo_code,omitempty"`
}

type checkoutResponse struct {
	Orders []orderResponse `json:"orders"`
}

// Checkout submits the caller's cart, fanning each merchant group out into
// its own order.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		userID, err := authenticatedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orders, err := svc.Execute(r.Context(), checkoutsvc.Input{
			CartID:          payload.CartID,
			UserID:          userID,
			ClientSubtotal:  payload.Subtotal,
			DeliveryFee:     payload.DeliveryFee,
			ServiceFee:      payload.ServiceFee,
			DeliveryAddress: payload.DeliveryAddress,
			PromoCode:       payload.PromoCode,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]orderResponse, 0, len(orders))
		for i := range orders {
			out = append(out, newOrderResponse(&orders[i]))
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, checkoutResponse{Orders: out})
	}
}
