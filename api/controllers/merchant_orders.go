package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/chowline/chowline-backend/api/middleware"
	"github.com/chowline/chowline-backend/api/responses"
	ordersvc "github.com/chowline/chowline-backend/internal/orders"
	"github.com/chowline/chowline-backend/pkg/enums"
	pkgerrors "github.com/chowline/chowline-backend/pkg/errors"
	"github.com/chowline/chowline-backend/pkg/logger"
)

func merchantIDFromContext(r *http.Request) (uuid.UUID, error) {
	raw := middleware.MerchantIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "merchant context missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid merchant id")
	}
	return id, nil
}

// MerchantOrders lists orders placed against the authenticated merchant.
func MerchantOrders(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		merchantID, err := merchantIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, filters, err := listQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orders, next, err := svc.ListForMerchant(r.Context(), merchantID, params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderListResponse(orders, next))
	}
}

func merchantTransition(svc ordersvc.Service, logg *logger.Logger, action enums.OrderAction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if actor.MerchantID == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "merchant context missing"))
			return
		}

		orderID, err := orderIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Transition(r.Context(), orderID, action, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

// MerchantAcceptOrder moves a new order into processing.
func MerchantAcceptOrder(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return merchantTransition(svc, logg, enums.OrderActionAccept)
}

// MerchantRejectOrder declines a new order.
func MerchantRejectOrder(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return merchantTransition(svc, logg, enums.OrderActionReject)
}
