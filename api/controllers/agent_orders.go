package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/chowline/chowline-backend/api/responses"
	"github.com/chowline/chowline-backend/api/validators"
	ordersvc "github.com/chowline/chowline-backend/internal/orders"
	"github.com/chowline/chowline-backend/pkg/enums"
	pkgerrors "github.com/chowline/chowline-backend/pkg/errors"
	"github.com/chowline/chowline-backend/pkg/logger"
)

func agentTransition(svc ordersvc.Service, logg *logger.Logger, action enums.OrderAction) http.HandlerFunc {
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

// AgentPickupOrder marks a processing order as picked up.
func AgentPickupOrder(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return agentTransition(svc, logg, enums.OrderActionPickup)
}

// AgentDeliverOrder marks a picked-up order as delivered.
func AgentDeliverOrder(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return agentTransition(svc, logg, enums.OrderActionDeliver)
}

type referenceStatusRequest struct {
	Action string `json:"action" validate:"required"`
}

// AgentOrderStatusByReference applies a pickup or deliver action addressed by
// the order's reference code. Rider tracking integrations never see order ids.
func AgentOrderStatusByReference(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
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

		referenceCode := strings.TrimSpace(chi.URLParam(r, "referenceCode"))
		if referenceCode == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "reference code is required"))
			return
		}

		var payload referenceStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		action, err := enums.ParseOrderAction(payload.Action)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid action"))
			return
		}
		if action != enums.OrderActionPickup && action != enums.OrderActionDeliver {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "action must be pickup or deliver"))
			return
		}

		order, err := svc.TransitionByReference(r.Context(), referenceCode, action, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderResponse(order))
	}
}
