package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/chowline/chowline-backend/api/middleware"
	"github.com/chowline/chowline-backend/api/responses"
	"github.com/chowline/chowline-backend/api/validators"
	ordersvc "github.com/chowline/chowline-backend/internal/orders"
	"github.com/chowline/chowline-backend/pkg/db/models"
	"github.com/chowline/chowline-backend/pkg/enums"
	pkgerrors "github.com/chowline/chowline-backend/pkg/errors"
	"github.com/chowline/chowline-backend/pkg/logger"
	"github.com/chowline/chowline-backend/pkg/pagination"
	"github.com/chowline/chowline-backend/pkg/types"
)

type orderResponse struct {
	ID              uuid.UUID              `json:"id"`
	ReferenceCode   string                 `json:"reference_code"`
	UserID          uuid.UUID              `json:"user_id"`
	MerchantID      uuid.UUID              `json:"merchant_id"`
	Merchant        types.MerchantSnapshot `json:"merchant"`
	Items           types.OrderItems       `json:"items"`
	Subtotal        decimal.Decimal        `json:"subtotal"`
	DeliveryFee     decimal.Decimal        `json:"delivery_fee"`
	ServiceFee      decimal.Decimal        `json:"service_fee"`
	Surcharge       decimal.Decimal        `json:"surcharge"`
	GrandTotal      decimal.Decimal        `json:"grand_total"`
	DeliveryAddress *types.DeliveryAddress `json:"delivery_address,omitempty"`
	PaymentStatus   enums.PaymentStatus    `json:"payment_status"`
	Status          enums.OrderStatus      `json:"status"`
	StatusHistory   types.StatusHistory    `json:"status_history"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
}

type orderListResponse struct {
	Orders []orderResponse `json:"orders"`
	Cursor string          `json:"cursor,omitempty"`
}

func newOrderResponse(order *models.Order) orderResponse {
	if order == nil {
		return orderResponse{}
	}
	return orderResponse{
		ID:              order.ID,
		ReferenceCode:   order.ReferenceCode,
		UserID:          order.UserID,
		MerchantID:      order.MerchantID,
		Merchant:        order.Merchant,
		Items:           order.Items,
		Subtotal:        order.Subtotal,
		DeliveryFee:     order.DeliveryFee,
		ServiceFee:      order.ServiceFee,
		Surcharge:       order.Surcharge,
		GrandTotal:      order.GrandTotal,
		DeliveryAddress: order.DeliveryAddress,
		PaymentStatus:   order.PaymentStatus,
		Status:          order.Status,
		StatusHistory:   order.StatusHistory,
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
	}
}

func newOrderListResponse(orders []models.Order, next *pagination.Cursor) orderListResponse {
	out := make([]orderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, newOrderResponse(&orders[i]))
	}
	resp := orderListResponse{Orders: out}
	if next != nil {
		resp.Cursor = pagination.EncodeCursor(*next)
	}
	return resp
}

func actorFromRequest(r *http.Request) (ordersvc.Actor, error) {
	userID, err := authenticatedUserID(r)
	if err != nil {
		return ordersvc.Actor{}, err
	}
	actor := ordersvc.Actor{
		UserID: userID,
		Role:   enums.Role(middleware.RoleFromContext(r.Context())),
	}
	if raw := middleware.MerchantIDFromContext(r.Context()); raw != "" {
		merchantID, err := uuid.Parse(raw)
		if err != nil {
			return ordersvc.Actor{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid merchant id")
		}
		actor.MerchantID = &merchantID
	}
	return actor, nil
}

func orderIDParam(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "orderId"))
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id")
	}
	return id, nil
}

func listQuery(r *http.Request) (pagination.Params, ordersvc.ListFilters, error) {
	limit, err := validators.ParseQueryInt(r, "limit", 0, 0, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, ordersvc.ListFilters{}, err
	}
	params := pagination.Params{
		Limit:  limit,
		Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
	}

	filters := ordersvc.ListFilters{}
	if statusStr := strings.TrimSpace(r.URL.Query().Get("status")); statusStr != "" {
		status, err := enums.ParseOrderStatus(statusStr)
		if err != nil {
			return params, filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter")
		}
		filters.Status = &status
	}
	return params, filters, nil
}

// ListOrders returns the caller's orders, newest first.
func ListOrders(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		userID, err := authenticatedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, filters, err := listQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orders, next, err := svc.ListForUser(r.Context(), userID, params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderListResponse(orders, next))
	}
}

// OrderDetail returns one of the caller's orders.
func OrderDetail(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		userID, err := authenticatedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := orderIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Get(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if order.UserID != userID {
			responses.WriteError(r.Context(), logg, w, ordersvc.ErrOrderNotFound)
			return
		}
		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

// CancelOrder cancels one of the caller's orders while it is still new.
func CancelOrder(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
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

		order, err := svc.Transition(r.Context(), orderID, enums.OrderActionCancel, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderResponse(order))
	}
}
