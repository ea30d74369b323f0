package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/chowline/chowline-backend/api/middleware"
	"github.com/chowline/chowline-backend/api/responses"
	"github.com/chowline/chowline-backend/api/validators"
	cartsvc "github.com/chowline/chowline-backend/internal/cart"
	"github.com/chowline/chowline-backend/pkg/db/models"
	pkgerrors "github.com/chowline/chowline-backend/pkg/errors"
	"github.com/chowline/chowline-backend/pkg/logger"
	"github.com/chowline/chowline-backend/pkg/types"
)

const maxCartNoteLength = 500

type addCartItemRequest struct {
	CartID     *uuid.UUID `json:"cart_id,omitempty" validate:"omitempty,uuid4"`
	MerchantID uuid.UUID  `json:"merchant_id" validate:"required,uuid4"`
	FoodID     uuid.UUID  `json:"food_id" validate:"required,uuid4"`
	Quantity   int        `json:"quantity" validate:"required,min=1"`
	Extras     []string   `json:"extras,omitempty"`
}

type updateCartItemRequest struct {
	MerchantID uuid.UUID `json:"merchant_id" validate:"required,uuid4"`
	Quantity   int       `json:"quantity" validate:"required,min=1"`
}

type cartNoteRequest struct {
	Note *string `json:"note"`
}

type cartResponse struct {
	ID         uuid.UUID           `json:"id"`
	UserID     uuid.UUID           `json:"user_id"`
	Note       *string             `json:"note,omitempty"`
	TotalItems int                 `json:"total_items"`
	TotalCost  decimal.Decimal     `json:"total_cost"`
	Groups     []cartGroupResponse `json:"groups"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
}

type cartGroupResponse struct {
	ID       uuid.UUID              `json:"id"`
	Merchant types.MerchantSnapshot `json:"merchant"`
	Subtotal decimal.Decimal        `json:"subtotal"`
	Items    []cartLineResponse     `json:"items"`
}

type cartLineResponse struct {
	ID        uuid.UUID       `json:"id"`
	FoodID    uuid.UUID       `json:"food_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	Extras    []string        `json:"extras,omitempty"`
	LineTotal decimal.Decimal `json:"line_total"`
}

func newCartResponse(cart *models.Cart) cartResponse {
	if cart == nil {
		return cartResponse{}
	}
	groups := make([]cartGroupResponse, 0, len(cart.Groups))
	for _, group := range cart.Groups {
		items := make([]cartLineResponse, 0, len(group.Items))
		for _, item := range group.Items {
			items = append(items, cartLineResponse{
				ID:        item.ID,
				FoodID:    item.FoodID,
				Name:      item.Name,
				UnitPrice: item.UnitPrice,
				Quantity:  item.Quantity,
				Extras:    []string(item.Extras),
				LineTotal: item.LineTotal,
			})
		}
		groups = append(groups, cartGroupResponse{
			ID:       group.ID,
			Merchant: group.Merchant,
			Subtotal: group.Subtotal,
			Items:    items,
		})
	}
	return cartResponse{
		ID:         cart.ID,
		UserID:     cart.UserID,
		Note:       cart.Note,
		TotalItems: cart.TotalItems,
		TotalCost:  cart.TotalCost,
		Groups:     groups,
		CreatedAt:  cart.CreatedAt,
		UpdatedAt:  cart.UpdatedAt,
	}
}

func authenticatedUserID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id")
	}
	return id, nil
}

func cartIDParam(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "cartId"))
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cart id")
	}
	return id, nil
}

// ownedCart resolves the cart and enforces that it belongs to the caller.
// Foreign carts surface as not found, never as forbidden.
func ownedCart(r *http.Request, svc cartsvc.Service, cartID uuid.UUID) (uuid.UUID, error) {
	userID, err := authenticatedUserID(r)
	if err != nil {
		return uuid.Nil, err
	}
	cart, err := svc.Get(r.Context(), cartID)
	if err != nil {
		return uuid.Nil, err
	}
	if cart.UserID != userID {
		return uuid.Nil, cartsvc.ErrCartNotFound
	}
	return userID, nil
}

// CartAddItem appends a food line to the caller's cart, creating the cart on
// first use.
func CartAddItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		userID, err := authenticatedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := svc.AddItem(r.Context(), userID, cartsvc.AddItemInput{
			CartID:     payload.CartID,
			MerchantID: payload.MerchantID,
			FoodID:     payload.FoodID,
			Quantity:   payload.Quantity,
			Extras:     payload.Extras,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newCartResponse(cart))
	}
}

// CartUpdateItemQuantity replaces the quantity of one cart line.
func CartUpdateItemQuantity(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		cartID, err := cartIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := uuid.Parse(chi.URLParam(r, "itemId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item id"))
			return
		}

		var payload updateCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if _, err := ownedCart(r, svc, cartID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := svc.UpdateQuantity(r.Context(), cartID, payload.MerchantID, itemID, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(cart))
	}
}

// CartRemoveItem deletes every line matching the food within the merchant
// group; an emptied group is removed with it.
func CartRemoveItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		cartID, err := cartIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		merchantID, err := uuid.Parse(chi.URLParam(r, "merchantId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid merchant id"))
			return
		}
		foodID, err := uuid.Parse(chi.URLParam(r, "foodId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid food id"))
			return
		}

		if _, err := ownedCart(r, svc, cartID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := svc.RemoveItem(r.Context(), cartID, merchantID, foodID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(cart))
	}
}

// CartSetNote replaces the free-form note attached to the cart.
func CartSetNote(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		cartID, err := cartIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload cartNoteRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if payload.Note != nil {
			trimmed := validators.SanitizeString(*payload.Note, maxCartNoteLength)
			payload.Note = &trimmed
		}

		if _, err := ownedCart(r, svc, cartID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := svc.SetNote(r.Context(), cartID, payload.Note)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(cart))
	}
}

// CartFetch returns the hydrated cart snapshot.
func CartFetch(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		cartID, err := cartIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		userID, err := authenticatedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := svc.Get(r.Context(), cartID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if cart.UserID != userID {
			responses.WriteError(r.Context(), logg, w, cartsvc.ErrCartNotFound)
			return
		}
		responses.WriteSuccess(w, newCartResponse(cart))
	}
}
