package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/chowline/chowline-backend/api/responses"
	catalogsvc "github.com/chowline/chowline-backend/internal/catalog"
	"github.com/chowline/chowline-backend/pkg/db/models"
	pkgerrors "github.com/chowline/chowline-backend/pkg/errors"
	"github.com/chowline/chowline-backend/pkg/logger"
)

type merchantResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	Open      bool      `json:"open"`
	CreatedAt time.Time `json:"created_at"`
}

type foodResponse struct {
	ID          uuid.UUID       `json:"id"`
	MerchantID  uuid.UUID       `json:"merchant_id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"image_url,omitempty"`
	Description string          `json:"description,omitempty"`
	Available   bool            `json:"available"`
}

func newMerchantResponse(m *models.Merchant) merchantResponse {
	return merchantResponse{
		ID:        m.ID,
		Name:      m.Name,
		Phone:     m.Phone,
		Address:   m.Address,
		Open:      m.Open,
		CreatedAt: m.CreatedAt,
	}
}

func newFoodResponse(f *models.Food) foodResponse {
	return foodResponse{
		ID:          f.ID,
		MerchantID:  f.MerchantID,
		Name:        f.Name,
		Price:       f.Price,
		ImageURL:    f.ImageURL,
		Description: f.Description,
		Available:   f.Available,
	}
}

// ListMerchants returns the storefront directory.
func ListMerchants(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		merchants, err := svc.ListMerchants(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]merchantResponse, 0, len(merchants))
		for i := range merchants {
			out = append(out, newMerchantResponse(&merchants[i]))
		}
		responses.WriteSuccess(w, map[string]any{"merchants": out})
	}
}

// ListMerchantFoods returns one merchant's menu.
func ListMerchantFoods(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		merchantID, err := uuid.Parse(chi.URLParam(r, "merchantId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid merchant id"))
			return
		}

		foods, err := svc.ListFoods(r.Context(), merchantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]foodResponse, 0, len(foods))
		for i := range foods {
			out = append(out, newFoodResponse(&foods[i]))
		}
		responses.WriteSuccess(w, map[string]any{"foods": out})
	}
}
