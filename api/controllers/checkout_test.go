package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/chowline/chowline-backend/api/middleware"
	checkoutsvc "github.com/chowline/chowline-backend/internal/checkout"
	"github.com/chowline/chowline-backend/pkg/db/models"
	"github.com/chowline/chowline-backend/pkg/enums"
)

type stubCheckoutService struct {
	orders []models.Order
	err    error

	gotInput checkoutsvc.Input
	calls    int
}

func (s *stubCheckoutService) Execute(ctx context.Context, input checkoutsvc.Input) ([]models.Order, error) {
	s.calls++
	s.gotInput = input
	return s.orders, s.err
}

func checkoutBody(cartID uuid.UUID, subtotal string) string {
	return `{"cart_id":"` + cartID.String() + `","subtotal":` + subtotal + `,` +
		`"delivery_address":{"line1":"12 Fountain Rd","city":"Lagos"},` +
		`"payment_token":"tok_test"}`
}

func TestCheckoutAcceptsZeroSubtotal(t *testing.T) {
	cartID := uuid.New()
	svc := &stubCheckoutService{orders: []models.Order{{ID: uuid.New(), ReferenceCode: "10293847", Status: enums.OrderStatusNew}}}
	handler := Checkout(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(checkoutBody(cartID, "0.00")))
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.calls != 1 {
		t.Fatalf("expected checkout service to be called once, got %d", svc.calls)
	}
	if !svc.gotInput.ClientSubtotal.IsZero() {
		t.Fatalf("expected zero client subtotal, got %s", svc.gotInput.ClientSubtotal)
	}
	if svc.gotInput.CartID != cartID {
		t.Fatalf("unexpected cart id: %s", svc.gotInput.CartID)
	}
}

func TestCheckoutRequiresPaymentToken(t *testing.T) {
	svc := &stubCheckoutService{}
	handler := Checkout(svc, nil)

	body := `{"cart_id":"` + uuid.NewString() + `","subtotal":"25.50",` +
		`"delivery_address":{"line1":"12 Fountain Rd","city":"Lagos"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(body))
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if svc.calls != 0 {
		t.Fatalf("checkout service should not be reached, got %d calls", svc.calls)
	}
}
