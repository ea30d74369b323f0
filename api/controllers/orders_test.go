package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/chowline/chowline-backend/api/middleware"
	ordersvc "github.com/chowline/chowline-backend/internal/orders"
	"github.com/chowline/chowline-backend/pkg/db/models"
	"github.com/chowline/chowline-backend/pkg/enums"
	"github.com/chowline/chowline-backend/pkg/pagination"
)

type stubOrdersService struct {
	order *models.Order
	err   error

	lastAction    enums.OrderAction
	lastReference string
}

func (s *stubOrdersService) Transition(ctx context.Context, orderID uuid.UUID, action enums.OrderAction, actor ordersvc.Actor) (*models.Order, error) {
	s.lastAction = action
	return s.order, s.err
}

func (s *stubOrdersService) TransitionByReference(ctx context.Context, referenceCode string, action enums.OrderAction, actor ordersvc.Actor) (*models.Order, error) {
	s.lastReference = referenceCode
	s.lastAction = action
	return s.order, s.err
}

func (s *stubOrdersService) Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return s.order, s.err
}

func (s *stubOrdersService) GetByReference(ctx context.Context, referenceCode string) (*models.Order, error) {
	return s.order, s.err
}

func (s *stubOrdersService) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params, filters ordersvc.ListFilters) ([]models.Order, *pagination.Cursor, error) {
	return nil, nil, s.err
}

func (s *stubOrdersService) ListForMerchant(ctx context.Context, merchantID uuid.UUID, params pagination.Params, filters ordersvc.ListFilters) ([]models.Order, *pagination.Cursor, error) {
	return nil, nil, s.err
}

func TestCancelOrderAppliesCancelAction(t *testing.T) {
	userID := uuid.New()
	order := &models.Order{ID: uuid.New(), UserID: userID, Status: enums.OrderStatusCancelled}
	svc := &stubOrdersService{order: order}
	handler := CancelOrder(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+order.ID.String()+"/cancel", nil)
	ctx := middleware.WithUserID(req.Context(), userID.String())
	ctx = middleware.WithRole(ctx, string(enums.RoleCustomer))
	req = req.WithContext(ctx)
	req = withURLParams(req, map[string]string{"orderId": order.ID.String()})

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.lastAction != enums.OrderActionCancel {
		t.Fatalf("expected cancel action, got %s", svc.lastAction)
	}
}

func TestCancelOrderInvalidTransition(t *testing.T) {
	svc := &stubOrdersService{err: ordersvc.ErrInvalidTransition}
	handler := CancelOrder(svc, nil)

	orderID := uuid.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+orderID.String()+"/cancel", nil)
	ctx := middleware.WithUserID(req.Context(), uuid.NewString())
	ctx = middleware.WithRole(ctx, string(enums.RoleCustomer))
	req = req.WithContext(ctx)
	req = withURLParams(req, map[string]string{"orderId": orderID.String()})

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
}

func TestMerchantAcceptRequiresMerchantClaim(t *testing.T) {
	svc := &stubOrdersService{order: &models.Order{ID: uuid.New()}}
	handler := MerchantAcceptOrder(svc, nil)

	orderID := uuid.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/merchant/orders/"+orderID.String()+"/accept", nil)
	ctx := middleware.WithUserID(req.Context(), uuid.NewString())
	ctx = middleware.WithRole(ctx, string(enums.RoleMerchant))
	req = req.WithContext(ctx)
	req = withURLParams(req, map[string]string{"orderId": orderID.String()})

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

func TestAgentStatusByReferenceRejectsMerchantActions(t *testing.T) {
	svc := &stubOrdersService{order: &models.Order{ID: uuid.New()}}
	handler := AgentOrderStatusByReference(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/agent/orders/reference/10293847/status", strings.NewReader(`{"action":"accept"}`))
	ctx := middleware.WithUserID(req.Context(), uuid.NewString())
	ctx = middleware.WithRole(ctx, string(enums.RoleAgent))
	req = req.WithContext(ctx)
	req = withURLParams(req, map[string]string{"referenceCode": "10293847"})

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if svc.lastReference != "" {
		t.Fatalf("service should not be reached, got reference %q", svc.lastReference)
	}
}

func TestAgentStatusByReferencePickup(t *testing.T) {
	order := &models.Order{ID: uuid.New(), ReferenceCode: "10293847", Status: enums.OrderStatusPickedUp}
	svc := &stubOrdersService{order: order}
	handler := AgentOrderStatusByReference(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/agent/orders/reference/10293847/status", strings.NewReader(`{"action":"pickup"}`))
	ctx := middleware.WithUserID(req.Context(), uuid.NewString())
	ctx = middleware.WithRole(ctx, string(enums.RoleAgent))
	req = req.WithContext(ctx)
	req = withURLParams(req, map[string]string{"referenceCode": "10293847"})

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.lastReference != "10293847" {
		t.Fatalf("unexpected reference: %q", svc.lastReference)
	}
	if svc.lastAction != enums.OrderActionPickup {
		t.Fatalf("expected pickup action, got %s", svc.lastAction)
	}
}
