package routes

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/chowline/chowline-backend/internal/auth"
	"github.com/chowline/chowline-backend/internal/cart"
	"github.com/chowline/chowline-backend/internal/catalog"
	checkoutsvc "github.com/chowline/chowline-backend/internal/checkout"
	"github.com/chowline/chowline-backend/internal/notifications"
	"github.com/chowline/chowline-backend/internal/orders"
	"github.com/chowline/chowline-backend/internal/users"
	pkgAuth "github.com/chowline/chowline-backend/pkg/auth"
	"github.com/chowline/chowline-backend/pkg/auth/session"
	"github.com/chowline/chowline-backend/pkg/config"
	"github.com/chowline/chowline-backend/pkg/db/models"
	"github.com/chowline/chowline-backend/pkg/enums"
	"github.com/chowline/chowline-backend/pkg/logger"
	"github.com/chowline/chowline-backend/pkg/pagination"
	"github.com/chowline/chowline-backend/pkg/redis"
	"github.com/chowline/chowline-backend/pkg/types"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubSessionManager struct{}

func (stubSessionManager) HasSession(ctx context.Context, accessID string) (bool, error) {
	return true, nil
}

func (stubSessionManager) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	return "", "", nil
}

func (stubSessionManager) Revoke(ctx context.Context, accessID string) error {
	return nil
}

type stubAuthService struct{}

func (stubAuthService) Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	return nil, fmt.Errorf("not implemented")
}

func (stubAuthService) MerchantLogin(ctx context.Context, req auth.LoginRequest) (*auth.MerchantLoginResponse, error) {
	return nil, fmt.Errorf("not implemented")
}

type stubRegisterService struct{}

func (stubRegisterService) Register(ctx context.Context, req auth.RegisterRequest) (*users.UserDTO, error) {
	return &users.UserDTO{}, nil
}

func (stubRegisterService) RegisterMerchant(ctx context.Context, req auth.MerchantRegisterRequest) (*auth.MerchantDTO, error) {
	return &auth.MerchantDTO{}, nil
}

type stubCatalogService struct{}

func (stubCatalogService) GetMerchant(ctx context.Context, id uuid.UUID) (*models.Merchant, error) {
	return &models.Merchant{ID: id}, nil
}

func (stubCatalogService) GetFood(ctx context.Context, id uuid.UUID) (*models.Food, error) {
	return &models.Food{ID: id}, nil
}

func (stubCatalogService) ListFoods(ctx context.Context, merchantID uuid.UUID) ([]models.Food, error) {
	return nil, nil
}

func (stubCatalogService) ListMerchants(ctx context.Context) ([]models.Merchant, error) {
	return nil, nil
}

func (stubCatalogService) MerchantSnapshot(ctx context.Context, id uuid.UUID) (*types.MerchantSnapshot, error) {
	return &types.MerchantSnapshot{MerchantID: id}, nil
}

type stubCartService struct{}

func (stubCartService) AddItem(ctx context.Context, userID uuid.UUID, input cart.AddItemInput) (*models.Cart, error) {
	return &models.Cart{UserID: userID}, nil
}

func (stubCartService) UpdateQuantity(ctx context.Context, cartID, merchantID, itemID uuid.UUID, quantity int) (*models.Cart, error) {
	return &models.Cart{ID: cartID}, nil
}

func (stubCartService) RemoveItem(ctx context.Context, cartID, merchantID, foodID uuid.UUID) (*models.Cart, error) {
	return &models.Cart{ID: cartID}, nil
}

func (stubCartService) SetNote(ctx context.Context, cartID uuid.UUID, note *string) (*models.Cart, error) {
	return &models.Cart{ID: cartID, Note: note}, nil
}

func (stubCartService) Get(ctx context.Context, cartID uuid.UUID) (*models.Cart, error) {
	return &models.Cart{ID: cartID}, nil
}

type stubCheckoutService struct{}

func (stubCheckoutService) Execute(ctx context.Context, input checkoutsvc.Input) ([]models.Order, error) {
	return nil, nil
}

type stubOrdersService struct{}

func (stubOrdersService) Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return &models.Order{ID: orderID}, nil
}

func (stubOrdersService) GetByReference(ctx context.Context, referenceCode string) (*models.Order, error) {
	return &models.Order{ReferenceCode: referenceCode}, nil
}

func (stubOrdersService) Transition(ctx context.Context, orderID uuid.UUID, action enums.OrderAction, actor orders.Actor) (*models.Order, error) {
	return &models.Order{ID: orderID}, nil
}

func (stubOrdersService) TransitionByReference(ctx context.Context, referenceCode string, action enums.OrderAction, actor orders.Actor) (*models.Order, error) {
	return &models.Order{ReferenceCode: referenceCode}, nil
}

func (stubOrdersService) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params, filters orders.ListFilters) ([]models.Order, *pagination.Cursor, error) {
	return nil, nil, nil
}

func (stubOrdersService) ListForMerchant(ctx context.Context, merchantID uuid.UUID, params pagination.Params, filters orders.ListFilters) ([]models.Order, *pagination.Cursor, error) {
	return nil, nil, nil
}

type stubNotificationsService struct{}

func (stubNotificationsService) List(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error) {
	return &notifications.ListResult{}, nil
}

func (stubNotificationsService) MarkRead(ctx context.Context, recipientID, notificationID uuid.UUID) error {
	return nil
}

func (stubNotificationsService) MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	return 0, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:                 "secret",
			Issuer:                 "issuer",
			ExpirationMinutes:      60,
			RefreshTokenTTLMinutes: 120,
		},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(
		cfg,
		logg,
		stubPinger{},
		&redis.Client{},
		stubSessionManager{},
		stubAuthService{},
		stubRegisterService{},
		stubCatalogService{},
		stubCartService{},
		stubCheckoutService{},
		stubOrdersService{},
		stubNotificationsService{},
	)
}

func buildToken(t *testing.T, cfg *config.Config, role enums.Role) string {
	t.Helper()
	return buildTokenWithUserID(t, cfg, role, uuid.New())
}

func buildTokenWithUserID(t *testing.T, cfg *config.Config, role enums.Role, userID uuid.UUID) string {
	t.Helper()
	payload := pkgAuth.AccessTokenPayload{
		UserID: userID,
		Role:   role,
		JTI:    session.NewAccessID(),
	}
	if role == enums.RoleMerchant {
		merchantID := userID
		payload.MerchantID = &merchantID
	}
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), payload)
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestPublicRoutesNeedNoToken(t *testing.T) {
	router := newTestRouter(testConfig())

	for _, path := range []string{"/ping", "/api/v1/merchants"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("expected 200 for %s got %d", path, resp.Code)
		}
	}
}

func TestPrivateGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestPrivateGroupSucceedsWithJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.RoleCustomer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for private ping got %d", resp.Code)
	}
}

func TestMerchantGroupRequiresMerchantRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	customer := httptest.NewRequest(http.MethodGet, "/api/v1/merchant/orders", nil)
	customer.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.RoleCustomer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, customer)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for customer got %d", resp.Code)
	}

	merchant := httptest.NewRequest(http.MethodGet, "/api/v1/merchant/orders", nil)
	merchant.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.RoleMerchant))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, merchant)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for merchant got %d", resp.Code)
	}
}

func TestAgentGroupRequiresAgentRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	customer := httptest.NewRequest(http.MethodGet, "/api/v1/agent/ping", nil)
	customer.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.RoleCustomer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, customer)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-agent got %d", resp.Code)
	}

	agent := httptest.NewRequest(http.MethodGet, "/api/v1/agent/ping", nil)
	agent.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.RoleAgent))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, agent)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for agent got %d", resp.Code)
	}
}

func TestCheckoutRequiresIdempotencyKey(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.RoleCustomer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without Idempotency-Key got %d", resp.Code)
	}
}

func TestCartFetchRequiresOwnership(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	// Stubbed carts belong to the zero user, so any caller is foreign.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart/"+uuid.NewString(), nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.RoleCustomer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for foreign cart got %d", resp.Code)
	}
}
