package auth

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgAuth "github.com/chowline/chowline-backend/pkg/auth"
	"github.com/chowline/chowline-backend/pkg/config"
	"github.com/chowline/chowline-backend/pkg/db/models"
	"github.com/chowline/chowline-backend/pkg/enums"
	pkgerrors "github.com/chowline/chowline-backend/pkg/errors"
	"github.com/chowline/chowline-backend/pkg/security"
)

var testJWTConfig = config.JWTConfig{
	Secret:            "secret",
	Issuer:            "chowline",
	ExpirationMinutes: 30,
}

type stubUserRepo struct {
	data map[string]*models.User
}

func (s stubUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if user, ok := s.data[email]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type stubMerchantRepo struct {
	data map[string]*models.Merchant
}

func (s stubMerchantRepo) FindMerchantByEmail(ctx context.Context, email string) (*models.Merchant, error) {
	if merchant, ok := s.data[email]; ok {
		return merchant, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type stubSessionManager struct {
	refreshToken string
	accessIDs    []string
}

func (s *stubSessionManager) Generate(ctx context.Context, accessID string) (string, error) {
	s.accessIDs = append(s.accessIDs, accessID)
	return s.refreshToken, nil
}

func mustHashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := security.HashPassword(password, config.PasswordConfig{})
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return hash
}

func buildTestService(t *testing.T, user *models.User, merchant *models.Merchant) (Service, *stubSessionManager) {
	t.Helper()
	userRepo := stubUserRepo{data: map[string]*models.User{}}
	if user != nil {
		userRepo.data[user.Email] = user
	}
	merchantRepo := stubMerchantRepo{data: map[string]*models.Merchant{}}
	if merchant != nil {
		merchantRepo.data[merchant.Email] = merchant
	}
	sessionMgr := &stubSessionManager{refreshToken: "refresh-token"}
	svc, err := NewService(ServiceParams{
		UserRepo:       userRepo,
		MerchantRepo:   merchantRepo,
		SessionManager: sessionMgr,
		JWTConfig:      testJWTConfig,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, sessionMgr
}

func TestServiceLoginCustomer(t *testing.T) {
	password := "customer-secret"
	user := &models.User{
		ID:           uuid.New(),
		Name:         "Jamie Rivera",
		Email:        "jamie@example.com",
		PasswordHash: mustHashPassword(t, password),
	}
	svc, sessionMgr := buildTestService(t, user, nil)

	resp, err := svc.Login(context.Background(), LoginRequest{
		Email:    "  Jamie@Example.com ",
		Password: password,
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	claims, err := pkgAuth.ParseAccessToken(testJWTConfig, resp.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.Role != enums.RoleCustomer {
		t.Fatalf("expected customer role claim, got %s", claims.Role)
	}
	if claims.UserID != user.ID {
		t.Fatalf("user id claim mismatch")
	}
	if claims.MerchantID != nil {
		t.Fatalf("expected no merchant claim for customer")
	}
	if resp.RefreshToken != "refresh-token" {
		t.Fatalf("expected refresh token to be set")
	}
	if len(sessionMgr.accessIDs) != 1 || sessionMgr.accessIDs[0] != claims.ID {
		t.Fatalf("session not keyed by jti")
	}
	if resp.User == nil || resp.User.ID != user.ID {
		t.Fatalf("expected user in response")
	}
}

func TestServiceLoginWrongPassword(t *testing.T) {
	user := &models.User{
		ID:           uuid.New(),
		Email:        "jamie@example.com",
		PasswordHash: mustHashPassword(t, "right-password"),
	}
	svc, _ := buildTestService(t, user, nil)

	_, err := svc.Login(context.Background(), LoginRequest{
		Email:    user.Email,
		Password: "wrong-password",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
}

func TestServiceLoginUnknownEmail(t *testing.T) {
	svc, _ := buildTestService(t, nil, nil)

	_, err := svc.Login(context.Background(), LoginRequest{
		Email:    "nobody@example.com",
		Password: "whatever",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
}

func TestServiceMerchantLogin(t *testing.T) {
	password := "merchant-secret"
	merchant := &models.Merchant{
		ID:           uuid.New(),
		Name:         "Taco Row",
		Email:        "owner@tacorow.example",
		PasswordHash: mustHashPassword(t, password),
		Open:         true,
	}
	svc, _ := buildTestService(t, nil, merchant)

	resp, err := svc.MerchantLogin(context.Background(), LoginRequest{
		Email:    merchant.Email,
		Password: password,
	})
	if err != nil {
		t.Fatalf("merchant login: %v", err)
	}

	claims, err := pkgAuth.ParseAccessToken(testJWTConfig, resp.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.Role != enums.RoleMerchant {
		t.Fatalf("expected merchant role claim, got %s", claims.Role)
	}
	if claims.MerchantID == nil || *claims.MerchantID != merchant.ID {
		t.Fatalf("expected merchant id claim")
	}
	if resp.Merchant == nil || resp.Merchant.ID != merchant.ID {
		t.Fatalf("expected merchant in response")
	}
}

func TestServiceMerchantLoginCustomerEmailRejected(t *testing.T) {
	password := "customer-secret"
	user := &models.User{
		ID:           uuid.New(),
		Email:        "jamie@example.com",
		PasswordHash: mustHashPassword(t, password),
	}
	svc, _ := buildTestService(t, user, nil)

	_, err := svc.MerchantLogin(context.Background(), LoginRequest{
		Email:    user.Email,
		Password: password,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
}
