package auth

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/chowline/chowline-backend/internal/users"
	"github.com/chowline/chowline-backend/pkg/config"
	pkgmodels "github.com/chowline/chowline-backend/pkg/db/models"
	pkgerrors "github.com/chowline/chowline-backend/pkg/errors"
	"github.com/chowline/chowline-backend/pkg/security"
)

type stubTxRunner struct{}

func (s stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubRegisterUserRepo struct {
	data    map[string]*pkgmodels.User
	created *pkgmodels.User
}

func newStubRegisterUserRepo() *stubRegisterUserRepo {
	return &stubRegisterUserRepo{data: map[string]*pkgmodels.User{}}
}

func (s *stubRegisterUserRepo) FindByEmail(ctx context.Context, email string) (*pkgmodels.User, error) {
	if user, ok := s.data[email]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRegisterUserRepo) Create(ctx context.Context, dto users.CreateUserDTO) (*pkgmodels.User, error) {
	user := dto.ToModel()
	user.ID = uuid.New()
	s.data[dto.Email] = user
	s.created = user
	return user, nil
}

type stubRegisterMerchantRepo struct {
	data    map[string]*pkgmodels.Merchant
	created *pkgmodels.Merchant
}

func newStubRegisterMerchantRepo() *stubRegisterMerchantRepo {
	return &stubRegisterMerchantRepo{data: map[string]*pkgmodels.Merchant{}}
}

func (s *stubRegisterMerchantRepo) FindMerchantByEmail(ctx context.Context, email string) (*pkgmodels.Merchant, error) {
	if merchant, ok := s.data[email]; ok {
		return merchant, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRegisterMerchantRepo) CreateMerchant(ctx context.Context, merchant *pkgmodels.Merchant) (*pkgmodels.Merchant, error) {
	merchant.ID = uuid.New()
	s.data[merchant.Email] = merchant
	s.created = merchant
	return merchant, nil
}

type registerTestSetup struct {
	service      RegisterService
	userRepo     *stubRegisterUserRepo
	merchantRepo *stubRegisterMerchantRepo
}

func newRegisterTestSetup(t *testing.T) *registerTestSetup {
	t.Helper()
	userRepo := newStubRegisterUserRepo()
	merchantRepo := newStubRegisterMerchantRepo()
	svc, err := NewRegisterService(RegisterServiceParams{
		TxRunner: stubTxRunner{},
		UserRepoFactory: func(tx *gorm.DB) RegisterUserRepository {
			return userRepo
		},
		MerchantRepoFactory: func(tx *gorm.DB) RegisterMerchantRepository {
			return merchantRepo
		},
		PasswordConfig: config.PasswordConfig{},
	})
	if err != nil {
		t.Fatalf("new register service: %v", err)
	}
	return &registerTestSetup{service: svc, userRepo: userRepo, merchantRepo: merchantRepo}
}

func TestRegisterCreatesCustomer(t *testing.T) {
	setup := newRegisterTestSetup(t)

	dto, err := setup.service.Register(context.Background(), RegisterRequest{
		Name:     "Jamie Rivera",
		Email:    " Jamie@Example.com ",
		Phone:    "+15550100",
		Password: "Secret123!",
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	created := setup.userRepo.created
	if created == nil {
		t.Fatalf("expected user to be created")
	}
	if created.Email != "jamie@example.com" {
		t.Fatalf("email not normalized, got %q", created.Email)
	}
	if created.PasswordHash == "Secret123!" || created.PasswordHash == "" {
		t.Fatalf("password stored unhashed")
	}
	valid, err := security.VerifyPassword("Secret123!", created.PasswordHash)
	if err != nil || !valid {
		t.Fatalf("stored hash does not verify: %v", err)
	}
	if dto == nil || dto.ID != created.ID {
		t.Fatalf("expected DTO for created user")
	}
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	setup := newRegisterTestSetup(t)
	setup.userRepo.data["jamie@example.com"] = &pkgmodels.User{ID: uuid.New(), Email: "jamie@example.com"}

	_, err := setup.service.Register(context.Background(), RegisterRequest{
		Name:     "Jamie Rivera",
		Email:    "jamie@example.com",
		Password: "Secret123!",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict error, got %v", err)
	}
}

func TestRegisterRequiresName(t *testing.T) {
	setup := newRegisterTestSetup(t)

	_, err := setup.service.Register(context.Background(), RegisterRequest{
		Email:    "jamie@example.com",
		Password: "Secret123!",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRegisterMerchantCreatesOpenMerchant(t *testing.T) {
	setup := newRegisterTestSetup(t)

	dto, err := setup.service.RegisterMerchant(context.Background(), MerchantRegisterRequest{
		Name:                 "Taco Row",
		Email:                "owner@tacorow.example",
		Phone:                "+15550123",
		Password:             "Secret123!",
		Address:              "44 Harbor St",
		PaymentRecipientCode: "RCP_123",
	})
	if err != nil {
		t.Fatalf("register merchant failed: %v", err)
	}

	created := setup.merchantRepo.created
	if created == nil {
		t.Fatalf("expected merchant to be created")
	}
	if !created.Open {
		t.Fatalf("new merchants start open")
	}
	if created.PaymentRecipientCode != "RCP_123" {
		t.Fatalf("payment recipient code not stored")
	}
	if dto == nil || dto.ID != created.ID {
		t.Fatalf("expected DTO for created merchant")
	}
}

func TestRegisterMerchantDuplicateEmailConflicts(t *testing.T) {
	setup := newRegisterTestSetup(t)
	setup.merchantRepo.data["owner@tacorow.example"] = &pkgmodels.Merchant{ID: uuid.New(), Email: "owner@tacorow.example"}

	_, err := setup.service.RegisterMerchant(context.Background(), MerchantRegisterRequest{
		Name:     "Taco Row",
		Email:    "owner@tacorow.example",
		Password: "Secret123!",
		Address:  "44 Harbor St",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict error, got %v", err)
	}
}
