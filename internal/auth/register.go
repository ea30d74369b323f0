package auth

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/chowline/chowline-backend/internal/users"
	"github.com/chowline/chowline-backend/pkg/config"
	"github.com/chowline/chowline-backend/pkg/db/models"
	pkgerrors "github.com/chowline/chowline-backend/pkg/errors"
	"github.com/chowline/chowline-backend/pkg/security"
)

// RegisterService handles account onboarding for customers and merchants.
type RegisterService interface {
	Register(ctx context.Context, req RegisterRequest) (*users.UserDTO, error)
	RegisterMerchant(ctx context.Context, req MerchantRegisterRequest) (*MerchantDTO, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// RegisterUserRepository is the persistence surface the customer
// registration flow needs.
type RegisterUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
}

// RegisterMerchantRepository is the persistence surface the merchant
// onboarding flow needs.
type RegisterMerchantRepository interface {
	FindMerchantByEmail(ctx context.Context, email string) (*models.Merchant, error)
	CreateMerchant(ctx context.Context, merchant *models.Merchant) (*models.Merchant, error)
}

// RegisterServiceParams packages the dependencies for the registration flows.
// The repo factories bind repositories to the onboarding transaction.
type RegisterServiceParams struct {
	TxRunner            txRunner
	UserRepoFactory     func(tx *gorm.DB) RegisterUserRepository
	MerchantRepoFactory func(tx *gorm.DB) RegisterMerchantRepository
	PasswordConfig      config.PasswordConfig
}

type registerService struct {
	tx            txRunner
	userRepos     func(tx *gorm.DB) RegisterUserRepository
	merchantRepos func(tx *gorm.DB) RegisterMerchantRepository
	passwordCfg   config.PasswordConfig
}

// NewRegisterService builds a registration service with the provided dependencies.
func NewRegisterService(params RegisterServiceParams) (RegisterService, error) {
	if params.TxRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	if params.UserRepoFactory == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "user repository factory required")
	}
	if params.MerchantRepoFactory == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "merchant repository factory required")
	}
	return &registerService{
		tx:            params.TxRunner,
		userRepos:     params.UserRepoFactory,
		merchantRepos: params.MerchantRepoFactory,
		passwordCfg:   params.PasswordConfig,
	}, nil
}

func (s *registerService) Register(ctx context.Context, req RegisterRequest) (*users.UserDTO, error) {
	email, err := registrationEmail(req.Email)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var created *models.User
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.userRepos(tx)

		if _, err := repo.FindByEmail(ctx, email); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user email")
		}

		user, err := repo.Create(ctx, users.CreateUserDTO{
			Name:         strings.TrimSpace(req.Name),
			Email:        email,
			Phone:        strings.TrimSpace(req.Phone),
			PasswordHash: passwordHash,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
		}
		created = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return users.FromModel(created), nil
}

func (s *registerService) RegisterMerchant(ctx context.Context, req MerchantRegisterRequest) (*MerchantDTO, error) {
	email, err := registrationEmail(req.Email)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if strings.TrimSpace(req.Address) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address is required")
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var created *models.Merchant
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.merchantRepos(tx)

		if _, err := repo.FindMerchantByEmail(ctx, email); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check merchant email")
		}

		merchant, err := repo.CreateMerchant(ctx, &models.Merchant{
			Name:                 strings.TrimSpace(req.Name),
			Email:                email,
			Phone:                strings.TrimSpace(req.Phone),
			Address:              strings.TrimSpace(req.Address),
			PaymentRecipientCode: strings.TrimSpace(req.PaymentRecipientCode),
			PasswordHash:         passwordHash,
			Open:                 true,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create merchant")
		}
		created = merchant
		return nil
	})
	if err != nil {
		return nil, err
	}
	return merchantFromModel(created), nil
}

func registrationEmail(email string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	return normalized, nil
}
