package cart

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"gorm.io/gorm"

	"github.com/chowline/chowline-backend/internal/catalog"
	"github.com/chowline/chowline-backend/pkg/db/models"
	pkgerrors "github.com/chowline/chowline-backend/pkg/errors"
	"github.com/chowline/chowline-backend/pkg/pricing"
	"github.com/chowline/chowline-backend/pkg/types"
)

const (
	versionRetryAttempts = 3
	versionRetryBase     = 20 * time.Millisecond
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// AddItemInput is the payload for adding one food line to a cart.
type AddItemInput struct {
	CartID     *uuid.UUID
	MerchantID uuid.UUID
	FoodID     uuid.UUID
	Quantity   int
	Extras     []string
}

// Service exposes the cart operations. Every mutation is one atomic
// read-modify-write cycle; concurrent writers are serialized by the cart's
// version column and a short retry loop.
type Service interface {
	AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*models.Cart, error)
	UpdateQuantity(ctx context.Context, cartID, merchantID, itemID uuid.UUID, quantity int) (*models.Cart, error)
	RemoveItem(ctx context.Context, cartID, merchantID, foodID uuid.UUID) (*models.Cart, error)
	SetNote(ctx context.Context, cartID uuid.UUID, note *string) (*models.Cart, error)
	Get(ctx context.Context, cartID uuid.UUID) (*models.Cart, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	catalog catalog.Service
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo Repository, tx txRunner, catalogSvc catalog.Service) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if catalogSvc == nil {
		return nil, fmt.Errorf("catalog service required")
	}
	return &service{repo: repo, tx: tx, catalog: catalogSvc}, nil
}

// AddItem appends a food line to the user's cart, creating the cart lazily on
// first use. The unit price is snapshotted from the catalog at add time.
func (s *service) AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*models.Cart, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if input.Quantity < 1 {
		return nil, pricing.ErrInvalidQuantity
	}

	merchant, err := s.catalog.GetMerchant(ctx, input.MerchantID)
	if err != nil {
		return nil, err
	}
	food, err := s.catalog.GetFood(ctx, input.FoodID)
	if err != nil {
		return nil, err
	}
	if food.MerchantID != merchant.ID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "food does not belong to merchant")
	}
	if !food.Available {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "food is not available")
	}

	extras := CanonicalExtras(input.Extras)

	return s.mutate(ctx, func(txRepo Repository) (*models.Cart, error) {
		cart, err := s.loadOrCreate(ctx, txRepo, userID, input.CartID)
		if err != nil {
			return nil, err
		}

		group := activeGroup(cart)
		if group != nil && group.MerchantID != merchant.ID && len(group.Items) > 0 {
			return nil, ErrMixedMerchant
		}

		if group == nil || group.MerchantID != merchant.ID {
			cart.Groups = []models.CartMerchantGroup{{
				CartID:     cart.ID,
				MerchantID: merchant.ID,
				Merchant: types.MerchantSnapshot{
					MerchantID:           merchant.ID,
					Name:                 merchant.Name,
					Phone:                merchant.Phone,
					Email:                merchant.Email,
					Address:              merchant.Address,
					PaymentRecipientCode: merchant.PaymentRecipientCode,
				},
			}}
			group = &cart.Groups[0]
		}

		for _, item := range group.Items {
			if item.FoodID == food.ID && slices.Equal([]string(item.Extras), extras) {
				return nil, ErrDuplicateItem
			}
		}

		line, err := pricing.LineTotal(food.Price, input.Quantity)
		if err != nil {
			return nil, err
		}
		group.Items = append(group.Items, models.CartItem{
			GroupID:    group.ID,
			FoodID:     food.ID,
			MerchantID: merchant.ID,
			Name:       food.Name,
			UnitPrice:  food.Price,
			Quantity:   input.Quantity,
			Extras:     extras,
			LineTotal:  line.Round(2),
		})

		return cart, s.persist(ctx, txRepo, cart)
	})
}

// UpdateQuantity replaces the quantity on one cart line and recomputes every
// derived total from scratch.
func (s *service) UpdateQuantity(ctx context.Context, cartID, merchantID, itemID uuid.UUID, quantity int) (*models.Cart, error) {
	if quantity < 1 {
		return nil, pricing.ErrInvalidQuantity
	}

	return s.mutate(ctx, func(txRepo Repository) (*models.Cart, error) {
		cart, err := s.load(ctx, txRepo, cartID)
		if err != nil {
			return nil, err
		}

		group := groupForMerchant(cart, merchantID)
		if group == nil {
			return nil, ErrItemNotFound
		}

		found := false
		for i := range group.Items {
			if group.Items[i].ID == itemID {
				line, err := pricing.LineTotal(group.Items[i].UnitPrice, quantity)
				if err != nil {
					return nil, err
				}
				group.Items[i].Quantity = quantity
				group.Items[i].LineTotal = line.Round(2)
				found = true
				break
			}
		}
		if !found {
			return nil, ErrItemNotFound
		}

		return cart, s.persist(ctx, txRepo, cart)
	})
}

// RemoveItem drops every line for the food from the merchant's group. When
// the last line goes, the group goes with it and the cart reverts to the
// no-merchant state.
func (s *service) RemoveItem(ctx context.Context, cartID, merchantID, foodID uuid.UUID) (*models.Cart, error) {
	return s.mutate(ctx, func(txRepo Repository) (*models.Cart, error) {
		cart, err := s.load(ctx, txRepo, cartID)
		if err != nil {
			return nil, err
		}

		group := groupForMerchant(cart, merchantID)
		if group == nil {
			return nil, ErrItemNotFound
		}

		kept := group.Items[:0]
		removed := 0
		for _, item := range group.Items {
			if item.FoodID == foodID {
				removed++
				continue
			}
			kept = append(kept, item)
		}
		if removed == 0 {
			return nil, ErrItemNotFound
		}
		group.Items = kept

		if len(group.Items) == 0 {
			cart.Groups = nil
		}

		return cart, s.persist(ctx, txRepo, cart)
	})
}

// SetNote updates the cart note without touching items or totals.
func (s *service) SetNote(ctx context.Context, cartID uuid.UUID, note *string) (*models.Cart, error) {
	return s.mutate(ctx, func(txRepo Repository) (*models.Cart, error) {
		cart, err := s.load(ctx, txRepo, cartID)
		if err != nil {
			return nil, err
		}
		cart.Note = note
		if err := txRepo.UpdateVersioned(ctx, cart, cart.Version); err != nil {
			return nil, err
		}
		return cart, nil
	})
}

// Get returns a read-only snapshot of the cart.
func (s *service) Get(ctx context.Context, cartID uuid.UUID) (*models.Cart, error) {
	return s.load(ctx, s.repo, cartID)
}

// mutate runs one cart mutation inside a transaction, retrying the whole
// read-modify-write cycle when the optimistic version check loses a race.
func (s *service) mutate(ctx context.Context, fn func(txRepo Repository) (*models.Cart, error)) (*models.Cart, error) {
	var result *models.Cart
	backoff := retry.WithMaxRetries(versionRetryAttempts, retry.NewExponential(versionRetryBase))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			cart, err := fn(s.repo.WithTx(tx))
			if err != nil {
				return err
			}
			result = cart
			return nil
		})
		if txErr != nil && errors.Is(txErr, ErrVersionConflict) {
			return retry.RetryableError(txErr)
		}
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// persist recomputes every derived field from the items and writes the cart
// under the optimistic version check.
func (s *service) persist(ctx context.Context, txRepo Repository, cart *models.Cart) error {
	for i := range cart.Groups {
		subtotal, err := pricing.GroupSubtotal(cart.Groups[i].Items)
		if err != nil {
			return err
		}
		cart.Groups[i].Subtotal = subtotal
	}
	cart.TotalCost = pricing.CartTotal(cart.Groups)
	cart.TotalItems = pricing.TotalItems(cart.Groups)

	if err := txRepo.UpdateVersioned(ctx, cart, cart.Version); err != nil {
		return err
	}
	return txRepo.ReplaceGroups(ctx, cart.ID, cart.Groups)
}

func (s *service) load(ctx context.Context, repo Repository, cartID uuid.UUID) (*models.Cart, error) {
	if cartID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart id is required")
	}
	cart, err := repo.FindByID(ctx, cartID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCartNotFound
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return cart, nil
}

func (s *service) loadOrCreate(ctx context.Context, txRepo Repository, userID uuid.UUID, cartID *uuid.UUID) (*models.Cart, error) {
	if cartID != nil && *cartID != uuid.Nil {
		cart, err := s.load(ctx, txRepo, *cartID)
		if err != nil {
			return nil, err
		}
		if cart.UserID != userID {
			return nil, ErrCartNotFound
		}
		return cart, nil
	}

	cart, err := txRepo.FindByUser(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return txRepo.Create(ctx, &models.Cart{UserID: userID})
}

// CanonicalExtras normalizes an extras list into its sorted, deduplicated
// canonical form so duplicate detection is a plain slice comparison.
func CanonicalExtras(extras []string) []string {
	out := make([]string, 0, len(extras))
	for _, extra := range extras {
		trimmed := strings.TrimSpace(extra)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func activeGroup(cart *models.Cart) *models.CartMerchantGroup {
	if len(cart.Groups) == 0 {
		return nil
	}
	return &cart.Groups[0]
}

func groupForMerchant(cart *models.Cart, merchantID uuid.UUID) *models.CartMerchantGroup {
	for i := range cart.Groups {
		if cart.Groups[i].MerchantID == merchantID {
			return &cart.Groups[i]
		}
	}
	return nil
}
