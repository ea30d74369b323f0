package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/chowline/chowline-backend/internal/cart"
	"github.com/chowline/chowline-backend/internal/orders"
	"github.com/chowline/chowline-backend/pkg/config"
	"github.com/chowline/chowline-backend/pkg/db/models"
	"github.com/chowline/chowline-backend/pkg/enums"
	pkgerrors "github.com/chowline/chowline-backend/pkg/errors"
	"github.com/chowline/chowline-backend/pkg/outbox"
	"github.com/chowline/chowline-backend/pkg/outbox/payloads"
	"github.com/chowline/chowline-backend/pkg/pricing"
	"github.com/chowline/chowline-backend/pkg/refcode"
	"github.com/chowline/chowline-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type userStamper interface {
	UpdateLastOrderDate(ctx context.Context, id uuid.UUID, at time.Time) error
}

// Input is the checkout request after validation. ClientSubtotal is what the
// client believes the cart costs; the server recomputes its own subtotal and
// applies a reconciliation surcharge when the client undershoots.
type Input struct {
	CartID          uuid.UUID
	UserID          uuid.UUID
	ClientSubtotal  decimal.Decimal
	DeliveryFee     decimal.Decimal
	ServiceFee      decimal.Decimal
	DeliveryAddress *types.DeliveryAddress
	PromoCode       *string
}

// Service turns an active cart into orders, one per merchant group.
type Service interface {
	Execute(ctx context.Context, input Input) ([]models.Order, error)
}

type service struct {
	tx        txRunner
	carts     cart.Repository
	orders    orders.Repository
	users     userStamper
	outbox    outboxPublisher
	surcharge decimal.Decimal
	attempts  int
}

// NewService builds the checkout service.
func NewService(
	tx txRunner,
	cartRepo cart.Repository,
	ordersRepo orders.Repository,
	usersRepo userStamper,
	publisher outboxPublisher,
	cfg config.CheckoutConfig,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if cartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if usersRepo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	surcharge, err := decimal.NewFromString(cfg.ReconciliationSurcharge)
	if err != nil {
		return nil, fmt.Errorf("parsing reconciliation surcharge: %w", err)
	}
	attempts := cfg.ReferenceCodeAttempts
	if attempts < 1 {
		attempts = 1
	}
	return &service{
		tx:        tx,
		carts:     cartRepo,
		orders:    ordersRepo,
		users:     usersRepo,
		outbox:    publisher,
		surcharge: surcharge,
		attempts:  attempts,
	}, nil
}

// Execute creates one order per merchant group in the cart, resets the cart
// and stamps the user, all in a single transaction. The cart is untouched
// when any order fails to persist.
func (s *service) Execute(ctx context.Context, input Input) ([]models.Order, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if input.CartID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart id required")
	}
	if input.DeliveryFee.IsNegative() || input.ServiceFee.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "fees cannot be negative")
	}

	var created []models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		cartRepo := s.carts.WithTx(tx)
		ordersRepo := s.orders.WithTx(tx)

		record, err := cartRepo.FindByID(ctx, input.CartID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return cart.ErrCartNotFound
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
		if record.UserID != input.UserID {
			return cart.ErrCartNotFound
		}

		groups := nonEmptyGroups(record.Groups)
		if len(groups) == 0 {
			return ErrEmptyCart
		}

		now := time.Now().UTC()
		created = created[:0]
		for _, group := range groups {
			order, err := s.buildOrder(ctx, ordersRepo, record, group, input, now)
			if err != nil {
				return err
			}
			persisted, err := ordersRepo.Create(ctx, order)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist order")
			}
			if err := s.emitCreated(ctx, tx, persisted); err != nil {
				return err
			}
			created = append(created, *persisted)
		}

		if err := cartRepo.Reset(ctx, record.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reset cart")
		}
		if err := s.users.UpdateLastOrderDate(ctx, input.UserID, now); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "stamp last order date")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// buildOrder freezes one merchant group into an order. Totals come from the
// server-side recomputation, never from the client.
func (s *service) buildOrder(ctx context.Context, ordersRepo orders.Repository, record *models.Cart, group models.CartMerchantGroup, input Input, now time.Time) (*models.Order, error) {
	subtotal, err := pricing.GroupSubtotal(group.Items)
	if err != nil {
		return nil, err
	}

	surcharge := decimal.Zero
	if subtotal.GreaterThan(input.ClientSubtotal) {
		surcharge = s.surcharge
	}
	grandTotal := subtotal.Add(input.DeliveryFee).Add(input.ServiceFee).Add(surcharge)

	code, err := s.uniqueReference(ctx, ordersRepo)
	if err != nil {
		return nil, err
	}

	items := make(types.OrderItems, 0, len(group.Items))
	for _, item := range group.Items {
		items = append(items, types.OrderItemSnapshot{
			FoodID:    item.FoodID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			Extras:    append([]string(nil), item.Extras...),
			LineTotal: item.LineTotal,
		})
	}

	return &models.Order{
		UserID:          record.UserID,
		MerchantID:      group.MerchantID,
		Merchant:        group.Merchant,
		ReferenceCode:   code,
		Items:           items,
		Subtotal:        subtotal,
		DeliveryFee:     input.DeliveryFee,
		ServiceFee:      input.ServiceFee,
		Surcharge:       surcharge,
		GrandTotal:      grandTotal,
		DeliveryAddress: input.DeliveryAddress,
		PaymentStatus:   enums.PaymentStatusPending,
		Status:          enums.OrderStatusNew,
		StatusHistory:   types.StatusHistory{}.Append(enums.OrderStatusNew, now),
		CreatedAt:       now,
	}, nil
}

func (s *service) uniqueReference(ctx context.Context, ordersRepo orders.Repository) (string, error) {
	for attempt := 0; attempt < s.attempts; attempt++ {
		code, err := refcode.New()
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate reference code")
		}
		taken, err := ordersRepo.ReferenceExists(ctx, code)
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check reference code")
		}
		if !taken {
			return code, nil
		}
	}
	return "", pkgerrors.New(pkgerrors.CodeDependency, "could not allocate a unique reference code")
}

func (s *service) emitCreated(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	itemCount := 0
	for _, item := range order.Items {
		itemCount += item.Quantity
	}
	event := outbox.DomainEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Version:       1,
		Actor:         &outbox.ActorRef{UserID: order.UserID, Role: string(enums.RoleCustomer)},
		Data: payloads.OrderCreatedEvent{
			OrderID:       order.ID,
			ReferenceCode: order.ReferenceCode,
			UserID:        order.UserID,
			MerchantID:    order.MerchantID,
			GrandTotal:    order.GrandTotal,
			ItemCount:     itemCount,
			CreatedAt:     order.CreatedAt,
		},
	}
	if err := s.outbox.Emit(ctx, tx, event); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue order created event")
	}
	return nil
}

func nonEmptyGroups(groups []models.CartMerchantGroup) []models.CartMerchantGroup {
	out := make([]models.CartMerchantGroup, 0, len(groups))
	for _, group := range groups {
		if len(group.Items) == 0 {
			continue
		}
		out = append(out, group)
	}
	return out
}
