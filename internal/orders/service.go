package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/chowline/chowline-backend/pkg/db/models"
	"github.com/chowline/chowline-backend/pkg/enums"
	pkgerrors "github.com/chowline/chowline-backend/pkg/errors"
	"github.com/chowline/chowline-backend/pkg/outbox"
	"github.com/chowline/chowline-backend/pkg/outbox/payloads"
	"github.com/chowline/chowline-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Actor identifies who is applying a lifecycle action.
type Actor struct {
	UserID     uuid.UUID
	MerchantID *uuid.UUID
	Role       enums.Role
}

// Service drives the order lifecycle. Every successful transition appends to
// the status trail and queues exactly one status-changed event in the same
// transaction.
type Service interface {
	Transition(ctx context.Context, orderID uuid.UUID, action enums.OrderAction, actor Actor) (*models.Order, error)
	TransitionByReference(ctx context.Context, referenceCode string, action enums.OrderAction, actor Actor) (*models.Order, error)
	Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	GetByReference(ctx context.Context, referenceCode string) (*models.Order, error)
	ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params, filters ListFilters) ([]models.Order, *pagination.Cursor, error)
	ListForMerchant(ctx context.Context, merchantID uuid.UUID, params pagination.Params, filters ListFilters) ([]models.Order, *pagination.Cursor, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
}

// NewService builds an order lifecycle service.
func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repo, tx: tx, outbox: outboxSvc}, nil
}

// allowedActions lists the lifecycle actions valid from each status. Statuses
// absent from the map are terminal.
var allowedActions = map[enums.OrderStatus][]enums.OrderAction{
	enums.OrderStatusNew:        {enums.OrderActionAccept, enums.OrderActionReject, enums.OrderActionCancel},
	enums.OrderStatusProcessing: {enums.OrderActionPickup},
	enums.OrderStatusPickedUp:   {enums.OrderActionDeliver},
}

func (s *service) Transition(ctx context.Context, orderID uuid.UUID, action enums.OrderAction, actor Actor) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	return s.transition(ctx, action, actor, func(ctx context.Context, repo Repository) (*models.Order, error) {
		return repo.FindByID(ctx, orderID)
	})
}

func (s *service) TransitionByReference(ctx context.Context, referenceCode string, action enums.OrderAction, actor Actor) (*models.Order, error) {
	if referenceCode == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reference code is required")
	}
	return s.transition(ctx, action, actor, func(ctx context.Context, repo Repository) (*models.Order, error) {
		return repo.FindByReference(ctx, referenceCode)
	})
}

func (s *service) transition(ctx context.Context, action enums.OrderAction, actor Actor, load func(ctx context.Context, repo Repository) (*models.Order, error)) (*models.Order, error) {
	if !action.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order action")
	}

	var result *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := load(ctx, repo)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}

		if err := authorize(order, action, actor); err != nil {
			return err
		}

		target := action.TargetStatus()
		if order.Status == target {
			return ErrAlreadyInStatus
		}
		if !actionAllowed(order.Status, action) {
			return ErrInvalidTransition
		}

		now := time.Now().UTC()
		previous := order.Status
		history := order.StatusHistory.Append(target, now)

		affected, err := repo.UpdateStatus(ctx, order.ID, previous, target, history, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		if affected == 0 {
			// Another writer moved the order between read and write.
			return ErrInvalidTransition
		}

		order.Status = target
		order.StatusHistory = history
		order.UpdatedAt = now

		event := outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor: &outbox.ActorRef{
				UserID:     actor.UserID,
				MerchantID: actor.MerchantID,
				Role:       string(actor.Role),
			},
			Data: payloads.OrderStatusChangedEvent{
				OrderID:        order.ID,
				ReferenceCode:  order.ReferenceCode,
				UserID:         order.UserID,
				MerchantID:     order.MerchantID,
				PreviousStatus: previous,
				Status:         target,
				Action:         action,
				Audience:       audienceFor(action),
				ChangedAt:      now,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue status event")
		}

		result = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) GetByReference(ctx context.Context, referenceCode string) (*models.Order, error) {
	if referenceCode == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reference code is required")
	}
	order, err := s.repo.FindByReference(ctx, referenceCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params, filters ListFilters) ([]models.Order, *pagination.Cursor, error) {
	if userID == uuid.Nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	return s.repo.ListForUser(ctx, userID, params, filters)
}

func (s *service) ListForMerchant(ctx context.Context, merchantID uuid.UUID, params pagination.Params, filters ListFilters) ([]models.Order, *pagination.Cursor, error) {
	if merchantID == uuid.Nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "merchant id is required")
	}
	return s.repo.ListForMerchant(ctx, merchantID, params, filters)
}

func actionAllowed(current enums.OrderStatus, action enums.OrderAction) bool {
	for _, candidate := range allowedActions[current] {
		if candidate == action {
			return true
		}
	}
	return false
}

// authorize enforces who may apply each action: the owning merchant accepts
// and rejects, the placing user cancels, delivery agents move orders through
// pickup and delivery.
func authorize(order *models.Order, action enums.OrderAction, actor Actor) error {
	switch action {
	case enums.OrderActionAccept, enums.OrderActionReject:
		if actor.Role != enums.RoleMerchant {
			return pkgerrors.New(pkgerrors.CodeForbidden, "merchant role required")
		}
		if actor.MerchantID == nil || *actor.MerchantID != order.MerchantID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to merchant")
		}
	case enums.OrderActionCancel:
		if actor.Role != enums.RoleCustomer || actor.UserID != order.UserID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the placing user can cancel")
		}
	case enums.OrderActionPickup, enums.OrderActionDeliver:
		if actor.Role != enums.RoleAgent {
			return pkgerrors.New(pkgerrors.CodeForbidden, "agent role required")
		}
	}
	return nil
}

// audienceFor names who gets notified about a transition: the customer for
// merchant and agent actions, the merchant for a customer cancel.
func audienceFor(action enums.OrderAction) enums.NotificationAudience {
	if action == enums.OrderActionCancel {
		return enums.NotificationAudienceMerchant
	}
	return enums.NotificationAudienceCustomer
}
