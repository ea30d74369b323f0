package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/chowline/chowline-backend/pkg/db/models"
	"github.com/chowline/chowline-backend/pkg/enums"
	pkgerrors "github.com/chowline/chowline-backend/pkg/errors"
	"github.com/chowline/chowline-backend/pkg/outbox"
	"github.com/chowline/chowline-backend/pkg/outbox/payloads"
	"github.com/chowline/chowline-backend/pkg/pagination"
	"github.com/chowline/chowline-backend/pkg/types"
)

type stubOrderRepo struct {
	orders       map[uuid.UUID]*models.Order
	updateCalls  int
	zeroAffected bool
}

func newStubOrderRepo(seed ...*models.Order) *stubOrderRepo {
	repo := &stubOrderRepo{orders: make(map[uuid.UUID]*models.Order)}
	for _, order := range seed {
		repo.orders[order.ID] = order
	}
	return repo
}

func (s *stubOrderRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubOrderRepo) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	stored := *order
	s.orders[order.ID] = &stored
	return order, nil
}

func (s *stubOrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, ok := s.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *order
	return &copied, nil
}

func (s *stubOrderRepo) FindByReference(ctx context.Context, referenceCode string) (*models.Order, error) {
	for _, order := range s.orders {
		if order.ReferenceCode == referenceCode {
			copied := *order
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubOrderRepo) ReferenceExists(ctx context.Context, referenceCode string) (bool, error) {
	_, err := s.FindByReference(ctx, referenceCode)
	if err == nil {
		return true, nil
	}
	return false, nil
}

func (s *stubOrderRepo) UpdateStatus(ctx context.Context, orderID uuid.UUID, from, to enums.OrderStatus, history types.StatusHistory, at time.Time) (int64, error) {
	s.updateCalls++
	if s.zeroAffected {
		return 0, nil
	}
	order, ok := s.orders[orderID]
	if !ok || order.Status != from {
		return 0, nil
	}
	order.Status = to
	order.StatusHistory = history
	order.UpdatedAt = at
	return 1, nil
}

func (s *stubOrderRepo) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params, filters ListFilters) ([]models.Order, *pagination.Cursor, error) {
	var out []models.Order
	for _, order := range s.orders {
		if order.UserID != userID {
			continue
		}
		if filters.Status != nil && order.Status != *filters.Status {
			continue
		}
		out = append(out, *order)
	}
	return out, nil, nil
}

func (s *stubOrderRepo) ListForMerchant(ctx context.Context, merchantID uuid.UUID, params pagination.Params, filters ListFilters) ([]models.Order, *pagination.Cursor, error) {
	var out []models.Order
	for _, order := range s.orders {
		if order.MerchantID != merchantID {
			continue
		}
		if filters.Status != nil && order.Status != *filters.Status {
			continue
		}
		out = append(out, *order)
	}
	return out, nil, nil
}

type stubOutbox struct {
	events []outbox.DomainEvent
}

func (s *stubOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

type passthroughTx struct{}

func (passthroughTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func newOrder(status enums.OrderStatus) *models.Order {
	now := time.Now().UTC().Add(-time.Minute)
	return &models.Order{
		ID:            uuid.New(),
		UserID:        uuid.New(),
		MerchantID:    uuid.New(),
		ReferenceCode: "12345678",
		Status:        status,
		StatusHistory: types.StatusHistory{}.Append(enums.OrderStatusNew, now),
	}
}

func newTestService(t *testing.T, repo Repository, sink *stubOutbox) Service {
	t.Helper()
	svc, err := NewService(repo, passthroughTx{}, sink)
	require.NoError(t, err)
	return svc
}

func merchantActor(order *models.Order) Actor {
	merchantID := order.MerchantID
	return Actor{UserID: uuid.New(), MerchantID: &merchantID, Role: enums.RoleMerchant}
}

func TestTransitionAccept(t *testing.T) {
	order := newOrder(enums.OrderStatusNew)
	repo := newStubOrderRepo(order)
	sink := &stubOutbox{}
	svc := newTestService(t, repo, sink)

	updated, err := svc.Transition(context.Background(), order.ID, enums.OrderActionAccept, merchantActor(order))
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusProcessing, updated.Status)
	require.Len(t, updated.StatusHistory, 2)
	assert.Equal(t, enums.OrderStatusProcessing, updated.StatusHistory.Last().Status)

	require.Len(t, sink.events, 1)
	event := sink.events[0]
	assert.Equal(t, enums.EventOrderStatusChanged, event.EventType)
	assert.Equal(t, enums.AggregateOrder, event.AggregateType)
	assert.Equal(t, order.ID, event.AggregateID)

	payload, ok := event.Data.(payloads.OrderStatusChangedEvent)
	require.True(t, ok)
	assert.Equal(t, enums.OrderStatusNew, payload.PreviousStatus)
	assert.Equal(t, enums.OrderStatusProcessing, payload.Status)
	assert.Equal(t, enums.OrderActionAccept, payload.Action)
	assert.Equal(t, enums.NotificationAudienceCustomer, payload.Audience)
}

func TestTransitionDuplicateActionIsError(t *testing.T) {
	order := newOrder(enums.OrderStatusNew)
	repo := newStubOrderRepo(order)
	sink := &stubOutbox{}
	svc := newTestService(t, repo, sink)
	actor := merchantActor(order)

	_, err := svc.Transition(context.Background(), order.ID, enums.OrderActionAccept, actor)
	require.NoError(t, err)

	_, err = svc.Transition(context.Background(), order.ID, enums.OrderActionAccept, actor)
	require.ErrorIs(t, err, ErrAlreadyInStatus)
	assert.Len(t, sink.events, 1)
}

func TestTransitionNotAllowedFromStatus(t *testing.T) {
	order := newOrder(enums.OrderStatusNew)
	repo := newStubOrderRepo(order)
	sink := &stubOutbox{}
	svc := newTestService(t, repo, sink)

	_, err := svc.Transition(context.Background(), order.ID, enums.OrderActionPickup, Actor{UserID: uuid.New(), Role: enums.RoleAgent})
	require.ErrorIs(t, err, ErrInvalidTransition)
	assert.Empty(t, sink.events)
}

func TestCancelByPlacingUser(t *testing.T) {
	order := newOrder(enums.OrderStatusNew)
	repo := newStubOrderRepo(order)
	sink := &stubOutbox{}
	svc := newTestService(t, repo, sink)

	updated, err := svc.Transition(context.Background(), order.ID, enums.OrderActionCancel, Actor{UserID: order.UserID, Role: enums.RoleCustomer})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, updated.Status)

	require.Len(t, sink.events, 1)
	payload := sink.events[0].Data.(payloads.OrderStatusChangedEvent)
	assert.Equal(t, enums.NotificationAudienceMerchant, payload.Audience)
}

func TestCancelByOtherUserForbidden(t *testing.T) {
	order := newOrder(enums.OrderStatusNew)
	repo := newStubOrderRepo(order)
	sink := &stubOutbox{}
	svc := newTestService(t, repo, sink)

	_, err := svc.Transition(context.Background(), order.ID, enums.OrderActionCancel, Actor{UserID: uuid.New(), Role: enums.RoleCustomer})
	require.Error(t, err)
	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	assert.Equal(t, pkgerrors.CodeForbidden, coded.Code())
	assert.Empty(t, sink.events)
}

func TestCancelAfterAcceptNotAllowed(t *testing.T) {
	order := newOrder(enums.OrderStatusProcessing)
	repo := newStubOrderRepo(order)
	sink := &stubOutbox{}
	svc := newTestService(t, repo, sink)

	_, err := svc.Transition(context.Background(), order.ID, enums.OrderActionCancel, Actor{UserID: order.UserID, Role: enums.RoleCustomer})
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestAcceptByWrongMerchantForbidden(t *testing.T) {
	order := newOrder(enums.OrderStatusNew)
	repo := newStubOrderRepo(order)
	sink := &stubOutbox{}
	svc := newTestService(t, repo, sink)

	other := uuid.New()
	_, err := svc.Transition(context.Background(), order.ID, enums.OrderActionAccept, Actor{UserID: uuid.New(), MerchantID: &other, Role: enums.RoleMerchant})
	require.Error(t, err)
	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	assert.Equal(t, pkgerrors.CodeForbidden, coded.Code())
}

func TestAgentDeliveryFlow(t *testing.T) {
	order := newOrder(enums.OrderStatusProcessing)
	repo := newStubOrderRepo(order)
	sink := &stubOutbox{}
	svc := newTestService(t, repo, sink)
	agent := Actor{UserID: uuid.New(), Role: enums.RoleAgent}

	updated, err := svc.Transition(context.Background(), order.ID, enums.OrderActionPickup, agent)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPickedUp, updated.Status)

	updated, err = svc.Transition(context.Background(), order.ID, enums.OrderActionDeliver, agent)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusDelivered, updated.Status)
	assert.Len(t, sink.events, 2)

	_, err = svc.Transition(context.Background(), order.ID, enums.OrderActionDeliver, agent)
	require.ErrorIs(t, err, ErrAlreadyInStatus)
	assert.Len(t, sink.events, 2)
}

func TestTransitionUnknownOrder(t *testing.T) {
	repo := newStubOrderRepo()
	svc := newTestService(t, repo, &stubOutbox{})

	_, err := svc.Transition(context.Background(), uuid.New(), enums.OrderActionAccept, Actor{UserID: uuid.New(), Role: enums.RoleMerchant})
	require.ErrorIs(t, err, ErrOrderNotFound)
}

func TestTransitionByReference(t *testing.T) {
	order := newOrder(enums.OrderStatusProcessing)
	repo := newStubOrderRepo(order)
	sink := &stubOutbox{}
	svc := newTestService(t, repo, sink)

	updated, err := svc.TransitionByReference(context.Background(), order.ReferenceCode, enums.OrderActionPickup, Actor{UserID: uuid.New(), Role: enums.RoleAgent})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPickedUp, updated.Status)
	assert.Len(t, sink.events, 1)

	_, err = svc.TransitionByReference(context.Background(), "00000000", enums.OrderActionDeliver, Actor{UserID: uuid.New(), Role: enums.RoleAgent})
	require.ErrorIs(t, err, ErrOrderNotFound)
}

func TestTransitionLostRace(t *testing.T) {
	order := newOrder(enums.OrderStatusNew)
	repo := newStubOrderRepo(order)
	repo.zeroAffected = true
	sink := &stubOutbox{}
	svc := newTestService(t, repo, sink)

	_, err := svc.Transition(context.Background(), order.ID, enums.OrderActionAccept, merchantActor(order))
	require.ErrorIs(t, err, ErrInvalidTransition)
	assert.Empty(t, sink.events)
}

func TestGetByReference(t *testing.T) {
	order := newOrder(enums.OrderStatusNew)
	repo := newStubOrderRepo(order)
	svc := newTestService(t, repo, &stubOutbox{})

	found, err := svc.GetByReference(context.Background(), order.ReferenceCode)
	require.NoError(t, err)
	assert.Equal(t, order.ID, found.ID)

	_, err = svc.GetByReference(context.Background(), "99999999")
	require.ErrorIs(t, err, ErrOrderNotFound)
}

func TestListForUserStatusFilter(t *testing.T) {
	order := newOrder(enums.OrderStatusNew)
	delivered := newOrder(enums.OrderStatusDelivered)
	delivered.UserID = order.UserID
	delivered.ReferenceCode = "87654321"
	repo := newStubOrderRepo(order, delivered)
	svc := newTestService(t, repo, &stubOutbox{})

	status := enums.OrderStatusDelivered
	listed, _, err := svc.ListForUser(context.Background(), order.UserID, pagination.Params{}, ListFilters{Status: &status})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, delivered.ID, listed[0].ID)
}
