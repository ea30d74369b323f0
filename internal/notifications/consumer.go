package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/chowline/chowline-backend/pkg/db/models"
	"github.com/chowline/chowline-backend/pkg/enums"
	"github.com/chowline/chowline-backend/pkg/logger"
	"github.com/chowline/chowline-backend/pkg/outbox"
	"github.com/chowline/chowline-backend/pkg/outbox/idempotency"
	"github.com/chowline/chowline-backend/pkg/outbox/payloads"
)

const (
	orderNotificationConsumer = "order-notifications"

	defaultPushPoolSize = 8
	defaultPushTimeout  = 10 * time.Second
)

type consumerRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
}

// PushClient delivers one push message to one device token. Delivery
// mechanics live behind this interface; failures are logged and never block
// the event.
type PushClient interface {
	Push(ctx context.Context, token, title, message string) error
}

// Directory resolves notification recipients and their device tokens.
type Directory interface {
	Recipients(ctx context.Context, audience enums.NotificationAudience) ([]uuid.UUID, error)
	DeviceTokens(ctx context.Context, audience enums.NotificationAudience, recipientID uuid.UUID) ([]string, error)
}

// ConsumerParams carries the consumer's dependencies.
type ConsumerParams struct {
	Repo         consumerRepository
	Directory    Directory
	Push         PushClient
	Subscription *pubsub.Subscriber
	Idempotency  *idempotency.Manager
	Logger       *logger.Logger
	PushPoolSize int
	PushTimeout  time.Duration
}

// Consumer turns order domain events into notification rows and best-effort
// push deliveries.
type Consumer struct {
	repo         consumerRepository
	directory    Directory
	push         PushClient
	subscription *pubsub.Subscriber
	idempotency  *idempotency.Manager
	logg         *logger.Logger
	poolSize     int
	pushTimeout  time.Duration
}

// NewConsumer builds the order notification consumer.
func NewConsumer(params ConsumerParams) (*Consumer, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if params.Directory == nil {
		return nil, fmt.Errorf("recipient directory required")
	}
	if params.Subscription == nil {
		return nil, fmt.Errorf("domain subscription required")
	}
	if params.Idempotency == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	poolSize := params.PushPoolSize
	if poolSize <= 0 {
		poolSize = defaultPushPoolSize
	}
	pushTimeout := params.PushTimeout
	if pushTimeout <= 0 {
		pushTimeout = defaultPushTimeout
	}
	return &Consumer{
		repo:         params.Repo,
		directory:    params.Directory,
		push:         params.Push,
		subscription: params.Subscription,
		idempotency:  params.Idempotency,
		logg:         params.Logger,
		poolSize:     poolSize,
		pushTimeout:  pushTimeout,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.handle(ctx, msg.Attributes["event_type"], msg.ID, msg.Data)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) handle(ctx context.Context, eventType, messageID string, data []byte) processResult {
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": messageID,
		"event_type": eventType,
	})

	parsed, err := enums.ParseOutboxEventType(eventType)
	if err != nil {
		c.logg.Info(logCtx, "skipping unknown event type")
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, orderNotificationConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	if err := c.dispatch(logCtx, parsed, envelope.Data); err != nil {
		c.logg.Error(logCtx, "notification handling failed", err)
		_ = c.idempotency.Delete(ctx, orderNotificationConsumer, eventID)
		return processResult{nack: true}
	}
	return processResult{ack: true}
}

func (c *Consumer) dispatch(ctx context.Context, eventType enums.OutboxEventType, data json.RawMessage) error {
	switch eventType {
	case enums.EventOrderCreated:
		var payload payloads.OrderCreatedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return fmt.Errorf("parsing order created payload: %w", err)
		}
		return c.handleOrderCreated(ctx, payload)
	case enums.EventOrderStatusChanged:
		var payload payloads.OrderStatusChangedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return fmt.Errorf("parsing status changed payload: %w", err)
		}
		return c.handleStatusChanged(ctx, payload)
	case enums.EventNotificationRequested:
		var payload payloads.NotificationRequestedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return fmt.Errorf("parsing broadcast payload: %w", err)
		}
		return c.handleBroadcast(ctx, payload)
	}
	c.logg.Info(ctx, "event type not handled")
	return nil
}

func (c *Consumer) handleOrderCreated(ctx context.Context, payload payloads.OrderCreatedEvent) error {
	if payload.MerchantID == uuid.Nil {
		return fmt.Errorf("merchant id missing")
	}
	title := "New order"
	message := fmt.Sprintf("Order %s was placed for %s.", payload.ReferenceCode, payload.GrandTotal.StringFixed(2))
	notification := &models.Notification{
		RecipientID: payload.MerchantID,
		Audience:    enums.NotificationAudienceMerchant,
		Type:        enums.NotificationTypeOrderCreated,
		Title:       title,
		Message:     message,
		OrderRef:    &payload.ReferenceCode,
	}
	if err := c.repo.Create(ctx, notification); err != nil {
		return err
	}
	c.deliver(ctx, enums.NotificationAudienceMerchant, payload.MerchantID, title, message)
	return nil
}

func (c *Consumer) handleStatusChanged(ctx context.Context, payload payloads.OrderStatusChangedEvent) error {
	recipient := payload.UserID
	if payload.Audience == enums.NotificationAudienceMerchant {
		recipient = payload.MerchantID
	}
	if recipient == uuid.Nil {
		return fmt.Errorf("recipient missing for audience %s", payload.Audience)
	}

	title := "Order update"
	message := statusMessage(payload.ReferenceCode, payload.Status)
	notification := &models.Notification{
		RecipientID: recipient,
		Audience:    payload.Audience,
		Type:        enums.NotificationTypeOrderStatus,
		Title:       title,
		Message:     message,
		OrderRef:    &payload.ReferenceCode,
	}
	if err := c.repo.Create(ctx, notification); err != nil {
		return err
	}
	c.deliver(ctx, payload.Audience, recipient, title, message)
	return nil
}

// handleBroadcast fans a free-form message out to every recipient in the
// audience. A single recipient's failure is logged and skipped.
func (c *Consumer) handleBroadcast(ctx context.Context, payload payloads.NotificationRequestedEvent) error {
	if !payload.Audience.IsValid() {
		return fmt.Errorf("invalid audience %q", payload.Audience)
	}
	recipients, err := c.directory.Recipients(ctx, payload.Audience)
	if err != nil {
		return fmt.Errorf("resolving recipients: %w", err)
	}
	for _, recipient := range recipients {
		notification := &models.Notification{
			RecipientID: recipient,
			Audience:    payload.Audience,
			Type:        enums.NotificationTypeBroadcast,
			Title:       payload.Title,
			Message:     payload.Message,
		}
		if err := c.repo.Create(ctx, notification); err != nil {
			c.logg.Error(ctx, "broadcast row failed", err)
			continue
		}
		c.deliver(ctx, payload.Audience, recipient, payload.Title, payload.Message)
	}
	return nil
}

// deliver pushes to the recipient's device tokens on a bounded pool. Push is
// best-effort; the notification row is already committed.
func (c *Consumer) deliver(ctx context.Context, audience enums.NotificationAudience, recipientID uuid.UUID, title, message string) {
	if c.push == nil {
		return
	}
	tokens, err := c.directory.DeviceTokens(ctx, audience, recipientID)
	if err != nil {
		c.logg.Error(ctx, "loading device tokens failed", err)
		return
	}
	if len(tokens) == 0 {
		return
	}

	sem := make(chan struct{}, c.poolSize)
	var wg sync.WaitGroup
	for _, token := range tokens {
		wg.Add(1)
		sem <- struct{}{}
		go func(token string) {
			defer wg.Done()
			defer func() { <-sem }()
			pushCtx, cancel := context.WithTimeout(ctx, c.pushTimeout)
			defer cancel()
			if err := c.push.Push(pushCtx, token, title, message); err != nil {
				c.logg.Error(ctx, "push delivery failed", err)
			}
		}(token)
	}
	wg.Wait()
}

func statusMessage(referenceCode string, status enums.OrderStatus) string {
	switch status {
	case enums.OrderStatusProcessing:
		return fmt.Sprintf("Order %s was accepted and is being prepared.", referenceCode)
	case enums.OrderStatusRejected:
		return fmt.Sprintf("Order %s was rejected by the merchant.", referenceCode)
	case enums.OrderStatusPickedUp:
		return fmt.Sprintf("Order %s was picked up for delivery.", referenceCode)
	case enums.OrderStatusDelivered:
		return fmt.Sprintf("Order %s was delivered.", referenceCode)
	case enums.OrderStatusCancelled:
		return fmt.Sprintf("Order %s was cancelled by the customer.", referenceCode)
	}
	return fmt.Sprintf("Order %s status changed to %s.", referenceCode, status)
}
