package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/XAOSTECH/payments.xaostech.io/internal/domain/entity"
	domainErrors "github.com/XAOSTECH/payments.xaostech.io/internal/domain/errors"
	"github.com/XAOSTECH/payments.xaostech.io/internal/domain/model"
	"github.com/XAOSTECH/payments.xaostech.io/internal/domain/repository"
	"github.com/stripe/stripe-go/v79"
	"go.uber.org/zap"
)

// eventEnvelope is the minimal shape every provider event must have.
type eventEnvelope struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Created int64  `json:"created"`
	Data    struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

// ParseEvent decodes a webhook payload. A payload without a type or without a
// data.object JSON object is a ValidationError.
func ParseEvent(payload []byte) (*stripe.Event, error) {
	var env eventEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, domainErrors.NewValidationError("malformed webhook payload: %v", err)
	}
	if env.Type == "" {
		return nil, domainErrors.NewValidationError("webhook payload has no event type")
	}
	object := bytes.TrimSpace(env.Data.Object)
	if len(object) == 0 || object[0] != '{' {
		return nil, domainErrors.NewValidationError("webhook payload has no data object")
	}

	return &stripe.Event{
		ID:      env.ID,
		Type:    stripe.EventType(env.Type),
		Created: env.Created,
		Data:    &stripe.EventData{Raw: object},
	}, nil
}

// WebhookApplier turns provider events into subscription state changes.
// Applying the same event twice leaves the store as applying it once.
type WebhookApplier struct {
	subscriptionRepo repository.SubscriptionRepository
	webhookRepo      repository.WebhookEventRepository
	publisher        ChangePublisher
	channel          string
	recorder         Recorder
	logger           *zap.Logger
}

// NewWebhookApplier creates a new webhook applier. webhookRepo, publisher and
// recorder may be nil.
func NewWebhookApplier(
	subscriptionRepo repository.SubscriptionRepository,
	webhookRepo repository.WebhookEventRepository,
	publisher ChangePublisher,
	channel string,
	recorder Recorder,
	logger *zap.Logger,
) *WebhookApplier {
	return &WebhookApplier{
		subscriptionRepo: subscriptionRepo,
		webhookRepo:      webhookRepo,
		publisher:        publisher,
		channel:          channel,
		recorder:         recorderOrNop(recorder),
		logger:           logger,
	}
}

// Apply parses payload and applies the event it carries.
func (a *WebhookApplier) Apply(ctx context.Context, payload []byte) (*entity.WebhookResult, error) {
	event, err := ParseEvent(payload)
	if err != nil {
		a.recorder.WebhookApplied("", "", err)
		return nil, err
	}
	return a.ApplyEvent(ctx, event)
}

// ApplyEvent applies a decoded event. Events already completed according to
// the ledger are acknowledged without touching subscriptions.
func (a *WebhookApplier) ApplyEvent(ctx context.Context, event *stripe.Event) (*entity.WebhookResult, error) {
	result, err := a.applyRecorded(ctx, event)

	var action entity.WebhookAction
	if result != nil {
		action = result.Action
	}
	a.recorder.WebhookApplied(string(event.Type), action, err)

	if err != nil {
		a.logger.Error("Failed to apply webhook event",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)),
			zap.Error(err))
		return nil, err
	}

	a.logger.Info("Webhook event applied",
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.String("action", string(result.Action)),
		zap.Int64("rows_affected", result.RowsAffected))
	return result, nil
}

func (a *WebhookApplier) applyRecorded(ctx context.Context, event *stripe.Event) (*entity.WebhookResult, error) {
	if a.webhookRepo == nil || event.ID == "" {
		return a.dispatch(ctx, event)
	}

	stored, created, err := a.webhookRepo.Record(ctx, ledgerRow(event))
	if err != nil {
		return nil, err
	}
	if !created && stored.IsCompleted() {
		return &entity.WebhookResult{
			EventID:   event.ID,
			EventType: string(event.Type),
			Action:    entity.WebhookActionDuplicate,
			Duplicate: true,
		}, nil
	}

	result, err := a.dispatch(ctx, event)
	if err != nil {
		if markErr := a.webhookRepo.MarkFailed(ctx, event.ID, err); markErr != nil {
			a.logger.Warn("Failed to mark webhook event as failed",
				zap.String("event_id", event.ID),
				zap.Error(markErr))
		}
		return nil, err
	}

	// A redelivery reapplies the event when this fails.
	if err := a.webhookRepo.MarkProcessed(ctx, event.ID); err != nil {
		a.logger.Warn("Failed to mark webhook event as processed",
			zap.String("event_id", event.ID),
			zap.Error(err))
	}
	return result, nil
}

func (a *WebhookApplier) dispatch(ctx context.Context, event *stripe.Event) (*entity.WebhookResult, error) {
	result := &entity.WebhookResult{
		EventID:   event.ID,
		EventType: string(event.Type),
	}

	var err error
	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		err = a.handleCheckoutCompleted(ctx, event, result)
	case stripe.EventTypeCustomerSubscriptionCreated, stripe.EventTypeCustomerSubscriptionUpdated:
		err = a.handleSubscriptionUpdated(ctx, event, result)
	case stripe.EventTypeCustomerSubscriptionDeleted:
		err = a.handleSubscriptionDeleted(ctx, event, result)
	case stripe.EventTypeInvoicePaymentSucceeded:
		a.logger.Info("Invoice paid", zap.String("event_id", event.ID))
		result.Action = entity.WebhookActionNone
	case stripe.EventTypeInvoicePaymentFailed:
		err = a.handleInvoicePaymentFailed(ctx, event, result)
	default:
		a.logger.Debug("Ignoring unhandled webhook event type",
			zap.String("event_type", string(event.Type)))
		result.Action = entity.WebhookActionIgnored
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (a *WebhookApplier) handleCheckoutCompleted(ctx context.Context, event *stripe.Event, result *entity.WebhookResult) error {
	var session stripe.CheckoutSession
	if err := decodeObject(event, &session); err != nil {
		return err
	}

	userID := session.ClientReferenceID
	if userID == "" {
		userID = session.Metadata["user_id"]
	}
	var customerID string
	if session.Customer != nil {
		customerID = session.Customer.ID
	}
	var subscriptionID string
	if session.Subscription != nil {
		subscriptionID = session.Subscription.ID
	}
	planName := session.Metadata["plan"]
	if planName == "" {
		planName = string(entity.PlanPro)
	}

	if userID == "" || customerID == "" {
		a.skip(event, result, "checkout session has no user or customer")
		return nil
	}
	plan, ok := entity.ParsePlan(planName)
	if !ok || !plan.IsPaid() {
		a.skip(event, result, "checkout plan is not a paid tier")
		return nil
	}

	sub, err := a.subscriptionRepo.UpsertFromCheckout(ctx, entity.CheckoutCompletion{
		UserID:                 userID,
		CustomerID:             customerID,
		ExternalSubscriptionID: subscriptionID,
		Plan:                   plan,
	})
	if err != nil {
		return err
	}

	result.Action = entity.WebhookActionSubscriptionUpserted
	result.RowsAffected = 1
	a.publish(ctx, entity.EntitlementChange{
		UserID:     sub.UserID,
		CustomerID: sub.CustomerID,
		EventID:    event.ID,
		EventType:  string(event.Type),
		Status:     sub.Status,
		Plan:       sub.Plan,
	})
	return nil
}

func (a *WebhookApplier) handleSubscriptionUpdated(ctx context.Context, event *stripe.Event, result *entity.WebhookResult) error {
	var sub stripe.Subscription
	if err := decodeObject(event, &sub); err != nil {
		return err
	}
	customerID := customerOf(sub.Customer)
	if customerID == "" {
		a.skip(event, result, "subscription has no customer")
		return nil
	}

	status := entity.NormalizeProviderStatus(string(sub.Status))
	rows, err := a.subscriptionRepo.ApplyStatusChange(ctx, customerID, status, sub.CurrentPeriodEnd)
	if err != nil {
		return err
	}

	result.Action = entity.WebhookActionStatusChanged
	result.RowsAffected = rows
	a.publishForCustomer(ctx, event, customerID, status, rows)
	return nil
}

func (a *WebhookApplier) handleSubscriptionDeleted(ctx context.Context, event *stripe.Event, result *entity.WebhookResult) error {
	var sub stripe.Subscription
	if err := decodeObject(event, &sub); err != nil {
		return err
	}
	customerID := customerOf(sub.Customer)
	if customerID == "" {
		a.skip(event, result, "subscription has no customer")
		return nil
	}

	rows, err := a.subscriptionRepo.MarkCanceled(ctx, customerID)
	if err != nil {
		return err
	}

	result.Action = entity.WebhookActionCanceled
	result.RowsAffected = rows
	a.publishForCustomer(ctx, event, customerID, entity.SubscriptionStatusCanceled, rows)
	return nil
}

func (a *WebhookApplier) handleInvoicePaymentFailed(ctx context.Context, event *stripe.Event, result *entity.WebhookResult) error {
	var invoice stripe.Invoice
	if err := decodeObject(event, &invoice); err != nil {
		return err
	}
	customerID := customerOf(invoice.Customer)
	if customerID == "" {
		a.skip(event, result, "invoice has no customer")
		return nil
	}

	rows, err := a.subscriptionRepo.MarkPastDue(ctx, customerID)
	if err != nil {
		return err
	}

	result.Action = entity.WebhookActionPastDue
	result.RowsAffected = rows
	a.publishForCustomer(ctx, event, customerID, entity.SubscriptionStatusPastDue, rows)
	return nil
}

func (a *WebhookApplier) skip(event *stripe.Event, result *entity.WebhookResult, reason string) {
	a.logger.Warn("Skipping webhook event",
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.String("reason", reason))
	result.Action = entity.WebhookActionSkipped
}

func (a *WebhookApplier) publishForCustomer(ctx context.Context, event *stripe.Event, customerID string, status entity.SubscriptionStatus, rows int64) {
	if a.publisher == nil || rows == 0 {
		return
	}

	change := entity.EntitlementChange{
		CustomerID: customerID,
		EventID:    event.ID,
		EventType:  string(event.Type),
		Status:     status,
	}
	sub, err := a.subscriptionRepo.GetByCustomerID(ctx, customerID)
	if err != nil {
		a.logger.Warn("Failed to look up subscription for change notification",
			zap.String("customer_id", customerID),
			zap.Error(err))
	} else if sub != nil {
		change.UserID = sub.UserID
		change.Plan = sub.Plan
	}
	a.publish(ctx, change)
}

func (a *WebhookApplier) publish(ctx context.Context, change entity.EntitlementChange) {
	if a.publisher == nil {
		return
	}
	if err := a.publisher.Publish(ctx, a.channel, change); err != nil {
		a.logger.Warn("Failed to publish entitlement change",
			zap.String("channel", a.channel),
			zap.String("customer_id", change.CustomerID),
			zap.Error(err))
	}
}

func decodeObject(event *stripe.Event, v interface{}) error {
	if err := json.Unmarshal(event.Data.Raw, v); err != nil {
		return domainErrors.NewValidationError("malformed %s object: %v", event.Type, err)
	}
	return nil
}

func customerOf(c *stripe.Customer) string {
	if c == nil {
		return ""
	}
	return c.ID
}

func ledgerRow(event *stripe.Event) *model.WebhookEvent {
	row := &model.WebhookEvent{
		StripeEventID: event.ID,
		EventType:     string(event.Type),
		Status:        model.WebhookStatusProcessing,
	}
	var data model.JSONB
	if err := json.Unmarshal(event.Data.Raw, &data); err == nil {
		row.Data = data
	}
	if event.Created > 0 {
		created := time.Unix(event.Created, 0).UTC()
		row.StripeCreatedAt = &created
	}
	return row
}
