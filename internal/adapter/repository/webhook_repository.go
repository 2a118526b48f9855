package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	domainErrors "github.com/XAOSTECH/payments.xaostech.io/internal/domain/errors"
	"github.com/XAOSTECH/payments.xaostech.io/internal/domain/model"
	"github.com/XAOSTECH/payments.xaostech.io/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type webhookRepository struct {
	db     *gorm.DB
	logger *zap.Logger
	now    func() time.Time
}

// NewWebhookRepository creates a new webhook event ledger
func NewWebhookRepository(db *gorm.DB, logger *zap.Logger) repository.WebhookEventRepository {
	return &webhookRepository{
		db:     db,
		logger: logger,
		now:    time.Now,
	}
}

// Record saves a new webhook event. Redeliveries hit ON CONFLICT DO NOTHING
// and get the stored row back.
func (r *webhookRepository) Record(ctx context.Context, event *model.WebhookEvent) (*model.WebhookEvent, bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "stripe_event_id"}},
			DoNothing: true,
		}).
		Create(event)
	if result.Error != nil {
		r.logger.Error("Failed to save webhook event",
			zap.String("event_id", event.StripeEventID),
			zap.String("event_type", event.EventType),
			zap.Error(result.Error))
		return nil, false, domainErrors.NewStorageError("save webhook event", result.Error)
	}

	if result.RowsAffected > 0 {
		return event, true, nil
	}

	stored, err := r.GetEvent(ctx, event.StripeEventID)
	if err != nil {
		return nil, false, err
	}
	if stored == nil {
		return nil, false, domainErrors.NewStorageError("save webhook event",
			fmt.Errorf("event %s neither inserted nor found", event.StripeEventID))
	}
	return stored, false, nil
}

// GetEvent retrieves a webhook event by ID
func (r *webhookRepository) GetEvent(ctx context.Context, eventID string) (*model.WebhookEvent, error) {
	var event model.WebhookEvent
	err := r.db.WithContext(ctx).
		Where("stripe_event_id = ?", eventID).
		First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get webhook event",
			zap.String("event_id", eventID),
			zap.Error(err))
		return nil, domainErrors.NewStorageError("get webhook event", err)
	}

	return &event, nil
}

// MarkProcessed marks a webhook event as completed
func (r *webhookRepository) MarkProcessed(ctx context.Context, eventID string) error {
	now := r.now()
	result := r.db.WithContext(ctx).
		Model(&model.WebhookEvent{}).
		Where("stripe_event_id = ?", eventID).
		Updates(map[string]interface{}{
			"status":       model.WebhookStatusCompleted,
			"processed_at": now,
			"last_error":   nil,
			"updated_at":   now,
		})
	if result.Error != nil {
		r.logger.Error("Failed to mark webhook as processed",
			zap.String("event_id", eventID),
			zap.Error(result.Error))
		return domainErrors.NewStorageError("mark webhook processed", result.Error)
	}

	if result.RowsAffected == 0 {
		return domainErrors.NewNotFoundError("webhook event", eventID)
	}
	return nil
}

// MarkFailed records the failure and bumps the attempt counter. The provider
// redelivers the event, so no retry is scheduled here.
func (r *webhookRepository) MarkFailed(ctx context.Context, eventID string, cause error) error {
	errorMsg := "unknown error"
	if cause != nil {
		errorMsg = cause.Error()
	}

	result := r.db.WithContext(ctx).
		Model(&model.WebhookEvent{}).
		Where("stripe_event_id = ?", eventID).
		Updates(map[string]interface{}{
			"status":              model.WebhookStatusFailed,
			"processing_attempts": gorm.Expr("processing_attempts + 1"),
			"last_error":          errorMsg,
			"updated_at":          r.now(),
		})
	if result.Error != nil {
		r.logger.Error("Failed to mark webhook as failed",
			zap.String("event_id", eventID),
			zap.Error(result.Error))
		return domainErrors.NewStorageError("mark webhook failed", result.Error)
	}

	if result.RowsAffected == 0 {
		return domainErrors.NewNotFoundError("webhook event", eventID)
	}
	return nil
}
