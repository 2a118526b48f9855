package repository

import (
	"context"

	"github.com/XAOSTECH/payments.xaostech.io/internal/domain/model"
)

// WebhookEventRepository is the ledger of received provider events.
type WebhookEventRepository interface {
	// Record inserts the event unless its id is already known and returns
	// the stored row. created is false for redeliveries.
	Record(ctx context.Context, event *model.WebhookEvent) (stored *model.WebhookEvent, created bool, err error)
	GetEvent(ctx context.Context, eventID string) (*model.WebhookEvent, error)
	MarkProcessed(ctx context.Context, eventID string) error
	MarkFailed(ctx context.Context, eventID string, cause error) error
}
