package repository

import (
	"context"

	"github.com/XAOSTECH/payments.xaostech.io/internal/domain/entity"
)

// SubscriptionRepository stores subscription lifecycles. Update paths never
// fail when no row matches; they report zero rows affected instead.
type SubscriptionRepository interface {
	// UpsertFromCheckout creates or refreshes the user's row and returns it.
	UpsertFromCheckout(ctx context.Context, in entity.CheckoutCompletion) (*entity.Subscription, error)
	// ApplyStatusChange updates status and, when periodEnd > 0, the period
	// end of every row with the given customer id.
	ApplyStatusChange(ctx context.Context, customerID string, status entity.SubscriptionStatus, periodEnd int64) (int64, error)
	MarkCanceled(ctx context.Context, customerID string) (int64, error)
	MarkPastDue(ctx context.Context, customerID string) (int64, error)
	// CurrentFor returns the user's latest row or a free placeholder.
	CurrentFor(ctx context.Context, userID string) (*entity.Subscription, error)
	// GetByCustomerID returns the latest row for a customer, nil if none.
	GetByCustomerID(ctx context.Context, customerID string) (*entity.Subscription, error)
}
