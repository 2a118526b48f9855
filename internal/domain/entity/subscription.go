package entity

import (
	"time"

	"github.com/google/uuid"
)

// SubscriptionStatus is the lifecycle state of a subscription.
type SubscriptionStatus string

const (
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"
	SubscriptionStatusPastDue  SubscriptionStatus = "past_due"
	SubscriptionStatusTrialing SubscriptionStatus = "trialing"
)

// NormalizeProviderStatus maps a Stripe subscription status onto the four
// statuses this service stores. Statuses that do not guarantee payment map
// to past_due so they never grant access.
func NormalizeProviderStatus(status string) SubscriptionStatus {
	switch status {
	case "active":
		return SubscriptionStatusActive
	case "trialing":
		return SubscriptionStatusTrialing
	case "canceled", "incomplete_expired":
		return SubscriptionStatusCanceled
	default:
		// past_due, unpaid, incomplete, paused and anything new
		return SubscriptionStatusPastDue
	}
}

// Subscription is one billing relationship between a user and the provider.
type Subscription struct {
	ID                     uuid.UUID          `json:"id"`
	UserID                 string             `json:"user_id"`
	CustomerID             string             `json:"customer_id,omitempty"`
	ExternalSubscriptionID string             `json:"subscription_id,omitempty"`
	Plan                   Plan               `json:"plan"`
	Status                 SubscriptionStatus `json:"status"`
	// Unix seconds
	CurrentPeriodEnd *int64    `json:"current_period_end,omitempty"`
	CreatedAt        time.Time `json:"created_at,omitempty"`
	UpdatedAt        time.Time `json:"updated_at,omitempty"`
}

// PlaceholderSubscription is returned for users without any stored row.
func PlaceholderSubscription(userID string) *Subscription {
	return &Subscription{
		UserID: userID,
		Plan:   PlanFree,
		Status: SubscriptionStatusActive,
	}
}

// IsPlaceholder reports whether s was synthesized rather than read from storage.
func (s *Subscription) IsPlaceholder() bool {
	return s.ID == uuid.Nil
}

func (s *Subscription) IsActive() bool {
	return s.Status == SubscriptionStatusActive
}

// GrantsDirectAccess reports whether the row entitles its user to a paid plan.
func (s *Subscription) GrantsDirectAccess() bool {
	return s.IsActive() && s.Plan != PlanFree
}

// CheckoutCompletion carries the fields of a completed checkout that create
// or refresh a subscription.
type CheckoutCompletion struct {
	UserID                 string
	CustomerID             string
	ExternalSubscriptionID string
	Plan                   Plan
}
