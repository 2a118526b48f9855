package model

import (
	"time"

	"github.com/XAOSTECH/payments.xaostech.io/internal/domain/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Subscription is the subscriptions table. user_id is unique so checkout
// completions converge on one row per user.
type Subscription struct {
	ID                   uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID               string    `gorm:"not null;size:255;uniqueIndex" json:"user_id"`
	StripeCustomerID     string    `gorm:"not null;size:255;index" json:"stripe_customer_id"`
	StripeSubscriptionID *string   `gorm:"size:255" json:"stripe_subscription_id,omitempty"`
	Plan                 string    `gorm:"not null;size:32;default:'free'" json:"plan"`
	Status               string    `gorm:"not null;size:32;default:'active';index" json:"status"`
	CurrentPeriodEnd     *int64    `json:"current_period_end,omitempty"`
	CreatedAt            time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt            time.Time `gorm:"not null" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Subscription) TableName() string {
	return "subscriptions"
}

// BeforeCreate assigns an id to new rows.
func (s *Subscription) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// ToEntity converts the row to its domain form.
func (s *Subscription) ToEntity() *entity.Subscription {
	sub := &entity.Subscription{
		ID:               s.ID,
		UserID:           s.UserID,
		CustomerID:       s.StripeCustomerID,
		Plan:             entity.Plan(s.Plan),
		Status:           entity.SubscriptionStatus(s.Status),
		CurrentPeriodEnd: s.CurrentPeriodEnd,
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
	}
	if s.StripeSubscriptionID != nil {
		sub.ExternalSubscriptionID = *s.StripeSubscriptionID
	}
	return sub
}
