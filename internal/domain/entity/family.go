package entity

import (
	"time"

	"github.com/google/uuid"
)

// DefaultMemberType is used when a member is added without a type.
const DefaultMemberType = "child"

// FamilyPlan extends a parent's subscription to linked member accounts.
type FamilyPlan struct {
	ID             uuid.UUID `json:"id"`
	SubscriptionID uuid.UUID `json:"subscription_id"`
	ParentUserID   string    `json:"parent_user_id"`
	MaxMembers     int       `json:"max_members"`
	CreatedAt      time.Time `json:"created_at"`
}

// FamilyMember links a member account to a parent's family plan.
type FamilyMember struct {
	ID             uuid.UUID  `json:"id"`
	SubscriptionID uuid.UUID  `json:"subscription_id"`
	ParentUserID   string     `json:"parent_user_id"`
	MemberUserID   string     `json:"member_user_id"`
	MemberType     string     `json:"member_type"`
	CreatedAt      time.Time  `json:"created_at"`
	RemovedAt      *time.Time `json:"removed_at,omitempty"`
}

func (m *FamilyMember) IsRemoved() bool {
	return m.RemovedAt != nil
}

// FamilyGrant is the access a member inherits through an active family link.
type FamilyGrant struct {
	ParentUserID   string
	SubscriptionID uuid.UUID
	Plan           Plan
	Status         SubscriptionStatus
}
