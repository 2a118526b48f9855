package model

import (
	"time"

	"github.com/XAOSTECH/payments.xaostech.io/internal/domain/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FamilyPlan is the family_plans table, one row per parent.
type FamilyPlan struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SubscriptionID uuid.UUID `gorm:"type:uuid;not null;index" json:"subscription_id"`
	ParentUserID   string    `gorm:"not null;size:255;uniqueIndex" json:"parent_user_id"`
	MaxMembers     int       `gorm:"not null" json:"max_members"`
	CreatedAt      time.Time `gorm:"not null" json:"created_at"`

	// Relations
	Subscription *Subscription `gorm:"foreignKey:SubscriptionID;constraint:OnDelete:RESTRICT" json:"-"`
}

// TableName specifies the table name for GORM
func (FamilyPlan) TableName() string {
	return "family_plans"
}

func (p *FamilyPlan) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (p *FamilyPlan) ToEntity() *entity.FamilyPlan {
	return &entity.FamilyPlan{
		ID:             p.ID,
		SubscriptionID: p.SubscriptionID,
		ParentUserID:   p.ParentUserID,
		MaxMembers:     p.MaxMembers,
		CreatedAt:      p.CreatedAt,
	}
}

// FamilyMember is the family_members table. Removal sets RemovedAt; rows are
// never deleted. A partial unique index keeps one live link per member.
type FamilyMember struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	SubscriptionID uuid.UUID  `gorm:"type:uuid;not null;index" json:"subscription_id"`
	ParentUserID   string     `gorm:"not null;size:255;index" json:"parent_user_id"`
	MemberUserID   string     `gorm:"not null;size:255;index" json:"member_user_id"`
	MemberType     string     `gorm:"not null;size:32;default:'child'" json:"member_type"`
	CreatedAt      time.Time  `gorm:"not null" json:"created_at"`
	RemovedAt      *time.Time `gorm:"index" json:"removed_at,omitempty"`

	// Relations
	Subscription *Subscription `gorm:"foreignKey:SubscriptionID;constraint:OnDelete:RESTRICT" json:"-"`
}

// TableName specifies the table name for GORM
func (FamilyMember) TableName() string {
	return "family_members"
}

func (m *FamilyMember) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

func (m *FamilyMember) ToEntity() *entity.FamilyMember {
	return &entity.FamilyMember{
		ID:             m.ID,
		SubscriptionID: m.SubscriptionID,
		ParentUserID:   m.ParentUserID,
		MemberUserID:   m.MemberUserID,
		MemberType:     m.MemberType,
		CreatedAt:      m.CreatedAt,
		RemovedAt:      m.RemovedAt,
	}
}
