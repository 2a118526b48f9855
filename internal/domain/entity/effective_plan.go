package entity

// PlanSource tells where an effective plan came from.
type PlanSource string

const (
	PlanSourceDirect  PlanSource = "direct"
	PlanSourceFamily  PlanSource = "family"
	PlanSourceDefault PlanSource = "default"
)

// EffectivePlan is the single plan governing a user's entitlements.
type EffectivePlan struct {
	UserID   string             `json:"user_id"`
	Plan     Plan               `json:"plan"`
	Status   SubscriptionStatus `json:"status"`
	Source   PlanSource         `json:"source"`
	Features []string           `json:"features"`
}

// NewEffectivePlan builds an EffectivePlan with the plan's feature set.
func NewEffectivePlan(userID string, plan Plan, status SubscriptionStatus, source PlanSource) *EffectivePlan {
	return &EffectivePlan{
		UserID:   userID,
		Plan:     plan,
		Status:   status,
		Source:   source,
		Features: plan.Features(),
	}
}

// DefaultEffectivePlan is the free tier every user falls back to.
func DefaultEffectivePlan(userID string) *EffectivePlan {
	return NewEffectivePlan(userID, PlanFree, SubscriptionStatusActive, PlanSourceDefault)
}
