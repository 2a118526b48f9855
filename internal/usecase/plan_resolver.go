package usecase

import (
	"context"

	"github.com/XAOSTECH/payments.xaostech.io/internal/domain/entity"
	domainErrors "github.com/XAOSTECH/payments.xaostech.io/internal/domain/errors"
	"github.com/XAOSTECH/payments.xaostech.io/internal/domain/repository"
	"go.uber.org/zap"
)

// PlanResolver computes the single plan that governs a user's entitlements.
// A user's own active paid subscription wins over a plan inherited through a
// family link, which wins over the free default.
type PlanResolver struct {
	subscriptionRepo repository.SubscriptionRepository
	familyRepo       repository.FamilyRepository
	recorder         Recorder
	logger           *zap.Logger
}

// NewPlanResolver creates a new plan resolver
func NewPlanResolver(
	subscriptionRepo repository.SubscriptionRepository,
	familyRepo repository.FamilyRepository,
	recorder Recorder,
	logger *zap.Logger,
) *PlanResolver {
	return &PlanResolver{
		subscriptionRepo: subscriptionRepo,
		familyRepo:       familyRepo,
		recorder:         recorderOrNop(recorder),
		logger:           logger,
	}
}

// Resolve returns the effective plan of userID. Storage failures propagate;
// they are never reported as the free plan.
func (r *PlanResolver) Resolve(ctx context.Context, userID string) (*entity.EffectivePlan, error) {
	if userID == "" {
		return nil, domainErrors.NewValidationError("user id is required")
	}

	sub, err := r.subscriptionRepo.CurrentFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sub.GrantsDirectAccess() {
		return r.resolved(entity.NewEffectivePlan(userID, sub.Plan, sub.Status, entity.PlanSourceDirect)), nil
	}

	grant, err := r.familyRepo.ActiveGrantFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	if grant != nil {
		r.logger.Debug("Plan inherited through family link",
			zap.String("user_id", userID),
			zap.String("parent_user_id", grant.ParentUserID),
			zap.String("plan", string(grant.Plan)))
		return r.resolved(entity.NewEffectivePlan(userID, grant.Plan, grant.Status, entity.PlanSourceFamily)), nil
	}

	return r.resolved(entity.DefaultEffectivePlan(userID)), nil
}

// CurrentSubscription returns the user's own subscription row, or a free
// placeholder when none is stored.
func (r *PlanResolver) CurrentSubscription(ctx context.Context, userID string) (*entity.Subscription, error) {
	if userID == "" {
		return nil, domainErrors.NewValidationError("user id is required")
	}
	return r.subscriptionRepo.CurrentFor(ctx, userID)
}

func (r *PlanResolver) resolved(plan *entity.EffectivePlan) *entity.EffectivePlan {
	r.recorder.PlanResolved(plan.Source)
	return plan
}
