package usecase

import (
	"context"

	"github.com/XAOSTECH/payments.xaostech.io/internal/domain/entity"
	domainErrors "github.com/XAOSTECH/payments.xaostech.io/internal/domain/errors"
	"github.com/XAOSTECH/payments.xaostech.io/internal/domain/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FamilyPlanService manages the family plan of a subscribed parent.
type FamilyPlanService struct {
	subscriptionRepo repository.SubscriptionRepository
	familyRepo       repository.FamilyRepository
	recorder         Recorder
	logger           *zap.Logger
}

// NewFamilyPlanService creates a new family plan service
func NewFamilyPlanService(
	subscriptionRepo repository.SubscriptionRepository,
	familyRepo repository.FamilyRepository,
	recorder Recorder,
	logger *zap.Logger,
) *FamilyPlanService {
	return &FamilyPlanService{
		subscriptionRepo: subscriptionRepo,
		familyRepo:       familyRepo,
		recorder:         recorderOrNop(recorder),
		logger:           logger,
	}
}

// CreateFamilyPlan attaches a family plan to the parent's active paid
// subscription. An existing plan is returned with created == false.
func (s *FamilyPlanService) CreateFamilyPlan(ctx context.Context, parentUserID string) (plan *entity.FamilyPlan, created bool, err error) {
	defer func() { s.recorder.FamilyOperation("create_plan", err) }()

	if parentUserID == "" {
		return nil, false, domainErrors.NewValidationError("parent user id is required")
	}

	sub, err := s.subscriptionRepo.CurrentFor(ctx, parentUserID)
	if err != nil {
		return nil, false, err
	}
	if !sub.GrantsDirectAccess() {
		return nil, false, domainErrors.NewPlanEligibilityError(parentUserID)
	}

	existing, err := s.familyRepo.GetPlanByParent(ctx, parentUserID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	plan, created, err = s.familyRepo.CreatePlan(ctx, &entity.FamilyPlan{
		SubscriptionID: sub.ID,
		ParentUserID:   parentUserID,
		MaxMembers:     sub.Plan.FamilyCapacity(),
	})
	if err != nil {
		return nil, false, err
	}

	if created {
		s.logger.Info("Family plan created",
			zap.String("parent_user_id", parentUserID),
			zap.String("plan", string(sub.Plan)),
			zap.Int("max_members", plan.MaxMembers))
	}
	return plan, created, nil
}

// AddMember links memberUserID to the parent's family plan. Checks run in a
// fixed order: input, plan existence, capacity, then membership uniqueness.
func (s *FamilyPlanService) AddMember(ctx context.Context, parentUserID, memberUserID, memberType string) (member *entity.FamilyMember, err error) {
	defer func() { s.recorder.FamilyOperation("add_member", err) }()

	if parentUserID == "" || memberUserID == "" {
		return nil, domainErrors.NewValidationError("parent and member user ids are required")
	}
	if parentUserID == memberUserID {
		return nil, domainErrors.NewValidationError("a parent cannot be a member of their own family plan")
	}

	plan, err := s.familyRepo.GetPlanByParent(ctx, parentUserID)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, domainErrors.NewNotFoundError("family plan for", parentUserID)
	}

	count, err := s.familyRepo.CountActiveMembers(ctx, parentUserID)
	if err != nil {
		return nil, err
	}
	if count >= int64(plan.MaxMembers) {
		return nil, domainErrors.NewCapacityError(parentUserID, plan.MaxMembers)
	}

	existing, err := s.familyRepo.FindActiveMembership(ctx, memberUserID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domainErrors.NewConflictError("user %s already belongs to a family plan", memberUserID)
	}

	if memberType == "" {
		memberType = entity.DefaultMemberType
	}

	member, err = s.familyRepo.AddMember(ctx, &entity.FamilyMember{
		SubscriptionID: plan.SubscriptionID,
		ParentUserID:   parentUserID,
		MemberUserID:   memberUserID,
		MemberType:     memberType,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Family member added",
		zap.String("parent_user_id", parentUserID),
		zap.String("member_user_id", memberUserID),
		zap.Int64("active_members", count+1))
	return member, nil
}

// RemoveMember soft deletes a live member link owned by the parent.
func (s *FamilyPlanService) RemoveMember(ctx context.Context, parentUserID string, memberID uuid.UUID) (err error) {
	defer func() { s.recorder.FamilyOperation("remove_member", err) }()

	if parentUserID == "" || memberID == uuid.Nil {
		return domainErrors.NewValidationError("parent user id and member id are required")
	}

	removed, err := s.familyRepo.RemoveMember(ctx, parentUserID, memberID)
	if err != nil {
		return err
	}
	if !removed {
		return domainErrors.NewNotFoundError("family member", memberID.String())
	}

	s.logger.Info("Family member removed",
		zap.String("parent_user_id", parentUserID),
		zap.String("member_id", memberID.String()))
	return nil
}

// ListMembers returns the parent's member links, oldest first.
func (s *FamilyPlanService) ListMembers(ctx context.Context, parentUserID string, includeRemoved bool) ([]*entity.FamilyMember, error) {
	if parentUserID == "" {
		return nil, domainErrors.NewValidationError("parent user id is required")
	}

	plan, err := s.familyRepo.GetPlanByParent(ctx, parentUserID)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, domainErrors.NewNotFoundError("family plan for", parentUserID)
	}

	return s.familyRepo.ListMembers(ctx, parentUserID, includeRemoved)
}
