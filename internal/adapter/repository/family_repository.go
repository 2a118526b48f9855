package repository

import (
	"context"
	"errors"
	"time"

	"github.com/XAOSTECH/payments.xaostech.io/internal/domain/entity"
	domainErrors "github.com/XAOSTECH/payments.xaostech.io/internal/domain/errors"
	"github.com/XAOSTECH/payments.xaostech.io/internal/domain/model"
	"github.com/XAOSTECH/payments.xaostech.io/internal/domain/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type familyRepository struct {
	db     *gorm.DB
	logger *zap.Logger
	now    func() time.Time
}

// NewFamilyRepository creates a new family membership repository
func NewFamilyRepository(db *gorm.DB, logger *zap.Logger) repository.FamilyRepository {
	return &familyRepository{
		db:     db,
		logger: logger,
		now:    time.Now,
	}
}

func (r *familyRepository) GetPlanByParent(ctx context.Context, parentUserID string) (*entity.FamilyPlan, error) {
	var plan model.FamilyPlan
	err := r.db.WithContext(ctx).
		Where("parent_user_id = ?", parentUserID).
		First(&plan).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get family plan",
			zap.String("parent_user_id", parentUserID),
			zap.Error(err))
		return nil, domainErrors.NewStorageError("get family plan", err)
	}

	return plan.ToEntity(), nil
}

// CreatePlan inserts a family plan. Losing a creation race against the same
// parent returns the winner's row.
func (r *familyRepository) CreatePlan(ctx context.Context, plan *entity.FamilyPlan) (*entity.FamilyPlan, bool, error) {
	row := &model.FamilyPlan{
		ID:             plan.ID,
		SubscriptionID: plan.SubscriptionID,
		ParentUserID:   plan.ParentUserID,
		MaxMembers:     plan.MaxMembers,
		CreatedAt:      r.now(),
	}

	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		if isUniqueViolation(err) {
			existing, getErr := r.GetPlanByParent(ctx, plan.ParentUserID)
			if getErr != nil {
				return nil, false, getErr
			}
			if existing != nil {
				return existing, false, nil
			}
		}
		r.logger.Error("Failed to create family plan",
			zap.String("parent_user_id", plan.ParentUserID),
			zap.Error(err))
		return nil, false, domainErrors.NewStorageError("create family plan", err)
	}

	r.logger.Info("Family plan created",
		zap.String("parent_user_id", row.ParentUserID),
		zap.String("family_plan_id", row.ID.String()),
		zap.Int("max_members", row.MaxMembers))

	return row.ToEntity(), true, nil
}

func (r *familyRepository) CountActiveMembers(ctx context.Context, parentUserID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.FamilyMember{}).
		Where("parent_user_id = ? AND removed_at IS NULL", parentUserID).
		Count(&count).Error
	if err != nil {
		r.logger.Error("Failed to count family members",
			zap.String("parent_user_id", parentUserID),
			zap.Error(err))
		return 0, domainErrors.NewStorageError("count family members", err)
	}
	return count, nil
}

func (r *familyRepository) FindActiveMembership(ctx context.Context, memberUserID string) (*entity.FamilyMember, error) {
	var member model.FamilyMember
	err := r.db.WithContext(ctx).
		Where("member_user_id = ? AND removed_at IS NULL", memberUserID).
		First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to find family membership",
			zap.String("member_user_id", memberUserID),
			zap.Error(err))
		return nil, domainErrors.NewStorageError("find family membership", err)
	}
	return member.ToEntity(), nil
}

// AddMember inserts a live link. The partial unique index on member_user_id
// turns a concurrent duplicate into a ConflictError.
func (r *familyRepository) AddMember(ctx context.Context, member *entity.FamilyMember) (*entity.FamilyMember, error) {
	memberType := member.MemberType
	if memberType == "" {
		memberType = entity.DefaultMemberType
	}

	row := &model.FamilyMember{
		ID:             member.ID,
		SubscriptionID: member.SubscriptionID,
		ParentUserID:   member.ParentUserID,
		MemberUserID:   member.MemberUserID,
		MemberType:     memberType,
		CreatedAt:      r.now(),
	}

	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		if isUniqueViolation(err) {
			r.logger.Warn("Family member already linked",
				zap.String("member_user_id", member.MemberUserID))
			return nil, domainErrors.NewConflictError("user %s already belongs to a family plan", member.MemberUserID)
		}
		r.logger.Error("Failed to add family member",
			zap.String("parent_user_id", member.ParentUserID),
			zap.String("member_user_id", member.MemberUserID),
			zap.Error(err))
		return nil, domainErrors.NewStorageError("add family member", err)
	}

	return row.ToEntity(), nil
}

// RemoveMember sets removed_at on a live link owned by the parent.
func (r *familyRepository) RemoveMember(ctx context.Context, parentUserID string, memberID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.FamilyMember{}).
		Where("id = ? AND parent_user_id = ? AND removed_at IS NULL", memberID, parentUserID).
		Update("removed_at", r.now())
	if result.Error != nil {
		r.logger.Error("Failed to remove family member",
			zap.String("parent_user_id", parentUserID),
			zap.String("member_id", memberID.String()),
			zap.Error(result.Error))
		return false, domainErrors.NewStorageError("remove family member", result.Error)
	}

	return result.RowsAffected > 0, nil
}

func (r *familyRepository) ListMembers(ctx context.Context, parentUserID string, includeRemoved bool) ([]*entity.FamilyMember, error) {
	query := r.db.WithContext(ctx).
		Where("parent_user_id = ?", parentUserID).
		Order("created_at ASC")
	if !includeRemoved {
		query = query.Where("removed_at IS NULL")
	}

	var rows []model.FamilyMember
	if err := query.Find(&rows).Error; err != nil {
		r.logger.Error("Failed to list family members",
			zap.String("parent_user_id", parentUserID),
			zap.Error(err))
		return nil, domainErrors.NewStorageError("list family members", err)
	}

	members := make([]*entity.FamilyMember, 0, len(rows))
	for i := range rows {
		members = append(members, rows[i].ToEntity())
	}
	return members, nil
}

type familyGrantRow struct {
	ParentUserID   string
	SubscriptionID uuid.UUID
	Plan           string
	Status         string
}

// ActiveGrantFor joins the member's live link to its owning subscription and
// only returns it when that subscription is active.
func (r *familyRepository) ActiveGrantFor(ctx context.Context, memberUserID string) (*entity.FamilyGrant, error) {
	var rows []familyGrantRow
	err := r.db.WithContext(ctx).
		Table("family_members AS fm").
		Select("fm.parent_user_id, fm.subscription_id, s.plan, s.status").
		Joins("JOIN subscriptions s ON s.id = fm.subscription_id").
		Where("fm.member_user_id = ? AND fm.removed_at IS NULL AND s.status = ?",
			memberUserID, string(entity.SubscriptionStatusActive)).
		Order("fm.created_at DESC").
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		r.logger.Error("Failed to resolve family grant",
			zap.String("member_user_id", memberUserID),
			zap.Error(err))
		return nil, domainErrors.NewStorageError("resolve family grant", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	return &entity.FamilyGrant{
		ParentUserID:   rows[0].ParentUserID,
		SubscriptionID: rows[0].SubscriptionID,
		Plan:           entity.Plan(rows[0].Plan),
		Status:         entity.SubscriptionStatus(rows[0].Status),
	}, nil
}
