package repository

import (
	"context"

	"github.com/XAOSTECH/payments.xaostech.io/internal/domain/entity"
	"github.com/google/uuid"
)

// FamilyRepository stores family plans and their member links.
type FamilyRepository interface {
	// GetPlanByParent returns nil when the parent has no family plan.
	GetPlanByParent(ctx context.Context, parentUserID string) (*entity.FamilyPlan, error)
	// CreatePlan inserts plan. When a plan already exists for the parent the
	// stored plan is returned with created == false.
	CreatePlan(ctx context.Context, plan *entity.FamilyPlan) (stored *entity.FamilyPlan, created bool, err error)
	CountActiveMembers(ctx context.Context, parentUserID string) (int64, error)
	// FindActiveMembership returns the member's live link anywhere, nil if none.
	FindActiveMembership(ctx context.Context, memberUserID string) (*entity.FamilyMember, error)
	// AddMember inserts a link. A concurrent live link for the same member
	// yields a ConflictError.
	AddMember(ctx context.Context, member *entity.FamilyMember) (*entity.FamilyMember, error)
	// RemoveMember soft deletes a live link owned by parentUserID and reports
	// whether one was removed.
	RemoveMember(ctx context.Context, parentUserID string, memberID uuid.UUID) (bool, error)
	ListMembers(ctx context.Context, parentUserID string, includeRemoved bool) ([]*entity.FamilyMember, error)
	// ActiveGrantFor returns the plan a member inherits through a live link
	// whose owning subscription is active, nil if none.
	ActiveGrantFor(ctx context.Context, memberUserID string) (*entity.FamilyGrant, error)
}
