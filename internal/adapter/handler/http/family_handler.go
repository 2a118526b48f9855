package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/XAOSTECH/payments.xaostech.io/internal/domain/entity"
	domainErrors "github.com/XAOSTECH/payments.xaostech.io/internal/domain/errors"
	"github.com/XAOSTECH/payments.xaostech.io/internal/middleware/auth"
)

// FamilyPlanManager manages a parent's family plan.
type FamilyPlanManager interface {
	CreateFamilyPlan(ctx context.Context, parentUserID string) (*entity.FamilyPlan, bool, error)
	AddMember(ctx context.Context, parentUserID, memberUserID, memberType string) (*entity.FamilyMember, error)
	RemoveMember(ctx context.Context, parentUserID string, memberID uuid.UUID) error
	ListMembers(ctx context.Context, parentUserID string, includeRemoved bool) ([]*entity.FamilyMember, error)
}

type FamilyHandler struct {
	manager FamilyPlanManager
	logger  *zap.Logger
}

func NewFamilyHandler(manager FamilyPlanManager, logger *zap.Logger) *FamilyHandler {
	return &FamilyHandler{
		manager: manager,
		logger:  logger,
	}
}

type AddMemberRequest struct {
	MemberUserID string `json:"member_user_id" validate:"required,max=255"`
	MemberType   string `json:"member_type" validate:"omitempty,max=32"`
}

func (h *FamilyHandler) CreateFamilyPlan(c echo.Context) error {
	parentID := c.Param("userId")
	if _, err := auth.RequireOwner(c, parentID); err != nil {
		return respondError(c, h.logger, err, "Family plan creation rejected")
	}

	plan, created, err := h.manager.CreateFamilyPlan(c.Request().Context(), parentID)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to create family plan")
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	return c.JSON(status, echo.Map{
		"success":     true,
		"id":          plan.ID,
		"created":     created,
		"max_members": plan.MaxMembers,
	})
}

func (h *FamilyHandler) AddMember(c echo.Context) error {
	parentID := c.Param("userId")
	if _, err := auth.RequireOwner(c, parentID); err != nil {
		return respondError(c, h.logger, err, "Family member addition rejected")
	}

	var req AddMemberRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, h.logger, err, "Invalid add member request")
	}

	member, err := h.manager.AddMember(c.Request().Context(), parentID, req.MemberUserID, req.MemberType)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to add family member")
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"success": true,
		"id":      member.ID,
	})
}

func (h *FamilyHandler) RemoveMember(c echo.Context) error {
	parentID := c.Param("userId")
	if _, err := auth.RequireOwner(c, parentID); err != nil {
		return respondError(c, h.logger, err, "Family member removal rejected")
	}

	memberID, err := uuid.Parse(c.Param("memberId"))
	if err != nil {
		return respondError(c, h.logger, domainErrors.NewValidationError("member id must be a UUID"), "Invalid remove member request")
	}

	if err := h.manager.RemoveMember(c.Request().Context(), parentID, memberID); err != nil {
		return respondError(c, h.logger, err, "Failed to remove family member")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"id":      memberID,
	})
}

func (h *FamilyHandler) ListMembers(c echo.Context) error {
	parentID := c.Param("userId")
	if _, err := auth.RequireOwner(c, parentID); err != nil {
		return respondError(c, h.logger, err, "Family member listing rejected")
	}

	includeRemoved := false
	if raw := c.QueryParam("include_removed"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return respondError(c, h.logger, domainErrors.NewValidationError("include_removed must be a boolean"), "Invalid list members request")
		}
		includeRemoved = v
	}

	members, err := h.manager.ListMembers(c.Request().Context(), parentID, includeRemoved)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to list family members")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"members": members,
		"count":   len(members),
	})
}
