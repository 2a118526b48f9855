package http

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/XAOSTECH/payments.xaostech.io/internal/domain/entity"
	"github.com/XAOSTECH/payments.xaostech.io/internal/middleware/auth"
)

// PlanResolver answers entitlement queries.
type PlanResolver interface {
	Resolve(ctx context.Context, userID string) (*entity.EffectivePlan, error)
	CurrentSubscription(ctx context.Context, userID string) (*entity.Subscription, error)
}

type EntitlementHandler struct {
	resolver PlanResolver
	logger   *zap.Logger
}

func NewEntitlementHandler(resolver PlanResolver, logger *zap.Logger) *EntitlementHandler {
	return &EntitlementHandler{
		resolver: resolver,
		logger:   logger,
	}
}

// GetEntitlements returns the caller's effective plan and feature list.
func (h *EntitlementHandler) GetEntitlements(c echo.Context) error {
	userID := c.Param("userId")
	if _, err := auth.RequireOwner(c, userID); err != nil {
		return respondError(c, h.logger, err, "Entitlement lookup rejected")
	}

	plan, err := h.resolver.Resolve(c.Request().Context(), userID)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to resolve effective plan")
	}

	return c.JSON(http.StatusOK, plan)
}

// GetSubscription returns the caller's own subscription record.
func (h *EntitlementHandler) GetSubscription(c echo.Context) error {
	userID := c.Param("userId")
	if _, err := auth.RequireOwner(c, userID); err != nil {
		return respondError(c, h.logger, err, "Subscription lookup rejected")
	}

	sub, err := h.resolver.CurrentSubscription(c.Request().Context(), userID)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to get subscription")
	}

	return c.JSON(http.StatusOK, sub)
}
