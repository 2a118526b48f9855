package http

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/stripe/stripe-go/v79/webhook"
	"go.uber.org/zap"

	"github.com/XAOSTECH/payments.xaostech.io/internal/domain/entity"
	domainErrors "github.com/XAOSTECH/payments.xaostech.io/internal/domain/errors"
	apperrors "github.com/XAOSTECH/payments.xaostech.io/pkg/errors"
)

// maxWebhookBody bounds the payload read from the provider.
const maxWebhookBody = 1 << 20

// WebhookApplier applies a raw provider event payload.
type WebhookApplier interface {
	Apply(ctx context.Context, payload []byte) (*entity.WebhookResult, error)
}

type WebhookHandler struct {
	applier       WebhookApplier
	webhookSecret string
	logger        *zap.Logger
}

// NewWebhookHandler creates the provider webhook endpoint. With an empty
// secret, signatures are not checked.
func NewWebhookHandler(applier WebhookApplier, webhookSecret string, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		applier:       applier,
		webhookSecret: webhookSecret,
		logger:        logger,
	}
}

func (h *WebhookHandler) HandleWebhook(c echo.Context) error {
	body, err := io.ReadAll(http.MaxBytesReader(c.Response(), c.Request().Body, maxWebhookBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return respondError(c, h.logger, apperrors.NewAppError(apperrors.ErrPayloadTooLarge, "webhook payload too large", err), "Invalid webhook request")
		}
		h.logger.Error("Error reading request body", zap.Error(err))
		return respondError(c, h.logger, domainErrors.NewValidationError("error reading request body"), "Invalid webhook request")
	}

	if h.webhookSecret != "" {
		sig := c.Request().Header.Get("Stripe-Signature")
		if err := webhook.ValidatePayload(body, sig, h.webhookSecret); err != nil {
			h.logger.Warn("Webhook signature verification failed", zap.Error(err))
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error": "Webhook signature verification failed",
				"code":  "INVALID_SIGNATURE",
			})
		}
	}

	result, err := h.applier.Apply(c.Request().Context(), body)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to apply webhook")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"received":  true,
		"event_id":  result.EventID,
		"action":    result.Action,
		"duplicate": result.Duplicate,
	})
}
