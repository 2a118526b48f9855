package http

import (
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	domainErrors "github.com/XAOSTECH/payments.xaostech.io/internal/domain/errors"
	apperrors "github.com/XAOSTECH/payments.xaostech.io/pkg/errors"
)

// RequestValidator adapts validator/v10 to echo.Validator.
type RequestValidator struct {
	validate *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	return &RequestValidator{validate: validator.New()}
}

func (v *RequestValidator) Validate(i interface{}) error {
	if err := v.validate.Struct(i); err != nil {
		return domainErrors.NewValidationError("invalid request: %v", err)
	}
	return nil
}

// respondError logs err and writes the {"error", "code"} body for its kind.
func respondError(c echo.Context, logger *zap.Logger, err error, msg string) error {
	apperrors.LogError(logger, err, msg,
		zap.String("path", c.Path()),
		zap.String("method", c.Request().Method))
	status, body := apperrors.ToHTTPBody(err)
	return c.JSON(status, body)
}

// bindAndValidate decodes the request body into req and validates it.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return domainErrors.NewValidationError("invalid request body")
	}
	return c.Validate(req)
}
