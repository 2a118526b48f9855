package errors

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ToHTTPStatus converts an error code to an HTTP status.
func ToHTTPStatus(code string) int {
	httpStatus, _ := GetCodeMapping(code)
	return httpStatus
}

// ToHTTPBody renders err as the {"error", "code"} body used by every handler.
// Internal and storage failures hide their cause from the client.
func ToHTTPBody(err error) (int, echo.Map) {
	code := CodeOf(err)
	status := ToHTTPStatus(code)

	message := http.StatusText(status)
	var appErr *AppError
	if As(err, &appErr) && status < http.StatusInternalServerError {
		message = appErr.Message()
	}

	return status, echo.Map{
		"error": message,
		"code":  code,
	}
}

// FromHTTPError converts an echo HTTP error back into an AppError.
func FromHTTPError(err error) error {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if As(err, &appErr) {
		return err
	}

	if echoErr, ok := err.(*echo.HTTPError); ok {
		code := httpStatusToCode(echoErr.Code)
		msg, ok := echoErr.Message.(string)
		if !ok {
			msg = "HTTP error"
		}
		return NewAppError(code, msg, echoErr.Internal)
	}

	return NewAppError(ErrInternal, err.Error(), err)
}

func httpStatusToCode(status int) string {
	switch status {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusBadRequest:
		return ErrInvalidArgument
	case http.StatusUnauthorized:
		return ErrUnauthenticated
	case http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusMethodNotAllowed:
		return ErrMethodNotAllowed
	case http.StatusConflict:
		return ErrConflict
	case http.StatusRequestEntityTooLarge:
		return ErrPayloadTooLarge
	case http.StatusGatewayTimeout:
		return ErrTimeout
	case http.StatusNotImplemented:
		return ErrNotImplemented
	default:
		return ErrInternal
	}
}

// NewEchoErrorHandler renders errors that reach echo (unmatched routes,
// recovered panics, middleware failures) with the same body as handlers.
func NewEchoErrorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		appErr := FromHTTPError(err)
		LogError(logger, appErr, "Request failed",
			zap.String("path", c.Request().URL.Path),
			zap.String("method", c.Request().Method))

		status, body := ToHTTPBody(appErr)
		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body)
		}
		if err != nil {
			logger.Error("Failed to write error response", zap.Error(err))
		}
	}
}
