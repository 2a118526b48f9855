// Package errors defines the error kinds surfaced by the entitlement engine.
// Each kind is an AppError code, so errors.Is against the sentinels below
// matches any error of that kind.
package errors

import (
	"fmt"

	apperrors "github.com/XAOSTECH/payments.xaostech.io/pkg/errors"
)

var (
	ErrValidation      = apperrors.NewAppError(apperrors.ErrInvalidArgument, "validation failed", nil)
	ErrAuthorization   = apperrors.NewAppError(apperrors.ErrUnauthenticated, "unauthorized", nil)
	ErrCapacity        = apperrors.NewAppError(apperrors.ErrCapacityExceeded, "capacity exceeded", nil)
	ErrPlanEligibility = apperrors.NewAppError(apperrors.ErrPlanIneligible, "plan not eligible", nil)
	ErrNotFound        = apperrors.NewAppError(apperrors.ErrNotFound, "not found", nil)
	ErrConflict        = apperrors.NewAppError(apperrors.ErrConflict, "conflict", nil)
	ErrStorage         = apperrors.NewAppError(apperrors.ErrStorage, "storage failure", nil)
)

// NewValidationError reports missing or malformed input.
func NewValidationError(format string, args ...interface{}) error {
	return apperrors.NewAppError(apperrors.ErrInvalidArgument, fmt.Sprintf(format, args...), nil)
}

// NewAuthorizationError reports a caller acting on a resource it does not own.
func NewAuthorizationError(callerID, ownerID string) error {
	return apperrors.NewAppError(apperrors.ErrUnauthenticated,
		fmt.Sprintf("caller %q may not act for user %q", callerID, ownerID), nil)
}

// NewCapacityError reports a full family plan.
func NewCapacityError(parentUserID string, maxMembers int) error {
	return apperrors.NewAppError(apperrors.ErrCapacityExceeded,
		fmt.Sprintf("family plan of %s already has %d members", parentUserID, maxMembers), nil)
}

// NewPlanEligibilityError reports a parent without a qualifying subscription.
func NewPlanEligibilityError(parentUserID string) error {
	return apperrors.NewAppError(apperrors.ErrPlanIneligible,
		fmt.Sprintf("user %s has no active paid subscription", parentUserID), nil)
}

func NewNotFoundError(resource, id string) error {
	return apperrors.NewAppError(apperrors.ErrNotFound, fmt.Sprintf("%s %s not found", resource, id), nil)
}

func NewConflictError(format string, args ...interface{}) error {
	return apperrors.NewAppError(apperrors.ErrConflict, fmt.Sprintf(format, args...), nil)
}

// NewStorageError wraps an I/O failure of the underlying store. Callers may
// retry these.
func NewStorageError(op string, err error) error {
	return apperrors.NewAppError(apperrors.ErrStorage, "failed to "+op, err)
}

// IsRetryable reports whether err is a storage failure.
func IsRetryable(err error) bool {
	return apperrors.Is(err, ErrStorage)
}
