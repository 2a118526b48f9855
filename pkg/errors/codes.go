package errors

// Error codes shared by every transport.
const (
	ErrInternal         = "INTERNAL"
	ErrNotFound         = "NOT_FOUND"
	ErrInvalidArgument  = "INVALID_ARGUMENT"
	ErrUnauthenticated  = "UNAUTHENTICATED"
	ErrUnauthorized     = "UNAUTHORIZED"
	ErrConflict         = "CONFLICT"
	ErrTimeout          = "TIMEOUT"
	ErrNotImplemented   = "NOT_IMPLEMENTED"
	ErrMethodNotAllowed = "METHOD_NOT_ALLOWED"
	ErrPayloadTooLarge  = "PAYLOAD_TOO_LARGE"

	// Entitlement specific codes
	ErrCapacityExceeded = "CAPACITY_EXCEEDED"
	ErrPlanIneligible   = "PLAN_INELIGIBLE"
	ErrStorage          = "STORAGE_FAILURE"
)
