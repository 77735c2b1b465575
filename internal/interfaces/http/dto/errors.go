package dto

import "net/http"

// Error codes returned by the API. Domain codes pass through unchanged.
const (
	ErrCodeInternal     = "INTERNAL_ERROR"
	ErrCodeValidation   = "VALIDATION_ERROR"
	ErrCodeBadRequest   = "BAD_REQUEST"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeForbidden    = "FORBIDDEN"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeRateLimited  = "RATE_LIMITED"
	ErrCodeTooLarge     = "REQUEST_TOO_LARGE"

	ErrCodeItemNotFound      = "ITEM_NOT_FOUND"
	ErrCodeBidderNotFound    = "BIDDER_NOT_FOUND"
	ErrCodeBelowInitialFloor = "BELOW_INITIAL_FLOOR"
	ErrCodeBelowCurrentFloor = "BELOW_CURRENT_FLOOR"
	ErrCodeWindowNotOpen     = "WINDOW_NOT_OPEN"
	ErrCodeSyncInProgress    = "SYNC_IN_PROGRESS"
	ErrCodeInvalidBidderID   = "INVALID_BIDDER_ID"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:     http.StatusInternalServerError,
	ErrCodeValidation:   http.StatusBadRequest,
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeNotFound:     http.StatusNotFound,
	ErrCodeRateLimited:  http.StatusTooManyRequests,
	ErrCodeTooLarge:     http.StatusRequestEntityTooLarge,

	ErrCodeItemNotFound:   http.StatusNotFound,
	ErrCodeBidderNotFound: http.StatusNotFound,

	// Bid rejections -> 422 Unprocessable Entity
	ErrCodeBelowInitialFloor: http.StatusUnprocessableEntity,
	ErrCodeBelowCurrentFloor: http.StatusUnprocessableEntity,
	ErrCodeWindowNotOpen:     http.StatusUnprocessableEntity,

	ErrCodeSyncInProgress:  http.StatusConflict,
	ErrCodeInvalidBidderID: http.StatusBadRequest,

	// Shared domain codes
	"INVALID_INPUT":        http.StatusBadRequest,
	"ALREADY_EXISTS":       http.StatusConflict,
	"CONCURRENCY_CONFLICT": http.StatusConflict,
	"INVALID_STATE":        http.StatusUnprocessableEntity,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes map to 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
