// Package errors provides structured error handling for ledger operations.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Issuance errors
	CodeInvalidQuantity     Code = "INVALID_QUANTITY"
	CodeSupplyExceeded      Code = "SUPPLY_EXCEEDED"
	CodeInsufficientPayment Code = "INSUFFICIENT_PAYMENT"

	// Token errors
	CodeTokenNotFound Code = "TOKEN_NOT_FOUND"
	CodeTokenNotOwned Code = "TOKEN_NOT_OWNED"

	// Royalty errors
	CodeRoyaltyOutOfRange Code = "ROYALTY_OUT_OF_RANGE"

	// Treasury errors
	CodeTransferFailed Code = "TRANSFER_FAILED"

	// Access errors
	CodeUnauthorized Code = "UNAUTHORIZED"

	// Request errors
	CodeInvalidArgument Code = "INVALID_ARGUMENT"

	// Storage errors
	CodeNotFound       Code = "NOT_FOUND"
	CodeStorageFailure Code = "STORAGE_FAILURE"
)

// HTTPStatus maps domain codes to HTTP status codes.
func (c Code) HTTPStatus() int {
	switch c {
	// Bad request - validation failures, bad input
	case CodeInvalidQuantity,
		CodeRoyaltyOutOfRange,
		CodeInvalidArgument:
		return http.StatusBadRequest

	// Payment required - payment below the issuance total
	case CodeInsufficientPayment:
		return http.StatusPaymentRequired

	// Unauthorized - caller lacks the administrator capability
	case CodeUnauthorized:
		return http.StatusUnauthorized

	// Not found - resource doesn't exist
	case CodeTokenNotFound,
		CodeNotFound:
		return http.StatusNotFound

	// Conflict - state doesn't allow operation
	case CodeSupplyExceeded,
		CodeTokenNotOwned:
		return http.StatusConflict

	// Bad gateway - the underlying value transfer was rejected
	case CodeTransferFailed:
		return http.StatusBadGateway

	// Internal - the durable record could not be written
	case CodeStorageFailure:
		return http.StatusInternalServerError

	default:
		return http.StatusInternalServerError
	}
}
