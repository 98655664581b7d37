// Package errors provides custom error types for the KyatFlow API.
// All service-layer errors should use AppError so handlers can map every
// failure to a stable status code without leaking internal details.
package errors

import (
	stderrors "errors"
	"net/http"
)

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Is reports whether target carries the same code, so wrapped copies of a
// sentinel still match it.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// Authentication & authorization errors.
var (
	ErrUnauthorized         = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials   = &AppError{Code: "INVALID_CREDENTIALS", Message: "Invalid email or password", StatusCode: http.StatusUnauthorized}
	ErrForbidden            = &AppError{Code: "FORBIDDEN", Message: "Access denied", StatusCode: http.StatusForbidden}
	ErrSubscriptionRequired = &AppError{Code: "SUBSCRIPTION_REQUIRED", Message: "An active trial or pro subscription is required", StatusCode: http.StatusPaymentRequired}
	ErrInvalidAPIKey        = &AppError{Code: "INVALID_API_KEY", Message: "Invalid or missing X-API-Key", StatusCode: http.StatusUnauthorized}
	ErrInternalAPIDisabled  = &AppError{Code: "INTERNAL_API_NOT_CONFIGURED", Message: "Subscription sweep endpoint is disabled; set INTERNAL_API_KEY", StatusCode: http.StatusServiceUnavailable}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrInvalidState   = &AppError{Code: "INVALID_STATE", Message: "Operation not allowed in the current state", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrConflict       = &AppError{Code: "CONFLICT", Message: "Resource is in use", StatusCode: http.StatusConflict}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// User errors.
var (
	ErrUserNotFound   = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound}
	ErrDuplicateEmail = &AppError{Code: "DUPLICATE_EMAIL", Message: "A user with this email already exists", StatusCode: http.StatusConflict}
)

// Party errors. Deleting a party that still has transactions is reported
// as 400 because clients already branch on that status.
var (
	ErrPartyNotFound        = &AppError{Code: "PARTY_NOT_FOUND", Message: "Party not found", StatusCode: http.StatusNotFound}
	ErrPartyHasTransactions = &AppError{Code: "PARTY_HAS_TRANSACTIONS", Message: "Party has transactions; reassign or delete them first", StatusCode: http.StatusBadRequest}
	ErrInvalidPartyType     = &AppError{Code: "INVALID_PARTY_TYPE", Message: "Party type must be customer or supplier", StatusCode: http.StatusBadRequest}
)

// Transaction errors.
var (
	ErrTransactionNotFound    = &AppError{Code: "TRANSACTION_NOT_FOUND", Message: "Transaction not found", StatusCode: http.StatusNotFound}
	ErrInvalidTransactionType = &AppError{Code: "INVALID_TRANSACTION_TYPE", Message: "Transaction type must be income or expense", StatusCode: http.StatusBadRequest}
	ErrInvalidAmount          = &AppError{Code: "INVALID_AMOUNT", Message: "Amount must be greater than zero", StatusCode: http.StatusBadRequest}
)

// Subscription errors.
var (
	ErrTrialNotAvailable = &AppError{Code: "TRIAL_NOT_AVAILABLE", Message: "A trial can only be started from the free plan", StatusCode: http.StatusBadRequest}
	ErrInvalidCode       = &AppError{Code: "INVALID_CODE", Message: "Invalid or used code", StatusCode: http.StatusBadRequest}
	ErrInvalidStatus     = &AppError{Code: "INVALID_STATUS", Message: "Status must be one of free, trial, pro, expired", StatusCode: http.StatusBadRequest}
)

// Budget errors.
var (
	ErrBudgetNotFound = &AppError{Code: "BUDGET_NOT_FOUND", Message: "Budget not found", StatusCode: http.StatusNotFound}
)

// Kind classifies an error into one of the coarse categories callers branch
// on: not_found, invalid_input, invalid_state, conflict, unauthorized,
// forbidden or internal.
func Kind(err error) string {
	var appErr *AppError
	if !stderrors.As(err, &appErr) {
		return "internal"
	}
	switch appErr.Code {
	case ErrNotFound.Code, ErrUserNotFound.Code, ErrPartyNotFound.Code,
		ErrTransactionNotFound.Code, ErrBudgetNotFound.Code:
		return "not_found"
	case ErrInvalidInput.Code, ErrInvalidCode.Code, ErrInvalidStatus.Code,
		ErrInvalidAmount.Code, ErrInvalidTransactionType.Code, ErrInvalidPartyType.Code:
		return "invalid_input"
	case ErrInvalidState.Code, ErrTrialNotAvailable.Code:
		return "invalid_state"
	case ErrConflict.Code, ErrPartyHasTransactions.Code, ErrDuplicateEmail.Code:
		return "conflict"
	case ErrUnauthorized.Code, ErrInvalidCredentials.Code, ErrInvalidAPIKey.Code:
		return "unauthorized"
	case ErrForbidden.Code, ErrSubscriptionRequired.Code:
		return "forbidden"
	}
	return "internal"
}
