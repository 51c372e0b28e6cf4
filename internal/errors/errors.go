// Package errors provides the application error type shared by the ingest
// job, the verifier and the admin API. Service-layer failures are always an
// *AppError so callers can branch on Code and the admin API can render a
// stable response without leaking database details.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Internal != nil {
		return e.Message + ": " + e.Internal.Error()
	}
	return e.Message
}

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Is reports whether target is an *AppError with the same code, so that
// errors.Is(err, ErrCurrencyNotFound) holds for wrapped copies.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
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

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// Exchange errors.
var (
	ErrExchangeNotFound = &AppError{Code: "EXCHANGE_NOT_FOUND", Message: "Exchange not found", StatusCode: http.StatusNotFound}
	ErrUnknownExchange  = &AppError{Code: "UNKNOWN_EXCHANGE", Message: "No fetcher is available for this exchange", StatusCode: http.StatusBadRequest}
	ErrFetchFailed      = &AppError{Code: "FETCH_FAILED", Message: "Failed to fetch exchange listing", StatusCode: http.StatusBadGateway}
)

// Currency errors.
var (
	ErrCurrencyNotFound    = &AppError{Code: "CURRENCY_NOT_FOUND", Message: "Currency not found", StatusCode: http.StatusNotFound}
	ErrDuplicateCurrency   = &AppError{Code: "DUPLICATE_CURRENCY", Message: "A currency with this name already exists", StatusCode: http.StatusConflict}
	ErrCurrencyKeyConflict = &AppError{Code: "CURRENCY_KEY_CONFLICT", Message: "Exchange key already maps to a different currency", StatusCode: http.StatusConflict}
	ErrUnresolvedName      = &AppError{Code: "UNRESOLVED_NAME", Message: "Currency name could not be resolved", StatusCode: http.StatusUnprocessableEntity}
	ErrUnknownType         = &AppError{Code: "UNKNOWN_TYPE", Message: "Currency type was not provided", StatusCode: http.StatusUnprocessableEntity}
)

// Trading pair errors.
var (
	ErrTradingPairNotFound = &AppError{Code: "TRADING_PAIR_NOT_FOUND", Message: "Trading pair not found", StatusCode: http.StatusNotFound}
	ErrPairKeyConflict     = &AppError{Code: "PAIR_KEY_CONFLICT", Message: "Exchange key already maps to a different trading pair", StatusCode: http.StatusConflict}
)
