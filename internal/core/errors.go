// internal/core/errors.go
package core

import (
	"errors"
	"fmt"
)

// Error represents a structured error with code and optional cause.
type Error struct {
	Code    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is matching by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WrapError creates a new error with the same code but with a cause.
func WrapError(base *Error, cause error) *Error {
	return &Error{
		Code:    base.Code,
		Message: base.Message,
		Cause:   cause,
	}
}

var (
	errPriceNotPositive = errors.New("price must be positive")
	errVolumeNegative   = errors.New("volume cannot be negative")
)

// Predefined errors
var (
	// Data errors
	ErrNoData           = &Error{Code: "NO_DATA", Message: "no data available"}
	ErrInsufficientData = &Error{Code: "INSUFFICIENT_DATA", Message: "insufficient data for analysis"}
	ErrInvalidSample    = &Error{Code: "INVALID_SAMPLE", Message: "price sample rejected"}
	ErrDuplicateSample  = &Error{Code: "DUPLICATE_SAMPLE", Message: "price sample repeats the last one"}

	// Signal errors
	ErrSignalNotFound = &Error{Code: "SIGNAL_NOT_FOUND", Message: "signal not found"}
	ErrSignalClosed   = &Error{Code: "SIGNAL_CLOSED", Message: "signal is no longer active"}

	// Collector errors
	ErrCollectorFailed  = &Error{Code: "COLLECTOR_FAILED", Message: "collector failed"}
	ErrCollectorTimeout = &Error{Code: "COLLECTOR_TIMEOUT", Message: "collector timeout"}

	// Infrastructure errors
	ErrStoreFailed      = &Error{Code: "STORE_FAILED", Message: "signal store operation failed"}
	ErrCacheMiss        = &Error{Code: "CACHE_MISS", Message: "cache miss"}
	ErrCacheUnavailable = &Error{Code: "CACHE_UNAVAILABLE", Message: "cache unavailable"}
	ErrPublishFailed    = &Error{Code: "PUBLISH_FAILED", Message: "event publish failed"}

	// Config errors
	ErrConfigInvalid = &Error{Code: "CONFIG_INVALID", Message: "configuration invalid"}
	ErrConfigMissing = &Error{Code: "CONFIG_MISSING", Message: "required configuration missing"}

	// Request errors
	ErrUnauthorized   = &Error{Code: "UNAUTHORIZED", Message: "missing or invalid api key"}
	ErrInvalidRequest = &Error{Code: "INVALID_REQUEST", Message: "invalid request parameter"}
)
