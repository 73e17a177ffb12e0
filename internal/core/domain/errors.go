package domain

import (
	"fmt"
	"net/http"
)

// Error defines a standard error shape for the service layer.
type Error struct {
	// HTTP Status Code (e.g., 400, 502, 500)
	Code int
	// Safe message for the client
	Message string
	// Original error for internal logging
	Log error
}

// Error implements standard error interface
func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Log
}

// BadRequestError creates a standard error for a bad request
func BadRequestError(msg string) *Error {
	return &Error{Code: http.StatusBadRequest, Message: msg}
}

// InternalError creates a standard error for any internal server error
func InternalError(msg string, err error) *Error {
	return &Error{Code: http.StatusInternalServerError, Message: msg, Log: err}
}

// NotFoundError creates a standard 404 error
func NotFoundError(msg string) *Error {
	return &Error{Code: http.StatusNotFound, Message: msg}
}

// UnauthorizedError creates a 401 unauthed error
func UnauthorizedError(msg string) *Error {
	return &Error{Code: http.StatusUnauthorized, Message: msg}
}

// ProviderError creates a 502 gateway error for upstream provider failures
func ProviderError(msg string, err error) *Error {
	return &Error{Code: http.StatusBadGateway, Message: msg, Log: err}
}

// ConfigurationError reports that no usable provider credential exists at
// all: the call fails before any attempt is made.
func ConfigurationError(msg string) *Error {
	return &Error{Code: http.StatusPreconditionFailed, Message: msg}
}

// BothFailedError names both failure reasons when the direct attempt (if
// any) and the aggregator attempt both came back without an image.
func BothFailedError(directReason, secondaryReason string) *Error {
	msg := fmt.Sprintf("image request failed on every provider: %s", secondaryReason)
	if directReason != "" {
		msg = fmt.Sprintf("image request failed on every provider: gemini: %s; openrouter: %s", directReason, secondaryReason)
	}
	return &Error{Code: http.StatusBadGateway, Message: msg}
}
