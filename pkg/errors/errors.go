// Package errors defines the error taxonomy shared by the workflow API client
// and the view models that render its results.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AuthError represents a missing, expired or rejected session token.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("unauthorized: %s", e.Reason)
	}
	return "unauthorized"
}

func (e *AuthError) HTTPStatus() int {
	return http.StatusUnauthorized
}

func (e *AuthError) Code() string {
	return "UNAUTHORIZED"
}

// NewAuthError creates a new AuthError
func NewAuthError(reason string) *AuthError {
	return &AuthError{Reason: reason}
}

// RequestError is a non-2xx response or a `success:false` envelope.
// Message holds the server-provided message verbatim when there was one.
type RequestError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *RequestError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s failed (%d): %s", e.Method, e.Path, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s %s failed (%d)", e.Method, e.Path, e.StatusCode)
}

func (e *RequestError) HTTPStatus() int {
	return http.StatusBadGateway
}

func (e *RequestError) Code() string {
	return "REQUEST_FAILED"
}

// NotFoundError represents a resource the server reported as missing (HTTP 404).
type NotFoundError struct {
	Resource string
	ID       string
	Message  string
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s with ID '%s' not found", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e *NotFoundError) HTTPStatus() int {
	return http.StatusNotFound
}

func (e *NotFoundError) Code() string {
	return "NOT_FOUND"
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// NetworkError wraps a transport-level failure: the request never produced
// an HTTP response.
type NetworkError struct {
	Method string
	Path   string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: network error: %v", e.Method, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

func (e *NetworkError) HTTPStatus() int {
	return http.StatusBadGateway
}

func (e *NetworkError) Code() string {
	return "NETWORK_ERROR"
}

// IsAuth reports whether err is an AuthError
func IsAuth(err error) bool {
	var target *AuthError
	return errors.As(err, &target)
}

// IsNotFound reports whether err is a NotFoundError
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsNetwork reports whether err is a NetworkError
func IsNetwork(err error) bool {
	var target *NetworkError
	return errors.As(err, &target)
}

// UserMessage returns the message to show a user for err: the server's own
// message when one was returned, otherwise fallback.
func UserMessage(err error, fallback string) string {
	var reqErr *RequestError
	if errors.As(err, &reqErr) && reqErr.Message != "" {
		return reqErr.Message
	}
	var nfErr *NotFoundError
	if errors.As(err, &nfErr) && nfErr.Message != "" {
		return nfErr.Message
	}
	var authErr *AuthError
	if errors.As(err, &authErr) && authErr.Reason != "" {
		return "Session invalide : " + authErr.Reason
	}
	return fallback
}

// HTTPStatus returns the status a console handler should answer with for err.
func HTTPStatus(err error) int {
	var appErr interface{ HTTPStatus() int }
	if errors.As(err, &appErr) {
		return appErr.HTTPStatus()
	}
	return http.StatusInternalServerError
}
